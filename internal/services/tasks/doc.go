// Package tasks files action items with an external task manager.
//
// NewConfiguredSink returns an HTTP sink when an API key is configured and a
// disabled sink otherwise; callers check Enabled before use. The HTTP sink
// issues one POST {base_url}/tasks per item, in order, and does not retry.
package tasks
