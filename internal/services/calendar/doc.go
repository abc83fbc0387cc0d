// Package calendar schedules follow-up events with a calendar service.
//
// NewConfiguredSink returns an HTTP sink when an API key is configured and a
// disabled sink otherwise. Events are posted to {base_url}/events with UTC
// RFC 3339 timestamps. Followup builds the standard follow-up request from a
// summary.
package calendar
