// Package llm provides an OpenAI-compatible chat client (OpenRouter by
// default) used by the summarization stage.
//
// # Configuration
//
// Requires api_key and model; base_url, referer, title and timeout are
// optional. When the key is missing, Complete and CompleteJSON fail before
// any request is made.
//
// # Entry Points
//
// NewClient: construct client from Config.
// Client.Complete: send system/user prompts, receive plain text.
// Client.CompleteJSON: send system/user prompts, receive a JSON payload.
// Client.HealthCheck: verify API key and model availability.
// DecodeLLMJSON: decode model output that may be wrapped in code fences.
//
// # Retry Behaviour
//
// Requests are retried with exponential backoff (base 1s, max 10s, 4
// attempts by default) on HTTP 408/429/5xx, empty completions, and network
// timeouts. Other failures are permanent. Context cancellation aborts
// retries immediately.
package llm
