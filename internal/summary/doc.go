// Package summary condenses transcripts into a short summary and a list of
// key points.
//
// Key points follow a fixed rule: a transcript with at most five
// period-delimited sentences yields those sentences verbatim; a longer one is
// summarized and the summary is split on periods.
//
// Summaries are produced by a Backend. PromptBackend adapts any chat-style
// completer (the llm and gemini service clients) with a deterministic
// prompt.
package summary
