// Package gemini wraps the Google Gen AI SDK for single-turn text
// generation. It backs the "gemini" summarization backend.
package gemini
