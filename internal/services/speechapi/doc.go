// Package speechapi uploads audio to an OpenAI-compatible
// /audio/transcriptions endpoint and returns the recognized text.
package speechapi
