// Package transcription turns a normalized WAV artifact into transcript
// text. Backends are selected from configuration: "whisperx" runs WhisperX
// locally, "http" uploads the audio to an OpenAI-compatible endpoint.
//
// Every failure, including an empty hypothesis, is reported with
// services.ErrTranscription.
package transcription
