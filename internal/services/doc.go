// Package services defines shared utilities consumed by the pipeline stages
// and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, stage names, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper. Required-stage markers
//     (unsupported format, conversion, normalization, transcription,
//     summarization) terminate a run; ErrIntegration marks contained failures
//     of the optional task and calendar sinks.
//
// Subpackages hold the clients for external backends (LLM, Gemini, WhisperX,
// HTTP speech-to-text, task manager, calendar).
package services
