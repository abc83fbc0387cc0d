// Package language normalizes the language codes that flow between
// configuration and the speech-to-text backends.
//
// Configuration carries BCP 47 tags ("en-US"); WhisperX and most HTTP
// transcription APIs want a bare ISO 639-1 code ("en"). Parsing is delegated to
// golang.org/x/text/language so region, script, and three-letter forms are
// handled the same way everywhere.
package language
