// Package whisperx runs local speech-to-text through WhisperX launched via
// uvx and parses the JSON transcript it writes.
//
// Configuration options (model, CUDA, VAD method) are passed via Config.
// Tests replace the process launcher with WithCommandRunner.
package whisperx
