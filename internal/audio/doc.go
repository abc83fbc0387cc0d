// Package audio prepares recordings for transcription.
//
// EnsureWAV brings any supported input (mp3, wav, m4a, ogg) into the
// canonical WAV container, shelling out to ffmpeg for decoding. WAV inputs
// pass through untouched and are marked non-temporary so callers never delete
// them. Normalize measures RMS loudness of 16/24/32-bit (and unsigned 8-bit)
// integer PCM and writes a gain-adjusted copy; it streams the data chunk twice
// rather than loading the whole recording into memory.
//
// Every artifact this package writes goes into the caller-supplied work
// directory and is marked Temporary; ownership passes to the caller.
package audio
