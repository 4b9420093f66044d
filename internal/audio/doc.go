// Package audio turns uploaded recordings into the single canonical format
// handed to the inference service: 16-bit PCM WAV, cropped to a maximum
// duration.
package audio
