// Package audio decodes audio files into normalised sample buffers.
//
// WAV files (PCM 8/16/24/32-bit and IEEE float) are parsed directly.
// Other formats are transcoded to float WAV with ffmpeg when it is installed.
package audio
