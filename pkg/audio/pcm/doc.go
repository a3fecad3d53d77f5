// Package pcm provides types and utilities for working with PCM (Pulse Code
// Modulation) audio data produced by the womb bed.
//
// Key types:
//   - Format: sample rate, channel count and sample encoding (L16 or F32)
//   - Chunk: interface for audio data chunks
//   - DataChunk: concrete Chunk holding raw encoded bytes
//   - SilenceChunk: Chunk that produces a number of silent frames
//   - Writer: interface for writing audio chunks
//
// Example usage:
//
//	format := pcm.Format{SampleRate: 48000, Channels: 2, Encoding: pcm.F32}
//
//	// Bytes needed for 20ms of audio
//	n := format.BytesInDuration(20 * time.Millisecond)
//
//	// Encode interleaved float frames
//	chunk := format.DataChunk(pcm.Encode(format.Encoding, frames))
package pcm
