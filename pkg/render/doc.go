// Package render drives a womb.Bed offline and writes a normalized WAV.
//
// Rendering is two-pass. The first pass runs the bed to find the peak; the
// second pass rebuilds the bed from the same seed, which regenerates the
// identical signal, and streams it through gain, resampling, stereo
// decorrelation and clamping into the WAV encoder. Memory use does not grow
// with the duration.
package render
