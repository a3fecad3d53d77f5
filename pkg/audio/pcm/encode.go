package pcm

import (
	"encoding/binary"
	"math"
)

// Clamp restricts a sample to [-1, 1]. NaN maps to 0.
func Clamp(v float32) float32 {
	switch {
	case v != v:
		return 0
	case v > 1:
		return 1
	case v < -1:
		return -1
	}
	return v
}

// Encode encodes float samples in [-1, 1] as little-endian PCM. Samples are
// clamped first.
func Encode(e Encoding, samples []float32) []byte {
	return AppendEncoded(make([]byte, 0, len(samples)*e.Depth()/8), e, samples)
}

// AppendEncoded appends the encoding of samples to dst.
func AppendEncoded(dst []byte, e Encoding, samples []float32) []byte {
	switch e {
	case L16:
		for _, s := range samples {
			dst = binary.LittleEndian.AppendUint16(dst, uint16(toInt16(s)))
		}
	case F32:
		for _, s := range samples {
			dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(Clamp(s)))
		}
	default:
		panic("pcm: invalid encoding")
	}
	return dst
}

// Decode decodes little-endian PCM into float samples.
func Decode(e Encoding, data []byte) []float32 {
	width := e.Depth() / 8
	out := make([]float32, len(data)/width)
	for i := range out {
		b := data[i*width:]
		switch e {
		case L16:
			out[i] = float32(int16(binary.LittleEndian.Uint16(b))) / 32768
		case F32:
			out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b))
		}
	}
	return out
}

func toInt16(s float32) int16 {
	return int16(math.Round(float64(Clamp(s)) * 32767))
}

// Stereo interleaves a mono signal into left/right frames with the right
// channel scaled by rightGain.
func Stereo(mono []float32, rightGain float32) []float32 {
	out := make([]float32, 0, len(mono)*2)
	for _, s := range mono {
		out = append(out, s, s*rightGain)
	}
	return out
}
