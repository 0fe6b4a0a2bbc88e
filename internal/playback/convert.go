package playback

import (
	"github.com/go-audio/audio"
)

// FromFloat64 converts double precision samples, appending to dst.
func FromFloat64(dst []float32, src []float64) []float32 {
	for _, s := range src {
		dst = append(dst, float32(s))
	}
	return dst
}

// FromInt16 converts signed 16-bit PCM to [-1, 1), appending to dst.
func FromInt16(dst []float32, src []int16) []float32 {
	for _, s := range src {
		dst = append(dst, float32(s)/32768)
	}
	return dst
}

// FromInt converts signed integer PCM of the given bit depth to [-1, 1),
// appending to dst. A bit depth outside 1..32 is treated as 16.
func FromInt(dst []float32, src []int, bitDepth int) []float32 {
	if bitDepth < 1 || bitDepth > 32 {
		bitDepth = 16
	}
	scale := float64(int64(1) << (bitDepth - 1))
	for _, s := range src {
		dst = append(dst, float32(float64(s)/scale))
	}
	return dst
}

// FromBuffer converts a go-audio buffer to interleaved float32 samples,
// appending to dst. Integer buffers are normalized by their source bit
// depth.
func FromBuffer(dst []float32, buf audio.Buffer) []float32 {
	switch b := buf.(type) {
	case nil:
		return dst
	case *audio.Float32Buffer:
		return append(dst, b.Data...)
	case *audio.FloatBuffer:
		return FromFloat64(dst, b.Data)
	case *audio.IntBuffer:
		return FromInt(dst, b.Data, b.SourceBitDepth)
	default:
		return append(dst, buf.AsFloat32Buffer().Data...)
	}
}
