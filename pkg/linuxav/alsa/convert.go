//go:build linux

package alsa

import "math"

func clampUnit(s float32) float32 {
	switch {
	case math.IsNaN(float64(s)):
		return 0
	case s > 1:
		return 1
	case s < -1:
		return -1
	}
	return s
}

func appendS16(dst []int16, src []float32) []int16 {
	for _, s := range src {
		dst = append(dst, int16(clampUnit(s)*math.MaxInt16))
	}
	return dst
}

func appendS32(dst []int32, src []float32) []int32 {
	for _, s := range src {
		dst = append(dst, int32(float64(clampUnit(s))*math.MaxInt32))
	}
	return dst
}
