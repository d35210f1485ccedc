package airgen

import "math"

func putLEFloat32(dst []byte, v float64) {
	bits := math.Float32bits(float32(v))
	for i := 0; i < 4 && i < len(dst); i++ {
		dst[i] = byte(bits >> (8 * uint(i)))
	}
}

func putLEFloat64(dst []byte, v float64) {
	bits := math.Float64bits(v)
	for i := 0; i < 8 && i < len(dst); i++ {
		dst[i] = byte(bits >> (8 * uint(i)))
	}
}
