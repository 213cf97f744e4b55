package show

import "math"

// EvenlySpaced maps each key to a value, spreading the keys evenly over
// the values: [1 2 3] over [a b c d e f] gives 1:a 2:c 3:e
func EvenlySpaced[K comparable, V any](keys []K, values []V) map[K]V {
	out := make(map[K]V, len(keys))
	if len(keys) == 0 || len(values) == 0 {
		return out
	}
	for i, k := range keys {
		idx := int(math.RoundToEven(float64(i) * float64(len(values)) / float64(len(keys))))
		out[k] = values[min(idx, len(values)-1)]
	}
	return out
}

// IsCMajor reports whether pitch is a white key
func IsCMajor(pitch uint8) bool {
	switch pitch % 12 {
	case 0, 2, 4, 5, 7, 9, 11:
		return true
	}
	return false
}

// CMajor returns the white-key pitches in [lo, hi)
func CMajor(lo, hi int) []uint8 {
	var out []uint8
	for p := lo; p < hi && p < 128; p++ {
		if IsCMajor(uint8(p)) {
			out = append(out, uint8(p))
		}
	}
	return out
}
