package resource

import "math"

// Entropy returns the Shannon entropy of data in bits per byte, from 0
// (a single repeated byte) to 8 (uniformly distributed bytes). Compressed
// or encrypted payloads score above 7.
func Entropy(data []byte) float64 {
	if len(data) == 0 {
		return 0
	}

	var freq [256]int
	for _, b := range data {
		freq[b]++
	}

	var entropy float64
	total := float64(len(data))
	for _, count := range freq {
		if count == 0 {
			continue
		}
		p := float64(count) / total
		entropy -= p * math.Log2(p)
	}
	return entropy
}
