package domain

import "github.com/dustin/go-humanize"

// RoundUpFull rounds a population count up to a presentable number and
// returns the rounding unit as display text: nearest 10 below 1,000, nearest
// 100 below 100,000, nearest 1,000 above that. Zero stays zero with unit "1".
func RoundUpFull(n int64) (int64, string) {
	if n <= 0 {
		return n, "1"
	}

	var unit int64
	switch {
	case n < 1000:
		unit = 10
	case n < 100000:
		unit = 100
	default:
		unit = 1000
	}
	return ceilTo(n, unit), humanize.Comma(unit)
}

// RoundUpCoarse hides digits below a thousand: values under 1,000 pass
// through, larger values round up to the next multiple of 1,000.
func RoundUpCoarse(n int64) int64 {
	if n < 1000 {
		return n
	}
	return ceilTo(n, 1000)
}

func ceilTo(n, unit int64) int64 {
	if r := n % unit; r != 0 {
		return n + unit - r
	}
	return n
}
