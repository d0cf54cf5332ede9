// Package units converts CSS physical lengths to layout pixels (96 DPI).
package units

import (
	"math"
	"strconv"
	"strings"
)

// Pixels per physical unit at the CSS reference density of 96 DPI.
const (
	PxPerIn = 96.0
	PxPerCm = PxPerIn / 2.54
	PxPerMm = PxPerCm / 10
	PxPerPt = PxPerIn / 72
	PxPerPc = PxPerPt * 12
)

var suffixes = []struct {
	unit  string
	scale float64
}{
	{"px", 1},
	{"cm", PxPerCm},
	{"mm", PxPerMm},
	{"in", PxPerIn},
	{"pt", PxPerPt},
	{"pc", PxPerPc},
}

// ParseLength converts a CSS length such as "2cm", "15mm" or "40px" to
// pixels. A bare number is taken as pixels. Non-positive and unparseable
// values report ok=false.
func ParseLength(s string) (px float64, ok bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0, false
	}
	scale := 1.0
	for _, sfx := range suffixes {
		if strings.HasSuffix(s, sfx.unit) {
			s = strings.TrimSpace(strings.TrimSuffix(s, sfx.unit))
			scale = sfx.scale
			break
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}
	return v * scale, true
}

// Ceil rounds a pixel value up to the next whole pixel.
func Ceil(px float64) int {
	return int(math.Ceil(px - 1e-9))
}
