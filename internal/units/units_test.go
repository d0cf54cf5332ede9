package units

import (
	"math"
	"testing"
)

func TestParseLength(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"2cm", 2 * PxPerCm, true},
		{"15mm", 15 * PxPerMm, true},
		{"1in", 96, true},
		{"40px", 40, true},
		{" 72pt ", 96, true},
		{"30", 30, true},
		{"auto", 0, false},
		{"", 0, false},
		{"-3cm", 0, false},
	}
	for _, c := range cases {
		got, ok := ParseLength(c.in)
		if ok != c.ok || math.Abs(got-c.want) > 1e-9 {
			t.Errorf("ParseLength(%q) = %v, %v; want %v, %v", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestCeil(t *testing.T) {
	if got := Ceil(75.59); got != 76 {
		t.Errorf("Ceil(75.59) = %d", got)
	}
	if got := Ceil(40); got != 40 {
		t.Errorf("Ceil(40) = %d", got)
	}
}
