package textlayout

import (
	"math"
	"strings"
	"testing"
)

func TestLayoutSingleLine(t *testing.T) {
	box := Default().Layout("hello", 500, Style{SizePx: 12})
	if len(box.Lines) != 1 {
		t.Fatalf("lines = %d, want 1", len(box.Lines))
	}
	if box.Width <= 0 || box.Width > 500 {
		t.Errorf("width = %v", box.Width)
	}
	if want := 12 * DefaultLineHeight; math.Abs(box.Height-want) > 1e-9 {
		t.Errorf("height = %v, want %v", box.Height, want)
	}
}

func TestLayoutWrapsToWidth(t *testing.T) {
	text := strings.Repeat("word ", 60)
	box := Default().Layout(text, 120, Style{SizePx: 12})
	if len(box.Lines) < 5 {
		t.Errorf("expected many lines, got %d", len(box.Lines))
	}
	for _, l := range box.Lines {
		if w := Default().Width(l, Style{SizePx: 12}); w > 120 {
			t.Errorf("line %q is %v wide", l, w)
		}
	}
}

func TestLayoutExplicitNewlines(t *testing.T) {
	box := Default().Layout("a\n\nb", 300, Style{SizePx: 10})
	if len(box.Lines) != 3 {
		t.Errorf("lines = %d, want 3", len(box.Lines))
	}
}

func TestLayoutBreaksLongWord(t *testing.T) {
	box := Default().Layout(strings.Repeat("x", 200), 50, Style{SizePx: 12})
	if len(box.Lines) < 2 {
		t.Errorf("long word not broken: %d lines", len(box.Lines))
	}
}

func TestLargerFontIsTaller(t *testing.T) {
	text := strings.Repeat("lorem ipsum ", 20)
	small := Default().Layout(text, 200, Style{SizePx: 10})
	large := Default().Layout(text, 200, Style{SizePx: 20})
	if large.Height <= small.Height {
		t.Errorf("large %v <= small %v", large.Height, small.Height)
	}
}

func TestKeepWordsOverflowsWidth(t *testing.T) {
	box := Default().Layout("a "+strings.Repeat("x", 100), 50, Style{SizePx: 12, KeepWords: true})
	if box.Width <= 50 {
		t.Errorf("width = %v, expected overflow past 50", box.Width)
	}
}
