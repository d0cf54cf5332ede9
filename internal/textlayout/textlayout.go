// Package textlayout lays out plain text in pixel space with the Go fonts.
// It is the text engine behind both block measurement and shrink-to-fit.
package textlayout

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// DefaultLineHeight is the CSS "normal" line height multiplier.
const DefaultLineHeight = 1.2

// Style selects a face and line spacing.
type Style struct {
	SizePx     float64
	Bold       bool
	LineHeight float64
	// KeepWords leaves words wider than the line on a line of their own
	// instead of breaking them, so the box can overflow horizontally.
	KeepWords bool
}

// Box is the result of laying out text.
type Box struct {
	Lines  []string
	Width  float64
	Height float64
}

type faceKey struct {
	quarterPx int
	bold      bool
}

// Bank caches font faces. Faces are not safe for concurrent use, so every
// layout call holds the bank's lock.
type Bank struct {
	mu      sync.Mutex
	regular *opentype.Font
	bold    *opentype.Font
	cache   map[faceKey]font.Face
}

// NewBank parses the embedded Go fonts.
func NewBank() (*Bank, error) {
	reg, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("textlayout: parse regular: %w", err)
	}
	bol, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("textlayout: parse bold: %w", err)
	}
	return &Bank{regular: reg, bold: bol, cache: map[faceKey]font.Face{}}, nil
}

var (
	defaultBank     *Bank
	defaultBankOnce sync.Once
)

// Default returns a process-wide bank. If the embedded fonts cannot be
// parsed it falls back to the fixed 7x13 bitmap face.
func Default() *Bank {
	defaultBankOnce.Do(func() {
		b, err := NewBank()
		if err != nil {
			b = &Bank{cache: map[faceKey]font.Face{}}
		}
		defaultBank = b
	})
	return defaultBank
}

func (b *Bank) face(st Style) font.Face {
	key := faceKey{quarterPx: int(math.Round(st.SizePx * 4)), bold: st.Bold}
	if f, ok := b.cache[key]; ok {
		return f
	}
	base := b.regular
	if st.Bold {
		base = b.bold
	}
	if base == nil {
		return basicfont.Face7x13
	}
	f, err := opentype.NewFace(base, &opentype.FaceOptions{
		Size:    float64(key.quarterPx) / 4,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return basicfont.Face7x13
	}
	b.cache[key] = f
	return f
}

// Layout wraps text into lines no wider than maxWidth (words longer than
// maxWidth are broken between runes) and returns the resulting box.
// Explicit newlines always start a new line.
func (b *Bank) Layout(text string, maxWidth float64, st Style) Box {
	if st.SizePx <= 0 {
		return Box{}
	}
	if st.LineHeight <= 0 {
		st.LineHeight = DefaultLineHeight
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	face := b.face(st)

	var box Box
	for _, para := range strings.Split(text, "\n") {
		for _, line := range wrap(face, para, maxWidth, st.KeepWords) {
			box.Lines = append(box.Lines, line)
			box.Width = math.Max(box.Width, measure(face, line))
		}
	}
	box.Height = float64(len(box.Lines)) * st.SizePx * st.LineHeight
	return box
}

// Width returns the advance width of a single line of text.
func (b *Bank) Width(text string, st Style) float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return measure(b.face(st), text)
}

func measure(face font.Face, s string) float64 {
	if s == "" {
		return 0
	}
	return float64(font.MeasureString(face, s)) / 64
}

// wrap greedily fills lines word by word.
func wrap(face font.Face, para string, maxWidth float64, keepWords bool) []string {
	words := strings.FieldsFunc(para, unicode.IsSpace)
	if len(words) == 0 {
		return []string{""}
	}
	space := measure(face, " ")

	var lines []string
	var cur string
	curW := 0.0
	for _, w := range words {
		ww := measure(face, w)
		if maxWidth > 0 && ww > maxWidth && !keepWords {
			if cur != "" {
				lines = append(lines, cur)
				cur, curW = "", 0
			}
			pieces := breakWord(face, w, maxWidth)
			lines = append(lines, pieces[:len(pieces)-1]...)
			cur = pieces[len(pieces)-1]
			curW = measure(face, cur)
			continue
		}
		switch {
		case cur == "":
			cur, curW = w, ww
		case maxWidth <= 0 || curW+space+ww <= maxWidth:
			cur += " " + w
			curW += space + ww
		default:
			lines = append(lines, cur)
			cur, curW = w, ww
		}
	}
	return append(lines, cur)
}

func breakWord(face font.Face, w string, maxWidth float64) []string {
	var out []string
	var cur []rune
	for _, r := range w {
		next := append(cur, r)
		if len(cur) > 0 && measure(face, string(next)) > maxWidth {
			out = append(out, string(cur))
			cur = []rune{r}
			continue
		}
		cur = next
	}
	return append(out, string(cur))
}
