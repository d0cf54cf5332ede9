package render

import (
	"context"

	"github.com/starford/cheatsheet/internal/markup"
	"github.com/starford/cheatsheet/internal/models"
	"github.com/starford/cheatsheet/internal/textlayout"
	"github.com/starford/cheatsheet/internal/units"
)

// Scale bounds for shrink-to-fit.
const (
	coarseStep  = 5
	coarseFloor = 10
	fineStep    = 1
	fineFloor   = 5
)

// FitText shrinks a font percentage until overflows reports false. It steps
// down by 5 while above 10, then by 1 while above 5. A start of zero or
// less is treated as 100.
func FitText(start int, overflows func(percent int) bool) int {
	size := start
	if size <= 0 {
		size = int(models.DefaultFontScale)
	}
	for overflows(size) && size > coarseFloor {
		size -= coarseStep
	}
	for overflows(size) && size > fineFloor {
		size -= fineStep
	}
	return size
}

// Fitter decides whether block text overflows its fixed box at a scale.
type Fitter struct {
	bank        *textlayout.Bank
	columnWidth float64
}

// NewFitter returns a fitter for blocks laid out in a column of the given width.
func NewFitter(bank *textlayout.Bank, columnWidthPx float64) *Fitter {
	if bank == nil {
		bank = textlayout.Default()
	}
	return &Fitter{bank: bank, columnWidth: columnWidthPx}
}

// Scalable reports whether b gets shrink-to-fit: only fixed-height content
// blocks are scaled.
func Scalable(b models.Block) bool {
	return !b.IsDivider() && !b.AutoHeight
}

// Scale returns the shrink-to-fit percentage for b, starting at its font
// scale. Blocks that are not scaled keep their font scale.
func (f *Fitter) Scale(b models.Block) int {
	b = models.Normalize(b)
	if !Scalable(b) {
		return int(b.FontScale)
	}
	boxH, ok := units.ParseLength(b.Height)
	if !ok {
		return int(b.FontScale)
	}
	text, _ := markup.UnicodeTypesetter{}.Typeset(context.Background(), b.Content)
	innerW := f.columnWidth - 2*BasePaddingPx
	innerH := boxH - 2*BasePaddingPx

	return FitText(int(b.FontScale), func(percent int) bool {
		box := f.bank.Layout(text, innerW, textlayout.Style{
			SizePx:    BaseFontPx * float64(percent) / 100,
			Bold:      b.Emphasized,
			KeepWords: true,
		})
		return box.Height > innerH || box.Width > innerW
	})
}
