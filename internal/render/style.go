// Package render projects a document onto HTML. It maps block attributes to
// visual properties, tags every element with a stable identifier and
// shrinks fixed-height text to fit its box.
package render

import (
	"fmt"
	"strings"

	"github.com/starford/cheatsheet/internal/models"
	"github.com/starford/cheatsheet/internal/units"
)

// Box metrics shared with the measurement surface.
const (
	AutoMinHeight = "1cm"
	AutoPaddingPx = 5.0
	BasePaddingPx = 4.0
	BaseFontPx    = 12.0
)

// BlockStyle is the visual projection of one block.
type BlockStyle struct {
	Classes        []string
	Divider        bool
	JustifyContent string
	AlignItems     string
	TextAlign      string
	Height         string
	MinHeight      string
	PaddingPx      float64
	FontPercent    int // 0 means inherit (100%)
}

// StyleOf maps block attributes to visual properties.
func StyleOf(b models.Block) BlockStyle {
	if b.IsDivider() {
		return BlockStyle{Classes: []string{string(b.Kind)}, Divider: true}
	}
	b = models.Normalize(b)
	s := BlockStyle{
		Classes:        []string{"block", string(b.Kind)},
		JustifyContent: string(b.HAlign),
		AlignItems:     string(b.VAlign),
		TextAlign:      textAlign(b.HAlign),
		PaddingPx:      BasePaddingPx,
	}
	if b.Emphasized {
		s.Classes = append(s.Classes, "important")
	}
	if b.AutoHeight {
		s.Height = "auto"
		s.MinHeight = AutoMinHeight
		s.PaddingPx = AutoPaddingPx
	} else {
		s.Height = b.Height
		if _, ok := units.ParseLength(b.Height); !ok {
			s.Height = models.DefaultHeight
		}
	}
	if b.FontScale != models.DefaultFontScale {
		s.FontPercent = int(b.FontScale)
	}
	return s
}

func textAlign(a models.Align) string {
	switch a {
	case models.AlignStart:
		return "left"
	case models.AlignEnd:
		return "right"
	default:
		return "center"
	}
}

// ClassAttr joins the style classes.
func (s BlockStyle) ClassAttr() string {
	return strings.Join(s.Classes, " ")
}

// BoxCSS is the inline style of the block container.
func (s BlockStyle) BoxCSS() string {
	if s.Divider {
		return ""
	}
	parts := []string{
		"justify-content:" + s.JustifyContent,
		"align-items:" + s.AlignItems,
		"height:" + s.Height,
		fmt.Sprintf("padding:%gpx", s.PaddingPx),
	}
	if s.MinHeight != "" {
		parts = append(parts, "min-height:"+s.MinHeight)
	}
	return strings.Join(parts, ";")
}

// TextCSS is the inline style of the inner text span at the given scale.
func (s BlockStyle) TextCSS(percent int) string {
	css := "text-align:" + s.TextAlign
	if percent > 0 && percent != int(models.DefaultFontScale) {
		css += fmt.Sprintf(";font-size:%d%%", percent)
	}
	return css
}
