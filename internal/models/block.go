// Package models defines the cheat-sheet document tree: pages of three
// columns holding content blocks and divider separators.
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind tags a block. Content kinds only affect styling; any kind containing
// "divider" is a structural separator.
type Kind string

const (
	KindDefault       Kind = "def"
	KindSingleDivider Kind = "sdivider"
	KindDoubleDivider Kind = "double-divider"
)

// IsDivider reports whether k is a separator kind.
func (k Kind) IsDivider() bool {
	return strings.Contains(string(k), "divider")
}

// Align positions block content along one axis. Values are stored using
// the flexbox spelling so exported files stay compatible with older sheets.
type Align string

const (
	AlignStart  Align = "flex-start"
	AlignCenter Align = "center"
	AlignEnd    Align = "flex-end"
)

// ParseAlign accepts both the short (start/end) and flexbox spellings.
func ParseAlign(s string) (Align, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "start", "flex-start", "left", "top":
		return AlignStart, true
	case "center", "middle", "":
		return AlignCenter, true
	case "end", "flex-end", "right", "bottom":
		return AlignEnd, true
	}
	return "", false
}

// UnmarshalJSON decodes an alignment, falling back to center for unknown values.
func (a *Align) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("align: %w", err)
	}
	v, ok := ParseAlign(s)
	if !ok {
		v = AlignCenter
	}
	*a = v
	return nil
}

// FontScale is the starting (maximum) font size percentage used by
// shrink-to-fit.
type FontScale int

// DefaultFontScale is the scale of a freshly added block.
const DefaultFontScale FontScale = 100

// Bounds of a font scale. Shrink-to-fit steps down from the scale, so an
// unbounded value makes rendering unbounded too.
const (
	MinFontScale FontScale = 5
	MaxFontScale FontScale = 400
)

// Clamp limits f to [MinFontScale, MaxFontScale]. Unset values (<= 0) are
// left alone for Normalize to default.
func (f FontScale) Clamp() FontScale {
	switch {
	case f <= 0:
		return f
	case f < MinFontScale:
		return MinFontScale
	case f > MaxFontScale:
		return MaxFontScale
	}
	return f
}

// UnmarshalJSON accepts a JSON number or a numeric string; sheets saved by
// the browser editor stored the form value verbatim.
func (f *FontScale) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}
	raw := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("font scale: %w", err)
		}
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || v <= 0 {
		// Unparseable values act like an unset scale.
		*f = 0
		return nil
	}
	if v > float64(MaxFontScale) {
		v = float64(MaxFontScale)
	}
	*f = FontScale(int(v)).Clamp()
	return nil
}

// Block is the atomic layout unit.
type Block struct {
	Kind       Kind      `json:"type"`
	Content    string    `json:"content"`
	Height     string    `json:"height"`
	AutoHeight bool      `json:"autoHeight"`
	FontScale  FontScale `json:"manualFontSize"`
	VAlign     Align     `json:"vAlign"`
	HAlign     Align     `json:"hAlign"`
	Emphasized bool      `json:"important"`
}

// DefaultHeight is the declared height of a freshly added block.
const DefaultHeight = "2cm"

// NewBlock returns the default content block inserted by "add block".
func NewBlock() Block {
	return Block{
		Kind:       KindDefault,
		Content:    "New Block",
		Height:     DefaultHeight,
		AutoHeight: false,
		FontScale:  DefaultFontScale,
		VAlign:     AlignCenter,
		HAlign:     AlignCenter,
		Emphasized: false,
	}
}

// NewDivider returns a separator of the given kind.
func NewDivider(kind Kind) Block {
	if !kind.IsDivider() {
		kind = KindSingleDivider
	}
	return Block{Kind: kind}
}

// IsDivider reports whether b is a separator.
func (b Block) IsDivider() bool { return b.Kind.IsDivider() }

// Normalize returns b with the block invariants applied: dividers carry no
// content attributes at all, content blocks get defaults for unset fields
// and a font scale within bounds.
func Normalize(b Block) Block {
	if b.Kind == "" {
		b.Kind = KindDefault
	}
	if b.IsDivider() {
		return Block{Kind: b.Kind}
	}
	if b.FontScale <= 0 {
		b.FontScale = DefaultFontScale
	}
	b.FontScale = b.FontScale.Clamp()
	if b.VAlign == "" {
		b.VAlign = AlignCenter
	}
	if b.HAlign == "" {
		b.HAlign = AlignCenter
	}
	if b.Height == "" {
		b.Height = DefaultHeight
	}
	return b
}

// MarshalJSON writes dividers as a bare {"type": ...} object and content
// blocks with every attribute.
func (b Block) MarshalJSON() ([]byte, error) {
	if b.IsDivider() {
		return json.Marshal(struct {
			Kind Kind `json:"type"`
		}{b.Kind})
	}
	type plain Block
	return json.Marshal(plain(b))
}
