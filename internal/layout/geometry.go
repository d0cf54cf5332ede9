// Package layout repacks blocks into fixed-capacity columns and pages.
package layout

import (
	"math"

	"github.com/starford/cheatsheet/internal/models"
	"github.com/starford/cheatsheet/internal/units"
)

// PageSize is a physical page in millimetres.
type PageSize struct {
	WidthMm  float64
	HeightMm float64
}

// A4 portrait.
var A4 = PageSize{WidthMm: 210, HeightMm: 297}

// Landscape returns the page size in landscape orientation.
func (p PageSize) Landscape() PageSize {
	if p.WidthMm < p.HeightMm {
		return PageSize{WidthMm: p.HeightMm, HeightMm: p.WidthMm}
	}
	return p
}

// Default geometry values.
const (
	DefaultMarginPx    = 5
	DefaultColumnGapPx = 20
)

// Geometry converts a physical sheet into the pixel budget of one column.
type Geometry struct {
	Page        PageSize
	MarginPx    int
	ColumnGapPx int
}

// DefaultGeometry is an A4 landscape sheet with three columns.
func DefaultGeometry() Geometry {
	return Geometry{
		Page:        A4.Landscape(),
		MarginPx:    DefaultMarginPx,
		ColumnGapPx: DefaultColumnGapPx,
	}
}

// Capacity is the usable column height in pixels.
func (g Geometry) Capacity() int {
	return int(math.Floor(g.Page.HeightMm*units.PxPerMm)) - g.MarginPx
}

// ColumnWidth is the width of one column in pixels.
func (g Geometry) ColumnWidth() int {
	return int(math.Floor(g.Page.WidthMm*units.PxPerMm/models.ColumnsPerPage)) - g.ColumnGapPx
}
