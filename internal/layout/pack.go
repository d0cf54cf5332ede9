package layout

import (
	"github.com/starford/cheatsheet/internal/models"
)

// Options controls packing.
type Options struct {
	// Capacity is the maximum accumulated height of one column.
	Capacity int
	// SeparatorHeight is charged for every divider inserted between two
	// blocks of the same column. Zero packs by content height alone.
	SeparatorHeight int
	// Separator is the divider kind inserted between adjacent blocks.
	Separator models.Kind
}

// Pack places blocks into columns first-fit, preserving order. heights[i]
// is the measured height of blocks[i]. A column advances when the next block
// would overflow it and the column already holds something, so a block
// taller than the capacity still gets a column of its own. Pages hold
// models.ColumnsPerPage columns; the trailing page is emitted only if it
// holds a block.
func Pack(blocks []models.Block, heights []int, opts Options) []models.Page {
	if len(heights) != len(blocks) {
		panic("layout: heights and blocks differ in length")
	}
	sep := opts.Separator
	if sep == "" {
		sep = models.KindSingleDivider
	}

	var out []models.Page
	page := models.NewPage()
	col, running := 0, 0
	for i, b := range blocks {
		cost := heights[i]
		if running > 0 {
			cost += opts.SeparatorHeight
		}
		if running+cost > opts.Capacity && running > 0 {
			col++
			running, cost = 0, heights[i]
			if col >= models.ColumnsPerPage {
				out = append(out, page)
				page = models.NewPage()
				col = 0
			}
		}
		if len(page[col]) > 0 {
			page[col] = append(page[col], models.NewDivider(sep))
		}
		page[col] = append(page[col], b)
		running += cost
	}
	if !page.Empty() {
		out = append(out, page)
	}
	return out
}
