package layout

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/starford/cheatsheet/internal/apperr"
	"github.com/starford/cheatsheet/internal/measure"
	"github.com/starford/cheatsheet/internal/models"
)

// Distributor measures every content block of a document and packs them
// into fresh pages. Only one distribution runs at a time.
type Distributor struct {
	measurer measure.Measurer
	geom     Geometry
	logger   *slog.Logger
	busy     atomic.Bool
}

// NewDistributor creates a distributor for the given sheet geometry.
func NewDistributor(m measure.Measurer, geom Geometry, logger *slog.Logger) *Distributor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Distributor{measurer: m, geom: geom, logger: logger}
}

// Geometry returns the sheet geometry used for packing.
func (d *Distributor) Geometry() Geometry { return d.geom }

// Distribute returns the repacked page list for doc. Existing dividers are
// dropped and regenerated between adjacent blocks. A document without
// content blocks yields nil pages and no error. A call made while another
// is in flight fails with apperr.ErrBusy.
func (d *Distributor) Distribute(ctx context.Context, doc models.Document) ([]models.Page, error) {
	if !d.busy.CompareAndSwap(false, true) {
		return nil, apperr.ErrBusy
	}
	defer d.busy.Store(false)

	blocks := doc.ContentBlocks()
	if len(blocks) == 0 {
		return nil, nil
	}

	start := time.Now()
	batch := make([]models.Block, 0, len(blocks)+1)
	batch = append(batch, blocks...)
	batch = append(batch, models.NewDivider(models.KindSingleDivider))
	heights, err := d.measurer.MeasureHeights(ctx, batch, d.geom.ColumnWidth())
	if err != nil {
		return nil, fmt.Errorf("layout: measure: %w", err)
	}
	if len(heights) != len(batch) {
		return nil, fmt.Errorf("layout: measure: got %d heights for %d blocks", len(heights), len(batch))
	}

	pages := Pack(blocks, heights[:len(blocks)], Options{
		Capacity:        d.geom.Capacity(),
		SeparatorHeight: heights[len(blocks)],
		Separator:       models.KindSingleDivider,
	})
	d.logger.Info("layout: distributed",
		"blocks", len(blocks),
		"pages", len(pages),
		"capacity", d.geom.Capacity(),
		"duration", time.Since(start),
	)
	return pages, nil
}
