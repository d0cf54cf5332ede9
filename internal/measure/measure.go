// Package measure reports the rendered pixel height of blocks. Blocks are
// mounted on an invisible surface of the target column width, asynchronous
// typesetting is given a bounded time to settle and unsettled elements fall
// back to a heuristic height.
package measure

import (
	"context"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/starford/cheatsheet/internal/markup"
	"github.com/starford/cheatsheet/internal/models"
	"github.com/starford/cheatsheet/internal/render"
	"github.com/starford/cheatsheet/internal/textlayout"
	"github.com/starford/cheatsheet/internal/units"
)

// DefaultSettleDelay bounds the wait for typesetting.
const DefaultSettleDelay = 150 * time.Millisecond

// Divider box heights in pixels (rule plus vertical margins).
const (
	SingleDividerPx = 9
	DoubleDividerPx = 13
)

// Heuristic heights for auto-height blocks that could not be measured.
const (
	shortContentRunes = 50
	shortAutoPx       = 40
	longAutoPx        = 100
)

// Measurer returns one height per block, in order, in whole pixels.
type Measurer interface {
	MeasureHeights(ctx context.Context, blocks []models.Block, columnWidthPx int) ([]int, error)
}

// Service is the default Measurer.
type Service struct {
	bank       *textlayout.Bank
	typesetter markup.Typesetter
	settle     time.Duration
	logger     *slog.Logger
	newID      func() string
}

var _ Measurer = (*Service)(nil)

// Option configures a Service.
type Option func(*Service)

// WithBank sets the font bank used for text layout.
func WithBank(b *textlayout.Bank) Option {
	return func(s *Service) { s.bank = b }
}

// WithTypesetter sets the math typesetter.
func WithTypesetter(t markup.Typesetter) Option {
	return func(s *Service) { s.typesetter = t }
}

// WithSettleDelay sets how long typesetting may run before heights are read.
func WithSettleDelay(d time.Duration) Option {
	return func(s *Service) { s.settle = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// New creates a measurement service.
func New(opts ...Option) *Service {
	s := &Service{
		typesetter: markup.UnicodeTypesetter{},
		settle:     DefaultSettleDelay,
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.bank == nil {
		s.bank = textlayout.Default()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// MeasureHeights mounts blocks on a fresh surface, waits for typesetting to
// settle (bounded by the settle delay) and reads each element's height.
// The surface is torn down before returning, on every path.
func (s *Service) MeasureHeights(ctx context.Context, blocks []models.Block, columnWidthPx int) ([]int, error) {
	if len(blocks) == 0 {
		return []int{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	surf := newSurface(s.bank, columnWidthPx)
	defer surf.teardown()

	ids := make([]string, len(blocks))
	for i, b := range blocks {
		id := s.newID()
		fragment, err := render.BlockHTML(id, b, 0)
		if err != nil {
			s.logger.Warn("measure: render block", "index", i, "error", err)
			continue
		}
		if ids[i], err = surf.mount(fragment); err != nil {
			s.logger.Warn("measure: mount block", "index", i, "error", err)
		}
	}

	done := surf.typeset(ctx, s.typesetter)
	timer := time.NewTimer(s.settle)
	defer timer.Stop()
	select {
	case <-done:
	case <-timer.C:
		s.logger.Debug("measure: settle delay elapsed", "delay", s.settle)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	heights := make([]int, len(blocks))
	fallbacks := 0
	for i, id := range ids {
		h := 0
		if id != "" {
			h = surf.height(id)
		}
		if h <= 0 {
			h = Fallback(blocks[i])
			fallbacks++
		}
		heights[i] = h
	}
	if fallbacks > 0 {
		s.logger.Info("measure: heuristic heights used", "count", fallbacks, "blocks", len(blocks))
	}
	return heights, nil
}

// Fallback estimates a block's height without rendering it.
func Fallback(b models.Block) int {
	if b.IsDivider() {
		if b.Kind == models.KindDoubleDivider {
			return DoubleDividerPx
		}
		return SingleDividerPx
	}
	if b.AutoHeight {
		if utf8.RuneCountInString(b.Content) < shortContentRunes {
			return shortAutoPx
		}
		return longAutoPx
	}
	px, ok := units.ParseLength(b.Height)
	if !ok {
		px, _ = units.ParseLength(models.DefaultHeight)
	}
	return units.Ceil(px)
}
