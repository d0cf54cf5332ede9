package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/starford/cheatsheet/internal/layout"
	"github.com/starford/cheatsheet/internal/measure"
	"github.com/starford/cheatsheet/internal/render"
	"github.com/starford/cheatsheet/internal/sheetservice"
	"github.com/starford/cheatsheet/internal/sse"
	"github.com/starford/cheatsheet/internal/storage"
	"github.com/starford/cheatsheet/internal/textlayout"
)

// renderThrottle bounds how often SSE clients are told to re-render.
const renderThrottle = 250 * time.Millisecond

// Components is the wired sheet service with its collaborators. The HTTP
// server, the MCP server and the one-shot CLI commands all build on it.
type Components struct {
	Store       storage.Provider
	Service     *sheetservice.Service
	Distributor *layout.Distributor
	Renderer    *render.Renderer
	Broker      *sse.Broker
}

// Build opens storage and wires measurement, distribution, rendering and
// change notification around the sheet service. extra options are applied
// to the service after the wired ones.
func Build(ctx context.Context, cfg *Config, logger *slog.Logger, extra ...sheetservice.Option) (*Components, error) {
	store, err := storage.Open(ctx, cfg.Storage.Options())
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	bank := textlayout.Default()
	geom := cfg.Layout.Geometry()

	measurer := measure.New(
		measure.WithBank(bank),
		measure.WithSettleDelay(cfg.Layout.SettleDelay),
		measure.WithLogger(logger),
	)
	dist := layout.NewDistributor(measurer, geom, logger)
	broker := sse.NewBroker(renderThrottle)

	opts := append([]sheetservice.Option{
		sheetservice.WithKey(cfg.Storage.Key),
		sheetservice.WithDistributor(dist),
		sheetservice.WithNotifier(broker.PublishChange),
		sheetservice.WithLogger(logger),
	}, extra...)
	svc, err := sheetservice.New(ctx, store, opts...)
	if err != nil {
		broker.Close()
		return nil, errors.Join(fmt.Errorf("init sheet: %w", err), store.Close())
	}

	renderer := render.NewRenderer(render.WithFitter(render.NewFitter(bank, float64(geom.ColumnWidth()))))

	return &Components{
		Store:       store,
		Service:     svc,
		Distributor: dist,
		Renderer:    renderer,
		Broker:      broker,
	}, nil
}

// WatchFile returns the file backing the document when the fs driver is in
// use, or "" for other drivers.
func (c *Components) WatchFile() (string, error) {
	fs, ok := c.Store.(*storage.FS)
	if !ok {
		return "", nil
	}
	return fs.Path(c.Service.Key())
}

// Close stops the broker and releases storage.
func (c *Components) Close() error {
	c.Broker.Close()
	return c.Store.Close()
}
