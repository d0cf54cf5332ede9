// Package sheetservice owns the cheat-sheet document and applies every
// mutation to it. Each mutation works on a copy, persists the whole document
// and only then becomes visible, so a failed write leaves state unchanged.
package sheetservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/starford/cheatsheet/internal/apperr"
	"github.com/starford/cheatsheet/internal/checksum"
	"github.com/starford/cheatsheet/internal/codec"
	"github.com/starford/cheatsheet/internal/confirm"
	"github.com/starford/cheatsheet/internal/models"
	"github.com/starford/cheatsheet/internal/storage"
)

// DefaultKey is the storage key of the document.
const DefaultKey = "paperDesignConfig"

// Operation names reported to the notifier.
const (
	OpAddBlock    = "add_block"
	OpEditBlock   = "edit_block"
	OpDeleteBlock = "delete_block"
	OpAddPage     = "add_page"
	OpMoveBlock   = "move_block"
	OpReset       = "reset"
	OpImport      = "import"
	OpDistribute  = "distribute"
	OpReload      = "reload"
)

// Confirmation prompts.
const (
	PromptDelete     = "Delete this block?"
	PromptReset      = "Reset the sheet? All blocks will be lost."
	PromptImport     = "Replace the current sheet with the imported one?"
	PromptDistribute = "Auto-distribute all blocks? The current arrangement will be replaced."
)

// Distributor repacks a document into new pages.
type Distributor interface {
	Distribute(ctx context.Context, doc models.Document) ([]models.Page, error)
}

// Notifier is called after every committed change.
type Notifier func(op string, revision uint64)

// Service is the single owner of the document state.
type Service struct {
	store  storage.Provider
	key    string
	dist   Distributor
	notify Notifier
	logger *slog.Logger
	rescue bool

	mu  sync.Mutex
	doc models.Document
	rev uint64
	sum string // checksum of the last blob written or read
}

// Option configures a Service.
type Option func(*Service)

// WithKey sets the storage key.
func WithKey(key string) Option {
	return func(s *Service) { s.key = key }
}

// WithDistributor enables auto-distribution.
func WithDistributor(d Distributor) Option {
	return func(s *Service) { s.dist = d }
}

// WithNotifier sets the change callback.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notify = n }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithRecovery starts from an empty in-memory document when the stored
// blob is malformed instead of failing. The stored blob is left as is until
// the next commit overwrites it.
func WithRecovery() Option {
	return func(s *Service) { s.rescue = true }
}

// New loads the document from store. When the key is absent an empty
// document is created and persisted immediately. A stored blob that is not
// a page list fails with apperr.ErrInvalidFormat unless WithRecovery is set.
func New(ctx context.Context, store storage.Provider, opts ...Option) (*Service, error) {
	s := &Service{store: store, key: DefaultKey}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	data, err := store.Get(ctx, s.key)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		s.mu.Lock()
		defer s.mu.Unlock()
		if err := s.persist(ctx, models.NewDocument()); err != nil {
			return nil, err
		}
		s.logger.Info("sheet: created empty document", "key", s.key)
	case err != nil:
		return nil, fmt.Errorf("sheetservice: load %q: %w", s.key, err)
	default:
		doc, err := codec.Load(data)
		if err != nil {
			if !s.rescue || !errors.Is(err, apperr.ErrInvalidFormat) {
				return nil, fmt.Errorf("sheetservice: load %q (reset starts over): %w", s.key, err)
			}
			s.logger.Warn("sheet: stored document is malformed, starting empty", "key", s.key, "error", err)
			doc = models.NewDocument()
		}
		s.doc = doc
		s.sum = checksum.Sum(data)
		s.logger.Info("sheet: loaded document", "key", s.key, "pages", len(doc.Pages), "blocks", doc.BlockCount())
	}
	return s, nil
}

// persist writes next and swaps it in. Caller holds s.mu.
func (s *Service) persist(ctx context.Context, next models.Document) error {
	data, err := codec.Save(next)
	if err != nil {
		return err
	}
	if err := s.store.Set(ctx, s.key, data); err != nil {
		return fmt.Errorf("sheetservice: persist: %w", err)
	}
	s.doc = next
	s.sum = checksum.Sum(data)
	return nil
}

// commit persists next, bumps the revision and notifies. Caller holds s.mu.
func (s *Service) commit(ctx context.Context, op string, next models.Document) error {
	if err := s.persist(ctx, next); err != nil {
		s.logger.Error("sheet: commit failed", "op", op, "error", err)
		return err
	}
	s.rev++
	s.logger.Debug("sheet: committed", "op", op, "revision", s.rev)
	if s.notify != nil {
		s.notify(op, s.rev)
	}
	return nil
}

// Document returns a copy of the current document.
func (s *Service) Document() models.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Clone()
}

// Snapshot returns a copy of the current document together with the
// revision it belongs to.
func (s *Service) Snapshot() (models.Document, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Clone(), s.rev
}

// Revision returns the number of commits since startup.
func (s *Service) Revision() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rev
}

// Key returns the storage key.
func (s *Service) Key() string { return s.key }

// Exists reports whether pos addresses a block.
func (s *Service) Exists(pos models.Position) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Has(pos)
}

// ColumnExists reports whether page and col address a column.
func (s *Service) ColumnExists(page, col int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.HasColumn(page, col)
}

// need fails with apperr.ErrNotFound unless every pos addresses a block.
// Caller holds s.mu.
func (s *Service) need(pos ...models.Position) error {
	for _, p := range pos {
		if !s.doc.Has(p) {
			return fmt.Errorf("sheetservice: no block at %s: %w", p, apperr.ErrNotFound)
		}
	}
	return nil
}

// needColumn fails with apperr.ErrNotFound unless page and col address a
// column. Caller holds s.mu.
func (s *Service) needColumn(page, col int) error {
	if !s.doc.HasColumn(page, col) {
		return fmt.Errorf("sheetservice: no column %d on page %d: %w", col, page, apperr.ErrNotFound)
	}
	return nil
}

// AddBlock appends a default content block to a column, preceded by a
// divider when the column already holds blocks. It returns the position of
// the new content block.
func (s *Service) AddBlock(ctx context.Context, page, col int) (models.Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.needColumn(page, col); err != nil {
		return models.Position{}, err
	}

	next := s.doc.Clone()
	c := next.Column(page, col)
	if len(*c) > 0 {
		*c = append(*c, models.NewDivider(models.KindSingleDivider))
	}
	*c = append(*c, models.NewBlock())
	pos := models.Position{Page: page, Column: col, Index: len(*c) - 1}
	if err := s.commit(ctx, OpAddBlock, next); err != nil {
		return models.Position{}, err
	}
	return pos, nil
}

// EditBlock replaces the block at pos with b, normalised. A position that
// addresses no block fails with apperr.ErrNotFound.
func (s *Service) EditBlock(ctx context.Context, pos models.Position, b models.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.need(pos); err != nil {
		return err
	}

	next := s.doc.Clone()
	next.Set(pos, models.Normalize(b))
	return s.commit(ctx, OpEditBlock, next)
}

// DeleteBlock removes the block at pos once c confirms.
func (s *Service) DeleteBlock(ctx context.Context, pos models.Position, c confirm.Confirmer) (bool, error) {
	if !c.Confirm(PromptDelete) {
		return false, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.need(pos); err != nil {
		return false, err
	}

	next := s.doc.Clone()
	next.Remove(pos)
	if err := s.commit(ctx, OpDeleteBlock, next); err != nil {
		return false, err
	}
	return true, nil
}

// AddPage appends an empty page and returns its index.
func (s *Service) AddPage(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.doc.Clone()
	next.Pages = append(next.Pages, models.NewPage())
	if err := s.commit(ctx, OpAddPage, next); err != nil {
		return 0, err
	}
	return len(next.Pages) - 1, nil
}

// MoveBlock moves the block at from next to the block at to: after it when
// insertAfter is set, before it otherwise. Moving a block onto itself
// changes nothing.
func (s *Service) MoveBlock(ctx context.Context, from, to models.Position, insertAfter bool) error {
	if from == to {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.need(from, to); err != nil {
		return err
	}

	next := s.doc.Clone()
	b := next.Remove(from)
	idx := to.Index
	if from.Page == to.Page && from.Column == to.Column && from.Index < to.Index {
		idx--
	}
	if insertAfter {
		idx++
	}
	next.Insert(to.Page, to.Column, idx, b)
	return s.commit(ctx, OpMoveBlock, next)
}

// MoveBlockToColumnEnd moves the block at from to the tail of a column.
func (s *Service) MoveBlockToColumnEnd(ctx context.Context, from models.Position, toPage, toCol int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.need(from); err != nil {
		return err
	}
	if err := s.needColumn(toPage, toCol); err != nil {
		return err
	}

	next := s.doc.Clone()
	dst := next.Column(toPage, toCol)
	b := next.Remove(from)
	*dst = append(*dst, b)
	return s.commit(ctx, OpMoveBlock, next)
}

// Reset discards the stored document and starts over with an empty one.
func (s *Service) Reset(ctx context.Context, c confirm.Confirmer) (bool, error) {
	if !c.Confirm(PromptReset) {
		return false, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Remove(ctx, s.key); err != nil {
		return false, fmt.Errorf("sheetservice: reset: %w", err)
	}
	if err := s.commit(ctx, OpReset, models.NewDocument()); err != nil {
		return false, err
	}
	return true, nil
}

// Import replaces the document with the one encoded in data. Malformed data
// fails with apperr.ErrInvalidFormat before anything is asked or changed.
func (s *Service) Import(ctx context.Context, data []byte, c confirm.Confirmer) (bool, error) {
	doc, err := codec.CheckImport(data)
	if err != nil {
		return false, err
	}
	if !c.Confirm(PromptImport) {
		return false, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.commit(ctx, OpImport, doc); err != nil {
		return false, err
	}
	return true, nil
}

// Export returns the document in the indented exchange format.
func (s *Service) Export() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return codec.Export(s.doc)
}

// Reload re-reads the stored document after an external change. It reports
// whether the in-memory document was replaced. Blobs identical to the last
// one written or read are ignored.
func (s *Service) Reload(ctx context.Context) (bool, error) {
	data, err := s.store.Get(ctx, s.key)
	if errors.Is(err, apperr.ErrNotFound) {
		s.logger.Warn("sheet: stored document disappeared", "key", s.key)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("sheetservice: reload: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sum := checksum.Sum(data)
	if sum == s.sum {
		return false, nil
	}
	doc, err := codec.Load(data)
	if err != nil {
		return false, fmt.Errorf("sheetservice: reload: %w", err)
	}
	s.doc = doc
	s.sum = sum
	s.rev++
	s.logger.Info("sheet: reloaded external change", "key", s.key, "revision", s.rev)
	if s.notify != nil {
		s.notify(OpReload, s.rev)
	}
	return true, nil
}

// Distribute repacks every content block into fresh pages by measured
// height. Nothing happens, and nothing is asked, when the document holds no
// content block. Measurement runs on a snapshot without holding the lock;
// if the document changed in the meantime the result is discarded with
// apperr.ErrConflict.
func (s *Service) Distribute(ctx context.Context, c confirm.Confirmer) (bool, error) {
	if s.dist == nil {
		return false, errors.New("sheetservice: distribution is not configured")
	}

	s.mu.Lock()
	snap, rev := s.doc.Clone(), s.rev
	s.mu.Unlock()

	if len(snap.ContentBlocks()) == 0 {
		return false, nil
	}
	if !c.Confirm(PromptDistribute) {
		return false, nil
	}

	pages, err := s.dist.Distribute(ctx, snap)
	if err != nil {
		return false, err
	}
	if pages == nil {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rev != rev {
		return false, fmt.Errorf("sheetservice: distribute: document changed during measurement: %w", apperr.ErrConflict)
	}
	if err := s.commit(ctx, OpDistribute, models.Document{Pages: pages}); err != nil {
		return false, err
	}
	return true, nil
}
