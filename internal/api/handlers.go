package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/cheatsheet/internal/apperr"
	"github.com/starford/cheatsheet/internal/checksum"
	"github.com/starford/cheatsheet/internal/codec"
	"github.com/starford/cheatsheet/internal/confirm"
	"github.com/starford/cheatsheet/internal/models"
	"github.com/starford/cheatsheet/internal/render"
	"github.com/starford/cheatsheet/internal/sheetservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc      *sheetservice.Service
	renderer *render.Renderer
}

// NewHandler creates a new Handler.
func NewHandler(svc *sheetservice.Service, renderer *render.Renderer) *Handler {
	if renderer == nil {
		renderer = render.NewRenderer()
	}
	return &Handler{svc: svc, renderer: renderer}
}

// gate wraps the request confirmation and remembers whether it was asked.
type gate struct {
	confirm.Confirmer
	asked bool
}

func (g *gate) Confirm(prompt string) bool {
	g.asked = true
	return g.Confirmer.Confirm(prompt)
}

func newGate(r *http.Request) *gate {
	return &gate{Confirmer: confirm.FromRequest(r)}
}

// declined writes 428 when a destructive request was not confirmed.
func declined(w http.ResponseWriter, g *gate, ok bool) bool {
	if g.asked && !ok {
		writeJSON(w, http.StatusPreconditionRequired, errorBody("confirmation required: repeat with ?confirm=true"))
		return true
	}
	return false
}

func intParam(r *http.Request, name string) (int, bool) {
	v, err := strconv.Atoi(chi.URLParam(r, name))
	return v, err == nil
}

func columnParams(w http.ResponseWriter, r *http.Request) (page, col int, ok bool) {
	page, pok := intParam(r, "page")
	col, cok := intParam(r, "col")
	if !pok || !cok {
		writeJSON(w, http.StatusBadRequest, errorBody("page and column must be integers"))
		return 0, 0, false
	}
	return page, col, true
}

func positionParams(w http.ResponseWriter, r *http.Request) (models.Position, bool) {
	page, col, ok := columnParams(w, r)
	if !ok {
		return models.Position{}, false
	}
	idx, ok := intParam(r, "index")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("index must be an integer"))
		return models.Position{}, false
	}
	return models.Position{Page: page, Column: col, Index: idx}, true
}

func (h *Handler) writeDocument(w http.ResponseWriter, status int) {
	doc, rev := h.svc.Snapshot()
	if data, err := codec.Save(doc); err == nil {
		w.Header().Set("ETag", checksum.ETag(data))
	}
	writeJSON(w, status, DocumentResponse{Revision: rev, Pages: doc.Pages})
}

func (h *Handler) writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, apperr.ErrInvalidFormat):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrBusy):
		writeJSON(w, http.StatusConflict, errorBody("distribution already running"))
	case errors.Is(err, apperr.ErrConflict):
		writeJSON(w, http.StatusConflict, errorBody("document changed during distribution"))
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	default:
		slog.Error(op+" failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

// GetDocument handles GET /api/document.
//
//	@Summary		Get the whole sheet
//	@Tags			document
//	@Produce		json
//	@Success		200	{object}	DocumentResponse
//	@Security		BearerAuth
//	@Router			/document [get]
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	h.writeDocument(w, http.StatusOK)
}

// AddPage handles POST /api/pages.
//
//	@Summary		Append an empty page
//	@Tags			pages
//	@Produce		json
//	@Success		201	{object}	PageResponse
//	@Security		BearerAuth
//	@Router			/pages [post]
func (h *Handler) AddPage(w http.ResponseWriter, r *http.Request) {
	idx, err := h.svc.AddPage(r.Context())
	if err != nil {
		h.writeError(w, "add page", err)
		return
	}
	writeJSON(w, http.StatusCreated, PageResponse{Page: idx})
}

// AddBlock handles POST /api/pages/{page}/columns/{col}/blocks.
//
//	@Summary		Append a default block to a column
//	@Tags			blocks
//	@Produce		json
//	@Param			page	path		int	true	"Page index"
//	@Param			col		path		int	true	"Column index"
//	@Success		201		{object}	BlockResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/pages/{page}/columns/{col}/blocks [post]
func (h *Handler) AddBlock(w http.ResponseWriter, r *http.Request) {
	page, col, ok := columnParams(w, r)
	if !ok {
		return
	}
	if !h.svc.ColumnExists(page, col) {
		writeJSON(w, http.StatusNotFound, errorBody("column not found"))
		return
	}
	pos, err := h.svc.AddBlock(r.Context(), page, col)
	if err != nil {
		h.writeError(w, "add block", err)
		return
	}
	writeJSON(w, http.StatusCreated, BlockResponse{Position: pos, Block: models.NewBlock()})
}

// EditBlock handles PUT /api/pages/{page}/columns/{col}/blocks/{index}.
//
//	@Summary		Replace a block
//	@Tags			blocks
//	@Accept			json
//	@Produce		json
//	@Param			page	path		int				true	"Page index"
//	@Param			col		path		int				true	"Column index"
//	@Param			index	path		int				true	"Block index"
//	@Param			body	body		BlockRequest	true	"Block attributes"
//	@Success		200		{object}	BlockResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/pages/{page}/columns/{col}/blocks/{index} [put]
func (h *Handler) EditBlock(w http.ResponseWriter, r *http.Request) {
	pos, ok := positionParams(w, r)
	if !ok {
		return
	}
	var req BlockRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	if !h.svc.Exists(pos) {
		writeJSON(w, http.StatusNotFound, errorBody("block not found"))
		return
	}
	b := models.Normalize(req.Block())
	if err := h.svc.EditBlock(r.Context(), pos, b); err != nil {
		h.writeError(w, "edit block", err)
		return
	}
	writeJSON(w, http.StatusOK, BlockResponse{Position: pos, Block: b})
}

// DeleteBlock handles DELETE /api/pages/{page}/columns/{col}/blocks/{index}.
//
//	@Summary		Delete a block
//	@Tags			blocks
//	@Param			page	path	int		true	"Page index"
//	@Param			col		path	int		true	"Column index"
//	@Param			index	path	int		true	"Block index"
//	@Param			confirm	query	bool	false	"Confirm the deletion"
//	@Success		204		"Block deleted"
//	@Failure		404		{object}	errResponse
//	@Failure		428		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/pages/{page}/columns/{col}/blocks/{index} [delete]
func (h *Handler) DeleteBlock(w http.ResponseWriter, r *http.Request) {
	pos, ok := positionParams(w, r)
	if !ok {
		return
	}
	if !h.svc.Exists(pos) {
		writeJSON(w, http.StatusNotFound, errorBody("block not found"))
		return
	}
	g := newGate(r)
	done, err := h.svc.DeleteBlock(r.Context(), pos, g)
	if err != nil {
		h.writeError(w, "delete block", err)
		return
	}
	if declined(w, g, done) {
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MoveBlock handles POST /api/moves.
//
//	@Summary		Move a block next to another block or to the end of a column
//	@Tags			blocks
//	@Accept			json
//	@Produce		json
//	@Param			body	body		MoveRequest	true	"Move"
//	@Success		200		{object}	DocumentResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/moves [post]
func (h *Handler) MoveBlock(w http.ResponseWriter, r *http.Request) {
	var req MoveRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	if !h.svc.Exists(req.From) {
		writeJSON(w, http.StatusNotFound, errorBody("source block not found"))
		return
	}

	var err error
	if req.To != nil {
		if !h.svc.Exists(*req.To) {
			writeJSON(w, http.StatusNotFound, errorBody("target block not found"))
			return
		}
		err = h.svc.MoveBlock(r.Context(), req.From, *req.To, req.InsertAfter)
	} else {
		if !h.svc.ColumnExists(req.ToColumn.Page, req.ToColumn.Column) {
			writeJSON(w, http.StatusNotFound, errorBody("target column not found"))
			return
		}
		err = h.svc.MoveBlockToColumnEnd(r.Context(), req.From, req.ToColumn.Page, req.ToColumn.Column)
	}
	if err != nil {
		h.writeError(w, "move block", err)
		return
	}
	h.writeDocument(w, http.StatusOK)
}

// Distribute handles POST /api/distribute.
//
//	@Summary		Repack all blocks into columns by measured height
//	@Tags			document
//	@Produce		json
//	@Param			confirm	query		bool	false	"Confirm the rearrangement"
//	@Success		200		{object}	DistributeResponse
//	@Failure		409		{object}	errResponse
//	@Failure		428		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/distribute [post]
func (h *Handler) Distribute(w http.ResponseWriter, r *http.Request) {
	g := newGate(r)
	done, err := h.svc.Distribute(r.Context(), g)
	if err != nil {
		h.writeError(w, "distribute", err)
		return
	}
	if declined(w, g, done) {
		return
	}
	doc, rev := h.svc.Snapshot()
	writeJSON(w, http.StatusOK, DistributeResponse{
		Distributed: done,
		Revision:    rev,
		Pages:       len(doc.Pages),
	})
}

// Export handles GET /api/export.
//
//	@Summary		Download the sheet file
//	@Tags			document
//	@Produce		json
//	@Success		200	{file}	file
//	@Security		BearerAuth
//	@Router			/export [get]
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	data, err := h.svc.Export()
	if err != nil {
		h.writeError(w, "export", err)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+codec.ExportFilename+`"`)
	w.Header().Set("ETag", checksum.ETag(data))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// Import handles POST /api/import.
//
//	@Summary		Replace the sheet with an uploaded file
//	@Tags			document
//	@Accept			json
//	@Produce		json
//	@Param			confirm	query		bool	false	"Confirm the replacement"
//	@Success		200		{object}	DocumentResponse
//	@Failure		422		{object}	errResponse
//	@Failure		428		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/import [post]
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read body"))
		return
	}
	g := newGate(r)
	done, err := h.svc.Import(r.Context(), body, g)
	if err != nil {
		h.writeError(w, "import", err)
		return
	}
	if declined(w, g, done) {
		return
	}
	h.writeDocument(w, http.StatusOK)
}

// Reset handles DELETE /api/document.
//
//	@Summary		Discard the sheet and start over
//	@Tags			document
//	@Produce		json
//	@Param			confirm	query		bool	false	"Confirm the reset"
//	@Success		200		{object}	DocumentResponse
//	@Failure		428		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/document [delete]
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	g := newGate(r)
	done, err := h.svc.Reset(r.Context(), g)
	if err != nil {
		h.writeError(w, "reset", err)
		return
	}
	if declined(w, g, done) {
		return
	}
	h.writeDocument(w, http.StatusOK)
}

// Render handles GET /api/render.
//
//	@Summary		Render the sheet as HTML
//	@Tags			document
//	@Produce		html
//	@Success		200	{string}	string
//	@Security		BearerAuth
//	@Router			/render [get]
func (h *Handler) Render(w http.ResponseWriter, r *http.Request) {
	html, _, err := h.renderer.Document(h.svc.Document())
	if err != nil {
		h.writeError(w, "render", err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(html)
}
