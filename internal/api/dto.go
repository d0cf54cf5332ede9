package api

import (
	"errors"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/cheatsheet/internal/models"
	"github.com/starford/cheatsheet/internal/units"
)

// kindRe keeps block kinds usable as CSS class names.
var kindRe = regexp.MustCompile(`^[a-z][a-z0-9-]{0,31}$`)

// BlockRequest is the request body for editing a block.
type BlockRequest struct {
	Type           string `json:"type" example:"def" validate:"required"`
	Content        string `json:"content" example:"E = mc^2"`
	Height         string `json:"height" example:"2cm"`
	AutoHeight     bool   `json:"autoHeight"`
	ManualFontSize int    `json:"manualFontSize" example:"100"`
	VAlign         string `json:"vAlign" example:"center"`
	HAlign         string `json:"hAlign" example:"flex-start"`
	Important      bool   `json:"important"`
}

// Validate validates the block request.
func (r *BlockRequest) Validate() error {
	content := !models.Kind(r.Type).IsDivider()
	return validation.ValidateStruct(r,
		validation.Field(&r.Type, validation.Required, validation.Match(kindRe)),
		validation.Field(&r.Height, validation.When(content && !r.AutoHeight, validation.Required, validation.By(length))),
		validation.Field(&r.ManualFontSize, validation.Min(int(models.MinFontScale)), validation.Max(int(models.MaxFontScale))),
		validation.Field(&r.VAlign, validation.By(align)),
		validation.Field(&r.HAlign, validation.By(align)),
	)
}

func length(v any) error {
	s, _ := v.(string)
	if s == "" {
		return nil
	}
	if _, ok := units.ParseLength(s); !ok {
		return errors.New("must be a positive CSS length such as 2cm or 40px")
	}
	return nil
}

func align(v any) error {
	s, _ := v.(string)
	if s == "" {
		return nil
	}
	if _, ok := models.ParseAlign(s); !ok {
		return errors.New("must be one of start, center, end")
	}
	return nil
}

// Block converts the request into a block. Unset optional fields get
// defaults when the block is normalised.
func (r *BlockRequest) Block() models.Block {
	b := models.Block{
		Kind:       models.Kind(r.Type),
		Content:    r.Content,
		Height:     r.Height,
		AutoHeight: r.AutoHeight,
		FontScale:  models.FontScale(r.ManualFontSize),
		Emphasized: r.Important,
	}
	if a, ok := models.ParseAlign(r.VAlign); ok {
		b.VAlign = a
	}
	if a, ok := models.ParseAlign(r.HAlign); ok {
		b.HAlign = a
	}
	return b
}

// ColumnRef addresses a column.
type ColumnRef struct {
	Page   int `json:"page"`
	Column int `json:"column"`
}

// MoveRequest is the request body for moving a block. Exactly one of To
// (drop onto a block) and ToColumn (drop onto empty column space) is set.
type MoveRequest struct {
	From        models.Position  `json:"from"`
	To          *models.Position `json:"to,omitempty"`
	ToColumn    *ColumnRef       `json:"toColumn,omitempty"`
	InsertAfter bool             `json:"insertAfter"`
}

// Validate validates the move request.
func (r *MoveRequest) Validate() error {
	if (r.To == nil) == (r.ToColumn == nil) {
		return errors.New("exactly one of to and toColumn is required")
	}
	return nil
}

// DocumentResponse is the document with its revision.
type DocumentResponse struct {
	Revision uint64        `json:"revision" example:"3"`
	Pages    []models.Page `json:"pages" validate:"required"`
}

// BlockResponse is returned after a block is added or edited.
type BlockResponse struct {
	Position models.Position `json:"position" validate:"required"`
	Block    models.Block    `json:"block" validate:"required"`
}

// PageResponse is returned after a page is added.
type PageResponse struct {
	Page int `json:"page" example:"1"`
}

// DistributeResponse reports whether the sheet was repacked.
type DistributeResponse struct {
	Distributed bool   `json:"distributed"`
	Revision    uint64 `json:"revision"`
	Pages       int    `json:"pages"`
}
