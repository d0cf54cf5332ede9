package models

import (
	"encoding/json"
	"fmt"
)

// ColumnsPerPage is the fixed arity of a page.
const ColumnsPerPage = 3

// Column is an ordered sequence of blocks.
type Column []Block

// MarshalJSON writes an empty column as [] rather than null.
func (c Column) MarshalJSON() ([]byte, error) {
	if c == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Block(c))
}

// Page holds exactly three columns.
type Page [ColumnsPerPage]Column

// NewPage returns a page of three empty columns.
func NewPage() Page {
	var p Page
	for i := range p {
		p[i] = Column{}
	}
	return p
}

// Empty reports whether every column of p is empty.
func (p Page) Empty() bool {
	for _, c := range p {
		if len(c) > 0 {
			return false
		}
	}
	return true
}

// Position addresses one block slot.
type Position struct {
	Page   int `json:"page"`
	Column int `json:"column"`
	Index  int `json:"index"`
}

func (p Position) String() string {
	return fmt.Sprintf("%d/%d/%d", p.Page, p.Column, p.Index)
}

// Document is the ordered list of pages.
type Document struct {
	Pages []Page
}

// NewDocument returns the document created on first launch: one empty page.
func NewDocument() Document {
	return Document{Pages: []Page{NewPage()}}
}

// Clone returns a deep copy of d.
func (d Document) Clone() Document {
	out := Document{Pages: make([]Page, len(d.Pages))}
	for i, p := range d.Pages {
		for c, col := range p {
			out.Pages[i][c] = append(Column{}, col...)
		}
	}
	return out
}

// HasColumn reports whether page/col addresses an existing column.
func (d Document) HasColumn(page, col int) bool {
	return page >= 0 && page < len(d.Pages) && col >= 0 && col < ColumnsPerPage
}

// Has reports whether pos addresses an existing block.
func (d Document) Has(pos Position) bool {
	if !d.HasColumn(pos.Page, pos.Column) {
		return false
	}
	return pos.Index >= 0 && pos.Index < len(d.Pages[pos.Page][pos.Column])
}

// Column returns the addressed column for in-place mutation. It panics on
// an out-of-range address: positions come from a rendering of this very
// document, so a bad one is a bug in the caller.
func (d *Document) Column(page, col int) *Column {
	if !d.HasColumn(page, col) {
		panic(fmt.Sprintf("models: column %d/%d out of range (pages=%d)", page, col, len(d.Pages)))
	}
	return &d.Pages[page][col]
}

// Block returns the block at pos. It panics when pos is out of range.
func (d Document) Block(pos Position) Block {
	if !d.Has(pos) {
		panic(fmt.Sprintf("models: block %s out of range", pos))
	}
	return d.Pages[pos.Page][pos.Column][pos.Index]
}

// Set replaces the block at pos. It panics when pos is out of range.
func (d *Document) Set(pos Position, b Block) {
	if !d.Has(pos) {
		panic(fmt.Sprintf("models: block %s out of range", pos))
	}
	d.Pages[pos.Page][pos.Column][pos.Index] = b
}

// Remove deletes and returns the block at pos. It panics when pos is out of range.
func (d *Document) Remove(pos Position) Block {
	if !d.Has(pos) {
		panic(fmt.Sprintf("models: block %s out of range", pos))
	}
	col := d.Column(pos.Page, pos.Column)
	b := (*col)[pos.Index]
	*col = append((*col)[:pos.Index], (*col)[pos.Index+1:]...)
	return b
}

// Insert places b at index within the addressed column; index may equal the
// column length to append. It panics when the address is out of range.
func (d *Document) Insert(page, col, index int, b Block) {
	c := d.Column(page, col)
	if index < 0 || index > len(*c) {
		panic(fmt.Sprintf("models: insert index %d out of range for column %d/%d (len=%d)", index, page, col, len(*c)))
	}
	*c = append(*c, Block{})
	copy((*c)[index+1:], (*c)[index:])
	(*c)[index] = b
}

// BlockCount returns the number of stored blocks, dividers included.
func (d Document) BlockCount() int {
	n := 0
	for _, p := range d.Pages {
		for _, c := range p {
			n += len(c)
		}
	}
	return n
}

// ContentBlocks flattens d in reading order (page, column, index),
// skipping dividers.
func (d Document) ContentBlocks() []Block {
	var out []Block
	for _, p := range d.Pages {
		for _, c := range p {
			for _, b := range c {
				if !b.IsDivider() {
					out = append(out, b)
				}
			}
		}
	}
	return out
}

// Equal reports structural equality; nil and empty columns compare equal.
func Equal(a, b Document) bool {
	if len(a.Pages) != len(b.Pages) {
		return false
	}
	for i := range a.Pages {
		for c := range a.Pages[i] {
			ca, cb := a.Pages[i][c], b.Pages[i][c]
			if len(ca) != len(cb) {
				return false
			}
			for k := range ca {
				if ca[k] != cb[k] {
					return false
				}
			}
		}
	}
	return true
}
