package models

import (
	"encoding/json"
	"testing"
)

func TestNewDocument(t *testing.T) {
	doc := NewDocument()
	if len(doc.Pages) != 1 {
		t.Fatalf("pages = %d, want 1", len(doc.Pages))
	}
	if !doc.Pages[0].Empty() {
		t.Error("first page should be empty")
	}
	if doc.BlockCount() != 0 {
		t.Errorf("block count = %d", doc.BlockCount())
	}
}

func TestNormalizeDividerClearsContent(t *testing.T) {
	b := NewBlock()
	b.Kind = KindDoubleDivider
	b.Content = "leftover"
	b.Emphasized = true

	got := Normalize(b)
	if got.Content != "" || got.Emphasized {
		t.Errorf("divider kept content attributes: %+v", got)
	}
	if got.Kind != KindDoubleDivider {
		t.Errorf("kind = %q", got.Kind)
	}
}

func TestNormalizeFillsDefaults(t *testing.T) {
	got := Normalize(Block{Content: "x"})
	if got.Kind != KindDefault {
		t.Errorf("kind = %q", got.Kind)
	}
	if got.FontScale != DefaultFontScale || got.HAlign != AlignCenter || got.VAlign != AlignCenter {
		t.Errorf("defaults missing: %+v", got)
	}
}

func TestNormalizeClampsFontScale(t *testing.T) {
	tests := []struct {
		in, want FontScale
	}{
		{0, DefaultFontScale},
		{-3, DefaultFontScale},
		{1, MinFontScale},
		{80, 80},
		{20000000, MaxFontScale},
	}
	for _, tt := range tests {
		if got := Normalize(Block{Content: "x", FontScale: tt.in}).FontScale; got != tt.want {
			t.Errorf("Normalize(scale %d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestFontScaleJSONBounds(t *testing.T) {
	tests := []struct {
		in   string
		want FontScale
	}{
		{`"20000000"`, MaxFontScale},
		{`1e300`, MaxFontScale},
		{`2`, MinFontScale},
		{`"NaN"`, 0},
		{`-40`, 0},
		{`"abc"`, 0},
	}
	for _, tt := range tests {
		var f FontScale
		if err := json.Unmarshal([]byte(tt.in), &f); err != nil {
			t.Fatalf("%s: %v", tt.in, err)
		}
		if f != tt.want {
			t.Errorf("%s = %d, want %d", tt.in, f, tt.want)
		}
	}
}

func TestBlockJSON(t *testing.T) {
	data, err := json.Marshal(NewDivider(KindSingleDivider))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"type":"sdivider"}` {
		t.Errorf("divider json = %s", data)
	}

	var b Block
	in := `{"type":"def","content":"a","height":"3cm","autoHeight":false,"manualFontSize":"80","vAlign":"start","hAlign":"flex-end","important":true}`
	if err := json.Unmarshal([]byte(in), &b); err != nil {
		t.Fatal(err)
	}
	if b.FontScale != 80 {
		t.Errorf("font scale = %d, want 80", b.FontScale)
	}
	if b.VAlign != AlignStart || b.HAlign != AlignEnd {
		t.Errorf("aligns = %q/%q", b.VAlign, b.HAlign)
	}
	if !b.Emphasized {
		t.Error("important flag lost")
	}
}

func TestInsertRemove(t *testing.T) {
	doc := NewDocument()
	a, b := NewBlock(), NewBlock()
	b.Content = "b"
	doc.Insert(0, 1, 0, a)
	doc.Insert(0, 1, 0, b)

	if got := doc.Block(Position{0, 1, 0}); got.Content != "b" {
		t.Errorf("first block = %q", got.Content)
	}
	removed := doc.Remove(Position{0, 1, 0})
	if removed.Content != "b" || doc.BlockCount() != 1 {
		t.Errorf("remove: got %q, count %d", removed.Content, doc.BlockCount())
	}
}

func TestOutOfRangePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	doc := NewDocument()
	doc.Remove(Position{0, 0, 0})
}

func TestCloneIsDeep(t *testing.T) {
	doc := NewDocument()
	doc.Insert(0, 0, 0, NewBlock())
	cp := doc.Clone()
	cp.Set(Position{0, 0, 0}, NewDivider(KindSingleDivider))
	if doc.Block(Position{0, 0, 0}).IsDivider() {
		t.Error("clone shares storage with original")
	}
	if Equal(doc, cp) {
		t.Error("documents should differ")
	}
}

func TestContentBlocksSkipsDividers(t *testing.T) {
	doc := NewDocument()
	doc.Insert(0, 0, 0, NewBlock())
	doc.Insert(0, 0, 1, NewDivider(KindSingleDivider))
	doc.Insert(0, 0, 2, NewBlock())
	doc.Insert(0, 2, 0, NewBlock())
	if got := len(doc.ContentBlocks()); got != 3 {
		t.Errorf("content blocks = %d, want 3", got)
	}
}
