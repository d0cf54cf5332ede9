package render

import (
	"fmt"
	"strings"
	"testing"

	"github.com/starford/cheatsheet/internal/models"
)

func TestFitTextCoarseSteps(t *testing.T) {
	// Overflows at 100, 95, 90, 85 and fits from 80 down.
	var tried []int
	got := FitText(100, func(p int) bool {
		tried = append(tried, p)
		return p > 80
	})
	if got != 80 {
		t.Fatalf("FitText = %d, want 80 (tried %v)", got, tried)
	}
}

func TestFitTextFineSteps(t *testing.T) {
	got := FitText(100, func(p int) bool { return p > 7 })
	if got != 7 {
		t.Errorf("FitText = %d, want 7", got)
	}
}

func TestFitTextFloor(t *testing.T) {
	got := FitText(100, func(int) bool { return true })
	if got != 5 {
		t.Errorf("FitText = %d, want floor 5", got)
	}
}

func TestFitTextAlreadyFits(t *testing.T) {
	if got := FitText(60, func(int) bool { return false }); got != 60 {
		t.Errorf("FitText = %d, want 60", got)
	}
	if got := FitText(0, func(int) bool { return false }); got != 100 {
		t.Errorf("FitText(0) = %d, want 100", got)
	}
}

func TestStyleOf(t *testing.T) {
	b := models.NewBlock()
	b.HAlign = models.AlignStart
	b.VAlign = models.AlignEnd
	b.Emphasized = true
	b.FontScale = 80

	s := StyleOf(b)
	if s.TextAlign != "left" || s.JustifyContent != "flex-start" || s.AlignItems != "flex-end" {
		t.Errorf("alignment mapping = %+v", s)
	}
	if s.ClassAttr() != "block def important" {
		t.Errorf("classes = %q", s.ClassAttr())
	}
	if s.Height != "2cm" || s.FontPercent != 80 {
		t.Errorf("height/font = %q/%d", s.Height, s.FontPercent)
	}

	b.AutoHeight = true
	s = StyleOf(b)
	if s.Height != "auto" || s.MinHeight != AutoMinHeight || s.PaddingPx != AutoPaddingPx {
		t.Errorf("auto height mapping = %+v", s)
	}
}

func TestStyleOfRejectsBadHeight(t *testing.T) {
	b := models.NewBlock()
	b.Height = "2cm;background:red"
	if got := StyleOf(b).Height; got != models.DefaultHeight {
		t.Errorf("height = %q", got)
	}
}

func TestBlockHTMLEscapesAndBreaks(t *testing.T) {
	b := models.NewBlock()
	b.Content = "a < b\nnext"
	html, err := BlockHTML("id1", b, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(html, "a &lt; b<br>next") {
		t.Errorf("content not escaped/broken: %s", html)
	}
	if !strings.Contains(html, `data-block-id="id1"`) {
		t.Errorf("missing id: %s", html)
	}
}

func TestDividerHTML(t *testing.T) {
	html, err := BlockHTML("d", models.NewDivider(models.KindDoubleDivider), 0)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(html, `class="double-divider"`) || strings.Contains(html, "inside") {
		t.Errorf("divider html = %s", html)
	}
}

func TestDocumentManifest(t *testing.T) {
	doc := models.NewDocument()
	doc.Insert(0, 1, 0, models.NewBlock())
	doc.Insert(0, 1, 1, models.NewDivider(models.KindSingleDivider))
	doc.Insert(0, 1, 2, models.NewBlock())

	n := 0
	r := NewRenderer(WithIDs(func() string { n++; return fmt.Sprintf("id%d", n) }))
	html, manifest, err := r.Document(doc)
	if err != nil {
		t.Fatal(err)
	}
	if len(manifest) != 3 {
		t.Fatalf("manifest = %v", manifest)
	}
	if pos := manifest["id3"]; pos != (models.Position{Page: 0, Column: 1, Index: 2}) {
		t.Errorf("id3 -> %v", pos)
	}
	if strings.Count(string(html), `class="col"`) != 3 {
		t.Errorf("expected 3 columns in output")
	}
}

func TestFitterShrinksLongText(t *testing.T) {
	f := NewFitter(nil, 300)
	b := models.NewBlock()
	b.Height = "1cm"
	b.Content = strings.Repeat("long content that cannot fit ", 20)
	if got := f.Scale(b); got >= 100 {
		t.Errorf("scale = %d, expected shrink", got)
	}

	b.Content = "hi"
	if got := f.Scale(b); got != 100 {
		t.Errorf("short text scale = %d, want 100", got)
	}

	b.AutoHeight = true
	b.FontScale = 90
	if got := f.Scale(b); got != 90 {
		t.Errorf("auto height scale = %d, want 90", got)
	}
}
