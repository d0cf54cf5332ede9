package render

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/google/uuid"

	"github.com/starford/cheatsheet/internal/models"
)

// Manifest maps the stable element identifiers of one rendering back to
// block positions.
type Manifest map[string]models.Position

var blockTmpl = template.Must(template.New("block").Parse(
	`{{if .Style.Divider}}<div class="{{.Style.ClassAttr}}" id="b-{{.ID}}" data-block-id="{{.ID}}"></div>` +
		`{{else}}<div class="{{.Style.ClassAttr}}" id="b-{{.ID}}" data-block-id="{{.ID}}" style="{{.BoxCSS}}">` +
		`<span class="inside" style="{{.TextCSS}}">{{.Text}}</span></div>{{end}}`))

var docTmpl = template.Must(template.New("doc").Parse(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>Cheat sheet</title></head>
<body>
<div id="content-root">
{{range .Pages}}<section class="page" data-page="{{.Index}}"><div class="grid">
{{range .Columns}}<div class="col" data-page="{{.Page}}" data-col="{{.Index}}">{{range .Blocks}}{{.}}{{end}}</div>
{{end}}</div></section>
{{end}}</div>
</body>
</html>
`))

type blockView struct {
	ID      string
	Style   BlockStyle
	BoxCSS  template.CSS
	TextCSS template.CSS
	Text    template.HTML
}

type columnView struct {
	Page   int
	Index  int
	Blocks []template.HTML
}

type pageView struct {
	Index   int
	Columns []columnView
}

// textHTML escapes content and turns newlines into <br> like innerText does.
func textHTML(content string) template.HTML {
	lines := strings.Split(content, "\n")
	for i, l := range lines {
		lines[i] = template.HTMLEscapeString(l)
	}
	return template.HTML(strings.Join(lines, "<br>"))
}

// BlockHTML renders one block element tagged with id, with its text at the
// given font percentage (0 uses the block's own scale).
func BlockHTML(id string, b models.Block, percent int) (string, error) {
	st := StyleOf(b)
	if percent <= 0 {
		percent = st.FontPercent
	}
	view := blockView{
		ID:      id,
		Style:   st,
		BoxCSS:  template.CSS(st.BoxCSS()),
		TextCSS: template.CSS(st.TextCSS(percent)),
		Text:    textHTML(b.Content),
	}
	var buf bytes.Buffer
	if err := blockTmpl.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("render: block: %w", err)
	}
	return buf.String(), nil
}

// Renderer renders whole documents.
type Renderer struct {
	fitter *Fitter
	newID  func() string
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithFitter enables shrink-to-fit using f.
func WithFitter(f *Fitter) Option {
	return func(r *Renderer) { r.fitter = f }
}

// WithIDs overrides the identifier generator.
func WithIDs(fn func() string) Option {
	return func(r *Renderer) { r.newID = fn }
}

// NewRenderer creates a renderer. Identifiers default to random UUIDs.
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{newID: uuid.NewString}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Document renders doc as a standalone HTML page and returns the manifest of
// element identifiers.
func (r *Renderer) Document(doc models.Document) ([]byte, Manifest, error) {
	manifest := Manifest{}
	pages := make([]pageView, 0, len(doc.Pages))
	for p, page := range doc.Pages {
		pv := pageView{Index: p}
		for c, col := range page {
			cv := columnView{Page: p, Index: c}
			for i, b := range col {
				id := r.newID()
				manifest[id] = models.Position{Page: p, Column: c, Index: i}
				percent := 0
				if r.fitter != nil && Scalable(b) {
					percent = r.fitter.Scale(b)
				}
				html, err := BlockHTML(id, b, percent)
				if err != nil {
					return nil, nil, err
				}
				cv.Blocks = append(cv.Blocks, template.HTML(html))
			}
			pv.Columns = append(pv.Columns, cv)
		}
		pages = append(pages, pv)
	}

	var buf bytes.Buffer
	if err := docTmpl.Execute(&buf, struct{ Pages []pageView }{pages}); err != nil {
		return nil, nil, fmt.Errorf("render: document: %w", err)
	}
	return buf.Bytes(), manifest, nil
}
