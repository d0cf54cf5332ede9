package measure

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/starford/cheatsheet/internal/markup"
	"github.com/starford/cheatsheet/internal/render"
	"github.com/starford/cheatsheet/internal/textlayout"
	"github.com/starford/cheatsheet/internal/units"
)

// element is one mounted block on the off-screen surface.
type element struct {
	id          string
	divider     bool
	double      bool
	autoHeight  bool
	height      string
	minHeight   string
	paddingPx   float64
	fontPercent int
	bold        bool
	raw         string // text as mounted, <br> as newline
	text        string // text after typesetting
	settled     bool
}

// surface is an invisible layout area of fixed width. Elements are looked
// up by their render identifier, never by position.
type surface struct {
	bank  *textlayout.Bank
	width float64

	mu       sync.Mutex
	elements map[string]*element
	order    []string
	cancel   context.CancelFunc
}

func newSurface(bank *textlayout.Bank, widthPx int) *surface {
	return &surface{
		bank:     bank,
		width:    float64(widthPx),
		elements: map[string]*element{},
		cancel:   func() {},
	}
}

// mount parses a rendered block fragment and adds it to the surface.
func (s *surface) mount(fragment string) (string, error) {
	ctxNode := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), ctxNode)
	if err != nil {
		return "", fmt.Errorf("measure: parse fragment: %w", err)
	}
	var root *html.Node
	for _, n := range nodes {
		if n.Type == html.ElementNode {
			root = n
			break
		}
	}
	if root == nil {
		return "", fmt.Errorf("measure: fragment has no element")
	}

	el := &element{id: attr(root, "data-block-id"), fontPercent: 100}
	if el.id == "" {
		return "", fmt.Errorf("measure: element without data-block-id")
	}
	class := attr(root, "class")
	if strings.Contains(class, "divider") {
		el.divider = true
		el.double = strings.Contains(class, "double")
		el.settled = true
		s.add(el)
		return el.id, nil
	}
	el.bold = hasClass(class, "important")

	box := parseStyle(attr(root, "style"))
	el.height = box["height"]
	el.autoHeight = el.height == "" || el.height == "auto"
	el.minHeight = box["min-height"]
	if p, ok := units.ParseLength(box["padding"]); ok {
		el.paddingPx = p
	}

	var sb strings.Builder
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == atom.Span {
			if pct, ok := parsePercent(parseStyle(attr(c, "style"))["font-size"]); ok {
				el.fontPercent = pct
			}
			collectText(c, &sb)
		}
	}
	el.raw = sb.String()
	el.text = el.raw
	// Only delimited math is touched by typesetting.
	el.settled = !markup.HasMath(el.raw)
	s.add(el)
	return el.id, nil
}

func (s *surface) add(el *element) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.elements == nil {
		return
	}
	s.elements[el.id] = el
	s.order = append(s.order, el.id)
}

// typeset post-processes every unsettled element in one background pass.
// The returned channel closes when the pass finishes or is cancelled.
func (s *surface) typeset(ctx context.Context, ts markup.Typesetter) <-chan struct{} {
	ctx, cancel := context.WithCancel(ctx)

	type job struct{ id, raw string }
	s.mu.Lock()
	s.cancel = cancel
	var jobs []job
	for _, id := range s.order {
		if el := s.elements[id]; !el.settled {
			jobs = append(jobs, job{id: id, raw: el.raw})
		}
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for _, j := range jobs {
			out, err := ts.Typeset(ctx, j.raw)
			if ctx.Err() != nil {
				return
			}
			if err != nil {
				// Render the source as-is, like a non-throwing typesetter.
				out = j.raw
			}
			s.mu.Lock()
			if el := s.elements[j.id]; el != nil {
				el.text = out
				el.settled = true
			}
			s.mu.Unlock()
		}
	}()
	return done
}

// height reads the rendered box height of id in whole pixels, rounding up.
// It returns 0 when the element is missing or has not settled.
func (s *surface) height(id string) int {
	s.mu.Lock()
	el := s.elements[id]
	if el == nil || !el.settled {
		s.mu.Unlock()
		return 0
	}
	e := *el
	s.mu.Unlock()

	if e.divider {
		if e.double {
			return DoubleDividerPx
		}
		return SingleDividerPx
	}
	if !e.autoHeight {
		if px, ok := units.ParseLength(e.height); ok {
			return units.Ceil(px)
		}
	}
	box := s.bank.Layout(e.text, s.width-2*e.paddingPx, textlayout.Style{
		SizePx: render.BaseFontPx * float64(e.fontPercent) / 100,
		Bold:   e.bold,
	})
	h := box.Height + 2*e.paddingPx
	if minH, ok := units.ParseLength(e.minHeight); ok {
		h = math.Max(h, minH)
	}
	return units.Ceil(h)
}

// teardown cancels typesetting and drops every element.
func (s *surface) teardown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancel()
	s.elements = nil
	s.order = nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(class, name string) bool {
	for _, c := range strings.Fields(class) {
		if c == name {
			return true
		}
	}
	return false
}

func parseStyle(style string) map[string]string {
	out := map[string]string{}
	for _, decl := range strings.Split(style, ";") {
		k, v, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		out[strings.ToLower(strings.TrimSpace(k))] = strings.TrimSpace(v)
	}
	return out
}

func parsePercent(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if !strings.HasSuffix(s, "%") {
		return 0, false
	}
	v, err := strconv.Atoi(strings.TrimSuffix(s, "%"))
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

func collectText(n *html.Node, sb *strings.Builder) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch {
		case c.Type == html.TextNode:
			sb.WriteString(c.Data)
		case c.Type == html.ElementNode && c.DataAtom == atom.Br:
			sb.WriteByte('\n')
		default:
			collectText(c, sb)
		}
	}
}
