// Package markup splits block content into plain text and TeX math runs and
// typesets the math into a Unicode approximation.
package markup

import (
	"context"
	"regexp"
	"strings"
)

// SegmentKind classifies a run of block content.
type SegmentKind int

const (
	Text SegmentKind = iota
	InlineMath
	DisplayMath
)

// Segment is one run of block content with its delimiters stripped.
type Segment struct {
	Kind SegmentKind
	Text string
}

// mathRe matches the four supported delimiters: $$…$$ and \[…\] for display
// math, \(…\) and $…$ for inline math.
var mathRe = regexp.MustCompile(`\$\$([\s\S]+?)\$\$|\\\[([\s\S]+?)\\\]|\\\(([\s\S]+?)\\\)|\$([^$\n]+?)\$`)

// Split breaks s into text and math segments in source order.
func Split(s string) []Segment {
	var out []Segment
	last := 0
	for _, m := range mathRe.FindAllStringSubmatchIndex(s, -1) {
		if m[0] > last {
			out = append(out, Segment{Kind: Text, Text: s[last:m[0]]})
		}
		switch {
		case m[2] >= 0:
			out = append(out, Segment{Kind: DisplayMath, Text: s[m[2]:m[3]]})
		case m[4] >= 0:
			out = append(out, Segment{Kind: DisplayMath, Text: s[m[4]:m[5]]})
		case m[6] >= 0:
			out = append(out, Segment{Kind: InlineMath, Text: s[m[6]:m[7]]})
		default:
			out = append(out, Segment{Kind: InlineMath, Text: s[m[8]:m[9]]})
		}
		last = m[1]
	}
	if last < len(s) {
		out = append(out, Segment{Kind: Text, Text: s[last:]})
	}
	return out
}

// HasMath reports whether s contains any delimited math.
func HasMath(s string) bool {
	return mathRe.MatchString(s)
}

// Typesetter post-processes the text of a rendered block. Implementations
// may be slow; callers bound the wait themselves.
type Typesetter interface {
	Typeset(ctx context.Context, src string) (string, error)
}

// TypesetFunc adapts a function to Typesetter.
type TypesetFunc func(ctx context.Context, src string) (string, error)

// Typeset calls f.
func (f TypesetFunc) Typeset(ctx context.Context, src string) (string, error) { return f(ctx, src) }

// UnicodeTypesetter renders TeX math with Unicode symbols. Display math is
// placed on its own line.
type UnicodeTypesetter struct{}

// Typeset implements Typesetter.
func (UnicodeTypesetter) Typeset(ctx context.Context, src string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var b strings.Builder
	for _, seg := range Split(src) {
		switch seg.Kind {
		case Text:
			b.WriteString(seg.Text)
		case InlineMath:
			b.WriteString(TeXToUnicode(seg.Text))
		case DisplayMath:
			if b.Len() > 0 && !strings.HasSuffix(b.String(), "\n") {
				b.WriteByte('\n')
			}
			b.WriteString(TeXToUnicode(seg.Text))
			b.WriteByte('\n')
		}
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

var (
	fracRe    = regexp.MustCompile(`\\[dt]?frac\{([^{}]*)\}\{([^{}]*)\}`)
	sqrtRe    = regexp.MustCompile(`\\sqrt\{([^{}]*)\}`)
	supRe     = regexp.MustCompile(`\^\{([^{}]*)\}|\^(\w)`)
	subRe     = regexp.MustCompile(`_\{([^{}]*)\}|_(\w)`)
	commandRe = regexp.MustCompile(`\\([A-Za-z]+)`)
)

var symbols = map[string]string{
	"alpha": "α", "beta": "β", "gamma": "γ", "delta": "δ", "epsilon": "ε",
	"theta": "θ", "lambda": "λ", "mu": "μ", "pi": "π", "sigma": "σ",
	"tau": "τ", "phi": "φ", "omega": "ω", "Delta": "Δ", "Sigma": "Σ",
	"Omega": "Ω", "sum": "∑", "prod": "∏", "int": "∫", "infty": "∞",
	"partial": "∂", "nabla": "∇", "leq": "≤", "le": "≤", "geq": "≥",
	"ge": "≥", "neq": "≠", "approx": "≈", "equiv": "≡", "cdot": "·",
	"times": "×", "pm": "±", "to": "→", "rightarrow": "→",
	"leftarrow": "←", "Rightarrow": "⇒", "iff": "⇔", "in": "∈",
	"forall": "∀", "exists": "∃", "cup": "∪", "cap": "∩", "subset": "⊂",
	"emptyset": "∅", "sqrt": "√", "ldots": "…", "cdots": "⋯",
	"left": "", "right": "", "quad": " ", "qquad": "  ",
}

var superscripts = map[rune]rune{
	'0': '⁰', '1': '¹', '2': '²', '3': '³', '4': '⁴', '5': '⁵', '6': '⁶',
	'7': '⁷', '8': '⁸', '9': '⁹', '+': '⁺', '-': '⁻', 'n': 'ⁿ', 'i': 'ⁱ',
}

var subscripts = map[rune]rune{
	'0': '₀', '1': '₁', '2': '₂', '3': '₃', '4': '₄', '5': '₅', '6': '₆',
	'7': '₇', '8': '₈', '9': '₉', '+': '₊', '-': '₋',
}

// TeXToUnicode approximates a TeX math expression in plain Unicode.
func TeXToUnicode(tex string) string {
	s := strings.TrimSpace(tex)
	s = fracRe.ReplaceAllString(s, "($1)/($2)")
	s = sqrtRe.ReplaceAllString(s, "√($1)")
	s = supRe.ReplaceAllStringFunc(s, func(m string) string {
		return script(strings.Trim(m[1:], "{}"), superscripts, "^")
	})
	s = subRe.ReplaceAllStringFunc(s, func(m string) string {
		return script(strings.Trim(m[1:], "{}"), subscripts, "_")
	})
	s = commandRe.ReplaceAllStringFunc(s, func(m string) string {
		if sym, ok := symbols[m[1:]]; ok {
			return sym
		}
		return m[1:]
	})
	s = strings.NewReplacer("{", "", "}", "").Replace(s)
	return s
}

// script maps every rune of s through table, or falls back to marker+s
// when any rune has no scripted form.
func script(s string, table map[rune]rune, marker string) string {
	var b strings.Builder
	for _, r := range s {
		mapped, ok := table[r]
		if !ok {
			return marker + s
		}
		b.WriteRune(mapped)
	}
	return b.String()
}
