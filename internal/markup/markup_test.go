package markup

import (
	"context"
	"testing"
)

func TestSplit(t *testing.T) {
	segs := Split(`Energy $E = mc^2$ and $$\sum_i x_i$$ end`)
	if len(segs) != 5 {
		t.Fatalf("segments = %d, want 5: %+v", len(segs), segs)
	}
	if segs[1].Kind != InlineMath || segs[1].Text != "E = mc^2" {
		t.Errorf("inline = %+v", segs[1])
	}
	if segs[3].Kind != DisplayMath || segs[3].Text != `\sum_i x_i` {
		t.Errorf("display = %+v", segs[3])
	}
}

func TestSplitBracketDelimiters(t *testing.T) {
	segs := Split(`\(a\) and \[b\]`)
	if len(segs) != 3 {
		t.Fatalf("segments = %+v", segs)
	}
	if segs[0].Kind != InlineMath || segs[2].Kind != DisplayMath {
		t.Errorf("kinds = %v %v", segs[0].Kind, segs[2].Kind)
	}
}

func TestHasMath(t *testing.T) {
	if HasMath("plain text") {
		t.Error("plain text has no math")
	}
	if !HasMath(`cost is $x$`) {
		t.Error("inline math not detected")
	}
}

func TestTeXToUnicode(t *testing.T) {
	cases := map[string]string{
		`E = mc^2`:          "E = mc²",
		`\alpha + \beta`:    "α + β",
		`\frac{a}{b}`:       "(a)/(b)",
		`x_{12}`:            "x₁₂",
		`a \leq b`:          "a ≤ b",
		`e^{i\pi}`:          "e^iπ",
		`\sqrt{2}`:          "√(2)",
	}
	for in, want := range cases {
		if got := TeXToUnicode(in); got != want {
			t.Errorf("TeXToUnicode(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestUnicodeTypesetterDisplayOnOwnLine(t *testing.T) {
	got, err := UnicodeTypesetter{}.Typeset(context.Background(), `Sum: $$\sum x$$ done`)
	if err != nil {
		t.Fatal(err)
	}
	if got != "Sum: \n∑ x\n done" {
		t.Errorf("typeset = %q", got)
	}
}

func TestUnicodeTypesetterCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := (UnicodeTypesetter{}).Typeset(ctx, "$x$"); err == nil {
		t.Error("expected context error")
	}
}
