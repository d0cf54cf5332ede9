package confirm

import (
	"bytes"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestPrompt(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"  yes  \n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
		{"yep\n", false},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		got := Prompt(strings.NewReader(tt.input), &out).Confirm("Delete block?")
		if got != tt.want {
			t.Errorf("input %q: got %v, want %v", tt.input, got, tt.want)
		}
		if !strings.Contains(out.String(), "Delete block? [y/N]") {
			t.Errorf("prompt not written: %q", out.String())
		}
	}
}

func TestPromptReadsSuccessiveLines(t *testing.T) {
	c := Prompt(strings.NewReader("n\ny\n"), &bytes.Buffer{})
	if c.Confirm("first") {
		t.Fatal("first answer should decline")
	}
	if !c.Confirm("second") {
		t.Fatal("second answer should confirm")
	}
}

func TestFromRequest(t *testing.T) {
	tests := []struct {
		target string
		header string
		want   bool
	}{
		{"/x", "", false},
		{"/x?confirm=true", "", true},
		{"/x?confirm=1", "", true},
		{"/x?confirm=false", "", false},
		{"/x?confirm=maybe", "", false},
		{"/x", "yes", true},
		{"/x", "no", false},
	}
	for _, tt := range tests {
		r := httptest.NewRequest("DELETE", tt.target, nil)
		if tt.header != "" {
			r.Header.Set("X-Confirm", tt.header)
		}
		if got := FromRequest(r).Confirm("?"); got != tt.want {
			t.Errorf("%s header=%q: got %v, want %v", tt.target, tt.header, got, tt.want)
		}
	}
}
