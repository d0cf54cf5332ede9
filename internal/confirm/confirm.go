// Package confirm gates destructive operations behind a yes/no answer.
package confirm

import (
	"bufio"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
)

// Confirmer answers a yes/no question synchronously.
type Confirmer interface {
	Confirm(prompt string) bool
}

// Func adapts a function to Confirmer.
type Func func(prompt string) bool

// Confirm calls f.
func (f Func) Confirm(prompt string) bool { return f(prompt) }

// Always confirms everything.
var Always Confirmer = Func(func(string) bool { return true })

// Never declines everything.
var Never Confirmer = Func(func(string) bool { return false })

// Prompt asks on out and reads a single answer line from in. Only "y" and
// "yes" (any case) confirm; read errors decline.
func Prompt(in io.Reader, out io.Writer) Confirmer {
	r := bufio.NewReader(in)
	return Func(func(prompt string) bool {
		fmt.Fprintf(out, "%s [y/N]: ", prompt)
		line, err := r.ReadString('\n')
		if err != nil && line == "" {
			return false
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true
		}
		return false
	})
}

// FromRequest confirms when the request carries ?confirm=true or the
// X-Confirm: yes header.
func FromRequest(r *http.Request) Confirmer {
	ok := strings.EqualFold(r.Header.Get("X-Confirm"), "yes")
	if v := r.URL.Query().Get("confirm"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			ok = ok || b
		}
	}
	if ok {
		return Always
	}
	return Never
}
