package web

// params.go parses query parameters shared by the handlers.
//
// Absent parameters take their defaults. Present but malformed ones are
// rejected with core.ErrInvalidParameter instead of being silently replaced,
// so a typo in year or top_n never yields a plausible wrong answer.

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/Jimmy-INL/critical-minerals-data-tools/internal/core"
	"github.com/Jimmy-INL/critical-minerals-data-tools/internal/render"
)

// query wraps URL values and collects the first parse error.
type query struct {
	r   *http.Request
	err error
}

func newQuery(r *http.Request) *query {
	return &query{r: r}
}

// str returns a trimmed parameter or def when absent.
func (q *query) str(name, def string) string {
	if v := strings.TrimSpace(q.r.URL.Query().Get(name)); v != "" {
		return v
	}
	return def
}

// required returns a trimmed parameter and records an error when absent.
func (q *query) required(name string) string {
	v := q.str(name, "")
	if v == "" && q.err == nil {
		q.err = fmt.Errorf("%w: %s is required", core.ErrInvalidParameter, name)
	}
	return v
}

// nonNegInt parses a non-negative integer, returning def when absent.
func (q *query) nonNegInt(name string, def int) int {
	v := q.str(name, "")
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil || i < 0 {
		if q.err == nil {
			q.err = fmt.Errorf("%w: %s must be a non-negative integer, got %q", core.ErrInvalidParameter, name, v)
		}
		return def
	}
	return i
}

// year parses a four-digit year, returning 0 when absent.
func (q *query) year(name string) int {
	v := q.str(name, "")
	if v == "" {
		return 0
	}
	y, ok := core.ParseYear(v)
	if !ok || strconv.Itoa(y) != v {
		if q.err == nil {
			q.err = fmt.Errorf("%w: %s must be a four-digit year, got %q", core.ErrInvalidParameter, name, v)
		}
		return 0
	}
	return y
}

// flag parses a boolean flag, returning false when absent.
func (q *query) flag(name string) bool {
	v := q.str(name, "")
	if v == "" {
		return false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		if q.err == nil {
			q.err = fmt.Errorf("%w: %s must be true or false, got %q", core.ErrInvalidParameter, name, v)
		}
		return false
	}
	return b
}

// yearRange parses year_from and year_to and checks their order.
func (q *query) yearRange() (from, to int) {
	from, to = q.year("year_from"), q.year("year_to")
	if from != 0 && to != 0 && from > to && q.err == nil {
		q.err = fmt.Errorf("%w: year_from %d is after year_to %d", core.ErrInvalidParameter, from, to)
	}
	return from, to
}

// capped limits v to max; zero means "everything", which is also capped.
func capped(v, max int) int {
	if v == 0 || v > max {
		return max
	}
	return v
}

// wantsMarkdown reports whether the client asked for Markdown output,
// either with format=markdown or an Accept header naming text/markdown.
func wantsMarkdown(r *http.Request) bool {
	switch strings.ToLower(r.URL.Query().Get("format")) {
	case "markdown", "md":
		return true
	case "json":
		return false
	}
	return strings.Contains(r.Header.Get("Accept"), "text/markdown")
}

// respond writes v as JSON, or the Markdown produced by md when asked for.
func respond(w http.ResponseWriter, r *http.Request, v any, md func() string) {
	if wantsMarkdown(r) {
		w.Header().Set("Content-Type", render.ContentType)
		fmt.Fprint(w, md())
		return
	}
	writeJSON(w, r, v)
}
