// Package render turns pages and scholarship cards into escaped HTML.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"zonebourse-go/internal/flash"
	"zonebourse-go/internal/media"
	"zonebourse-go/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

const siteName = "ZoneBourse"

// Pages rendered inside base.html.
var pages = []string{
	"home.html",
	"login.html",
	"register.html",
	"dashboard.html",
	"detail.html",
	"admin.html",
	"logout.html",
	"not_found.html",
}

const partials = "templates/partials.html"

type Renderer struct {
	pages    map[string]*template.Template
	partials *template.Template
	previews *template.Template
}

// CardData is everything a card needs. Admin switches the action buttons.
type CardData struct {
	Bourse    model.Bourse
	Admin     bool
	CSRFToken string
}

func New() (*Renderer, error) {
	r := &Renderer{pages: make(map[string]*template.Template, len(pages))}
	funcs := r.funcMap()

	shared, err := template.New("").Funcs(funcs).ParseFS(templateFS, "templates/base.html", partials)
	if err != nil {
		return nil, fmt.Errorf("parse base templates: %w", err)
	}

	for _, page := range pages {
		clone, err := shared.Clone()
		if err != nil {
			return nil, err
		}
		tmpl, err := clone.ParseFS(templateFS, "templates/"+page)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", page, err)
		}
		r.pages[page] = tmpl
	}

	r.partials, err = template.New("").Funcs(funcs).ParseFS(templateFS, partials)
	if err != nil {
		return nil, fmt.Errorf("parse partials: %w", err)
	}
	r.previews, err = template.New("").Funcs(funcs).ParseFS(templateFS, "templates/previews.html", partials)
	if err != nil {
		return nil, fmt.Errorf("parse previews: %w", err)
	}
	return r, nil
}

// Page writes page wrapped in the site layout. data may be nil.
func (r *Renderer) Page(w http.ResponseWriter, status int, page string, data map[string]any) error {
	tmpl, ok := r.pages[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}
	if data == nil {
		data = map[string]any{}
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base", data); err != nil {
		return fmt.Errorf("execute %s: %w", page, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// Card renders one scholarship card. Grids call it through the card
// template function.
func (r *Renderer) Card(data CardData) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.partials.ExecuteTemplate(&buf, "card", data); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

// Previews writes the standalone preview fragment used by the admin form.
func (r *Renderer) Previews(w http.ResponseWriter, field string, previews []media.Preview) error {
	var buf bytes.Buffer
	err := r.previews.ExecuteTemplate(&buf, "previews", map[string]any{
		"Field":    field,
		"Previews": previews,
	})
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, err = buf.WriteTo(w)
	return err
}

// Static serves the embedded stylesheet and images under /static/.
func Static() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}

func (r *Renderer) funcMap() template.FuncMap {
	return template.FuncMap{
		"site": func() string { return siteName },
		"card": func(b model.Bourse, admin bool, csrf string) (template.HTML, error) {
			return r.Card(CardData{Bourse: b, Admin: admin, CSRFToken: csrf})
		},
		"nl2br":          nl2br,
		"formatDeadline": FormatDeadline,
		"truncate":       truncate,
		"ms": func(d time.Duration) int64 {
			return d.Milliseconds()
		},
		"isError": func(k flash.Kind) bool { return k == flash.Error },
		"dataURL": func(p media.Preview) template.URL {
			// Built from base64 content and a sniffed MIME type.
			return template.URL(p.DataURL)
		},
		"humanSize": humanSize,
	}
}

// nl2br escapes each line and joins them with <br>.
func nl2br(s string) template.HTML {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = template.HTMLEscapeString(line)
	}
	return template.HTML(strings.Join(lines, "<br>"))
}

var frenchMonths = [...]string{
	"", "janvier", "février", "mars", "avril", "mai", "juin",
	"juillet", "août", "septembre", "octobre", "novembre", "décembre",
}

// FormatDeadline renders ISO dates in French and leaves anything else as is.
func FormatDeadline(value string) string {
	value = strings.TrimSpace(value)
	for _, layout := range []string{"2006-01-02", time.RFC3339, "Mon, 02 Jan 2006 15:04:05 MST"} {
		if t, err := time.Parse(layout, value); err == nil {
			return fmt.Sprintf("%d %s %d", t.Day(), frenchMonths[t.Month()], t.Year())
		}
	}
	return value
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

func humanSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f Mo", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f Ko", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d o", n)
	}
}
