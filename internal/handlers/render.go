package handlers

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"

	"github.com/inkwell/inkwell/internal/blog"
)

const excerptRunes = 200

// Banner is the status message carried between redirects via query
// parameters and rendered by the target page.
type Banner struct {
	Status  string
	Message string
}

// baseData is embedded by every page's view model; the layout template
// reads it for the title, nav state, and banner.
type baseData struct {
	Title      string
	Banner     *Banner
	UserEmail  string
	HasEnvVars bool
}

type postView struct {
	ID          int64
	Title       string
	Excerpt     string
	ContentHTML template.HTML
	UserEmail   string
	CreatedAt   time.Time
	Owned       bool
}

type addFormView struct {
	Title   string
	Content string
	Error   string
	OOB     bool
}

type editFormView struct {
	ID      int64
	Title   string
	Content string
	Error   string
}

// renderer parses the embedded templates once at startup. Post bodies
// are rendered as Markdown and sanitized before they reach a page.
type renderer struct {
	pages     map[string]*template.Template
	fragments *template.Template
	md        goldmark.Markdown
	policy    *bluemonday.Policy
}

func newRenderer(fsys fs.FS) (*renderer, error) {
	r := &renderer{
		pages:  make(map[string]*template.Template),
		md:     goldmark.New(),
		policy: bluemonday.UGCPolicy(),
	}

	pageFiles, err := fs.Glob(fsys, "templates/pages/*.html")
	if err != nil {
		return nil, err
	}
	for _, page := range pageFiles {
		t, err := template.ParseFS(fsys, "templates/layout.html", "templates/partials/*.html", page)
		if err != nil {
			return nil, fmt.Errorf("handlers: parse %s: %w", page, err)
		}
		r.pages[strings.TrimSuffix(path.Base(page), ".html")] = t
	}

	fragments, err := template.ParseFS(fsys, "templates/partials/*.html")
	if err != nil {
		return nil, fmt.Errorf("handlers: parse partials: %w", err)
	}
	r.fragments = fragments
	return r, nil
}

// page renders a full page into the layout. The template executes into
// a buffer first, so a render error never leaves a half-written body.
func (r *renderer) page(w http.ResponseWriter, status int, name string, data any) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("handlers: unknown page %q", name)
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("handlers: render %s: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// fragment renders one or more named partials back to back, for htmx
// responses that carry out-of-band swaps alongside the main fragment.
func (r *renderer) fragment(w http.ResponseWriter, status int, parts ...fragmentPart) error {
	var buf bytes.Buffer
	for _, p := range parts {
		if err := r.fragments.ExecuteTemplate(&buf, p.name, p.data); err != nil {
			return fmt.Errorf("handlers: render fragment %s: %w", p.name, err)
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

type fragmentPart struct {
	name string
	data any
}

func part(name string, data any) fragmentPart {
	return fragmentPart{name: name, data: data}
}

// markdownHTML converts Markdown to sanitized HTML. On a conversion
// failure the raw text is escaped and used as-is.
func (r *renderer) markdownHTML(content string) template.HTML {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(content), &buf); err != nil {
		return template.HTML("<p>" + template.HTMLEscapeString(content) + "</p>")
	}
	return template.HTML(r.policy.SanitizeBytes(buf.Bytes()))
}

func excerpt(content string) string {
	content = strings.TrimSpace(content)
	runes := []rune(content)
	if len(runes) <= excerptRunes {
		return content
	}
	return strings.TrimSpace(string(runes[:excerptRunes])) + "…"
}

func (r *renderer) postViews(posts []blog.Post, viewerEmail string, full bool) []postView {
	views := make([]postView, 0, len(posts))
	for _, p := range posts {
		v := postView{
			ID:        p.ID,
			Title:     p.Title,
			Excerpt:   excerpt(p.Content),
			UserEmail: p.UserEmail,
			CreatedAt: p.CreatedAt,
			Owned:     viewerEmail != "" && p.UserEmail == viewerEmail,
		}
		if full {
			v.ContentHTML = r.markdownHTML(p.Content)
		}
		views = append(views, v)
	}
	return views
}
