package web

import (
	"bytes"
	"embed"
	"fmt"
	"html"
	"html/template"
	"io/fs"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/csemotors/internal/server/auth"
	"github.com/dmitrijs2005/csemotors/internal/server/flash"
	"github.com/dmitrijs2005/csemotors/internal/server/models"
	"github.com/dmitrijs2005/csemotors/internal/server/validation"
)

//go:embed templates
var templateFS embed.FS

// View is everything a page template can show.
type View struct {
	Name     string
	Title    string
	Messages map[flash.Kind][]string
	Errors   []string
	Form     validation.Values
	Account  *auth.Claims
	Nav      []models.Classification
	Data     any
}

// Renderer writes a view as the response body.
type Renderer interface {
	Render(w http.ResponseWriter, status int, v View) error
}

type templateRenderer struct {
	pages map[string]*template.Template
}

var templateFuncs = template.FuncMap{
	// stored names are HTML escaped once; undo that before the template
	// escapes them again
	"unescape": html.UnescapeString,
	"money":    formatMoney,
	"number":   formatNumber,
	"kinds":    func() []flash.Kind { return flash.Kinds },
}

// NewTemplateRenderer parses the layout and one template per page found
// under pages/. A page named "account/login" lives in
// pages/account/login.html.
func NewTemplateRenderer(fsys fs.FS) (Renderer, error) {
	layout, err := template.New("layout.html").Funcs(templateFuncs).ParseFS(fsys, "layout.html")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	pages := map[string]*template.Template{}
	err = fs.WalkDir(fsys, "pages", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".html") {
			return err
		}
		t, err := layout.Clone()
		if err != nil {
			return err
		}
		if _, err := t.ParseFS(fsys, path); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		name := strings.TrimSuffix(strings.TrimPrefix(path, "pages/"), ".html")
		pages[name] = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &templateRenderer{pages: pages}, nil
}

// DefaultRenderer uses the templates compiled into the binary.
func DefaultRenderer() Renderer {
	sub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		panic(err)
	}
	r, err := NewTemplateRenderer(sub)
	if err != nil {
		panic(err)
	}
	return r
}

func (t *templateRenderer) Render(w http.ResponseWriter, status int, v View) error {
	page, ok := t.pages[v.Name]
	if !ok {
		return fmt.Errorf("unknown view %q", v.Name)
	}
	var buf bytes.Buffer
	if err := page.ExecuteTemplate(&buf, "layout.html", v); err != nil {
		return fmt.Errorf("render %s: %w", v.Name, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// render fills in the per-request parts of v and writes it. Pending flash
// messages are drained into the page.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, v View) {
	ctx := r.Context()
	if claims, ok := ClaimsFromContext(ctx); ok {
		v.Account = &claims
	}
	if v.Form == nil {
		v.Form = validation.Values{}
	}
	if h.inventory != nil {
		nav, err := h.inventory.Classifications(ctx)
		if err != nil {
			h.logger.Warn(ctx, "loading navigation failed", "error", err)
		}
		v.Nav = nav
	}
	v.Messages = flash.FromContext(ctx).DrainAll()

	if err := h.renderer.Render(w, status, v); err != nil {
		h.logger.Error(ctx, "rendering view failed", "view", v.Name, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *Handler) renderServerError(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusInternalServerError, View{Name: "error", Title: "Server Error", Data: msgServerError})
}

func (h *Handler) notFound(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusNotFound, View{Name: "error", Title: "404", Data: msgPageNotFound})
}

// formatMoney renders 25999.5 as "$25,999.50".
func formatMoney(v float64) string {
	cents := int64(math.Round(v * 100))
	sign := ""
	if cents < 0 {
		sign, cents = "-", -cents
	}
	return fmt.Sprintf("%s$%s.%02d", sign, group(cents/100), cents%100)
}

// formatNumber renders 12345 as "12,345".
func formatNumber(n int) string {
	if n < 0 {
		return "-" + group(int64(-n))
	}
	return group(int64(n))
}

func group(n int64) string {
	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	head := len(s) % 3
	if head > 0 {
		b.WriteString(s[:head])
	}
	for i := head; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
