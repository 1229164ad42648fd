package handlers

import (
	"bytes"
	"embed"
	"encoding/json"
	"html/template"
	"io"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/liamwears/kinocatalog/internal/models"
)

//go:embed templates/*
var templatesFS embed.FS

// ImageURLFunc turns a TMDB poster path into an absolute URL
type ImageURLFunc func(path string) string

// Renderer handles template rendering
type Renderer struct {
	funcs  template.FuncMap
	pages  map[string]*template.Template
	logger logrus.FieldLogger
}

// pageTemplates are rendered inside layout.html
var pageTemplates = []string{"home.html", "movie.html", "favorites.html", "about.html", "error.html"}

// NewRenderer parses every page together with the layout up front
func NewRenderer(imageURL ImageURLFunc, logger logrus.FieldLogger) (*Renderer, error) {
	funcMap := template.FuncMap{
		"add": func(a, b int) int { return a + b },
		"sub": func(a, b int) int { return a - b },
		"toJSON": func(v any) template.JS {
			b, _ := json.Marshal(v)
			return template.JS(b)
		},
		"posterURL":     func(path string) string { return imageURL(path) },
		"imageBase":     func() string { return strings.TrimSuffix(imageURL("/"), "/") },
		"ratingClass":   models.RatingClass,
		"formatRating":  models.FormatRating,
		"formatRuntime": models.FormatRuntime,
		"trailerURL":    models.TrailerURL,
	}

	r := &Renderer{
		funcs:  funcMap,
		pages:  make(map[string]*template.Template, len(pageTemplates)),
		logger: logger,
	}

	// Each page gets its own set so blocks with the same name do not clash
	for _, name := range pageTemplates {
		tmpl, err := template.New(name).Funcs(funcMap).ParseFS(templatesFS, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, err
		}
		r.pages[name] = tmpl
	}

	return r, nil
}

// Render renders a page template with data
func (r *Renderer) Render(w io.Writer, name string, data any) error {
	tmpl, ok := r.pages[name]
	if !ok {
		return &template.Error{ErrorCode: template.ErrNoSuchTemplate, Name: name, Description: "unknown page"}
	}
	return tmpl.ExecuteTemplate(w, name, data)
}

// RenderPage renders a page template and handles errors. Output is buffered
// so a failing template never leaves a half-written page.
func (r *Renderer) RenderPage(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := r.Render(&buf, name, data); err != nil {
		r.logger.WithError(err).WithField("template", name).Error("Failed to render template")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
