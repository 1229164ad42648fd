package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/liamwears/kinocatalog/internal/catalog"
	"github.com/liamwears/kinocatalog/internal/models"
	"github.com/liamwears/kinocatalog/internal/services"
)

// PageHandler handles page rendering
type PageHandler struct {
	renderer *Renderer
	logger   logrus.FieldLogger
}

// NewPageHandler creates a new page handler
func NewPageHandler(renderer *Renderer, logger logrus.FieldLogger) *PageHandler {
	return &PageHandler{
		renderer: renderer,
		logger:   logger,
	}
}

// pageData is shared by every page
type pageData struct {
	ActivePage string
	Theme      models.Theme
	Favorites  map[int]bool
	Snapshot   catalog.Snapshot
}

func newPageData(active string, s *catalog.Session) pageData {
	snap := s.Snapshot()
	favorites := make(map[int]bool, len(snap.Favorites))
	for _, m := range snap.Favorites {
		favorites[m.ID] = true
	}
	return pageData{
		ActivePage: active,
		Theme:      snap.Theme,
		Favorites:  favorites,
		Snapshot:   snap,
	}
}

type homeData struct {
	pageData
	View   catalog.View
	Search string
	Filter models.FilterSet
	Genres []models.GenreOption
}

// Home handles GET /
func (h *PageHandler) Home(w http.ResponseWriter, r *http.Request) {
	s, ok := session(w, r)
	if !ok {
		return
	}

	s.Sync(r.URL.RawQuery)

	base := newPageData("home", s)
	data := homeData{
		pageData: base,
		View:     base.Snapshot.View,
		Search:   base.Snapshot.Search.Query,
		Filter:   base.Snapshot.Search.Filters,
		Genres:   models.Genres,
	}

	h.renderer.RenderPage(w, http.StatusOK, "home.html", data)
}

type movieData struct {
	pageData
	Detail *catalog.Detail
}

// Movie handles GET /movie/{id}
func (h *PageHandler) Movie(w http.ResponseWriter, r *http.Request) {
	s, ok := session(w, r)
	if !ok {
		return
	}

	movieID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || movieID <= 0 {
		h.renderError(w, http.StatusNotFound, s, "Movie not found")
		return
	}

	detail, err := s.LoadDetail(r.Context(), movieID)
	if err != nil {
		h.logger.WithError(err).WithField("movie_id", movieID).Error("Failed to load movie")
		status := http.StatusInternalServerError
		if errors.Is(err, services.ErrUpstream) {
			status = http.StatusBadGateway
		}
		h.renderError(w, status, s, "Failed to load movie")
		return
	}

	h.renderer.RenderPage(w, http.StatusOK, "movie.html", movieData{
		pageData: newPageData("movie", s),
		Detail:   detail,
	})
}

// Favorites handles GET /favorites
func (h *PageHandler) Favorites(w http.ResponseWriter, r *http.Request) {
	s, ok := session(w, r)
	if !ok {
		return
	}
	h.renderer.RenderPage(w, http.StatusOK, "favorites.html", newPageData("favorites", s))
}

// About handles GET /about
func (h *PageHandler) About(w http.ResponseWriter, r *http.Request) {
	s, ok := session(w, r)
	if !ok {
		return
	}
	h.renderer.RenderPage(w, http.StatusOK, "about.html", newPageData("about", s))
}

// NotFound renders the 404 page
func (h *PageHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	s, ok := session(w, r)
	if !ok {
		return
	}
	h.renderError(w, http.StatusNotFound, s, "Page not found")
}

type errorData struct {
	pageData
	Message string
}

func (h *PageHandler) renderError(w http.ResponseWriter, status int, s *catalog.Session, message string) {
	h.renderer.RenderPage(w, status, "error.html", errorData{
		pageData: newPageData("error", s),
		Message:  message,
	})
}
