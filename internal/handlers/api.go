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

// APIHandler exposes the session actions as JSON endpoints
type APIHandler struct {
	logger logrus.FieldLogger
}

// NewAPIHandler creates a new API handler
func NewAPIHandler(logger logrus.FieldLogger) *APIHandler {
	return &APIHandler{logger: logger}
}

// Routes mounts the API endpoints on r
func (h *APIHandler) Routes(r chi.Router) {
	r.Get("/state", h.State)
	r.Put("/search", h.SetQuery)
	r.Delete("/search", h.ClearSearch)
	r.Post("/filters", h.SubmitFilters)
	r.Delete("/filters", h.ResetFilters)
	r.Post("/page", h.RequestPage)
	r.Post("/home", h.Home)
	r.Post("/location", h.Location)
	r.Get("/movies/{id}", h.Movie)
	r.Get("/genres", h.Genres)
	r.Post("/theme/toggle", h.ToggleTheme)
}

// State handles GET /api/state
func (h *APIHandler) State(w http.ResponseWriter, r *http.Request) {
	s, ok := session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot())
}

type queryRequest struct {
	Query string `json:"query"`
}

// SetQuery handles PUT /api/search
func (h *APIHandler) SetQuery(w http.ResponseWriter, r *http.Request) {
	s, ok := session(w, r)
	if !ok {
		return
	}

	var req queryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.SetQuery(req.Query)
	writeJSON(w, http.StatusAccepted, s.Search.State())
}

// ClearSearch handles DELETE /api/search
func (h *APIHandler) ClearSearch(w http.ResponseWriter, r *http.Request) {
	s, ok := session(w, r)
	if !ok {
		return
	}
	s.ClearSearch()
	writeJSON(w, http.StatusOK, s.Search.State())
}

type filtersRequest struct {
	Year   string `json:"year"`
	Genre  string `json:"genre"`
	Rating string `json:"rating"`
}

// SubmitFilters handles POST /api/filters
func (h *APIHandler) SubmitFilters(w http.ResponseWriter, r *http.Request) {
	s, ok := session(w, r)
	if !ok {
		return
	}

	var req filtersRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	writeJSON(w, http.StatusOK, s.SubmitFilters(req.Year, req.Genre, req.Rating))
}

// ResetFilters handles DELETE /api/filters
func (h *APIHandler) ResetFilters(w http.ResponseWriter, r *http.Request) {
	s, ok := session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.ResetFilters())
}

type pageRequest struct {
	Page int `json:"page"`
}

// RequestPage handles POST /api/page
func (h *APIHandler) RequestPage(w http.ResponseWriter, r *http.Request) {
	s, ok := session(w, r)
	if !ok {
		return
	}

	var req pageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	nav, err := s.RequestPage(req.Page)
	if errors.Is(err, catalog.ErrInvalidPage) {
		writeError(w, http.StatusUnprocessableEntity, "Page out of range")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to change page")
		return
	}

	writeJSON(w, http.StatusOK, nav)
}

// Home handles POST /api/home, the logo click
func (h *APIHandler) Home(w http.ResponseWriter, r *http.Request) {
	s, ok := session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.LogoClick())
}

// Location handles POST /api/location, sent when the browser moves through
// its history.
func (h *APIHandler) Location(w http.ResponseWriter, r *http.Request) {
	s, ok := session(w, r)
	if !ok {
		return
	}

	var req queryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	applied := s.Sync(req.Query)
	writeJSON(w, http.StatusOK, map[string]any{
		"applied": applied,
		"page":    s.Search.State().CurrentPage,
	})
}

// Movie handles GET /api/movies/{id}
func (h *APIHandler) Movie(w http.ResponseWriter, r *http.Request) {
	s, ok := session(w, r)
	if !ok {
		return
	}

	movieID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || movieID <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid movie ID")
		return
	}

	detail, err := s.LoadDetail(r.Context(), movieID)
	if err != nil {
		h.logger.WithError(err).WithField("movie_id", movieID).Error("Failed to load movie")
		status := http.StatusInternalServerError
		if errors.Is(err, services.ErrUpstream) {
			status = http.StatusBadGateway
		}
		writeError(w, status, "Failed to load movie")
		return
	}

	writeJSON(w, http.StatusOK, detail)
}

// Genres handles GET /api/genres
func (h *APIHandler) Genres(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.Genres)
}

// ToggleTheme handles POST /api/theme/toggle
func (h *APIHandler) ToggleTheme(w http.ResponseWriter, r *http.Request) {
	s, ok := session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]models.Theme{"theme": s.ToggleTheme()})
}
