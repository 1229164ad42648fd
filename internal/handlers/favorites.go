package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/liamwears/kinocatalog/internal/models"
)

// FavoritesHandler handles the favorites list of a client
type FavoritesHandler struct {
	logger logrus.FieldLogger
}

// NewFavoritesHandler creates a new favorites handler
func NewFavoritesHandler(logger logrus.FieldLogger) *FavoritesHandler {
	return &FavoritesHandler{logger: logger}
}

// Routes mounts the favorites endpoints on r
func (h *FavoritesHandler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Put("/{id}", h.Add)
	r.Delete("/{id}", h.Remove)
	r.Post("/{id}/toggle", h.Toggle)
}

// List handles GET /api/favorites
func (h *FavoritesHandler) List(w http.ResponseWriter, r *http.Request) {
	s, ok := session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.Favorites.List())
}

// Add handles PUT /api/favorites/{id}. The body is the movie to store.
func (h *FavoritesHandler) Add(w http.ResponseWriter, r *http.Request) {
	s, ok := session(w, r)
	if !ok {
		return
	}

	movie, ok := h.movieFromRequest(w, r)
	if !ok {
		return
	}

	s.Favorites.Add(movie)
	writeJSON(w, http.StatusOK, s.Favorites.List())
}

// Remove handles DELETE /api/favorites/{id}
func (h *FavoritesHandler) Remove(w http.ResponseWriter, r *http.Request) {
	s, ok := session(w, r)
	if !ok {
		return
	}

	movieID, ok := parseMovieID(w, r)
	if !ok {
		return
	}

	s.Favorites.Remove(movieID)
	writeJSON(w, http.StatusOK, s.Favorites.List())
}

// Toggle handles POST /api/favorites/{id}/toggle
func (h *FavoritesHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	s, ok := session(w, r)
	if !ok {
		return
	}

	movie, ok := h.movieFromRequest(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"favorite": s.ToggleFavorite(movie)})
}

func (h *FavoritesHandler) movieFromRequest(w http.ResponseWriter, r *http.Request) (models.Movie, bool) {
	movieID, ok := parseMovieID(w, r)
	if !ok {
		return models.Movie{}, false
	}

	var movie models.Movie
	if err := decodeJSON(r, &movie); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return models.Movie{}, false
	}
	if movie.ID != 0 && movie.ID != movieID {
		writeError(w, http.StatusBadRequest, "Movie ID mismatch")
		return models.Movie{}, false
	}
	movie.ID = movieID
	return movie, true
}

func parseMovieID(w http.ResponseWriter, r *http.Request) (int, bool) {
	movieID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || movieID <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid movie ID")
		return 0, false
	}
	return movieID, true
}
