package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/liamwears/kinocatalog/internal/catalog"
	"github.com/liamwears/kinocatalog/internal/middleware"
)

// maxBodyBytes caps JSON request bodies
const maxBodyBytes = 64 << 10

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// decodeJSON reads a JSON body into dst. An empty body leaves dst untouched.
func decodeJSON(r *http.Request, dst any) error {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(dst)
	if err == io.EOF {
		return nil
	}
	return err
}

// session returns the request's session or writes a 500 when the client
// middleware did not run.
func session(w http.ResponseWriter, r *http.Request) (*catalog.Session, bool) {
	s, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "No session")
		return nil, false
	}
	s.Touch()
	return s, true
}
