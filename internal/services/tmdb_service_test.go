package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liamwears/kinocatalog/internal/models"
)

type recorded struct {
	path  string
	query url.Values
	auth  string
}

func newTestServer(t *testing.T, status int, payload any) (*httptest.Server, *[]recorded) {
	t.Helper()
	var calls []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, recorded{path: r.URL.Path, query: r.URL.Query(), auth: r.Header.Get("Authorization")})
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(payload)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func newTestService(baseURL string) *TMDBService {
	return NewTMDBService(TMDBConfig{
		APIKey:       "secret",
		BaseURL:      baseURL,
		ImageBaseURL: "https://img.example/w500",
		Language:     "ru-RU",
		Client:       http.DefaultClient,
	})
}

func TestSearchSendsQueryLanguageAndKey(t *testing.T) {
	srv, calls := newTestServer(t, http.StatusOK, map[string]any{
		"page":        1,
		"total_pages": 3,
		"results":     []map[string]any{{"id": 1, "title": "Alien", "vote_average": 8.1}},
	})

	page, err := newTestService(srv.URL).Search(context.Background(), "alien", 0)
	require.NoError(t, err)

	require.Len(t, *calls, 1)
	call := (*calls)[0]
	assert.Equal(t, "/search/movie", call.path)
	assert.Equal(t, "alien", call.query.Get("query"))
	assert.Equal(t, "1", call.query.Get("page"))
	assert.Equal(t, "ru-RU", call.query.Get("language"))
	assert.Equal(t, "secret", call.query.Get("api_key"))
	assert.Empty(t, call.auth)

	assert.Equal(t, 3, page.TotalPages)
	require.Len(t, page.Results, 1)
	require.NotNil(t, page.Results[0].VoteAverage)
	assert.InDelta(t, 8.1, *page.Results[0].VoteAverage, 0.001)
}

func TestDiscoverOnlySendsActiveFilters(t *testing.T) {
	srv, calls := newTestServer(t, http.StatusOK, map[string]any{"page": 2, "total_pages": 500})

	page, err := newTestService(srv.URL).Discover(context.Background(), models.FilterSet{Year: "2020", Rating: "7.5"}, 2)
	require.NoError(t, err)
	assert.NotNil(t, page.Results)

	q := (*calls)[0].query
	assert.Equal(t, "/discover/movie", (*calls)[0].path)
	assert.Equal(t, "2020", q.Get("primary_release_year"))
	assert.Equal(t, "7.5", q.Get("vote_average.gte"))
	assert.Equal(t, "popularity.desc", q.Get("sort_by"))
	assert.Equal(t, "2", q.Get("page"))
	_, hasGenre := q["with_genres"]
	assert.False(t, hasGenre)
}

func TestReadTokenUsesBearer(t *testing.T) {
	srv, calls := newTestServer(t, http.StatusOK, map[string]any{"results": []any{}})

	svc := NewTMDBService(TMDBConfig{ReadToken: "tok", BaseURL: srv.URL, Client: http.DefaultClient})
	_, err := svc.Popular(context.Background(), 4)
	require.NoError(t, err)

	call := (*calls)[0]
	assert.Equal(t, "/movie/popular", call.path)
	assert.Equal(t, "Bearer tok", call.auth)
	assert.Empty(t, call.query.Get("api_key"))
	assert.Equal(t, "en-US", call.query.Get("language"))
}

func TestDetailsVideosSimilar(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/movie/7", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":7,"title":"Seven","runtime":127,"genres":[{"id":80,"name":"Crime"}]}`))
	})
	mux.HandleFunc("/movie/7/videos", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":7,"results":[{"key":"abc","site":"YouTube","type":"Trailer"}]}`))
	})
	mux.HandleFunc("/movie/7/similar", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("page"))
		_, _ = w.Write([]byte(`{"page":1,"total_pages":1,"results":[{"id":8,"title":"Zodiac"}]}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	svc := newTestService(srv.URL)
	ctx := context.Background()

	detail, err := svc.Details(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "Seven", detail.Title)
	assert.Equal(t, 127, detail.Runtime)
	assert.Nil(t, detail.VoteAverage)

	videos, err := svc.Videos(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "abc", videos[0].Key)

	similar, err := svc.Similar(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 8, similar.Results[0].ID)
}

func TestUpstreamErrorIsWrapped(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusUnauthorized, map[string]any{"status_message": "Invalid API key"})

	_, err := newTestService(srv.URL).Popular(context.Background(), 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUpstream)
	assert.Contains(t, err.Error(), "401")
}

func TestTransportErrorIsWrapped(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	_, err := newTestService(srv.URL).Search(context.Background(), "x", 1)
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestImageURL(t *testing.T) {
	svc := newTestService("http://unused")
	assert.Equal(t, "", svc.ImageURL(""))
	assert.Equal(t, "https://img.example/w500/p.jpg", svc.ImageURL("/p.jpg"))
}
