package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liamwears/kinocatalog/internal/catalog"
)

type stubProvider struct {
	err  error
	seen []uuid.UUID
}

func (s *stubProvider) Get(_ context.Context, id uuid.UUID) (*catalog.Session, error) {
	s.seen = append(s.seen, id)
	if s.err != nil {
		return nil, s.err
	}
	return &catalog.Session{ID: id}, nil
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestIdentifyIssuesCookie(t *testing.T) {
	provider := &stubProvider{}
	m := NewClientMiddleware(provider, "", false, quietLogger())

	var fromCtx uuid.UUID
	h := m.Identify(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, ok := SessionFromContext(r.Context())
		require.True(t, ok)
		fromCtx, _ = ClientIDFromContext(r.Context())
		assert.Equal(t, fromCtx, session.ID)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, DefaultClientCookie, cookies[0].Name)
	assert.Equal(t, fromCtx.String(), cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)
}

func TestIdentifyReusesCookie(t *testing.T) {
	provider := &stubProvider{}
	m := NewClientMiddleware(provider, "", true, quietLogger())
	id := uuid.New()

	h := m.Identify(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: DefaultClientCookie, Value: id.String()})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Empty(t, rec.Result().Cookies())
	assert.Equal(t, []uuid.UUID{id}, provider.seen)
}

func TestIdentifyReplacesMalformedCookie(t *testing.T) {
	provider := &stubProvider{}
	m := NewClientMiddleware(provider, "", true, quietLogger())

	h := m.Identify(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: DefaultClientCookie, Value: "../../etc/passwd"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.True(t, cookies[0].Secure)
	_, err := uuid.Parse(cookies[0].Value)
	assert.NoError(t, err)
}

func TestIdentifySessionFailure(t *testing.T) {
	m := NewClientMiddleware(&stubProvider{err: errors.New("disk gone")}, "", false, quietLogger())
	called := false
	h := m.Identify(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.False(t, called)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRateLimiterDisabledWithoutRedis(t *testing.T) {
	rl := NewRateLimiter(nil, 1, 0, true, quietLogger())
	h := rl.Limit(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) }))

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/state", nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	}
}

func TestRateLimiterIdentifier(t *testing.T) {
	rl := NewRateLimiter(nil, 1, 0, false, quietLogger())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:5000"
	assert.Equal(t, "ip:10.0.0.1:5000", rl.identifier(req))

	id := uuid.New()
	req = req.WithContext(context.WithValue(req.Context(), ClientIDContextKey, id))
	assert.Equal(t, "client:"+id.String(), rl.identifier(req))
}

func TestLoggerUsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Logger(quietLogger()))
	var pattern string
	r.Get("/movie/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	r.Get("/probe", func(w http.ResponseWriter, r *http.Request) {
		pattern = routePattern(r)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/movie/42", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/probe", nil))
	assert.Equal(t, "/probe", pattern)
}
