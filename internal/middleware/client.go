package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/liamwears/kinocatalog/internal/catalog"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// SessionContextKey is the key for storing the client's session in context
	SessionContextKey ContextKey = "session"
	// ClientIDContextKey is the key for storing the client ID in context
	ClientIDContextKey ContextKey = "clientID"
)

// DefaultClientCookie names the cookie carrying the client id
const DefaultClientCookie = "kinocatalog_client"

const clientCookieMaxAge = 365 * 24 * 60 * 60

// SessionProvider returns the session of a client, creating it on first use
type SessionProvider interface {
	Get(ctx context.Context, id uuid.UUID) (*catalog.Session, error)
}

// ClientMiddleware identifies the browser client by cookie and attaches its
// session to the request.
type ClientMiddleware struct {
	sessions     SessionProvider
	cookieName   string
	isProduction bool
	logger       logrus.FieldLogger
}

// NewClientMiddleware creates a new client identity middleware
func NewClientMiddleware(sessions SessionProvider, cookieName string, isProduction bool, logger logrus.FieldLogger) *ClientMiddleware {
	if cookieName == "" {
		cookieName = DefaultClientCookie
	}
	return &ClientMiddleware{
		sessions:     sessions,
		cookieName:   cookieName,
		isProduction: isProduction,
		logger:       logger,
	}
}

// Identify resolves the client id from the cookie, issuing a fresh one when
// the cookie is missing or malformed, and stores the session in context.
func (m *ClientMiddleware) Identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID, ok := m.clientID(r)
		if !ok {
			clientID = uuid.New()
			m.SetClientCookie(w, clientID)
		}

		session, err := m.sessions.Get(r.Context(), clientID)
		if err != nil {
			m.logger.WithError(err).WithField("client_id", clientID.String()).Error("Failed to open session")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":"Session unavailable"}`))
			return
		}

		ctx := context.WithValue(r.Context(), SessionContextKey, session)
		ctx = context.WithValue(ctx, ClientIDContextKey, clientID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *ClientMiddleware) clientID(r *http.Request) (uuid.UUID, bool) {
	cookie, err := r.Cookie(m.cookieName)
	if err != nil {
		return uuid.Nil, false
	}
	id, err := catalog.ParseClientID(cookie.Value)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

// SessionFromContext retrieves the client's session from request context
func SessionFromContext(ctx context.Context) (*catalog.Session, bool) {
	session, ok := ctx.Value(SessionContextKey).(*catalog.Session)
	return session, ok
}

// ClientIDFromContext retrieves the client ID from request context
func ClientIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(ClientIDContextKey).(uuid.UUID)
	return id, ok
}

// SetClientCookie sets the client id cookie
func (m *ClientMiddleware) SetClientCookie(w http.ResponseWriter, id uuid.UUID) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    id.String(),
		Path:     "/",
		MaxAge:   clientCookieMaxAge,
		HttpOnly: true,
		Secure:   m.isProduction,
		SameSite: http.SameSiteLaxMode,
	})
}
