package catalog

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/liamwears/kinocatalog/internal/metrics"
	"github.com/liamwears/kinocatalog/internal/store"
)

// DefaultIdleTTL is how long an unused session is kept in memory
const DefaultIdleTTL = 2 * time.Hour

// ErrClosed is returned by Get after Close
var ErrClosed = errors.New("sessions closed")

// Sessions is the registry of live sessions keyed by client id
type Sessions struct {
	source  MovieSource
	backend store.Backend
	opts    Options
	idleTTL time.Duration
	logger  logrus.FieldLogger

	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
	closed   bool
}

func NewSessions(source MovieSource, backend store.Backend, opts Options, idleTTL time.Duration, logger logrus.FieldLogger) *Sessions {
	if idleTTL <= 0 {
		idleTTL = DefaultIdleTTL
	}
	return &Sessions{
		source:   source,
		backend:  backend,
		opts:     opts,
		idleTTL:  idleTTL,
		logger:   logger.WithField("component", "sessions"),
		sessions: make(map[uuid.UUID]*Session),
	}
}

// Get returns the session of id, creating and restoring it on first use.
// Restoring runs without the registry lock; when two requests race to create
// the same session the later one is discarded.
func (r *Sessions) Get(ctx context.Context, id uuid.UUID) (*Session, error) {
	if s, ok, err := r.lookup(id); ok || err != nil {
		return s, err
	}

	created, err := NewSession(ctx, id, r.source, r.backend, r.opts, r.logger)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		created.Close()
		return nil, ErrClosed
	}
	if s, ok := r.sessions[id]; ok {
		r.mu.Unlock()
		created.Close()
		s.Touch()
		return s, nil
	}
	r.sessions[id] = created
	metrics.ActiveSessions.Set(float64(len(r.sessions)))
	r.mu.Unlock()

	r.logger.WithField("client_id", id.String()).Debug("Session created")
	return created, nil
}

func (r *Sessions) lookup(id uuid.UUID) (*Session, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, false, ErrClosed
	}
	s, ok := r.sessions[id]
	if ok {
		s.Touch()
	}
	return s, ok, nil
}

func (r *Sessions) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Run evicts idle sessions until ctx is done
func (r *Sessions) Run(ctx context.Context) {
	interval := r.idleTTL / 4
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := r.Evict(now); n > 0 {
				r.logger.WithField("evicted", n).Info("Evicted idle sessions")
			}
		}
	}
}

// Evict closes every session idle for longer than the TTL and returns how
// many were removed.
func (r *Sessions) Evict(now time.Time) int {
	r.mu.Lock()
	var idle []*Session
	for id, s := range r.sessions {
		if s.IdleSince(now) > r.idleTTL {
			idle = append(idle, s)
			delete(r.sessions, id)
		}
	}
	metrics.ActiveSessions.Set(float64(len(r.sessions)))
	r.mu.Unlock()

	for _, s := range idle {
		s.Close()
	}
	return len(idle)
}

// Close shuts down every session. Later calls to Get fail.
func (r *Sessions) Close() {
	r.mu.Lock()
	r.closed = true
	all := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		all = append(all, s)
	}
	r.sessions = make(map[uuid.UUID]*Session)
	metrics.ActiveSessions.Set(0)
	r.mu.Unlock()

	for _, s := range all {
		s.Close()
	}
}
