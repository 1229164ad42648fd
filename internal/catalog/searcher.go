package catalog

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/liamwears/kinocatalog/internal/metrics"
	"github.com/liamwears/kinocatalog/internal/store"
)

// DefaultDebounce is the quiet period before a query is sent
const DefaultDebounce = 300 * time.Millisecond

const searchFailedMessage = "Search failed."

// Searcher turns query changes into debounced TMDB searches.
//
// Every query change starts a new generation: the pending timer is stopped
// and the in-flight request, if any, is cancelled. A response is written back
// only while the store still holds the exact query it was issued for.
//
// Store writes happen without holding mu, since they notify onState
// synchronously.
type Searcher struct {
	search *store.SearchStore
	source MovieSource
	delay  time.Duration
	logger logrus.FieldLogger
	status *store.Cell[Status]

	mu          sync.Mutex
	primed      bool
	lastQuery   string
	gen         uint64
	timer       *time.Timer
	cancel      context.CancelFunc
	stopped     bool
	unsubscribe func()
	wg          sync.WaitGroup
}

func NewSearcher(search *store.SearchStore, source MovieSource, delay time.Duration, logger logrus.FieldLogger) *Searcher {
	if delay < 0 {
		delay = DefaultDebounce
	}
	return &Searcher{
		search: search,
		source: source,
		delay:  delay,
		logger: logger.WithField("pipeline", "search"),
		status: store.NewCell(Status{}),
	}
}

// Start subscribes to the store and reacts to the current query
func (s *Searcher) Start() {
	unsubscribe := s.search.Subscribe(s.onState)
	s.mu.Lock()
	s.unsubscribe = unsubscribe
	s.mu.Unlock()
	s.onState(s.search.State())
}

// Stop cancels the pending timer and any in-flight request and waits for a
// running search to return.
func (s *Searcher) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.gen++
	s.resetLocked()
	unsubscribe := s.unsubscribe
	s.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	s.wg.Wait()
}

// Status returns the loading/error cell
func (s *Searcher) Status() *store.Cell[Status] {
	return s.status
}

func (s *Searcher) onState(st store.SearchState) {
	s.mu.Lock()
	if s.stopped || (s.primed && st.Query == s.lastQuery) {
		s.mu.Unlock()
		return
	}
	s.primed = true
	s.lastQuery = st.Query
	s.gen++
	s.resetLocked()

	query := strings.TrimSpace(st.Query)
	if query != "" {
		gen, raw := s.gen, st.Query
		s.wg.Add(1)
		s.timer = time.AfterFunc(s.delay, func() {
			defer s.wg.Done()
			s.fire(gen, raw, query)
		})
		s.mu.Unlock()
		return
	}
	s.status.Set(Status{})
	s.mu.Unlock()

	if len(st.Results) > 0 {
		s.search.SetResultsFor(st.Query, nil)
	}
}

func (s *Searcher) fire(gen uint64, raw, query string) {
	s.mu.Lock()
	if s.stopped || gen != s.gen {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.status.Set(Status{Loading: true})
	s.mu.Unlock()
	defer cancel()

	page, err := s.source.Search(ctx, query, 1)

	s.mu.Lock()
	if s.stopped || gen != s.gen || ctx.Err() != nil {
		s.mu.Unlock()
		metrics.StaleResponsesTotal.WithLabelValues("search").Inc()
		return
	}
	s.cancel = nil
	if err != nil {
		s.status.Set(Status{Error: searchFailedMessage})
	} else {
		s.status.Set(Status{})
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.WithError(err).WithField("query", query).Warn("Search request failed")
		s.search.SetResultsFor(raw, nil)
		return
	}

	if !s.search.SetResultsFor(raw, page.Results) {
		metrics.StaleResponsesTotal.WithLabelValues("search").Inc()
	}
}

// resetLocked drops the pending timer and cancels the in-flight request
func (s *Searcher) resetLocked() {
	if s.timer != nil {
		if s.timer.Stop() {
			s.wg.Done()
		}
		s.timer = nil
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}
