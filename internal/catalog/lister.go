package catalog

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/liamwears/kinocatalog/internal/metrics"
	"github.com/liamwears/kinocatalog/internal/models"
	"github.com/liamwears/kinocatalog/internal/store"
)

const listingFailedMessage = "Failed to load filtered movies."

// Lister fetches the discover listing whenever the filter set or the current
// page changes. Nothing is requested while every filter field is empty.
type Lister struct {
	search   *store.SearchStore
	source   MovieSource
	maxPages int
	logger   logrus.FieldLogger
	status   *store.Cell[Status]

	mu          sync.Mutex
	primed      bool
	lastFilters models.FilterSet
	lastPage    int
	gen         uint64
	cancel      context.CancelFunc
	stopped     bool
	unsubscribe func()
	wg          sync.WaitGroup
}

func NewLister(search *store.SearchStore, source MovieSource, maxPages int, logger logrus.FieldLogger) *Lister {
	if maxPages < 1 {
		maxPages = DefaultMaxPages
	}
	return &Lister{
		search:   search,
		source:   source,
		maxPages: maxPages,
		logger:   logger.WithField("pipeline", "listing"),
		status:   store.NewCell(Status{}),
	}
}

func (l *Lister) Start() {
	unsubscribe := l.search.Subscribe(l.onState)
	l.mu.Lock()
	l.unsubscribe = unsubscribe
	l.mu.Unlock()
	l.onState(l.search.State())
}

// Stop cancels the in-flight request and waits for its goroutine to exit
func (l *Lister) Stop() {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return
	}
	l.stopped = true
	l.gen++
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	unsubscribe := l.unsubscribe
	l.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	l.wg.Wait()
}

func (l *Lister) Status() *store.Cell[Status] {
	return l.status
}

func (l *Lister) onState(st store.SearchState) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.stopped || (l.primed && st.Filters == l.lastFilters && st.CurrentPage == l.lastPage) {
		return
	}
	l.primed = true
	l.lastFilters = st.Filters
	l.lastPage = st.CurrentPage
	l.gen++
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}

	if st.Filters.IsEmpty() {
		l.status.Set(Status{})
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel
	l.status.Set(Status{Loading: true})

	l.wg.Add(1)
	go l.fetch(ctx, cancel, l.gen, st.Filters, st.CurrentPage)
}

func (l *Lister) fetch(ctx context.Context, cancel context.CancelFunc, gen uint64, filters models.FilterSet, page int) {
	defer l.wg.Done()
	defer cancel()

	result, err := l.source.Discover(ctx, filters, page)

	l.mu.Lock()
	if l.stopped || gen != l.gen || ctx.Err() != nil {
		l.mu.Unlock()
		metrics.StaleResponsesTotal.WithLabelValues("listing").Inc()
		return
	}
	l.cancel = nil
	if err != nil {
		l.status.Set(Status{Error: listingFailedMessage})
	} else {
		l.status.Set(Status{})
	}
	l.mu.Unlock()

	if err != nil {
		l.logger.WithError(err).WithFields(logrus.Fields{
			"year":   filters.Year,
			"genre":  filters.Genre,
			"rating": filters.Rating,
			"page":   page,
		}).Error("Filtered listing request failed")
		l.search.SetListingFor(filters, page, nil, 0)
		return
	}

	if !l.search.SetListingFor(filters, page, result.Results, capPages(result.TotalPages, l.maxPages)) {
		metrics.StaleResponsesTotal.WithLabelValues("listing").Inc()
	}
}
