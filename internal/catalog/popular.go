package catalog

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/liamwears/kinocatalog/internal/metrics"
	"github.com/liamwears/kinocatalog/internal/models"
	"github.com/liamwears/kinocatalog/internal/store"
)

const popularFailedMessage = "Failed to load popular movies."

// PopularState is the independently paginated popular feed shown while no
// query or filter is active.
type PopularState struct {
	Movies      []models.Movie `json:"movies"`
	CurrentPage int            `json:"currentPage"`
	TotalPages  int            `json:"totalPages"`
	Loading     bool           `json:"loading"`
	Error       string         `json:"error,omitempty"`
}

type popularKey struct {
	page    int
	query   string
	filters models.FilterSet
}

// PopularFeed loads /movie/popular for its own page. It re-fetches when the
// page changes or when the search state changes while inactive.
type PopularFeed struct {
	search   *store.SearchStore
	source   MovieSource
	maxPages int
	logger   logrus.FieldLogger
	cell     *store.Cell[PopularState]

	mu          sync.Mutex
	primed      bool
	last        popularKey
	gen         uint64
	cancel      context.CancelFunc
	stopped     bool
	unsubscribe func()
	wg          sync.WaitGroup
}

func NewPopularFeed(search *store.SearchStore, source MovieSource, maxPages int, logger logrus.FieldLogger) *PopularFeed {
	if maxPages < 1 {
		maxPages = DefaultMaxPages
	}
	return &PopularFeed{
		search:   search,
		source:   source,
		maxPages: maxPages,
		logger:   logger.WithField("pipeline", "popular"),
		cell: store.NewCell(PopularState{
			Movies:      []models.Movie{},
			CurrentPage: 1,
			TotalPages:  1,
		}),
	}
}

func (p *PopularFeed) Start() {
	unsubscribe := p.search.Subscribe(func(store.SearchState) { p.evaluate() })
	p.mu.Lock()
	p.unsubscribe = unsubscribe
	p.mu.Unlock()
	p.evaluate()
}

func (p *PopularFeed) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	p.gen++
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	unsubscribe := p.unsubscribe
	p.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	p.wg.Wait()
}

// Cell exposes the feed state for rendering
func (p *PopularFeed) Cell() *store.Cell[PopularState] {
	return p.cell
}

func (p *PopularFeed) State() PopularState {
	return p.cell.Get()
}

// SetPage moves the feed to page and fetches it when the feed is showing
func (p *PopularFeed) SetPage(page int) {
	p.cell.Update(func(st PopularState) PopularState {
		st.CurrentPage = page
		return st
	})
	p.evaluate()
}

func (p *PopularFeed) evaluate() {
	st := p.search.State()
	page := p.cell.Get().CurrentPage
	key := popularKey{page: page, query: st.Query, filters: st.Filters}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped || (p.primed && key == p.last) {
		return
	}
	p.primed = true
	p.last = key
	p.gen++
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}

	if st.Active() {
		p.setLoading(false)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.setLoading(true)

	p.wg.Add(1)
	go p.fetch(ctx, cancel, p.gen, page)
}

func (p *PopularFeed) fetch(ctx context.Context, cancel context.CancelFunc, gen uint64, page int) {
	defer p.wg.Done()
	defer cancel()

	result, err := p.source.Popular(ctx, page)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped || gen != p.gen || ctx.Err() != nil {
		metrics.StaleResponsesTotal.WithLabelValues("popular").Inc()
		return
	}
	p.cancel = nil

	if err != nil {
		p.logger.WithError(err).WithField("page", page).Error("Popular movies request failed")
		p.cell.Update(func(st PopularState) PopularState {
			st.Loading = false
			st.Error = popularFailedMessage
			return st
		})
		return
	}

	movies := result.Results
	if movies == nil {
		movies = []models.Movie{}
	}
	p.cell.Update(func(st PopularState) PopularState {
		st.Movies = movies
		st.TotalPages = capPages(result.TotalPages, p.maxPages)
		st.Loading = false
		st.Error = ""
		return st
	})
}

// setLoading flips the loading flag when it changes. Caller holds mu.
func (p *PopularFeed) setLoading(loading bool) {
	p.cell.UpdateIf(func(st PopularState) (PopularState, bool) {
		if st.Loading == loading {
			return st, false
		}
		st.Loading = loading
		return st, true
	})
}
