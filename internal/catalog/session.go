package catalog

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/liamwears/kinocatalog/internal/models"
	"github.com/liamwears/kinocatalog/internal/store"
)

// Event types pushed to watchers
const (
	EventSearch    = "search"
	EventStatus    = "status"
	EventFavorites = "favorites"
	EventTheme     = "theme"
	EventPopular   = "popular"
	EventAddress   = "address"
)

// Headings and empty-state messages of the home listing
const (
	HeadingResults = "Results"
	HeadingPopular = "Popular movies"
	EmptyResults   = "No movies found"
	EmptyPopular   = "No movies to show"
)

// Event is one state change of a session
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Statuses groups the loading/error indicators of the request pipelines
type Statuses struct {
	Search  Status `json:"search"`
	Listing Status `json:"listing"`
}

// View is what the home page renders, derived from the raw state
type View struct {
	Heading    string         `json:"heading"`
	Active     bool           `json:"active"`
	Movies     []models.Movie `json:"movies"`
	Loading    bool           `json:"loading"`
	Error      string         `json:"error,omitempty"`
	Empty      string         `json:"empty,omitempty"`
	Pagination PageWindow     `json:"pagination"`
}

// Snapshot is the full state of a session at one point in time
type Snapshot struct {
	ClientID  string            `json:"clientId"`
	Search    store.SearchState `json:"search"`
	Popular   PopularState      `json:"popular"`
	Status    Statuses          `json:"status"`
	Favorites []models.Movie    `json:"favorites"`
	Theme     models.Theme      `json:"theme"`
	Address   string            `json:"address"`
	View      View              `json:"view"`
}

// Options tunes the pipelines of a session
type Options struct {
	MaxPages int
	Debounce time.Duration
}

// Session bundles the stores and pipelines of one browser client
type Session struct {
	ID        uuid.UUID
	Search    *store.SearchStore
	Favorites *store.FavoritesStore
	Theme     *store.ThemeStore

	source    MovieSource
	searcher  *Searcher
	lister    *Lister
	popular   *PopularFeed
	navigator *Navigator
	logger    logrus.FieldLogger

	lastSeen atomic.Int64
	watchers atomic.Int32

	closeOnce sync.Once
	detach    []func()
}

// NewSession creates a session, restores its persisted favorites and theme
// from backend and starts its pipelines.
func NewSession(ctx context.Context, id uuid.UUID, source MovieSource, backend store.Backend, opts Options, logger logrus.FieldLogger) (*Session, error) {
	if opts.MaxPages < 1 {
		opts.MaxPages = DefaultMaxPages
	}
	logger = logger.WithField("client_id", id.String())

	s := &Session{
		ID:        id,
		Search:    store.NewSearchStore(),
		Favorites: store.NewFavoritesStore(),
		Theme:     store.NewThemeStore(),
		source:    source,
		logger:    logger,
	}

	if backend != nil {
		detachFavorites, err := store.Bind(ctx, s.Favorites.Cell(), backend, StorageKey(store.FavoritesKey, id), logger)
		if err != nil {
			return nil, fmt.Errorf("failed to restore favorites: %w", err)
		}
		detachTheme, err := store.Bind(ctx, s.Theme.Cell(), backend, StorageKey(store.ThemeKey, id), logger)
		if err != nil {
			detachFavorites()
			return nil, fmt.Errorf("failed to restore theme: %w", err)
		}
		s.detach = append(s.detach, detachFavorites, detachTheme)
	}

	s.searcher = NewSearcher(s.Search, source, opts.Debounce, logger)
	s.lister = NewLister(s.Search, source, opts.MaxPages, logger)
	s.popular = NewPopularFeed(s.Search, source, opts.MaxPages, logger)
	s.navigator = NewNavigator(s.Search, s.popular, opts.MaxPages)

	s.searcher.Start()
	s.lister.Start()
	s.popular.Start()
	s.Touch()
	return s, nil
}

// StorageKey is the persisted key of a per-client value
func StorageKey(base string, id uuid.UUID) string {
	return base + ":" + id.String()
}

func (s *Session) SetQuery(query string) {
	s.Search.SetQuery(query)
}

func (s *Session) ClearSearch() {
	s.Search.ClearSearch()
}

// SubmitFilters applies the filter form and returns to page 1
func (s *Session) SubmitFilters(year, genre, rating string) Navigation {
	s.Search.SetFilters(models.NewFilterSet(year, genre, rating))
	return s.navigator.Push(1)
}

// ResetFilters empties the filter form, clears the results and returns to page 1
func (s *Session) ResetFilters() Navigation {
	s.Search.SetFilters(models.FilterSet{})
	s.Search.SetResults(nil)
	s.Search.SetCurrentPage(1)
	return s.navigator.Push(1)
}

// LogoClick clears the search and returns to the first page of the popular feed
func (s *Session) LogoClick() Navigation {
	s.Search.ClearSearch()
	return s.navigator.Push(1)
}

func (s *Session) RequestPage(page int) (Navigation, error) {
	return s.navigator.RequestPage(page)
}

// Sync applies an address-bar query string
func (s *Session) Sync(rawQuery string) bool {
	return s.navigator.Sync(rawQuery)
}

// ToggleFavorite flips membership of movie and reports the new membership
func (s *Session) ToggleFavorite(movie models.Movie) bool {
	return s.Favorites.Toggle(movie)
}

func (s *Session) ToggleTheme() models.Theme {
	return s.Theme.Toggle()
}

// LoadDetail loads one movie page
func (s *Session) LoadDetail(ctx context.Context, movieID int) (*Detail, error) {
	return LoadDetail(ctx, s.source, movieID)
}

// Snapshot captures the current state and the derived home view
func (s *Session) Snapshot() Snapshot {
	search := s.Search.State()
	popular := s.popular.State()

	snap := Snapshot{
		ClientID:  s.ID.String(),
		Search:    search,
		Popular:   popular,
		Status:    Statuses{Search: s.searcher.Status().Get(), Listing: s.lister.Status().Get()},
		Favorites: s.Favorites.List(),
		Theme:     s.Theme.Theme(),
		Address:   s.navigator.Address().Get(),
	}
	snap.View = deriveView(search, popular, snap.Status)
	return snap
}

// deriveView builds the home view. While a query or filter is active the
// loading and error flags come from the search and listing pipelines,
// otherwise from the popular feed.
func deriveView(search store.SearchState, popular PopularState, statuses Statuses) View {
	v := View{
		Active:  search.Active(),
		Loading: popular.Loading,
		Error:   popular.Error,
	}
	if v.Active {
		v.Loading, v.Error = false, ""
		if strings.TrimSpace(search.Query) != "" {
			v.Loading = statuses.Search.Loading
			v.Error = statuses.Search.Error
		}
		if !search.Filters.IsEmpty() {
			v.Loading = v.Loading || statuses.Listing.Loading
			if v.Error == "" {
				v.Error = statuses.Listing.Error
			}
		}
	}

	current, total := popular.CurrentPage, popular.TotalPages
	if len(search.Results) > 0 {
		v.Movies = search.Results
		current, total = search.CurrentPage, search.TotalPages
	} else {
		v.Movies = popular.Movies
	}
	if v.Movies == nil {
		v.Movies = []models.Movie{}
	}

	v.Heading = HeadingPopular
	if v.Active {
		v.Heading = HeadingResults
	}
	if !v.Loading && v.Error == "" && len(v.Movies) == 0 {
		v.Empty = EmptyPopular
		if v.Active {
			v.Empty = EmptyResults
		}
	}
	v.Pagination = Window(current, total)
	return v
}

// Watch delivers every state change to fn until the returned function is
// called. fn runs on the goroutine that made the change and must not block.
func (s *Session) Watch(fn func(Event)) func() {
	s.watchers.Add(1)

	statuses := func(Status) {
		fn(Event{Type: EventStatus, Data: Statuses{Search: s.searcher.Status().Get(), Listing: s.lister.Status().Get()}})
	}
	unsubs := []func(){
		s.Search.Subscribe(func(st store.SearchState) { fn(Event{Type: EventSearch, Data: st}) }),
		s.searcher.Status().Subscribe(statuses),
		s.lister.Status().Subscribe(statuses),
		s.Favorites.Subscribe(func(list []models.Movie) { fn(Event{Type: EventFavorites, Data: list}) }),
		s.Theme.Subscribe(func(t models.Theme) { fn(Event{Type: EventTheme, Data: t}) }),
		s.popular.Cell().Subscribe(func(st PopularState) { fn(Event{Type: EventPopular, Data: st}) }),
		s.navigator.Address().Subscribe(func(raw string) { fn(Event{Type: EventAddress, Data: raw}) }),
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			for _, unsubscribe := range unsubs {
				unsubscribe()
			}
			s.watchers.Add(-1)
		})
	}
}

// Touch marks the session as used now
func (s *Session) Touch() {
	s.lastSeen.Store(time.Now().UnixNano())
}

// IdleSince returns how long the session has been unused, or zero while
// anything is watching it.
func (s *Session) IdleSince(now time.Time) time.Duration {
	if s.watchers.Load() > 0 {
		return 0
	}
	return now.Sub(time.Unix(0, s.lastSeen.Load()))
}

// Close stops the pipelines and detaches persistence
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.searcher.Stop()
		s.lister.Stop()
		s.popular.Stop()
		for _, detach := range s.detach {
			detach()
		}
		s.logger.Debug("Session closed")
	})
}

// ParseClientID parses a client id, rejecting anything that is not a UUID
func ParseClientID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid client id: %w", err)
	}
	return id, nil
}
