package store

import (
	"strings"

	"github.com/liamwears/kinocatalog/internal/models"
)

// SearchState is the query/filter/pagination state of one client
type SearchState struct {
	Query       string           `json:"query"`
	Results     []models.Movie   `json:"results"`
	Filters     models.FilterSet `json:"filters"`
	CurrentPage int              `json:"currentPage"`
	TotalPages  int              `json:"totalPages"`
}

// DefaultSearchState is the state after start-up and after ClearSearch
func DefaultSearchState() SearchState {
	return SearchState{
		Results:     []models.Movie{},
		CurrentPage: 1,
		TotalPages:  1,
	}
}

// Active reports whether a query or any filter is in effect
func (s SearchState) Active() bool {
	return strings.TrimSpace(s.Query) != "" || !s.Filters.IsEmpty()
}

// SearchStore exposes the mutators of the search state. None of them fetch
// anything; the pipelines react to the resulting notifications.
type SearchStore struct {
	cell *Cell[SearchState]
}

// NewSearchStore creates a store in the default state
func NewSearchStore() *SearchStore {
	return &SearchStore{cell: NewCell(DefaultSearchState())}
}

// State returns the current snapshot
func (s *SearchStore) State() SearchState {
	return s.cell.Get()
}

// Subscribe registers fn for every state change
func (s *SearchStore) Subscribe(fn func(SearchState)) func() {
	return s.cell.Subscribe(fn)
}

func (s *SearchStore) SetQuery(query string) {
	s.cell.Update(func(st SearchState) SearchState {
		st.Query = query
		return st
	})
}

func (s *SearchStore) SetResults(results []models.Movie) {
	s.cell.Update(func(st SearchState) SearchState {
		st.Results = nonNil(results)
		return st
	})
}

// SetFilters replaces the filters and restarts pagination at page 1
func (s *SearchStore) SetFilters(filters models.FilterSet) {
	s.cell.Update(func(st SearchState) SearchState {
		st.Filters = filters
		st.CurrentPage = 1
		return st
	})
}

func (s *SearchStore) SetCurrentPage(page int) {
	s.cell.Update(func(st SearchState) SearchState {
		st.CurrentPage = page
		return st
	})
}

func (s *SearchStore) SetTotalPages(total int) {
	s.cell.Update(func(st SearchState) SearchState {
		st.TotalPages = total
		return st
	})
}

// SetListing replaces results and total pages in a single update
func (s *SearchStore) SetListing(results []models.Movie, totalPages int) {
	s.cell.Update(func(st SearchState) SearchState {
		st.Results = nonNil(results)
		st.TotalPages = totalPages
		return st
	})
}

// SetResultsFor replaces the results only while the query still equals
// query. It reports whether the results were applied.
func (s *SearchStore) SetResultsFor(query string, results []models.Movie) bool {
	return s.cell.UpdateIf(func(st SearchState) (SearchState, bool) {
		if st.Query != query {
			return st, false
		}
		st.Results = nonNil(results)
		return st, true
	})
}

// SetListingFor applies a filtered listing only while filters and current
// page still match the request it answers. A totalPages below 1 keeps the
// current total.
func (s *SearchStore) SetListingFor(filters models.FilterSet, page int, results []models.Movie, totalPages int) bool {
	return s.cell.UpdateIf(func(st SearchState) (SearchState, bool) {
		if st.Filters != filters || st.CurrentPage != page {
			return st, false
		}
		st.Results = nonNil(results)
		if totalPages >= 1 {
			st.TotalPages = totalPages
		}
		return st, true
	})
}

// ClearSearch resets everything to defaults in one update
func (s *SearchStore) ClearSearch() {
	s.cell.Set(DefaultSearchState())
}

func nonNil(results []models.Movie) []models.Movie {
	if results == nil {
		return []models.Movie{}
	}
	return results
}
