package catalog

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/liamwears/kinocatalog/internal/store"
)

// ErrInvalidPage is returned by RequestPage for a page outside the active
// range or equal to the page already shown.
var ErrInvalidPage = errors.New("invalid page")

// Navigation tells the render layer where to go after an accepted page change
type Navigation struct {
	Location  string `json:"location"`
	Page      int    `json:"page"`
	ScrollTop bool   `json:"scrollTop"`
}

// Navigator keeps the address-bar page parameter and the stores consistent
// in both directions.
type Navigator struct {
	search   *store.SearchStore
	popular  *PopularFeed
	maxPages int
	address  *store.Cell[string]
}

func NewNavigator(search *store.SearchStore, popular *PopularFeed, maxPages int) *Navigator {
	if maxPages < 1 {
		maxPages = DefaultMaxPages
	}
	return &Navigator{
		search:   search,
		popular:  popular,
		maxPages: maxPages,
		address:  store.NewCell(""),
	}
}

// Address holds the raw query string of the client's address bar
func (n *Navigator) Address() *store.Cell[string] {
	return n.address
}

// ParsePage reads the page parameter of a raw query string. Absent or
// unparsable values default to 1.
func ParsePage(rawQuery string) int {
	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		return 1
	}
	page, err := strconv.Atoi(values.Get("page"))
	if err != nil {
		return 1
	}
	return page
}

// Sync applies an address-bar change. A page in [1, maxPages] is adopted by
// the search store (when it differs) and the popular feed; anything else is
// ignored. It reports whether the page was adopted.
func (n *Navigator) Sync(rawQuery string) bool {
	n.address.Set(rawQuery)

	page := ParsePage(rawQuery)
	if page < 1 || page > n.maxPages {
		return false
	}
	if n.search.State().CurrentPage != page {
		n.search.SetCurrentPage(page)
	}
	n.popular.SetPage(page)
	return true
}

// Active returns the page and total of whichever listing is on screen: the
// search/filter results when there are any, otherwise the popular feed.
func (n *Navigator) Active() (current, total int) {
	st := n.search.State()
	if len(st.Results) > 0 {
		return st.CurrentPage, st.TotalPages
	}
	feed := n.popular.State()
	return feed.CurrentPage, feed.TotalPages
}

// RequestPage handles a pagination click
func (n *Navigator) RequestPage(page int) (Navigation, error) {
	current, total := n.Active()
	if page < 1 || page > total || page == current {
		return Navigation{}, fmt.Errorf("%w: %d (current %d, total %d)", ErrInvalidPage, page, current, total)
	}
	return n.Push(page), nil
}

// Push writes page into the address bar unconditionally and applies it
func (n *Navigator) Push(page int) Navigation {
	query := url.Values{"page": []string{strconv.Itoa(page)}}.Encode()
	n.Sync(query)
	return Navigation{
		Location:  "/?" + query,
		Page:      page,
		ScrollTop: true,
	}
}
