package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liamwears/kinocatalog/internal/models"
	"github.com/liamwears/kinocatalog/internal/store"
)

func newNavigator(t *testing.T, src MovieSource) (*store.SearchStore, *PopularFeed, *Navigator) {
	t.Helper()
	search := store.NewSearchStore()
	popular := NewPopularFeed(search, src, DefaultMaxPages, quietLogger())
	popular.Start()
	t.Cleanup(popular.Stop)
	return search, popular, NewNavigator(search, popular, DefaultMaxPages)
}

func TestParsePage(t *testing.T) {
	assert.Equal(t, 1, ParsePage(""))
	assert.Equal(t, 1, ParsePage("page=abc"))
	assert.Equal(t, 7, ParsePage("page=7"))
	assert.Equal(t, 0, ParsePage("page=0"))
	assert.Equal(t, 301, ParsePage("sort=x&page=301"))
	assert.Equal(t, 1, ParsePage("%zz"))
}

func TestNavigatorSync(t *testing.T) {
	search, popular, nav := newNavigator(t, newFakeSource())

	assert.True(t, nav.Sync("page=12"))
	assert.Equal(t, 12, search.State().CurrentPage)
	assert.Equal(t, 12, popular.State().CurrentPage)

	for _, raw := range []string{"page=0", "page=301", "page=-4"} {
		assert.False(t, nav.Sync(raw), raw)
		assert.Equal(t, 12, search.State().CurrentPage, raw)
	}

	assert.True(t, nav.Sync("page=abc"))
	assert.Equal(t, 1, search.State().CurrentPage)

	assert.True(t, nav.Sync(""))
	assert.Equal(t, 1, search.State().CurrentPage)
	assert.Equal(t, "", nav.Address().Get())
}

func TestNavigatorRequestPageUsesPopularTotals(t *testing.T) {
	src := newFakeSource()
	src.total = 5
	_, popular, nav := newNavigator(t, src)
	require.Eventually(t, func() bool { return popular.State().TotalPages == 5 }, time.Second, 5*time.Millisecond)

	_, err := nav.RequestPage(1)
	assert.ErrorIs(t, err, ErrInvalidPage)
	_, err = nav.RequestPage(6)
	assert.ErrorIs(t, err, ErrInvalidPage)
	_, err = nav.RequestPage(0)
	assert.ErrorIs(t, err, ErrInvalidPage)

	navigation, err := nav.RequestPage(3)
	require.NoError(t, err)
	assert.Equal(t, Navigation{Location: "/?page=3", Page: 3, ScrollTop: true}, navigation)
	assert.Equal(t, "page=3", nav.Address().Get())
	assert.Equal(t, 3, popular.State().CurrentPage)
}

func TestNavigatorRequestPageUsesResultTotals(t *testing.T) {
	search, _, nav := newNavigator(t, newFakeSource())
	search.SetListing([]models.Movie{{ID: 1}}, 2)

	current, total := nav.Active()
	assert.Equal(t, 1, current)
	assert.Equal(t, 2, total)

	_, err := nav.RequestPage(3)
	assert.ErrorIs(t, err, ErrInvalidPage)

	_, err = nav.RequestPage(2)
	require.NoError(t, err)
	assert.Equal(t, 2, search.State().CurrentPage)
}
