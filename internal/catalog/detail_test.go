package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liamwears/kinocatalog/internal/models"
)

func TestLoadDetail(t *testing.T) {
	src := newFakeSource()
	src.details = &models.MovieDetail{Movie: models.Movie{ID: 7, Title: "Seven"}, Runtime: 127}
	src.videos = []models.Video{
		{Key: "teaser", Site: "YouTube", Type: "Teaser"},
		{Key: "vimeo", Site: "Vimeo", Type: "Trailer"},
		{Key: "yt", Site: "YouTube", Type: "Trailer"},
		{Key: "yt2", Site: "YouTube", Type: "Trailer"},
	}
	for i := 0; i < 15; i++ {
		src.similar = append(src.similar, models.Movie{ID: 100 + i})
	}

	d, err := LoadDetail(context.Background(), src, 7)
	require.NoError(t, err)

	assert.Equal(t, "Seven", d.Movie.Title)
	require.NotNil(t, d.Trailer)
	assert.Equal(t, "yt", d.Trailer.Key)
	assert.Len(t, d.Similar, maxSimilar)
	assert.Equal(t, 100, d.Similar[0].ID)
}

func TestLoadDetailWithoutTrailerOrSimilar(t *testing.T) {
	src := newFakeSource()
	src.details = &models.MovieDetail{Movie: models.Movie{ID: 3}}

	d, err := LoadDetail(context.Background(), src, 3)
	require.NoError(t, err)
	assert.Nil(t, d.Trailer)
	assert.NotNil(t, d.Similar)
	assert.Empty(t, d.Similar)
}

func TestLoadDetailFailure(t *testing.T) {
	for _, op := range []string{"details", "videos", "similar"} {
		t.Run(op, func(t *testing.T) {
			src := newFakeSource()
			src.details = &models.MovieDetail{}
			src.failOn = op

			_, err := LoadDetail(context.Background(), src, 1)
			assert.ErrorIs(t, err, ErrDetailUnavailable)
			assert.ErrorIs(t, err, errFake)
		})
	}
}
