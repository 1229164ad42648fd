package catalog

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/liamwears/kinocatalog/internal/models"
)

const maxSimilar = 10

// ErrDetailUnavailable is returned when any part of a movie page fails to load
var ErrDetailUnavailable = errors.New("failed to load movie")

// Detail is everything shown on a movie page
type Detail struct {
	Movie   *models.MovieDetail `json:"movie"`
	Trailer *models.Video       `json:"trailer,omitempty"`
	Similar []models.Movie      `json:"similar"`
}

// LoadDetail fetches details, videos and similar movies concurrently
func LoadDetail(ctx context.Context, source MovieSource, movieID int) (*Detail, error) {
	var (
		movie   *models.MovieDetail
		videos  []models.Video
		similar *models.MoviePage
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		movie, err = source.Details(ctx, movieID)
		return err
	})
	g.Go(func() error {
		var err error
		videos, err = source.Videos(ctx, movieID)
		return err
	})
	g.Go(func() error {
		var err error
		similar, err = source.Similar(ctx, movieID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w %d: %w", ErrDetailUnavailable, movieID, err)
	}

	d := &Detail{
		Movie:   movie,
		Trailer: FindTrailer(videos),
		Similar: []models.Movie{},
	}
	if similar != nil && similar.Results != nil {
		d.Similar = similar.Results
		if len(d.Similar) > maxSimilar {
			d.Similar = d.Similar[:maxSimilar]
		}
	}
	return d, nil
}

// FindTrailer returns the first YouTube trailer, or nil
func FindTrailer(videos []models.Video) *models.Video {
	for i := range videos {
		if videos[i].Type == "Trailer" && videos[i].Site == "YouTube" {
			return &videos[i]
		}
	}
	return nil
}
