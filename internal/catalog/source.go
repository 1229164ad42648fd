// Package catalog coordinates the per-client pipelines that turn state
// changes into TMDB requests: debounced search, filtered listing, the popular
// feed and the page synchronizer.
package catalog

import (
	"context"

	"github.com/liamwears/kinocatalog/internal/models"
)

// DefaultMaxPages is the page ceiling beyond which TMDB listings misbehave
const DefaultMaxPages = 300

// MovieSource is the subset of the TMDB client the pipelines consume
type MovieSource interface {
	Popular(ctx context.Context, page int) (*models.MoviePage, error)
	Search(ctx context.Context, query string, page int) (*models.MoviePage, error)
	Discover(ctx context.Context, filters models.FilterSet, page int) (*models.MoviePage, error)
	Details(ctx context.Context, movieID int) (*models.MovieDetail, error)
	Videos(ctx context.Context, movieID int) ([]models.Video, error)
	Similar(ctx context.Context, movieID int) (*models.MoviePage, error)
}

// Status is the loading/error indicator of one pipeline
type Status struct {
	Loading bool   `json:"loading"`
	Error   string `json:"error,omitempty"`
}

func capPages(total, max int) int {
	if total < 1 {
		return 1
	}
	if total > max {
		return max
	}
	return total
}
