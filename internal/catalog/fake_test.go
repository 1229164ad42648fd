package catalog

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/liamwears/kinocatalog/internal/models"
)

var errFake = errors.New("upstream down")

type call struct {
	op      string
	query   string
	filters models.FilterSet
	page    int
}

// fakeSource records every call. Hooks, when set, replace the canned answer.
type fakeSource struct {
	mu    sync.Mutex
	calls []call

	total    int
	search   func(ctx context.Context, query string) (*models.MoviePage, error)
	discover func(ctx context.Context, filters models.FilterSet, page int) (*models.MoviePage, error)
	popular  func(ctx context.Context, page int) (*models.MoviePage, error)

	details *models.MovieDetail
	videos  []models.Video
	similar []models.Movie
	failOn  string
}

func newFakeSource() *fakeSource {
	return &fakeSource{total: 3}
}

func (f *fakeSource) record(c call) {
	f.mu.Lock()
	f.calls = append(f.calls, c)
	f.mu.Unlock()
}

func (f *fakeSource) callsOf(op string) []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []call
	for _, c := range f.calls {
		if c.op == op {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeSource) page(id, page int) *models.MoviePage {
	return &models.MoviePage{
		Page:       page,
		Results:    []models.Movie{{ID: id, Title: "movie"}},
		TotalPages: f.total,
	}
}

func (f *fakeSource) Popular(ctx context.Context, page int) (*models.MoviePage, error) {
	f.record(call{op: "popular", page: page})
	if f.popular != nil {
		return f.popular(ctx, page)
	}
	return f.page(1000+page, page), nil
}

func (f *fakeSource) Search(ctx context.Context, query string, page int) (*models.MoviePage, error) {
	f.record(call{op: "search", query: query, page: page})
	if f.search != nil {
		return f.search(ctx, query)
	}
	return f.page(len(query), page), nil
}

func (f *fakeSource) Discover(ctx context.Context, filters models.FilterSet, page int) (*models.MoviePage, error) {
	f.record(call{op: "discover", filters: filters, page: page})
	if f.discover != nil {
		return f.discover(ctx, filters, page)
	}
	return f.page(2000+page, page), nil
}

func (f *fakeSource) Details(_ context.Context, id int) (*models.MovieDetail, error) {
	f.record(call{op: "details", page: id})
	if f.failOn == "details" {
		return nil, errFake
	}
	return f.details, nil
}

func (f *fakeSource) Videos(_ context.Context, id int) ([]models.Video, error) {
	f.record(call{op: "videos", page: id})
	if f.failOn == "videos" {
		return nil, errFake
	}
	return f.videos, nil
}

func (f *fakeSource) Similar(_ context.Context, id int) (*models.MoviePage, error) {
	f.record(call{op: "similar", page: id})
	if f.failOn == "similar" {
		return nil, errFake
	}
	return &models.MoviePage{Page: 1, Results: f.similar, TotalPages: 1}, nil
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
