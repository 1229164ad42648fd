package store

import "github.com/liamwears/kinocatalog/internal/models"

// FavoritesStore is an insertion-ordered set of movies keyed by id
type FavoritesStore struct {
	cell *Cell[[]models.Movie]
}

// NewFavoritesStore creates an empty favorites set
func NewFavoritesStore() *FavoritesStore {
	return &FavoritesStore{cell: NewCell([]models.Movie{})}
}

// Cell exposes the underlying cell for persistence binding
func (f *FavoritesStore) Cell() *Cell[[]models.Movie] {
	return f.cell
}

// List returns the favorites in insertion order
func (f *FavoritesStore) List() []models.Movie {
	return f.cell.Get()
}

// Subscribe registers fn for every change of the set
func (f *FavoritesStore) Subscribe(fn func([]models.Movie)) func() {
	return f.cell.Subscribe(fn)
}

// Add appends movie unless its id is already present. Adding an existing id
// leaves the set unchanged and does not notify.
func (f *FavoritesStore) Add(movie models.Movie) {
	if f.IsFavorite(movie.ID) {
		return
	}
	f.cell.Update(func(list []models.Movie) []models.Movie {
		if indexOf(list, movie.ID) >= 0 {
			return list
		}
		next := make([]models.Movie, 0, len(list)+1)
		next = append(next, list...)
		return append(next, movie)
	})
}

// Remove drops the movie with id, if present
func (f *FavoritesStore) Remove(id int) {
	if !f.IsFavorite(id) {
		return
	}
	f.cell.Update(func(list []models.Movie) []models.Movie {
		next := make([]models.Movie, 0, len(list))
		for _, m := range list {
			if m.ID != id {
				next = append(next, m)
			}
		}
		return next
	})
}

// Toggle adds or removes movie and reports whether it is now a favorite
func (f *FavoritesStore) Toggle(movie models.Movie) bool {
	if f.IsFavorite(movie.ID) {
		f.Remove(movie.ID)
		return false
	}
	f.Add(movie)
	return true
}

func (f *FavoritesStore) IsFavorite(id int) bool {
	return indexOf(f.cell.Get(), id) >= 0
}

func indexOf(list []models.Movie, id int) int {
	for i, m := range list {
		if m.ID == id {
			return i
		}
	}
	return -1
}
