package store

import "github.com/liamwears/kinocatalog/internal/models"

// ThemeStore holds the dark/light preference
type ThemeStore struct {
	cell *Cell[models.Theme]
}

func NewThemeStore() *ThemeStore {
	return &ThemeStore{cell: NewCell(models.ThemeDark)}
}

func (t *ThemeStore) Cell() *Cell[models.Theme] {
	return t.cell
}

func (t *ThemeStore) Theme() models.Theme {
	return t.cell.Get()
}

func (t *ThemeStore) Subscribe(fn func(models.Theme)) func() {
	return t.cell.Subscribe(fn)
}

// Toggle flips the theme and returns the new value
func (t *ThemeStore) Toggle() models.Theme {
	var next models.Theme
	t.cell.Update(func(cur models.Theme) models.Theme {
		next = cur.Toggle()
		return next
	})
	return next
}

func (t *ThemeStore) Set(theme models.Theme) {
	t.cell.Set(models.ParseTheme(string(theme)))
}
