package models

import (
	"strconv"
	"strings"
)

// FilterSet is the genre/year/minimum-rating constraint applied to the listing.
// Empty fields are inactive.
type FilterSet struct {
	Year   string `json:"year,omitempty"`
	Genre  string `json:"genre,omitempty"`
	Rating string `json:"rating,omitempty"`
}

// NewFilterSet builds a FilterSet from raw form input
func NewFilterSet(year, genre, rating string) FilterSet {
	return FilterSet{
		Year:   strings.TrimSpace(year),
		Genre:  strings.TrimSpace(genre),
		Rating: NormalizeRating(rating),
	}
}

// IsEmpty reports whether no filter field is set
func (f FilterSet) IsEmpty() bool {
	return f.Year == "" && f.Genre == "" && f.Rating == ""
}

// NormalizeRating keeps input that parses as a number in [0,10] and drops
// everything else to "".
func NormalizeRating(input string) string {
	input = strings.TrimSpace(input)
	if input == "" {
		return ""
	}
	v, err := strconv.ParseFloat(input, 64)
	if err != nil || v < 0 || v > 10 {
		return ""
	}
	return input
}

// GenreOption is an entry of the filter form's genre select
type GenreOption struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Genres lists the selectable genres; the empty id means "all genres".
var Genres = []GenreOption{
	{ID: "", Name: "All genres"},
	{ID: "28", Name: "Action"},
	{ID: "12", Name: "Adventure"},
	{ID: "35", Name: "Comedy"},
	{ID: "18", Name: "Drama"},
	{ID: "27", Name: "Horror"},
	{ID: "10749", Name: "Romance"},
	{ID: "878", Name: "Science Fiction"},
}
