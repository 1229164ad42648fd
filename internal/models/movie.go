package models

import (
	"fmt"
	"strconv"
)

// Movie represents a movie as returned by TMDB list endpoints
type Movie struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	Overview    string   `json:"overview"`
	PosterPath  string   `json:"poster_path"`
	ReleaseDate string   `json:"release_date"`
	VoteAverage *float64 `json:"vote_average,omitempty"`
}

// Genre represents a TMDB genre
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// MovieDetail represents the full movie record from /movie/{id}
type MovieDetail struct {
	Movie
	Genres  []Genre `json:"genres"`
	Runtime int     `json:"runtime"`
}

// Video represents a trailer/teaser entry from /movie/{id}/videos
type Video struct {
	Key  string `json:"key"`
	Site string `json:"site"`
	Type string `json:"type"`
	Name string `json:"name"`
}

// MoviePage represents a paginated TMDB movie list
type MoviePage struct {
	Page         int     `json:"page"`
	Results      []Movie `json:"results"`
	TotalPages   int     `json:"total_pages"`
	TotalResults int     `json:"total_results"`
}

// Year returns the release year or "" when the date is missing
func (m Movie) Year() string {
	if len(m.ReleaseDate) < 4 {
		return ""
	}
	return m.ReleaseDate[:4]
}

// RatingClass buckets a rating for display. A nil rating is "none".
func RatingClass(rating *float64) string {
	switch {
	case rating == nil:
		return "none"
	case *rating >= 7.5:
		return "high"
	case *rating >= 5:
		return "medium"
	default:
		return "low"
	}
}

// FormatRating renders a rating with one decimal, or a placeholder when absent.
func FormatRating(rating *float64) string {
	if rating == nil {
		return "No rating"
	}
	return strconv.FormatFloat(*rating, 'f', 1, 64)
}

// FormatRuntime renders minutes as "2h 5m". Zero yields "".
func FormatRuntime(minutes int) string {
	if minutes <= 0 {
		return ""
	}
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}

// TrailerURL returns the YouTube embed URL for a video key
func TrailerURL(key string) string {
	if key == "" {
		return ""
	}
	return fmt.Sprintf("https://www.youtube.com/embed/%s?autoplay=0&controls=1", key)
}
