package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeRating(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"7.5", "7.5"},
		{"0", "0"},
		{"10", "10"},
		{"11", ""},
		{"-1", ""},
		{"abc", ""},
		{"", ""},
		{" 8 ", "8"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeRating(tt.input), "input %q", tt.input)
	}
}

func TestNewFilterSet(t *testing.T) {
	f := NewFilterSet(" 2020", "28", "11")
	assert.Equal(t, FilterSet{Year: "2020", Genre: "28"}, f)
	assert.False(t, f.IsEmpty())
	assert.True(t, NewFilterSet("", "", "42").IsEmpty())
}

func TestRatingHelpers(t *testing.T) {
	high, mid, low := 8.0, 5.0, 2.3

	assert.Equal(t, "none", RatingClass(nil))
	assert.Equal(t, "high", RatingClass(&high))
	assert.Equal(t, "medium", RatingClass(&mid))
	assert.Equal(t, "low", RatingClass(&low))

	assert.Equal(t, "No rating", FormatRating(nil))
	assert.Equal(t, "2.3", FormatRating(&low))
}

func TestFormatRuntime(t *testing.T) {
	assert.Equal(t, "2h 5m", FormatRuntime(125))
	assert.Equal(t, "0h 45m", FormatRuntime(45))
	assert.Equal(t, "", FormatRuntime(0))
}

func TestTheme(t *testing.T) {
	assert.Equal(t, ThemeLight, ThemeDark.Toggle())
	assert.Equal(t, ThemeDark, ThemeLight.Toggle())
	assert.Equal(t, ThemeDark, ParseTheme("purple"))
	assert.Equal(t, ThemeLight, ParseTheme("light"))
}

func TestMovieYear(t *testing.T) {
	assert.Equal(t, "1999", Movie{ReleaseDate: "1999-03-31"}.Year())
	assert.Equal(t, "", Movie{}.Year())
}
