package models

import "encoding/json"

// Theme is the UI color scheme
type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

// Toggle returns the opposite theme
func (t Theme) Toggle() Theme {
	if t == ThemeLight {
		return ThemeDark
	}
	return ThemeLight
}

// IsValid checks if the theme is a known value
func (t Theme) IsValid() bool {
	return t == ThemeDark || t == ThemeLight
}

// ParseTheme falls back to dark for unknown values
func ParseTheme(s string) Theme {
	t := Theme(s)
	if !t.IsValid() {
		return ThemeDark
	}
	return t
}

// UnmarshalJSON normalizes unknown persisted values to dark
func (t *Theme) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*t = ParseTheme(s)
	return nil
}
