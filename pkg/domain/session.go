package domain

// Session pairs the signed-in user with the bearer token the API issued.
type Session struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

// Theme is the UI colour preference.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// ParseTheme returns the stored theme, falling back to light for anything unknown.
func ParseTheme(s string) Theme {
	if Theme(s) == ThemeDark {
		return ThemeDark
	}
	return ThemeLight
}

// Toggle flips between light and dark.
func (t Theme) Toggle() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}
