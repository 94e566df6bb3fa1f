package lessonview

import "fmt"

// Theme is the page colour scheme. It only selects CSS classes.
type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

// Themes lists the themes in switching order.
var Themes = []Theme{ThemeDark, ThemeLight}

// ParseTheme parses "dark" or "light".
func ParseTheme(s string) (Theme, error) {
	for _, t := range Themes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown theme %q", s)
}

// Next returns the theme the switcher moves to from t.
func (t Theme) Next() Theme {
	for i, x := range Themes {
		if x == t {
			return Themes[(i+1)%len(Themes)]
		}
	}
	return Themes[0]
}

// Class returns base suffixed with the theme, e.g. "fade-in-dark". An empty
// base yields the theme name alone.
func (t Theme) Class(base string) string {
	if base == "" {
		return string(t)
	}
	return base + "-" + string(t)
}

// Icon is the asset name of the switcher button for t.
func (t Theme) Icon() string {
	if t == ThemeLight {
		return "moon_icon"
	}
	return "sun_icon"
}
