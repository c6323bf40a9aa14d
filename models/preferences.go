package models

// Preferences are the client-local settings (locale, theme) kept per browser client.
type Preferences struct {
	Locale  string `json:"locale"`
	ThemeID string `json:"theme_id"`
}

type ThemeColors struct {
	Primary       string `json:"primary"`
	Secondary     string `json:"secondary"`
	Accent        string `json:"accent"`
	Background    string `json:"background"`
	Surface       string `json:"surface"`
	Text          string `json:"text"`
	TextSecondary string `json:"text_secondary"`
}

type ThemeFonts struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Links    string `json:"links"`
	Text     string `json:"text"`
}

type Theme struct {
	ID     string      `json:"id"`
	Name   string      `json:"name"`
	Logo   string      `json:"logo,omitempty"`
	Colors ThemeColors `json:"colors"`
	Fonts  ThemeFonts  `json:"fonts"`
}

const DefaultThemeID = "hclokeren"

var Themes = []Theme{
	{
		ID:   "default",
		Name: "Hockey Madness",
		Colors: ThemeColors{
			Primary:       "#3b82f6",
			Secondary:     "#1e40af",
			Accent:        "#f59e0b",
			Background:    "#0f172a",
			Surface:       "#1e293b",
			Text:          "#ffffff",
			TextSecondary: "#cbd5e1",
		},
		Fonts: ThemeFonts{
			Title:    "Inter, system-ui, sans-serif",
			Subtitle: "Inter, system-ui, sans-serif",
			Links:    "Inter, system-ui, sans-serif",
			Text:     "Inter, system-ui, sans-serif",
		},
	},
	{
		ID:   "hclokeren",
		Name: "HC Lokeren",
		Logo: "/assets/hc-lokeren.png",
		Colors: ThemeColors{
			Primary:       "#121238",
			Secondary:     "#478dcb",
			Accent:        "#478dcb",
			Background:    "#f3f3f3",
			Surface:       "#ffffff",
			Text:          "#121238",
			TextSecondary: "#4a4a4a",
		},
		Fonts: ThemeFonts{
			Title:    "'League Spartan', 'Montserrat', sans-serif",
			Subtitle: "'Quicksand', 'Nunito', sans-serif",
			Links:    "'Bebas Neue', 'Oswald', sans-serif",
			Text:     "'Futura', 'Poppins', sans-serif",
		},
	},
}

// FindTheme returns the theme with the given id, falling back to the first catalogue entry.
func FindTheme(id string) (Theme, bool) {
	for _, t := range Themes {
		if t.ID == id {
			return t, true
		}
	}
	return Themes[0], false
}
