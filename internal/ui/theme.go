package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/swiftrun/internal/booking"
)

// Theme is the palette for one color scheme. Status badges reuse the
// semantic colors: pending is Warning, on board is Accent, delivered is
// Success.
type Theme struct {
	Name string

	Background string // badge text
	Surface    string // header bar
	Highlight  string // selected row
	Border     string

	Text    string
	Muted   string
	Faint   string
	Accent  string
	Success string
	Warning string
	Danger  string
	Info    string
}

// StatusColor returns the badge color for a booking status.
func (t Theme) StatusColor(st booking.Status) string {
	switch st {
	case booking.StatusPending:
		return t.Warning
	case booking.StatusOnBoard:
		return t.Accent
	case booking.StatusDelivered:
		return t.Success
	}
	return t.Muted
}

// Styles contains pre-built lipgloss styles for a theme.
type Styles struct {
	Text        lipgloss.Style
	MutedText   lipgloss.Style
	FaintText   lipgloss.Style
	AccentText  lipgloss.Style
	SuccessText lipgloss.Style
	WarningText lipgloss.Style
	DangerText  lipgloss.Style
	InfoText    lipgloss.Style

	Header   lipgloss.Style
	Logo     lipgloss.Style
	Selected lipgloss.Style

	theme Theme
}

// Styles returns lipgloss styles for this theme.
func (t Theme) Styles() Styles {
	fg := func(c string) lipgloss.Style { return lipgloss.NewStyle().Foreground(lipgloss.Color(c)) }
	return Styles{
		Text:        fg(t.Text),
		MutedText:   fg(t.Muted),
		FaintText:   fg(t.Faint),
		AccentText:  fg(t.Accent),
		SuccessText: fg(t.Success).Bold(true),
		WarningText: fg(t.Warning),
		DangerText:  fg(t.Danger).Bold(true),
		InfoText:    fg(t.Info),
		Header:      fg(t.Text).Background(lipgloss.Color(t.Surface)).Padding(0, 1),
		Logo:        fg(t.Warning).Bold(true),
		Selected:    fg(t.Text).Background(lipgloss.Color(t.Highlight)),
		theme:       t,
	}
}

// StatusStyle returns a badge style for a booking status.
func (s Styles) StatusStyle(st booking.Status) lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(s.theme.Background)).
		Background(lipgloss.Color(s.theme.StatusColor(st))).
		Padding(0, 1)
}

// WithBackground paints every text style on bgColor so header segments
// join without gaps.
func (s Styles) WithBackground(bgColor string) Styles {
	bg := lipgloss.Color(bgColor)
	for _, st := range []*lipgloss.Style{
		&s.Text, &s.MutedText, &s.FaintText, &s.AccentText,
		&s.SuccessText, &s.WarningText, &s.DangerText, &s.InfoText, &s.Logo,
	} {
		*st = st.Background(bg)
	}
	return s
}

// themeOrder is the cycle order; the first entry is the fallback.
var themeOrder = []Theme{
	{
		Name: "Nightfox", Background: "#131a24", Surface: "#192330", Highlight: "#2b3b51", Border: "#39506d",
		Text: "#cdcecf", Muted: "#738091", Faint: "#71839b", Accent: "#719cd6",
		Success: "#81b29a", Warning: "#dbc074", Danger: "#c94f6d", Info: "#63cdcf",
	},
	{
		Name: "Kanagawa", Background: "#16161D", Surface: "#1F1F28", Highlight: "#2D4F67", Border: "#54546D",
		Text: "#DCD7BA", Muted: "#C8C093", Faint: "#727169", Accent: "#7E9CD8",
		Success: "#98BB6C", Warning: "#E6C384", Danger: "#E46876", Info: "#7FB4CA",
	},
	{
		Name: "Slate", Background: "#020617", Surface: "#0f172a", Highlight: "#0284c7", Border: "#334155",
		Text: "#f1f5f9", Muted: "#94a3b8", Faint: "#64748b", Accent: "#0ea5e9",
		Success: "#16a34a", Warning: "#f59e0b", Danger: "#ef4444", Info: "#06b6d4",
	},
}

// GetTheme returns a theme by name, falling back to Nightfox.
func GetTheme(name string) Theme {
	for _, t := range themeOrder {
		if t.Name == name {
			return t
		}
	}
	return themeOrder[0]
}

// NextTheme returns the next theme name in the cycle.
func NextTheme(current string) string {
	for i, t := range themeOrder {
		if t.Name == current {
			return themeOrder[(i+1)%len(themeOrder)].Name
		}
	}
	return themeOrder[0].Name
}

// ThemeNames returns available theme names in cycle order.
func ThemeNames() []string {
	names := make([]string, len(themeOrder))
	for i, t := range themeOrder {
		names[i] = t.Name
	}
	return names
}
