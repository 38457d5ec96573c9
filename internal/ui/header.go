package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/swiftrun/internal/syncer"
	"github.com/five82/swiftrun/internal/view"
)

// renderHeader renders the logo, run-sheet stats, and sync state.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	stats := view.ComputeStats(m.snapshot.Bookings)
	sep := styles.FaintText.Render("  ")

	parts := []string{
		styles.Logo.Render("swiftrun"),
		styles.Text.Render(fmt.Sprintf("%d deliveries", stats.TotalDeliveries)),
		styles.SuccessText.Render(fmt.Sprintf("%d delivered", stats.DeliveredCount)),
		styles.WarningText.Render(fmt.Sprintf("%d remaining", stats.Remaining())),
		styles.InfoText.Render(fmt.Sprintf("%d cartons", stats.TotalCartons)),
		m.syncBadge(styles),
	}
	if len(m.selected) > 0 {
		parts = append(parts, styles.AccentText.Render(fmt.Sprintf("%d selected", len(m.selected))))
	}
	if m.snapshot.PersistenceFailing() {
		parts = append(parts, styles.DangerText.Render("SAVE FAILING"))
	}

	return lipgloss.NewStyle().
		Background(lipgloss.Color(m.theme.Surface)).
		Width(m.width).
		Render(strings.Join(parts, sep))
}

func (m Model) syncBadge(styles Styles) string {
	if m.sync == nil {
		return styles.MutedText.Render("LOCAL")
	}
	st := m.syncStatus
	label := st.Label()
	switch {
	case st.State == syncer.Error || st.IsOffline() || st.LastError != nil:
		return styles.DangerText.Render(label)
	case st.State == syncer.Connected:
		return styles.SuccessText.Render(label)
	case st.State == syncer.Bootstrapping:
		return styles.WarningText.Render(label)
	default:
		return styles.MutedText.Render(label)
	}
}

// renderCommandBar renders key hints for the current view plus the last
// status message.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)

	type hint struct{ key, desc string }
	var hints []hint
	switch m.view {
	case ViewLogs:
		follow := "Pause"
		if !m.logFollow {
			follow = "Follow"
		}
		hints = []hint{{"F", follow}, {"j/k", "Scroll"}, {"r", "Run sheet"}, {"?", "More"}}
	case ViewMap:
		hints = []hint{{"r", "Run sheet"}, {"y", "History"}, {"?", "More"}}
	default:
		hints = []hint{
			{"a", "Add"},
			{"t", "Status"},
			{"space", "Select"},
			{"D", "Deliver"},
			{"K/J", "Move"},
			{"f", "Pickup " + m.filter.Pickup.Label()},
			{"s", "Status " + statusLabel(m.filter.Status)},
			{"S", "Sync"},
			{"?", "More"},
		}
	}

	segments := make([]string, 0, len(hints)+1)
	for _, h := range hints {
		segments = append(segments, styles.AccentText.Render(h.key)+styles.FaintText.Render(":")+styles.MutedText.Render(h.desc))
	}
	segments = append(segments, styles.AccentText.Render("T")+styles.FaintText.Render(":")+styles.FaintText.Render(m.theme.Name))
	bar := styles.Header.Width(m.width).Render(strings.Join(segments, "  "))

	flash := ""
	if m.flash != "" {
		style := styles.InfoText
		if m.flashErr {
			style = styles.DangerText
		}
		flash = style.Render(truncate(m.flash, max(m.width-2, 0)))
	}
	return bar + "\n" + lipgloss.NewStyle().Width(m.width).Render(flash)
}
