package ui

import (
	"fmt"
	"strings"

	"github.com/five82/swiftrun/internal/view"
)

// renderMap lists the map points for the active run. The highlighted
// booking is marked until its highlight expires.
func (m Model) renderMap() string {
	styles := m.theme.Styles()
	points := view.MapPoints(m.snapshot.Bookings, m.highlightID)
	height := m.contentHeight()
	title := fmt.Sprintf("Map (%d stops)", len(points))

	if len(points) == 0 {
		return m.renderTitledBox(title, styles.MutedText.Render("No active deliveries"), m.width, height)
	}

	lines := make([]string, 0, len(points))
	for i, p := range points {
		coords := "no coordinates"
		if p.Latitude != nil && p.Longitude != nil {
			coords = fmt.Sprintf("%.5f, %.5f", *p.Latitude, *p.Longitude)
		}
		line := fmt.Sprintf("%2d. %s · %s · %s", i+1, p.CustomerName, p.DeliveryAddress, coords)
		line = truncate(line, max(m.width-4, 0))
		if p.Highlighted {
			lines = append(lines, styles.WarningText.Bold(true).Render("▶ "+line))
			continue
		}
		lines = append(lines, styles.Text.Render("  "+line))
	}
	return m.renderTitledBox(title, strings.Join(lines, "\n"), m.width, height)
}
