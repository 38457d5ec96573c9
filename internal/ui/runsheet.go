package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/swiftrun/internal/booking"
	"github.com/five82/swiftrun/internal/category"
	"github.com/five82/swiftrun/internal/export"
	"github.com/five82/swiftrun/internal/view"
)

// rows returns the bookings listed by the current view.
func (m Model) rows() []booking.Booking {
	p := view.Project(m.snapshot.Bookings, m.filter)
	if m.view == ViewHistory {
		return p.History
	}
	return p.Active
}

func (m Model) currentBooking() (booking.Booking, bool) {
	rows := m.rows()
	if m.selectedRow < 0 || m.selectedRow >= len(rows) {
		return booking.Booking{}, false
	}
	return rows[m.selectedRow], true
}

func (m *Model) clampSelection() {
	n := len(m.rows())
	switch {
	case n == 0:
		m.selectedRow = 0
	case m.selectedRow >= n:
		m.selectedRow = n - 1
	case m.selectedRow < 0:
		m.selectedRow = 0
	}
}

// pruneSelection drops selected ids that are no longer active.
func (m *Model) pruneSelection() {
	if len(m.selected) == 0 {
		return
	}
	active := make(map[string]bool, len(m.snapshot.Bookings))
	for _, b := range m.snapshot.Bookings {
		if b.IsActive() {
			active[b.ID] = true
		}
	}
	for id := range m.selected {
		if !active[id] {
			delete(m.selected, id)
		}
	}
}

func (m Model) selectedIDs() []string {
	ids := make([]string, 0, len(m.selected))
	// Ids come back in run order.
	for _, b := range view.Project(m.snapshot.Bookings, view.Filter{}).Active {
		if m.selected[b.ID] {
			ids = append(ids, b.ID)
		}
	}
	return ids
}

func (m Model) handleTableKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.keys
	rows := m.rows()

	switch {
	case key.Matches(msg, k.PickupFilter):
		m.filter.Pickup = nextCategory(m.filter.Pickup)
		m.clampSelection()
		return m, nil
	case key.Matches(msg, k.StatusFilter):
		m.filter.Status = nextStatus(m.filter.Status)
		m.clampSelection()
		return m, nil
	case key.Matches(msg, k.ClearFilters):
		m.filter = view.Filter{}
		m.clampSelection()
		return m, nil
	case key.Matches(msg, k.DeliverSel):
		return m.deliverSelected()
	}

	m.clampSelection()
	if len(rows) == 0 {
		return m, nil
	}
	cur := rows[m.selectedRow]

	switch {
	case key.Matches(msg, k.Up):
		if m.selectedRow > 0 {
			m.selectedRow--
		}
	case key.Matches(msg, k.Down):
		if m.selectedRow < len(rows)-1 {
			m.selectedRow++
		}
	case key.Matches(msg, k.Top):
		m.selectedRow = 0
	case key.Matches(msg, k.Bottom):
		m.selectedRow = len(rows) - 1
	case key.Matches(msg, k.Toggle):
		return m, m.toggleCmd(cur.ID)
	case key.Matches(msg, k.Select):
		if cur.IsActive() {
			if m.selected[cur.ID] {
				delete(m.selected, cur.ID)
			} else {
				m.selected[cur.ID] = true
			}
		}
	case key.Matches(msg, k.MoveUp):
		if m.view == ViewRunSheet && m.selectedRow > 0 {
			m.selectedRow--
			return m, m.moveCmd(cur.ID, rows[m.selectedRow].ID)
		}
	case key.Matches(msg, k.MoveDown):
		if m.view == ViewRunSheet && m.selectedRow < len(rows)-1 {
			m.selectedRow++
			return m, m.moveCmd(cur.ID, rows[m.selectedRow].ID)
		}
	case key.Matches(msg, k.Delete):
		id, name := cur.ID, cur.CustomerName
		store := m.store
		m.confirm = &confirmation{
			message: fmt.Sprintf("Delete booking for %s?", name),
			action: m.runOp(func(ctx context.Context) (string, error) {
				if _, err := store.DeleteBooking(ctx, id); err != nil {
					return "", err
				}
				return "Deleted " + name, nil
			}),
		}
	case key.Matches(msg, k.Labels):
		m.overlay = &overlay{
			title: "Labels for " + cur.CustomerName,
			body:  export.RenderLabels(cur, m.clock.Now()),
		}
	}
	return m, nil
}

func (m Model) toggleCmd(id string) tea.Cmd {
	store := m.store
	return m.runOp(func(ctx context.Context) (string, error) {
		b, ok, err := store.ToggleStatus(ctx, id)
		if err != nil || !ok {
			return "", err
		}
		return fmt.Sprintf("%s is now %s", b.CustomerName, b.Status), nil
	})
}

func (m Model) moveCmd(draggedID, targetID string) tea.Cmd {
	store := m.store
	return m.runOp(func(ctx context.Context) (string, error) {
		_, err := store.MoveBooking(ctx, draggedID, targetID)
		return "", err
	})
}

func (m Model) deliverSelected() (tea.Model, tea.Cmd) {
	ids := m.selectedIDs()
	if len(ids) == 0 {
		m.setFlash("Select bookings with space first", nil)
		return m, nil
	}
	m.selected = make(map[string]bool)
	store := m.store
	return m, m.runOp(func(ctx context.Context) (string, error) {
		n, err := store.BulkMarkDelivered(ctx, ids)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Marked %d delivered", n), nil
	})
}

func nextCategory(c category.Category) category.Category {
	filters := category.Filters()
	for i, f := range filters {
		if f == c {
			return filters[(i+1)%len(filters)]
		}
	}
	return ""
}

func nextStatus(s booking.Status) booking.Status {
	cycle := append([]booking.Status{""}, booking.Statuses()...)
	for i, st := range cycle {
		if st == s {
			return cycle[(i+1)%len(cycle)]
		}
	}
	return ""
}

func statusLabel(s booking.Status) string {
	if s == "" {
		return "All"
	}
	return string(s)
}

func (m Model) renderRunSheet() string {
	return m.renderBookingTable("Run Sheet", "No active deliveries")
}

func (m Model) renderHistory() string {
	return m.renderBookingTable("History", "No completed deliveries")
}

func (m Model) renderBookingTable(title, empty string) string {
	height := m.contentHeight()
	rows := m.rows()
	styles := m.theme.Styles()
	title = fmt.Sprintf("%s (%d) · pickup %s · status %s",
		title, len(rows), m.filter.Pickup.Label(), statusLabel(m.filter.Status))

	if len(rows) == 0 {
		msg := styles.MutedText.Render(empty)
		return m.renderTitledBox(title, lipgloss.Place(m.width-2, height-2, lipgloss.Center, lipgloss.Center, msg), m.width, height)
	}

	inner := m.width - 2
	visible := height - 2
	start := 0
	if m.selectedRow >= visible {
		start = m.selectedRow - visible + 1
	}
	end := min(start+visible, len(rows))

	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		lines = append(lines, m.formatRow(rows[i], inner, i == m.selectedRow))
	}
	return m.renderTitledBox(title, strings.Join(lines, "\n"), m.width, height)
}

// formatRow renders one booking as "#seq [x] Customer · Address · SG · 3 ctn  Status".
func (m Model) formatRow(b booking.Booking, width int, cursor bool) string {
	styles := m.theme.Styles()
	mark := "   "
	if m.selected[b.ID] {
		mark = "[x]"
	}
	badge := styles.StatusStyle(b.Status).Render(string(b.Status))
	head := fmt.Sprintf("#%-3d %s ", b.Sequence, mark)
	tail := fmt.Sprintf(" · %s · %d ctn ", category.DisplayCode(b.PickupLocation), b.Cartons)
	if m.view == ViewHistory && b.DeliveredAt != "" {
		tail += "· " + b.ParsedDeliveredAt().Local().Format("Jan 2 15:04") + " "
	}
	room := width - lipgloss.Width(head) - lipgloss.Width(tail) - lipgloss.Width(badge) - 1
	middle := truncate(b.CustomerName+" · "+b.DeliveryAddress, max(room, 8))

	line := head + middle + tail
	if cursor {
		line = styles.Selected.Render(line)
	} else if m.highlightID == b.ID {
		line = styles.WarningText.Render(line)
	} else {
		line = styles.Text.Render(line)
	}
	return line + " " + badge
}

// renderTitledBox draws content inside a border with title embedded in
// the top edge.
func (m Model) renderTitledBox(title, content string, width, height int) string {
	border := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Border))
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(m.theme.Text))

	inner := max(width-2, 0)
	title = truncate(title, max(inner-4, 0))
	fill := max(inner-lipgloss.Width(title)-3, 0)
	top := border.Render("┌─") + titleStyle.Render(" "+title+" ") + border.Render(strings.Repeat("─", fill)+"┐")
	bottom := border.Render("└" + strings.Repeat("─", inner) + "┘")

	body := lipgloss.NewStyle().Width(inner)
	lines := strings.Split(content, "\n")
	out := make([]string, 0, height)
	out = append(out, top)
	for i := 0; i < height-2; i++ {
		var line string
		if i < len(lines) {
			line = lines[i]
		}
		out = append(out, border.Render("│")+body.Render(line)+border.Render("│"))
	}
	out = append(out, bottom)
	return strings.Join(out, "\n")
}

// truncate shortens s to max runes with an ellipsis.
func truncate(s string, max int) string {
	r := []rune(s)
	if max <= 0 {
		return ""
	}
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}
