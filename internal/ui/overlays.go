package ui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/swiftrun/internal/advisory"
	"github.com/five82/swiftrun/internal/export"
	"github.com/five82/swiftrun/internal/view"
)

// overlay is a read-only panel dismissed by any key.
type overlay struct {
	title string
	body  string
}

func adviceOverlay(res advisory.Result) *overlay {
	var b strings.Builder
	b.WriteString(res.Text)
	if len(res.Links) > 0 {
		b.WriteString("\n\nSources:\n")
		for _, l := range res.Links {
			fmt.Fprintf(&b, "  %s  %s\n", l.Title, l.URI)
		}
	}
	return &overlay{title: "Route advice", body: strings.TrimRight(b.String(), "\n")}
}

func (m Model) adviseCmd() tea.Cmd {
	ctx, adv := m.ctx, m.advisor
	active := view.Project(m.snapshot.Bookings, view.Filter{}).Active
	return func() tea.Msg {
		return adviceMsg(advisory.Safe(ctx, adv, active))
	}
}

// exportCmd writes the filtered history (or everything, when the history
// is empty) to a dated workbook in the export directory.
func (m Model) exportCmd() tea.Cmd {
	rows := view.ExportRows(m.snapshot.Bookings, m.filter)
	path := filepath.Join(m.exportDir, export.DefaultFileName(m.clock.Now()))
	return m.runOp(func(context.Context) (string, error) {
		if len(rows) == 0 {
			return "", export.ErrNoData
		}
		f, err := os.Create(path)
		if err != nil {
			return "", fmt.Errorf("create export: %w", err)
		}
		if err := export.WriteWorkbook(f, rows); err != nil {
			_ = f.Close()
			return "", err
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("close export: %w", err)
		}
		return fmt.Sprintf("Exported %d bookings to %s", len(rows), path), nil
	})
}

func (m Model) renderOverlay() string {
	styles := m.theme.Styles()
	content := styles.Text.Bold(true).Render(m.overlay.title) + "\n\n" +
		m.overlay.body + "\n\n" +
		styles.FaintText.Render("any key closes")
	return m.renderModal(content, 80)
}

// renderHelp renders the key binding overlay.
func (m Model) renderHelp() string {
	styles := m.theme.Styles()
	k := m.keys
	sections := []struct {
		title    string
		bindings []keyHelp
	}{
		{"Views", helpFor(k.ViewRunSheet, k.ViewHistory, k.ViewMap, k.ViewLogs, k.Tab, k.Escape)},
		{"Navigation", helpFor(k.Up, k.Down, k.Top, k.Bottom)},
		{"Run sheet", helpFor(k.Add, k.Toggle, k.Select, k.DeliverSel, k.MoveUp, k.MoveDown, k.Delete, k.Labels)},
		{"Filters", helpFor(k.PickupFilter, k.StatusFilter, k.ClearFilters)},
		{"Tools", helpFor(k.Export, k.Advise, k.Sync, k.Disconnect, k.ToggleFollow)},
		{"General", helpFor(k.CycleTheme, k.Help, k.Quit)},
	}

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("Keyboard Shortcuts"))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(strings.Repeat("─", 30)))
	b.WriteString("\n")
	keyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Warning)).Width(12)
	for _, section := range sections {
		b.WriteString("\n" + styles.AccentText.Bold(true).Render(section.title) + "\n")
		for _, h := range section.bindings {
			b.WriteString(keyStyle.Render(h.key) + styles.Text.Render(h.desc) + "\n")
		}
	}
	return m.renderModal(strings.TrimRight(b.String(), "\n"), 48)
}
