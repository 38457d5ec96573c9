package ui

import (
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/swiftrun/internal/logtail"
)

const logTailLines = 400

func (m Model) fetchLogs() tea.Cmd {
	path := m.logPath
	if path == "" {
		return nil
	}
	return func() tea.Msg {
		lines, err := logtail.Read(path, logTailLines)
		if err != nil {
			return opResultMsg{err: err}
		}
		return logLinesMsg(lines)
	}
}

func (m *Model) updateLogViewport() {
	if !m.ready {
		return
	}
	styles := m.theme.Styles()
	rendered := make([]string, 0, len(m.logLines))
	for _, line := range m.logLines {
		rendered = append(rendered, m.levelStyle(line, styles).Render(line))
	}
	m.logViewport.SetContent(strings.Join(rendered, "\n"))
	if m.logFollow {
		m.logViewport.GotoBottom()
	}
}

func (m Model) levelStyle(line string, styles Styles) lipgloss.Style {
	lvl, ok := logtail.LevelOf(line)
	if !ok {
		return styles.FaintText
	}
	switch {
	case lvl >= slog.LevelError:
		return styles.DangerText
	case lvl >= slog.LevelWarn:
		return styles.WarningText
	case lvl >= slog.LevelInfo:
		return styles.Text
	default:
		return styles.MutedText
	}
}

func (m Model) handleLogsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.ToggleFollow) {
		m.logFollow = !m.logFollow
		if m.logFollow {
			m.logViewport.GotoBottom()
			return m, m.fetchLogs()
		}
		return m, nil
	}
	// Manual scrolling pauses follow.
	if key.Matches(msg, m.keys.Up) {
		m.logFollow = false
	}
	var cmd tea.Cmd
	m.logViewport, cmd = m.logViewport.Update(msg)
	return m, cmd
}

func (m Model) renderLogs() string {
	styles := m.theme.Styles()
	if m.logPath == "" {
		return styles.MutedText.Render("Logging to a file is disabled")
	}
	if len(m.logLines) == 0 {
		return lipgloss.Place(m.width, m.contentHeight(), lipgloss.Center, lipgloss.Center,
			styles.MutedText.Render("No log lines yet: "+m.logPath))
	}
	return m.logViewport.View()
}
