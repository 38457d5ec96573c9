package ui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/swiftrun/internal/advisory"
	"github.com/five82/swiftrun/internal/booking"
	"github.com/five82/swiftrun/internal/clock"
	"github.com/five82/swiftrun/internal/prefs"
	"github.com/five82/swiftrun/internal/state"
	"github.com/five82/swiftrun/internal/syncer"
	"github.com/five82/swiftrun/internal/view"
)

// View is the active screen.
type View int

const (
	ViewRunSheet View = iota
	ViewHistory
	ViewMap
	ViewLogs
)

var viewOrder = []View{ViewRunSheet, ViewHistory, ViewMap, ViewLogs}

// highlightTTL is how long a map highlight stays on.
const highlightTTL = 5 * time.Second

// Options configures the UI.
type Options struct {
	Context   context.Context
	Store     *state.Store
	Sync      *syncer.Engine // nil runs local-only
	Advisor   advisory.Advisor
	Clock     clock.Clock
	LogPath   string
	ExportDir string
	PollTick  time.Duration
	ThemeName string
	PrefsPath string
}

// Model is the root Bubble Tea model.
type Model struct {
	ctx       context.Context
	store     *state.Store
	sync      *syncer.Engine
	advisor   advisory.Advisor
	clock     clock.Clock
	logPath   string
	exportDir string
	prefsPath string
	pollTick  time.Duration
	keys      keyMap

	theme  Theme
	view   View
	width  int
	height int
	ready  bool

	snapshot    state.Snapshot
	syncStatus  syncer.Status
	filter      view.Filter
	selectedRow int
	selected    map[string]bool
	highlightID string

	form     *bookingForm
	prompt   *syncPrompt
	confirm  *confirmation
	overlay  *overlay
	showHelp bool

	logViewport viewport.Model
	logLines    []string
	logFollow   bool

	flash    string
	flashErr bool
}

// New creates the model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.Real()
	}
	adv := opts.Advisor
	if adv == nil {
		adv = advisory.Summary{}
	}
	pollTick := opts.PollTick
	if pollTick <= 0 {
		pollTick = time.Second
	}
	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}
	exportDir := opts.ExportDir
	if exportDir == "" {
		exportDir = "."
	}

	return Model{
		ctx:       ctx,
		store:     opts.Store,
		sync:      opts.Sync,
		advisor:   adv,
		clock:     clk,
		logPath:   opts.LogPath,
		exportDir: exportDir,
		prefsPath: prefsPath,
		pollTick:  pollTick,
		keys:      DefaultKeyMap(),
		theme:     GetTheme(opts.ThemeName),
		view:      ViewRunSheet,
		selected:  make(map[string]bool),
		logFollow: true,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(tickCmd(m.pollTick), m.fetchSnapshot())
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.logViewport = viewport.New(msg.Width, m.contentHeight())
		}
		m.ready = true
		m.logViewport.Width = msg.Width
		m.logViewport.Height = m.contentHeight()
		m.updateLogViewport()
		return m, nil

	case tickMsg:
		cmds := []tea.Cmd{m.fetchSnapshot(), tickCmd(m.pollTick)}
		if m.view == ViewLogs && m.logFollow {
			cmds = append(cmds, m.fetchLogs())
		}
		return m, tea.Batch(cmds...)

	case snapshotMsg:
		m.applySnapshot(msg)
		return m, nil

	case opResultMsg:
		m.setFlash(msg.note, msg.err)
		return m, m.fetchSnapshot()

	case adviceMsg:
		m.overlay = adviceOverlay(advisory.Result(msg))
		return m, nil

	case logLinesMsg:
		m.logLines = msg
		m.updateLogViewport()
		return m, nil

	case clearHighlightMsg:
		if m.highlightID == string(msg) {
			m.highlightID = ""
		}
		return m, nil
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	switch {
	case m.showHelp:
		return m.renderHelp()
	case m.form != nil:
		return m.renderForm()
	case m.prompt != nil:
		return m.renderPrompt()
	case m.confirm != nil:
		return m.renderConfirm()
	case m.overlay != nil:
		return m.renderOverlay()
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")
	b.WriteString(m.renderContent())
	return b.String()
}

func (m Model) renderContent() string {
	switch m.view {
	case ViewHistory:
		return m.renderHistory()
	case ViewMap:
		return m.renderMap()
	case ViewLogs:
		return m.renderLogs()
	default:
		return m.renderRunSheet()
	}
}

func (m Model) contentHeight() int {
	return max(m.height-3, 1) // header, command bar, flash line
}

// handleKey routes input to whichever modal is open, then to global and
// per-view bindings.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}
	if m.form != nil {
		return m.handleFormKey(msg)
	}
	if m.prompt != nil {
		return m.handlePromptKey(msg)
	}
	if m.confirm != nil {
		return m.handleConfirmKey(msg)
	}
	if m.overlay != nil {
		m.overlay = nil
		return m, nil
	}

	k := m.keys
	switch {
	case key.Matches(msg, k.Quit):
		return m, tea.Quit
	case key.Matches(msg, k.Help):
		m.showHelp = true
		return m, nil
	case key.Matches(msg, k.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		name := m.theme.Name
		if err := prefs.Update(m.prefsPath, func(p *prefs.Prefs) { p.Theme = name }); err != nil {
			m.setFlash("", err)
		}
		return m, nil
	case key.Matches(msg, k.Tab):
		return m.switchView(m.cycleView(1))
	case key.Matches(msg, k.ShiftTab):
		return m.switchView(m.cycleView(-1))
	case key.Matches(msg, k.Escape), key.Matches(msg, k.ViewRunSheet):
		return m.switchView(ViewRunSheet)
	case key.Matches(msg, k.ViewHistory):
		return m.switchView(ViewHistory)
	case key.Matches(msg, k.ViewLogs):
		return m.switchView(ViewLogs)
	case key.Matches(msg, k.ViewMap):
		return m.openMap()
	case key.Matches(msg, k.Add):
		m.form = newBookingForm()
		return m, m.form.focusCmd()
	case key.Matches(msg, k.Sync):
		m.prompt = newSyncPrompt()
		return m, m.prompt.focusCmd()
	case key.Matches(msg, k.Disconnect):
		return m.disconnect()
	case key.Matches(msg, k.Advise):
		return m, m.adviseCmd()
	case key.Matches(msg, k.Export):
		return m, m.exportCmd()
	}

	switch m.view {
	case ViewRunSheet, ViewHistory:
		return m.handleTableKey(msg)
	case ViewLogs:
		return m.handleLogsKey(msg)
	}
	return m, nil
}

func (m Model) cycleView(step int) View {
	for i, v := range viewOrder {
		if v == m.view {
			return viewOrder[(i+step+len(viewOrder))%len(viewOrder)]
		}
	}
	return ViewRunSheet
}

func (m Model) switchView(v View) (tea.Model, tea.Cmd) {
	m.view = v
	m.clampSelection()
	if v == ViewLogs {
		return m, m.fetchLogs()
	}
	return m, nil
}

// openMap switches to the map and highlights the selected booking until
// highlightTTL elapses.
func (m Model) openMap() (tea.Model, tea.Cmd) {
	m.view = ViewMap
	b, ok := m.currentBooking()
	if !ok || !b.IsActive() {
		return m, nil
	}
	m.highlightID = b.ID
	id := b.ID
	return m, tea.Tick(highlightTTL, func(time.Time) tea.Msg { return clearHighlightMsg(id) })
}

func (m Model) disconnect() (tea.Model, tea.Cmd) {
	if m.sync == nil || m.sync.Status().State == syncer.Disconnected {
		m.setFlash("Sync is not connected", nil)
		return m, nil
	}
	m.confirm = &confirmation{
		message: "Disconnect from sync session " + m.sync.Status().Key + "?",
		action: func() tea.Msg {
			m.sync.Disconnect()
			return opResultMsg{note: "Sync disconnected"}
		},
	}
	return m, nil
}

func (m *Model) applySnapshot(msg snapshotMsg) {
	m.snapshot = msg.snapshot
	m.syncStatus = msg.sync
	m.pruneSelection()
	m.clampSelection()
	if m.highlightID != "" {
		if _, ok := m.findBooking(m.highlightID); !ok {
			m.highlightID = ""
		}
	}
}

func (m *Model) setFlash(note string, err error) {
	if err != nil {
		m.flash = err.Error()
		m.flashErr = true
		return
	}
	m.flash = note
	m.flashErr = false
}

func (m Model) findBooking(id string) (booking.Booking, bool) {
	for _, b := range m.snapshot.Bookings {
		if b.ID == id {
			return b, true
		}
	}
	return booking.Booking{}, false
}

// Messages

type tickMsg time.Time

type snapshotMsg struct {
	snapshot state.Snapshot
	sync     syncer.Status
}

type opResultMsg struct {
	note string
	err  error
}

type adviceMsg advisory.Result

type logLinesMsg []string

type clearHighlightMsg string

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) fetchSnapshot() tea.Cmd {
	store, engine := m.store, m.sync
	return func() tea.Msg {
		var msg snapshotMsg
		if store != nil {
			msg.snapshot = store.Snapshot()
		}
		if engine != nil {
			msg.sync = engine.Status()
		}
		return msg
	}
}

// runOp executes a store operation off the UI goroutine.
func (m Model) runOp(fn func(ctx context.Context) (string, error)) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		note, err := fn(ctx)
		return opResultMsg{note: note, err: err}
	}
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	p := tea.NewProgram(New(opts), tea.WithAltScreen(), tea.WithContext(opts.Context))
	_, err := p.Run()
	return err
}
