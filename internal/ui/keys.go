package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the keyboard bindings.
type keyMap struct {
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	Tab        key.Binding
	ShiftTab   key.Binding
	Escape     key.Binding

	ViewRunSheet key.Binding
	ViewHistory  key.Binding
	ViewMap      key.Binding
	ViewLogs     key.Binding

	Up     key.Binding
	Down   key.Binding
	Top    key.Binding
	Bottom key.Binding

	PickupFilter key.Binding
	StatusFilter key.Binding
	ClearFilters key.Binding

	Add          key.Binding
	Toggle       key.Binding
	Select       key.Binding
	DeliverSel   key.Binding
	MoveUp       key.Binding
	MoveDown     key.Binding
	Delete       key.Binding
	Labels       key.Binding
	Export       key.Binding
	Advise       key.Binding
	Sync         key.Binding
	Disconnect   key.Binding
	ToggleFollow key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit:       key.NewBinding(key.WithKeys("ctrl+c", "e"), key.WithHelp("e", "Quit")),
		Help:       key.NewBinding(key.WithKeys("h", "?"), key.WithHelp("h/?", "Toggle help")),
		CycleTheme: key.NewBinding(key.WithKeys("T"), key.WithHelp("T", "Cycle theme")),
		Tab:        key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "Next view")),
		ShiftTab:   key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "Previous view")),
		Escape:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "Back to run sheet")),

		ViewRunSheet: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "Run sheet")),
		ViewHistory:  key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "History")),
		ViewMap:      key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "Map (highlights selection)")),
		ViewLogs:     key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "Logs")),

		Up:     key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/up", "Move up")),
		Down:   key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/down", "Move down")),
		Top:    key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g", "Go to top")),
		Bottom: key.NewBinding(key.WithKeys("G", "end"), key.WithHelp("G", "Go to bottom")),

		PickupFilter: key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "Cycle pickup filter")),
		StatusFilter: key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "Cycle status filter")),
		ClearFilters: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "Clear filters")),

		Add:          key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "Add booking")),
		Toggle:       key.NewBinding(key.WithKeys("enter", "t"), key.WithHelp("enter/t", "Advance status")),
		Select:       key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "Select row")),
		DeliverSel:   key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "Deliver selected")),
		MoveUp:       key.NewBinding(key.WithKeys("K", "shift+up"), key.WithHelp("K", "Move booking up")),
		MoveDown:     key.NewBinding(key.WithKeys("J", "shift+down"), key.WithHelp("J", "Move booking down")),
		Delete:       key.NewBinding(key.WithKeys("x", "delete"), key.WithHelp("x", "Delete booking")),
		Labels:       key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "Carton labels")),
		Export:       key.NewBinding(key.WithKeys("E"), key.WithHelp("E", "Export history")),
		Advise:       key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "Route advice")),
		Sync:         key.NewBinding(key.WithKeys("S"), key.WithHelp("S", "Start or join sync")),
		Disconnect:   key.NewBinding(key.WithKeys("U"), key.WithHelp("U", "Disconnect sync")),
		ToggleFollow: key.NewBinding(key.WithKeys("F"), key.WithHelp("F", "Toggle log follow")),
	}
}

type keyHelp struct {
	key  string
	desc string
}

func helpFor(bindings ...key.Binding) []keyHelp {
	out := make([]keyHelp, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		out = append(out, keyHelp{key: h.Key, desc: h.Desc})
	}
	return out
}
