package ui

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/swiftrun/internal/booking"
	"github.com/five82/swiftrun/internal/category"
	"github.com/five82/swiftrun/internal/clock"
	"github.com/five82/swiftrun/internal/customer"
	"github.com/five82/swiftrun/internal/prefs"
	"github.com/five82/swiftrun/internal/state"
)

func newTestModel(t *testing.T) (Model, *state.Store) {
	t.Helper()
	store := state.New(nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go store.Run(ctx)

	m := New(Options{
		Context:   ctx,
		Store:     store,
		Clock:     clock.Fake(time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)),
		PrefsPath: filepath.Join(t.TempDir(), "prefs.toml"),
		ExportDir: t.TempDir(),
	})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return next.(Model), store
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

// settle runs an operation command and feeds its result plus the
// follow-up snapshot back into the model.
func settle(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	m, follow := send(t, m, cmd())
	if follow != nil {
		m, _ = send(t, m, follow())
	}
	return m
}

func refresh(t *testing.T, m Model) Model {
	t.Helper()
	m, _ = send(t, m, m.fetchSnapshot()())
	return m
}

func addBooking(t *testing.T, store *state.Store, name string) booking.Booking {
	t.Helper()
	b, err := store.AddBooking(context.Background(), booking.Payload{
		CustomerName:    name,
		DeliveryAddress: name + " Street",
		Contact:         "0400 000 000",
		SalesOrder:      "SO-" + name,
		Cartons:         2,
	}, false)
	if err != nil {
		t.Fatalf("AddBooking: %v", err)
	}
	return b
}

func TestThemeCycle(t *testing.T) {
	names := ThemeNames()
	if len(names) != 3 || names[0] != "Nightfox" {
		t.Fatalf("ThemeNames = %v", names)
	}
	for i, name := range names {
		want := names[(i+1)%len(names)]
		if got := NextTheme(name); got != want {
			t.Fatalf("NextTheme(%q) = %q, want %q", name, got, want)
		}
	}
	if NextTheme("Unknown") != "Nightfox" || GetTheme("Unknown").Name != "Nightfox" {
		t.Fatal("unknown themes should fall back to Nightfox")
	}
	for _, name := range names {
		theme := GetTheme(name)
		seen := map[string]booking.Status{}
		for _, st := range booking.Statuses() {
			c := theme.StatusColor(st)
			if c == "" {
				t.Fatalf("theme %s has no color for %s", name, st)
			}
			if prev, dup := seen[c]; dup {
				t.Fatalf("theme %s shares %s between %s and %s", name, c, prev, st)
			}
			seen[c] = st
		}
	}
}

func TestCycleThemePersistsPreference(t *testing.T) {
	m, _ := newTestModel(t)
	m, _ = send(t, m, runes("T"))
	if m.theme.Name != "Kanagawa" {
		t.Fatalf("theme = %s", m.theme.Name)
	}
	saved, err := prefs.Load(m.prefsPath)
	if err != nil {
		t.Fatalf("prefs.Load: %v", err)
	}
	if saved.Theme != "Kanagawa" {
		t.Fatalf("saved theme = %q", saved.Theme)
	}
}

func TestFilterKeys(t *testing.T) {
	m, _ := newTestModel(t)

	m, _ = send(t, m, runes("f"))
	if m.filter.Pickup != category.Sandgate {
		t.Fatalf("pickup filter = %q", m.filter.Pickup)
	}
	m, _ = send(t, m, runes("s"))
	if m.filter.Status != booking.StatusPending {
		t.Fatalf("status filter = %q", m.filter.Status)
	}
	m, _ = send(t, m, runes("c"))
	if !m.filter.IsZero() {
		t.Fatalf("filters not cleared: %+v", m.filter)
	}
}

func TestAddFormSubmitsBooking(t *testing.T) {
	m, store := newTestModel(t)

	m, _ = send(t, m, runes("a"))
	if m.form == nil {
		t.Fatal("form did not open")
	}
	values := map[int]string{
		fieldCustomer:   "Acme",
		fieldAddress:    "1 Main St",
		fieldContact:    "Ann",
		fieldPickup:     "wb",
		fieldCartons:    "3",
		fieldSalesOrder: "SO-9",
	}
	for i, v := range values {
		m.form.inputs[i].SetValue(v)
	}
	m.form.saveContact = true

	m, cmd := send(t, m, tea.KeyMsg{Type: tea.KeyCtrlD})
	if m.form != nil {
		t.Fatalf("form still open: %s", m.form.err)
	}
	m = settle(t, m, cmd)

	snap := store.Snapshot()
	if len(snap.Bookings) != 1 {
		t.Fatalf("bookings = %d", len(snap.Bookings))
	}
	wb, _ := category.Lookup(category.WarnersBay)
	if got := snap.Bookings[0]; got.PickupLocation != wb.Address || got.Cartons != 3 {
		t.Fatalf("booking = %+v", got)
	}
	if len(snap.Customers) != 1 {
		t.Fatalf("customers = %d, want contact saved", len(snap.Customers))
	}
	if !strings.Contains(m.flash, "Added Acme as #1") {
		t.Fatalf("flash = %q", m.flash)
	}
}

func TestAddFormValidation(t *testing.T) {
	m, store := newTestModel(t)
	m, _ = send(t, m, runes("a"))
	m.form.inputs[fieldCustomer].SetValue("Acme")
	m.form.inputs[fieldCartons].SetValue("lots")

	m, cmd := send(t, m, tea.KeyMsg{Type: tea.KeyCtrlD})
	if cmd != nil || m.form == nil {
		t.Fatal("invalid form should stay open")
	}
	if !strings.Contains(m.form.err, "cartons") {
		t.Fatalf("form error = %q", m.form.err)
	}
	if len(store.Snapshot().Bookings) != 0 {
		t.Fatal("nothing should be stored")
	}
}

func TestFormFillsFromSavedContact(t *testing.T) {
	f := newBookingForm()
	f.inputs[fieldCustomer].SetValue("acme ")
	f.inputs[fieldContact].SetValue("Typed")
	f.fillFromContact(nil)
	f.fillFromContact([]customer.Customer{{ID: "c1", Name: "Acme", Address: "1 Main St", Contact: "Ann"}})

	if f.inputs[fieldAddress].Value() != "1 Main St" {
		t.Fatalf("address = %q", f.inputs[fieldAddress].Value())
	}
	if f.inputs[fieldContact].Value() != "Typed" {
		t.Fatal("typed contact should be kept")
	}
}

func TestResolvePickup(t *testing.T) {
	sg, _ := category.Lookup(category.Sandgate)
	tests := map[string]string{
		"SG":         sg.Address,
		"sg":         sg.Address,
		"Other":      "Other",
		"12 Dock Rd": "12 Dock Rd",
		"":           "",
	}
	for in, want := range tests {
		if got := resolvePickup(in); got != want {
			t.Fatalf("resolvePickup(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBulkDeliverSelectedAndPrune(t *testing.T) {
	m, store := newTestModel(t)
	a := addBooking(t, store, "A")
	addBooking(t, store, "B")
	c := addBooking(t, store, "C")
	m = refresh(t, m)

	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeySpace})
	m, _ = send(t, m, runes("G"))
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeySpace})
	if len(m.selected) != 2 || !m.selected[a.ID] || !m.selected[c.ID] {
		t.Fatalf("selected = %v", m.selected)
	}

	m, cmd := send(t, m, runes("D"))
	m = settle(t, m, cmd)

	delivered := 0
	for _, b := range store.Snapshot().Bookings {
		if b.Status == booking.StatusDelivered {
			delivered++
			if b.ID != a.ID && b.ID != c.ID {
				t.Fatalf("unexpected delivery of %s", b.CustomerName)
			}
		}
	}
	if delivered != 2 {
		t.Fatalf("delivered = %d", delivered)
	}
	if len(m.rows()) != 1 {
		t.Fatalf("run sheet rows = %d", len(m.rows()))
	}

	// Selecting, then deleting elsewhere, prunes the stale id.
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeySpace})
	if len(m.selected) != 1 {
		t.Fatalf("selected = %v", m.selected)
	}
	if _, err := store.DeleteBooking(context.Background(), m.rows()[0].ID); err != nil {
		t.Fatalf("DeleteBooking: %v", err)
	}
	m = refresh(t, m)
	if len(m.selected) != 0 {
		t.Fatalf("selection not pruned: %v", m.selected)
	}
}

func TestMoveKeysReorder(t *testing.T) {
	m, store := newTestModel(t)
	a := addBooking(t, store, "A")
	b := addBooking(t, store, "B")
	m = refresh(t, m)

	m, _ = send(t, m, runes("j"))
	m, cmd := send(t, m, runes("K"))
	m = settle(t, m, cmd)

	rows := m.rows()
	if rows[0].ID != b.ID || rows[1].ID != a.ID {
		t.Fatalf("order = %s, %s", rows[0].CustomerName, rows[1].CustomerName)
	}
	if m.selectedRow != 0 {
		t.Fatalf("cursor should follow the moved booking, at %d", m.selectedRow)
	}
}

func TestDeleteNeedsConfirmation(t *testing.T) {
	m, store := newTestModel(t)
	addBooking(t, store, "A")
	m = refresh(t, m)

	m, _ = send(t, m, runes("x"))
	if m.confirm == nil {
		t.Fatal("expected confirmation")
	}
	m, cmd := send(t, m, runes("n"))
	if cmd != nil || m.confirm != nil {
		t.Fatal("declining should do nothing")
	}

	m, _ = send(t, m, runes("x"))
	m, cmd = send(t, m, runes("y"))
	settle(t, m, cmd)
	if len(store.Snapshot().Bookings) != 0 {
		t.Fatal("booking not deleted")
	}
}

func TestMapHighlightAutoClears(t *testing.T) {
	m, store := newTestModel(t)
	a := addBooking(t, store, "A")
	m = refresh(t, m)

	m, cmd := send(t, m, runes("m"))
	if m.view != ViewMap || m.highlightID != a.ID || cmd == nil {
		t.Fatalf("view=%v highlight=%q", m.view, m.highlightID)
	}
	if !strings.Contains(m.View(), "▶") {
		t.Fatal("highlighted stop not marked")
	}

	m, _ = send(t, m, clearHighlightMsg("other"))
	if m.highlightID != a.ID {
		t.Fatal("stale clear removed the current highlight")
	}
	m, _ = send(t, m, clearHighlightMsg(a.ID))
	if m.highlightID != "" {
		t.Fatal("highlight not cleared")
	}
}

func TestLabelsOverlay(t *testing.T) {
	m, store := newTestModel(t)
	addBooking(t, store, "A")
	m = refresh(t, m)

	m, _ = send(t, m, runes("p"))
	if m.overlay == nil || !strings.Contains(m.overlay.body, "CARTON 2 of 2") {
		t.Fatalf("overlay = %+v", m.overlay)
	}
	m, _ = send(t, m, runes("q"))
	if m.overlay != nil {
		t.Fatal("any key should close the overlay")
	}
}

func TestViewRendersRunSheet(t *testing.T) {
	m, store := newTestModel(t)
	addBooking(t, store, "Acme")
	m = refresh(t, m)

	out := m.View()
	for _, want := range []string{"Run Sheet (1)", "Acme", "1 deliveries", "LOCAL"} {
		if !strings.Contains(out, want) {
			t.Fatalf("view missing %q", want)
		}
	}
}
