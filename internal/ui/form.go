package ui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/swiftrun/internal/booking"
	"github.com/five82/swiftrun/internal/category"
	"github.com/five82/swiftrun/internal/customer"
	"github.com/five82/swiftrun/internal/syncer"
)

const (
	fieldCustomer = iota
	fieldAddress
	fieldContact
	fieldPickup
	fieldCartons
	fieldSalesOrder
	fieldPurchaseOrder
	fieldInstructions
	fieldCount
)

var fieldLabels = [fieldCount]string{
	"Customer",
	"Delivery address",
	"Contact",
	"Pickup (SG/WB/RF or address)",
	"Cartons",
	"Sales order",
	"Purchase order",
	"Instructions",
}

// bookingForm collects a new booking.
type bookingForm struct {
	inputs      [fieldCount]textinput.Model
	focus       int
	saveContact bool
	err         string
}

func newBookingForm() *bookingForm {
	f := &bookingForm{}
	for i := range f.inputs {
		in := textinput.New()
		in.Prompt = ""
		in.CharLimit = 200
		f.inputs[i] = in
	}
	f.inputs[fieldCartons].SetValue("1")
	f.inputs[fieldCartons].CharLimit = 4
	f.inputs[fieldPickup].Placeholder = string(category.Sandgate)
	f.inputs[fieldCustomer].Focus()
	return f
}

func (f *bookingForm) focusCmd() tea.Cmd {
	return textinput.Blink
}

func (f *bookingForm) setFocus(i int) {
	f.inputs[f.focus].Blur()
	f.focus = (i + fieldCount) % fieldCount
	f.inputs[f.focus].Focus()
}

// fillFromContact copies address and contact from a saved customer with
// the same name, leaving anything already typed alone.
func (f *bookingForm) fillFromContact(customers []customer.Customer) {
	name := strings.TrimSpace(f.inputs[fieldCustomer].Value())
	if name == "" {
		return
	}
	for _, c := range customers {
		if !strings.EqualFold(strings.TrimSpace(c.Name), name) {
			continue
		}
		if f.inputs[fieldAddress].Value() == "" {
			f.inputs[fieldAddress].SetValue(c.Address)
		}
		if f.inputs[fieldContact].Value() == "" {
			f.inputs[fieldContact].SetValue(c.Contact)
		}
		return
	}
}

// payload converts the form into a validated booking payload.
func (f *bookingForm) payload() (booking.Payload, error) {
	value := func(i int) string { return strings.TrimSpace(f.inputs[i].Value()) }

	cartons, err := strconv.Atoi(value(fieldCartons))
	if err != nil {
		return booking.Payload{}, &booking.ValidationError{Fields: []string{"cartons"}}
	}
	p := booking.Payload{
		CustomerName:         value(fieldCustomer),
		DeliveryAddress:      value(fieldAddress),
		Contact:              value(fieldContact),
		PickupLocation:       resolvePickup(value(fieldPickup)),
		Cartons:              cartons,
		SalesOrder:           value(fieldSalesOrder),
		PurchaseOrder:        value(fieldPurchaseOrder),
		DeliveryInstructions: value(fieldInstructions),
	}
	if err := p.Validate(); err != nil {
		return booking.Payload{}, err
	}
	return p, nil
}

// resolvePickup expands a depot code into its address; anything else is
// taken as a custom pickup address.
func resolvePickup(value string) string {
	if c, ok := category.ParseFilter(value); ok && c != "" && c != category.Other {
		if p, ok := category.Lookup(c); ok {
			return p.Address
		}
	}
	return value
}

func (m Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := m.form
	switch msg.String() {
	case "esc":
		m.form = nil
		return m, nil
	case "tab", "down":
		if f.focus == fieldCustomer {
			f.fillFromContact(m.snapshot.Customers)
		}
		f.setFocus(f.focus + 1)
		return m, nil
	case "shift+tab", "up":
		f.setFocus(f.focus - 1)
		return m, nil
	case "ctrl+s":
		f.saveContact = !f.saveContact
		return m, nil
	case "enter":
		if f.focus == fieldCustomer {
			f.fillFromContact(m.snapshot.Customers)
		}
		if f.focus < fieldCount-1 {
			f.setFocus(f.focus + 1)
			return m, nil
		}
		return m.submitForm()
	case "ctrl+enter", "ctrl+d":
		return m.submitForm()
	}

	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return m, cmd
}

func (m Model) submitForm() (tea.Model, tea.Cmd) {
	f := m.form
	p, err := f.payload()
	if err != nil {
		f.err = err.Error()
		return m, nil
	}
	save := f.saveContact
	store := m.store
	m.form = nil
	return m, m.runOp(func(ctx context.Context) (string, error) {
		b, err := store.AddBooking(ctx, p, save)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Added %s as #%d", b.CustomerName, b.Sequence), nil
	})
}

func (m Model) renderForm() string {
	f := m.form
	styles := m.theme.Styles()

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("New delivery"))
	b.WriteString("\n\n")
	for i, in := range f.inputs {
		label := styles.MutedText.Width(30).Render(fieldLabels[i])
		if i == f.focus {
			label = styles.AccentText.Width(30).Render(fieldLabels[i])
		}
		b.WriteString(label + in.View() + "\n")
	}
	save := "[ ]"
	if f.saveContact {
		save = "[x]"
	}
	b.WriteString("\n" + styles.Text.Render(save+" save to contacts (ctrl+s)") + "\n")
	if f.err != "" {
		b.WriteString("\n" + styles.DangerText.Render(f.err) + "\n")
	}
	b.WriteString("\n" + styles.FaintText.Render("tab next · enter on last field saves · esc cancel"))
	return m.renderModal(b.String(), 72)
}

// syncPrompt asks for a sync key to join; blank starts a new session.
type syncPrompt struct {
	input textinput.Model
}

func newSyncPrompt() *syncPrompt {
	in := textinput.New()
	in.Placeholder = "leave blank to start a new session"
	in.CharLimit = 128
	in.Focus()
	return &syncPrompt{input: in}
}

func (p *syncPrompt) focusCmd() tea.Cmd {
	return textinput.Blink
}

func (m Model) handlePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.prompt = nil
		return m, nil
	case "enter":
		key := strings.TrimSpace(m.prompt.input.Value())
		m.prompt = nil
		return m, m.syncCmd(key)
	}
	var cmd tea.Cmd
	m.prompt.input, cmd = m.prompt.input.Update(msg)
	return m, cmd
}

func (m Model) syncCmd(key string) tea.Cmd {
	engine := m.sync
	return m.runOp(func(ctx context.Context) (string, error) {
		if engine == nil {
			return "", errors.New("sync is not configured")
		}
		if key == "" {
			k, err := engine.Bootstrap(ctx)
			if err != nil {
				return "", err
			}
			return "Sync started, share key " + k, nil
		}
		if err := engine.Join(ctx, key); err != nil {
			return "", err
		}
		return "Joined sync " + key, nil
	})
}

func (m Model) renderPrompt() string {
	styles := m.theme.Styles()
	title := "Join sync session"
	if m.syncStatus.State == syncer.Connected {
		title = "Switch sync session (current " + m.syncStatus.Key + ")"
	}
	content := styles.Text.Bold(true).Render(title) + "\n\n" +
		m.prompt.input.View() + "\n\n" +
		styles.FaintText.Render("enter confirm · esc cancel")
	return m.renderModal(content, 60)
}

// confirmation is a yes/no question guarding action.
type confirmation struct {
	message string
	action  tea.Cmd
}

func (m Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	c := m.confirm
	m.confirm = nil
	switch msg.String() {
	case "y", "Y", "enter":
		return m, c.action
	}
	return m, nil
}

func (m Model) renderConfirm() string {
	styles := m.theme.Styles()
	content := styles.WarningText.Render(m.confirm.message) + "\n\n" +
		styles.FaintText.Render("y confirm · any other key cancels")
	return m.renderModal(content, 56)
}

func (m Model) renderModal(content string, width int) string {
	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.Accent)).
		Padding(1, 2).
		Width(min(width, max(m.width-4, 20)))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal.Render(content))
}
