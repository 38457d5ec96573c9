package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/swiftrun/internal/booking"
	"github.com/five82/swiftrun/internal/category"
)

const labelWidth = 44

var (
	labelBox = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			Padding(0, 1).
			Width(labelWidth)
	labelStrong = lipgloss.NewStyle().Bold(true)
	labelDim    = lipgloss.NewStyle().Faint(true)
	labelRule   = strings.Repeat("─", labelWidth-2)
)

// RenderLabels renders one label per carton, numbered "i of N". A booking
// with no cartons still gets a single label.
func RenderLabels(b booking.Booking, now time.Time) string {
	total := max(b.Cartons, 1)
	labels := make([]string, 0, total)
	for i := 1; i <= total; i++ {
		labels = append(labels, renderLabel(b, i, total, now))
	}
	return strings.Join(labels, "\n\n")
}

func renderLabel(b booking.Booking, n, total int, now time.Time) string {
	head := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(labelWidth/2-1).Render(labelStrong.Render(category.DisplayCode(b.PickupLocation))),
		lipgloss.NewStyle().Width(labelWidth/2-1).Align(lipgloss.Right).Render("SWIFTRUN\n"+now.Format("2006-01-02")),
	)

	lines := []string{
		head,
		labelRule,
		labelDim.Render("SHIP TO:"),
		labelStrong.Render(b.CustomerName),
		b.DeliveryAddress,
		"Attn: " + b.Contact,
		labelRule,
		fmt.Sprintf("Sales Order:    %s", b.SalesOrder),
		fmt.Sprintf("Purchase Order: %s", orNA(b.PurchaseOrder)),
		labelRule,
		fmt.Sprintf("BOOKED: %s", orNA(b.BookedAt)),
		labelStrong.Render(fmt.Sprintf("CARTON %d of %d", n, total)),
	}
	return labelBox.Render(strings.Join(lines, "\n"))
}
