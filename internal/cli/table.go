package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/five82/swiftrun/internal/booking"
	"github.com/five82/swiftrun/internal/category"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func renderTable(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	return t.String()
}

func bookingRows(items []booking.Booking, history bool) ([]string, [][]string) {
	headers := []string{"#", "ID", "Pickup", "Customer", "Address", "Ctns", "Status", "SO"}
	if history {
		headers = append(headers, "Delivered")
	}
	rows := make([][]string, 0, len(items))
	for _, b := range items {
		row := []string{
			strconv.Itoa(b.Sequence),
			shortID(b.ID),
			category.DisplayCode(b.PickupLocation),
			b.CustomerName,
			b.DeliveryAddress,
			strconv.Itoa(b.Cartons),
			string(b.Status),
			b.SalesOrder,
		}
		if history {
			row = append(row, b.DeliveredAt)
		}
		rows = append(rows, row)
	}
	return headers, rows
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// resolveID matches arg against booking ids, exactly or by unique prefix.
func resolveID(items []booking.Booking, arg string) (string, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return "", fmt.Errorf("empty booking id")
	}
	var match string
	for _, b := range items {
		if b.ID == arg {
			return b.ID, nil
		}
		if strings.HasPrefix(b.ID, arg) {
			if match != "" {
				return "", fmt.Errorf("booking id %q is ambiguous", arg)
			}
			match = b.ID
		}
	}
	if match == "" {
		return "", fmt.Errorf("no booking with id %q", arg)
	}
	return match, nil
}
