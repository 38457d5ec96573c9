// Package export turns bookings into artifacts that leave the program: the
// delivery history workbook and printable carton labels.
package export

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/five82/swiftrun/internal/booking"
)

// SheetName is the single worksheet written by WriteWorkbook.
const SheetName = "Delivery History"

// ErrNoData is returned when there is nothing to export.
var ErrNoData = errors.New("no data available to export")

// Columns lists the workbook header row in order.
var Columns = []string{
	"Seq",
	"Status",
	"Customer Name",
	"Sales Order",
	"Purchase Order",
	"Pickup Location",
	"Delivery Address",
	"Contact Info",
	"Cartons",
	"Booked At",
	"Delivered At",
}

// DefaultFileName names the workbook after the UTC date of now.
func DefaultFileName(now time.Time) string {
	return fmt.Sprintf("SwiftRun_History_%s.xlsx", now.UTC().Format("2006-01-02"))
}

// WriteWorkbook writes rows as an XLSX workbook to w.
func WriteWorkbook(w io.Writer, rows []booking.Booking) error {
	if len(rows) == 0 {
		return ErrNoData
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	header := make([]any, len(Columns))
	for i, col := range Columns {
		header[i] = col
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, b := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []any{
			b.Sequence,
			string(b.Status),
			b.CustomerName,
			b.SalesOrder,
			b.PurchaseOrder,
			b.PickupLocation,
			b.DeliveryAddress,
			b.Contact,
			b.Cartons,
			orNA(b.BookedAt),
			orNA(b.DeliveredAt),
		}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func orNA(value string) string {
	if value == "" {
		return "N/A"
	}
	return value
}
