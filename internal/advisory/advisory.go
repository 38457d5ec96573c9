// Package advisory produces route notes for the active run sheet.
package advisory

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/five82/swiftrun/internal/booking"
	"github.com/five82/swiftrun/internal/category"
)

const (
	emptyMessage = "Add some deliveries to get a smart summary."
	errorMessage = "Error getting AI optimization. Please check your connection and API key."
)

// Link is a citation attached to advisory text.
type Link struct {
	Title string
	URI   string
}

// Result is the advisory text plus its citations.
type Result struct {
	Text  string
	Links []Link
}

// Advisor produces a Result for the given bookings, in run order.
type Advisor interface {
	Advise(ctx context.Context, bookings []booking.Booking) (Result, error)
}

// Safe calls a and never fails: empty input and advisor errors both map
// to fixed user-facing messages.
func Safe(ctx context.Context, a Advisor, bookings []booking.Booking) Result {
	if len(bookings) == 0 {
		return Result{Text: emptyMessage}
	}
	res, err := a.Advise(ctx, bookings)
	if err != nil {
		return Result{Text: errorMessage}
	}
	return res
}

// Summary is an offline Advisor that groups deliveries by pickup depot.
type Summary struct{}

var _ Advisor = Summary{}

// Advise implements Advisor.
func (Summary) Advise(ctx context.Context, bookings []booking.Booking) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if len(bookings) == 0 {
		return Result{Text: emptyMessage}, nil
	}

	groups := make(map[category.Category][]booking.Booking)
	cartons := 0
	for _, b := range bookings {
		c := category.Classify(b.PickupLocation)
		groups[c] = append(groups[c], b)
		cartons += b.Cartons
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d deliveries, %d cartons.\n", len(bookings), cartons)

	var links []Link
	for _, c := range category.Filters()[1:] {
		items := groups[c]
		if len(items) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "\nPickup %s (%d):\n", c.Label(), len(items))
		for i, b := range items {
			fmt.Fprintf(&sb, "  %d. %s at %s (%d cartons)\n", i+1, b.CustomerName, b.DeliveryAddress, b.Cartons)
			if b.DeliveryAddress != "" {
				links = append(links, Link{Title: b.CustomerName, URI: mapsSearchURL(b.DeliveryAddress)})
			}
		}
	}
	if len(groups) > 1 {
		sb.WriteString("\nLoad by depot to avoid doubling back between pickups.\n")
	}
	return Result{Text: strings.TrimRight(sb.String(), "\n"), Links: links}, nil
}

func mapsSearchURL(address string) string {
	q := url.Values{}
	q.Set("api", "1")
	q.Set("query", address)
	return "https://www.google.com/maps/search/?" + q.Encode()
}
