// Package view derives read-only projections from a bookings snapshot:
// the active run sheet, the delivered history, summary stats, and the
// points handed to the map collaborator. Nothing here owns state; every
// function is pure over its input.
package view

import (
	"sort"

	"github.com/five82/swiftrun/internal/booking"
	"github.com/five82/swiftrun/internal/category"
)

// Filter narrows a projection. Zero values match everything.
type Filter struct {
	Pickup category.Category
	Status booking.Status
}

// IsZero reports whether the filter matches everything.
func (f Filter) IsZero() bool {
	return f.Pickup == "" && f.Status == ""
}

// Match reports whether b passes the filter.
func (f Filter) Match(b booking.Booking) bool {
	if f.Pickup != "" && category.Classify(b.PickupLocation) != f.Pickup {
		return false
	}
	if f.Status != "" && b.Status != f.Status {
		return false
	}
	return true
}

// Projection is the split view of one snapshot.
type Projection struct {
	Active  []booking.Booking
	History []booking.Booking
}

// Project filters bookings and splits them into the active run (ascending
// sequence) and the delivered history (newest delivery first, ties by id).
func Project(bookings []booking.Booking, f Filter) Projection {
	var p Projection
	for _, b := range bookings {
		if !f.Match(b) {
			continue
		}
		if b.IsActive() {
			p.Active = append(p.Active, b.Clone())
		} else {
			p.History = append(p.History, b.Clone())
		}
	}
	sort.SliceStable(p.Active, func(i, j int) bool {
		return p.Active[i].Sequence < p.Active[j].Sequence
	})
	SortHistory(p.History)
	return p
}

// SortHistory orders delivered bookings by deliveredAt descending.
// Missing or unparseable timestamps sort as the epoch, i.e. last.
func SortHistory(items []booking.Booking) {
	sort.SliceStable(items, func(i, j int) bool {
		ti, tj := deliveredUnix(items[i]), deliveredUnix(items[j])
		if ti != tj {
			return ti > tj
		}
		return items[i].ID < items[j].ID
	})
}

func deliveredUnix(b booking.Booking) int64 {
	t := b.ParsedDeliveredAt()
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

// Stats summarises the whole snapshot, unfiltered.
type Stats struct {
	TotalDeliveries int
	DeliveredCount  int
	TotalCartons    int
}

// Remaining is the number of bookings still on the run.
func (s Stats) Remaining() int {
	return s.TotalDeliveries - s.DeliveredCount
}

// ComputeStats counts bookings, deliveries, and cartons.
func ComputeStats(bookings []booking.Booking) Stats {
	var s Stats
	for _, b := range bookings {
		s.TotalDeliveries++
		s.TotalCartons += b.Cartons
		if b.Status == booking.StatusDelivered {
			s.DeliveredCount++
		}
	}
	return s
}

// MapPoint is what the map collaborator plots for one booking.
type MapPoint struct {
	ID              string
	CustomerName    string
	DeliveryAddress string
	Latitude        *float64
	Longitude       *float64
	Highlighted     bool
}

// MapPoints returns one point per active booking in route order. The
// highlighted id is view state and never stored on a booking.
func MapPoints(bookings []booking.Booking, highlightID string) []MapPoint {
	active := Project(bookings, Filter{}).Active
	points := make([]MapPoint, 0, len(active))
	for _, b := range active {
		points = append(points, MapPoint{
			ID:              b.ID,
			CustomerName:    b.CustomerName,
			DeliveryAddress: b.DeliveryAddress,
			Latitude:        b.Latitude,
			Longitude:       b.Longitude,
			Highlighted:     highlightID != "" && b.ID == highlightID,
		})
	}
	return points
}

// ExportRows picks what a spreadsheet export contains: the filtered
// history when there is any, otherwise every booking.
func ExportRows(bookings []booking.Booking, f Filter) []booking.Booking {
	if history := Project(bookings, f).History; len(history) > 0 {
		return history
	}
	return booking.CloneAll(bookings)
}
