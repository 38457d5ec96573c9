package booking

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// legacyTimestampLayout is the short display format older clients wrote
// into bookedAt/deliveredAt ("Mar 2, 09:15 AM").
const legacyTimestampLayout = "Jan 2, 03:04 PM"

// Status is a booking's position in the Pending → On Board → Delivered cycle.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusOnBoard   Status = "On Board"
	StatusDelivered Status = "Delivered"
)

// Statuses lists every status in cycle order.
func Statuses() []Status {
	return []Status{StatusPending, StatusOnBoard, StatusDelivered}
}

// Next returns the successor in the cycle. Every status has exactly one;
// Delivered wraps back to Pending so a mistaken delivery can be undone.
func (s Status) Next() Status {
	switch s {
	case StatusPending:
		return StatusOnBoard
	case StatusOnBoard:
		return StatusDelivered
	default:
		return StatusPending
	}
}

// ParseStatus accepts the canonical names plus common spellings
// ("onboard", "on-board", "on_board"), case-insensitively.
func ParseStatus(value string) (Status, bool) {
	v := strings.ToLower(strings.TrimSpace(value))
	v = strings.NewReplacer("-", " ", "_", " ").Replace(v)
	switch v {
	case "pending":
		return StatusPending, true
	case "on board", "onboard":
		return StatusOnBoard, true
	case "delivered":
		return StatusDelivered, true
	}
	return "", false
}

// Booking is one delivery task.
type Booking struct {
	ID                   string   `json:"id"`
	Sequence             int      `json:"sequence,omitempty"`
	Status               Status   `json:"status"`
	PickupLocation       string   `json:"pickupLocation"`
	CustomerName         string   `json:"customerName"`
	DeliveryAddress      string   `json:"deliveryAddress"`
	Contact              string   `json:"contact"`
	Cartons              int      `json:"cartons"`
	SalesOrder           string   `json:"salesOrder"`
	PurchaseOrder        string   `json:"purchaseOrder"`
	DeliveryInstructions string   `json:"deliveryInstructions,omitempty"`
	BookedAt             string   `json:"bookedAt,omitempty"`
	DeliveredAt          string   `json:"deliveredAt,omitempty"`
	Latitude             *float64 `json:"latitude,omitempty"`
	Longitude            *float64 `json:"longitude,omitempty"`
}

// IsActive reports whether the booking still belongs to the run (not delivered).
func (b Booking) IsActive() bool {
	return b.Status != StatusDelivered
}

// HasCoordinates reports whether both coordinates were pre-resolved.
func (b Booking) HasCoordinates() bool {
	return b.Latitude != nil && b.Longitude != nil
}

// ParsedBookedAt returns BookedAt as a time, or the zero time.
func (b Booking) ParsedBookedAt() time.Time {
	return ParseTimestamp(b.BookedAt)
}

// ParsedDeliveredAt returns DeliveredAt as a time, or the zero time.
func (b Booking) ParsedDeliveredAt() time.Time {
	return ParseTimestamp(b.DeliveredAt)
}

// Clone returns a deep copy.
func (b Booking) Clone() Booking {
	dup := b
	if b.Latitude != nil {
		v := *b.Latitude
		dup.Latitude = &v
	}
	if b.Longitude != nil {
		v := *b.Longitude
		dup.Longitude = &v
	}
	return dup
}

// CloneAll deep-copies a slice. A nil or empty input yields nil.
func CloneAll(items []Booking) []Booking {
	if len(items) == 0 {
		return nil
	}
	dup := make([]Booking, len(items))
	for i, b := range items {
		dup[i] = b.Clone()
	}
	return dup
}

// Decode parses a JSON array of bookings. A JSON null decodes as an
// empty list.
func Decode(data []byte) ([]Booking, error) {
	var items []Booking
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode bookings: %w", err)
	}
	return items, nil
}

// Encode renders bookings as a JSON array. nil encodes as [] so remote
// readers never see null.
func Encode(items []Booking) ([]byte, error) {
	if items == nil {
		items = []Booking{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("encode bookings: %w", err)
	}
	return data, nil
}

// FormatTimestamp renders t the way bookedAt/deliveredAt are stored.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// ParseTimestamp parses stored timestamps, including the legacy display
// layout. Unparseable values yield the zero time.
func ParseTimestamp(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	if t, err := time.ParseInLocation(legacyTimestampLayout, value, time.Local); err == nil {
		return t
	}
	return time.Time{}
}
