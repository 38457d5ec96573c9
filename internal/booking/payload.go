package booking

import (
	"fmt"
	"math"
	"strings"
)

// ValidationError lists the required fields a payload is missing. It is
// returned before anything reaches the store.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid booking: missing or invalid %s", strings.Join(e.Fields, ", "))
}

// Payload is what the input form hands to the store on add.
type Payload struct {
	PickupLocation       string
	CustomerName         string
	DeliveryAddress      string
	Contact              string
	Cartons              int
	SalesOrder           string
	PurchaseOrder        string
	DeliveryInstructions string
	Sequence             int // optional; zero appends to the end of the run
	Latitude             *float64
	Longitude            *float64
}

// Validate checks the required fields.
func (p Payload) Validate() error {
	var missing []string
	check := func(name, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	check("customerName", p.CustomerName)
	check("deliveryAddress", p.DeliveryAddress)
	check("contact", p.Contact)
	check("salesOrder", p.SalesOrder)
	if p.Cartons < 1 {
		missing = append(missing, "cartons")
	}
	if p.Sequence < 0 {
		missing = append(missing, "sequence")
	}
	missing = checkCoordinates(missing, p.Latitude, p.Longitude)
	if len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}
	return nil
}

// Fields is a partial update. Nil pointers leave the field untouched.
type Fields struct {
	PickupLocation       *string
	CustomerName         *string
	DeliveryAddress      *string
	Contact              *string
	Cartons              *int
	SalesOrder           *string
	PurchaseOrder        *string
	DeliveryInstructions *string
	Sequence             *int
	Status               *Status
	DeliveredAt          *string
	Latitude             *float64
	Longitude            *float64
}

// IsEmpty reports whether no field is set.
func (f Fields) IsEmpty() bool {
	return f == (Fields{})
}

// Validate rejects updates that would blank a required field or set an
// impossible value.
func (f Fields) Validate() error {
	var bad []string
	blank := func(name string, v *string) {
		if v != nil && strings.TrimSpace(*v) == "" {
			bad = append(bad, name)
		}
	}
	blank("customerName", f.CustomerName)
	blank("deliveryAddress", f.DeliveryAddress)
	blank("contact", f.Contact)
	blank("salesOrder", f.SalesOrder)
	if f.Cartons != nil && *f.Cartons < 1 {
		bad = append(bad, "cartons")
	}
	if f.Sequence != nil && *f.Sequence < 1 {
		bad = append(bad, "sequence")
	}
	if f.Status != nil {
		if _, ok := ParseStatus(string(*f.Status)); !ok {
			bad = append(bad, "status")
		}
	}
	bad = checkCoordinates(bad, f.Latitude, f.Longitude)
	if len(bad) > 0 {
		return &ValidationError{Fields: bad}
	}
	return nil
}

// checkCoordinates appends the name of each set coordinate that is not a
// finite value within its range.
func checkCoordinates(bad []string, lat, lng *float64) []string {
	if lat != nil && !inRange(*lat, 90) {
		bad = append(bad, "latitude")
	}
	if lng != nil && !inRange(*lng, 180) {
		bad = append(bad, "longitude")
	}
	return bad
}

func inRange(v, limit float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= -limit && v <= limit
}

func (f Fields) apply(b *Booking) {
	setString(&b.PickupLocation, f.PickupLocation)
	setString(&b.CustomerName, f.CustomerName)
	setString(&b.DeliveryAddress, f.DeliveryAddress)
	setString(&b.Contact, f.Contact)
	setString(&b.SalesOrder, f.SalesOrder)
	setString(&b.PurchaseOrder, f.PurchaseOrder)
	setString(&b.DeliveryInstructions, f.DeliveryInstructions)
	setString(&b.DeliveredAt, f.DeliveredAt)
	if f.Cartons != nil {
		b.Cartons = *f.Cartons
	}
	if f.Sequence != nil {
		b.Sequence = *f.Sequence
	}
	if f.Status != nil {
		b.Status = *f.Status
	}
	if f.Latitude != nil {
		v := *f.Latitude
		b.Latitude = &v
	}
	if f.Longitude != nil {
		v := *f.Longitude
		b.Longitude = &v
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
