// Package category maps a booking's pickup location onto the fixed set of
// depot codes used for filtering and labels.
package category

import "strings"

// Category is a depot code. Unmatched pickup locations are Other.
type Category string

const (
	Sandgate   Category = "SG"
	WarnersBay Category = "WB"
	Rutherford Category = "RF"
	Other      Category = "Other"
)

const customLabel = "Custom"

// Preset is a known pickup depot.
type Preset struct {
	Code    Category
	Name    string
	Address string
}

var presets = []Preset{
	{Code: Sandgate, Name: "Sandgate (SG)", Address: "58 Maitland Road, Sandgate NSW 2304"},
	{Code: WarnersBay, Name: "Warners Bay (WB)", Address: "391 Hillsborough Rd, Warners Bay NSW 2282"},
	{Code: Rutherford, Name: "Rutherford (RF)", Address: "Homemaker Centre, Building B/366 New England Hwy, Rutherford NSW 2320"},
}

// Presets returns a copy of the preset table in display order.
func Presets() []Preset {
	out := make([]Preset, len(presets))
	copy(out, presets)
	return out
}

// Lookup returns the preset for code.
func Lookup(code Category) (Preset, bool) {
	for _, p := range presets {
		if p.Code == code {
			return p, true
		}
	}
	return Preset{}, false
}

// Classify matches pickup exactly against the preset addresses.
func Classify(pickup string) Category {
	for _, p := range presets {
		if p.Address == pickup {
			return p.Code
		}
	}
	return Other
}

// DisplayCode is the short code printed on labels: the preset code, or
// "Custom" for ad-hoc pickup addresses.
func DisplayCode(pickup string) string {
	if c := Classify(pickup); c != Other {
		return string(c)
	}
	return customLabel
}

// Filters lists the pickup filter values in cycle order. The empty
// category means "All".
func Filters() []Category {
	return []Category{"", Sandgate, WarnersBay, Rutherford, Other}
}

// ParseFilter parses a user-supplied filter. "", "all" map to the empty
// (match everything) category.
func ParseFilter(value string) (Category, bool) {
	v := strings.TrimSpace(value)
	if v == "" || strings.EqualFold(v, "all") {
		return "", true
	}
	for _, c := range Filters()[1:] {
		if strings.EqualFold(v, string(c)) {
			return c, true
		}
	}
	return "", false
}

// Label renders a filter value for display.
func (c Category) Label() string {
	if c == "" {
		return "All"
	}
	return string(c)
}
