package category

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		pickup string
		want   Category
	}{
		{"sandgate", "58 Maitland Road, Sandgate NSW 2304", Sandgate},
		{"warners bay", "391 Hillsborough Rd, Warners Bay NSW 2282", WarnersBay},
		{"rutherford", "Homemaker Centre, Building B/366 New England Hwy, Rutherford NSW 2320", Rutherford},
		{"custom address", "12 Hunter St, Newcastle NSW 2300", Other},
		{"empty", "", Other},
		{"not trimmed", " 58 Maitland Road, Sandgate NSW 2304", Other},
		{"case differs", "58 maitland road, sandgate nsw 2304", Other},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.pickup); got != tt.want {
				t.Fatalf("Classify(%q) = %q, want %q", tt.pickup, got, tt.want)
			}
		})
	}
}

func TestDisplayCode(t *testing.T) {
	p, ok := Lookup(WarnersBay)
	if !ok {
		t.Fatal("Lookup(WB) not found")
	}
	if got := DisplayCode(p.Address); got != "WB" {
		t.Fatalf("DisplayCode preset = %q, want WB", got)
	}
	if got := DisplayCode("somewhere else"); got != "Custom" {
		t.Fatalf("DisplayCode custom = %q, want Custom", got)
	}
}

func TestParseFilter(t *testing.T) {
	tests := []struct {
		in     string
		want   Category
		wantOK bool
	}{
		{"", "", true},
		{"All", "", true},
		{"sg", Sandgate, true},
		{" RF ", Rutherford, true},
		{"other", Other, true},
		{"XX", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseFilter(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Fatalf("ParseFilter(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestPresetsIsACopy(t *testing.T) {
	ps := Presets()
	ps[0].Address = "mutated"
	if Classify("58 Maitland Road, Sandgate NSW 2304") != Sandgate {
		t.Fatal("mutating Presets() result changed the preset table")
	}
}

func TestLabel(t *testing.T) {
	if Category("").Label() != "All" || Other.Label() != "Other" {
		t.Fatalf("unexpected labels %q %q", Category("").Label(), Other.Label())
	}
}
