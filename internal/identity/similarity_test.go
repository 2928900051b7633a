package identity

import "testing"

func TestSimilar(t *testing.T) {
	cases := []struct {
		name string
		a, b string
		min  float64
		max  float64
	}{
		{"identical", "John Doe", "John Doe", 1, 1},
		{"case and spacing folded", "  john   DOE ", "John Doe", 1, 1},
		{"close variants", "Jon Doe", "John Doe", 0.85, 0.99},
		{"distinct names", "John Doe", "Alice Smith", 0, 0.5},
		{"both empty", "", "", 0, 0},
		{"one empty", "John", "", 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Similar(tc.a, tc.b)
			if got < tc.min || got > tc.max {
				t.Fatalf("Similar(%q, %q) = %v, want within [%v, %v]", tc.a, tc.b, got, tc.min, tc.max)
			}
		})
	}
}

func TestFuzzyMatch(t *testing.T) {
	if !FuzzyMatch("John Doe", "TechStart", "john doe", "Techstart") {
		t.Fatalf("expected near-identical name and company to match")
	}
	if FuzzyMatch("John Doe", "TechStart", "John Doe", "Completely Different Inc") {
		t.Fatalf("different companies must not match")
	}
	if FuzzyMatch("John Doe", "", "John Doe", "TechStart") {
		t.Fatalf("missing company on either side must not match")
	}
	if FuzzyMatch("", "TechStart", "John Doe", "TechStart") {
		t.Fatalf("missing name on either side must not match")
	}
}
