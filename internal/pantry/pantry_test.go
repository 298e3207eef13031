package pantry

import (
	"testing"
	"time"
)

func TestParseQuantity(t *testing.T) {
	tests := []struct {
		in     string
		amount float64
		unit   string
		ok     bool
	}{
		{"500g", 500, "g", true},
		{"500 g", 500, "g", true},
		{" 1.5 kg ", 1.5, "kg", true},
		{"1,5 l", 1.5, "l", true},
		{"1,000g", 1000, "g", true},
		{"1,000 g", 1000, "g", true},
		{"1,250.5 ml", 1250.5, "ml", true},
		{"1,0000g", 0, "", false},
		{"2 cups", 2, "cups", true},
		{"3", 3, "", true},
		{"12 fl oz", 12, "fl oz", true},
		{"some", 0, "", false},
		{"", 0, "", false},
		{"half a bag", 0, "", false},
		{"2-3 kg", 0, "", false},
		{"~200g", 0, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			amount, unit, ok := ParseQuantity(tt.in)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if amount != tt.amount || unit != tt.unit {
				t.Errorf("got (%v, %q), want (%v, %q)", amount, unit, tt.amount, tt.unit)
			}
		})
	}
}

func TestExpiring(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	at := func(days int) *time.Time {
		v := now.AddDate(0, 0, days)
		return &v
	}

	items := []Item{
		{Name: "milk", ExpiresAt: at(2)},
		{Name: "rice"},
		{Name: "yogurt", ExpiresAt: at(-1)},
		{Name: "cheese", ExpiresAt: at(30)},
		{Name: "eggs", ExpiresAt: at(1)},
	}

	got := Expiring(items, now, 3*24*time.Hour)
	want := []string{"yogurt", "eggs", "milk"}
	if len(got) != len(want) {
		t.Fatalf("expected %d items, got %d", len(want), len(got))
	}
	for i, name := range want {
		if got[i].Name != name {
			t.Errorf("item %d = %s, want %s", i, got[i].Name, name)
		}
	}
}
