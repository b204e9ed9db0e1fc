package rules

import (
	"testing"
	"time"
)

func TestApplyUnknownRule(t *testing.T) {
	r := New()
	if _, err := r.Apply("nonexistent", Inputs{}); err == nil {
		t.Fatalf("expected error for unknown rule")
	}
}

func TestApplySafeReturnsDefaultOnMissingInput(t *testing.T) {
	r := New()
	got := r.ApplySafe("bedroom_simple", -1, Inputs{})
	if got != -1 {
		t.Fatalf("expected default fallback, got %v", got)
	}
}

func TestBedroomSimpleTiers(t *testing.T) {
	r := New()
	cases := []struct {
		area float64
		want int
	}{
		{400, 1}, {600, 2}, {900, 3}, {1200, 4}, {2000, 5},
	}
	for _, c := range cases {
		got, err := r.Apply("bedroom_simple", Inputs{"area_sqft": c.area})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != c.want {
			t.Errorf("area %.0f: got %v, want %d", c.area, got, c.want)
		}
	}
}

func TestTenureClassConsolidation(t *testing.T) {
	r := New()
	cases := map[string]string{
		"Freehold":                       "freehold",
		"999-year leasehold":             "999",
		"99 yrs lease commencing from 2014": "99",
	}
	for in, want := range cases {
		got, err := r.Apply("tenure", Inputs{"tenure_str": in})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != want {
			t.Errorf("tenure %q: got %v, want %s", in, got, want)
		}
	}
}

func TestRemainingLeaseFreeholdIsNil(t *testing.T) {
	r := New()
	got, err := r.Apply("remaining_lease", Inputs{
		"tenure_str":       "Freehold",
		"transaction_date": time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil remaining lease for freehold, got %v", got)
	}
}

func TestRemainingLeaseComputation(t *testing.T) {
	r := New()
	got, err := r.Apply("remaining_lease", Inputs{
		"tenure_str":       "99 yrs lease commencing from 2014",
		"transaction_date": time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 89 {
		t.Errorf("expected 89 years remaining, got %v", got)
	}
}

func TestRegionForDistrict(t *testing.T) {
	r := New()
	cases := map[string]string{"D01": "CCR", "D15": "RCR", "D19": "OCR"}
	for district, want := range cases {
		got, err := r.Apply("region", Inputs{"district": district})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != want {
			t.Errorf("district %s: got %v, want %s", district, got, want)
		}
	}
}

func TestVersionIsStableLength(t *testing.T) {
	r := New()
	v := r.Version()
	if len(v) != 12 {
		t.Errorf("expected 12-char version hash, got %d chars: %s", len(v), v)
	}
}

func TestAgeBandNewSaleAlwaysNewLaunch(t *testing.T) {
	r := New()
	got, err := r.Apply("age_band", Inputs{
		"sale_type":        "New Sale",
		"transaction_year": 2024,
		"lease_start_year": 1990,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "New Launch" {
		t.Errorf("expected New Launch, got %v", got)
	}
}
