package fingerprint

import (
	"testing"
	"time"
)

func TestCanonicalizeAreaSqft(t *testing.T) {
	v := 1689.95
	got := CanonicalizeAreaSqft(&v)
	if got == nil || *got != 168995 {
		t.Fatalf("expected 168995, got %v", got)
	}
	if CanonicalizeAreaSqft(nil) != nil {
		t.Fatalf("expected nil for nil input")
	}
}

func TestNormalizeFloorRange(t *testing.T) {
	cases := map[string]string{
		"11 to 15":  "11-15",
		"11-15":     "11-15",
		"11 - 15":   "11-15",
		"B1 to B2":  "B1-B2",
		"b1-b2":     "B1-B2",
		"11 – 15":   "11-15",
		"":          "",
	}
	for in, want := range cases {
		if got := NormalizeFloorRange(in); got != want {
			t.Errorf("NormalizeFloorRange(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestHeaderFingerprintStableUnderReorderAndCase(t *testing.T) {
	a := HeaderFingerprint([]string{"Project Name", "Price", "Area Sqft"})
	b := HeaderFingerprint([]string{"area sqft", "project name", "price"})
	if a != b {
		t.Errorf("expected stable fingerprint regardless of order/case, got %s vs %s", a, b)
	}
	if len(a) != 16 {
		t.Errorf("expected 16-char fingerprint, got %d chars", len(a))
	}
}

func TestRowHashAreaAndFloorSpecialFields(t *testing.T) {
	area := 1689.95
	row := map[string]Value{
		"project_name": StringValue("The Sample"),
		"area_sqft":    NumValue(area),
		"floor_range":  StringValue("11 to 15"),
		"price":        NumValue(2500000),
	}
	fields := []string{"project_name", "area_sqft_x100", "floor_range", "price"}
	h1 := RowHash(row, fields)

	rowEquivalent := map[string]Value{
		"project_name": StringValue("the sample"),
		"area_sqft":    NumValue(area),
		"floor_range":  StringValue("11-15"),
		"price":        NumValue(2500000),
	}
	h2 := RowHash(rowEquivalent, fields)

	if h1 != h2 {
		t.Errorf("expected equivalent rows to hash identically, got %s vs %s", h1, h2)
	}
	if len(h1) != 32 {
		t.Errorf("expected 32-char row hash, got %d", len(h1))
	}
}

func TestRowHashDateNormalization(t *testing.T) {
	d := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	row := map[string]Value{"transaction_date": TimeValue(d)}
	h := RowHash(row, []string{"transaction_date"})
	if len(h) != 32 {
		t.Errorf("expected 32-char hash, got %d", len(h))
	}
}

func TestVerifyRowHash(t *testing.T) {
	row := map[string]Value{"price": NumValue(100)}
	fields := []string{"price"}
	h := RowHash(row, fields)
	if !VerifyRowHash(row, h, fields) {
		t.Errorf("expected hash to verify")
	}
	if VerifyRowHash(row, "deadbeef", fields) {
		t.Errorf("expected mismatched hash to fail verification")
	}
}

func TestBatchFingerprintOrderIndependent(t *testing.T) {
	a := BatchFingerprint(map[string]string{"b.csv": "222", "a.csv": "111"})
	b := BatchFingerprint(map[string]string{"a.csv": "111", "b.csv": "222"})
	if a != b {
		t.Errorf("expected order-independent batch fingerprint")
	}
}
