package snapshot

import (
	"encoding/json"
	"testing"
)

func TestOverallStatMarshalsExpectedFields(t *testing.T) {
	s := overallStat{Count: 10, MedianPrice: 1200000, MedianPSF: 1500, AvgPSF: 1510}
	blob, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(blob, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, key := range []string{"count", "median_price", "median_psf", "avg_psf"} {
		if _, ok := out[key]; !ok {
			t.Errorf("expected key %q in marshaled stat", key)
		}
	}
}

func TestDistrictStatRoundTrips(t *testing.T) {
	stats := []districtStat{{District: "D09", Count: 5, MedianPSF: 2100}}
	blob, err := json.Marshal(stats)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var decoded []districtStat
	if err := json.Unmarshal(blob, &decoded); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(decoded) != 1 || decoded[0].District != "D09" {
		t.Errorf("unexpected round-trip result: %+v", decoded)
	}
}
