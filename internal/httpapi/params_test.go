package httpapi

import (
	"net/http/httptest"
	"testing"
)

func TestParseAggregateParamsDefaults(t *testing.T) {
	req := httptest.NewRequest("GET", "/aggregate", nil)
	p, err := parseAggregateParams(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.Metrics) != 3 {
		t.Fatalf("expected default metric set, got %v", p.Metrics)
	}
	if p.Limit != 0 {
		t.Errorf("expected no limit by default, got %d", p.Limit)
	}
}

func TestParseAggregateParamsFilters(t *testing.T) {
	req := httptest.NewRequest("GET", "/aggregate?group_by=district,bedroom&metrics=avg_psf&district=D09,D10&segment=ccr&bedroom=2,3", nil)
	p, err := parseAggregateParams(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.GroupBy) != 2 || p.GroupBy[0] != "district" {
		t.Fatalf("expected group_by=[district bedroom], got %v", p.GroupBy)
	}
	if len(p.Districts) != 2 || p.Districts[0] != "D09" {
		t.Fatalf("expected string districts, got %v", p.Districts)
	}
	if len(p.Segments) != 1 || p.Segments[0] != "ccr" {
		t.Fatalf("expected string segments, got %v", p.Segments)
	}
	if len(p.Bedrooms) != 2 || p.Bedrooms[0] != 2 {
		t.Fatalf("expected int bedrooms, got %v", p.Bedrooms)
	}
}

func TestParseAggregateParamsRejectsBadDate(t *testing.T) {
	req := httptest.NewRequest("GET", "/aggregate?date_from=not-a-date", nil)
	if _, err := parseAggregateParams(req); err == nil {
		t.Fatal("expected error for malformed date_from")
	}
}

func TestParseAggregateParamsRejectsBadFloat(t *testing.T) {
	req := httptest.NewRequest("GET", "/aggregate?psf_min=abc", nil)
	if _, err := parseAggregateParams(req); err == nil {
		t.Fatal("expected error for malformed psf_min")
	}
}
