package aggregate

import "testing"

func TestBuildWhereAlwaysExcludesOutliers(t *testing.T) {
	where, _, _ := buildWhere(Params{})
	if where != "is_outlier = false" {
		t.Errorf("expected bare outlier exclusion, got %q", where)
	}
}

func TestBuildWhereDistrictFilter(t *testing.T) {
	where, args, applied := buildWhere(Params{Districts: []string{"D09", "D10"}})
	if len(args) != 1 {
		t.Fatalf("expected 1 arg (district list bound as a single array param), got %d: %v", len(args), args)
	}
	if where == "" {
		t.Fatalf("expected non-empty where clause")
	}
	if _, ok := applied["districts"]; !ok {
		t.Errorf("expected districts recorded in filters_applied")
	}
}

func TestBuildWhereSegmentExpandsToDistricts(t *testing.T) {
	_, args, applied := buildWhere(Params{Segments: []string{"ccr"}})
	if len(args) != 1 {
		t.Fatalf("expected 1 arg for expanded district list, got %d", len(args))
	}
	if _, ok := applied["segments"]; !ok {
		t.Errorf("expected segments recorded in filters_applied")
	}
}

func TestBuildWhereTenureThreeWay(t *testing.T) {
	for _, tc := range []string{"freehold", "leasehold", "99", "999"} {
		where, _, applied := buildWhere(Params{Tenure: tc})
		if where == "is_outlier = false" {
			t.Errorf("expected tenure predicate for %q", tc)
		}
		if applied["tenure"] != tc {
			t.Errorf("expected tenure=%q in filters_applied, got %v", tc, applied["tenure"])
		}
	}
}

func TestBuildWhereProjectExactTakesPrecedenceOverPartial(t *testing.T) {
	_, _, applied := buildWhere(Params{Project: "partial", ProjectExact: "Exact Tower"})
	if _, ok := applied["project"]; ok {
		t.Errorf("expected project (partial) to be suppressed when project_exact is set")
	}
	if applied["project_exact"] != "Exact Tower" {
		t.Errorf("expected project_exact recorded, got %v", applied["project_exact"])
	}
}

func TestClampLimit(t *testing.T) {
	cases := map[int]int{0: 1000, -5: 1000, 500: 500, 10000: 10000, 50000: 10000}
	for in, want := range cases {
		if got := clampLimit(in); got != want {
			t.Errorf("clampLimit(%d) = %d, want %d", in, got, want)
		}
	}
}
