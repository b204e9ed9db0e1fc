package aggregate

import (
	"strings"
	"testing"
)

func TestCompileQueryRejectsUnknownGroupBy(t *testing.T) {
	_, _, err := compileQuery(Params{GroupBy: []string{"not_a_token"}})
	if err == nil {
		t.Fatalf("expected error for unknown group_by token")
	}
}

func TestCompileQueryRejectsUnknownMetric(t *testing.T) {
	_, _, err := compileQuery(Params{Metrics: []string{"not_a_metric"}})
	if err == nil {
		t.Fatalf("expected error for unknown metric token")
	}
}

func TestCompileQueryAlwaysIncludesCount(t *testing.T) {
	cq, _, err := compileQuery(Params{GroupBy: []string{"district"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cq.metricKeys[0] != "count" {
		t.Errorf("expected count to be first metric key, got %v", cq.metricKeys)
	}
	if !strings.Contains(cq.sql, "COUNT(*) AS count") {
		t.Errorf("expected COUNT(*) in SQL, got %s", cq.sql)
	}
}

func TestCompileQueryProjectOrdersByCountDesc(t *testing.T) {
	cq, _, err := compileQuery(Params{GroupBy: []string{"project"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(cq.sql, "ORDER BY count DESC") {
		t.Errorf("expected ORDER BY count DESC, got %s", cq.sql)
	}
}

func TestCompileQueryNonProjectOrdersByFirstColumn(t *testing.T) {
	cq, _, err := compileQuery(Params{GroupBy: []string{"district"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(cq.sql, "ORDER BY 1") {
		t.Errorf("expected ORDER BY 1, got %s", cq.sql)
	}
}

func TestCompileQueryLimitClamping(t *testing.T) {
	cq, _, err := compileQuery(Params{Limit: 999999})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(cq.sql, "LIMIT 10000") {
		t.Errorf("expected clamped limit 10000, got %s", cq.sql)
	}

	cq, _, err = compileQuery(Params{Limit: 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(cq.sql, "LIMIT 1000") {
		t.Errorf("expected default limit 1000, got %s", cq.sql)
	}
}

func TestCompileQueryTotalUnitsNotInSelect(t *testing.T) {
	cq, _, err := compileQuery(Params{GroupBy: []string{"project"}, Metrics: []string{"total_units"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(cq.sql, "total_units") {
		t.Errorf("total_units is enrichment-only and must not appear in SQL: %s", cq.sql)
	}
}

func TestCompileQueryNoUserSubstringInSQL(t *testing.T) {
	const evil = "'; DROP TABLE transactions; --"
	cq, _, err := compileQuery(Params{
		GroupBy:  []string{"district"},
		Project:  evil,
		SaleType: evil,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(cq.sql, evil) {
		t.Fatalf("user-supplied substring leaked into SQL: %s", cq.sql)
	}
	if !strings.Contains(cq.sql, "project_name ILIKE $") {
		t.Errorf("expected parameterized project filter, got %s", cq.sql)
	}
}
