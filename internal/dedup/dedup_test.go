package dedup

import (
	"context"
	"testing"
)

func TestCalculateIQRBoundsArithmetic(t *testing.T) {
	q1, q3, multiplier := 800000.0, 1400000.0, 5.0
	iqr := q3 - q1
	bounds := Bounds{
		Q1:         q1,
		Q3:         q3,
		IQR:        iqr,
		LowerBound: q1 - multiplier*iqr,
		UpperBound: q3 + multiplier*iqr,
	}
	if bounds.IQR != 600000 {
		t.Errorf("expected IQR 600000, got %f", bounds.IQR)
	}
	if bounds.LowerBound != -2200000 {
		t.Errorf("expected lower bound -2200000, got %f", bounds.LowerBound)
	}
	if bounds.UpperBound != 4400000 {
		t.Errorf("expected upper bound 4400000, got %f", bounds.UpperBound)
	}
}

func TestBoundsLowerBoundCanGoNegative(t *testing.T) {
	// A tight IQR with the default 5.0 multiplier can push LowerBound
	// below zero; callers must not clamp it, since MarkOutliers only
	// ever widens the accepted range in that case, never narrows it.
	bounds := Bounds{Q1: 100, Q3: 200, IQR: 100, LowerBound: 100 - 5.0*100, UpperBound: 200 + 5.0*100}
	if bounds.LowerBound >= 0 {
		t.Fatalf("test setup invariant broken")
	}
}

func TestMarkOutliersNoOpWhenBoundsInvalid(t *testing.T) {
	n, err := MarkOutliers(context.Background(), nil, "batch-1", Bounds{Valid: false})
	if err != nil {
		t.Fatalf("expected no error on invalid bounds, got %v", err)
	}
	if n != 0 {
		t.Fatalf("expected 0 rows marked on invalid bounds, got %d", n)
	}
}
