package promote

import (
	"errors"
	"testing"
)

func TestErrorWrapsUnderlying(t *testing.T) {
	cause := errors.New("connection reset")
	err := &Error{BatchID: "batch-1", Err: cause}

	if !errors.Is(err, cause) {
		t.Errorf("expected errors.Is to unwrap to cause")
	}
	if err.Error() == "" {
		t.Errorf("expected non-empty error message")
	}
}

func TestResultSkippedIsEligibleMinusPromoted(t *testing.T) {
	eligible := int64(100)
	promoted := int64(97)
	result := Result{Promoted: promoted, Skipped: eligible - promoted}

	if result.Skipped != 3 {
		t.Errorf("expected 3 skipped rows, got %d", result.Skipped)
	}
	if result.Promoted+result.Skipped != eligible {
		t.Errorf("promoted + skipped should equal eligible count")
	}
}
