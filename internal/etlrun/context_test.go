package etlrun

import "testing"

func TestNewContextDefaults(t *testing.T) {
	c := New(ModeFull, "manual")
	if c.Status != StatusStaging {
		t.Errorf("expected initial status staging, got %s", c.Status)
	}
	if !c.ValidationPassed {
		t.Errorf("expected ValidationPassed true initially")
	}
	if len(c.BatchID) != 36 {
		t.Errorf("expected uuid-formatted batch id, got %s", c.BatchID)
	}
}

func TestAddValidationIssueFlipsPassed(t *testing.T) {
	c := New(ModeFull, "manual")
	c.AddValidationIssue("missing_field", "price missing", nil)
	if c.ValidationPassed {
		t.Errorf("expected ValidationPassed false after issue")
	}
	if len(c.ValidationIssues) != 1 {
		t.Errorf("expected 1 validation issue, got %d", len(c.ValidationIssues))
	}
}

func TestAddSemanticWarningDoesNotFlipPassed(t *testing.T) {
	c := New(ModeFull, "manual")
	c.AddSemanticWarning("psf_drift", "psf off by 2%", nil)
	if !c.ValidationPassed {
		t.Errorf("semantic warnings must not affect ValidationPassed")
	}
}

func TestReconciliationCheckOK(t *testing.T) {
	c := New(ModeFull, "manual")
	n := 100
	c.SourceRowCount = &n
	c.RowsLoaded = 90
	c.RowsRejected = 5
	c.RowsSkipped = 5

	ok, unaccounted, _ := c.ReconciliationCheck()
	if ok == nil || !*ok {
		t.Errorf("expected reconciliation OK")
	}
	if unaccounted != 0 {
		t.Errorf("expected 0 unaccounted, got %d", unaccounted)
	}
}

func TestReconciliationCheckMismatch(t *testing.T) {
	c := New(ModeFull, "manual")
	n := 100
	c.SourceRowCount = &n
	c.RowsLoaded = 80
	c.RowsRejected = 5
	c.RowsSkipped = 5

	ok, unaccounted, _ := c.ReconciliationCheck()
	if ok == nil || *ok {
		t.Errorf("expected reconciliation mismatch")
	}
	if unaccounted != 10 {
		t.Errorf("expected 10 unaccounted, got %d", unaccounted)
	}
}

func TestReconciliationCheckUnset(t *testing.T) {
	c := New(ModeFull, "manual")
	ok, _, msg := c.ReconciliationCheck()
	if ok != nil {
		t.Errorf("expected nil ok when source_row_count unset")
	}
	if msg == "" {
		t.Errorf("expected a message")
	}
}

func TestFailAndComplete(t *testing.T) {
	c := New(ModeFull, "manual")
	c.Fail("staging", "disk full")
	if c.Status != StatusFailed {
		t.Errorf("expected failed status")
	}
	if c.CompletedAt == nil {
		t.Errorf("expected CompletedAt to be set")
	}

	c2 := New(ModeFull, "manual")
	c2.Complete()
	if c2.Status != StatusCompleted {
		t.Errorf("expected completed status")
	}
}
