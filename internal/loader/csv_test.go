package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sgpropanalytics/condocore/internal/contract"
	"github.com/sgpropanalytics/condocore/internal/etlrun"
	"github.com/sgpropanalytics/condocore/internal/rules"
)

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp csv: %v", err)
	}
	return path
}

const sampleCSV = `Project Name,Sale Date,Type,Transacted Price,Area (sqft),Postal District,Sale Type,Floor Range,Tenure
The Sample,Dec-20,Condominium,2500000,900,D09,New Sale,11 to 15,99 yrs lease commencing from 2018
The Sample,Dec-20,Condominium,not-a-number,900,D09,New Sale,11-15,Freehold
`

func TestLoadFileParsesAndRejects(t *testing.T) {
	path := writeTempCSV(t, sampleCSV)
	spec := contract.Load()
	registry := rules.New()
	rc := etlrun.New(etlrun.ModeFull, "test")

	rows, err := LoadFile(path, spec, registry, rc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 valid row, got %d", len(rows))
	}
	if rc.RowsRejected != 1 {
		t.Errorf("expected 1 rejected row, got %d", rc.RowsRejected)
	}
	if rows[0].Region != "CCR" {
		t.Errorf("expected D09 to map to CCR, got %s", rows[0].Region)
	}
	if len(rows[0].RowHash) != 32 {
		t.Errorf("expected 32-char row hash, got %d", len(rows[0].RowHash))
	}
}

func TestLoadFileMissingRequiredHeaderErrors(t *testing.T) {
	path := writeTempCSV(t, "Project Name\nfoo\n")
	spec := contract.Load()
	registry := rules.New()
	rc := etlrun.New(etlrun.ModeFull, "test")

	_, err := LoadFile(path, spec, registry, rc)
	if err == nil {
		t.Fatalf("expected error for missing required headers")
	}
}
