package loader

import "testing"

func TestParseTransactionDateFormats(t *testing.T) {
	cases := []string{"Dec-20", "December 2020", "2020-12-15", "2020/12/15", "15/12/2020"}
	for _, in := range cases {
		d, err := ParseTransactionDate(in)
		if err != nil {
			t.Errorf("ParseTransactionDate(%q) error: %v", in, err)
			continue
		}
		if d.Day() != 1 {
			t.Errorf("ParseTransactionDate(%q) = %v, expected first-of-month", in, d)
		}
		if d.Year() != 2020 {
			t.Errorf("ParseTransactionDate(%q) year = %d, want 2020", in, d.Year())
		}
	}
}

func TestParseTransactionDateRejectsGarbage(t *testing.T) {
	if _, err := ParseTransactionDate("not a date"); err == nil {
		t.Errorf("expected error for unparseable date")
	}
	if _, err := ParseTransactionDate(""); err == nil {
		t.Errorf("expected error for empty date")
	}
}
