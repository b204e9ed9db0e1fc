package loader

import "testing"

func TestParseMoney(t *testing.T) {
	cases := map[string]float64{
		"$1,250,000":  1250000,
		"1250000":     1250000,
		" 1,250,000 ": 1250000,
		"2500000.50":  2500000.50,
	}
	for in, want := range cases {
		got, err := ParseMoney(in)
		if err != nil {
			t.Errorf("ParseMoney(%q) error: %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseMoney(%q) = %f, want %f", in, got, want)
		}
	}
}

func TestParseMoneyRejectsEmpty(t *testing.T) {
	if _, err := ParseMoney(""); err == nil {
		t.Errorf("expected error for empty input")
	}
}

func TestParseDistrict(t *testing.T) {
	cases := map[string]string{"1": "D01", "01": "D01", "D1": "D01", "28": "D28", "D28": "D28"}
	for in, want := range cases {
		got, err := ParseDistrict(in)
		if err != nil {
			t.Errorf("ParseDistrict(%q) error: %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseDistrict(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestParseDistrictRejectsOutOfRange(t *testing.T) {
	if _, err := ParseDistrict("29"); err == nil {
		t.Errorf("expected error for district out of range")
	}
	if _, err := ParseDistrict("0"); err == nil {
		t.Errorf("expected error for district out of range")
	}
}
