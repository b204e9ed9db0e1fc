package contract

import "testing"

func TestResolveHeadersAcceptsAliasSpellings(t *testing.T) {
	spec := Load()
	headers := []string{"Project Name", "Sale Date", "Type", "Transacted Price", "Area (sqft)", "Postal District", "Sale Type", "Extra Column"}

	resolved, unknown, err := spec.ResolveHeaders(headers)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved["project_name"] != "Project Name" {
		t.Errorf("expected project_name to resolve to 'Project Name', got %q", resolved["project_name"])
	}
	if len(unknown) != 1 || unknown[0] != "Extra Column" {
		t.Errorf("expected 'Extra Column' reported unknown, got %v", unknown)
	}
}

func TestResolveHeadersMissingRequiredErrors(t *testing.T) {
	spec := Load()
	headers := []string{"Project Name"}

	_, _, err := spec.ResolveHeaders(headers)
	if err == nil {
		t.Fatalf("expected error for missing required fields")
	}
	ce, ok := err.(*Error)
	if !ok {
		t.Fatalf("expected *contract.Error, got %T", err)
	}
	if ce.Kind != MismatchMissingRequired {
		t.Errorf("expected MismatchMissingRequired, got %s", ce.Kind)
	}
}

func TestHashStableRegardlessOfFieldOrder(t *testing.T) {
	spec1 := &Spec{Fields: []Field{{Name: "a", Required: true}, {Name: "b"}}}
	spec2 := &Spec{Fields: []Field{{Name: "b"}, {Name: "a", Required: true}}}
	if spec1.Hash() != spec2.Hash() {
		t.Errorf("expected order-independent hash")
	}
}

func TestCheckCompatibility(t *testing.T) {
	r := CheckCompatibility("abc", "abc")
	if !r.Compatible {
		t.Errorf("expected compatible for identical hashes")
	}
	r = CheckCompatibility("abc", "def")
	if r.Compatible {
		t.Errorf("expected incompatible for differing hashes")
	}
	r = CheckCompatibility("", "def")
	if !r.Compatible {
		t.Errorf("expected compatible when no previous hash recorded")
	}
}
