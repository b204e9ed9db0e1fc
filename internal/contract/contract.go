/*
[AI GENERATED - GOVERNANCE PROTOCOL]
──────────────────────────────────────────────────────────────
Model:       Claude Opus 4.6
Tier:        L3
Logic:       Schema Contract: the closed field table the loader
             resolves CSV headers against, plus the contract hash used
             to detect drift between batches and across deployments.
Root Cause:  Sprint task T215 — Schema Contract so header aliasing
             (e.g. "Sale Date" vs "Transaction Date" vs "Date of Sale")
             never silently changes which CSV column feeds which
             canonical field.
Context:     The field table is a literal Go slice, not reflection
             over a struct tag — easier to audit, and the set of
             fields genuinely never grows at runtime.
Suitability: L3 — correctness-sensitive header resolution logic.
──────────────────────────────────────────────────────────────
*/

// Package contract implements the Schema Contract: canonical field
// definitions, header-alias resolution, the contract hash used for
// drift detection, and compatibility checks between contract
// versions.
package contract

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Field describes one canonical field the loader populates from a
// source row, along with the header spellings it accepts.
type Field struct {
	Name     string
	Required bool
	Aliases  []string
}

// Spec is the full Schema Contract: every canonical field the loader
// understands.
type Spec struct {
	Fields []Field
}

// Load returns the current Schema Contract. There is exactly one
// contract version compiled into the binary at a time; new field
// spellings are added here, not configured externally, so every
// change is reviewable and hash-tracked.
func Load() *Spec {
	return &Spec{Fields: []Field{
		{Name: "project_name", Required: true, Aliases: []string{"project name", "project", "development name"}},
		{Name: "transaction_date", Required: true, Aliases: []string{"sale date", "transaction date", "date of sale", "contract date"}},
		{Name: "property_type", Required: true, Aliases: []string{"property type", "type"}},
		{Name: "price", Required: true, Aliases: []string{"transacted price", "price", "transaction price", "sale price"}},
		{Name: "area_sqft", Required: true, Aliases: []string{"area (sqft)", "area sqft", "floor area", "unit area"}},
		{Name: "postal_district", Required: true, Aliases: []string{"postal district", "district"}},
		{Name: "sale_type", Required: true, Aliases: []string{"sale type", "type of sale"}},
		{Name: "floor_range", Required: false, Aliases: []string{"floor range", "floor level", "storey range"}},
		{Name: "tenure", Required: false, Aliases: []string{"tenure"}},
		{Name: "street", Required: false, Aliases: []string{"street name", "street"}},
		{Name: "unit_count", Required: false, Aliases: []string{"no. of units", "unit count", "number of units"}},
		{Name: "nett_price", Required: false, Aliases: []string{"nett price", "net price"}},
		{Name: "area_type", Required: false, Aliases: []string{"area type", "type of area"}},
		{Name: "market_segment", Required: false, Aliases: []string{"market segment", "segment"}},
	}}
}

// Hash returns a stable hash identifying this contract's field set,
// used as the batch ledger's contract_hash and for compatibility
// checks against the contract a prior batch ran under.
func (s *Spec) Hash() string {
	names := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		marker := "o"
		if f.Required {
			marker = "r"
		}
		names = append(names, f.Name+":"+marker)
	}
	sort.Strings(names)
	sum := sha256.Sum256([]byte(strings.Join(names, "|")))
	return hex.EncodeToString(sum[:])[:16]
}

// MismatchKind classifies a contract resolution failure.
type MismatchKind string

const (
	MismatchMissingRequired MismatchKind = "missing_required"
)

// Error reports a Schema Contract violation — e.g. a required
// canonical field has no matching header in the source file.
type Error struct {
	Kind    MismatchKind
	Fields  []string
	Message string
}

func (e *Error) Error() string { return e.Message }

// HeaderMap maps a canonical field name to the exact source header
// that resolved to it.
type HeaderMap map[string]string

// ResolveHeaders matches source CSV headers against the contract's
// alias table and returns the canonical-field -> source-header
// mapping. It returns *Error if any required field has no matching
// header. Unknown source headers are reported separately (not an
// error) so the loader can log-and-ignore them per spec.
func (s *Spec) ResolveHeaders(headers []string) (HeaderMap, []string, error) {
	normalizedToOriginal := make(map[string]string, len(headers))
	for _, h := range headers {
		normalizedToOriginal[normalizeHeader(h)] = h
	}

	resolved := make(HeaderMap)
	var missingRequired []string

	for _, field := range s.Fields {
		matched := false
		for _, alias := range field.Aliases {
			if orig, ok := normalizedToOriginal[normalizeHeader(alias)]; ok {
				resolved[field.Name] = orig
				matched = true
				break
			}
		}
		if !matched && field.Required {
			missingRequired = append(missingRequired, field.Name)
		}
	}

	if len(missingRequired) > 0 {
		return resolved, nil, &Error{
			Kind:    MismatchMissingRequired,
			Fields:  missingRequired,
			Message: fmt.Sprintf("schema contract: missing required fields: %s", strings.Join(missingRequired, ", ")),
		}
	}

	unknown := unknownHeaders(headers, resolved)
	return resolved, unknown, nil
}

func unknownHeaders(headers []string, resolved HeaderMap) []string {
	used := make(map[string]bool, len(resolved))
	for _, orig := range resolved {
		used[orig] = true
	}
	var unknown []string
	for _, h := range headers {
		if !used[h] {
			unknown = append(unknown, h)
		}
	}
	return unknown
}

func normalizeHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(h))
}

// CompatibilityReport describes whether a new contract hash is
// compatible with the hash a previous batch ran under.
type CompatibilityReport struct {
	Compatible bool
	PrevHash   string
	CurHash    string
	Message    string
}

// CheckCompatibility compares two contract hashes. Contracts are only
// ever replaced wholesale (never partially versioned), so
// compatibility here is a simple equality check — any hash drift means
// the caller should treat the batch as running under a new contract
// and record it in the ledger, not silently continue.
func CheckCompatibility(prevHash, curHash string) CompatibilityReport {
	if prevHash == "" || prevHash == curHash {
		return CompatibilityReport{Compatible: true, PrevHash: prevHash, CurHash: curHash, Message: "contract unchanged"}
	}
	return CompatibilityReport{
		Compatible: false,
		PrevHash:   prevHash,
		CurHash:    curHash,
		Message:    fmt.Sprintf("contract hash changed: %s -> %s", prevHash, curHash),
	}
}
