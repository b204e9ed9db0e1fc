/*
[AI GENERATED - GOVERNANCE PROTOCOL]
──────────────────────────────────────────────────────────────
Model:       Claude Opus 4.6
Tier:        L2
Logic:       Tolerant multi-format date parser for transaction dates.
             All accepted forms normalize to the first day of their
             month, per the URA month-granular sale-date convention.
Root Cause:  Sprint task T217 — date parsing accepts the spelling
             variations URA and CSV exports actually use.
Context:     Order of formats tried matters only for ambiguous
             two-digit-year strings; none of the accepted formats here
             are ambiguous against each other.
Suitability: L2 — format table + normalization.
──────────────────────────────────────────────────────────────
*/

package loader

import (
	"fmt"
	"strings"
	"time"
)

var dateLayouts = []string{
	"Jan-06",      // Dec-20
	"January 2006", // December 2020
	"2006-01-02",
	"2006/01/02",
	"02/01/2006",
	"01/2006",
}

// ParseTransactionDate parses s using the accepted source formats and
// normalizes the result to the first day of its month, per the URA
// month-granular convention every downstream component relies on.
func ParseTransactionDate(s string) (time.Time, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return time.Time{}, fmt.Errorf("loader: empty transaction date")
	}

	var parsed time.Time
	var err error
	matched := false
	for _, layout := range dateLayouts {
		parsed, err = time.Parse(layout, trimmed)
		if err == nil {
			matched = true
			break
		}
	}
	if !matched {
		return time.Time{}, fmt.Errorf("loader: unrecognized date format: %q", s)
	}

	return time.Date(parsed.Year(), parsed.Month(), 1, 0, 0, 0, 0, time.UTC), nil
}
