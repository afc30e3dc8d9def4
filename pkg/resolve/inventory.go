package resolve

import (
	"sort"
	"strings"
)

// Survey-platform metadata columns that are never meaningful analysis
// variables. Matched case-insensitively.
var metadataColumns = map[string]struct{}{
	"responseid":           {},
	"responseset":          {},
	"recipientfirstname":   {},
	"recipientlastname":    {},
	"recipientemail":       {},
	"externalreference":    {},
	"locationlatitude":     {},
	"locationlongitude":    {},
	"locationaccuracy":     {},
	"startdate":            {},
	"enddate":              {},
	"recordeddate":         {},
	"status":               {},
	"ipaddress":            {},
	"progress":             {},
	"duration (in seconds)": {},
	"finished":             {},
	"distributionchannel":  {},
	"userlanguage":         {},
}

// Survey-internal question IDs carry this prefix and are suppressed from
// manual selection; the stable export tag is the usable column name.
const reservedQuestionIDPrefix = "qid"

// EligibleColumns filters the survey's expected-column inventory down to the
// columns a user may pick as DV/IV/control. Deterministic and independent of
// input order: the result is sorted case-insensitively.
func EligibleColumns(expected []string) []string {
	var out []string
	for _, col := range expected {
		name := strings.TrimSpace(col)
		if name == "" {
			continue
		}
		lower := strings.ToLower(name)
		if _, meta := metadataColumns[lower]; meta {
			continue
		}
		if strings.HasPrefix(lower, reservedQuestionIDPrefix) {
			continue
		}
		out = append(out, name)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := strings.ToLower(out[i]), strings.ToLower(out[j])
		if a == b {
			return out[i] < out[j]
		}
		return a < b
	})
	return out
}
