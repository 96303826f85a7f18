// utils/answers.go
package utils

import (
	"strings"

	"golang.org/x/text/cases"
)

var foldCaser = cases.Fold()

// NormalizeAnswer trims whitespace and applies Unicode case folding so that
// "  Nevsky Prospekt " matches "nevsky prospekt".
func NormalizeAnswer(s string) string {
	return foldCaser.String(strings.TrimSpace(s))
}

// AnswersEqual compares two free-text answers after normalization.
func AnswersEqual(submitted, expected string) bool {
	return NormalizeAnswer(submitted) == NormalizeAnswer(expected)
}

// OptionSetsEqual compares two option lists as sets — order-independent,
// duplicates collapse. Used for multiple_choice tasks.
func OptionSetsEqual(submitted, expected []string) bool {
	sub := make(map[string]struct{}, len(submitted))
	for _, s := range submitted {
		sub[NormalizeAnswer(s)] = struct{}{}
	}
	exp := make(map[string]struct{}, len(expected))
	for _, e := range expected {
		exp[NormalizeAnswer(e)] = struct{}{}
	}
	if len(sub) != len(exp) {
		return false
	}
	for k := range exp {
		if _, ok := sub[k]; !ok {
			return false
		}
	}
	return true
}

// SplitOptions parses a stored comma-separated option list.
func SplitOptions(stored string) []string {
	parts := strings.Split(stored, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
