// Package sortkey provides the case-insensitive comparison key shared by
// box-tree listing and item search ranking (spec.md §4.1, §4.2).
//
// Grounded on the teacher's go.mod dependency on golang.org/x/text: rather
// than strings.ToLower, which is only correct for ASCII and a handful of
// simple Unicode cases, Fold applies full Unicode case-folding so two
// names that differ only by case in any script still compare equal.
package sortkey

import "golang.org/x/text/cases"

var folder = cases.Fold()

// Fold returns s's case-folded comparison key.
func Fold(s string) string {
	return folder.String(s)
}
