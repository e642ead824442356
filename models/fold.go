package models

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Fold returns the lower-cased form of s. Two strings are equal
// case-insensitively when their folded forms are byte-identical.
// Only case is mapped: "ß" stays distinct from "ss" and no trimming or
// other normalization is applied.
func Fold(s string) string {
	return cases.Lower(language.Und).String(s)
}
