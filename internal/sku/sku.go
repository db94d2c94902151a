// Package sku builds stock-keeping codes for back-office listings.
//
// A code has the form VB-<CAT>-<BRD>-<NNNN>: three letters of the category,
// three of the brand (GEN when there is none) and a zero-padded sequence.
package sku

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	prefix       = "VB"
	genericBrand = "GEN"
	segmentLen   = 3
)

// Generate renders the code for seq. Sequences below 1 are treated as 1.
func Generate(category, brand string, seq int) string {
	if seq < 1 {
		seq = 1
	}
	brd := segment(brand)
	if brd == "" {
		brd = genericBrand
	} else {
		brd = pad(brd)
	}
	return fmt.Sprintf("%s-%s-%s-%04d", prefix, pad(segment(category)), brd, seq)
}

// Sequence extracts the trailing number of a code, or 0 when code is not one.
func Sequence(code string) int {
	parts := strings.Split(code, "-")
	if len(parts) != 4 || parts[0] != prefix {
		return 0
	}
	n, err := strconv.Atoi(parts[3])
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// Next returns the sequence that follows the highest one in existing.
func Next(existing []string) int {
	highest := 0
	for _, code := range existing {
		if n := Sequence(code); n > highest {
			highest = n
		}
	}
	return highest + 1
}

// segment keeps the first three ASCII letters of s after stripping accents.
func segment(s string) string {
	folded, _, err := transform.String(foldAccents(), s)
	if err != nil {
		folded = s
	}
	var b strings.Builder
	for _, r := range folded {
		if b.Len() == segmentLen {
			break
		}
		if r < unicode.MaxASCII && unicode.IsLetter(r) {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	return b.String()
}

func pad(s string) string {
	for len(s) < segmentLen {
		s += "X"
	}
	return s
}

// foldAccents decomposes runes and drops the combining marks, so "é" becomes "e".
func foldAccents() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}
