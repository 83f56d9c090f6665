package detect

import (
	"math"
	"strings"
	"unicode"
)

// normalizeDescription uppercases, strips accents-insensitive punctuation
// and collapses whitespace and digits so that "FRAIS TENUE CPTE 03/2024"
// and "FRAIS TENUE CPTE 04/2024" compare equal up to the variable parts.
func normalizeDescription(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	lastSpace := true
	for _, r := range strings.ToUpper(s) {
		switch {
		case unicode.IsLetter(r):
			b.WriteRune(r)
			lastSpace = false
		case unicode.IsDigit(r):
			// variable parts (dates, references) are dropped
		default:
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// similarity returns a normalized similarity in [0,1] between two
// descriptions: 1 - levenshtein/maxLen over the normalized forms.
func similarity(a, b string) float64 {
	na, nb := normalizeDescription(a), normalizeDescription(b)
	if na == nb {
		return 1
	}
	maxLen := len(na)
	if len(nb) > maxLen {
		maxLen = len(nb)
	}
	if maxLen == 0 {
		return 1
	}
	return 1 - float64(levenshtein(na, nb))/float64(maxLen)
}

func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min3(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}

// entropy returns the Shannon entropy of the string in bits per character.
// Standardized fee wordings sit well below 4.2; random references and
// obfuscated labels sit above.
func entropy(s string) float64 {
	if s == "" {
		return 0
	}
	freq := make(map[rune]int)
	total := 0
	for _, r := range s {
		freq[r]++
		total++
	}
	h := 0.0
	for _, n := range freq {
		p := float64(n) / float64(total)
		h -= p * math.Log2(p)
	}
	return h
}

// tokenOverlap returns the Jaccard overlap of the normalized word sets.
func tokenOverlap(a, b string) float64 {
	ta := strings.Fields(normalizeDescription(a))
	tb := strings.Fields(normalizeDescription(b))
	if len(ta) == 0 && len(tb) == 0 {
		return 1
	}
	set := make(map[string]bool, len(ta))
	for _, t := range ta {
		set[t] = true
	}
	inter := 0
	union := len(set)
	seen := make(map[string]bool, len(tb))
	for _, t := range tb {
		if seen[t] {
			continue
		}
		seen[t] = true
		if set[t] {
			inter++
		} else {
			union++
		}
	}
	if union == 0 {
		return 1
	}
	return float64(inter) / float64(union)
}
