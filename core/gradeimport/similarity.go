package gradeimport

import (
	"math"
	"strings"
)

var whitespaceFields = strings.Fields

// normalize lowercases, trims and collapses internal whitespace.
func normalize(s string) string {
	return strings.ToLower(strings.Join(whitespaceFields(s), " "))
}

// Levenshtein computes the classic edit distance between a and b
// (insertion, deletion and substitution all cost 1).
func Levenshtein(a, b string) int {
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
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

// Similarity scores two strings 0-100 on their normalized forms:
// round((1 - editDistance/maxLen) * 100). Identical normalized strings
// score 100; if either normalizes to empty, the score is 0.
func Similarity(a, b string) int {
	na, nb := normalize(a), normalize(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 100
	}
	maxLen := len([]rune(na))
	if l := len([]rune(nb)); l > maxLen {
		maxLen = l
	}
	dist := Levenshtein(na, nb)
	return int(math.Round((1 - float64(dist)/float64(maxLen)) * 100))
}

func min(nums ...int) int {
	m := nums[0]
	for _, n := range nums[1:] {
		if n < m {
			m = n
		}
	}
	return m
}
