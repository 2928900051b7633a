package identity

import "strings"

const (
	nameSimilarityFloor    = 0.90
	companySimilarityFloor = 0.85
)

// Similar computes a normalized Levenshtein similarity in [0, 1] over
// case-folded, whitespace-collapsed input. Identical strings score 1.
func Similar(a, b string) float64 {
	a = foldSpace(a)
	b = foldSpace(b)
	if a == b {
		if a == "" {
			return 0
		}
		return 1
	}
	if a == "" || b == "" {
		return 0
	}
	ra, rb := []rune(a), []rune(b)
	dist := levenshtein(ra, rb)
	longest := len(ra)
	if len(rb) > longest {
		longest = len(rb)
	}
	return 1 - float64(dist)/float64(longest)
}

// FuzzyMatch reports whether two (name, company) pairs plausibly describe
// the same person. Both names and both companies must be present.
func FuzzyMatch(name1, company1, name2, company2 string) bool {
	if foldSpace(name1) == "" || foldSpace(name2) == "" {
		return false
	}
	if foldSpace(company1) == "" || foldSpace(company2) == "" {
		return false
	}
	return Similar(name1, name2) >= nameSimilarityFloor &&
		Similar(company1, company2) >= companySimilarityFloor
}

func foldSpace(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min3(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
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
