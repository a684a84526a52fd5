package dictionary

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// Ratio returns the InDel similarity of a and b in [0, 100]: twice the
// longest common subsequence of runes over the summed lengths.
func Ratio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	return normalizedSimilarity(indelDistance(ra, rb), len(ra)+len(rb))
}

// TokenSetRatio scores a and b ignoring word order and repeated words.
// Shared tokens are compared against each side's leftover tokens and the best
// pairing wins. A query whose tokens are a subset of the other side scores 100.
func TokenSetRatio(a, b string) float64 {
	ta, tb := tokenSet(a), tokenSet(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	var sect, diffAB, diffBA []string
	for tok := range ta {
		if _, ok := tb[tok]; ok {
			sect = append(sect, tok)
		} else {
			diffAB = append(diffAB, tok)
		}
	}
	for tok := range tb {
		if _, ok := ta[tok]; !ok {
			diffBA = append(diffBA, tok)
		}
	}

	if len(sect) > 0 && (len(diffAB) == 0 || len(diffBA) == 0) {
		return 100
	}

	ab, ba := []rune(joinSorted(diffAB)), []rune(joinSorted(diffBA))
	sectLen := utf8.RuneCountInString(joinSorted(sect))

	// The shared prefix cancels out, so only the leftovers need aligning.
	sep := 0
	if sectLen > 0 {
		sep = 1
	}
	sectABLen := sectLen + sep + len(ab)
	sectBALen := sectLen + sep + len(ba)
	best := normalizedSimilarity(indelDistance(ab, ba), sectABLen+sectBALen)
	if sectLen == 0 {
		return best
	}

	// sect against sect+diff differs by exactly the separator and the diff.
	best = max(best,
		normalizedSimilarity(1+len(ab), sectLen+sectABLen),
		normalizedSimilarity(1+len(ba), sectLen+sectBALen),
	)
	return best
}

func normalizedSimilarity(dist, lensum int) float64 {
	if lensum == 0 {
		return 100
	}
	return 100 - 100*float64(dist)/float64(lensum)
}

// indelDistance counts the insertions and deletions turning a into b.
func indelDistance(a, b []rune) int {
	return len(a) + len(b) - 2*lcsLength(a, b)
}

func lcsLength(a, b []rune) int {
	if len(a) < len(b) {
		a, b = b, a
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			switch {
			case a[i-1] == b[j-1]:
				curr[j] = prev[j-1] + 1
			case prev[j] >= curr[j-1]:
				curr[j] = prev[j]
			default:
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func tokenSet(s string) map[string]struct{} {
	fields := strings.Fields(s)
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

func joinSorted(tokens []string) string {
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}
