package pattern

import (
	"fmt"
	"slices"
	"strconv"
)

const (
	// countLookahead bounds how far past the first number a counting run
	// may extend.
	countLookahead = 10

	// countStartLookahead bounds how far past "1 2" a starter word may
	// appear for the pair to count as a count start.
	countStartLookahead = 5

	maxCount = 20
)

var (
	numberWords = map[string]int{
		"one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
		"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
		"eleven": 11, "twelve": 12, "thirteen": 13, "fourteen": 14, "fifteen": 15,
		"sixteen": 16, "seventeen": 17, "eighteen": 18, "nineteen": 19, "twenty": 20,
	}

	// countFillers may sit between numbers without breaking a count.
	countFillers = set("and", "then", "now", "ok", "okay", "so", "well", "uh", "um")

	countStarters = set("and", "a", "ready", "go", "play", "start", "begin")

	fourCount = []int{1, 2, 3, 4}
)

// parseCount returns the value of a counting token: 1 to 20 in digits or as
// a number word. Larger numbers are years, prices or tempos, not counts.
func parseCount(w string) (int, bool) {
	if n, ok := numberWords[w]; ok {
		return n, true
	}
	n, err := strconv.Atoi(w)
	if err != nil || n < 1 || n > maxCount {
		return 0, false
	}
	return n, true
}

// matchCounting recognises runs of increasing numbers starting at i. Fillers
// between numbers are skipped and covered by the pattern. A number equal to
// the expected successor continues the run; a strictly greater number is
// accepted as a new baseline; anything else ends it.
func matchCounting(toks []token, i int, claimed []bool) (match, bool) {
	first, ok := parseCount(toks[i].norm)
	if !ok {
		return match{}, false
	}

	nums := []int{first}
	last := i
	for j := i + 1; j <= i+countLookahead && free(toks, claimed, j); j++ {
		w := toks[j].norm
		if w == "" || in(countFillers, w) {
			continue
		}
		n, ok := parseCount(w)
		if !ok || n <= nums[len(nums)-1] {
			break
		}
		nums = append(nums, n)
		last = j
	}

	switch {
	case len(nums) >= 3:
		typ, desc := classifyCount(nums)
		return match{
			typ:    typ,
			reason: ReasonCounting,
			start:  i,
			end:    last,
			desc:   desc,
		}, true

	case len(nums) == 2 && nums[0] == 1 && nums[1] == 2:
		for j := last + 1; j <= last+countStartLookahead && j < len(toks); j++ {
			if in(countStarters, toks[j].norm) {
				return match{
					typ:    TypeCountStart,
					reason: ReasonCounting,
					start:  i,
					end:    last,
					desc:   fmt.Sprintf("Count start: %s followed by %q", span(toks, i, last), toks[j].raw),
				}, true
			}
		}
	}
	return match{}, false
}

func classifyCount(nums []int) (Type, string) {
	switch {
	case slices.Equal(nums, fourCount):
		return TypeFourCount, "Four count: 1 2 3 4"
	case nums[0] == 1 && len(nums) >= 4:
		return TypeMusicalCountIn, fmt.Sprintf("Count-in from 1 to %d", nums[len(nums)-1])
	default:
		return TypeSequentialCounting, fmt.Sprintf("Sequential counting from %d to %d", nums[0], nums[len(nums)-1])
	}
}
