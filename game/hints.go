package game

import (
	"slices"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

var folder = cases.Fold()

func normalizeGuess(s string) string {
	return folder.String(strings.TrimSpace(s))
}

func isCorrectGuess(guess, word string) bool {
	return word != "" && normalizeGuess(guess) == normalizeGuess(word)
}

// isCloseGuess reports a guess one or two edits away from the word.
func isCloseGuess(guess, word string) bool {
	d := editDistance(normalizeGuess(guess), normalizeGuess(word))
	return d >= 1 && d <= 2
}

func editDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		cur[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(rb)]
}

func isSeparator(r rune) bool {
	return r == ' ' || r == '-'
}

// revealLetters compares guess and word position by position and returns the
// updated set of revealed positions for one guesser. Separators are never
// stored since they are always shown. At least one letter always stays
// hidden. The returned slice is sorted; changed is false when nothing new
// was revealed.
func revealLetters(word, guess string, revealed []int) (positions []int, changed bool) {
	target := []rune(strings.ToLower(word))
	attempt := []rune(strings.ToLower(strings.TrimSpace(guess)))

	known := make(map[int]bool, len(revealed))
	for _, p := range revealed {
		known[p] = true
	}

	hidden := 0
	for i, r := range target {
		if !isSeparator(r) && !known[i] {
			hidden++
		}
	}

	positions = slices.Clone(revealed)
	for i := 0; i < len(target) && i < len(attempt); i++ {
		if hidden <= 1 {
			break
		}
		if isSeparator(target[i]) || known[i] || target[i] != attempt[i] {
			continue
		}
		known[i] = true
		positions = append(positions, i)
		hidden--
		changed = true
	}
	slices.Sort(positions)
	return positions, changed
}

// hintWord renders the word with unrevealed letters as underscores.
func hintWord(word string, revealed []int) string {
	known := make(map[int]bool, len(revealed))
	for _, p := range revealed {
		known[p] = true
	}
	var b strings.Builder
	for i, r := range []rune(word) {
		switch {
		case isSeparator(r), known[i]:
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

func maskWord(word string) string {
	return hintWord(word, nil)
}

func wordLength(word string) int {
	return len([]rune(word))
}

func isBlank(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool { return !unicode.IsSpace(r) }) < 0
}
