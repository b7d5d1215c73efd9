package processor

import (
	"strings"
	"unicode"
)

// accumulator is the fold state of the chunk loop
type accumulator struct {
	merged    string
	processed int
}

// add merges the output generated for source into the accumulator
func (a accumulator) add(output, source string, window int) accumulator {
	return accumulator{
		merged:    Merge(a.merged, output, source, window),
		processed: a.processed + 1,
	}
}

// Merge appends next, the output generated for source, to merged. When the
// first lines of next repeat the last lines of merged, the longest such run
// of at most window lines is dropped from next, unless source itself opens
// with those lines: then the repetition is in the document, not an echo of
// earlier context. The two pieces are separated by exactly one blank line
// unless either side already supplies it.
func Merge(merged, next, source string, window int) string {
	if merged == "" {
		return next
	}
	if k := duplicateRun(merged, next, source, window); k > 0 {
		next = dropLines(next, k)
	}
	if strings.TrimSpace(next) == "" {
		return merged
	}

	newlines := min(trailingNewlines(merged), 2) + min(leadingNewlines(next), 2)
	if newlines >= 2 {
		return merged + next
	}
	return merged + strings.Repeat("\n", 2-newlines) + next
}

// duplicateRun returns the length of the longest run of lines, at most
// window, that ends merged and starts next but does not start source.
// Lines are compared with surrounding whitespace removed and the run must
// contain at least one line with a letter or digit.
func duplicateRun(merged, next, source string, window int) int {
	tail := strings.Split(strings.TrimRight(merged, "\n"), "\n")
	head := strings.Split(strings.TrimLeft(next, "\n"), "\n")
	own := strings.Split(strings.TrimLeft(source, "\n"), "\n")

	limit := min(window, len(tail), len(head))
	for k := limit; k > 0; k-- {
		if !matchRun(tail[len(tail)-k:], head[:k]) {
			continue
		}
		if k <= len(own) && sameLines(own[:k], head[:k]) {
			continue
		}
		return k
	}
	return 0
}

func matchRun(a, b []string) bool {
	significant := false
	for i := range a {
		x, y := strings.TrimSpace(a[i]), strings.TrimSpace(b[i])
		if x != y {
			return false
		}
		if !significant && isSignificant(x) {
			significant = true
		}
	}
	return significant
}

func sameLines(a, b []string) bool {
	for i := range a {
		if strings.TrimSpace(a[i]) != strings.TrimSpace(b[i]) {
			return false
		}
	}
	return true
}

func isSignificant(line string) bool {
	return strings.IndexFunc(line, func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsDigit(r)
	}) >= 0
}

// dropLines removes the first k lines of s, ignoring leading blank lines
func dropLines(s string, k int) string {
	s = strings.TrimLeft(s, "\n")
	for ; k > 0; k-- {
		i := strings.IndexByte(s, '\n')
		if i < 0 {
			return ""
		}
		s = s[i+1:]
	}
	return s
}

func trailingNewlines(s string) int {
	return len(s) - len(strings.TrimRight(s, "\n"))
}

func leadingNewlines(s string) int {
	return len(s) - len(strings.TrimLeft(s, "\n"))
}
