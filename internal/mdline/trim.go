package mdline

import (
	"strings"
	"unicode/utf8"
)

// Head returns at most n characters from the start of s, cut back to the
// end of the last whole line inside that span when there is one
func Head(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	end := runeOffset(s, n)
	out := s[:end]
	if s[end] == '\n' {
		return out
	}
	if nl := strings.LastIndexByte(out, '\n'); nl > 0 {
		out = out[:nl+1]
	}
	return out
}

// Tail returns at most n characters from the end of s, starting after the
// first line break inside that span when there is one
func Tail(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := utf8.RuneCountInString(s)
	if count <= n {
		return s
	}
	start := runeOffset(s, count-n)
	out := s[start:]
	if s[start-1] == '\n' {
		return out
	}
	if nl := strings.IndexByte(out, '\n'); nl >= 0 && nl < len(out)-1 {
		out = out[nl+1:]
	}
	return out
}

// runeOffset returns the byte offset of the n-th rune of s
func runeOffset(s string, n int) int {
	i := 0
	for off := range s {
		if i == n {
			return off
		}
		i++
	}
	return len(s)
}
