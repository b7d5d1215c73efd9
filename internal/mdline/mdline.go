// Package mdline classifies single markdown lines into structural kinds.
//
// Classification is context free: a line that looks like a heading inside a
// fenced code block is still reported as Heading. Callers that walk a
// document (the chunker, the complexity analyzer) carry the fence state and
// reinterpret lines inside blocks themselves; Scan does that walk once.
package mdline

import (
	"strings"
)

// Kind is the structural kind of a markdown line
type Kind int

const (
	Plain Kind = iota
	Blank
	Heading
	Fence
	MathFence
	TableRow
	ListItem
)

// String returns a human-readable representation of the kind
func (k Kind) String() string {
	switch k {
	case Plain:
		return "plain"
	case Blank:
		return "blank"
	case Heading:
		return "heading"
	case Fence:
		return "fence"
	case MathFence:
		return "math_fence"
	case TableRow:
		return "table_row"
	case ListItem:
		return "list_item"
	default:
		return "unknown"
	}
}

// Classify returns the kind of a single line. A trailing newline is ignored.
func Classify(line string) Kind {
	line = strings.TrimRight(line, "\r\n")
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return Blank
	}

	// Up to three spaces of indentation are allowed before block markers
	indent := len(line) - len(strings.TrimLeft(line, " "))
	body := strings.TrimLeft(line, " ")

	if _, _, ok := parseFence(line); ok {
		return Fence
	}
	if trimmed == "$$" {
		return MathFence
	}
	if indent <= 3 && isATXHeading(body) {
		return Heading
	}
	if strings.HasPrefix(trimmed, "|") && strings.Count(trimmed, "|") >= 2 {
		return TableRow
	}
	if isListItem(trimmed) {
		return ListItem
	}
	return Plain
}

// HeadingLevel returns the ATX level (1-6) of a heading line, or 0
func HeadingLevel(line string) int {
	body := strings.TrimLeft(strings.TrimRight(line, "\r\n"), " ")
	if !isATXHeading(body) {
		return 0
	}
	return len(body) - len(strings.TrimLeft(body, "#"))
}

// HeadingText returns the text of a heading line without its markers
func HeadingText(line string) string {
	body := strings.TrimSpace(line)
	body = strings.TrimLeft(body, "#")
	body = strings.TrimSpace(body)
	// Closing sequence: "## Title ##"
	if stripped := strings.TrimRight(body, "#"); stripped != body {
		if stripped == "" || strings.HasSuffix(stripped, " ") {
			body = strings.TrimSpace(stripped)
		}
	}
	return body
}

// FenceMarker returns the run of backticks or tildes that opens or closes a
// fenced code block on line, or "" when line is not a fence
func FenceMarker(line string) string {
	marker, _, ok := parseFence(line)
	if !ok {
		return ""
	}
	return marker
}

// parseFence splits a fence line into its marker run and info string. A
// backtick fence may not carry backticks in its info string.
func parseFence(line string) (marker, info string, ok bool) {
	line = strings.TrimRight(line, "\r\n")
	body := strings.TrimLeft(line, " ")
	if len(line)-len(body) > 3 || len(body) < 3 {
		return "", "", false
	}
	c := body[0]
	if c != '`' && c != '~' {
		return "", "", false
	}
	n := 0
	for n < len(body) && body[n] == c {
		n++
	}
	if n < 3 {
		return "", "", false
	}
	info = strings.TrimSpace(body[n:])
	if c == '`' && strings.ContainsRune(info, '`') {
		return "", "", false
	}
	return body[:n], info, true
}

// closesFence reports whether line closes a block opened by marker: same
// character, at least as long, and no info string
func closesFence(line, marker string) bool {
	m, info, ok := parseFence(line)
	return ok && info == "" && m[0] == marker[0] && len(m) >= len(marker)
}

func isATXHeading(body string) bool {
	n := 0
	for n < len(body) && body[n] == '#' {
		n++
	}
	if n == 0 || n > 6 {
		return false
	}
	return n == len(body) || body[n] == ' ' || body[n] == '\t'
}

func isListItem(trimmed string) bool {
	if len(trimmed) < 2 {
		return false
	}
	switch trimmed[0] {
	case '-', '*', '+':
		return trimmed[1] == ' ' || trimmed[1] == '\t'
	}

	i := 0
	for i < len(trimmed) && i < 9 && trimmed[i] >= '0' && trimmed[i] <= '9' {
		i++
	}
	if i == 0 || i+1 >= len(trimmed) {
		return false
	}
	if trimmed[i] != '.' && trimmed[i] != ')' {
		return false
	}
	return trimmed[i+1] == ' ' || trimmed[i+1] == '\t'
}
