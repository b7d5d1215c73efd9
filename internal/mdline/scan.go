package mdline

import "strings"

// Line is a classified line of a document, tracked in block context
type Line struct {
	// Text includes the line terminator when the source had one
	Text string
	Kind Kind

	// InBlock is true for fence lines and every line between them (code or
	// display math). Kind of lines inside a block is forced to Plain, except
	// the delimiting fences themselves.
	InBlock bool

	// Opens is true for the fence line that starts a block
	Opens bool

	// Marker is the opening fence run (such as "```" or "~~~~") of the code
	// block containing this line, or "" outside code blocks
	Marker string

	// OpenAfter reports whether a code or math block is still open after
	// this line
	OpenAfter bool
}

// SplitLines splits text into lines that keep their terminators, so
// joining the result reproduces the input exactly
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.SplitAfter(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// Scan classifies every line of text, tracking fenced code and display
// math state so lines inside blocks are not mistaken for structure. A code
// block opened by a longer or different fence is not closed by shorter
// fences nested in it.
func Scan(text string) []Line {
	raw := SplitLines(text)
	out := make([]Line, len(raw))

	// open is the marker of the current code block; a fence line only
	// closes it when it matches under the CommonMark rules
	open, inMath := "", false
	for i, l := range raw {
		kind := Classify(l)
		line := Line{Text: l, Kind: kind}
		inCode := open != ""

		switch {
		case inCode:
			line.InBlock = true
			line.Marker = open
			if closesFence(l, open) {
				open = ""
			} else {
				line.Kind = Plain
			}
		case inMath:
			line.InBlock = true
			if kind == MathFence {
				inMath = false
			} else {
				line.Kind = Plain
			}
		case kind == Fence:
			line.InBlock = true
			line.Opens = true
			open = FenceMarker(l)
			line.Marker = open
		case kind == MathFence:
			line.InBlock = true
			line.Opens = true
			inMath = true
		}

		line.OpenAfter = open != "" || inMath
		out[i] = line
	}
	return out
}

// BlockStart returns the index of the opening fence of the block that
// contains line i, or -1 if line i is not inside a block
func BlockStart(lines []Line, i int) int {
	if i < 0 || i >= len(lines) || !lines[i].InBlock {
		return -1
	}
	for j := i; j >= 0; j-- {
		if lines[j].Opens {
			return j
		}
	}
	return -1
}
