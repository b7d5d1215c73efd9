package analyzer

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dshills/docflow-mcp/internal/complexity"
	"github.com/dshills/docflow-mcp/internal/mdline"
	"github.com/dshills/docflow-mcp/pkg/types"
)

const (
	// MaxKeywords caps the keyword list of a semantic context
	MaxKeywords = 20

	// MaxRelatedSections caps the related section list
	MaxRelatedSections = 5

	// MinKeywordRunes is the shortest word considered a keyword
	MinKeywordRunes = 3

	// CrossReferenceOverlap and RelatedSectionOverlap are the keyword
	// overlaps a section needs to be reported
	CrossReferenceOverlap = 1
	RelatedSectionOverlap = 2
)

var stopwords = wordSet(
	"a", "about", "above", "after", "again", "against", "all", "also", "am", "an",
	"and", "any", "are", "as", "at", "be", "because", "been", "before", "being",
	"below", "between", "both", "but", "by", "can", "could", "did", "do", "does",
	"doing", "down", "during", "each", "few", "for", "from", "further", "had",
	"has", "have", "having", "he", "her", "here", "hers", "herself", "him",
	"himself", "his", "how", "i", "if", "in", "into", "is", "it", "its", "itself",
	"just", "may", "me", "might", "more", "most", "must", "my", "myself", "no",
	"nor", "not", "now", "of", "off", "on", "once", "only", "or", "other", "our",
	"ours", "ourselves", "out", "over", "own", "same", "she", "should", "so",
	"some", "such", "than", "that", "the", "their", "theirs", "them",
	"themselves", "then", "there", "these", "they", "this", "those", "through",
	"to", "too", "under", "until", "up", "use", "used", "using", "very", "was",
	"we", "were", "what", "when", "where", "which", "while", "who", "whom",
	"why", "will", "with", "would", "you", "your", "yours", "yourself",
	"yourselves", "one", "two", "get", "like", "make", "many", "much", "well",
)

var dependencyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:see|refer to|as (?:shown|described|discussed|defined) in)\s+(?:the\s+)?(?:section|chapter|figure|fig\.|table|equation|eq\.|appendix|listing)\s*[\w.\-]*\w`),
	regexp.MustCompile(`(?i)\b(?:section|chapter|figure|table|equation|appendix)\s+\d+(?:\.\d+)*`),
	regexp.MustCompile(`\[[^\]\n]+\]\(#[^)\s]+\)`),
}

// Section is a heading-delimited region of a document
type Section struct {
	Title   string
	Content string
}

// ExtractSemanticContext links content to the rest of fullDocument
func (a *Analyzer) ExtractSemanticContext(content, fullDocument string) types.SemanticContext {
	keywords := Keywords(content, MaxKeywords)

	ranked := rankSections(keywords, content, fullDocument, RelatedSectionOverlap)
	related := make([]string, 0, MaxRelatedSections)
	for _, s := range ranked {
		if len(related) == MaxRelatedSections {
			break
		}
		related = append(related, s.Title)
	}

	return types.SemanticContext{
		Keywords:        keywords,
		RelatedSections: related,
		TerminologyMap:  Terminology(keywords, fullDocument),
		Dependencies:    Dependencies(content),
	}
}

// Keywords returns up to limit stopword-filtered words of text ranked by
// frequency, ties in alphabetical order
func Keywords(text string, limit int) []string {
	freq := make(map[string]int)
	for _, w := range complexity.Words(text) {
		if !isKeyword(w) {
			continue
		}
		freq[w]++
	}

	words := make([]string, 0, len(freq))
	for w := range freq {
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool {
		if freq[words[i]] != freq[words[j]] {
			return freq[words[i]] > freq[words[j]]
		}
		return words[i] < words[j]
	})

	if len(words) > limit {
		words = words[:limit]
	}
	return words
}

func isKeyword(w string) bool {
	if utf8.RuneCountInString(w) < MinKeywordRunes || stopwords[w] {
		return false
	}
	return strings.IndexFunc(w, unicode.IsLetter) >= 0
}

// Sections splits document on heading lines outside code blocks. Text
// before the first heading is not a section.
func Sections(document string) []Section {
	var sections []Section
	var current *Section
	var b strings.Builder

	flush := func() {
		if current != nil {
			current.Content = b.String()
			sections = append(sections, *current)
		}
		b.Reset()
	}

	for _, l := range mdline.Scan(document) {
		if l.Kind == mdline.Heading {
			flush()
			current = &Section{Title: mdline.HeadingText(l.Text)}
		}
		b.WriteString(l.Text)
	}
	flush()
	return sections
}

type scoredSection struct {
	Section
	overlap int
	order   int
}

// rankSections returns the sections whose keyword sets share at least
// minOverlap words with keywords, skipping those that contain target
// verbatim. Higher overlap ranks first, then document order.
func rankSections(keywords []string, target, document string, minOverlap int) []scoredSection {
	if len(keywords) == 0 {
		return nil
	}
	want := wordSet(keywords...)

	var out []scoredSection
	for i, s := range Sections(document) {
		if target != "" && strings.Contains(s.Content, target) {
			continue
		}
		overlap := 0
		for _, k := range Keywords(s.Content, MaxKeywords) {
			if want[k] {
				overlap++
			}
		}
		if overlap >= minOverlap {
			out = append(out, scoredSection{Section: s, overlap: overlap, order: i})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].overlap != out[j].overlap {
			return out[i].overlap > out[j].overlap
		}
		return out[i].order < out[j].order
	})
	return out
}

// crossReferences returns the titles of sections sharing at least one
// keyword with target, in document order
func crossReferences(target, document string) []string {
	ranked := rankSections(Keywords(target, MaxKeywords), target, document, CrossReferenceOverlap)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].order < ranked[j].order })

	refs := make([]string, 0, len(ranked))
	for _, s := range ranked {
		refs = append(refs, s.Title)
	}
	return refs
}

// Terminology maps each keyword to the distinct surface forms it takes in
// document (case, hyphenation, plural). Only keywords with more than one
// form are included.
func Terminology(keywords []string, document string) map[string][]string {
	terms := make(map[string][]string)
	if len(keywords) == 0 {
		return terms
	}

	byNorm := make(map[string]string, len(keywords))
	for _, k := range keywords {
		byNorm[normalizeTerm(k)] = k
	}

	seen := make(map[string]map[string]bool)
	for _, w := range surfaceWords(document) {
		k, ok := byNorm[normalizeTerm(strings.ToLower(w))]
		if !ok {
			continue
		}
		if seen[k] == nil {
			seen[k] = make(map[string]bool)
		}
		seen[k][w] = true
	}

	for k, forms := range seen {
		if len(forms) < 2 {
			continue
		}
		variants := make([]string, 0, len(forms))
		for f := range forms {
			variants = append(variants, f)
		}
		sort.Strings(variants)
		terms[k] = variants
	}
	return terms
}

func normalizeTerm(w string) string {
	w = strings.ReplaceAll(w, "-", "")
	switch {
	case strings.HasSuffix(w, "ies") && len(w) > 4:
		return w[:len(w)-3] + "y"
	case strings.HasSuffix(w, "s") && !strings.HasSuffix(w, "ss") && len(w) > 3:
		return w[:len(w)-1]
	}
	return w
}

// surfaceWords splits text like complexity.Words but keeps case
func surfaceWords(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\'' && r != '-'
	})
	out := fields[:0]
	for _, f := range fields {
		if f = strings.Trim(f, "'-"); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// Dependencies returns explicit references in text to other parts of the
// document (sections, figures, tables, equations, in-document anchors) in
// order of first appearance
func Dependencies(text string) []string {
	type match struct {
		start int
		text  string
	}
	var matches []match
	for _, p := range dependencyPatterns {
		for _, loc := range p.FindAllStringIndex(text, -1) {
			matches = append(matches, match{start: loc[0], text: strings.TrimSpace(text[loc[0]:loc[1]])})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].start < matches[j].start })

	seen := make(map[string]bool)
	var deps []string
	for _, m := range matches {
		key := strings.ToLower(m.text)
		if seen[key] || coveredBy(key, deps) {
			continue
		}
		seen[key] = true
		deps = append(deps, m.text)
	}
	return deps
}

// coveredBy reports whether s is part of an already collected reference
func coveredBy(s string, refs []string) bool {
	for _, r := range refs {
		if strings.Contains(strings.ToLower(r), s) {
			return true
		}
	}
	return false
}
