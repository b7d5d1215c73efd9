// Package analyzer builds the structural and stylistic profile of a
// markdown document.
//
// Analyze returns the heading hierarchy, category scores (technical,
// academic, business, creative, mathematical), style metrics and, for a
// target region, its position and cross-referenced sections.
// ExtractSemanticContext relates a region to the rest of its document
// through shared keywords, and OptimalContextWindow trims surrounding
// context to a token budget.
//
//	a := analyzer.New()
//	profile := a.Analyze(document, selection)
//	semantic := a.ExtractSemanticContext(selection, document)
//	before, after := a.OptimalContextWindow(selection, before, after, 2000)
package analyzer
