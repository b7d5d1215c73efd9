package types

// ContentComplexity holds structural ratios derived purely from a text.
// Every ratio lies in [0, 1].
type ContentComplexity struct {
	CodeRatio          float64
	MathRatio          float64
	TableRatio         float64
	ListRatio          float64
	TechnicalTermRatio float64
	LinkRatio          float64
}

// Heading is one entry of a document outline
type Heading struct {
	Level int
	Text  string
}

// StyleMetrics describes the writing style of a document
type StyleMetrics struct {
	AvgSentenceLength float64
	FormalityScore    float64 // 0-100, 50 is neutral
	TechnicalDensity  float64
	ReadabilityLevel  string
}

// Readability labels, ordered from simplest to hardest
const (
	ReadabilityElementary   = "Elementary"
	ReadabilityMiddleSchool = "Middle School"
	ReadabilityHighSchool   = "High School"
	ReadabilityCollege      = "College"
	ReadabilityGraduate     = "Graduate"
)

// Document categories used for content-type scoring, in declaration order
const (
	CategoryTechnical    = "technical"
	CategoryAcademic     = "academic"
	CategoryBusiness     = "business"
	CategoryCreative     = "creative"
	CategoryMathematical = "mathematical"
	CategoryGeneral      = "general"
)

// DocumentAnalysis is the structural and stylistic profile of a document
type DocumentAnalysis struct {
	HeadingHierarchy  []Heading
	ContentTypeScores map[string]float64
	DominantType      string
	StyleMetrics      StyleMetrics
	CrossReferences   []string
	DocumentLength    int
	TargetPosition    float64 // 0-1, where the target region starts
}

// SemanticContext links a target region to the rest of its document
type SemanticContext struct {
	Keywords        []string
	RelatedSections []string
	TerminologyMap  map[string][]string
	Dependencies    []string
}
