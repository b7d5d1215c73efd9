package types

// ProgressFunc receives (current, total) after every processed chunk
type ProgressFunc func(current, total int)

// RewriteContext carries the text surrounding a rewrite target
type RewriteContext struct {
	Before            string
	After             string
	DocumentStructure string // Full document the target belongs to; optional
}

// ReformatResult is returned by a reformat request
type ReformatResult struct {
	Success         bool
	Content         string
	Error           string
	ChunksProcessed int
	TotalChunks     int
	Mode            Mode
}

// RewriteResult is returned by a rewrite request
type RewriteResult struct {
	Success         bool
	Content         string
	Error           string
	ChunksProcessed int
	TotalChunks     int
	Mode            Mode
}

// Mode describes how a request was processed
type Mode string

const (
	ModeSingleShot Mode = "single_shot"
	ModeChunked    Mode = "chunked"
)
