// Package processor drives reformat and rewrite requests.
//
// Each request moves through a small state machine:
//
//	idle -> analyzing -> single_shot | chunking -> merging -> done
//
// with failed reachable from any state before done. Analysis decides
// whether the document is sent in one prompt or split into structurally
// safe chunks. Chunk outputs are folded into the merged document in order,
// dropping lines a chunk repeats from the end of the previous one.
//
// Failures never escape as errors or panics; they are reported in the
// result together with the number of chunks that completed.
package processor
