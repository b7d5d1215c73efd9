// Package prompt assembles the prompts sent to the generative service,
// derives their generation parameters and cleans the responses.
//
// Prompt builders are pure functions of a Request. The content to
// transform is always enclosed between types.ContentStartMarker and
// types.ContentEndMarker; rules for code, math and tables are only added
// when the matching complexity ratio exceeds GuidanceThreshold.
//
// CleanResponse applies CleaningRules in order. Each rule is a pattern and
// replacement, optionally disabled when the original input already has
// the shape the rule removes.
package prompt
