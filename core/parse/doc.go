// Package parse extracts structured values from loosely formatted text: model
// replies that should contain a number, and JSON or JSONL that may be slightly
// malformed.
//
// [JSONAs] tries a strict decode first, then strips markdown code fences and
// repairs the JSON before giving up. [ReadJSONL] applies the same recovery per
// line. [FirstDecimal] and [FirstInt] pull the first number out of free text.
package parse
