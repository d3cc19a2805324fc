// Package preprocess builds the analysis context for a document: it cleans
// text extracted from PDFs, drops front matter and the references tail, splits
// the rest into loosely detected sections and selects the most useful ones
// within a character budget.
//
// All lengths are counted in characters (runes), not bytes.
package preprocess
