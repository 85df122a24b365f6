// Package planner answers similarity queries over a vector index.
//
// Similar embeds the query text, over-fetches 2k candidates and applies the
// access gate before truncating to k. Execute does the same for SemanticQL
// statements:
//
//	FIND SIMILAR "<query>" IN <space> [TOP n]
//
// where n defaults to 10 and the space "*" searches every registered index.
package planner
