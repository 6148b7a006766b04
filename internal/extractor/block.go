package extractor

import "time"

// Block is one candidate article produced by either pipeline before
// normalization, dedup, and ordering are applied.
type Block struct {
	Title         string
	Content       string
	Section       string
	PageNumber    int
	ColumnNumber  int
	BlockIndex    int
	Author        string
	DatePublished *time.Time
	URL           string
	RawHTML       string
	SourceFile    string
}
