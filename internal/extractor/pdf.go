package extractor

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// TextRun is one positioned glyph run as reported by ledongthuc/pdf's
// Page.Content(), the primitive the layout heuristics cluster into
// columns and headlines.
type TextRun struct {
	Font     string
	FontSize float64
	X, Y     float64
	S        string
}

// PDFPage is one page's extracted text runs plus the plain-text fallback.
type PDFPage struct {
	Number    int
	PlainText string
	Runs      []TextRun
}

// PageSplitter turns a PDF edition's pages into candidate article blocks.
// The layout heuristic varies per publication, so it is kept behind an
// interface: a more precise splitter can replace ColumnHeuristicSplitter
// without touching the rest of the PDF pipeline.
type PageSplitter interface {
	Split(pages []PDFPage) ([]Block, error)
}

// ParsePDF reads every page of a PDF blob, extracting both the plain text
// (always available) and positioned runs (used by the column heuristic;
// silently omitted for pages ledongthuc/pdf cannot decode structurally).
func ParsePDF(raw []byte) ([]PDFPage, error) {
	reader, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, dataError("parse pdf", err)
	}

	n := reader.NumPage()
	pages := make([]PDFPage, 0, n)
	for i := 1; i <= n; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		plain, err := page.GetPlainText(nil)
		if err != nil {
			plain = ""
		}

		var runs []TextRun
		content := page.Content()
		for _, t := range content.Text {
			runs = append(runs, TextRun{Font: t.Font, FontSize: t.FontSize, X: t.X, Y: t.Y, S: t.S})
		}

		pages = append(pages, PDFPage{Number: i, PlainText: plain, Runs: runs})
	}
	if len(pages) == 0 {
		return nil, dataError("parse pdf", ErrEmptyBlob)
	}
	return pages, nil
}

// ColumnHeuristicSplitter clusters text runs by X position into columns
// and starts a new block whenever a run's
// font size clears the page's median by a wide margin ("headline
// font-size dominance"), the cheapest reliable signal a new article has
// begun without full layout analysis.
type ColumnHeuristicSplitter struct {
	// ColumnGapPoints is the minimum X gap between runs to treat them as
	// separate columns rather than justified text within one column.
	ColumnGapPoints float64
	// HeadlineSizeRatio is how far above the page median font size a run
	// must be to be treated as a new headline.
	HeadlineSizeRatio float64
}

// NewColumnHeuristicSplitter returns a splitter with defaults tuned for
// a typical 6-column broadsheet layout.
func NewColumnHeuristicSplitter() *ColumnHeuristicSplitter {
	return &ColumnHeuristicSplitter{ColumnGapPoints: 36, HeadlineSizeRatio: 1.4}
}

func (c *ColumnHeuristicSplitter) Split(pages []PDFPage) ([]Block, error) {
	var blocks []Block
	blockIndex := 0

	for _, page := range pages {
		if len(page.Runs) == 0 {
			// No structural layout available; treat the whole page as one
			// block so content is never silently dropped.
			blocks = append(blocks, Block{
				Title:      firstLine(page.PlainText),
				Content:    page.PlainText,
				PageNumber: page.Number,
				BlockIndex: blockIndex,
			})
			blockIndex++
			continue
		}

		columns := clusterColumns(page.Runs, c.ColumnGapPoints)
		median := medianFontSize(page.Runs)

		for colIdx, column := range columns {
			sort.SliceStable(column, func(i, j int) bool { return column[i].Y > column[j].Y })

			var cur Block
			var body strings.Builder
			haveBlock := false

			flush := func() {
				if !haveBlock {
					return
				}
				cur.Content = strings.TrimSpace(body.String())
				if cur.Content != "" {
					blocks = append(blocks, cur)
					blockIndex++
				}
				body.Reset()
				haveBlock = false
			}

			for _, run := range column {
				isHeadline := median > 0 && run.FontSize >= median*c.HeadlineSizeRatio
				if isHeadline && (!haveBlock || cur.Title == "") {
					flush()
					cur = Block{
						Title:        strings.TrimSpace(run.S),
						PageNumber:   page.Number,
						ColumnNumber: colIdx + 1,
						BlockIndex:   blockIndex,
					}
					haveBlock = true
					continue
				}
				if !haveBlock {
					cur = Block{PageNumber: page.Number, ColumnNumber: colIdx + 1, BlockIndex: blockIndex}
					haveBlock = true
				}
				body.WriteString(run.S)
				body.WriteString(" ")
			}
			flush()
		}
	}

	return blocks, nil
}

// clusterColumns groups runs whose X coordinates fall within gapPoints of
// each other into the same column, a simple 1-D clustering sufficient for
// the fixed-width gutters a print edition layout uses.
func clusterColumns(runs []TextRun, gapPoints float64) [][]TextRun {
	sorted := make([]TextRun, len(runs))
	copy(sorted, runs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].X < sorted[j].X })

	var columns [][]TextRun
	var current []TextRun
	lastX := -1.0

	for _, run := range sorted {
		if lastX >= 0 && run.X-lastX > gapPoints {
			columns = append(columns, current)
			current = nil
		}
		current = append(current, run)
		lastX = run.X
	}
	if len(current) > 0 {
		columns = append(columns, current)
	}
	return columns
}

func medianFontSize(runs []TextRun) float64 {
	if len(runs) == 0 {
		return 0
	}
	sizes := make([]float64, len(runs))
	for i, r := range runs {
		sizes[i] = r.FontSize
	}
	sort.Float64s(sizes)
	mid := len(sizes) / 2
	if len(sizes)%2 == 0 {
		return (sizes[mid-1] + sizes[mid]) / 2
	}
	return sizes[mid]
}

func firstLine(s string) string {
	idx := strings.IndexAny(s, "\n")
	if idx < 0 {
		if len(s) > 120 {
			return s[:120]
		}
		return s
	}
	return strings.TrimSpace(s[:idx])
}

// ExtractPDFBlocks parses raw and splits it into candidate blocks using
// splitter, tagging each block's SourceFile for provenance.
func ExtractPDFBlocks(raw []byte, sourceFile string, splitter PageSplitter) ([]Block, error) {
	pages, err := ParsePDF(raw)
	if err != nil {
		return nil, err
	}
	blocks, err := splitter.Split(pages)
	if err != nil {
		return nil, fmt.Errorf("extractor: split pdf %s: %w", sourceFile, err)
	}
	for i := range blocks {
		blocks[i].SourceFile = sourceFile
	}
	return blocks, nil
}
