// Package pdfproc implements the hybrid PDF extraction pipeline: external
// process orchestration (pdftohtml, pdftoppm, pdfinfo), per-page
// classification between text and scanned-image strategies, and
// reconstruction of paragraph-grouped XHTML from pdftohtml's flat text
// fragments.
package pdfproc

// PdfText is one text fragment as reported by pdftohtml -xml, positioned
// in page coordinates (points, top-left origin).
type PdfText struct {
	Top, Left, Height float64
	Text              string
	Font              string // resolved font family name, not the numeric id
}

// PdfImage is one embedded raster image as reported by pdftohtml -xml.
type PdfImage struct {
	Top, Left, Width, Height float64
	Src                      string // filename relative to the pdftohtml output directory
}

// PdfPage is one page's parsed content.
type PdfPage struct {
	Number int
	Texts  []PdfText
	Images []PdfImage
}

// hasNonEmptyText reports whether the page has at least one text fragment
// whose trimmed content is non-empty.
func (p PdfPage) hasNonEmptyText() bool {
	for _, t := range p.Texts {
		if trimmedNonEmpty(t.Text) {
			return true
		}
	}
	return false
}

func trimmedNonEmpty(s string) bool {
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return true
		}
	}
	return false
}

// PdfDocument is the merged result of one or more pdftohtml invocations
// over page ranges of the same file.
type PdfDocument struct {
	NumPages int
	Pages    []PdfPage
}

// OutlineEntry is one node of the PDF's bookmark/outline tree.
type OutlineEntry struct {
	Title    string
	Page     int
	Children []*OutlineEntry
}

// CountOutlineEntries returns the total number of entries across the
// whole outline tree, used to decide whether the outline is rich enough
// to drive the table of contents (§4.4: "≥3 items").
func CountOutlineEntries(entries []*OutlineEntry) int {
	n := len(entries)
	for _, e := range entries {
		n += CountOutlineEntries(e.Children)
	}
	return n
}
