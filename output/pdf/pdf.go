// Package pdf writes a BookDocument out as a minimal single-column PDF:
// one Helvetica body font, word-wrapped paragraphs, and a page break
// whenever content runs past the bottom margin. It carries no images and
// no embedded fonts — a thin rendering path compared to output/epub, for
// callers that just need a paginated, readable PDF rather than a
// faithful layout.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/FocuswithJustin/ebookconvert/core/book"
	"github.com/FocuswithJustin/ebookconvert/core/errors"
	"github.com/FocuswithJustin/ebookconvert/core/options"
	"github.com/FocuswithJustin/ebookconvert/core/plugin"
	"github.com/FocuswithJustin/ebookconvert/internal/logging"
)

func init() {
	plugin.RegisterOutput(Writer{})
}

// Page geometry, in points (1/72 inch), for a Letter page with 1 inch
// margins — the PDF unit convention used throughout this package.
const (
	pageWidth   = 612.0
	pageHeight  = 792.0
	margin      = 72.0
	fontSize    = 11.0
	headingSize = 16.0
	lineHeight  = fontSize * 1.4
	charWidth   = fontSize * 0.5 // Helvetica average advance width approximation
)

// Writer implements plugin.OutputPlugin for plain paginated PDF output.
type Writer struct{}

func (Writer) Name() string { return "pdf" }

func (Writer) Capabilities() plugin.Capabilities {
	return plugin.Capabilities{
		Formats:   []book.EbookFormat{book.FormatPDF},
		LossClass: "L4",
	}
}

func (w Writer) Write(ctx context.Context, doc *book.BookDocument, path string, opts *options.ConversionOptions) error {
	pages := layoutPages(doc)
	logging.Info("writing pdf", "path", path, "pages", len(pages))

	data := renderPDF(pages)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.NewOther("write pdf", err)
	}
	return nil
}

// block is one unit of laid-out content: a heading or a paragraph.
type block struct {
	text    string
	heading bool
}

// page is a list of text lines with their vertical position and font
// size already resolved, ready to render as PDF content-stream ops.
type page struct {
	lines []pdfLine
}

type pdfLine struct {
	text string
	y    float64
	size float64
}

var (
	pdfBlockTagRe = regexp.MustCompile(`(?i)</?(p|div|h[1-6]|br|li|tr|blockquote|pre)[^>]*>`)
	pdfHeadingRe  = regexp.MustCompile(`(?i)<h[1-3][^>]*>`)
	pdfTagRe      = regexp.MustCompile(`<[^>]+>`)
	pdfEntities   = strings.NewReplacer("&amp;", "&", "&lt;", "<", "&gt;", ">", "&quot;", `"`, "&#39;", "'", "&nbsp;", " ")
)

// layoutPages extracts block-level text from the spine, word-wraps each
// block to the usable page width, and paginates lines top to bottom.
func layoutPages(doc *book.BookDocument) []page {
	var blocks []block
	if title := doc.Metadata.Title(); title != "" {
		blocks = append(blocks, block{text: title, heading: true})
	}

	for _, ref := range doc.Spine.Items() {
		item, ok := doc.Manifest.ByID(ref.IDRef)
		if !ok {
			continue
		}
		xhtml, ok := item.Data.AsXHTML()
		if !ok {
			continue
		}
		blocks = append(blocks, extractBlocks(xhtml)...)
	}

	usableWidth := pageWidth - 2*margin
	charsPerLine := int(usableWidth / charWidth)
	if charsPerLine < 10 {
		charsPerLine = 10
	}

	var pages []page
	cur := page{}
	y := pageHeight - margin

	flush := func() {
		if len(cur.lines) > 0 {
			pages = append(pages, cur)
		}
		cur = page{}
		y = pageHeight - margin
	}

	for _, b := range blocks {
		size := fontSize
		if b.heading {
			size = headingSize
		}
		for _, line := range wrapText(b.text, charsPerLine) {
			if y-size*1.4 < margin {
				flush()
			}
			cur.lines = append(cur.lines, pdfLine{text: line, y: y, size: size})
			y -= size * 1.4
		}
		y -= lineHeight * 0.5 // paragraph gap
	}
	flush()

	if len(pages) == 0 {
		pages = append(pages, page{})
	}
	return pages
}

// extractBlocks turns one XHTML spine item into a sequence of heading and
// paragraph blocks, splitting on block-level tags and stripping the rest.
func extractBlocks(xhtml string) []block {
	lower := strings.ToLower(xhtml)
	body := xhtml
	if start := strings.Index(lower, "<body"); start >= 0 {
		after := strings.IndexByte(xhtml[start:], '>')
		if after < 0 {
			after = 0
		}
		end := strings.LastIndex(lower, "</body>")
		if end < 0 {
			end = len(xhtml)
		}
		if bs := start + after + 1; bs <= end {
			body = xhtml[bs:end]
		}
	}

	var blocks []block
	// Split on heading tags first so headings render larger, then treat
	// the remaining chunks as paragraph text.
	segments := splitKeepHeadings(body)
	for _, seg := range segments {
		plain := pdfTagRe.ReplaceAllString(pdfBlockTagRe.ReplaceAllString(seg.text, "\n"), "")
		plain = pdfEntities.Replace(plain)
		plain = strings.TrimSpace(plain)
		if plain == "" {
			continue
		}
		blocks = append(blocks, block{text: plain, heading: seg.heading})
	}
	return blocks
}

type segment struct {
	text    string
	heading bool
}

// splitKeepHeadings splits body into segments at <h1>-<h3> boundaries,
// tagging each resulting chunk as heading or paragraph text.
func splitKeepHeadings(body string) []segment {
	locs := pdfHeadingRe.FindAllStringIndex(body, -1)
	if len(locs) == 0 {
		return []segment{{text: body, heading: false}}
	}

	var segments []segment
	prevEnd := 0
	for _, loc := range locs {
		if loc[0] > prevEnd {
			segments = append(segments, segment{text: body[prevEnd:loc[0]], heading: false})
		}
		closeIdx := strings.Index(strings.ToLower(body[loc[1]:]), "</h")
		headingEnd := len(body)
		if closeIdx >= 0 {
			headingEnd = loc[1] + closeIdx
		}
		segments = append(segments, segment{text: body[loc[1]:headingEnd], heading: true})
		prevEnd = headingEnd
	}
	if prevEnd < len(body) {
		segments = append(segments, segment{text: body[prevEnd:], heading: false})
	}
	return segments
}

// wrapText greedily wraps s into lines no longer than width characters.
func wrapText(s string, width int) []string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return nil
	}
	var lines []string
	var line strings.Builder
	for _, word := range words {
		if line.Len()+len(word)+1 > width && line.Len() > 0 {
			lines = append(lines, line.String())
			line.Reset()
		}
		if line.Len() > 0 {
			line.WriteByte(' ')
		}
		line.WriteString(word)
	}
	if line.Len() > 0 {
		lines = append(lines, line.String())
	}
	return lines
}

// renderPDF serializes pages as a minimal PDF 1.4 document: a Pages tree,
// one Contents stream per page, and a single shared Helvetica font
// resource, written with a hand-built cross-reference table.
func renderPDF(pages []page) []byte {
	var buf bytes.Buffer
	var offsets []int

	writeObj := func(n int, body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", n, body)
	}

	buf.WriteString("%PDF-1.4\n")

	numPages := len(pages)
	// Object numbering: 1=Catalog, 2=Pages, 3=Font, then per page a
	// Page object and a Contents object (4,5 for page 1; 6,7 for page 2; ...).
	writeObj(1, "<< /Type /Catalog /Pages 2 0 R >>")

	var kids strings.Builder
	for i := 0; i < numPages; i++ {
		if i > 0 {
			kids.WriteString(" ")
		}
		fmt.Fprintf(&kids, "%d 0 R", 4+i*2)
	}
	writeObj(2, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids.String(), numPages))
	writeObj(3, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>")

	for i, p := range pages {
		pageObjNum := 4 + i*2
		contentObjNum := pageObjNum + 1

		var content strings.Builder
		content.WriteString("BT\n")
		for _, line := range p.lines {
			fmt.Fprintf(&content, "/F1 %s Tf\n", formatNum(line.size))
			fmt.Fprintf(&content, "%s %s Td\n", formatNum(margin), formatNum(line.y))
			fmt.Fprintf(&content, "(%s) Tj\n", escapePDFString(line.text))
			// Td is relative to the previous text position; reset cursor
			// to origin before the next absolute move.
			fmt.Fprintf(&content, "%s %s Td\n", formatNum(-margin), formatNum(-line.y))
		}
		content.WriteString("ET\n")

		writeObj(pageObjNum, fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %s %s] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>",
			formatNum(pageWidth), formatNum(pageHeight), contentObjNum))

		stream := content.String()
		writeObj(contentObjNum, fmt.Sprintf("<< /Length %d >>\nstream\n%sendstream", len(stream), stream))
	}

	xrefStart := buf.Len()
	totalObjs := len(offsets) + 1
	fmt.Fprintf(&buf, "xref\n0 %d\n", totalObjs)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF", totalObjs, xrefStart)

	return buf.Bytes()
}

func formatNum(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

func escapePDFString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, "(", `\(`, ")", `\)`)
	return r.Replace(s)
}
