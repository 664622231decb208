// Package mobi writes a BookDocument out as a MOBI6/PalmDOC file: a PDB
// container holding a MOBI header record, uncompressed text records, image
// records, and the FLIS/FCIS/EOF trailer Kindle readers expect.
//
// No PalmDOC (LZ77) compression is attempted — every text record is stored
// verbatim, matching compression type 1 ("none") in the PalmDOC header.
// KF8/AZW3 is out of scope; this writer only ever produces a MOBI6 file.
package mobi

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/FocuswithJustin/ebookconvert/core/book"
	"github.com/FocuswithJustin/ebookconvert/core/encoding"
	"github.com/FocuswithJustin/ebookconvert/core/errors"
	"github.com/FocuswithJustin/ebookconvert/core/options"
	"github.com/FocuswithJustin/ebookconvert/core/plugin"
	"github.com/FocuswithJustin/ebookconvert/internal/logging"
)

// textRecordSize is the PalmDOC standard text record size in bytes.
const textRecordSize = 4096

func init() {
	plugin.RegisterOutput(Writer{})
}

// Writer implements plugin.OutputPlugin for MOBI6 output.
type Writer struct{}

func (Writer) Name() string { return "mobi" }

func (Writer) Capabilities() plugin.Capabilities {
	return plugin.Capabilities{
		Formats:   []book.EbookFormat{book.FormatMOBI},
		LossClass: "L2",
	}
}

func (w Writer) Write(ctx context.Context, doc *book.BookDocument, path string, opts *options.ConversionOptions) error {
	title := doc.Metadata.Title()
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	html := buildMobiHTML(doc, title)
	htmlBytes := []byte(html)
	textRecords := splitIntoRecords(htmlBytes)

	var imageRecords [][]byte
	for _, item := range doc.Manifest.Items() {
		if item.IsImage() && item.Data.Kind == book.DataBinary {
			imageRecords = append(imageRecords, item.Data.Binary)
		}
	}

	logging.Info("writing mobi", "path", path, "text_records", len(textRecords), "images", len(imageRecords))

	// +1 header record, +3 for FLIS/FCIS/EOF.
	totalRecords := 1 + len(textRecords) + len(imageRecords) + 3

	var pdb bytes.Buffer
	writePDBHeader(&pdb, title, totalRecords)

	var allRecords [][]byte
	mobiHeader := buildMobiHeaderRecord(uint32(len(htmlBytes)), uint16(len(textRecords)), title, doc, imageRecords)
	allRecords = append(allRecords, mobiHeader)
	allRecords = append(allRecords, textRecords...)
	allRecords = append(allRecords, imageRecords...)
	allRecords = append(allRecords, buildFLISRecord())
	allRecords = append(allRecords, buildFCISRecord(uint32(len(htmlBytes))))
	allRecords = append(allRecords, []byte{0xe9, 0x8e, 0x0d, 0x0a}) // EOF record

	const recordHeaderSize = 8
	const gap = 2
	dataStart := pdbHeaderSize + len(allRecords)*recordHeaderSize + gap

	offset := dataStart
	for i, rec := range allRecords {
		writeBE32(&pdb, uint32(offset))
		pdb.WriteByte(0) // attributes
		pdb.WriteByte(byte(i >> 16))
		pdb.WriteByte(byte(i >> 8))
		pdb.WriteByte(byte(i))
		offset += len(rec)
	}
	pdb.Write(make([]byte, gap))

	for _, rec := range allRecords {
		pdb.Write(rec)
	}

	if err := os.WriteFile(path, pdb.Bytes(), 0o644); err != nil {
		return errors.NewMOBI("write file", err)
	}
	return nil
}

var mobiStripTagRe = regexp.MustCompile(`(?i)</?(!DOCTYPE|html|head|meta|link|title|xml)[^>]*>`)

// buildMobiHTML flattens every spine item's XHTML body into a single MOBI6
// document, since MOBI6 has no notion of a multi-file manifest.
func buildMobiHTML(doc *book.BookDocument, title string) string {
	var b strings.Builder
	b.WriteString("<html><head><title>")
	b.WriteString(encoding.EscapeXMLText(orDefault(title, "Untitled Document")))
	b.WriteString("</title></head><body>\n")

	for _, ref := range doc.Spine.Items() {
		item, ok := doc.Manifest.ByID(ref.IDRef)
		if !ok {
			continue
		}
		xhtml, ok := item.Data.AsXHTML()
		if !ok {
			continue
		}
		body := extractBody(xhtml)
		b.WriteString(mobiStripTagRe.ReplaceAllString(body, ""))
		b.WriteString("\n")
	}

	b.WriteString("</body></html>")
	return b.String()
}

// extractBody returns the contents between <body ...> and </body>, or the
// whole string unchanged if no body tag is present.
func extractBody(xhtml string) string {
	lower := strings.ToLower(xhtml)
	start := strings.Index(lower, "<body")
	if start < 0 {
		return xhtml
	}
	after := strings.IndexByte(xhtml[start:], '>')
	if after < 0 {
		after = 0
	}
	end := strings.LastIndex(lower, "</body>")
	if end < 0 {
		end = len(xhtml)
	}
	bodyStart := start + after + 1
	if bodyStart > end {
		return xhtml
	}
	return xhtml[bodyStart:end]
}

func splitIntoRecords(data []byte) [][]byte {
	var records [][]byte
	for len(data) > 0 {
		n := textRecordSize
		if n > len(data) {
			n = len(data)
		}
		records = append(records, data[:n])
		data = data[n:]
	}
	return records
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

