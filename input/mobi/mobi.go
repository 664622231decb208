// Package mobi reads a MOBI6/AZW/AZW3 PDB file into a BookDocument. It
// parses the PDB record index and MOBI/EXTH headers itself — no PDB
// parsing library appears anywhere in the retrieved dependency corpus, so
// this package hand-rolls the same binary layout output/mobi writes,
// decompresses PalmDOC text records, reassembles the single flattened
// content document, extracts embedded images by record index, and wraps
// the whole parse in a panic recovery so a malformed file degrades to a
// partial result instead of crashing the pipeline.
package mobi

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/FocuswithJustin/ebookconvert/core/book"
	"github.com/FocuswithJustin/ebookconvert/core/errors"
	"github.com/FocuswithJustin/ebookconvert/core/options"
	"github.com/FocuswithJustin/ebookconvert/core/plugin"
	"github.com/FocuswithJustin/ebookconvert/internal/logging"
)

func init() {
	plugin.RegisterInput(Reader{})
}

// Reader implements plugin.InputPlugin for MOBI/AZW/AZW3 PDB files.
type Reader struct{}

func (Reader) Name() string { return "mobi" }

func (Reader) Capabilities() plugin.Capabilities {
	return plugin.Capabilities{
		Formats:   []book.EbookFormat{book.FormatMOBI, book.FormatAZW, book.FormatAZW3},
		LossClass: "L2",
	}
}

// Detect checks for the "BOOK"/"MOBI" type/creator tags at their fixed PDB
// header offsets, rather than trusting the file extension.
func (Reader) Detect(ctx context.Context, path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, nil
	}
	defer f.Close()

	header := make([]byte, pdbHeaderSize)
	n, err := f.Read(header)
	if err != nil || n < pdbHeaderSize {
		return false, nil
	}
	return string(header[60:64]) == "BOOK" && string(header[64:68]) == "MOBI", nil
}

func (r Reader) Extract(ctx context.Context, path string, opts *options.ConversionOptions) (doc *book.BookDocument, err error) {
	// A malformed PDB/MOBI header can panic deep in byte-slicing logic;
	// recover and surface it as a tagged error instead of crashing the
	// pipeline, mirroring the "wrap in a panic catcher" input contract.
	defer func() {
		if rec := recover(); rec != nil {
			logging.TransformRecovered("mobi-extract", path, fmt.Errorf("%v", rec))
			err = errors.NewMOBI("parse MOBI file (recovered panic)", fmt.Errorf("%v", rec))
		}
	}()

	data, readErr := os.ReadFile(path)
	if readErr != nil {
		return nil, errors.NewMOBI("read file", readErr)
	}

	pdb, parseErr := parsePDB(data)
	if parseErr != nil {
		return nil, errors.NewMOBI("parse PDB structure", parseErr)
	}

	hdr, parseErr := parseMobiHeader(pdb.records[0])
	if parseErr != nil {
		return nil, errors.NewMOBI("parse MOBI header", parseErr)
	}

	doc = book.New()

	applyMetadata(doc, hdr, pdb.name)

	textRecords := pdb.records[1 : hdr.textRecordCount+1]
	rawText := decompressRecords(textRecords, hdr.compression)

	imageRecords, imageMap := extractImages(pdb.records, hdr)
	for _, img := range imageRecords {
		if err := doc.Manifest.Add(img); err != nil {
			return nil, errors.NewManifest(fmt.Sprintf("add image: %v", err))
		}
	}

	processed := fixImageReferences(string(rawText), imageMap)
	cleaned := cleanMobiHTML(processed)

	title := doc.Metadata.Title()
	xhtml := wrapXHTML(title, cleaned)

	if err := doc.Manifest.Add(book.ManifestItem{
		ID: "content", Href: "content.xhtml", MediaType: "application/xhtml+xml",
		Data: book.XHTML(xhtml),
	}); err != nil {
		return nil, errors.NewManifest(fmt.Sprintf("add content: %v", err))
	}
	doc.Spine.Push("content", true)

	if err := doc.Manifest.Add(book.ManifestItem{
		ID: "style", Href: "style.css", MediaType: "text/css",
		Data: book.CSS(defaultCSS),
	}); err != nil {
		return nil, errors.NewManifest(fmt.Sprintf("add style: %v", err))
	}

	buildTocFromHeadings(cleaned, doc)

	logging.Info("mobi extracted", "path", path, "images", len(imageRecords), "title", title)
	return doc, nil
}

const defaultCSS = `body { font-family: serif; line-height: 1.6; margin: 1em; }
p { margin: 0.5em 0; text-indent: 1.5em; }
p:first-child { text-indent: 0; }
h1, h2, h3 { text-indent: 0; margin: 1em 0 0.5em; }
img { max-width: 100%; height: auto; }
.mbp_pagebreak { page-break-after: always; }`

func applyMetadata(doc *book.BookDocument, hdr *mobiHeader, fallbackName string) {
	title := hdr.exth.updatedTitle
	if title == "" {
		title = fallbackName
	}
	doc.Metadata.SetTitle(title)

	for _, author := range hdr.exth.authors {
		for _, part := range strings.FieldsFunc(author, func(r rune) bool { return r == ';' || r == '&' }) {
			part = strings.TrimSpace(part)
			if part != "" {
				doc.Metadata.Add("creator", part)
			}
		}
	}

	if hdr.exth.publisher != "" {
		doc.Metadata.Set("publisher", hdr.exth.publisher)
	}
	if hdr.exth.description != "" {
		doc.Metadata.Set("description", hdr.exth.description)
	}
	if hdr.exth.isbn != "" {
		doc.Metadata.Set("identifier", hdr.exth.isbn)
	}
	if hdr.exth.date != "" {
		doc.Metadata.Set("date", hdr.exth.date)
	}

	lang := hdr.exth.language
	if lang == "" {
		lang = localeToCode(hdr.locale)
	}
	doc.Metadata.Set("language", lang)
}

var recindexRe = regexp.MustCompile(`(?i)<img\s[^>]*recindex\s*=\s*["']?(\d+)["']?[^>]*>`)

// fixImageReferences rewrites `<img recindex="N">` tags into standard
// `<img src="...">` references using the 1-based recindex convention MOBI
// embeds images under.
func fixImageReferences(html string, imageMap []string) string {
	return recindexRe.ReplaceAllStringFunc(html, func(match string) string {
		sub := recindexRe.FindStringSubmatch(match)
		if len(sub) != 2 {
			return match
		}
		var idx int
		if _, err := fmt.Sscanf(sub[1], "%d", &idx); err != nil || idx < 1 || idx > len(imageMap) {
			return match
		}
		return fmt.Sprintf(`<img src="%s"/>`, imageMap[idx-1])
	})
}

var (
	bodyRe    = regexp.MustCompile(`(?is)<body[^>]*>(.*)</body>`)
	htmlTagRe = regexp.MustCompile(`(?is)</?html[^>]*>`)
	headRe    = regexp.MustCompile(`(?is)<head[^>]*>.*?</head>`)
	fileposRe = regexp.MustCompile(`\s*filepos\s*=\s*["']?\d+["']?`)
	mbpPageRe = regexp.MustCompile(`(?i)<mbp:pagebreak\s*/?>`)
	mbpTagRe  = regexp.MustCompile(`(?i)</?mbp:[^>]+>`)
	guideRe   = regexp.MustCompile(`(?is)<guide[^>]*>.*?</guide>`)
	emptyARe  = regexp.MustCompile(`<a\s+[^>]*>\s*</a>`)
)

// cleanMobiHTML strips the outer document wrapper and MOBI-specific
// markup, leaving the bare body content.
func cleanMobiHTML(html string) string {
	s := html
	if m := bodyRe.FindStringSubmatch(s); m != nil {
		s = m[1]
	} else {
		s = htmlTagRe.ReplaceAllString(s, "")
	}

	s = headRe.ReplaceAllString(s, "")
	s = fileposRe.ReplaceAllString(s, "")
	s = mbpPageRe.ReplaceAllString(s, `<div class="mbp_pagebreak"></div>`)
	s = mbpTagRe.ReplaceAllString(s, "")
	s = guideRe.ReplaceAllString(s, "")
	s = emptyARe.ReplaceAllString(s, "")
	return s
}

func wrapXHTML(title, body string) string {
	if title == "" {
		title = "Untitled"
	}
	return "<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n" +
		"<!DOCTYPE html PUBLIC \"-//W3C//DTD XHTML 1.1//EN\" \"http://www.w3.org/TR/xhtml11/DTD/xhtml11.dtd\">\n" +
		"<html xmlns=\"http://www.w3.org/1999/xhtml\">\n<head>\n<title>" + title + "</title>\n" +
		"<link rel=\"stylesheet\" type=\"text/css\" href=\"style.css\"/>\n</head>\n<body>\n" + body + "\n</body>\n</html>\n"
}

var headingRe = []*regexp.Regexp{
	regexp.MustCompile(`(?is)<h1[^>]*>(.*?)</h1>`),
	regexp.MustCompile(`(?is)<h2[^>]*>(.*?)</h2>`),
	regexp.MustCompile(`(?is)<h3[^>]*>(.*?)</h3>`),
}
var tagRe = regexp.MustCompile(`<[^>]+>`)

type heading struct {
	pos  int
	text string
}

// buildTocFromHeadings scans cleaned body content for h1-h3 elements and
// adds one TOC entry per heading in document order, falling back to a
// single entry for the book's title when no headings are present.
func buildTocFromHeadings(html string, doc *book.BookDocument) {
	var headings []heading
	for _, re := range headingRe {
		for _, loc := range re.FindAllStringSubmatchIndex(html, -1) {
			text := strings.TrimSpace(tagRe.ReplaceAllString(html[loc[2]:loc[3]], ""))
			if text != "" {
				headings = append(headings, heading{pos: loc[0], text: text})
			}
		}
	}
	if len(headings) == 0 {
		if title := doc.Metadata.Title(); title != "" {
			doc.Toc.Entries = append(doc.Toc.Entries, &book.TocEntry{Title: title, Href: "content.xhtml"})
		}
		return
	}

	sortHeadings(headings)
	for _, h := range headings {
		doc.Toc.Entries = append(doc.Toc.Entries, &book.TocEntry{Title: h.text, Href: "content.xhtml"})
	}
}

func sortHeadings(hs []heading) {
	for i := 1; i < len(hs); i++ {
		for j := i; j > 0 && hs[j].pos < hs[j-1].pos; j-- {
			hs[j], hs[j-1] = hs[j-1], hs[j]
		}
	}
}

func localeToCode(locale uint32) string {
	switch locale & 0xFF {
	case 1:
		return "ar"
	case 4:
		return "zh"
	case 6:
		return "da"
	case 7:
		return "de"
	case 9:
		return "en"
	case 10:
		return "es"
	case 11:
		return "fi"
	case 12:
		return "fr"
	case 16:
		return "it"
	case 17:
		return "ja"
	case 18:
		return "ko"
	case 19:
		return "nl"
	case 20:
		return "no"
	case 21:
		return "pl"
	case 22:
		return "pt"
	case 25:
		return "ru"
	case 29:
		return "sv"
	case 31:
		return "tr"
	case 5:
		return "cs"
	default:
		return "en"
	}
}
