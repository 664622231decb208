// Package docx reads a Word Open XML (.docx) ZIP package into a
// BookDocument. It pulls Dublin Core metadata out of docProps/core.xml,
// resolves heading levels and list markers from word/styles.xml and
// word/numbering.xml, streams word/document.xml through a tag-handler
// state machine into a single flattened XHTML document, and copies every
// file under word/media/ into the manifest as binary image items.
package docx

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/FocuswithJustin/ebookconvert/core/book"
	"github.com/FocuswithJustin/ebookconvert/core/errors"
	"github.com/FocuswithJustin/ebookconvert/core/options"
	"github.com/FocuswithJustin/ebookconvert/core/plugin"
	"github.com/FocuswithJustin/ebookconvert/internal/logging"
	"github.com/FocuswithJustin/ebookconvert/internal/mime"
	"github.com/FocuswithJustin/ebookconvert/internal/xmlutil"
	"github.com/FocuswithJustin/ebookconvert/internal/ziputil"
)

func init() {
	plugin.RegisterInput(Reader{})
}

// Reader implements plugin.InputPlugin for Word Open XML .docx packages.
type Reader struct{}

func (Reader) Name() string { return "docx" }

func (Reader) Capabilities() plugin.Capabilities {
	return plugin.Capabilities{
		Formats:   []book.EbookFormat{book.FormatDOCX},
		LossClass: "L3",
	}
}

// Detect checks for word/document.xml inside the zip container, rather
// than trusting the .docx extension (ODT and other OOXML-adjacent formats
// share the same outer ZIP shape).
func (Reader) Detect(ctx context.Context, path string) (bool, error) {
	zr, err := ziputil.NewReader(path)
	if err != nil {
		return false, nil
	}
	defer zr.Close()

	for _, name := range zr.Names() {
		if name == "word/document.xml" {
			return true, nil
		}
	}
	return false, nil
}

func (r Reader) Extract(ctx context.Context, docPath string, opts *options.ConversionOptions) (*book.BookDocument, error) {
	zr, err := ziputil.NewReader(docPath)
	if err != nil {
		return nil, errors.NewDOCX("open archive", err)
	}
	defer zr.Close()

	doc := book.New()

	if coreData, err := zr.ReadFile("docProps/core.xml"); err == nil {
		if coreDoc, err := xmlutil.Parse(coreData); err == nil {
			parseCoreMetadata(coreDoc, doc)
		}
	}

	if doc.Metadata.Title() == "" {
		base := filepath.Base(docPath)
		title := strings.TrimSuffix(base, filepath.Ext(base))
		if title == "" {
			title = "Untitled"
		}
		doc.Metadata.SetTitle(title)
	}
	if doc.Metadata.Language() == "" {
		doc.Metadata.Set("language", "en")
	}

	rels := map[string]string{}
	if relsData, err := zr.ReadFile("word/_rels/document.xml.rels"); err == nil {
		if relsDoc, err := xmlutil.Parse(relsData); err == nil {
			rels = parseRelationships(relsDoc)
		}
	}

	styles := map[string]styleInfo{}
	if stylesData, err := zr.ReadFile("word/styles.xml"); err == nil {
		if stylesDoc, err := xmlutil.Parse(stylesData); err == nil {
			styles = parseStyles(stylesDoc)
		}
	}

	numbering := map[string]numberingInfo{}
	if numData, err := zr.ReadFile("word/numbering.xml"); err == nil {
		if numDoc, err := xmlutil.Parse(numData); err == nil {
			numbering = parseNumbering(numDoc)
		}
	}

	imageCount, err := extractImages(zr, doc)
	if err != nil {
		return nil, err
	}

	docXML, err := zr.ReadFile("word/document.xml")
	if err != nil {
		return nil, errors.NewDOCX("missing word/document.xml", err)
	}
	bodyHTML := convertDocument(docXML, rels, styles, numbering)

	title := doc.Metadata.Title()
	xhtml := wrapDocxXHTML(title, bodyHTML)

	if err := doc.Manifest.Add(book.ManifestItem{
		ID: "content", Href: "content.xhtml", MediaType: "application/xhtml+xml",
		Data: book.XHTML(xhtml),
	}); err != nil {
		return nil, errors.NewManifest(fmt.Sprintf("add content: %v", err))
	}
	doc.Spine.Push("content", true)

	if err := doc.Manifest.Add(book.ManifestItem{
		ID: "style", Href: "style.css", MediaType: "text/css",
		Data: book.CSS(docxCSS),
	}); err != nil {
		return nil, errors.NewManifest(fmt.Sprintf("add style: %v", err))
	}

	buildDocxToc(bodyHTML, doc)

	logging.Info("docx extracted", "path", docPath, "images", imageCount, "title", title)
	return doc, nil
}

const docxCSS = `body { font-family: serif; line-height: 1.6; margin: 1em; }
p { margin: 0.3em 0; }
h1 { font-size: 1.8em; margin: 1em 0 0.5em; }
h2 { font-size: 1.4em; margin: 0.8em 0 0.4em; }
h3 { font-size: 1.2em; margin: 0.6em 0 0.3em; }
h4, h5, h6 { font-size: 1.1em; margin: 0.5em 0 0.3em; }
table { border-collapse: collapse; margin: 0.5em 0; width: 100%; }
td, th { border: 1px solid #ccc; padding: 0.3em 0.5em; }
th { font-weight: bold; background: #f5f5f5; }
img { max-width: 100%; height: auto; }
ul, ol { margin: 0.5em 0; padding-left: 2em; }
blockquote { margin: 0.5em 1em; padding-left: 1em; border-left: 3px solid #ccc; }
.docx-center { text-align: center; }
.docx-right { text-align: right; }
.docx-justify { text-align: justify; }`

// parseCoreMetadata reads docProps/core.xml's Dublin Core properties into
// doc.Metadata. Word stores dcterms:created/modified as the closest
// equivalent to a single "date" field; the first one seen wins.
func parseCoreMetadata(coreDoc *xmlutil.Document, doc *book.BookDocument) {
	root := coreDoc.Root()
	if root == nil {
		return
	}
	for _, n := range root.Children() {
		text := strings.TrimSpace(n.Text())
		if text == "" {
			continue
		}
		switch localName(n.Name()) {
		case "title":
			doc.Metadata.SetTitle(text)
		case "creator":
			doc.Metadata.Add("creator", text)
		case "description":
			doc.Metadata.Set("description", text)
		case "subject":
			doc.Metadata.Add("subject", text)
		case "language":
			doc.Metadata.Set("language", text)
		case "created", "modified":
			if !doc.Metadata.Contains("date") {
				doc.Metadata.Set("date", text)
			}
		case "keywords":
			for _, kw := range strings.Split(text, ",") {
				kw = strings.TrimSpace(kw)
				if kw != "" {
					doc.Metadata.Add("subject", kw)
				}
			}
		case "lastModifiedBy":
			doc.Metadata.Add("contributor", text)
		}
	}
}

// extractImages copies every file under word/media/ into the manifest as
// a binary image item, stripping the "word/" prefix so hrefs match the
// relationship targets <w:blip r:embed> resolves to.
func extractImages(zr *ziputil.Reader, doc *book.BookDocument) (int, error) {
	count := 0
	for _, name := range zr.Names() {
		if !strings.HasPrefix(name, "word/media/") {
			continue
		}
		data, err := zr.ReadFile(name)
		if err != nil {
			continue
		}
		href := strings.TrimPrefix(name, "word/")
		id := doc.Manifest.GenerateID("img")
		if err := doc.Manifest.Add(book.ManifestItem{
			ID: id, Href: href, MediaType: mime.FromExtension(path.Ext(href)),
			Data: book.Binary(data),
		}); err != nil {
			return count, errors.NewManifest(fmt.Sprintf("add image %s: %v", href, err))
		}
		count++
	}
	return count, nil
}

func wrapDocxXHTML(title, body string) string {
	if title == "" {
		title = "Untitled"
	}
	return "<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n" +
		"<!DOCTYPE html PUBLIC \"-//W3C//DTD XHTML 1.1//EN\" \"http://www.w3.org/TR/xhtml11/DTD/xhtml11.dtd\">\n" +
		"<html xmlns=\"http://www.w3.org/1999/xhtml\">\n<head>\n<title>" + title + "</title>\n" +
		"<link rel=\"stylesheet\" type=\"text/css\" href=\"style.css\"/>\n</head>\n<body>\n" + body + "\n</body>\n</html>\n"
}

var (
	docxHeadingRe = []*regexp.Regexp{
		regexp.MustCompile(`(?is)<h1[^>]*>(.*?)</h1>`),
		regexp.MustCompile(`(?is)<h2[^>]*>(.*?)</h2>`),
		regexp.MustCompile(`(?is)<h3[^>]*>(.*?)</h3>`),
	}
	docxTagRe = regexp.MustCompile(`<[^>]+>`)
)

type docxHeading struct {
	pos  int
	text string
}

// buildDocxToc scans the rendered body for h1-h3 elements and adds one TOC
// entry per heading in document order, falling back to a single entry for
// the document's title when no headings were found.
func buildDocxToc(html string, doc *book.BookDocument) {
	var headings []docxHeading
	for _, re := range docxHeadingRe {
		for _, loc := range re.FindAllStringSubmatchIndex(html, -1) {
			text := strings.TrimSpace(docxTagRe.ReplaceAllString(html[loc[2]:loc[3]], ""))
			if text != "" {
				headings = append(headings, docxHeading{pos: loc[0], text: text})
			}
		}
	}
	if len(headings) == 0 {
		title := doc.Metadata.Title()
		if title == "" {
			title = "Untitled"
		}
		doc.Toc.Entries = append(doc.Toc.Entries, &book.TocEntry{Title: title, Href: "content.xhtml"})
		return
	}

	for i := 1; i < len(headings); i++ {
		for j := i; j > 0 && headings[j].pos < headings[j-1].pos; j-- {
			headings[j], headings[j-1] = headings[j-1], headings[j]
		}
	}
	for _, h := range headings {
		doc.Toc.Entries = append(doc.Toc.Entries, &book.TocEntry{Title: h.text, Href: "content.xhtml"})
	}
}
