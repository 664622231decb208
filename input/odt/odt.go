// Package odt reads an OpenDocument Text (.odt) ZIP package into a
// BookDocument. Metadata lives in meta.xml, heading style names in
// styles.xml and content.xml's automatic styles, and the document body
// in content.xml, which this package streams through the same
// encoding/xml token-decoder idiom input/docx uses for word/document.xml.
package odt

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/FocuswithJustin/ebookconvert/core/book"
	"github.com/FocuswithJustin/ebookconvert/core/errors"
	"github.com/FocuswithJustin/ebookconvert/core/options"
	"github.com/FocuswithJustin/ebookconvert/core/plugin"
	"github.com/FocuswithJustin/ebookconvert/internal/logging"
	"github.com/FocuswithJustin/ebookconvert/internal/mime"
	"github.com/FocuswithJustin/ebookconvert/internal/ziputil"
)

func init() {
	plugin.RegisterInput(Reader{})
}

// Reader implements plugin.InputPlugin for OpenDocument Text packages.
type Reader struct{}

func (Reader) Name() string { return "odt" }

func (Reader) Capabilities() plugin.Capabilities {
	return plugin.Capabilities{
		Formats:   []book.EbookFormat{book.FormatODT},
		LossClass: "L3",
	}
}

// Detect checks for content.xml and the ODT mimetype entry rather than
// trusting the .odt extension, since ODT and DOCX share the same outer
// ZIP shape.
func (Reader) Detect(ctx context.Context, path string) (bool, error) {
	zr, err := ziputil.NewReader(path)
	if err != nil {
		return false, nil
	}
	defer zr.Close()

	hasContent := false
	for _, name := range zr.Names() {
		if name == "content.xml" {
			hasContent = true
		}
	}
	if !hasContent {
		return false, nil
	}
	if data, err := zr.ReadFile("mimetype"); err == nil {
		return strings.Contains(string(data), "opendocument.text"), nil
	}
	return hasContent, nil
}

func (r Reader) Extract(ctx context.Context, odtPath string, opts *options.ConversionOptions) (*book.BookDocument, error) {
	zr, err := ziputil.NewReader(odtPath)
	if err != nil {
		return nil, errors.NewODT("open archive", err)
	}
	defer zr.Close()

	doc := book.New()

	if metaData, err := zr.ReadFile("meta.xml"); err == nil {
		parseMetadata(metaData, doc)
	}

	headingStyles := map[string]bool{}
	if stylesData, err := zr.ReadFile("styles.xml"); err == nil {
		for name := range parseHeadingStyles(stylesData) {
			headingStyles[name] = true
		}
	}

	contentData, err := zr.ReadFile("content.xml")
	if err != nil {
		return nil, errors.NewODT("missing content.xml", err)
	}
	for name := range parseHeadingStyles(contentData) {
		headingStyles[name] = true
	}

	imageCount, err := extractImages(zr, doc)
	if err != nil {
		return nil, err
	}

	if doc.Metadata.Title() == "" {
		base := filepath.Base(odtPath)
		title := strings.TrimSuffix(base, filepath.Ext(base))
		if title == "" {
			title = "Untitled"
		}
		doc.Metadata.SetTitle(title)
	}
	if doc.Metadata.Language() == "" {
		doc.Metadata.Set("language", "en")
	}

	bodyHTML := convertContentXML(contentData, headingStyles)
	title := doc.Metadata.Title()
	xhtml := wrapODTXHTML(title, bodyHTML)

	if err := doc.Manifest.Add(book.ManifestItem{
		ID: "content", Href: "content.xhtml", MediaType: "application/xhtml+xml",
		Data: book.XHTML(xhtml),
	}); err != nil {
		return nil, errors.NewManifest(fmt.Sprintf("add content: %v", err))
	}
	doc.Spine.Push("content", true)

	if err := doc.Manifest.Add(book.ManifestItem{
		ID: "style", Href: "style.css", MediaType: "text/css",
		Data: book.CSS(odtCSS),
	}); err != nil {
		return nil, errors.NewManifest(fmt.Sprintf("add style: %v", err))
	}

	buildODTToc(bodyHTML, doc)

	logging.Info("odt extracted", "path", odtPath, "images", imageCount, "title", title)
	return doc, nil
}

const odtCSS = `body { font-family: serif; line-height: 1.6; margin: 1em; }
p { margin: 0.5em 0; text-indent: 1.5em; }
p:first-child { text-indent: 0; }
h1, h2, h3, h4, h5, h6 { text-indent: 0; margin: 1em 0 0.5em; }
table { border-collapse: collapse; margin: 0.5em 0; width: 100%; }
td, th { border: 1px solid #ccc; padding: 0.3em 0.5em; }
img { max-width: 100%; height: auto; }
.center { text-align: center; }
.right { text-align: right; }`

// parseMetadata streams meta.xml's Dublin Core and ODF metadata elements
// into doc.Metadata.
func parseMetadata(data []byte, doc *book.BookDocument) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	currentTag := ""
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			currentTag = t.Name.Local
		case xml.EndElement:
			currentTag = ""
		case xml.CharData:
			text := strings.TrimSpace(string(t))
			if text == "" {
				continue
			}
			switch currentTag {
			case "title":
				doc.Metadata.SetTitle(text)
			case "creator", "initial-creator":
				doc.Metadata.Add("creator", text)
			case "description", "subject":
				doc.Metadata.Set("description", text)
			case "language":
				doc.Metadata.Set("language", text)
			case "date", "creation-date":
				if !doc.Metadata.Contains("date") {
					doc.Metadata.Set("date", text)
				}
			case "keyword":
				doc.Metadata.Add("subject", text)
			}
		}
	}
}

// parseHeadingStyles scans style:style and text:list-style elements for
// ones whose name or parent-style-name starts with "Heading", matching
// both styles.xml's named styles and content.xml's automatic styles.
func parseHeadingStyles(data []byte) map[string]bool {
	styles := map[string]bool{}
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if start.Name.Local != "style" && start.Name.Local != "list-style" {
			continue
		}
		var styleName, parent string
		for _, a := range start.Attr {
			switch a.Name.Local {
			case "name":
				styleName = a.Value
			case "parent-style-name":
				parent = a.Value
			}
		}
		if strings.HasPrefix(parent, "Heading") || strings.HasPrefix(styleName, "Heading") {
			styles[styleName] = true
		}
	}
	return styles
}

// extractImages copies every file under Pictures/ into the manifest as a
// binary image item, mirroring the href convention draw:image resolves
// against ("images/" + name with the Pictures/ prefix stripped).
func extractImages(zr *ziputil.Reader, doc *book.BookDocument) (int, error) {
	count := 0
	for _, name := range zr.Names() {
		if !strings.HasPrefix(name, "Pictures/") || strings.HasSuffix(name, "/") {
			continue
		}
		data, err := zr.ReadFile(name)
		if err != nil {
			continue
		}
		clean := strings.TrimPrefix(name, "Pictures/")
		href := "images/" + clean
		id := doc.Manifest.GenerateID("img")
		if err := doc.Manifest.Add(book.ManifestItem{
			ID: id, Href: href, MediaType: mime.FromExtension(filepath.Ext(clean)),
			Data: book.Binary(data),
		}); err != nil {
			return count, errors.NewManifest(fmt.Sprintf("add image %s: %v", href, err))
		}
		count++
	}
	return count, nil
}

func wrapODTXHTML(title, body string) string {
	if title == "" {
		title = "Untitled"
	}
	return "<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n" +
		"<!DOCTYPE html PUBLIC \"-//W3C//DTD XHTML 1.1//EN\" \"http://www.w3.org/TR/xhtml11/DTD/xhtml11.dtd\">\n" +
		"<html xmlns=\"http://www.w3.org/1999/xhtml\">\n<head>\n<title>" + title + "</title>\n" +
		"<link rel=\"stylesheet\" type=\"text/css\" href=\"style.css\"/>\n</head>\n<body>\n" + body + "\n</body>\n</html>\n"
}

var (
	odtHeadingRe = []*regexp.Regexp{
		regexp.MustCompile(`(?is)<h1[^>]*>(.*?)</h1>`),
		regexp.MustCompile(`(?is)<h2[^>]*>(.*?)</h2>`),
		regexp.MustCompile(`(?is)<h3[^>]*>(.*?)</h3>`),
	}
	odtTagRe = regexp.MustCompile(`<[^>]+>`)
)

type odtHeading struct {
	pos  int
	text string
}

// buildODTToc scans the rendered body for h1-h3 elements and adds one TOC
// entry per heading in document order, falling back to a single entry for
// the document's title when no headings were found.
func buildODTToc(html string, doc *book.BookDocument) {
	var headings []odtHeading
	for _, re := range odtHeadingRe {
		for _, loc := range re.FindAllStringSubmatchIndex(html, -1) {
			text := strings.TrimSpace(odtTagRe.ReplaceAllString(html[loc[2]:loc[3]], ""))
			if text != "" {
				headings = append(headings, odtHeading{pos: loc[0], text: text})
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
