// Package rtf reads a Rich Text Format document into a BookDocument. It
// delegates parsing and inline-HTML rendering to core/rtf, wraps the
// rendered body fragment in this project's own XHTML shell, and builds a
// table of contents from the same heading-position scan input/mobi and
// input/docx use.
package rtf

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	corertf "github.com/FocuswithJustin/ebookconvert/core/rtf"

	"github.com/FocuswithJustin/ebookconvert/core/book"
	"github.com/FocuswithJustin/ebookconvert/core/errors"
	"github.com/FocuswithJustin/ebookconvert/core/options"
	"github.com/FocuswithJustin/ebookconvert/core/plugin"
	"github.com/FocuswithJustin/ebookconvert/internal/logging"
)

func init() {
	plugin.RegisterInput(Reader{})
}

// Reader implements plugin.InputPlugin for RTF documents.
type Reader struct{}

func (Reader) Name() string { return "rtf" }

func (Reader) Capabilities() plugin.Capabilities {
	return plugin.Capabilities{
		Formats:   []book.EbookFormat{book.FormatRTF},
		LossClass: "L3",
	}
}

// Detect sniffs the RTF header rather than trusting the extension, since
// callers may hand this reader a renamed or extensionless file.
func (Reader) Detect(ctx context.Context, path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, nil
	}
	defer f.Close()

	buf := make([]byte, 5)
	n, _ := f.Read(buf)
	return n == 5 && string(buf) == "{\\rtf", nil
}

func (r Reader) Extract(ctx context.Context, rtfPath string, opts *options.ConversionOptions) (*book.BookDocument, error) {
	data, err := os.ReadFile(rtfPath)
	if err != nil {
		return nil, errors.NewRTF("read file", err)
	}

	rdoc, err := corertf.Parse(data)
	if err != nil {
		return nil, errors.NewRTF("parse document", err)
	}

	doc := book.New()

	meta := rdoc.Metadata()
	if meta.Title != "" {
		doc.Metadata.SetTitle(meta.Title)
	}
	if meta.Author != "" {
		doc.Metadata.Add("creator", meta.Author)
	}
	if meta.Subject != "" {
		doc.Metadata.Set("description", meta.Subject)
	}
	if meta.Created != "" {
		doc.Metadata.Set("date", meta.Created)
	}

	if doc.Metadata.Title() == "" {
		base := filepath.Base(rtfPath)
		title := strings.TrimSuffix(base, filepath.Ext(base))
		if title == "" {
			title = "Untitled"
		}
		doc.Metadata.SetTitle(title)
	}
	if doc.Metadata.Language() == "" {
		doc.Metadata.Set("language", "en")
	}

	bodyHTML := rdoc.BodyHTML()
	title := doc.Metadata.Title()
	xhtml := wrapRTFXHTML(title, bodyHTML)

	if err := doc.Manifest.Add(book.ManifestItem{
		ID: "content", Href: "content.xhtml", MediaType: "application/xhtml+xml",
		Data: book.XHTML(xhtml),
	}); err != nil {
		return nil, errors.NewManifest(fmt.Sprintf("add content: %v", err))
	}
	doc.Spine.Push("content", true)

	if err := doc.Manifest.Add(book.ManifestItem{
		ID: "style", Href: "style.css", MediaType: "text/css",
		Data: book.CSS(rtfCSS),
	}); err != nil {
		return nil, errors.NewManifest(fmt.Sprintf("add style: %v", err))
	}

	buildRTFToc(bodyHTML, doc)

	logging.Info("rtf extracted", "path", rtfPath, "title", title)
	return doc, nil
}

const rtfCSS = `body { font-family: serif; line-height: 1.6; margin: 1em; }
p { margin: 0.3em 0; }
h1 { font-size: 1.8em; margin: 1em 0 0.5em; }
h2 { font-size: 1.4em; margin: 0.8em 0 0.4em; }
h3 { font-size: 1.2em; margin: 0.6em 0 0.3em; }
.center { text-align: center; }
.right { text-align: right; }
.justify { text-align: justify; }`

func wrapRTFXHTML(title, body string) string {
	if title == "" {
		title = "Untitled"
	}
	return "<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n" +
		"<!DOCTYPE html PUBLIC \"-//W3C//DTD XHTML 1.1//EN\" \"http://www.w3.org/TR/xhtml11/DTD/xhtml11.dtd\">\n" +
		"<html xmlns=\"http://www.w3.org/1999/xhtml\">\n<head>\n<title>" + title + "</title>\n" +
		"<link rel=\"stylesheet\" type=\"text/css\" href=\"style.css\"/>\n</head>\n<body>\n" + body + "\n</body>\n</html>\n"
}

// RTF has no native heading markup (unlike DOCX's pStyle or MOBI's
// rendered output), and core/rtf's renderer emits no <h1>-<h6> tags, so
// this scan finds no headings in its output and the TOC falls back to a
// single title entry.
var (
	rtfHeadingRe = []*regexp.Regexp{
		regexp.MustCompile(`(?is)<h1[^>]*>(.*?)</h1>`),
		regexp.MustCompile(`(?is)<h2[^>]*>(.*?)</h2>`),
		regexp.MustCompile(`(?is)<h3[^>]*>(.*?)</h3>`),
	}
	rtfTagRe = regexp.MustCompile(`<[^>]+>`)
)

type rtfHeading struct {
	pos  int
	text string
}

func buildRTFToc(html string, doc *book.BookDocument) {
	var headings []rtfHeading
	for _, re := range rtfHeadingRe {
		for _, loc := range re.FindAllStringSubmatchIndex(html, -1) {
			text := strings.TrimSpace(rtfTagRe.ReplaceAllString(html[loc[2]:loc[3]], ""))
			if text != "" {
				headings = append(headings, rtfHeading{pos: loc[0], text: text})
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
