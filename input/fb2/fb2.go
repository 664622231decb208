// Package fb2 reads a FictionBook 2 XML file into a BookDocument. FB2
// keeps everything — metadata, body text, and base64-encoded images — in
// a single XML file, so this package streams it once with a path-aware
// encoding/xml token decoder rather than the zip-plus-several-XML-parts
// shape input/docx and input/odt need.
package fb2

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
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

// Reader implements plugin.InputPlugin for FictionBook 2 files.
type Reader struct{}

func (Reader) Name() string { return "fb2" }

func (Reader) Capabilities() plugin.Capabilities {
	return plugin.Capabilities{
		Formats:   []book.EbookFormat{book.FormatFB2},
		LossClass: "L3",
	}
}

// Detect looks for the FictionBook root element within the first chunk of
// the file rather than trusting the extension.
func (Reader) Detect(ctx context.Context, path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, nil
	}
	defer f.Close()

	buf := make([]byte, 4096)
	n, _ := f.Read(buf)
	return bytes.Contains(buf[:n], []byte("<FictionBook")), nil
}

func (r Reader) Extract(ctx context.Context, fb2Path string, opts *options.ConversionOptions) (*book.BookDocument, error) {
	data, err := os.ReadFile(fb2Path)
	if err != nil {
		return nil, errors.NewFB2("read file", err)
	}

	doc := book.New()
	bodyHTML, sectionTitles, err := parseFB2(data, doc)
	if err != nil {
		return nil, errors.NewFB2("parse document", err)
	}

	if doc.Metadata.Title() == "" {
		base := filepath.Base(fb2Path)
		title := strings.TrimSuffix(base, filepath.Ext(base))
		if title == "" {
			title = "Untitled"
		}
		doc.Metadata.SetTitle(title)
	}
	if doc.Metadata.Language() == "" {
		doc.Metadata.Set("language", "en")
	}

	title := doc.Metadata.Title()
	xhtml := wrapFB2XHTML(title, bodyHTML)

	if err := doc.Manifest.Add(book.ManifestItem{
		ID: "content", Href: "content.xhtml", MediaType: "application/xhtml+xml",
		Data: book.XHTML(xhtml),
	}); err != nil {
		return nil, errors.NewManifest(fmt.Sprintf("add content: %v", err))
	}
	doc.Spine.Push("content", true)

	if err := doc.Manifest.Add(book.ManifestItem{
		ID: "style", Href: "style.css", MediaType: "text/css",
		Data: book.CSS(fb2CSS),
	}); err != nil {
		return nil, errors.NewManifest(fmt.Sprintf("add style: %v", err))
	}

	for _, t := range sectionTitles {
		doc.Toc.Entries = append(doc.Toc.Entries, &book.TocEntry{Title: t, Href: "content.xhtml"})
	}
	if len(doc.Toc.Entries) == 0 {
		doc.Toc.Entries = append(doc.Toc.Entries, &book.TocEntry{Title: title, Href: "content.xhtml"})
	}

	imageCount := 0
	for _, item := range doc.Manifest.Items() {
		if strings.HasPrefix(item.MediaType, "image/") {
			imageCount++
		}
	}
	logging.Info("fb2 extracted", "path", fb2Path, "images", imageCount, "sections", len(sectionTitles), "title", title)
	return doc, nil
}

const fb2CSS = `body { font-family: serif; line-height: 1.6; margin: 1em; }
p { margin: 0.5em 0; text-indent: 1.5em; }
p:first-child { text-indent: 0; }
h1, h2, h3, h4, h5, h6 { text-indent: 0; margin: 1em 0 0.5em; }
img { max-width: 100%; height: auto; }
.poem { margin: 1em 2em; font-style: italic; }
.stanza { margin: 0.5em 0; }
.verse { margin: 0; text-indent: 0; }
.epigraph { margin: 1em 2em; font-style: italic; color: #555; }
.text-author { text-align: right; font-style: italic; }
blockquote { margin: 1em 2em; }
code { font-family: monospace; }`

func wrapFB2XHTML(title, body string) string {
	if title == "" {
		title = "Untitled"
	}
	return "<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n" +
		"<!DOCTYPE html PUBLIC \"-//W3C//DTD XHTML 1.1//EN\" \"http://www.w3.org/TR/xhtml11/DTD/xhtml11.dtd\">\n" +
		"<html xmlns=\"http://www.w3.org/1999/xhtml\">\n<head>\n<title>" + title + "</title>\n" +
		"<link rel=\"stylesheet\" type=\"text/css\" href=\"style.css\"/>\n</head>\n<body>\n" + body + "\n</body>\n</html>\n"
}
