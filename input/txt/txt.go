// Package txt reads a plain-text file into a BookDocument, splitting on
// blank lines to recover paragraph breaks since plain text carries no
// other structural markup.
package txt

import (
	"context"
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

// Reader implements plugin.InputPlugin for plain-text files.
type Reader struct{}

func (Reader) Name() string { return "txt" }

func (Reader) Capabilities() plugin.Capabilities {
	return plugin.Capabilities{
		Formats:   []book.EbookFormat{book.FormatTXT},
		LossClass: "L4",
	}
}

func (Reader) Detect(ctx context.Context, path string) (bool, error) {
	return strings.ToLower(filepath.Ext(path)) == ".txt", nil
}

func (r Reader) Extract(ctx context.Context, txtPath string, opts *options.ConversionOptions) (*book.BookDocument, error) {
	data, err := os.ReadFile(txtPath)
	if err != nil {
		return nil, errors.NewOther("read txt file", err)
	}

	doc := book.New()

	base := filepath.Base(txtPath)
	title := strings.TrimSuffix(base, filepath.Ext(base))
	if title == "" {
		title = "Untitled"
	}
	doc.Metadata.SetTitle(title)
	doc.Metadata.Set("language", "en")

	body := plaintextToXHTML(string(data))
	xhtml := wrapTXTXHTML(title, body)

	if err := doc.Manifest.Add(book.ManifestItem{
		ID: "content", Href: "content.xhtml", MediaType: "application/xhtml+xml",
		Data: book.XHTML(xhtml),
	}); err != nil {
		return nil, errors.NewManifest("add content: " + err.Error())
	}
	doc.Spine.Push("content", true)

	if err := doc.Manifest.Add(book.ManifestItem{
		ID: "style", Href: "style.css", MediaType: "text/css",
		Data: book.CSS(txtCSS),
	}); err != nil {
		return nil, errors.NewManifest("add style: " + err.Error())
	}

	doc.Toc.Entries = append(doc.Toc.Entries, &book.TocEntry{Title: title, Href: "content.xhtml"})

	logging.Info("txt extracted", "path", txtPath, "title", title)
	return doc, nil
}

const txtCSS = `body { font-family: serif; line-height: 1.6; margin: 1em; }
p { margin: 0.5em 0; }`

// plaintextToXHTML splits on blank lines to recover paragraphs, escapes
// HTML-significant characters, and turns remaining single newlines
// within a paragraph into <br/> so line breaks the author intended
// (poems, addresses) survive.
func plaintextToXHTML(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	paragraphs := strings.Split(text, "\n\n")

	var buf strings.Builder
	for _, para := range paragraphs {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		buf.WriteString("<p>")
		lines := strings.Split(para, "\n")
		for i, line := range lines {
			if i > 0 {
				buf.WriteString("<br/>")
			}
			buf.WriteString(escapeText(line))
		}
		buf.WriteString("</p>\n")
	}
	return buf.String()
}

func escapeText(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}

func wrapTXTXHTML(title, body string) string {
	if title == "" {
		title = "Untitled"
	}
	return "<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n" +
		"<!DOCTYPE html PUBLIC \"-//W3C//DTD XHTML 1.1//EN\" \"http://www.w3.org/TR/xhtml11/DTD/xhtml11.dtd\">\n" +
		"<html xmlns=\"http://www.w3.org/1999/xhtml\">\n<head>\n<title>" + title + "</title>\n" +
		"<link rel=\"stylesheet\" type=\"text/css\" href=\"style.css\"/>\n</head>\n<body>\n" + body + "</body>\n</html>\n"
}
