// Package html writes a BookDocument out as a single standalone HTML file:
// every stylesheet inlined into <head>, every spine item's body content
// concatenated in reading order, and every image written alongside the
// output file at its manifest href.
package html

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/FocuswithJustin/ebookconvert/core/book"
	"github.com/FocuswithJustin/ebookconvert/core/encoding"
	"github.com/FocuswithJustin/ebookconvert/core/errors"
	"github.com/FocuswithJustin/ebookconvert/core/options"
	"github.com/FocuswithJustin/ebookconvert/core/plugin"
	"github.com/FocuswithJustin/ebookconvert/internal/logging"
)

func init() {
	plugin.RegisterOutput(Writer{})
}

// Writer implements plugin.OutputPlugin for single-file HTML output.
type Writer struct{}

func (Writer) Name() string { return "html" }

func (Writer) Capabilities() plugin.Capabilities {
	return plugin.Capabilities{
		Formats:   []book.EbookFormat{book.FormatHTML},
		LossClass: "L1",
	}
}

func (w Writer) Write(ctx context.Context, doc *book.BookDocument, path string, opts *options.ConversionOptions) error {
	title := doc.Metadata.Title()
	if title == "" {
		title = "Untitled"
	}

	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n")
	b.WriteString("<meta charset=\"UTF-8\">\n<title>")
	b.WriteString(encoding.EscapeXMLText(title))
	b.WriteString("</title>\n")

	for _, item := range doc.Manifest.Items() {
		if item.IsCSS() {
			if css, ok := item.Data.AsCSS(); ok {
				b.WriteString("<style>\n")
				b.WriteString(css)
				b.WriteString("\n</style>\n")
			}
		}
	}
	b.WriteString("</head>\n<body>\n")

	for _, ref := range doc.Spine.Items() {
		item, ok := doc.Manifest.ByID(ref.IDRef)
		if !ok {
			continue
		}
		xhtml, ok := item.Data.AsXHTML()
		if !ok {
			continue
		}
		if body := extractBody(xhtml); body != "" {
			b.WriteString(body)
			b.WriteString("\n")
		}
	}
	b.WriteString("</body>\n</html>\n")

	dir := filepath.Dir(path)
	for _, item := range doc.Manifest.Items() {
		if !item.IsImage() || item.Data.Kind != book.DataBinary {
			continue
		}
		imgPath := filepath.Join(dir, item.Href)
		if err := os.MkdirAll(filepath.Dir(imgPath), 0o755); err != nil {
			return errors.NewHTML(imgPath, "create image directory", err)
		}
		if err := os.WriteFile(imgPath, item.Data.Binary, 0o644); err != nil {
			return errors.NewHTML(imgPath, "write image", err)
		}
	}

	logging.Info("writing html", "path", path, "items", doc.Manifest.Len())

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return errors.NewHTML(path, "write file", err)
	}
	return nil
}

// extractBody returns the contents between <body ...> and </body>, or ""
// if no body tag is present (unlike the MOBI writer's extractBody, which
// falls back to the whole document — here an un-bodied fragment is
// dropped since it has nowhere safe to sit relative to the inlined CSS).
func extractBody(xhtml string) string {
	lower := strings.ToLower(xhtml)
	start := strings.Index(lower, "<body")
	if start < 0 {
		return ""
	}
	after := strings.IndexByte(xhtml[start:], '>')
	if after < 0 {
		return ""
	}
	bodyStart := start + after + 1
	end := strings.LastIndex(lower, "</body>")
	if end < 0 || end <= bodyStart {
		return ""
	}
	return xhtml[bodyStart:end]
}
