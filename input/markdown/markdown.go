// Package markdown reads a Markdown file into a BookDocument. No
// Markdown-to-HTML library appears anywhere in this project's dependency
// stack, so this package renders the common subset of Markdown itself
// with the regex-driven, line-oriented approach the project's other
// text converters already use (see convert.go).
package markdown

import (
	"context"
	"os"
	"path/filepath"
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

// Reader implements plugin.InputPlugin for Markdown files.
type Reader struct{}

func (Reader) Name() string { return "markdown" }

func (Reader) Capabilities() plugin.Capabilities {
	return plugin.Capabilities{
		Formats:   []book.EbookFormat{book.FormatMarkdown},
		LossClass: "L4",
	}
}

func (Reader) Detect(ctx context.Context, path string) (bool, error) {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".md" || ext == ".markdown", nil
}

var firstH1Re = regexp.MustCompile(`(?m)^#\s+(.+?)\s*#*$`)

func (r Reader) Extract(ctx context.Context, mdPath string, opts *options.ConversionOptions) (*book.BookDocument, error) {
	data, err := os.ReadFile(mdPath)
	if err != nil {
		return nil, errors.NewOther("read markdown file", err)
	}
	source := string(data)

	doc := book.New()

	title := ""
	if m := firstH1Re.FindStringSubmatch(source); m != nil {
		title = strings.TrimSpace(m[1])
	}
	if title == "" {
		base := filepath.Base(mdPath)
		title = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if title == "" {
		title = "Untitled"
	}
	doc.Metadata.SetTitle(title)
	doc.Metadata.Set("language", "en")

	body := markdownToXHTML(source)
	xhtml := wrapMarkdownXHTML(title, body)

	if err := doc.Manifest.Add(book.ManifestItem{
		ID: "content", Href: "content.xhtml", MediaType: "application/xhtml+xml",
		Data: book.XHTML(xhtml),
	}); err != nil {
		return nil, errors.NewManifest("add content: " + err.Error())
	}
	doc.Spine.Push("content", true)

	if err := doc.Manifest.Add(book.ManifestItem{
		ID: "style", Href: "style.css", MediaType: "text/css",
		Data: book.CSS(markdownCSS),
	}); err != nil {
		return nil, errors.NewManifest("add style: " + err.Error())
	}

	doc.Toc.Entries = buildMarkdownToc(body, title)

	logging.Info("markdown extracted", "path", mdPath, "title", title)
	return doc, nil
}

const markdownCSS = `body { font-family: serif; line-height: 1.6; margin: 1em; }
p { margin: 0.5em 0; }
h1, h2, h3, h4, h5, h6 { margin: 1em 0 0.5em; }
pre { background: #f4f4f4; padding: 0.5em; overflow-x: auto; }
code { font-family: monospace; }
blockquote { margin: 1em 2em; color: #555; }
img { max-width: 100%; height: auto; }`

var mdHeadingRe = regexp.MustCompile(`<h([1-6])>(.*?)</h[1-6]>`)
var mdTagRe = regexp.MustCompile(`<[^>]+>`)

// buildMarkdownToc scans the rendered body for heading tags, mirroring
// the post-hoc heading scan input/docx and input/odt use once their
// HTML body is assembled, rather than tracking headings during render.
func buildMarkdownToc(body, fallbackTitle string) []*book.TocEntry {
	matches := mdHeadingRe.FindAllStringSubmatch(body, -1)
	if len(matches) == 0 {
		return []*book.TocEntry{{Title: fallbackTitle, Href: "content.xhtml"}}
	}
	entries := make([]*book.TocEntry, 0, len(matches))
	for _, m := range matches {
		text := strings.TrimSpace(mdTagRe.ReplaceAllString(m[2], ""))
		if text == "" {
			continue
		}
		entries = append(entries, &book.TocEntry{Title: text, Href: "content.xhtml"})
	}
	if len(entries) == 0 {
		return []*book.TocEntry{{Title: fallbackTitle, Href: "content.xhtml"}}
	}
	return entries
}

func wrapMarkdownXHTML(title, body string) string {
	if title == "" {
		title = "Untitled"
	}
	return "<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n" +
		"<!DOCTYPE html PUBLIC \"-//W3C//DTD XHTML 1.1//EN\" \"http://www.w3.org/TR/xhtml11/DTD/xhtml11.dtd\">\n" +
		"<html xmlns=\"http://www.w3.org/1999/xhtml\">\n<head>\n<title>" + title + "</title>\n" +
		"<link rel=\"stylesheet\" type=\"text/css\" href=\"style.css\"/>\n</head>\n<body>\n" + body + "</body>\n</html>\n"
}
