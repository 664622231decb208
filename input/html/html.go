// Package html reads a single (possibly malformed) HTML file into a
// BookDocument. It walks the document with golang.org/x/net/html's
// tolerant tokenizer/tree-builder rather than regexes, since source HTML
// handed to an ebook converter is rarely well-formed XHTML.
package html

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"

	"github.com/FocuswithJustin/ebookconvert/core/book"
	"github.com/FocuswithJustin/ebookconvert/core/errors"
	"github.com/FocuswithJustin/ebookconvert/core/options"
	"github.com/FocuswithJustin/ebookconvert/core/plugin"
	"github.com/FocuswithJustin/ebookconvert/internal/logging"
	"github.com/FocuswithJustin/ebookconvert/internal/mime"
)

func init() {
	plugin.RegisterInput(Reader{})
}

// Reader implements plugin.InputPlugin for standalone HTML files.
type Reader struct{}

func (Reader) Name() string { return "html" }

func (Reader) Capabilities() plugin.Capabilities {
	return plugin.Capabilities{
		Formats:   []book.EbookFormat{book.FormatHTML},
		LossClass: "L4",
	}
}

func (Reader) Detect(ctx context.Context, path string) (bool, error) {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".html" || ext == ".htm" || ext == ".xhtml", nil
}

func (r Reader) Extract(ctx context.Context, htmlPath string, opts *options.ConversionOptions) (*book.BookDocument, error) {
	data, err := os.ReadFile(htmlPath)
	if err != nil {
		return nil, errors.NewOther("read html file", err)
	}
	content := string(data)

	root, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return nil, errors.NewOther("parse html", err)
	}

	doc := book.New()

	title := extractTitle(root)
	if title == "" {
		base := filepath.Base(htmlPath)
		title = strings.TrimSuffix(base, filepath.Ext(base))
		if title == "" {
			title = "Untitled"
		}
	}
	doc.Metadata.SetTitle(title)
	doc.Metadata.Set("language", "en")

	baseDir := filepath.Dir(htmlPath)
	imageCount := collectResources(root, baseDir, doc)

	var xhtml string
	if strings.Contains(content, "<html") || strings.Contains(content, "<HTML") {
		xhtml = content
	} else {
		xhtml = wrapHTMLXHTML(title, content)
	}

	if err := doc.Manifest.Add(book.ManifestItem{
		ID: "content", Href: "content.xhtml", MediaType: "application/xhtml+xml",
		Data: book.XHTML(xhtml),
	}); err != nil {
		return nil, errors.NewManifest("add content: " + err.Error())
	}
	doc.Spine.Push("content", true)
	doc.Toc.Entries = append(doc.Toc.Entries, &book.TocEntry{Title: title, Href: "content.xhtml"})

	logging.Info("html extracted", "path", htmlPath, "images", imageCount, "title", title)
	return doc, nil
}

// extractTitle walks the parse tree for the first <title> element's text
// content, tolerating documents with no <head> or a misplaced <title>.
func extractTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		var buf strings.Builder
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				buf.WriteString(c.Data)
			}
		}
		return strings.TrimSpace(buf.String())
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if title := extractTitle(c); title != "" {
			return title
		}
	}
	return ""
}

// collectResources walks the tree for <link rel="stylesheet"> and <img
// src="..."> references that resolve to a file alongside the source HTML,
// adding each as a manifest item. Data URIs and remote URLs are skipped.
func collectResources(n *html.Node, baseDir string, doc *book.BookDocument) int {
	imageCount := 0
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "link":
				if attrVal(n, "rel") == "stylesheet" {
					if href := attrVal(n, "href"); href != "" && isLocalRef(href) {
						addCSSResource(baseDir, href, doc)
					}
				}
			case "img":
				if src := attrVal(n, "src"); src != "" && isLocalRef(src) {
					if addImageResource(baseDir, src, doc) {
						imageCount++
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return imageCount
}

func attrVal(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func isLocalRef(ref string) bool {
	return !strings.HasPrefix(ref, "data:") && !strings.HasPrefix(ref, "http://") && !strings.HasPrefix(ref, "https://")
}

func addCSSResource(baseDir, href string, doc *book.BookDocument) {
	data, err := os.ReadFile(filepath.Join(baseDir, href))
	if err != nil {
		return
	}
	id := doc.Manifest.GenerateID("css")
	_ = doc.Manifest.Add(book.ManifestItem{
		ID: id, Href: href, MediaType: "text/css", Data: book.CSS(string(data)),
	})
}

func addImageResource(baseDir, src string, doc *book.BookDocument) bool {
	data, err := os.ReadFile(filepath.Join(baseDir, src))
	if err != nil {
		return false
	}
	id := doc.Manifest.GenerateID("img")
	err = doc.Manifest.Add(book.ManifestItem{
		ID: id, Href: src, MediaType: mime.FromExtension(filepath.Ext(src)), Data: book.Binary(data),
	})
	return err == nil
}

func wrapHTMLXHTML(title, body string) string {
	if title == "" {
		title = "Untitled"
	}
	return "<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n" +
		"<!DOCTYPE html PUBLIC \"-//W3C//DTD XHTML 1.1//EN\" \"http://www.w3.org/TR/xhtml11/DTD/xhtml11.dtd\">\n" +
		"<html xmlns=\"http://www.w3.org/1999/xhtml\">\n<head>\n<title>" + title + "</title>\n</head>\n<body>\n" + body + "\n</body>\n</html>\n"
}
