package transforms

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/FocuswithJustin/ebookconvert/core/book"
	"github.com/FocuswithJustin/ebookconvert/core/options"
	"github.com/FocuswithJustin/ebookconvert/internal/logging"
)

var firstImgRe = regexp.MustCompile(`<img[^>]*>`)

// Jacket optionally inserts a metadata title page at spine[0] and/or
// strips the first image from the original first spine item — for
// readers that render a redundant cover twice otherwise.
type Jacket struct{}

func (Jacket) Name() string { return "Jacket" }

func (Jacket) ShouldRun(opts *options.ConversionOptions) bool {
	return opts.InsertMetadata || opts.RemoveFirstImage
}

func (j Jacket) Apply(ctx context.Context, doc *book.BookDocument, opts *options.ConversionOptions) error {
	if !j.ShouldRun(opts) {
		return nil
	}
	if opts.RemoveFirstImage {
		removeFirstImage(doc)
	}
	if opts.InsertMetadata {
		insertJacket(doc)
	}
	return nil
}

func removeFirstImage(doc *book.BookDocument) {
	items := doc.Spine.Items()
	if len(items) == 0 {
		return
	}
	firstIDRef := items[0].IDRef
	item, ok := doc.Manifest.ByID(firstIDRef)
	if !ok || !item.IsXHTML() {
		return
	}
	xhtml, _ := item.Data.AsXHTML()
	loc := firstImgRe.FindStringIndex(xhtml)
	if loc == nil {
		return
	}
	newXHTML := xhtml[:loc[0]] + xhtml[loc[1]:]
	_ = doc.Manifest.Update(item.ID, book.ManifestItem{
		ID: item.ID, Href: item.Href, MediaType: item.MediaType,
		Data: book.XHTML(newXHTML), Fallback: item.Fallback,
	})
	logging.Info("removed first image from spine item", "idref", firstIDRef)
}

func insertJacket(doc *book.BookDocument) {
	title := doc.Metadata.Title()
	if title == "" {
		title = "Unknown Title"
	}
	authors := strings.Join(doc.Metadata.Authors(), ", ")
	publisher := doc.Metadata.Publisher()
	date := doc.Metadata.Date()
	description := doc.Metadata.Description()
	series, _ := doc.Metadata.GetFirst("series")
	seriesIndex, _ := doc.Metadata.GetFirst("series_index")

	var body []string
	body = append(body, fmt.Sprintf(`<h1 class="jacket-title">%s</h1>`, escapeHTML(title)))
	if authors != "" {
		body = append(body, fmt.Sprintf(`<p class="jacket-authors">%s</p>`, escapeHTML(authors)))
	}
	if series != "" {
		seriesText := escapeHTML(series)
		if seriesIndex != "" {
			seriesText = fmt.Sprintf("%s #%s", escapeHTML(series), escapeHTML(seriesIndex))
		}
		body = append(body, fmt.Sprintf(`<p class="jacket-series">%s</p>`, seriesText))
	}
	if publisher != "" {
		body = append(body, fmt.Sprintf(`<p class="jacket-publisher">%s</p>`, escapeHTML(publisher)))
	}
	if date != "" {
		body = append(body, fmt.Sprintf(`<p class="jacket-date">%s</p>`, escapeHTML(date)))
	}
	if description != "" {
		body = append(body, fmt.Sprintf(`<div class="jacket-description">%s</div>`, description))
	}

	jacketXHTML := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.1//EN" "http://www.w3.org/TR/xhtml11/DTD/xhtml11.dtd">
<html xmlns="http://www.w3.org/1999/xhtml">
<head>
  <title>%s</title>
  <style type="text/css">
    .jacket-title { font-size: 1.8em; text-align: center; margin: 1em 0 0.5em; }
    .jacket-authors { font-size: 1.2em; text-align: center; margin: 0.5em 0; }
    .jacket-series { text-align: center; font-style: italic; margin: 0.5em 0; }
    .jacket-publisher { text-align: center; margin: 0.5em 0; }
    .jacket-date { text-align: center; color: #666; margin: 0.5em 0; }
    .jacket-description { margin: 1.5em 1em; }
  </style>
</head>
<body>
    %s
</body>
</html>`, escapeHTML(title), strings.Join(body, "\n    "))

	jacketID := doc.Manifest.GenerateID("jacket")
	jacketHref := doc.Manifest.GenerateHref("jacket", "xhtml")
	_ = doc.Manifest.Add(book.ManifestItem{
		ID: jacketID, Href: jacketHref, MediaType: "application/xhtml+xml",
		Data: book.XHTML(jacketXHTML),
	})
	doc.Spine.Insert(0, jacketID, true)

	logging.Info("inserted metadata jacket page at spine[0]")
}

func escapeHTML(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
	return r.Replace(s)
}
