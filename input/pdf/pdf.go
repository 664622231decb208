// Package pdf reads PDF documents by shelling out to poppler-utils
// (pdfinfo, pdftohtml, pdftoppm) rather than parsing the PDF object
// model directly, the same hybrid text/image strategy poppler-based
// converters have used for years. See input/pdf/pdfproc for the
// classification, reconstruction, and subprocess-orchestration logic;
// this file only wires that output into a BookDocument.
package pdf

import (
	"context"
	"os"
	"strconv"
	"strings"

	"github.com/FocuswithJustin/ebookconvert/core/book"
	"github.com/FocuswithJustin/ebookconvert/core/errors"
	"github.com/FocuswithJustin/ebookconvert/core/options"
	"github.com/FocuswithJustin/ebookconvert/core/plugin"
	"github.com/FocuswithJustin/ebookconvert/input/pdf/pdfproc"
	"github.com/FocuswithJustin/ebookconvert/internal/logging"
)

func init() {
	plugin.RegisterInput(Reader{})
}

// Reader implements plugin.InputPlugin for PDF files.
type Reader struct{}

func (Reader) Name() string { return "pdf" }

func (Reader) Capabilities() plugin.Capabilities {
	return plugin.Capabilities{
		Formats:   []book.EbookFormat{book.FormatPDF},
		LossClass: "L3",
	}
}

func (Reader) Detect(ctx context.Context, path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, nil
	}
	defer f.Close()
	buf := make([]byte, 5)
	n, _ := f.Read(buf)
	return n == 5 && string(buf) == "%PDF-", nil
}

func (r Reader) Extract(ctx context.Context, pdfPath string, opts *options.ConversionOptions) (*book.BookDocument, error) {
	workDir, err := pdfproc.NewWorkDir()
	if err != nil {
		return nil, errors.NewPDF("create pdf work directory", err)
	}
	defer os.RemoveAll(workDir)

	result, err := pdfproc.Extract(ctx, pdfPath, workDir, opts.PdfEngine, int(opts.PdfDpi), int(opts.JpegQuality))
	if err != nil {
		return nil, err
	}

	doc := book.New()
	setMetadata(doc, result.Info, pdfPath)

	pageHrefs := make(map[int]string, len(result.Pages))
	for _, p := range result.Pages {
		pageHrefs[p.Number] = pageHref(p.Number)
	}

	seenImages := make(map[string]string) // content hash -> href already in the manifest
	for _, p := range result.Pages {
		body, imgItems, err := renderPageItem(doc, p, seenImages)
		if err != nil {
			return nil, err
		}
		for _, item := range imgItems {
			if err := doc.Manifest.Add(item); err != nil {
				return nil, errors.NewManifest("add pdf page image: " + err.Error())
			}
		}

		id := "page" + strconv.Itoa(p.Number)
		href := pageHrefs[p.Number]
		if err := doc.Manifest.Add(book.ManifestItem{
			ID: id, Href: href, MediaType: "application/xhtml+xml",
			Data: book.XHTML(wrapPdfPageXHTML(doc.Metadata.Title(), p.Number, body)),
		}); err != nil {
			return nil, errors.NewManifest("add pdf page: " + err.Error())
		}
		doc.Spine.Push(id, true)
	}

	toc := pdfproc.FlattenTocOrPerPage(result.Outline, result.NumPages, func(page int) string { return pageHrefs[page] })
	doc.Toc.Entries = tocNodesToEntries(toc)

	logging.Info("pdf extracted", "path", pdfPath, "pages", result.NumPages, "engine", string(opts.PdfEngine))
	return doc, nil
}

func pageHref(n int) string { return "page" + strconv.Itoa(n) + ".xhtml" }

func imageHref(n int) string { return "images/page" + strconv.Itoa(n) + ".jpg" }

// renderPageItem turns one pdfproc.PageResult into the XHTML body for its
// page plus any manifest items (the scanned/image-only page's JPEG) it
// needs alongside it. seenImages maps a rendered page's content hash to
// an href already present in the manifest, so pages that rasterize to
// identical bytes (blank scanned pages, most often) share one image
// instead of being stored once per page.
func renderPageItem(doc *book.BookDocument, p pdfproc.PageResult, seenImages map[string]string) (string, []book.ManifestItem, error) {
	if p.Image == nil {
		return p.HTML, nil, nil
	}

	var items []book.ManifestItem
	hash := pdfproc.ContentHash(p.Image.Data)
	href, dup := seenImages[hash]
	if !dup {
		href = imageHref(p.Number)
		seenImages[hash] = href
		id := doc.Manifest.GenerateID("pdfimg")
		items = append(items, book.ManifestItem{ID: id, Href: href, MediaType: "image/jpeg", Data: book.Binary(p.Image.Data)})
	}

	body := `<div class="page-image"><img src="` + href + `" alt="Page ` + strconv.Itoa(p.Number) + `"/></div>`
	if p.HTML != "" {
		body += "\n" + p.HTML
	}
	return body, items, nil
}

func wrapPdfPageXHTML(title string, page int, body string) string {
	if title == "" {
		title = "Untitled"
	}
	return "<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n" +
		"<!DOCTYPE html PUBLIC \"-//W3C//DTD XHTML 1.1//EN\" \"http://www.w3.org/TR/xhtml11/DTD/xhtml11.dtd\">\n" +
		"<html xmlns=\"http://www.w3.org/1999/xhtml\">\n<head>\n<title>" + title + " - Page " + strconv.Itoa(page) + "</title>\n</head>\n<body>\n" + body + "\n</body>\n</html>\n"
}

func setMetadata(doc *book.BookDocument, info pdfproc.InfoDict, pdfPath string) {
	title := strings.TrimSpace(info.Title)
	if title == "" {
		base := pdfPath
		if idx := strings.LastIndexAny(base, "/\\"); idx >= 0 {
			base = base[idx+1:]
		}
		title = strings.TrimSuffix(base, ".pdf")
		title = strings.TrimSuffix(title, ".PDF")
		if title == "" {
			title = "Untitled"
		}
	}
	doc.Metadata.SetTitle(title)
	if info.Author != "" {
		doc.Metadata.Add("creator", info.Author)
	}
	if info.Subject != "" {
		doc.Metadata.Set("description", info.Subject)
	}
	if info.Keywords != "" {
		for _, kw := range strings.Split(info.Keywords, ",") {
			kw = strings.TrimSpace(kw)
			if kw != "" {
				doc.Metadata.Add("subject", kw)
			}
		}
	}
	doc.Metadata.Set("language", "en")
}

func tocNodesToEntries(nodes []pdfproc.TocNode) []*book.TocEntry {
	entries := make([]*book.TocEntry, 0, len(nodes))
	for _, n := range nodes {
		entries = append(entries, &book.TocEntry{
			Title:    n.Title,
			Href:     n.Href,
			Children: tocNodesToEntries(n.Children),
		})
	}
	return entries
}
