// Package epub writes a BookDocument out as an OEBPS Container Format
// (OCF) EPUB: a "mimetype" file, a META-INF/container.xml pointer, and an
// OEBPS/ directory carrying content.opf, toc.ncx, every manifest item's
// own content, and — for EPUB 3 — a nav.xhtml document.
package epub

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/FocuswithJustin/ebookconvert/core/book"
	"github.com/FocuswithJustin/ebookconvert/core/encoding"
	"github.com/FocuswithJustin/ebookconvert/core/errors"
	"github.com/FocuswithJustin/ebookconvert/core/options"
	"github.com/FocuswithJustin/ebookconvert/core/plugin"
	"github.com/FocuswithJustin/ebookconvert/internal/logging"
	"github.com/FocuswithJustin/ebookconvert/internal/ziputil"
)

func init() {
	plugin.RegisterOutput(Writer{})
}

// Writer implements plugin.OutputPlugin for EPUB 2 and EPUB 3 output.
type Writer struct{}

func (Writer) Name() string { return "epub" }

func (Writer) Capabilities() plugin.Capabilities {
	return plugin.Capabilities{
		Formats:   []book.EbookFormat{book.FormatEPUB},
		LossClass: "L0",
	}
}

func (w Writer) Write(ctx context.Context, doc *book.BookDocument, path string, opts *options.ConversionOptions) error {
	entries := []ziputil.Entry{
		{Name: "META-INF/container.xml", Data: []byte(containerXML)},
		{Name: "OEBPS/content.opf", Data: []byte(buildContentOPF(doc, opts))},
		{Name: "OEBPS/toc.ncx", Data: []byte(buildTocNCX(doc))},
	}

	if opts.EpubVersion == options.EpubV3 {
		entries = append(entries, ziputil.Entry{Name: "OEBPS/nav.xhtml", Data: []byte(buildNavXHTML(doc))})
	}

	for _, item := range doc.Manifest.Items() {
		data, err := manifestItemBytes(item)
		if err != nil {
			return errors.NewEPUB(fmt.Sprintf("item %s", item.ID), err)
		}
		entries = append(entries, ziputil.Entry{Name: "OEBPS/" + item.Href, Data: data})
	}

	logging.Info("writing epub", "path", path, "version", opts.EpubVersion.String(), "items", len(doc.Manifest.Items()))

	if err := ziputil.WriteEPUB(path, entries); err != nil {
		return errors.NewEPUB("write archive", err)
	}
	return nil
}

func manifestItemBytes(item book.ManifestItem) ([]byte, error) {
	switch item.Data.Kind {
	case book.DataXHTML:
		text, _ := item.Data.AsXHTML()
		return []byte(text), nil
	case book.DataCSS:
		text, _ := item.Data.AsCSS()
		return []byte(text), nil
	case book.DataBinary:
		return item.Data.Binary, nil
	default:
		return nil, fmt.Errorf("item %s has no materialized data (kind %v)", item.ID, item.Data.Kind)
	}
}

const containerXML = `<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`

func buildContentOPF(doc *book.BookDocument, opts *options.ConversionOptions) string {
	var manifestItems strings.Builder
	manifestItems.WriteString(`    <item id="ncx" href="toc.ncx" media-type="application/x-dtbncx+xml"/>` + "\n")
	if opts.EpubVersion == options.EpubV3 {
		manifestItems.WriteString(`    <item id="nav" href="nav.xhtml" media-type="application/xhtml+xml" properties="nav"/>` + "\n")
	}
	for _, item := range doc.Manifest.Items() {
		properties := ""
		if item.IsImage() && doc.Guide.Has("cover") {
			if ref, _ := doc.Guide.Get("cover"); ref.Href == item.Href && opts.EpubVersion == options.EpubV3 {
				properties = ` properties="cover-image"`
			}
		}
		manifestItems.WriteString(fmt.Sprintf(`    <item id="%s" href="%s" media-type="%s"%s/>`,
			encoding.EscapeXMLAttr(item.ID), encoding.EscapeXMLAttr(item.Href), encoding.EscapeXMLAttr(item.MediaType), properties) + "\n")
	}

	var spineItems strings.Builder
	for _, ref := range doc.Spine.Items() {
		linear := ""
		if !ref.Linear {
			linear = ` linear="no"`
		}
		spineItems.WriteString(fmt.Sprintf(`    <itemref idref="%s"%s/>`, encoding.EscapeXMLAttr(ref.IDRef), linear) + "\n")
	}

	var guideRefs strings.Builder
	if len(doc.Guide.Refs()) > 0 {
		guideRefs.WriteString("  <guide>\n")
		for _, ref := range doc.Guide.Refs() {
			guideRefs.WriteString(fmt.Sprintf(`    <reference type="%s" title="%s" href="%s"/>`,
				encoding.EscapeXMLAttr(ref.RefType), encoding.EscapeXMLAttr(ref.Title), encoding.EscapeXMLAttr(ref.Href)) + "\n")
		}
		guideRefs.WriteString("  </guide>\n")
	}

	var authors strings.Builder
	for _, a := range doc.Metadata.Authors() {
		authors.WriteString(fmt.Sprintf("    <dc:creator>%s</dc:creator>\n", encoding.EscapeXMLText(a)))
	}

	version := "2.0"
	if opts.EpubVersion == options.EpubV3 {
		version = "3.0"
	}

	uid := doc.UID
	if uid == "" {
		uid = doc.Metadata.Identifier()
	}

	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="%s" unique-identifier="BookId">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:opf="http://www.idpf.org/2007/opf">
    <dc:identifier id="BookId">%s</dc:identifier>
    <dc:title>%s</dc:title>
%s    <dc:language>%s</dc:language>
    <dc:publisher>%s</dc:publisher>
    <dc:description>%s</dc:description>
    <dc:date>%s</dc:date>
    <meta property="dcterms:modified">%s</meta>
  </metadata>
  <manifest>
%s  </manifest>
  <spine toc="ncx">
%s  </spine>
%s</package>`,
		version,
		encoding.EscapeXMLText(uid),
		encoding.EscapeXMLText(doc.Metadata.Title()),
		authors.String(),
		encoding.EscapeXMLText(doc.Metadata.Language()),
		encoding.EscapeXMLText(doc.Metadata.Publisher()),
		encoding.EscapeXMLText(doc.Metadata.Description()),
		encoding.EscapeXMLText(doc.Metadata.Date()),
		time.Now().UTC().Format("2006-01-02T15:04:05Z"),
		manifestItems.String(),
		spineItems.String(),
		guideRefs.String(),
	)
}

func buildTocNCX(doc *book.BookDocument) string {
	doc.Toc.RationalizePlayOrders()

	var navPoints strings.Builder
	writeNavPoints(&navPoints, doc.Toc.Entries, 1)

	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<ncx xmlns="http://www.daisy.org/z3986/2005/ncx/" version="2005-1">
  <head>
    <meta name="dtb:uid" content="%s"/>
    <meta name="dtb:depth" content="1"/>
    <meta name="dtb:totalPageCount" content="0"/>
    <meta name="dtb:maxPageNumber" content="0"/>
  </head>
  <docTitle><text>%s</text></docTitle>
  <navMap>
%s  </navMap>
</ncx>`,
		encoding.EscapeXMLText(doc.Metadata.Identifier()),
		encoding.EscapeXMLText(doc.Metadata.Title()),
		navPoints.String(),
	)
}

func writeNavPoints(w *strings.Builder, entries []*book.TocEntry, indent int) {
	pad := strings.Repeat("  ", indent)
	for _, e := range entries {
		id := e.ID
		if id == "" {
			id = fmt.Sprintf("navpoint%d", e.PlayOrder)
		}
		fmt.Fprintf(w, "%s<navPoint id=\"%s\" playOrder=\"%d\">\n", pad, encoding.EscapeXMLAttr(id), e.PlayOrder)
		fmt.Fprintf(w, "%s  <navLabel><text>%s</text></navLabel>\n", pad, encoding.EscapeXMLText(e.Title))
		fmt.Fprintf(w, "%s  <content src=\"%s\"/>\n", pad, encoding.EscapeXMLAttr(e.Href))
		if len(e.Children) > 0 {
			writeNavPoints(w, e.Children, indent+1)
		}
		fmt.Fprintf(w, "%s</navPoint>\n", pad)
	}
}

func buildNavXHTML(doc *book.BookDocument) string {
	var items strings.Builder
	writeNavLis(&items, doc.Toc.Entries, 2)

	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE html>
<html xmlns="http://www.w3.org/1999/xhtml" xmlns:epub="http://www.idpf.org/2007/ops">
<head><title>%s</title></head>
<body>
  <nav epub:type="toc" id="toc">
    <h1>%s</h1>
    <ol>
%s    </ol>
  </nav>
</body>
</html>`,
		encoding.EscapeXMLText(doc.Metadata.Title()),
		encoding.EscapeXMLText(doc.Metadata.Title()),
		items.String(),
	)
}

func writeNavLis(w *strings.Builder, entries []*book.TocEntry, indent int) {
	pad := strings.Repeat("  ", indent)
	for _, e := range entries {
		fmt.Fprintf(w, "%s<li><a href=\"%s\">%s</a>", pad, encoding.EscapeXMLAttr(e.Href), encoding.EscapeXMLText(e.Title))
		if len(e.Children) > 0 {
			w.WriteString("\n" + pad + "  <ol>\n")
			writeNavLis(w, e.Children, indent+2)
			w.WriteString(pad + "  </ol>\n" + pad)
		}
		w.WriteString("</li>\n")
	}
}
