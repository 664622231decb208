package pdfproc

import (
	"strconv"
	"strings"

	"github.com/FocuswithJustin/ebookconvert/internal/xmlutil"
)

// parsePdftohtmlXML parses one pdftohtml -xml output (pdf2xml's root
// element holding <fontspec> and <page> children) into pages and a
// font-id-to-family map. Multiple invocations (one per page range, in
// the parallel fan-out case) each produce a document in this shape and
// are merged afterwards by mergeDocuments.
func parsePdftohtmlXML(data []byte) ([]PdfPage, map[string]string, error) {
	doc, err := xmlutil.Parse(data)
	if err != nil {
		return nil, nil, err
	}

	fontNodes, err := doc.XPath("//fontspec")
	if err != nil {
		return nil, nil, err
	}
	fonts := make(map[string]string, len(fontNodes))
	for _, fn := range fontNodes {
		fonts[fn.Attr("id")] = fn.Attr("family")
	}

	pageNodes, err := doc.XPath("//page")
	if err != nil {
		return nil, nil, err
	}

	pages := make([]PdfPage, 0, len(pageNodes))
	for _, pn := range pageNodes {
		num, _ := strconv.Atoi(pn.Attr("number"))
		page := PdfPage{Number: num}
		for _, child := range pn.Children() {
			switch child.Name() {
			case "text":
				page.Texts = append(page.Texts, PdfText{
					Top:    parseFloatAttr(child.Attr("top")),
					Left:   parseFloatAttr(child.Attr("left")),
					Height: parseFloatAttr(child.Attr("height")),
					Text:   child.InnerText(),
					Font:   fonts[child.Attr("font")],
				})
			case "image":
				page.Images = append(page.Images, PdfImage{
					Top:    parseFloatAttr(child.Attr("top")),
					Left:   parseFloatAttr(child.Attr("left")),
					Width:  parseFloatAttr(child.Attr("width")),
					Height: parseFloatAttr(child.Attr("height")),
					Src:    child.Attr("src"),
				})
			}
		}
		pages = append(pages, page)
	}
	return pages, fonts, nil
}

// parseOutlineXML parses the small, image-skipping pdftohtml -i -xml
// invocation run over the whole document for bookmarks: a nested
// <outline><item page="N" name="Title"><item .../></item></outline>
// tree. The title is read from the "name" attribute rather than mixed
// element text content, since internal/xmlutil's Node has no
// direct-children-only text accessor to separate an item's own title
// from its nested items' text.
func parseOutlineXML(data []byte) ([]*OutlineEntry, error) {
	doc, err := xmlutil.Parse(data)
	if err != nil {
		return nil, err
	}
	outlineNodes, err := doc.XPath("//outline")
	if err != nil {
		return nil, err
	}
	if len(outlineNodes) == 0 {
		return nil, nil
	}
	var entries []*OutlineEntry
	for _, item := range outlineNodes[0].Children() {
		if item.Name() != "item" {
			continue
		}
		entries = append(entries, parseOutlineItem(item))
	}
	return entries, nil
}

func parseOutlineItem(node *xmlutil.Node) *OutlineEntry {
	page, _ := strconv.Atoi(node.Attr("page"))
	title := strings.TrimSpace(node.Attr("name"))
	entry := &OutlineEntry{Page: page, Title: title}
	for _, child := range node.Children() {
		if child.Name() == "item" {
			entry.Children = append(entry.Children, parseOutlineItem(child))
		}
	}
	return entry
}

func parseFloatAttr(v string) float64 {
	f, _ := strconv.ParseFloat(v, 64)
	return f
}
