package pdfproc

import "sort"

// mergeFanoutResults implements the merge half of §4.4's parallel
// fan-out: font specs de-duplicated by id (a later worker's entry for
// the same id wins, since pdftohtml assigns ids consistently per
// invocation against the same document), pages concatenated and sorted
// by page number.
func mergeFanoutResults(pageBatches [][]PdfPage, fontBatches []map[string]string) ([]PdfPage, map[string]string) {
	fonts := make(map[string]string)
	for _, batch := range fontBatches {
		for id, family := range batch {
			fonts[id] = family
		}
	}

	var pages []PdfPage
	for _, batch := range pageBatches {
		pages = append(pages, batch...)
	}
	sort.SliceStable(pages, func(i, j int) bool { return pages[i].Number < pages[j].Number })
	return pages, fonts
}

// FlattenTocOrPerPage implements §4.4's TOC construction rule: if the
// outline has at least 3 entries across the whole tree, translate it
// directly (depth-first, each item's page mapped to its XHTML href via
// pageHref); otherwise emit one entry per page titled "Page N".
func FlattenTocOrPerPage(outline []*OutlineEntry, numPages int, pageHref func(page int) string) []TocNode {
	if CountOutlineEntries(outline) >= 3 {
		return flattenOutline(outline, pageHref)
	}
	nodes := make([]TocNode, 0, numPages)
	for p := 1; p <= numPages; p++ {
		nodes = append(nodes, TocNode{Title: "Page " + itoa(p), Href: pageHref(p)})
	}
	return nodes
}

// TocNode is a flattened table-of-contents entry ready to become a
// book.TocEntry; pdfproc stays independent of the core/book package so
// it can be unit tested without constructing a full BookDocument.
type TocNode struct {
	Title    string
	Href     string
	Children []TocNode
}

func flattenOutline(entries []*OutlineEntry, pageHref func(page int) string) []TocNode {
	nodes := make([]TocNode, 0, len(entries))
	for _, e := range entries {
		href := pageHref(e.Page)
		if href == "" {
			href = "page" + itoa(e.Page) + ".xhtml"
		}
		node := TocNode{Title: e.Title, Href: href}
		if len(e.Children) > 0 {
			node.Children = flattenOutline(e.Children, pageHref)
		}
		nodes = append(nodes, node)
	}
	return nodes
}
