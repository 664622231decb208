// Package epub reads an OCF EPUB ZIP container into a BookDocument: it
// locates the OPF package document via META-INF/container.xml, walks its
// metadata/manifest/spine/guide blocks with XPath, resolves every manifest
// href relative to the OPF directory, and reads every referenced file out
// of the archive — in parallel, since the archive itself is read-only and
// safe to fan out over.
package epub

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"

	"github.com/FocuswithJustin/ebookconvert/core/book"
	"github.com/FocuswithJustin/ebookconvert/core/errors"
	"github.com/FocuswithJustin/ebookconvert/core/options"
	"github.com/FocuswithJustin/ebookconvert/core/plugin"
	"github.com/FocuswithJustin/ebookconvert/internal/logging"
	"github.com/FocuswithJustin/ebookconvert/internal/mime"
	"github.com/FocuswithJustin/ebookconvert/internal/xmlutil"
	"github.com/FocuswithJustin/ebookconvert/internal/ziputil"
)

func init() {
	plugin.RegisterInput(Reader{})
}

// Reader implements plugin.InputPlugin for OCF EPUB containers.
type Reader struct{}

func (Reader) Name() string { return "epub" }

func (Reader) Capabilities() plugin.Capabilities {
	return plugin.Capabilities{
		Formats:   []book.EbookFormat{book.FormatEPUB},
		LossClass: "L0",
	}
}

// Detect sniffs path as a zip archive containing META-INF/container.xml,
// rather than trusting the file extension.
func (Reader) Detect(ctx context.Context, path string) (bool, error) {
	zr, err := ziputil.NewReader(path)
	if err != nil {
		return false, nil
	}
	defer zr.Close()

	for _, name := range zr.Names() {
		if name == "META-INF/container.xml" {
			return true, nil
		}
	}
	return false, nil
}

func (r Reader) Extract(ctx context.Context, path string, opts *options.ConversionOptions) (*book.BookDocument, error) {
	zr, err := ziputil.NewReader(path)
	if err != nil {
		return nil, errors.NewEPUB("open archive", err)
	}
	defer zr.Close()

	opfPath, err := resolveRootfile(zr)
	if err != nil {
		return nil, err
	}

	opfData, err := zr.ReadFile(opfPath)
	if err != nil {
		return nil, errors.NewEPUB("read OPF "+opfPath, err)
	}
	opfDoc, err := xmlutil.Parse(opfData)
	if err != nil {
		return nil, errors.NewXML(opfPath, "parse OPF", err)
	}

	doc := book.New()
	doc.BasePath = opfPath

	if err := parseMetadata(opfDoc, doc); err != nil {
		return nil, err
	}

	rawItems, err := parseManifest(opfDoc)
	if err != nil {
		return nil, err
	}
	if err := loadManifestItems(zr, opfPath, rawItems, doc); err != nil {
		return nil, err
	}

	if err := parseSpine(opfDoc, doc); err != nil {
		return nil, err
	}
	parseGuide(opfDoc, doc)

	if ncxHref := findNCXHref(doc, rawItems); ncxHref != "" {
		if data, err := zr.ReadFile(xmlutil.ResolveHref(opfPath, ncxHref)); err == nil {
			if ncxDoc, err := xmlutil.Parse(data); err == nil {
				parseNCX(ncxDoc, doc)
			}
		}
	}

	logging.Info("epub extracted", "path", path, "items", doc.Manifest.Len(), "spine", doc.Spine.Len())
	return doc, nil
}

// resolveRootfile reads META-INF/container.xml and returns the path of the
// first rootfile whose media-type is the OPF package document (or the
// first rootfile at all, if none declares a media-type).
func resolveRootfile(zr *ziputil.Reader) (string, error) {
	data, err := zr.ReadFile("META-INF/container.xml")
	if err != nil {
		return "", errors.NewEPUB("read container.xml", err)
	}
	doc, err := xmlutil.Parse(data)
	if err != nil {
		return "", errors.NewXML("META-INF/container.xml", "parse container", err)
	}

	nodes, err := doc.XPath("//*[local-name()='rootfile']")
	if err != nil || len(nodes) == 0 {
		return "", errors.NewEPUB("no rootfile declared in container.xml", nil)
	}

	var fallback string
	for _, n := range nodes {
		attrs := n.Attributes()
		fullPath := attrs["full-path"]
		if fullPath == "" {
			continue
		}
		if fallback == "" {
			fallback = fullPath
		}
		if attrs["media-type"] == "application/oebps-package+xml" {
			return fullPath, nil
		}
	}
	if fallback == "" {
		return "", errors.NewEPUB("rootfile missing full-path attribute", nil)
	}
	return fallback, nil
}

// parseMetadata reads the Dublin Core metadata block into doc.Metadata
// and doc.UID.
func parseMetadata(opfDoc *xmlutil.Document, doc *book.BookDocument) error {
	nodes, err := opfDoc.XPath("//*[local-name()='metadata']/*")
	if err != nil {
		return errors.NewEPUB("query metadata", err)
	}

	uniqueIDRef, _ := opfDoc.XPathFirst("//*[local-name()='package']")
	uniqueIDAttr := ""
	if uniqueIDRef != nil {
		uniqueIDAttr = uniqueIDRef.Attr("unique-identifier")
	}

	var uidCandidate string
	for _, n := range nodes {
		localName := localName(n.Name())
		text := strings.TrimSpace(n.Text())
		if text == "" && localName != "meta" {
			continue
		}
		switch localName {
		case "title":
			if doc.Metadata.Title() == "" {
				doc.Metadata.SetTitle(text)
			} else {
				doc.Metadata.Add("title", text)
			}
		case "creator":
			doc.Metadata.Add("creator", text)
		case "contributor":
			doc.Metadata.Add("contributor", text)
		case "language":
			doc.Metadata.Add("language", text)
		case "publisher":
			doc.Metadata.Add("publisher", text)
		case "description":
			doc.Metadata.Add("description", text)
		case "date":
			doc.Metadata.Add("date", text)
		case "subject":
			doc.Metadata.Add("subject", text)
		case "rights":
			doc.Metadata.Add("rights", text)
		case "identifier":
			doc.Metadata.Add("identifier", text)
			attrs := n.Attributes()
			if attrs["id"] != "" && attrs["id"] == uniqueIDAttr {
				uidCandidate = text
			} else if uidCandidate == "" {
				uidCandidate = text
			}
		}
	}
	doc.UID = uidCandidate
	return nil
}

// manifestEntry mirrors one <item> element from the OPF manifest, prior to
// reading its bytes out of the archive.
type manifestEntry struct {
	id         string
	href       string
	mediaType  string
	properties string
	fallback   string
}

func parseManifest(opfDoc *xmlutil.Document) ([]manifestEntry, error) {
	nodes, err := opfDoc.XPath("//*[local-name()='manifest']/*[local-name()='item']")
	if err != nil {
		return nil, errors.NewEPUB("query manifest", err)
	}
	entries := make([]manifestEntry, 0, len(nodes))
	for _, n := range nodes {
		attrs := n.Attributes()
		if attrs["href"] == "" || attrs["id"] == "" {
			continue
		}
		entries = append(entries, manifestEntry{
			id:         attrs["id"],
			href:       attrs["href"],
			mediaType:  attrs["media-type"],
			properties: attrs["properties"],
			fallback:   attrs["fallback"],
		})
	}
	return entries, nil
}

// loadManifestItems reads every manifest entry's bytes out of the archive
// and classifies the data by media type, fanning the reads out over a
// bounded worker pool since the archive is immutable once opened.
func loadManifestItems(zr *ziputil.Reader, opfPath string, entries []manifestEntry, doc *book.BookDocument) error {
	type result struct {
		item book.ManifestItem
		err  error
	}
	results := make([]result, len(entries))

	workers := runtime.NumCPU()
	if workers > 8 {
		workers = 8
	}
	if workers < 1 {
		workers = 1
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, workers)
	for i, entry := range entries {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, entry manifestEntry) {
			defer wg.Done()
			defer func() { <-sem }()

			resolved := xmlutil.ResolveHref(opfPath, entry.href)
			data, err := zr.ReadFile(resolved)
			if err != nil {
				results[i] = result{err: errors.NewEPUB("read manifest item "+resolved, err)}
				return
			}

			mediaType := entry.mediaType
			if mediaType == "" {
				mediaType = mime.FromExtension(resolved)
			}

			results[i] = result{item: book.ManifestItem{
				ID:        entry.id,
				Href:      entry.href,
				MediaType: mediaType,
				Data:      classifyData(mediaType, data),
				Fallback:  entry.fallback,
			}}
		}(i, entry)
	}
	wg.Wait()

	for _, res := range results {
		if res.err != nil {
			return res.err
		}
		if err := doc.Manifest.Add(res.item); err != nil {
			return errors.NewManifest(fmt.Sprintf("add item %s: %v", res.item.ID, err))
		}
	}
	return nil
}

func classifyData(mediaType string, data []byte) book.ItemData {
	switch {
	case mediaType == "application/xhtml+xml" || mediaType == "text/html":
		return book.XHTML(string(data))
	case mediaType == "text/css":
		return book.CSS(string(data))
	case strings.HasPrefix(mediaType, "image/"):
		return book.Binary(data)
	case mediaType == "application/x-dtbncx+xml":
		return book.Binary(data)
	default:
		return book.Binary(data)
	}
}

func parseSpine(opfDoc *xmlutil.Document, doc *book.BookDocument) error {
	nodes, err := opfDoc.XPath("//*[local-name()='spine']/*[local-name()='itemref']")
	if err != nil {
		return errors.NewEPUB("query spine", err)
	}
	for _, n := range nodes {
		attrs := n.Attributes()
		idref := attrs["idref"]
		if idref == "" {
			continue
		}
		linear := attrs["linear"] != "no"
		doc.Spine.Push(idref, linear)
	}
	return nil
}

func parseGuide(opfDoc *xmlutil.Document, doc *book.BookDocument) {
	nodes, err := opfDoc.XPath("//*[local-name()='guide']/*[local-name()='reference']")
	if err != nil {
		return
	}
	for _, n := range nodes {
		attrs := n.Attributes()
		if attrs["type"] == "" || attrs["href"] == "" {
			continue
		}
		doc.Guide.Add(book.GuideRef{
			RefType: attrs["type"],
			Title:   attrs["title"],
			Href:    attrs["href"],
		})
	}
}

// findNCXHref returns the href of the first application/x-dtbncx+xml
// manifest entry; the spine's toc attribute is not consulted.
func findNCXHref(doc *book.BookDocument, entries []manifestEntry) string {
	for _, e := range entries {
		if e.mediaType == "application/x-dtbncx+xml" {
			return e.href
		}
	}
	return ""
}

// parseNCX walks an NCX navMap into doc.Toc, preserving nesting.
func parseNCX(ncxDoc *xmlutil.Document, doc *book.BookDocument) {
	navMap, err := ncxDoc.XPathFirst("//*[local-name()='navMap']")
	if err != nil || navMap == nil {
		return
	}
	doc.Toc.Entries = parseNavPoints(navMap.Children())
}

func parseNavPoints(nodes []*xmlutil.Node) []*book.TocEntry {
	var entries []*book.TocEntry
	for _, n := range nodes {
		if localName(n.Name()) != "navPoint" {
			continue
		}
		entry := &book.TocEntry{ID: n.Attr("id"), Class: n.Attr("class")}
		for _, child := range n.Children() {
			switch localName(child.Name()) {
			case "navLabel":
				entry.Title = strings.TrimSpace(child.Text())
			case "content":
				entry.Href = child.Attr("src")
			case "navPoint":
				entry.Children = append(entry.Children, parseNavPoints([]*xmlutil.Node{child})...)
			}
		}
		entries = append(entries, entry)
	}
	return entries
}

func localName(qualified string) string {
	if idx := strings.LastIndexByte(qualified, ':'); idx >= 0 {
		return qualified[idx+1:]
	}
	return qualified
}
