package epub

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/FocuswithJustin/ebookconvert/core/book"
	"github.com/FocuswithJustin/ebookconvert/core/options"
	"github.com/FocuswithJustin/ebookconvert/internal/ziputil"
)

func newTestDoc(t *testing.T) *book.BookDocument {
	t.Helper()
	doc := book.New()
	doc.Metadata.SetTitle("Test Book")
	doc.Metadata.Add("creator", "Author Name")
	doc.Metadata.Set("language", "en")
	item := book.ManifestItem{ID: "ch1", Href: "text/ch1.xhtml", MediaType: "application/xhtml+xml", Data: book.XHTML("<p>Hello</p>")}
	if err := doc.Manifest.Add(item); err != nil {
		t.Fatal(err)
	}
	doc.Spine.Push("ch1", true)
	doc.Toc.Entries = append(doc.Toc.Entries, &book.TocEntry{Title: "Chapter 1", Href: "text/ch1.xhtml"})
	return doc
}

func TestWriterWritesValidOCF(t *testing.T) {
	doc := newTestDoc(t)
	dir := t.TempDir()
	outPath := filepath.Join(dir, "test.epub")
	opts := options.Default()

	w := Writer{}
	if err := w.Write(context.Background(), doc, outPath, &opts); err != nil {
		t.Fatal(err)
	}

	r, err := ziputil.NewReader(outPath)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	if len(r.File) == 0 || r.File[0].Name != "mimetype" {
		t.Fatalf("expected mimetype first entry")
	}

	names := r.Names()
	wantNames := []string{"META-INF/container.xml", "OEBPS/content.opf", "OEBPS/toc.ncx", "OEBPS/text/ch1.xhtml"}
	for _, want := range wantNames {
		found := false
		for _, n := range names {
			if n == want {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("missing entry %q in %v", want, names)
		}
	}

	opf, err := r.ReadFile("OEBPS/content.opf")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(opf), "<dc:title>Test Book</dc:title>") {
		t.Errorf("content.opf missing title: %s", opf)
	}
	if !strings.Contains(string(opf), `version="2.0"`) {
		t.Errorf("content.opf should default to EPUB 2: %s", opf)
	}
}

func TestWriterEPUB3AddsNav(t *testing.T) {
	doc := newTestDoc(t)
	dir := t.TempDir()
	outPath := filepath.Join(dir, "test.epub")
	opts := options.Default()
	opts.EpubVersion = options.EpubV3

	w := Writer{}
	if err := w.Write(context.Background(), doc, outPath, &opts); err != nil {
		t.Fatal(err)
	}

	r, err := ziputil.NewReader(outPath)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	nav, err := r.ReadFile("OEBPS/nav.xhtml")
	if err != nil {
		t.Fatalf("expected nav.xhtml for EPUB 3: %v", err)
	}
	if !strings.Contains(string(nav), "Chapter 1") {
		t.Errorf("nav.xhtml missing toc entry: %s", nav)
	}
}

func TestBuildTocNCXAssignsPlayOrders(t *testing.T) {
	doc := newTestDoc(t)
	ncx := buildTocNCX(doc)
	if !strings.Contains(ncx, `playOrder="1"`) {
		t.Errorf("expected playOrder=1 in ncx: %s", ncx)
	}
}
