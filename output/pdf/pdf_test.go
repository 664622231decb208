package pdf

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/FocuswithJustin/ebookconvert/core/book"
	"github.com/FocuswithJustin/ebookconvert/core/options"
)

func TestWrapText(t *testing.T) {
	lines := wrapText("the quick brown fox jumps over the lazy dog", 10)
	if len(lines) < 2 {
		t.Fatalf("expected wrapping into multiple lines, got %v", lines)
	}
	for _, l := range lines {
		if len(l) > 10 && !strings.Contains(l, " ") {
			t.Errorf("line exceeds width with no break: %q", l)
		}
	}
}

func TestExtractBlocksSeparatesHeadings(t *testing.T) {
	blocks := extractBlocks("<html><body><h1>Chapter 1</h1><p>Hello world.</p></body></html>")
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d: %+v", len(blocks), blocks)
	}
	if !blocks[0].heading || blocks[0].text != "Chapter 1" {
		t.Errorf("blocks[0] = %+v, want heading %q", blocks[0], "Chapter 1")
	}
	if blocks[1].heading || blocks[1].text != "Hello world." {
		t.Errorf("blocks[1] = %+v, want paragraph %q", blocks[1], "Hello world.")
	}
}

func TestLayoutPagesProducesAtLeastOnePage(t *testing.T) {
	doc := book.New()
	doc.Metadata.SetTitle("My Book")
	item := book.ManifestItem{ID: "ch1", Href: "ch1.xhtml", MediaType: "application/xhtml+xml",
		Data: book.XHTML("<html><body><p>Hello world.</p></body></html>")}
	if err := doc.Manifest.Add(item); err != nil {
		t.Fatal(err)
	}
	doc.Spine.Push("ch1", true)

	pages := layoutPages(doc)
	if len(pages) == 0 {
		t.Fatal("expected at least one page")
	}
}

func TestLayoutPagesPaginatesLongContent(t *testing.T) {
	doc := book.New()
	var body strings.Builder
	body.WriteString("<html><body>")
	for i := 0; i < 200; i++ {
		body.WriteString("<p>This is a paragraph with enough words to take up a full line of text on the page.</p>")
	}
	body.WriteString("</body></html>")
	item := book.ManifestItem{ID: "ch1", Href: "ch1.xhtml", MediaType: "application/xhtml+xml", Data: book.XHTML(body.String())}
	if err := doc.Manifest.Add(item); err != nil {
		t.Fatal(err)
	}
	doc.Spine.Push("ch1", true)

	pages := layoutPages(doc)
	if len(pages) < 2 {
		t.Fatalf("expected multiple pages for long content, got %d", len(pages))
	}
}

func TestRenderPDFProducesValidHeader(t *testing.T) {
	data := renderPDF([]page{{lines: []pdfLine{{text: "hello", y: 700, size: 11}}}})
	if !strings.HasPrefix(string(data), "%PDF-1.4") {
		t.Fatalf("missing PDF header: %q", string(data)[:20])
	}
	if !strings.Contains(string(data), "startxref") {
		t.Error("missing startxref")
	}
	if !strings.Contains(string(data), "%%EOF") {
		t.Error("missing EOF marker")
	}
}

func TestWriterWritesFile(t *testing.T) {
	doc := book.New()
	doc.Metadata.SetTitle("My Book")
	item := book.ManifestItem{ID: "ch1", Href: "ch1.xhtml", MediaType: "application/xhtml+xml",
		Data: book.XHTML("<html><body><h1>Chapter 1</h1><p>Hello world.</p></body></html>")}
	if err := doc.Manifest.Add(item); err != nil {
		t.Fatal(err)
	}
	doc.Spine.Push("ch1", true)

	dir := t.TempDir()
	outPath := filepath.Join(dir, "out.pdf")
	opts := options.Default()

	w := Writer{}
	if err := w.Write(context.Background(), doc, outPath, &opts); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "%PDF-1.4") {
		t.Fatalf("output is not a PDF: %q", string(data)[:20])
	}
}

func TestEscapePDFString(t *testing.T) {
	got := escapePDFString(`a (b) c\d`)
	if !strings.Contains(got, `\(`) || !strings.Contains(got, `\)`) || !strings.Contains(got, `\\`) {
		t.Errorf("escapePDFString did not escape special chars: %q", got)
	}
}
