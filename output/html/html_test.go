package html

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/FocuswithJustin/ebookconvert/core/book"
	"github.com/FocuswithJustin/ebookconvert/core/options"
)

func TestExtractBody(t *testing.T) {
	if got := extractBody("<html><body><p>Hello</p></body></html>"); got != "<p>Hello</p>" {
		t.Fatalf("extractBody = %q", got)
	}
}

func TestExtractBodyWithAttrs(t *testing.T) {
	got := extractBody(`<html><body class="main"><p>Content</p></body></html>`)
	if got != "<p>Content</p>" {
		t.Fatalf("extractBody = %q", got)
	}
}

func TestExtractBodyNoTag(t *testing.T) {
	if got := extractBody("<p>fragment</p>"); got != "" {
		t.Fatalf("extractBody = %q, want empty", got)
	}
}

func TestWriterProducesSingleFile(t *testing.T) {
	doc := book.New()
	doc.Metadata.SetTitle("My Book")
	if err := doc.Manifest.Add(book.ManifestItem{ID: "style", Href: "style.css", MediaType: "text/css", Data: book.CSS("body{color:red}")}); err != nil {
		t.Fatal(err)
	}
	if err := doc.Manifest.Add(book.ManifestItem{ID: "ch1", Href: "ch1.xhtml", MediaType: "application/xhtml+xml", Data: book.XHTML("<html><body><p>Hello world.</p></body></html>")}); err != nil {
		t.Fatal(err)
	}
	doc.Spine.Push("ch1", true)

	dir := t.TempDir()
	outPath := filepath.Join(dir, "out.html")
	opts := options.Default()

	w := Writer{}
	if err := w.Write(context.Background(), doc, outPath, &opts); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)
	if !strings.Contains(content, "<title>My Book</title>") {
		t.Errorf("missing title: %s", content)
	}
	if !strings.Contains(content, "color:red") {
		t.Errorf("missing inlined css: %s", content)
	}
	if !strings.Contains(content, "Hello world.") {
		t.Errorf("missing body content: %s", content)
	}
}
