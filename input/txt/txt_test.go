package txt

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/FocuswithJustin/ebookconvert/core/options"
)

const testTXTContent = "Call me Ishmael.\n\nSome years ago <never mind how long precisely>,\nhaving little or no money..."

func writeTestTXT(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	p := filepath.Join(dir, "moby-dick.txt")
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestDetectRecognizesTXT(t *testing.T) {
	p := writeTestTXT(t, testTXTContent)
	ok, err := Reader{}.Detect(context.Background(), p)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected Detect to recognize .txt file")
	}
}

func TestDetectRejectsOtherExtensions(t *testing.T) {
	ok, err := Reader{}.Detect(context.Background(), "book.md")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("did not expect Detect to recognize .md file")
	}
}

func TestExtractParagraphsAndEscaping(t *testing.T) {
	p := writeTestTXT(t, testTXTContent)
	opts := options.Default()
	doc, err := Reader{}.Extract(context.Background(), p, &opts)
	if err != nil {
		t.Fatal(err)
	}

	if doc.Metadata.Title() != "moby-dick" {
		t.Errorf("title = %q", doc.Metadata.Title())
	}

	item, ok := doc.Manifest.ByID("content")
	if !ok {
		t.Fatal("missing content item")
	}
	xhtml, ok := item.Data.AsXHTML()
	if !ok {
		t.Fatal("content item is not XHTML")
	}

	if !strings.Contains(xhtml, "<p>Call me Ishmael.</p>") {
		t.Errorf("missing first paragraph: %s", xhtml)
	}
	if !strings.Contains(xhtml, "&lt;never mind how long precisely&gt;") {
		t.Errorf("expected angle brackets escaped: %s", xhtml)
	}
	if !strings.Contains(xhtml, "<br/>") {
		t.Errorf("expected single newline within paragraph to become <br/>: %s", xhtml)
	}

	if len(doc.Toc.Entries) != 1 || doc.Toc.Entries[0].Title != "moby-dick" {
		t.Errorf("toc = %+v", doc.Toc.Entries)
	}
}

func TestPlaintextToXHTMLCollapsesBlankRuns(t *testing.T) {
	out := plaintextToXHTML("One\n\n\n\nTwo")
	if strings.Count(out, "<p>") != 2 {
		t.Errorf("expected two paragraphs, got: %s", out)
	}
}
