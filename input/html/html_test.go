package html

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/FocuswithJustin/ebookconvert/core/options"
)

const testHTMLFull = `<!DOCTYPE html>
<html>
<head>
<title>  A Tale of Two Cities  </title>
<link rel="stylesheet" href="style.css"/>
</head>
<body>
<p>It was the best of times, it was the <img src="worst.png"/> worst of times.</p>
</body>
</html>`

const testHTMLFragment = `<p>Just a fragment with no html wrapper.</p>`

func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestDetectRecognizesHTML(t *testing.T) {
	dir := t.TempDir()
	p := writeTestFile(t, dir, "book.html", testHTMLFull)
	ok, err := Reader{}.Detect(context.Background(), p)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected Detect to recognize .html file")
	}
}

func TestDetectRejectsOtherExtensions(t *testing.T) {
	ok, err := Reader{}.Detect(context.Background(), "book.docx")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("did not expect Detect to recognize .docx file")
	}
}

func TestExtractTitleAndResources(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "style.css"), []byte("body { color: black; }"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "worst.png"), []byte("\x89PNG\r\n\x1a\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	p := writeTestFile(t, dir, "book.html", testHTMLFull)

	opts := options.Default()
	doc, err := Reader{}.Extract(context.Background(), p, &opts)
	if err != nil {
		t.Fatal(err)
	}

	if doc.Metadata.Title() != "A Tale of Two Cities" {
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
	if !strings.Contains(xhtml, "best of times") {
		t.Errorf("missing body text: %s", xhtml)
	}

	foundCSS, foundImg := false, false
	for _, it := range doc.Manifest.Items() {
		if it.Href == "style.css" {
			foundCSS = true
		}
		if it.Href == "worst.png" {
			foundImg = true
		}
	}
	if !foundCSS {
		t.Error("expected stylesheet to be collected into manifest")
	}
	if !foundImg {
		t.Error("expected image to be collected into manifest")
	}

	if len(doc.Toc.Entries) != 1 || doc.Toc.Entries[0].Title != "A Tale of Two Cities" {
		t.Errorf("toc = %+v", doc.Toc.Entries)
	}
}

func TestExtractFragmentFallsBackToFilenameTitleAndWraps(t *testing.T) {
	dir := t.TempDir()
	p := writeTestFile(t, dir, "my-fragment.html", testHTMLFragment)

	opts := options.Default()
	doc, err := Reader{}.Extract(context.Background(), p, &opts)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Metadata.Title() != "my-fragment" {
		t.Errorf("title = %q", doc.Metadata.Title())
	}

	item, _ := doc.Manifest.ByID("content")
	xhtml, _ := item.Data.AsXHTML()
	if !strings.Contains(xhtml, "<html") {
		t.Errorf("expected fragment to be wrapped in xhtml shell: %s", xhtml)
	}
	if !strings.Contains(xhtml, "Just a fragment") {
		t.Errorf("missing fragment body: %s", xhtml)
	}
}

func TestExtractSkipsRemoteAndDataResources(t *testing.T) {
	dir := t.TempDir()
	content := `<html><head><title>T</title></head><body>
<img src="data:image/png;base64,AAAA"/>
<img src="https://example.com/remote.png"/>
</body></html>`
	p := writeTestFile(t, dir, "book.html", content)

	opts := options.Default()
	doc, err := Reader{}.Extract(context.Background(), p, &opts)
	if err != nil {
		t.Fatal(err)
	}
	for _, it := range doc.Manifest.Items() {
		if it.ID != "content" {
			t.Errorf("did not expect any collected resource, got %+v", it)
		}
	}
}
