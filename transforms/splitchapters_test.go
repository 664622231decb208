package transforms

import (
	"context"
	"strings"
	"testing"

	"github.com/FocuswithJustin/ebookconvert/core/book"
	"github.com/FocuswithJustin/ebookconvert/core/options"
)

func padTo(s string, n int) string {
	if len(s) >= n {
		return s
	}
	return s + strings.Repeat(" ", n-len(s))
}

func TestSplitAtHeadingsSplitsOnH1(t *testing.T) {
	filler := padTo("<p>filler</p>", 6000)
	xhtml := "<html><body>" +
		"<h1>Chapter One</h1>" + filler +
		"<h1>Chapter Two</h1>" + filler +
		"</body></html>"
	chunks := splitAtHeadings(xhtml)
	if len(chunks) != 2 {
		t.Fatalf("len(chunks) = %d, want 2", len(chunks))
	}
	if chunks[0].title != "Chapter One" || chunks[1].title != "Chapter Two" {
		t.Fatalf("chunks = %+v", chunks)
	}
}

func TestSplitAtHeadingsNoHeadingsReturnsSingleChunk(t *testing.T) {
	xhtml := "<html><body><p>just some text</p></body></html>"
	chunks := splitAtHeadings(xhtml)
	if len(chunks) != 1 {
		t.Fatalf("len(chunks) = %d, want 1", len(chunks))
	}
}

func TestSplitAtHeadingsMergesTinyChunks(t *testing.T) {
	var b strings.Builder
	b.WriteString("<html><body>")
	for i := 0; i < 8; i++ {
		b.WriteString("<h2>T</h2><p>x</p>")
	}
	b.WriteString("</body></html>")
	chunks := splitAtHeadings(b.String())
	if len(chunks) != 1 {
		t.Fatalf("expected tiny chunks merged back into one, got %d", len(chunks))
	}
}

func TestSplitChaptersAppliesWhenLargeEnough(t *testing.T) {
	doc := book.New()
	filler := padTo("<p>filler</p>", 6000)
	xhtml := "<html><body>" +
		"<h1>Chapter One</h1>" + filler +
		"<h1>Chapter Two</h1>" + filler +
		"</body></html>"
	_ = doc.Manifest.Add(book.ManifestItem{ID: "big", Href: "big.xhtml", MediaType: "application/xhtml+xml", Data: book.XHTML(xhtml)})
	doc.Spine.Push("big", true)

	opts := options.Default()
	if err := (SplitChapters{}).Apply(context.Background(), doc, &opts); err != nil {
		t.Fatal(err)
	}

	items := doc.Spine.Items()
	if len(items) != 2 {
		t.Fatalf("spine len = %d, want 2", len(items))
	}
}

func TestSplitChaptersSkipsSmallContent(t *testing.T) {
	doc := book.New()
	xhtml := "<html><body><h1>Chapter</h1><p>short</p></body></html>"
	_ = doc.Manifest.Add(book.ManifestItem{ID: "small", Href: "small.xhtml", MediaType: "application/xhtml+xml", Data: book.XHTML(xhtml)})
	doc.Spine.Push("small", true)

	opts := options.Default()
	if err := (SplitChapters{}).Apply(context.Background(), doc, &opts); err != nil {
		t.Fatal(err)
	}

	items := doc.Spine.Items()
	if len(items) != 1 {
		t.Fatalf("spine len = %d, want 1 (no split expected)", len(items))
	}
}
