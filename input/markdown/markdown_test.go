package markdown

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/FocuswithJustin/ebookconvert/core/options"
)

const testMarkdownDoc = `# Pride and Prejudice

It is a truth universally acknowledged, that a single man in possession
of a good fortune, must be in want of a wife.

## Chapter 1

Mr. Bennet was among the earliest of those who waited on **Mr. Bingley**.
He had always intended to visit him, though to the last always assuring
his wife that he should not go.

- He had no idea
- She had every idea

1. First
2. Second

> However little known the feelings or views of such a man may be.

` + "```" + `
plain code block
` + "```" + `

Some *italic* and a [link](https://example.com) and ` + "`code span`" + `.
`

func writeTestMD(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	p := filepath.Join(dir, "book.md")
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestDetectRecognizesMarkdown(t *testing.T) {
	p := writeTestMD(t, testMarkdownDoc)
	ok, err := Reader{}.Detect(context.Background(), p)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected Detect to recognize .md file")
	}
}

func TestExtractTitleAndStructure(t *testing.T) {
	p := writeTestMD(t, testMarkdownDoc)
	opts := options.Default()
	doc, err := Reader{}.Extract(context.Background(), p, &opts)
	if err != nil {
		t.Fatal(err)
	}

	if doc.Metadata.Title() != "Pride and Prejudice" {
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

	for _, want := range []string{
		"<h1>Pride and Prejudice</h1>",
		"<h2>Chapter 1</h2>",
		"<strong>Mr. Bingley</strong>",
		"<ul>",
		"<li>He had no idea</li>",
		"<ol>",
		"<li>First</li>",
		"<blockquote>",
		"<pre><code>",
		"<em>italic</em>",
		`<a href="https://example.com">link</a>`,
		"<code>code span</code>",
	} {
		if !strings.Contains(xhtml, want) {
			t.Errorf("missing %q in: %s", want, xhtml)
		}
	}

	if len(doc.Toc.Entries) != 2 {
		t.Fatalf("toc = %+v", doc.Toc.Entries)
	}
	if doc.Toc.Entries[0].Title != "Pride and Prejudice" || doc.Toc.Entries[1].Title != "Chapter 1" {
		t.Errorf("toc = %+v", doc.Toc.Entries)
	}
}

func TestExtractFallsBackToFilenameTitle(t *testing.T) {
	p := writeTestMD(t, "Just a paragraph, no heading.")
	opts := options.Default()
	doc, err := Reader{}.Extract(context.Background(), p, &opts)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Metadata.Title() != "book" {
		t.Errorf("title = %q", doc.Metadata.Title())
	}
}

func TestRenderInlineBoldBeforeItalic(t *testing.T) {
	out := renderInline("**bold** and *italic*")
	if !strings.Contains(out, "<strong>bold</strong>") {
		t.Errorf("missing bold: %s", out)
	}
	if !strings.Contains(out, "<em>italic</em>") {
		t.Errorf("missing italic: %s", out)
	}
}
