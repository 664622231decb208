package transforms

import (
	"context"
	"strings"
	"testing"

	"github.com/FocuswithJustin/ebookconvert/core/book"
	"github.com/FocuswithJustin/ebookconvert/core/options"
)

func TestPageMarginRemovesAdobeTemplateMargins(t *testing.T) {
	doc := book.New()
	xhtml := `<html><body style="margin: 5em;"><p>text</p></body></html>`
	_ = doc.Manifest.Add(book.ManifestItem{ID: "tpl", Href: "template.xml", MediaType: "application/vnd.adobe-page-template+xml", Data: book.XHTML(xhtml)})

	opts := options.Default()
	if err := (PageMargin{}).Apply(context.Background(), doc, &opts); err != nil {
		t.Fatal(err)
	}

	item, _ := doc.Manifest.ByID("tpl")
	content, _ := item.Data.AsXHTML()
	if strings.Contains(content, "margin:") {
		t.Fatalf("expected adobe margin removed, got %q", content)
	}
}

func TestPageMarginRemovesDominantFakeMargin(t *testing.T) {
	doc := book.New()
	opts := options.Default()
	for i := 0; i < 20; i++ {
		xhtml := `<html><body><p style="margin-left: 2em;">text</p></body></html>`
		id := "ch"
		_ = doc.Manifest.Add(book.ManifestItem{ID: id + string(rune('0'+i)), Href: "c.xhtml", MediaType: "application/xhtml+xml", Data: book.XHTML(xhtml)})
	}
	if err := (PageMargin{}).Apply(context.Background(), doc, &opts); err != nil {
		t.Fatal(err)
	}
	for _, item := range doc.Manifest.Items() {
		if !item.IsXHTML() {
			continue
		}
		content, _ := item.Data.AsXHTML()
		if strings.Contains(content, "margin-left") {
			t.Fatalf("expected dominant fake margin removed, got %q", content)
		}
	}
}

func TestIsNonZeroMargin(t *testing.T) {
	if isNonZeroMargin("0px") {
		t.Fatalf("expected 0px to be zero margin")
	}
	if !isNonZeroMargin("2em") {
		t.Fatalf("expected 2em to be non-zero margin")
	}
}

func TestDominantValue(t *testing.T) {
	counts := map[string]int{"2em": 19, "1em": 1}
	if got := dominantValue(counts, 18); got != "2em" {
		t.Fatalf("dominantValue = %q, want 2em", got)
	}
	if got := dominantValue(counts, 25); got != "" {
		t.Fatalf("dominantValue = %q, want empty", got)
	}
}
