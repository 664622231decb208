package transforms

import (
	"context"
	"strings"
	"testing"

	"github.com/FocuswithJustin/ebookconvert/core/book"
	"github.com/FocuswithJustin/ebookconvert/core/options"
)

func TestLinearizeTablesRewritesMarkup(t *testing.T) {
	doc := book.New()
	xhtml := `<html><body><table><tr><th>H</th></tr><tr><td>A</td></tr></table></body></html>`
	_ = doc.Manifest.Add(book.ManifestItem{ID: "ch1", Href: "chapter1.xhtml", MediaType: "application/xhtml+xml", Data: book.XHTML(xhtml)})

	opts := options.Default()
	opts.LinearizeTables = true
	if err := (LinearizeTables{}).Apply(context.Background(), doc, &opts); err != nil {
		t.Fatal(err)
	}

	ch1, _ := doc.Manifest.ByID("ch1")
	content, _ := ch1.Data.AsXHTML()
	if strings.Contains(content, "<table") || strings.Contains(content, "<td") || strings.Contains(content, "<th") {
		t.Fatalf("expected table markup rewritten, got %q", content)
	}
	if !strings.Contains(content, "linearized-table") {
		t.Fatalf("expected linearized-table class, got %q", content)
	}
}

func TestLinearizeTablesSkippedWhenDisabled(t *testing.T) {
	doc := book.New()
	xhtml := `<html><body><table><tr><td>A</td></tr></table></body></html>`
	_ = doc.Manifest.Add(book.ManifestItem{ID: "ch1", Href: "chapter1.xhtml", MediaType: "application/xhtml+xml", Data: book.XHTML(xhtml)})

	opts := options.Default()
	if err := (LinearizeTables{}).Apply(context.Background(), doc, &opts); err != nil {
		t.Fatal(err)
	}

	ch1, _ := doc.Manifest.ByID("ch1")
	content, _ := ch1.Data.AsXHTML()
	if !strings.Contains(content, "<table") {
		t.Fatalf("expected table untouched when disabled, got %q", content)
	}
}

func TestContainsTable(t *testing.T) {
	if !containsTable("<html><BODY><TABLE></TABLE></body></html>") {
		t.Fatalf("expected case-insensitive match")
	}
	if containsTable("<html><body><p>no tables here</p></body></html>") {
		t.Fatalf("expected no match")
	}
}
