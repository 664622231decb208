// Package txt writes a BookDocument out as plain text: a title/author
// header, then every spine item's text content with block-level HTML tags
// turned into newlines, entities decoded, and runs of blank lines
// collapsed.
package txt

import (
	"context"
	"os"
	"regexp"
	"strings"

	"github.com/FocuswithJustin/ebookconvert/core/book"
	"github.com/FocuswithJustin/ebookconvert/core/errors"
	"github.com/FocuswithJustin/ebookconvert/core/options"
	"github.com/FocuswithJustin/ebookconvert/core/plugin"
	"github.com/FocuswithJustin/ebookconvert/internal/logging"
)

func init() {
	plugin.RegisterOutput(Writer{})
}

// Writer implements plugin.OutputPlugin for plain-text output.
type Writer struct{}

func (Writer) Name() string { return "txt" }

func (Writer) Capabilities() plugin.Capabilities {
	return plugin.Capabilities{
		Formats:   []book.EbookFormat{book.FormatTXT},
		LossClass: "L4",
	}
}

var (
	tagRe        = regexp.MustCompile(`<[^>]+>`)
	blankRunRe   = regexp.MustCompile(`\n{3,}`)
	blockTagRe   = regexp.MustCompile(`(?i)</?(p|div|h[1-6]|br|li|tr|blockquote|pre)[^>]*>`)
	entityRepl   = strings.NewReplacer("&amp;", "&", "&lt;", "<", "&gt;", ">", "&quot;", `"`, "&#39;", "'", "&nbsp;", " ")
)

func (w Writer) Write(ctx context.Context, doc *book.BookDocument, path string, opts *options.ConversionOptions) error {
	var b strings.Builder

	if title := doc.Metadata.Title(); title != "" {
		b.WriteString(title)
		b.WriteString("\n")
		b.WriteString(strings.Repeat("=", len(title)))
		b.WriteString("\n\n")
	}

	authors := doc.Metadata.Authors()
	for _, author := range authors {
		b.WriteString("By ")
		b.WriteString(author)
		b.WriteString("\n")
	}
	if len(authors) > 0 {
		b.WriteString("\n")
	}

	for _, ref := range doc.Spine.Items() {
		item, ok := doc.Manifest.ByID(ref.IDRef)
		if !ok {
			continue
		}
		xhtml, ok := item.Data.AsXHTML()
		if !ok {
			continue
		}
		body := extractBodyText(xhtml)
		plain := tagRe.ReplaceAllString(body, "")
		plain = entityRepl.Replace(plain)
		plain = blankRunRe.ReplaceAllString(plain, "\n\n")
		plain = strings.TrimSpace(plain)
		if plain != "" {
			b.WriteString(plain)
			b.WriteString("\n\n")
		}
	}

	logging.Info("writing txt", "path", path, "items", doc.Manifest.Len())

	if err := os.WriteFile(path, []byte(strings.TrimRight(b.String(), "\n")), 0o644); err != nil {
		return errors.NewOther("write txt", err)
	}
	return nil
}

// extractBodyText returns a document's body content with block-element
// tags turned into newlines, leaving inline tags for tagRe to strip later.
func extractBodyText(xhtml string) string {
	lower := strings.ToLower(xhtml)
	body := xhtml
	if start := strings.Index(lower, "<body"); start >= 0 {
		after := strings.IndexByte(xhtml[start:], '>')
		if after < 0 {
			after = 0
		}
		end := strings.LastIndex(lower, "</body>")
		if end < 0 {
			end = len(xhtml)
		}
		bodyStart := start + after + 1
		if bodyStart <= end {
			body = xhtml[bodyStart:end]
		}
	}
	return blockTagRe.ReplaceAllString(body, "\n")
}
