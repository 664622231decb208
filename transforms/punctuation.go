package transforms

import (
	"context"
	"strings"

	"github.com/FocuswithJustin/ebookconvert/core/book"
	"github.com/FocuswithJustin/ebookconvert/core/options"
	"github.com/FocuswithJustin/ebookconvert/core/pipeline"
	"github.com/FocuswithJustin/ebookconvert/internal/logging"
)

// unsmartenPairs maps typographic punctuation to its ASCII equivalent.
var unsmartenPairs = []struct{ from, to string }{
	{"“", `"`}, {"”", `"`}, {"„", `"`},
	{"‘", "'"}, {"’", "'"}, {"‚", "'"},
	{"–", "-"}, {"—", "--"}, {"…", "..."},
}

// UnsmartenPunctuation replaces smart quotes, en/em dashes, and the
// ellipsis character with their ASCII equivalents.
type UnsmartenPunctuation struct{}

func (UnsmartenPunctuation) Name() string { return "UnsmartenPunctuation" }

func (UnsmartenPunctuation) ShouldRun(opts *options.ConversionOptions) bool {
	return opts.UnsmartenPunctuation
}

func (t UnsmartenPunctuation) Apply(ctx context.Context, doc *book.BookDocument, opts *options.ConversionOptions) error {
	if !t.ShouldRun(opts) {
		return nil
	}
	count := rewriteXHTML(doc, func(s string) (string, bool) {
		changed := false
		for _, p := range unsmartenPairs {
			if strings.Contains(s, p.from) {
				s = strings.ReplaceAll(s, p.from, p.to)
				changed = true
			}
		}
		return s, changed
	})
	if count > 0 {
		logging.Info("unsmartened punctuation", "count", count)
	}
	return nil
}

// SmartenPunctuation converts straight ASCII quotes flanking word
// boundaries into curly quotes, the inverse of UnsmartenPunctuation;
// supplements the fixed chain with the symmetric operation the
// original's options.rs exposes (`smarten_punctuation`) but the
// distilled transform set omitted.
type SmartenPunctuation struct{}

func (SmartenPunctuation) Name() string { return "SmartenPunctuation" }

func (SmartenPunctuation) ShouldRun(opts *options.ConversionOptions) bool {
	return opts.SmartenPunctuation
}

func (t SmartenPunctuation) Apply(ctx context.Context, doc *book.BookDocument, opts *options.ConversionOptions) error {
	if !t.ShouldRun(opts) {
		return nil
	}
	count := rewriteXHTML(doc, func(s string) (string, bool) {
		out := smartenString(s)
		return out, out != s
	})
	if count > 0 {
		logging.Info("smartened punctuation", "count", count)
	}
	return nil
}

// smartenString applies a simple opening/closing heuristic: a quote
// preceded by whitespace, an opening bracket, or the start of the
// string becomes an opening curly quote; otherwise closing.
func smartenString(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	runes := []rune(s)
	for i, r := range runes {
		switch r {
		case '"':
			if isOpenContext(runes, i) {
				b.WriteRune('“')
			} else {
				b.WriteRune('”')
			}
		case '\'':
			if isOpenContext(runes, i) {
				b.WriteRune('‘')
			} else {
				b.WriteRune('’')
			}
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isOpenContext(runes []rune, i int) bool {
	if i == 0 {
		return true
	}
	switch runes[i-1] {
	case ' ', '\t', '\n', '(', '[', '{', '>':
		return true
	default:
		return false
	}
}

// rewriteXHTML fans out transform over every XHTML manifest item in
// parallel, applying results back sequentially, and returns how many
// items changed.
func rewriteXHTML(doc *book.BookDocument, transform func(string) (string, bool)) int {
	type job struct{ id, xhtml string }
	type result struct {
		id      string
		xhtml   string
		changed bool
	}

	var jobs []job
	for _, item := range doc.Manifest.Items() {
		if !item.IsXHTML() {
			continue
		}
		xhtml, _ := item.Data.AsXHTML()
		jobs = append(jobs, job{id: item.ID, xhtml: xhtml})
	}
	if len(jobs) == 0 {
		return 0
	}

	pool := pipeline.NewWorkerPool[job, result](0, len(jobs))
	pool.Start(func(j job) result {
		out, changed := transform(j.xhtml)
		return result{id: j.id, xhtml: out, changed: changed}
	})
	for _, j := range jobs {
		pool.Submit(j)
	}
	pool.Close()

	count := 0
	for r := range pool.Results() {
		if !r.changed {
			continue
		}
		item, ok := doc.Manifest.ByID(r.id)
		if !ok {
			continue
		}
		count++
		_ = doc.Manifest.Update(r.id, book.ManifestItem{
			ID: item.ID, Href: item.Href, MediaType: item.MediaType,
			Data: book.XHTML(r.xhtml), Fallback: item.Fallback,
		})
	}
	return count
}
