package transforms

import (
	"context"
	"regexp"
	"strings"

	"github.com/FocuswithJustin/ebookconvert/core/book"
	"github.com/FocuswithJustin/ebookconvert/core/options"
	"github.com/FocuswithJustin/ebookconvert/core/pipeline"
	"github.com/FocuswithJustin/ebookconvert/internal/logging"
)

type tablePattern struct {
	open, close *regexp.Regexp
	openRepl    string
}

var tablePatterns = []tablePattern{
	{regexp.MustCompile(`(?i)<table[^>]*>`), regexp.MustCompile(`(?i)</table\s*>`), `<div class="linearized-table">`},
	{regexp.MustCompile(`(?i)<tr[^>]*>`), regexp.MustCompile(`(?i)</tr\s*>`), `<div class="linearized-row">`},
	{regexp.MustCompile(`(?i)<td[^>]*>`), regexp.MustCompile(`(?i)</td\s*>`), `<div class="linearized-cell">`},
	{regexp.MustCompile(`(?i)<th[^>]*>`), regexp.MustCompile(`(?i)</th\s*>`), `<div class="linearized-cell linearized-header">`},
	{regexp.MustCompile(`(?i)<thead[^>]*>`), regexp.MustCompile(`(?i)</thead\s*>`), `<div class="linearized-thead">`},
	{regexp.MustCompile(`(?i)<tbody[^>]*>`), regexp.MustCompile(`(?i)</tbody\s*>`), `<div class="linearized-tbody">`},
	{regexp.MustCompile(`(?i)<tfoot[^>]*>`), regexp.MustCompile(`(?i)</tfoot\s*>`), `<div class="linearized-tfoot">`},
	{regexp.MustCompile(`(?i)<caption[^>]*>`), regexp.MustCompile(`(?i)</caption\s*>`), `<div class="linearized-caption">`},
}

var (
	colgroupRe = regexp.MustCompile(`(?i)</?colgroup[^>]*>`)
	colTagRe   = regexp.MustCompile(`(?i)<col[^>]*>`)
)

// LinearizeTables rewrites HTML table markup into nested divs for
// e-readers that lack table layout support.
type LinearizeTables struct{}

func (LinearizeTables) Name() string { return "LinearizeTables" }

func (LinearizeTables) ShouldRun(opts *options.ConversionOptions) bool {
	return opts.LinearizeTables
}

func (t LinearizeTables) Apply(ctx context.Context, doc *book.BookDocument, opts *options.ConversionOptions) error {
	if !t.ShouldRun(opts) {
		return nil
	}

	type job struct{ id, xhtml string }
	var jobs []job
	for _, item := range doc.Manifest.Items() {
		if !item.IsXHTML() {
			continue
		}
		xhtml, _ := item.Data.AsXHTML()
		if containsTable(xhtml) {
			jobs = append(jobs, job{id: item.ID, xhtml: xhtml})
		}
	}
	if len(jobs) == 0 {
		return nil
	}

	pool := pipeline.NewWorkerPool[job, job](0, len(jobs))
	pool.Start(func(j job) job {
		s := j.xhtml
		for _, p := range tablePatterns {
			s = p.open.ReplaceAllString(s, p.openRepl)
			s = p.close.ReplaceAllString(s, "</div>")
		}
		s = colgroupRe.ReplaceAllString(s, "")
		s = colTagRe.ReplaceAllString(s, "")
		return job{id: j.id, xhtml: s}
	})
	for _, j := range jobs {
		pool.Submit(j)
	}
	pool.Close()

	count := 0
	for r := range pool.Results() {
		if item, ok := doc.Manifest.ByID(r.id); ok {
			count++
			_ = doc.Manifest.Update(r.id, book.ManifestItem{
				ID: item.ID, Href: item.Href, MediaType: item.MediaType,
				Data: book.XHTML(r.xhtml), Fallback: item.Fallback,
			})
		}
	}
	if count > 0 {
		logging.Info("linearized tables", "count", count)
	}
	return nil
}

func containsTable(xhtml string) bool {
	return strings.Contains(strings.ToLower(xhtml), "<table")
}
