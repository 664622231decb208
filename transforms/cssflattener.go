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

var (
	cssCommentRe    = regexp.MustCompile(`/\*.*?\*/`)
	cssWhitespaceRe = regexp.MustCompile(`\s+`)
	headCloseRe     = regexp.MustCompile(`(?i)</head>`)
)

// CSSFlattener injects any user-supplied extra CSS, minifies every
// stylesheet, and ensures every XHTML document links every stylesheet
// in the manifest.
//
// The original's CSS flattener reaches for lightningcss, a full CSS
// parser/printer; nothing in the example pack provides a Go CSS engine,
// so minification here is a conservative whitespace/comment strip
// rather than a structural rewrite — safe for any valid stylesheet,
// at the cost of not re-ordering or merging rules the way lightningcss
// would.
type CSSFlattener struct{}

func (CSSFlattener) Name() string { return "CSSFlattener" }

func (CSSFlattener) Apply(ctx context.Context, doc *book.BookDocument, opts *options.ConversionOptions) error {
	if opts.ExtraCSS != "" {
		injectExtraCSS(doc, opts.ExtraCSS)
	}

	type cssJob struct{ id, css string }
	var cssJobs []cssJob
	for _, item := range doc.Manifest.Items() {
		if item.IsCSS() {
			css, _ := item.Data.AsCSS()
			cssJobs = append(cssJobs, cssJob{id: item.ID, css: css})
		}
	}
	if len(cssJobs) > 0 {
		pool := pipeline.NewWorkerPool[cssJob, cssJob](0, len(cssJobs))
		pool.Start(func(j cssJob) cssJob { return cssJob{id: j.id, css: minifyCSS(j.css)} })
		for _, j := range cssJobs {
			pool.Submit(j)
		}
		pool.Close()
		for r := range pool.Results() {
			if item, ok := doc.Manifest.ByID(r.id); ok {
				_ = doc.Manifest.Update(r.id, book.ManifestItem{
					ID: item.ID, Href: item.Href, MediaType: item.MediaType,
					Data: book.CSS(r.css), Fallback: item.Fallback,
				})
			}
		}
	}

	var cssHrefs []string
	for _, item := range doc.Manifest.Items() {
		if item.IsCSS() {
			cssHrefs = append(cssHrefs, item.Href)
		}
	}
	if len(cssHrefs) == 0 {
		logging.Info("no stylesheets to process")
		return nil
	}

	type xhtmlJob struct{ id, xhtml string }
	var xhtmlJobs []xhtmlJob
	for _, item := range doc.Manifest.Items() {
		if item.IsXHTML() {
			xhtml, _ := item.Data.AsXHTML()
			xhtmlJobs = append(xhtmlJobs, xhtmlJob{id: item.ID, xhtml: xhtml})
		}
	}
	pool := pipeline.NewWorkerPool[xhtmlJob, xhtmlJob](0, len(xhtmlJobs))
	pool.Start(func(j xhtmlJob) xhtmlJob {
		return xhtmlJob{id: j.id, xhtml: ensureCSSLinks(j.xhtml, cssHrefs)}
	})
	for _, j := range xhtmlJobs {
		pool.Submit(j)
	}
	pool.Close()
	for r := range pool.Results() {
		if item, ok := doc.Manifest.ByID(r.id); ok {
			_ = doc.Manifest.Update(r.id, book.ManifestItem{
				ID: item.ID, Href: item.Href, MediaType: item.MediaType,
				Data: book.XHTML(r.xhtml), Fallback: item.Fallback,
			})
		}
	}

	logging.Info("css flattening complete", "stylesheets", len(cssHrefs))
	return nil
}

func minifyCSS(css string) string {
	out := cssCommentRe.ReplaceAllString(css, "")
	out = cssWhitespaceRe.ReplaceAllString(out, " ")
	return strings.TrimSpace(out)
}

func injectExtraCSS(doc *book.BookDocument, extraCSS string) {
	for _, item := range doc.Manifest.Items() {
		if item.IsCSS() {
			existing, _ := item.Data.AsCSS()
			combined := existing + "\n\n/* Extra CSS */\n" + extraCSS
			_ = doc.Manifest.Update(item.ID, book.ManifestItem{
				ID: item.ID, Href: item.Href, MediaType: item.MediaType,
				Data: book.CSS(combined), Fallback: item.Fallback,
			})
			return
		}
	}
	_ = doc.Manifest.Add(book.ManifestItem{
		ID: doc.Manifest.GenerateID("css"), Href: "extra.css",
		MediaType: "text/css", Data: book.CSS(extraCSS),
	})
}

func ensureCSSLinks(xhtml string, cssHrefs []string) string {
	result := xhtml
	for _, href := range cssHrefs {
		if strings.Contains(result, `href="`+href+`"`) || strings.Contains(result, `href='`+href+`'`) {
			continue
		}
		linkTag := `<link rel="stylesheet" type="text/css" href="` + href + `"/>` + "\n"
		loc := headCloseRe.FindStringIndex(result)
		if loc == nil {
			continue
		}
		result = result[:loc[0]] + linkTag + result[loc[0]:]
	}
	return result
}
