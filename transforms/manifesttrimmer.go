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
	hrefAttrRe = regexp.MustCompile(`(?:src|href)\s*=\s*["']([^"']+)["']`)
	cssURLRe   = regexp.MustCompile(`url\s*\(\s*['"]?([^'")\s]+)['"]?\s*\)`)
)

// ManifestTrimmer removes manifest items not reachable from the spine,
// the table of contents, the guide, or a src/href/url() reference
// inside any XHTML or CSS item of the manifest (references are
// collected from every such item, whether or not that item is itself
// kept) — the last pass in the chain, so it sees
// every reference every earlier transform may have rewritten.
type ManifestTrimmer struct{}

func (ManifestTrimmer) Name() string { return "ManifestTrimmer" }

func (ManifestTrimmer) Apply(ctx context.Context, doc *book.BookDocument, opts *options.ConversionOptions) error {
	referenced := make(map[string]bool)

	for _, item := range doc.Spine.Items() {
		referenced[item.IDRef] = true
	}

	doc.Toc.Walk(func(entry *book.TocEntry) {
		href := stripFragment(entry.Href)
		if item, ok := doc.Manifest.ByHref(href); ok {
			referenced[item.ID] = true
		}
	})

	for _, ref := range doc.Guide.Refs() {
		href := stripFragment(ref.Href)
		if item, ok := doc.Manifest.ByHref(href); ok {
			referenced[item.ID] = true
		}
	}

	type scanJob struct {
		isXHTML bool
		content string
	}
	var jobs []scanJob
	for _, item := range doc.Manifest.Items() {
		if item.IsXHTML() {
			xhtml, _ := item.Data.AsXHTML()
			jobs = append(jobs, scanJob{isXHTML: true, content: xhtml})
		} else if item.IsCSS() {
			css, _ := item.Data.AsCSS()
			jobs = append(jobs, scanJob{isXHTML: false, content: css})
		}
	}

	if len(jobs) > 0 {
		pool := pipeline.NewWorkerPool[scanJob, map[string]bool](0, len(jobs))
		pool.Start(func(j scanJob) map[string]bool {
			hrefs := make(map[string]bool)
			if j.isXHTML {
				for _, m := range hrefAttrRe.FindAllStringSubmatch(j.content, -1) {
					hrefs[m[1]] = true
				}
			} else {
				for _, m := range cssURLRe.FindAllStringSubmatch(j.content, -1) {
					hrefs[m[1]] = true
				}
			}
			return hrefs
		})
		for _, j := range jobs {
			pool.Submit(j)
		}
		pool.Close()

		for hrefs := range pool.Results() {
			for href := range hrefs {
				if item, ok := doc.Manifest.ByHref(href); ok {
					referenced[item.ID] = true
				}
			}
		}
	}

	var toRemove []string
	for _, item := range doc.Manifest.Items() {
		if !referenced[item.ID] {
			toRemove = append(toRemove, item.ID)
		}
	}
	for _, id := range toRemove {
		logging.Debug("trimming unreferenced manifest item", "id", id)
	}
	doc.Manifest.RemoveIf(func(item book.ManifestItem) bool { return !referenced[item.ID] })

	logging.Info("trimmed unreferenced manifest items", "count", len(toRemove))
	return nil
}

func stripFragment(href string) string {
	if i := strings.IndexByte(href, '#'); i >= 0 {
		return href[:i]
	}
	return href
}
