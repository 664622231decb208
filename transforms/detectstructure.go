package transforms

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/FocuswithJustin/ebookconvert/core/book"
	"github.com/FocuswithJustin/ebookconvert/core/options"
	"github.com/FocuswithJustin/ebookconvert/core/pipeline"
	"github.com/FocuswithJustin/ebookconvert/internal/logging"
)

var (
	tagRe      = regexp.MustCompile(`<[^>]+>`)
	headingRes [7]*regexp.Regexp
)

func init() {
	for level := 1; level <= 6; level++ {
		headingRes[level] = regexp.MustCompile(fmt.Sprintf(`(?i)<h%d[^>]*>(.*?)</h%d>`, level, level))
	}
}

// DetectStructure builds the table of contents from heading tags when
// the input plugin didn't already populate one, falling back to one
// entry per spine item if no headings are found.
type DetectStructure struct{}

func (DetectStructure) Name() string { return "DetectStructure" }

type heading struct {
	offset int
	level  int
	title  string
}

type headingJob struct {
	href, xhtml string
}

type headingResult struct {
	href     string
	headings []heading
}

func (DetectStructure) Apply(ctx context.Context, doc *book.BookDocument, opts *options.ConversionOptions) error {
	if !doc.Toc.IsEmpty() {
		logging.Info("toc already populated, skipping structure detection", "entries", len(doc.Toc.Flatten()))
		return nil
	}

	var chapterRe *regexp.Regexp
	if opts.ChapterRegex != "" {
		chapterRe, _ = regexp.Compile(opts.ChapterRegex)
	}

	var jobs []headingJob
	for _, item := range doc.Manifest.Items() {
		if !item.IsXHTML() {
			continue
		}
		xhtml, _ := item.Data.AsXHTML()
		jobs = append(jobs, headingJob{href: item.Href, xhtml: xhtml})
	}

	pool := pipeline.NewWorkerPool[headingJob, headingResult](0, len(jobs))
	pool.Start(func(job headingJob) headingResult {
		return headingResult{href: job.href, headings: extractHeadings(job.xhtml, chapterRe)}
	})
	for _, job := range jobs {
		pool.Submit(job)
	}
	pool.Close()

	var results []headingResult
	for r := range pool.Results() {
		results = append(results, r)
	}

	for _, r := range results {
		for _, h := range r.headings {
			entryHref := r.href
			if h.level > 2 {
				entryHref = fmt.Sprintf("%s#heading-%d", r.href, len(h.title))
			}
			doc.Toc.Entries = append(doc.Toc.Entries, &book.TocEntry{
				Title: h.title,
				Href:  entryHref,
				Class: fmt.Sprintf("h%d", h.level),
			})
		}
	}

	if doc.Toc.IsEmpty() {
		logging.Info("no headings found, generating toc from spine")
		for i, spineItem := range doc.Spine.Items() {
			if item, ok := doc.Manifest.ByID(spineItem.IDRef); ok {
				doc.Toc.Entries = append(doc.Toc.Entries, &book.TocEntry{
					Title: fmt.Sprintf("Section %d", i+1),
					Href:  item.Href,
				})
			}
		}
	}

	doc.Toc.RationalizePlayOrders()
	logging.Info("detected toc entries", "count", len(doc.Toc.Flatten()))
	return nil
}

func extractHeadings(xhtml string, chapterRe *regexp.Regexp) []heading {
	var found []heading

	for level := 1; level <= 6; level++ {
		matches := headingRes[level].FindAllStringSubmatchIndex(xhtml, -1)
		for _, m := range matches {
			raw := xhtml[m[2]:m[3]]
			title := strings.TrimSpace(tagRe.ReplaceAllString(raw, ""))
			if title == "" {
				continue
			}
			if chapterRe != nil && !chapterRe.MatchString(title) {
				continue
			}
			found = append(found, heading{offset: m[0], level: level, title: title})
		}
	}

	sort.SliceStable(found, func(i, j int) bool { return found[i].offset < found[j].offset })
	return found
}
