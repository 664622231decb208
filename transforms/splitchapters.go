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

// minSplitSize is the minimum XHTML content size that triggers
// splitting a spine item at its internal heading/page-break boundaries.
const minSplitSize = 10_000

var (
	bodyRe          = regexp.MustCompile(`(?is)<body[^>]*>(.*)</body>`)
	h1h2OpenRe      = regexp.MustCompile(`(?i)<h[12][^>]*>`)
	h1h2TitleRe     = regexp.MustCompile(`(?is)<h[12][^>]*>(.*?)</h[12]>`)
	pageBreakDivRe  = regexp.MustCompile(`(?i)<div[^>]*class\s*=\s*["']mbp_pagebreak["'][^>]*>\s*</div>`)
)

// SplitChapters breaks large XHTML spine items into one file per
// internal h1/h2 heading or MOBI page-break marker, for faster e-reader
// pagination and navigation.
type SplitChapters struct{}

func (SplitChapters) Name() string { return "SplitChapters" }

type contentChunk struct {
	title string
	body  string
}

type splitJob struct {
	idref, href, xhtml string
}

type splitResult struct {
	idref, href string
	chunks      []contentChunk
}

// splitPos marks one candidate chunk boundary inside a spine item's
// body: either a heading open tag or the end of a MOBI page-break div.
type splitPos struct {
	pos       int
	isHeading bool
}

func (SplitChapters) Apply(ctx context.Context, doc *book.BookDocument, opts *options.ConversionOptions) error {
	var candidates []splitJob
	for _, spineItem := range doc.Spine.Items() {
		item, ok := doc.Manifest.ByID(spineItem.IDRef)
		if !ok || !item.IsXHTML() {
			continue
		}
		xhtml, _ := item.Data.AsXHTML()
		if len(xhtml) >= minSplitSize {
			candidates = append(candidates, splitJob{idref: spineItem.IDRef, href: item.Href, xhtml: xhtml})
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	pool := pipeline.NewWorkerPool[splitJob, splitResult](0, len(candidates))
	pool.Start(func(j splitJob) splitResult {
		chunks := splitAtHeadings(j.xhtml)
		if len(chunks) <= 1 {
			return splitResult{}
		}
		return splitResult{idref: j.idref, href: j.href, chunks: chunks}
	})
	for _, j := range candidates {
		pool.Submit(j)
	}
	pool.Close()

	var results []splitResult
	for r := range pool.Results() {
		if r.chunks != nil {
			results = append(results, r)
		}
	}

	for _, r := range results {
		logging.Info("splitting spine item into chapters", "href", r.href, "chapters", len(r.chunks))
		applySplit(doc, r)
	}
	return nil
}

func applySplit(doc *book.BookDocument, r splitResult) {
	spinePos := doc.Spine.IndexOf(r.idref)
	if spinePos < 0 {
		return
	}
	doc.Spine.RemoveByIDRef(r.idref)

	newIDs := make([]string, len(r.chunks))
	for i, chunk := range r.chunks {
		var newID, newHref string
		if i == 0 {
			newID = r.idref
			newHref = r.href
		} else {
			newID = doc.Manifest.GenerateID(r.idref + "_ch")
			base := strings.TrimSuffix(r.href, ".xhtml")
			newHref = doc.Manifest.GenerateHref(fmt.Sprintf("%s_ch%d", base, i), "xhtml")
		}

		xhtmlDoc := wrapBodyXHTML(chunk.body, chunk.title)

		if i == 0 {
			if item, ok := doc.Manifest.ByID(newID); ok {
				_ = doc.Manifest.Update(newID, book.ManifestItem{
					ID: newID, Href: newHref, MediaType: item.MediaType,
					Data: book.XHTML(xhtmlDoc), Fallback: item.Fallback,
				})
			}
		} else {
			_ = doc.Manifest.Add(book.ManifestItem{
				ID: newID, Href: newHref, MediaType: "application/xhtml+xml",
				Data: book.XHTML(xhtmlDoc),
			})
		}
		newIDs[i] = newID
	}

	for i, newID := range newIDs {
		doc.Spine.Insert(spinePos+i, newID, true)
	}

	updateTocHrefs(doc, r.href, r.chunks, newIDs)
}

func splitAtHeadings(xhtml string) []contentChunk {
	bodyMatch := bodyRe.FindStringSubmatch(xhtml)
	var bodyContent string
	if bodyMatch == nil {
		return []contentChunk{{body: xhtml}}
	}
	bodyContent = bodyMatch[1]

	var positions []splitPos
	for _, loc := range h1h2OpenRe.FindAllStringIndex(bodyContent, -1) {
		positions = append(positions, splitPos{pos: loc[0], isHeading: true})
	}
	for _, loc := range pageBreakDivRe.FindAllStringIndex(bodyContent, -1) {
		positions = append(positions, splitPos{pos: loc[1], isHeading: false})
	}
	sort.Slice(positions, func(i, j int) bool { return positions[i].pos < positions[j].pos })
	positions = dedupPositions(positions)

	if len(positions) == 0 {
		return []contentChunk{{body: bodyContent}}
	}

	var chunks []contentChunk

	first := strings.TrimSpace(bodyContent[:positions[0].pos])
	if first != "" && first != "<br/>" {
		chunks = append(chunks, contentChunk{body: first})
	}

	for i, p := range positions {
		end := len(bodyContent)
		if i+1 < len(positions) {
			end = positions[i+1].pos
		}
		chunkHTML := strings.TrimSpace(bodyContent[p.pos:end])
		if chunkHTML == "" {
			continue
		}
		title := ""
		if m := h1h2TitleRe.FindStringSubmatch(chunkHTML); m != nil {
			title = strings.TrimSpace(tagRe.ReplaceAllString(m[1], ""))
		}
		chunks = append(chunks, contentChunk{title: title, body: chunkHTML})
	}

	avgSize := len(bodyContent)
	if len(chunks) > 0 {
		avgSize = len(bodyContent) / len(chunks)
	}
	if avgSize < 500 && len(chunks) > 5 {
		return []contentChunk{{body: bodyContent}}
	}

	return chunks
}

func dedupPositions(positions []splitPos) []splitPos {
	if len(positions) == 0 {
		return positions
	}
	out := positions[:1]
	for _, p := range positions[1:] {
		if p.pos != out[len(out)-1].pos {
			out = append(out, p)
		}
	}
	return out
}

func wrapBodyXHTML(body, title string) string {
	if title == "" {
		title = "Chapter"
	}
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.1//EN" "http://www.w3.org/TR/xhtml11/DTD/xhtml11.dtd">
<html xmlns="http://www.w3.org/1999/xhtml" xml:lang="en">
<head>
  <title>%s</title>
  <link rel="stylesheet" type="text/css" href="style.css"/>
</head>
<body>
%s
</body>
</html>`, escapeHTML(title), body)
}

func updateTocHrefs(doc *book.BookDocument, originalHref string, chunks []contentChunk, newIDs []string) {
	var titleToHref []struct{ title, href string }
	for i, chunk := range chunks {
		if chunk.title == "" {
			continue
		}
		if item, ok := doc.Manifest.ByID(newIDs[i]); ok {
			titleToHref = append(titleToHref, struct{ title, href string }{chunk.title, item.Href})
		}
	}

	doc.Toc.Walk(func(entry *book.TocEntry) {
		entryBase := entry.Href
		if idx := strings.IndexByte(entryBase, '#'); idx >= 0 {
			entryBase = entryBase[:idx]
		}
		if entryBase != originalHref {
			return
		}
		for _, th := range titleToHref {
			if entry.Title == th.title {
				entry.Href = th.href
				break
			}
		}
	})
}
