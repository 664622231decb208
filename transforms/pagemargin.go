package transforms

import (
	"context"
	"regexp"
	"strings"

	"github.com/FocuswithJustin/ebookconvert/core/book"
	"github.com/FocuswithJustin/ebookconvert/core/options"
	"github.com/FocuswithJustin/ebookconvert/internal/logging"
)

var (
	inlineMarginRe   = regexp.MustCompile(`margin\s*:\s*[^;]+;?`)
	marginLeftRe     = regexp.MustCompile(`margin-left\s*:\s*([^;]+)`)
	marginRightRe    = regexp.MustCompile(`margin-right\s*:\s*([^;]+)`)
	styledElementRe  = regexp.MustCompile(`(?i)<(?:p|div)\s[^>]*style\s*=\s*"([^"]*)"[^>]*>`)
	emptyStyleAttrRe = regexp.MustCompile(`\s*style\s*=\s*"\s*"`)
)

// PageMargin strips artificial margins: Adobe page-template margins, and
// any margin-left/margin-right value shared by at least 95% (as a count
// rounded down) of styled paragraphs/divs in the book (a value that common is almost always an
// artifact of the source layout, not deliberate indentation).
type PageMargin struct{}

func (PageMargin) Name() string { return "PageMargin" }

func (PageMargin) Apply(ctx context.Context, doc *book.BookDocument, opts *options.ConversionOptions) error {
	removeAdobeMargins(doc)
	removeFakeMargins(doc)
	return nil
}

func removeAdobeMargins(doc *book.BookDocument) {
	for _, item := range doc.Manifest.Items() {
		isAdobeTemplate := item.MediaType == "application/vnd.adobe-page-template+xml" ||
			item.MediaType == "application/adobe-page-template+xml"
		if !isAdobeTemplate || !item.IsXHTML() {
			continue
		}
		xhtml, _ := item.Data.AsXHTML()
		newXHTML := inlineMarginRe.ReplaceAllString(xhtml, "")
		if newXHTML != xhtml {
			logging.Debug("removed adobe margins", "id", item.ID)
			_ = doc.Manifest.Update(item.ID, book.ManifestItem{
				ID: item.ID, Href: item.Href, MediaType: item.MediaType,
				Data: book.XHTML(newXHTML), Fallback: item.Fallback,
			})
		}
	}
}

func removeFakeMargins(doc *book.BookDocument) {
	leftCounts := map[string]int{}
	rightCounts := map[string]int{}
	totalStyled := 0

	var xhtmlIDs []string
	for _, item := range doc.Manifest.Items() {
		if item.IsXHTML() {
			xhtmlIDs = append(xhtmlIDs, item.ID)
		}
	}

	for _, id := range xhtmlIDs {
		item, ok := doc.Manifest.ByID(id)
		if !ok {
			continue
		}
		xhtml, _ := item.Data.AsXHTML()
		for _, m := range styledElementRe.FindAllStringSubmatch(xhtml, -1) {
			style := m[1]
			totalStyled++
			if lm := marginLeftRe.FindStringSubmatch(style); lm != nil {
				if val := strings.TrimSpace(lm[1]); isNonZeroMargin(val) {
					leftCounts[val]++
				}
			}
			if rm := marginRightRe.FindStringSubmatch(style); rm != nil {
				if val := strings.TrimSpace(rm[1]); isNonZeroMargin(val) {
					rightCounts[val]++
				}
			}
		}
	}

	if totalStyled == 0 {
		return
	}
	threshold := int(float64(totalStyled) * 0.95)

	dominantLeft := dominantValue(leftCounts, threshold)
	dominantRight := dominantValue(rightCounts, threshold)
	if dominantLeft == "" && dominantRight == "" {
		return
	}

	for _, id := range xhtmlIDs {
		item, ok := doc.Manifest.ByID(id)
		if !ok {
			continue
		}
		xhtml, _ := item.Data.AsXHTML()
		newXHTML := xhtml
		if dominantLeft != "" {
			pattern := regexp.MustCompile(`margin-left\s*:\s*` + regexp.QuoteMeta(dominantLeft) + `\s*;?`)
			newXHTML = pattern.ReplaceAllString(newXHTML, "")
		}
		if dominantRight != "" {
			pattern := regexp.MustCompile(`margin-right\s*:\s*` + regexp.QuoteMeta(dominantRight) + `\s*;?`)
			newXHTML = pattern.ReplaceAllString(newXHTML, "")
		}
		newXHTML = emptyStyleAttrRe.ReplaceAllString(newXHTML, "")

		if newXHTML != xhtml {
			_ = doc.Manifest.Update(id, book.ManifestItem{
				ID: item.ID, Href: item.Href, MediaType: item.MediaType,
				Data: book.XHTML(newXHTML), Fallback: item.Fallback,
			})
		}
	}

	if dominantLeft != "" {
		logging.Info("removed fake margin-left", "value", dominantLeft)
	}
	if dominantRight != "" {
		logging.Info("removed fake margin-right", "value", dominantRight)
	}
}

func isNonZeroMargin(val string) bool {
	switch val {
	case "0", "0px", "0pt", "0em":
		return false
	default:
		return true
	}
}

func dominantValue(counts map[string]int, threshold int) string {
	for val, count := range counts {
		if count >= threshold {
			return val
		}
	}
	return ""
}
