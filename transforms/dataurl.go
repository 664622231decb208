// Package transforms holds the fixed-order chain of IR-to-IR passes
// applied between input extraction and output serialization.
package transforms

import (
	"context"
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"

	"github.com/FocuswithJustin/ebookconvert/core/book"
	"github.com/FocuswithJustin/ebookconvert/core/options"
	"github.com/FocuswithJustin/ebookconvert/core/pipeline"
	"github.com/FocuswithJustin/ebookconvert/internal/logging"
)

var dataURLRe = regexp.MustCompile(`src\s*=\s*["'](data:([^;]+);base64,([^"']+))["']`)

// DataURL extracts base64-encoded data: URIs embedded in XHTML img tags
// into standalone manifest items, replacing the src attribute with the
// new item's href.
type DataURL struct{}

func (DataURL) Name() string { return "DataURL" }

type dataURLJob struct {
	id, xhtml string
}

type decodedImage struct {
	mimeType string
	data     []byte
}

type dataURLResult struct {
	id      string
	xhtml   string
	decoded []decodedImage
}

func (DataURL) Apply(ctx context.Context, doc *book.BookDocument, opts *options.ConversionOptions) error {
	var jobs []dataURLJob
	for _, item := range doc.Manifest.Items() {
		if !item.IsXHTML() {
			continue
		}
		xhtml, _ := item.Data.AsXHTML()
		if strings.Contains(xhtml, "data:") {
			jobs = append(jobs, dataURLJob{id: item.ID, xhtml: xhtml})
		}
	}
	if len(jobs) == 0 {
		return nil
	}

	pool := pipeline.NewWorkerPool[dataURLJob, dataURLResult](0, len(jobs))
	pool.Start(func(job dataURLJob) dataURLResult {
		return decodeDataURLs(job)
	})
	for _, job := range jobs {
		pool.Submit(job)
	}
	pool.Close()

	var results []dataURLResult
	for r := range pool.Results() {
		results = append(results, r)
	}

	count := 0
	for _, r := range results {
		newXHTML := r.xhtml
		for i, img := range r.decoded {
			count++
			ext := mimeToExt(img.mimeType)
			href := doc.Manifest.GenerateHref(fmt.Sprintf("data_image_%d", count), ext)
			itemID := doc.Manifest.GenerateID("dataimg")

			placeholder := fmt.Sprintf("__dataurl_placeholder_%d__", i)
			newXHTML = strings.ReplaceAll(newXHTML, placeholder, href)

			logging.Debug("extracted data URI", "href", href)
			_ = doc.Manifest.Add(book.ManifestItem{
				ID:        itemID,
				Href:      href,
				MediaType: img.mimeType,
				Data:      book.Binary(img.data),
			})
		}
		if item, ok := doc.Manifest.ByID(r.id); ok {
			_ = doc.Manifest.Update(r.id, book.ManifestItem{
				ID: item.ID, Href: item.Href, MediaType: item.MediaType,
				Data: book.XHTML(newXHTML), Fallback: item.Fallback,
			})
		}
	}

	if count > 0 {
		logging.Info("resolved data URIs into manifest items", "count", count)
	}
	return nil
}

func decodeDataURLs(job dataURLJob) dataURLResult {
	newXHTML := job.xhtml
	var decoded []decodedImage

	matches := dataURLRe.FindAllStringSubmatch(job.xhtml, -1)
	for _, m := range matches {
		fullURI, mimeType, b64Data := m[1], m[2], m[3]
		data, err := base64.StdEncoding.DecodeString(b64Data)
		if err != nil {
			cleaned := strings.Map(func(r rune) rune {
				if r == ' ' || r == '\n' || r == '\t' || r == '\r' {
					return -1
				}
				return r
			}, b64Data)
			data, err = base64.StdEncoding.DecodeString(cleaned)
			if err != nil {
				continue
			}
		}
		placeholder := fmt.Sprintf("__dataurl_placeholder_%d__", len(decoded))
		newXHTML = strings.Replace(newXHTML, fullURI, placeholder, 1)
		decoded = append(decoded, decodedImage{mimeType: mimeType, data: data})
	}

	return dataURLResult{id: job.id, xhtml: newXHTML, decoded: decoded}
}

func mimeToExt(mime string) string {
	switch mime {
	case "image/png":
		return "png"
	case "image/jpeg", "image/jpg":
		return "jpg"
	case "image/gif":
		return "gif"
	case "image/svg+xml":
		return "svg"
	case "image/webp":
		return "webp"
	case "image/bmp":
		return "bmp"
	default:
		return "bin"
	}
}
