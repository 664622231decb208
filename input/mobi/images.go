package mobi

import (
	"bytes"
	"fmt"

	"github.com/FocuswithJustin/ebookconvert/core/book"
)

// extractImages collects the image records between the book's text
// records and its FLIS/FCIS/EOF trailer, returning one manifest item per
// image plus a recindex-ordered href list for fixImageReferences.
func extractImages(records [][]byte, hdr *mobiHeader) ([]book.ManifestItem, []string) {
	start := int(hdr.textRecordCount) + 1
	if hdr.firstImageRecord != 0xFFFFFFFF && int(hdr.firstImageRecord) > 0 {
		start = int(hdr.firstImageRecord)
	}
	end := len(records)
	if hdr.lastContentRecord != 0xFFFF && int(hdr.lastContentRecord)+1 < end {
		end = int(hdr.lastContentRecord) + 1
	}
	if start < 0 || start >= len(records) || start >= end {
		return nil, nil
	}

	var items []book.ManifestItem
	var hrefs []string
	idx := 0
	for i := start; i < end; i++ {
		content := records[i]
		if len(content) < 4 {
			continue
		}
		mimeType, ext, ok := detectImageType(content)
		if !ok {
			continue
		}
		idx++
		href := fmt.Sprintf("images/image_%04d.%s", idx, ext)
		id := fmt.Sprintf("img_%d", idx)
		items = append(items, book.ManifestItem{
			ID: id, Href: href, MediaType: mimeType, Data: book.Binary(content),
		})
		hrefs = append(hrefs, href)
	}
	return items, hrefs
}

// detectImageType sniffs magic bytes to classify an embedded image
// record. Unknown content is treated as not-an-image rather than guessed,
// since MOBI image-record ranges sometimes include non-image trailer
// records this reader doesn't otherwise recognize.
func detectImageType(data []byte) (mimeType, ext string, ok bool) {
	switch {
	case bytes.HasPrefix(data, []byte("\x89PNG")):
		return "image/png", "png", true
	case bytes.HasPrefix(data, []byte("\xff\xd8\xff")):
		return "image/jpeg", "jpg", true
	case bytes.HasPrefix(data, []byte("GIF8")):
		return "image/gif", "gif", true
	case bytes.HasPrefix(data, []byte("BM")):
		return "image/bmp", "bmp", true
	case len(data) > 12 && bytes.HasPrefix(data, []byte("RIFF")) && string(data[8:12]) == "WEBP":
		return "image/webp", "webp", true
	default:
		return "", "", false
	}
}
