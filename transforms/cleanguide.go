package transforms

import (
	"context"

	"github.com/FocuswithJustin/ebookconvert/core/book"
	"github.com/FocuswithJustin/ebookconvert/core/options"
	"github.com/FocuswithJustin/ebookconvert/internal/logging"
)

// coverTypeAliases are the Microsoft/Adobe cover-image metadata type
// names seen in guide references exported by other tools.
var coverTypeAliases = []string{
	"ms-coverimage-standard",
	"ms-titleimage-standard",
	"other.ms-coverimage-standard",
	"other.ms-titleimage-standard",
}

// CleanGuide normalizes guide references: detects a cover from vendor
// aliases, promotes a "start" reference to "text", and drops any
// reference whose type is outside the 17-entry standard allow list.
type CleanGuide struct{}

func (CleanGuide) Name() string { return "CleanGuide" }

func (CleanGuide) Apply(ctx context.Context, doc *book.BookDocument, opts *options.ConversionOptions) error {
	if _, ok := doc.Guide.Get("cover"); !ok {
		for _, alias := range coverTypeAliases {
			if ref, ok := doc.Guide.Get(alias); ok {
				doc.Guide.Add(book.GuideRef{RefType: "cover", Title: "Cover", Href: ref.Href})
				logging.Info("detected cover from vendor metadata")
				break
			}
		}
	}

	if _, ok := doc.Guide.Get("text"); !ok {
		if start, ok := doc.Guide.Get("start"); ok {
			doc.Guide.Add(book.GuideRef{RefType: "text", Title: start.Title, Href: start.Href})
			logging.Debug("promoted guide start to text")
		}
	}

	var removed int
	doc.Guide.RemoveIf(func(ref book.GuideRef) bool {
		if !book.StandardGuideTypes[ref.RefType] {
			removed++
			logging.Debug("removing non-standard guide type", "type", ref.RefType)
			return true
		}
		return false
	})
	if removed > 0 {
		logging.Info("removed non-standard guide references", "count", removed)
	}
	return nil
}
