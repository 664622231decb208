package transforms

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/FocuswithJustin/ebookconvert/core/book"
	"github.com/FocuswithJustin/ebookconvert/core/options"
	"github.com/FocuswithJustin/ebookconvert/internal/logging"
)

// MergeMetadata ensures the book carries the minimum metadata an output
// writer can rely on: a title, a language, and a stable UID.
type MergeMetadata struct{}

func (MergeMetadata) Name() string { return "MergeMetadata" }

func (MergeMetadata) Apply(ctx context.Context, doc *book.BookDocument, opts *options.ConversionOptions) error {
	if doc.Metadata.Title() == "" {
		doc.Metadata.SetTitle("Untitled")
	}
	if !doc.Metadata.Contains("language") {
		doc.Metadata.Set("language", "en")
	}
	if doc.UID == "" {
		doc.UID = fmt.Sprintf("urn:uuid:%s", uuid.New().String())
	}

	logging.Info("metadata merged", "title", doc.Metadata.Title())
	return nil
}
