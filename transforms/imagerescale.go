package transforms

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"image/png"

	"github.com/disintegration/imaging"

	"github.com/FocuswithJustin/ebookconvert/core/book"
	"github.com/FocuswithJustin/ebookconvert/core/options"
	"github.com/FocuswithJustin/ebookconvert/core/pipeline"
	"github.com/FocuswithJustin/ebookconvert/internal/logging"
)

// ImageRescale downsamples images that exceed an explicit
// max_image_size, preserving aspect ratio. Without max_image_size it
// leaves every image as it is; the output profile's screen size is not
// used as a limit.
type ImageRescale struct{}

func (ImageRescale) Name() string { return "ImageRescale" }

func (ImageRescale) ShouldRun(opts *options.ConversionOptions) bool {
	return !opts.NoImages && opts.MaxImageSize.Set
}

func (t ImageRescale) Apply(ctx context.Context, doc *book.BookDocument, opts *options.ConversionOptions) error {
	if opts.NoImages {
		return nil
	}
	maxW, maxH := opts.OutputProfile.ScreenWidth, opts.OutputProfile.ScreenHeight
	if opts.MaxImageSize.Set {
		maxW, maxH = opts.MaxImageSize.Width, opts.MaxImageSize.Height
	} else {
		return nil
	}

	type job struct {
		id, mediaType, href string
		data                []byte
	}
	var jobs []job
	for _, item := range doc.Manifest.Items() {
		if !item.IsImage() || item.Data.Kind != book.DataBinary || len(item.Data.Binary) == 0 {
			continue
		}
		jobs = append(jobs, job{id: item.ID, mediaType: item.MediaType, href: item.Href, data: item.Data.Binary})
	}
	if len(jobs) == 0 {
		logging.Info("no images to rescale")
		return nil
	}

	logging.Info("rescaling images", "count", len(jobs), "max_w", maxW, "max_h", maxH)

	type result struct {
		id   string
		data []byte
	}
	pool := pipeline.NewWorkerPool[job, result](0, len(jobs))
	pool.Start(func(j job) result {
		resized := resizeImage(j.data, maxW, maxH, j.mediaType, j.href)
		return result{id: j.id, data: resized}
	})
	for _, j := range jobs {
		pool.Submit(j)
	}
	pool.Close()

	count := 0
	for r := range pool.Results() {
		if r.data == nil {
			continue
		}
		item, ok := doc.Manifest.ByID(r.id)
		if !ok {
			continue
		}
		count++
		_ = doc.Manifest.Update(r.id, book.ManifestItem{
			ID: item.ID, Href: item.Href, MediaType: item.MediaType,
			Data: book.Binary(r.data), Fallback: item.Fallback,
		})
	}
	logging.Info("resized images", "count", count)
	return nil
}

// resizeImage returns nil when the source is already within bounds, or
// on decode/encode failure — callers keep the original bytes in either
// case, matching the original's log-and-skip behavior.
func resizeImage(data []byte, maxW, maxH uint32, mediaType, href string) []byte {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		logging.TransformRecovered("ImageRescale", href, err)
		return nil
	}

	bounds := src.Bounds()
	w, h := uint32(bounds.Dx()), uint32(bounds.Dy())
	if w <= maxW && h <= maxH {
		return nil
	}

	newW, newH := fitDimensions(w, h, maxW, maxH)
	resized := imaging.Resize(src, int(newW), int(newH), imaging.Lanczos)

	var buf bytes.Buffer
	if mediaType == "image/png" {
		err = png.Encode(&buf, resized)
	} else {
		err = jpeg.Encode(&buf, resized, &jpeg.Options{Quality: 85})
	}
	if err != nil {
		logging.TransformRecovered("ImageRescale", href, err)
		return nil
	}

	logging.Info("resized image", "href", href, "from_w", w, "from_h", h, "to_w", newW, "to_h", newH)
	return buf.Bytes()
}

// fitDimensions returns the largest (w, h) that fits within (maxW,
// maxH) while preserving aspect ratio.
func fitDimensions(w, h, maxW, maxH uint32) (uint32, uint32) {
	ratioW := float64(maxW) / float64(w)
	ratioH := float64(maxH) / float64(h)
	ratio := ratioW
	if ratioH < ratio {
		ratio = ratioH
	}
	newW := uint32(float64(w)*ratio + 0.5)
	newH := uint32(float64(h)*ratio + 0.5)
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}
	return newW, newH
}
