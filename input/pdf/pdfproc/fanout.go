package pdfproc

import (
	"context"
	"os"
	"runtime"
	"sync"

	"github.com/FocuswithJustin/ebookconvert/core/errors"
)

// fanoutPageThreshold is §4.4's "num_pages > 50" trigger for splitting
// pdftohtml work across page ranges instead of one whole-document pass.
const fanoutPageThreshold = 50

func workerCount(n int) int {
	w := runtime.NumCPU()
	if w > 8 {
		w = 8
	}
	if n > 0 && n < w {
		w = n
	}
	if w < 1 {
		w = 1
	}
	return w
}

// pageRange is a contiguous, 1-indexed, inclusive page span.
type pageRange struct{ first, last int }

// splitPageRanges divides [1, numPages] into up to workers contiguous
// ranges of roughly equal size.
func splitPageRanges(numPages, workers int) []pageRange {
	if workers < 1 {
		workers = 1
	}
	if workers > numPages {
		workers = numPages
	}
	base := numPages / workers
	rem := numPages % workers

	ranges := make([]pageRange, 0, workers)
	start := 1
	for i := 0; i < workers; i++ {
		size := base
		if i < rem {
			size++
		}
		if size == 0 {
			continue
		}
		end := start + size - 1
		ranges = append(ranges, pageRange{first: start, last: end})
		start = end + 1
	}
	return ranges
}

// ExtractPages runs pdftohtml -xml over the whole document, in parallel
// page-range fan-out when numPages exceeds fanoutPageThreshold (§4.4),
// merging the per-range results. baseWorkDir is the parent of each
// worker's own temp directory; the caller is responsible for removing it
// once the caller is done reading any lazily-referenced image files.
func ExtractPages(ctx context.Context, pdfPath, baseWorkDir string, numPages int) ([]PdfPage, map[string]string, error) {
	if numPages <= fanoutPageThreshold {
		dir, err := os.MkdirTemp(baseWorkDir, "pdftohtml-full-*")
		if err != nil {
			return nil, nil, errors.NewPDF("create work dir", err)
		}
		return RunPdftohtmlXML(ctx, pdfPath, dir, 0, 0)
	}

	workers := workerCount(numPages)
	ranges := splitPageRanges(numPages, workers)

	pageBatches := make([][]PdfPage, len(ranges))
	fontBatches := make([]map[string]string, len(ranges))
	errs := make([]error, len(ranges))

	var wg sync.WaitGroup
	for i, r := range ranges {
		wg.Add(1)
		go func(i int, r pageRange) {
			defer wg.Done()
			dir, err := os.MkdirTemp(baseWorkDir, "pdftohtml-range-*")
			if err != nil {
				errs[i] = errors.NewPDF("create work dir", err)
				return
			}
			pages, fonts, err := RunPdftohtmlXML(ctx, pdfPath, dir, r.first, r.last)
			if err != nil {
				errs[i] = err
				return
			}
			pageBatches[i] = pages
			fontBatches[i] = fonts
		}(i, r)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, nil, err
		}
	}

	pages, fonts := mergeFanoutResults(pageBatches, fontBatches)
	return pages, fonts, nil
}
