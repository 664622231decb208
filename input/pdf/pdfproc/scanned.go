package pdfproc

import (
	"context"
	"os"
	"sort"
	"sync"

	"github.com/FocuswithJustin/ebookconvert/core/errors"
)

// groupContiguousPages collapses a set of page numbers into the minimal
// list of contiguous (first, last) ranges, e.g. [1,2,3,7,8,12] ->
// [(1,3),(7,8),(12,12)] (§4.4's scanned-page grouping rule).
func groupContiguousPages(pages []int) []pageRange {
	if len(pages) == 0 {
		return nil
	}
	sorted := make([]int, len(pages))
	copy(sorted, pages)
	sort.Ints(sorted)

	var ranges []pageRange
	start, prev := sorted[0], sorted[0]
	for _, p := range sorted[1:] {
		if p == prev+1 {
			prev = p
			continue
		}
		ranges = append(ranges, pageRange{first: start, last: prev})
		start, prev = p, p
	}
	ranges = append(ranges, pageRange{first: start, last: prev})
	return ranges
}

// padWidth returns the zero-pad width pdftoppm uses for a document of
// totalPages pages (§4.4: 2, 3, or 4 digits).
func padWidth(totalPages int) int {
	switch {
	case totalPages >= 1000:
		return 4
	case totalPages >= 100:
		return 3
	default:
		return 2
	}
}

// RenderedPage is one scanned page rasterized to a JPEG file.
type RenderedPage struct {
	Page int
	Data []byte
}

// RenderScannedPages implements §4.4's scanned-page rendering: contiguous
// ranges are rendered by parallel pdftoppm invocations (one process per
// range, one worker goroutine per range, capped like the pdftohtml
// fan-out), then every output file is read back and paired with its
// page number.
func RenderScannedPages(ctx context.Context, pdfPath, baseWorkDir string, scannedPages []int, totalPages, dpi, quality int) ([]RenderedPage, error) {
	ranges := groupContiguousPages(scannedPages)
	if len(ranges) == 0 {
		return nil, nil
	}
	width := padWidth(totalPages)

	type rangeResult struct {
		pages []RenderedPage
		err   error
	}
	results := make([]rangeResult, len(ranges))

	var wg sync.WaitGroup
	workers := workerCount(len(ranges))
	sem := make(chan struct{}, workers)
	for i, r := range ranges {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, r pageRange) {
			defer wg.Done()
			defer func() { <-sem }()

			dir, err := os.MkdirTemp(baseWorkDir, "pdftoppm-*")
			if err != nil {
				results[i] = rangeResult{err: errors.NewPDF("create work dir", err)}
				return
			}
			files, err := RunPdftoppm(ctx, pdfPath, dir, r.first, r.last, dpi, quality, width)
			if err != nil {
				results[i] = rangeResult{err: err}
				return
			}

			rendered := make([]RenderedPage, 0, len(files))
			for j, f := range files {
				data, err := readWorkFile(f)
				if err != nil {
					results[i] = rangeResult{err: errors.NewPDF("read rendered page", err)}
					return
				}
				rendered = append(rendered, RenderedPage{Page: r.first + j, Data: data})
			}
			results[i] = rangeResult{pages: rendered}
		}(i, r)
	}
	wg.Wait()

	var all []RenderedPage
	for _, res := range results {
		if res.err != nil {
			return nil, res.err
		}
		all = append(all, res.pages...)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Page < all[j].Page })
	return all, nil
}
