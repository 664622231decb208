package pdfproc

import (
	"context"
	"os"

	"github.com/FocuswithJustin/ebookconvert/core/errors"
	"github.com/FocuswithJustin/ebookconvert/core/options"
	"github.com/FocuswithJustin/ebookconvert/internal/logging"
)

// PageResult is one page's extraction outcome, whichever strategy
// produced it.
type PageResult struct {
	Number int
	Class  PageClass
	HTML   string // set for PageText/PageBlank/PageImageOnly-with-text-extractor pages
	Image  *RenderedPage
}

// Result is the full output of Extract: per-page results in page order,
// the bookmark outline (if any), and the info dictionary.
type Result struct {
	NumPages int
	Pages    []PageResult
	Outline  []*OutlineEntry
	Info     InfoDict
}

// Extract runs the full §4.4 hybrid pipeline over pdfPath: classify (or
// skip classification under the ImageOnly/TextOnly engine overrides),
// fan out pdftohtml/pdftoppm as required, reconstruct text pages, and
// render scanned pages. baseWorkDir is used as the parent for every
// worker's own temp directory, per the fan-out contract in ExtractPages
// and RenderScannedPages; the caller removes it once done.
func Extract(ctx context.Context, pdfPath, baseWorkDir string, engine options.PdfEngine, dpi int, jpegQuality int) (*Result, error) {
	info, err := pdfInfo(ctx, pdfPath)
	if err != nil {
		return nil, err
	}
	if info.Pages == 0 {
		return nil, errors.NewPDF("pdfinfo reported zero pages", nil)
	}

	outline, err := RunPdftohtmlOutline(ctx, pdfPath, baseWorkDir)
	if err != nil {
		logging.Warn("pdf outline extraction failed, falling back to per-page toc", "error", err.Error())
		outline = nil
	}

	switch engine {
	case options.PdfEngineImageOnly:
		return extractImageOnly(ctx, pdfPath, baseWorkDir, info, outline, dpi, jpegQuality)
	case options.PdfEngineTextOnly:
		return extractTextOnly(ctx, pdfPath, baseWorkDir, info, outline)
	default:
		return extractAuto(ctx, pdfPath, baseWorkDir, info, outline, dpi, jpegQuality)
	}
}

func pdfInfo(ctx context.Context, pdfPath string) (InfoDict, error) {
	raw, err := RunPdfinfo(ctx, pdfPath)
	if err != nil {
		return InfoDict{}, err
	}
	return ParsePdfinfoOutput(raw), nil
}

func extractTextOnly(ctx context.Context, pdfPath, baseWorkDir string, info InfoDict, outline []*OutlineEntry) (*Result, error) {
	pages, _, err := ExtractPages(ctx, pdfPath, baseWorkDir, info.Pages)
	if err != nil {
		return nil, err
	}
	results := make([]PageResult, 0, len(pages))
	for _, p := range pages {
		results = append(results, PageResult{Number: p.Number, Class: PageText, HTML: renderPage(p, identityImageHref)})
	}
	return &Result{NumPages: info.Pages, Pages: results, Outline: outline, Info: info}, nil
}

func extractImageOnly(ctx context.Context, pdfPath, baseWorkDir string, info InfoDict, outline []*OutlineEntry, dpi, quality int) (*Result, error) {
	allPages := make([]int, info.Pages)
	for i := range allPages {
		allPages[i] = i + 1
	}
	rendered, err := RenderScannedPages(ctx, pdfPath, baseWorkDir, allPages, info.Pages, dpi, quality)
	if err != nil {
		return nil, err
	}

	// A second text pass purely for spine searchability:
	// pdftohtml -xml still gives us whatever invisible/plain text layer
	// exists, merged in as hidden text alongside the page image.
	textPages, _, err := ExtractPages(ctx, pdfPath, baseWorkDir, info.Pages)
	textByPage := make(map[int]PdfPage, len(textPages))
	if err == nil {
		for _, p := range textPages {
			textByPage[p.Number] = p
		}
	}

	results := make([]PageResult, 0, len(rendered))
	for i := range rendered {
		r := rendered[i]
		html := ""
		if p, ok := textByPage[r.Page]; ok && p.hasNonEmptyText() {
			html = searchableTextSpan(p)
		}
		results = append(results, PageResult{Number: r.Page, Class: PageImageOnly, HTML: html, Image: &rendered[i]})
	}
	return &Result{NumPages: info.Pages, Pages: results, Outline: outline, Info: info}, nil
}

func extractAuto(ctx context.Context, pdfPath, baseWorkDir string, info InfoDict, outline []*OutlineEntry, dpi, quality int) (*Result, error) {
	pages, _, err := ExtractPages(ctx, pdfPath, baseWorkDir, info.Pages)
	if err != nil {
		return nil, err
	}

	classes := make(map[int]PageClass, len(pages))
	textCount := 0
	var scannedNums []int
	for _, p := range pages {
		c := ClassifyPage(p)
		classes[p.Number] = c
		switch c {
		case PageText:
			textCount++
		case PageScanned:
			scannedNums = append(scannedNums, p.Number)
		}
	}

	if textCount == 0 && len(scannedNums) == 0 {
		logging.Info("pdf auto classification found no text pages, degrading to image-only", "path", pdfPath)
		return extractImageOnly(ctx, pdfPath, baseWorkDir, info, outline, dpi, quality)
	}

	var rendered []RenderedPage
	if len(scannedNums) > 0 {
		rendered, err = RenderScannedPages(ctx, pdfPath, baseWorkDir, scannedNums, info.Pages, dpi, quality)
		if err != nil {
			return nil, err
		}
	}
	renderedByPage := make(map[int]RenderedPage, len(rendered))
	for _, r := range rendered {
		renderedByPage[r.Page] = r
	}

	pagesByNum := make(map[int]PdfPage, len(pages))
	for _, p := range pages {
		pagesByNum[p.Number] = p
	}

	results := make([]PageResult, 0, info.Pages)
	for n := 1; n <= info.Pages; n++ {
		class := classes[n]
		switch class {
		case PageText:
			results = append(results, PageResult{Number: n, Class: class, HTML: renderPage(pagesByNum[n], identityImageHref)})
		case PageScanned:
			r := renderedByPage[n]
			html := ""
			if p, ok := pagesByNum[n]; ok && p.hasNonEmptyText() {
				html = searchableTextSpan(p)
			}
			results = append(results, PageResult{Number: n, Class: class, HTML: html, Image: &r})
		case PageImageOnly:
			r := renderedByPage[n]
			results = append(results, PageResult{Number: n, Class: class, Image: &r})
		default:
			results = append(results, PageResult{Number: n, Class: PageBlank, HTML: renderPage(PdfPage{Number: n}, identityImageHref)})
		}
	}

	return &Result{NumPages: info.Pages, Pages: results, Outline: outline, Info: info}, nil
}

func identityImageHref(src string) string { return "images/" + src }

// searchableTextSpan renders a scanned page's detected (invisible OCR)
// text into a visually-hidden span so the page remains searchable in
// the output reader without being shown over the page image.
func searchableTextSpan(page PdfPage) string {
	lines := groupLines(page.Texts)
	var text string
	for i, l := range lines {
		if i > 0 {
			text += " "
		}
		text += l.text()
	}
	if text == "" {
		return ""
	}
	return `<p class="ocr-text" style="display:none">` + escapeText(text) + `</p>`
}

// NewWorkDir creates the parent temp directory every pdfproc worker
// creates its own subdirectory under, so the caller can remove
// everything with a single os.RemoveAll once the output has been
// written (§4.4: "Temp directories outlive merging and are dropped
// only after the output is written").
func NewWorkDir() (string, error) {
	return os.MkdirTemp("", "pdfproc-*")
}
