package pdfproc

import (
	"sort"
	"strings"
)

// PdfLine is a run of text fragments judged to sit on the same visual
// line of a page.
type PdfLine struct {
	Top, Height float64
	Elements    []PdfText
}

func (l PdfLine) text() string {
	parts := make([]string, len(l.Elements))
	for i, e := range l.Elements {
		parts[i] = e.Text
	}
	return strings.Join(parts, " ")
}

// groupLines implements §4.4 step 1: sort fragments by (top, left), join
// a fragment into the current line if it is within 3px vertically of
// that line's top, otherwise start a new line. Each line's elements are
// re-sorted by left so fragments land in reading order even when
// pdftohtml emits them out of horizontal order.
func groupLines(texts []PdfText) []PdfLine {
	if len(texts) == 0 {
		return nil
	}
	sorted := make([]PdfText, len(texts))
	copy(sorted, texts)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Top != sorted[j].Top {
			return sorted[i].Top < sorted[j].Top
		}
		return sorted[i].Left < sorted[j].Left
	})

	const lineTolerance = 3.0

	var lines []PdfLine
	for _, t := range sorted {
		placed := false
		for i := range lines {
			if absFloat(lines[i].Top-t.Top) < lineTolerance {
				lines[i].Elements = append(lines[i].Elements, t)
				if t.Height > lines[i].Height {
					lines[i].Height = t.Height
				}
				placed = true
				break
			}
		}
		if !placed {
			lines = append(lines, PdfLine{Top: t.Top, Height: t.Height, Elements: []PdfText{t}})
		}
	}

	for i := range lines {
		sort.SliceStable(lines[i].Elements, func(a, b int) bool {
			return lines[i].Elements[a].Left < lines[i].Elements[b].Left
		})
	}
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].Top < lines[j].Top })
	return lines
}

func absFloat(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

// averageGap implements §4.4 step 2: the average of the positive
// vertical gaps between consecutive lines (gap = next.top -
// (prev.top + prev.height)).
func averageGap(lines []PdfLine) float64 {
	var total float64
	var count int
	for i := 1; i < len(lines); i++ {
		gap := lines[i].Top - (lines[i-1].Top + lines[i-1].Height)
		if gap > 0 {
			total += gap
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return total / float64(count)
}

// renderPage implements §4.4 steps 2-4: group lines, detect paragraph
// breaks via the 1.5x-average-gap rule, merge in images by vertical
// position, and emit the page body as XHTML. imageHref resolves an
// image's Src (as reported by pdftohtml) to the href it was given in
// the output manifest.
func renderPage(page PdfPage, imageHref func(src string) string) string {
	lines := groupLines(page.Texts)

	if len(lines) == 0 && len(page.Images) == 0 {
		return `<p class="empty-page">[Page ` + itoa(page.Number) + `]</p>`
	}

	avgGap := averageGap(lines)
	threshold := avgGap * 1.5

	type block struct {
		top     float64
		isImage bool
		line    PdfLine
		image   PdfImage
	}
	blocks := make([]block, 0, len(lines)+len(page.Images))
	for _, l := range lines {
		blocks = append(blocks, block{top: l.Top, line: l})
	}
	for _, img := range page.Images {
		blocks = append(blocks, block{top: img.Top, isImage: true, image: img})
	}
	sort.SliceStable(blocks, func(i, j int) bool { return blocks[i].top < blocks[j].top })

	var buf strings.Builder
	var para []string
	var prevLine *PdfLine

	flush := func() {
		if len(para) == 0 {
			return
		}
		buf.WriteString("<p>")
		buf.WriteString(escapeText(strings.Join(para, " ")))
		buf.WriteString("</p>\n")
		para = nil
	}

	for _, b := range blocks {
		if b.isImage {
			flush()
			href := imageHref(b.image.Src)
			buf.WriteString(`<div class="page-image"><img src="`)
			buf.WriteString(href)
			buf.WriteString(`" alt=""/></div>` + "\n")
			prevLine = nil
			continue
		}
		l := b.line
		if prevLine != nil {
			gap := l.Top - (prevLine.Top + prevLine.Height)
			if avgGap > 0 && gap > threshold {
				flush()
			}
		}
		para = append(para, l.text())
		lcopy := l
		prevLine = &lcopy
	}
	flush()

	return `<div class="page">` + "\n" + buf.String() + `</div>`
}

func escapeText(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var b []byte
	for n > 0 {
		b = append([]byte{byte('0' + n%10)}, b...)
		n /= 10
	}
	if neg {
		b = append([]byte{'-'}, b...)
	}
	return string(b)
}
