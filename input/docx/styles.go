package docx

import (
	"strconv"
	"strings"

	"github.com/FocuswithJustin/ebookconvert/internal/xmlutil"
)

// styleInfo is the subset of a word/styles.xml <w:style> entry needed to
// decide whether a paragraph style renders as a heading.
type styleInfo struct {
	name         string
	basedOn      string
	outlineLevel int // -1 means absent
}

// numberingInfo resolves a numId to its list marker kind: "bullet" or
// anything else, which is rendered as an ordered list.
type numberingInfo struct {
	format string
}

// parseStyles reads word/styles.xml into a styleId -> styleInfo map.
func parseStyles(doc *xmlutil.Document) map[string]styleInfo {
	styles := make(map[string]styleInfo)
	nodes, err := doc.XPath("//*[local-name()='style']")
	if err != nil {
		return styles
	}
	for _, n := range nodes {
		id := n.Attr("styleId")
		if id == "" {
			continue
		}
		info := styleInfo{outlineLevel: -1}
		for _, child := range n.Children() {
			switch localName(child.Name()) {
			case "name":
				info.name = child.Attr("val")
			case "basedOn":
				info.basedOn = child.Attr("val")
			case "pPr":
				for _, pp := range child.Children() {
					if localName(pp.Name()) == "outlineLvl" {
						if lvl, err := strconv.Atoi(pp.Attr("val")); err == nil {
							info.outlineLevel = lvl
						}
					}
				}
			}
		}
		if info.outlineLevel < 0 {
			lower := strings.ToLower(info.name)
			if strings.HasPrefix(lower, "heading") || strings.HasPrefix(lower, "titre") {
				for _, r := range lower {
					if r >= '1' && r <= '9' {
						info.outlineLevel = int(r-'0') - 1
						break
					}
				}
			}
		}
		styles[id] = info
	}
	return styles
}

// parseNumbering reads word/numbering.xml into an abstractNumId -> format
// map, keyed by the numbering definition's own id rather than the numId a
// paragraph references (see the simplification note in DESIGN.md:
// this reader does not resolve the
// num -> abstractNum indirection and treats numId as if it names the
// abstract definition directly, which holds for the overwhelming majority
// of documents that declare one abstractNum per numId).
func parseNumbering(doc *xmlutil.Document) map[string]numberingInfo {
	numbering := make(map[string]numberingInfo)
	nodes, err := doc.XPath("//*[local-name()='abstractNum']")
	if err != nil {
		return numbering
	}
	for _, n := range nodes {
		id := n.Attr("abstractNumId")
		if id == "" {
			continue
		}
		format := "decimal"
	findFmt:
		for _, lvl := range n.Children() {
			if localName(lvl.Name()) != "lvl" {
				continue
			}
			for _, child := range lvl.Children() {
				if localName(child.Name()) == "numFmt" {
					if v := child.Attr("val"); v != "" {
						format = v
					}
					break findFmt
				}
			}
		}
		numbering[id] = numberingInfo{format: format}
	}
	return numbering
}

// headingLevel resolves styleID to a 1-6 heading level by following
// basedOn chains, mirroring how Word itself inherits outline levels from a
// parent style when a derived style doesn't set its own.
func headingLevel(styleID string, styles map[string]styleInfo) (int, bool) {
	seen := make(map[string]bool)
	for styleID != "" && !seen[styleID] {
		seen[styleID] = true
		info, ok := styles[styleID]
		if !ok {
			return 0, false
		}
		if info.outlineLevel >= 0 {
			level := info.outlineLevel + 1
			if level > 6 {
				level = 6
			}
			return level, true
		}
		styleID = info.basedOn
	}
	return 0, false
}

func localName(qualified string) string {
	if idx := strings.LastIndexByte(qualified, ':'); idx >= 0 {
		return qualified[idx+1:]
	}
	return qualified
}
