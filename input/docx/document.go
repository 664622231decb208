package docx

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/FocuswithJustin/ebookconvert/internal/xmlutil"
)

// parseRelationships reads word/_rels/document.xml.rels into an
// rId -> target map, used to resolve hyperlink and image references found
// while converting word/document.xml.
func parseRelationships(doc *xmlutil.Document) map[string]string {
	rels := make(map[string]string)
	nodes, err := doc.XPath("//*[local-name()='Relationship']")
	if err != nil {
		return rels
	}
	for _, n := range nodes {
		id := n.Attr("Id")
		target := n.Attr("Target")
		if id != "" && target != "" {
			rels[id] = target
		}
	}
	return rels
}

// convertDocument walks word/document.xml with a streaming token decoder
// and renders it as HTML body content: paragraphs become <p>/<h1-6>/<li>,
// runs carry bold/italic/underline/strike/sub/superscript, tables become
// <table>, and drawings/hyperlinks resolve through rels.
func convertDocument(data []byte, rels map[string]string, styles map[string]styleInfo, numbering map[string]numberingInfo) string {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var html strings.Builder
	st := newConvertState(rels, styles, numbering)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			st.handleStart(t.Name.Local, t.Attr, &html)
		case xml.EndElement:
			st.handleEnd(t.Name.Local, &html)
		case xml.CharData:
			if st.inText {
				st.paraBuf.WriteString(escapeHTML(string(t)))
				st.paraHasContent = true
			}
		}
	}
	st.closeList(&html)
	return html.String()
}

type convertState struct {
	rels      map[string]string
	styles    map[string]styleInfo
	numbering map[string]numberingInfo

	inParagraph bool
	inRun       bool
	inText      bool
	inTable     bool

	bold, italic, underline, strike, superscript, subscript bool

	paraStyleID   string
	paraAlignment string
	paraNumID     string

	inHyperlink bool
	hyperlinkHref string

	currentListType string // "" | "ul" | "ol"

	paraBuf        strings.Builder
	paraHasContent bool
}

func newConvertState(rels map[string]string, styles map[string]styleInfo, numbering map[string]numberingInfo) *convertState {
	return &convertState{rels: rels, styles: styles, numbering: numbering}
}

func attr(attrs []xml.Attr, local string) string {
	for _, a := range attrs {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

func (s *convertState) handleStart(local string, attrs []xml.Attr, html *strings.Builder) {
	switch local {
	case "p":
		s.inParagraph = true
		s.paraStyleID = ""
		s.paraAlignment = ""
		s.paraNumID = ""
		s.paraBuf.Reset()
		s.paraHasContent = false
	case "pStyle":
		s.paraStyleID = attr(attrs, "val")
	case "jc":
		if s.inParagraph {
			s.paraAlignment = attr(attrs, "val")
		}
	case "numId":
		s.paraNumID = attr(attrs, "val")
	case "r":
		s.inRun = true
		s.bold, s.italic, s.underline, s.strike, s.superscript, s.subscript = false, false, false, false, false, false
	case "t":
		s.inText = true
		s.openRunFormatting()
	case "b", "bCs":
		if s.inRun {
			s.bold = true
		}
	case "i", "iCs":
		if s.inRun {
			s.italic = true
		}
	case "u":
		if s.inRun {
			s.underline = true
		}
	case "strike":
		if s.inRun {
			s.strike = true
		}
	case "vertAlign":
		if s.inRun {
			switch attr(attrs, "val") {
			case "superscript":
				s.superscript = true
			case "subscript":
				s.subscript = true
			}
		}
	case "br":
		if s.inRun {
			s.paraBuf.WriteString("<br/>")
			s.paraHasContent = true
		}
	case "tab":
		if s.inRun {
			s.paraBuf.WriteString("&#160;&#160;&#160;&#160;")
			s.paraHasContent = true
		}
	case "tbl":
		s.closeList(html)
		s.inTable = true
		html.WriteString("<table>\n")
	case "tr":
		html.WriteString("<tr>")
	case "tc":
		html.WriteString("<td>")
	case "hyperlink":
		s.inHyperlink = true
		s.hyperlinkHref = ""
		if rid := attr(attrs, "id"); rid != "" {
			if target, ok := s.rels[rid]; ok {
				s.hyperlinkHref = target
			}
		}
		if s.hyperlinkHref != "" {
			fmt.Fprintf(&s.paraBuf, `<a href="%s">`, escapeAttr(s.hyperlinkHref))
		}
	case "blip":
		if rid := attr(attrs, "embed"); rid != "" {
			if target, ok := s.rels[rid]; ok {
				fmt.Fprintf(&s.paraBuf, `<img src="%s" alt=""/>`, escapeAttr(target))
				s.paraHasContent = true
			}
		}
	}
}

func (s *convertState) handleEnd(local string, html *strings.Builder) {
	switch local {
	case "t":
		s.closeRunFormatting()
		s.inText = false
	case "r":
		s.inRun = false
	case "p":
		s.flushParagraph(html)
		s.inParagraph = false
	case "tbl":
		html.WriteString("</table>\n")
		s.inTable = false
	case "tr":
		html.WriteString("</tr>\n")
	case "tc":
		html.WriteString("</td>")
	case "hyperlink":
		if s.inHyperlink && s.hyperlinkHref != "" {
			s.paraBuf.WriteString("</a>")
		}
		s.inHyperlink = false
		s.hyperlinkHref = ""
	}
}

func (s *convertState) openRunFormatting() {
	if s.superscript {
		s.paraBuf.WriteString("<sup>")
	}
	if s.subscript {
		s.paraBuf.WriteString("<sub>")
	}
	if s.bold {
		s.paraBuf.WriteString("<b>")
	}
	if s.italic {
		s.paraBuf.WriteString("<i>")
	}
	if s.underline {
		s.paraBuf.WriteString("<u>")
	}
	if s.strike {
		s.paraBuf.WriteString("<s>")
	}
}

func (s *convertState) closeRunFormatting() {
	if s.strike {
		s.paraBuf.WriteString("</s>")
	}
	if s.underline {
		s.paraBuf.WriteString("</u>")
	}
	if s.italic {
		s.paraBuf.WriteString("</i>")
	}
	if s.bold {
		s.paraBuf.WriteString("</b>")
	}
	if s.subscript {
		s.paraBuf.WriteString("</sub>")
	}
	if s.superscript {
		s.paraBuf.WriteString("</sup>")
	}
}

func (s *convertState) flushParagraph(html *strings.Builder) {
	var level int
	var isHeading bool
	if s.paraStyleID != "" {
		level, isHeading = headingLevel(s.paraStyleID, s.styles)
	}
	isList := s.paraNumID != "" && s.paraNumID != "0"

	class := ""
	switch s.paraAlignment {
	case "center":
		class = ` class="docx-center"`
	case "right", "end":
		class = ` class="docx-right"`
	case "both", "distribute":
		class = ` class="docx-justify"`
	}

	switch {
	case isHeading:
		s.closeList(html)
		tag := fmt.Sprintf("h%d", level)
		html.WriteString("<" + tag + class + ">")
		html.WriteString(s.paraBuf.String())
		html.WriteString("</" + tag + ">\n")
	case isList:
		listType := "ul"
		if info, ok := s.numbering[s.paraNumID]; ok && info.format != "bullet" {
			listType = "ol"
		}
		if s.currentListType != listType {
			s.closeList(html)
			html.WriteString("<" + listType + ">\n")
			s.currentListType = listType
		}
		html.WriteString("<li>")
		html.WriteString(s.paraBuf.String())
		html.WriteString("</li>\n")
	default:
		s.closeList(html)
		if !s.paraHasContent && strings.TrimSpace(s.paraBuf.String()) == "" {
			return
		}
		html.WriteString("<p" + class + ">")
		html.WriteString(s.paraBuf.String())
		html.WriteString("</p>\n")
	}
}

func (s *convertState) closeList(html *strings.Builder) {
	if s.currentListType != "" {
		html.WriteString("</" + s.currentListType + ">\n")
		s.currentListType = ""
	}
}

func escapeHTML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}

func escapeAttr(s string) string {
	s = escapeHTML(s)
	return strings.ReplaceAll(s, `"`, "&quot;")
}
