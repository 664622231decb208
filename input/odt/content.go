package odt

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// headingLevelRe pulls a level out of style names like "Heading_20_1",
// "Heading 1", or "Heading1" — ODT's style export mangles spaces into
// "_20_" inside style:name attributes.
var headingLevelRe = regexp.MustCompile(`(?i)heading[_ ]*(?:20[_ ]*)?([0-9])`)

func extractHeadingLevel(styleName string) (int, bool) {
	m := headingLevelRe.FindStringSubmatch(styleName)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 || n > 6 {
		return 0, false
	}
	return n, true
}

// spanFormat is the subset of text:span formatting convertContentXML can
// infer from a style name heuristic (ODT automatic styles don't expose
// bold/italic through the element tree directly without also parsing
// styles.xml's full property set, which this reader doesn't need).
type spanFormat struct {
	bold, italic, underline bool
}

func detectSpanFormat(styleName string) spanFormat {
	lower := strings.ToLower(styleName)
	return spanFormat{
		bold:      strings.Contains(lower, "bold") || strings.Contains(lower, "strong"),
		italic:    strings.Contains(lower, "italic") || strings.Contains(lower, "emphasis"),
		underline: strings.Contains(lower, "underline"),
	}
}

func (f spanFormat) openTags(buf *strings.Builder) {
	if f.bold {
		buf.WriteString("<strong>")
	}
	if f.italic {
		buf.WriteString("<em>")
	}
	if f.underline {
		buf.WriteString("<u>")
	}
}

func (f spanFormat) closeTags(buf *strings.Builder) {
	if f.underline {
		buf.WriteString("</u>")
	}
	if f.italic {
		buf.WriteString("</em>")
	}
	if f.bold {
		buf.WriteString("</strong>")
	}
}

// convertContentXML walks content.xml with a streaming token decoder and
// renders office:text into HTML: text:p/text:h become <p>/<h1-6>, spans
// carry bold/italic/underline inferred from their style name, lists
// become <ul>/<li>, tables become <table>, images and hyperlinks resolve
// to manifest-relative hrefs.
func convertContentXML(data []byte, headingStyles map[string]bool) string {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var html strings.Builder
	st := &contentState{headingStyles: headingStyles}

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
			if st.inPara {
				st.paraBuf.WriteString(escapeText(string(t)))
			}
		}
	}
	return html.String()
}

type contentState struct {
	headingStyles map[string]bool

	inTextBody bool
	inPara     bool
	inList     bool
	listDepth  int

	currentTag string
	paraBuf    strings.Builder
	spanStack  []spanFormat
}

func localAttr(attrs []xml.Attr, local string) string {
	for _, a := range attrs {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

func (s *contentState) handleStart(local string, attrs []xml.Attr, html *strings.Builder) {
	switch local {
	case "text":
		s.inTextBody = true
	case "p", "h":
		if !s.inTextBody {
			return
		}
		styleName := localAttr(attrs, "style-name")
		outlineLevel, _ := strconv.Atoi(localAttr(attrs, "outline-level"))

		level := 0
		if local == "h" && outlineLevel > 0 {
			level = outlineLevel
			if level > 6 {
				level = 6
			}
		} else if s.headingStyles[styleName] {
			if l, ok := extractHeadingLevel(styleName); ok {
				level = l
			} else {
				level = 1
			}
		}
		if level > 0 {
			s.currentTag = fmt.Sprintf("h%d", level)
		} else {
			s.currentTag = "p"
		}
		s.inPara = true
		s.paraBuf.Reset()
	case "span":
		if !s.inPara {
			return
		}
		format := detectSpanFormat(localAttr(attrs, "style-name"))
		format.openTags(&s.paraBuf)
		s.spanStack = append(s.spanStack, format)
	case "line-break":
		if s.inPara {
			s.paraBuf.WriteString("<br/>")
		}
	case "tab":
		if s.inPara {
			s.paraBuf.WriteString("&#9;")
		}
	case "s":
		if s.inPara {
			count := 1
			if c, err := strconv.Atoi(localAttr(attrs, "c")); err == nil && c > 0 {
				count = c
			}
			s.paraBuf.WriteString(strings.Repeat(" ", count))
		}
	case "list":
		if !s.inTextBody {
			return
		}
		s.listDepth++
		if !s.inList {
			html.WriteString("<ul>\n")
			s.inList = true
		} else {
			s.paraBuf.WriteString("<ul>\n")
		}
	case "list-item":
		if s.inList && s.listDepth == 1 && !s.inPara {
			html.WriteString("<li>")
		}
	case "a":
		if s.inPara {
			if href := localAttr(attrs, "href"); href != "" {
				fmt.Fprintf(&s.paraBuf, `<a href="%s">`, escapeAttr(href))
			}
		}
	case "image":
		if s.inPara {
			if href := localAttr(attrs, "href"); href != "" {
				clean := strings.TrimPrefix(href, "Pictures/")
				fmt.Fprintf(&s.paraBuf, `<img src="images/%s" alt=""/>`, escapeAttr(clean))
			}
		}
	case "table":
		if s.inTextBody {
			html.WriteString("<table>\n")
		}
	case "table-row":
		html.WriteString("<tr>")
	case "table-cell":
		html.WriteString("<td>")
	}
}

func (s *contentState) handleEnd(local string, html *strings.Builder) {
	switch local {
	case "text":
		s.inTextBody = false
	case "p", "h":
		if !s.inPara {
			return
		}
		fmt.Fprintf(html, "<%s>%s</%s>\n", s.currentTag, s.paraBuf.String(), s.currentTag)
		s.inPara = false
		s.paraBuf.Reset()
	case "span":
		if !s.inPara || len(s.spanStack) == 0 {
			return
		}
		f := s.spanStack[len(s.spanStack)-1]
		s.spanStack = s.spanStack[:len(s.spanStack)-1]
		f.closeTags(&s.paraBuf)
	case "a":
		if s.inPara {
			s.paraBuf.WriteString("</a>")
		}
	case "list":
		s.listDepth--
		if s.listDepth == 0 {
			html.WriteString("</ul>\n")
			s.inList = false
		}
	case "list-item":
		if s.inList && s.listDepth == 1 {
			html.WriteString("</li>\n")
		}
	case "table":
		html.WriteString("</table>\n")
	case "table-row":
		html.WriteString("</tr>\n")
	case "table-cell":
		html.WriteString("</td>")
	}
}

func escapeText(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}

func escapeAttr(s string) string {
	s = escapeText(s)
	return strings.ReplaceAll(s, `"`, "&quot;")
}
