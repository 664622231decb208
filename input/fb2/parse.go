package fb2

import (
	"bytes"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/FocuswithJustin/ebookconvert/core/book"
)

// parseFB2 streams the document with a single encoding/xml token pass,
// tracking the current element-name path so metadata elements that share
// a local name across description/title-info/publish-info/document-info
// (date, id, language) can be told apart. It returns the rendered body
// HTML and the section titles in document order for the table of
// contents.
func parseFB2(data []byte, doc *book.BookDocument) (string, []string, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	st := &fb2State{doc: doc}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			st.path = append(st.path, t.Name.Local)
			if err := st.handleStart(t.Name.Local, t.Attr); err != nil {
				return "", nil, err
			}
		case xml.EndElement:
			st.handleEnd(t.Name.Local)
			if len(st.path) > 0 {
				st.path = st.path[:len(st.path)-1]
			}
		case xml.CharData:
			st.handleText(string(t))
		}
	}
	return st.html.String(), st.sectionTitles, nil
}

type fb2State struct {
	doc  *book.BookDocument
	path []string

	html strings.Builder

	textBuf  strings.Builder
	titleBuf strings.Builder

	inSection    bool
	sectionDepth int
	inTitle      bool
	inPara       bool
	inBinary     bool
	inLink       bool

	binaryID   string
	binaryMime string

	authorParts   []string
	sectionTitles []string
}

func isInPath(path []string, target string) bool {
	parts := strings.Split(target, "/")
	if len(parts) > len(path) {
		return false
	}
	for start := 0; start+len(parts) <= len(path); start++ {
		match := true
		for i, p := range parts {
			if path[start+i] != p {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func fb2Attr(attrs []xml.Attr, names ...string) string {
	for _, a := range attrs {
		for _, name := range names {
			if a.Name.Local == name {
				return a.Value
			}
		}
	}
	return ""
}

func (s *fb2State) handleStart(name string, attrs []xml.Attr) error {
	switch name {
	case "section":
		s.sectionDepth++
		s.inSection = true
	case "binary":
		s.binaryID = fb2Attr(attrs, "id")
		s.binaryMime = fb2Attr(attrs, "content-type")
		s.inBinary = true
		s.textBuf.Reset()
	case "image":
		if href := fb2Attr(attrs, "href"); href != "" {
			id := strings.TrimPrefix(href, "#")
			fmt.Fprintf(&s.html, `<img src="images/%s" alt=""/>`, id)
		}
	case "a":
		if href := fb2Attr(attrs, "href"); href != "" {
			fmt.Fprintf(&s.html, `<a href="%s">`, escapeAttr(href))
			s.inLink = true
		}
	case "title":
		if s.inSection {
			s.inTitle = true
			s.titleBuf.Reset()
		}
	case "p":
		switch {
		case s.inBinary, s.inTitle:
			// handled on end: binary ignores body text, title paragraphs
			// accumulate into titleBuf via handleText.
		default:
			s.html.WriteString("<p>")
			s.inPara = true
		}
	case "empty-line":
		s.html.WriteString("<br/>")
	case "strong":
		s.html.WriteString("<strong>")
	case "emphasis":
		s.html.WriteString("<em>")
	case "strikethrough":
		s.html.WriteString("<del>")
	case "code":
		s.html.WriteString("<code>")
	case "sub":
		s.html.WriteString("<sub>")
	case "sup":
		s.html.WriteString("<sup>")
	case "subtitle":
		s.html.WriteString("<h3>")
		s.inPara = true
	case "poem":
		s.html.WriteString(`<div class="poem">`)
	case "stanza":
		s.html.WriteString(`<div class="stanza">`)
	case "v":
		s.html.WriteString(`<p class="verse">`)
		s.inPara = true
	case "cite":
		s.html.WriteString("<blockquote>")
	case "epigraph":
		s.html.WriteString(`<div class="epigraph">`)
	case "text-author":
		s.html.WriteString(`<p class="text-author">`)
		s.inPara = true
	}
	return nil
}

func (s *fb2State) handleEnd(name string) {
	switch name {
	case "section":
		s.sectionDepth--
		if s.sectionDepth == 0 {
			s.inSection = false
		}
	case "binary":
		if s.binaryID != "" && s.binaryMime != "" {
			b64 := strings.NewReplacer("\n", "", "\r", "", " ", "").Replace(s.textBuf.String())
			if raw, err := base64.StdEncoding.DecodeString(b64); err == nil {
				href := "images/" + s.binaryID
				_ = s.doc.Manifest.Add(book.ManifestItem{
					ID: s.binaryID, Href: href, MediaType: s.binaryMime,
					Data: book.Binary(raw),
				})
			}
		}
		s.binaryID, s.binaryMime = "", ""
		s.inBinary = false
		s.textBuf.Reset()
	case "title":
		if s.inTitle {
			s.inTitle = false
			text := strings.TrimSpace(s.titleBuf.String())
			if text != "" {
				level := s.sectionDepth
				if level < 1 {
					level = 1
				}
				if level > 6 {
					level = 6
				}
				fmt.Fprintf(&s.html, "<h%d>%s</h%d>", level, escapeText(text), level)
				s.sectionTitles = append(s.sectionTitles, text)
			}
		}
	case "p":
		if s.inTitle {
			if s.titleBuf.Len() > 0 {
				s.titleBuf.WriteByte(' ')
			}
			return
		}
		if s.inPara {
			s.html.WriteString("</p>\n")
			s.inPara = false
		}
	case "a":
		if s.inLink {
			s.html.WriteString("</a>")
			s.inLink = false
		}
	case "strong":
		s.html.WriteString("</strong>")
	case "emphasis":
		s.html.WriteString("</em>")
	case "strikethrough":
		s.html.WriteString("</del>")
	case "code":
		s.html.WriteString("</code>")
	case "sub":
		s.html.WriteString("</sub>")
	case "sup":
		s.html.WriteString("</sup>")
	case "subtitle":
		s.html.WriteString("</h3>\n")
		s.inPara = false
	case "poem":
		s.html.WriteString("</div>\n")
	case "stanza":
		s.html.WriteString("</div>\n")
	case "v":
		s.html.WriteString("</p>\n")
		s.inPara = false
	case "cite":
		s.html.WriteString("</blockquote>\n")
	case "epigraph":
		s.html.WriteString("</div>\n")
	case "text-author":
		s.html.WriteString("</p>\n")
		s.inPara = false

	case "book-title":
		if isInPath(s.path, "title-info") {
			s.doc.Metadata.SetTitle(strings.TrimSpace(s.textBuf.String()))
		}
		s.textBuf.Reset()
	case "first-name", "middle-name", "last-name", "nickname":
		if isInPath(s.path, "title-info/author") {
			part := strings.TrimSpace(s.textBuf.String())
			if part != "" {
				s.authorParts = append(s.authorParts, part)
			}
		}
		s.textBuf.Reset()
	case "author":
		if isInPath(s.path, "title-info") && len(s.authorParts) > 0 {
			s.doc.Metadata.Add("creator", strings.Join(s.authorParts, " "))
			s.authorParts = nil
		}
	case "genre":
		if isInPath(s.path, "title-info") {
			s.doc.Metadata.Add("subject", strings.TrimSpace(s.textBuf.String()))
		}
		s.textBuf.Reset()
	case "lang", "language":
		if isInPath(s.path, "title-info") {
			s.doc.Metadata.Set("language", strings.TrimSpace(s.textBuf.String()))
		}
		s.textBuf.Reset()
	case "date":
		if isInPath(s.path, "title-info") {
			s.doc.Metadata.Set("date", strings.TrimSpace(s.textBuf.String()))
		}
		s.textBuf.Reset()
	case "publisher":
		if isInPath(s.path, "publish-info") {
			s.doc.Metadata.Set("publisher", strings.TrimSpace(s.textBuf.String()))
		}
		s.textBuf.Reset()
	case "isbn":
		if isInPath(s.path, "publish-info") {
			s.doc.Metadata.Set("identifier", strings.TrimSpace(s.textBuf.String()))
		}
		s.textBuf.Reset()
	case "id":
		if isInPath(s.path, "document-info") && !s.doc.Metadata.Contains("identifier") {
			s.doc.Metadata.Set("identifier", strings.TrimSpace(s.textBuf.String()))
		}
		s.textBuf.Reset()
	}
}

func (s *fb2State) handleText(text string) {
	switch {
	case s.inBinary:
		s.textBuf.WriteString(text)
	case s.inTitle:
		s.titleBuf.WriteString(text)
	case s.inPara || s.inLink:
		s.html.WriteString(escapeText(text))
	case isInPath(s.path, "description"):
		s.textBuf.WriteString(text)
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
