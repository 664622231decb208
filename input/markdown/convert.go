package markdown

import (
	"regexp"
	"strings"
)

var (
	atxHeadingRe   = regexp.MustCompile(`^(#{1,6})\s+(.*?)\s*#*$`)
	orderedItemRe  = regexp.MustCompile(`^\s*\d+\.\s+(.*)$`)
	unorderedRe    = regexp.MustCompile(`^\s*[-*+]\s+(.*)$`)
	blockquoteRe   = regexp.MustCompile(`^\s*>\s?(.*)$`)
	hruleRe        = regexp.MustCompile(`^\s*(?:(?:-\s*){3,}|(?:\*\s*){3,}|(?:_\s*){3,})$`)
	fenceRe        = regexp.MustCompile("^```\\s*([a-zA-Z0-9_+-]*)\\s*$")
	boldRe         = regexp.MustCompile(`\*\*(.+?)\*\*|__(.+?)__`)
	italicRe       = regexp.MustCompile(`\*(.+?)\*|_(.+?)_`)
	inlineCodeRe   = regexp.MustCompile("`([^`]+)`")
	imageRe        = regexp.MustCompile(`!\[([^\]]*)\]\(([^)\s]+)(?:\s+"[^"]*")?\)`)
	linkRe         = regexp.MustCompile(`\[([^\]]*)\]\(([^)\s]+)(?:\s+"[^"]*")?\)`)
)

// markdownToXHTML renders a restricted but common subset of Markdown
// (ATX headings, paragraphs, fenced code blocks, block quotes, ordered
// and unordered lists, horizontal rules, and the bold/italic/code/
// link/image inline spans) into XHTML body markup. It works line by
// line rather than building an AST, in the same regex-driven style the
// project's other line-oriented text converters use.
func markdownToXHTML(source string) string {
	source = strings.ReplaceAll(source, "\r\n", "\n")
	lines := strings.Split(source, "\n")

	var buf strings.Builder
	var para []string
	var listStack []string // holds "ul" or "ol" tags currently open
	inFence := false
	fenceBuf := &strings.Builder{}
	inBlockquote := false
	var quoteBuf []string

	flushParagraph := func() {
		if len(para) == 0 {
			return
		}
		buf.WriteString("<p>")
		buf.WriteString(renderInline(strings.Join(para, " ")))
		buf.WriteString("</p>\n")
		para = nil
	}
	closeLists := func() {
		for len(listStack) > 0 {
			tag := listStack[len(listStack)-1]
			listStack = listStack[:len(listStack)-1]
			buf.WriteString("</" + tag + ">\n")
		}
	}
	flushBlockquote := func() {
		if !inBlockquote {
			return
		}
		buf.WriteString("<blockquote>\n")
		buf.WriteString(markdownToXHTML(strings.Join(quoteBuf, "\n")))
		buf.WriteString("</blockquote>\n")
		quoteBuf = nil
		inBlockquote = false
	}

	for _, line := range lines {
		if inFence {
			if fenceRe.MatchString(line) {
				buf.WriteString("<pre><code>")
				buf.WriteString(escapeText(fenceBuf.String()))
				buf.WriteString("</code></pre>\n")
				fenceBuf.Reset()
				inFence = false
				continue
			}
			fenceBuf.WriteString(line)
			fenceBuf.WriteString("\n")
			continue
		}
		if m := fenceRe.FindStringSubmatch(line); m != nil {
			flushParagraph()
			flushBlockquote()
			closeLists()
			inFence = true
			continue
		}

		if m := blockquoteRe.FindStringSubmatch(line); m != nil {
			flushParagraph()
			closeLists()
			inBlockquote = true
			quoteBuf = append(quoteBuf, m[1])
			continue
		}
		if inBlockquote && strings.TrimSpace(line) != "" {
			quoteBuf = append(quoteBuf, line)
			continue
		}
		flushBlockquote()

		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			flushParagraph()
			closeLists()
			continue
		}

		if hruleRe.MatchString(trimmed) && len(para) == 0 {
			closeLists()
			buf.WriteString("<hr/>\n")
			continue
		}

		if m := atxHeadingRe.FindStringSubmatch(trimmed); m != nil {
			flushParagraph()
			closeLists()
			level := len(m[1])
			buf.WriteString("<h")
			buf.WriteString(itoa(level))
			buf.WriteString(">")
			buf.WriteString(renderInline(m[2]))
			buf.WriteString("</h")
			buf.WriteString(itoa(level))
			buf.WriteString(">\n")
			continue
		}

		if m := unorderedRe.FindStringSubmatch(line); m != nil {
			flushParagraph()
			if len(listStack) == 0 || listStack[len(listStack)-1] != "ul" {
				closeLists()
				buf.WriteString("<ul>\n")
				listStack = append(listStack, "ul")
			}
			buf.WriteString("<li>")
			buf.WriteString(renderInline(m[1]))
			buf.WriteString("</li>\n")
			continue
		}
		if m := orderedItemRe.FindStringSubmatch(line); m != nil {
			flushParagraph()
			if len(listStack) == 0 || listStack[len(listStack)-1] != "ol" {
				closeLists()
				buf.WriteString("<ol>\n")
				listStack = append(listStack, "ol")
			}
			buf.WriteString("<li>")
			buf.WriteString(renderInline(m[1]))
			buf.WriteString("</li>\n")
			continue
		}

		closeLists()
		para = append(para, trimmed)
	}
	flushParagraph()
	flushBlockquote()
	closeLists()
	if inFence {
		buf.WriteString("<pre><code>")
		buf.WriteString(escapeText(fenceBuf.String()))
		buf.WriteString("</code></pre>\n")
	}
	return buf.String()
}

// renderInline applies inline spans (images before links since image
// syntax is a superset of link syntax, then code, then bold before
// italic so "**x**" is not first consumed as two "*x*" matches) to
// already-paragraph-joined text.
func renderInline(text string) string {
	text = escapeText(text)
	text = imageRe.ReplaceAllString(text, `<img src="$2" alt="$1"/>`)
	text = linkRe.ReplaceAllString(text, `<a href="$2">$1</a>`)
	text = inlineCodeRe.ReplaceAllString(text, `<code>$1</code>`)
	text = boldRe.ReplaceAllStringFunc(text, func(m string) string {
		sub := boldRe.FindStringSubmatch(m)
		inner := sub[1]
		if inner == "" {
			inner = sub[2]
		}
		return "<strong>" + inner + "</strong>"
	})
	text = italicRe.ReplaceAllStringFunc(text, func(m string) string {
		sub := italicRe.FindStringSubmatch(m)
		inner := sub[1]
		if inner == "" {
			inner = sub[2]
		}
		return "<em>" + inner + "</em>"
	})
	return text
}

func escapeText(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}

func itoa(n int) string {
	digits := "0123456789"
	if n == 0 {
		return "0"
	}
	var b []byte
	for n > 0 {
		b = append([]byte{digits[n%10]}, b...)
		n /= 10
	}
	return string(b)
}
