package pdfproc

import (
	"strconv"
	"strings"

	"github.com/FocuswithJustin/ebookconvert/internal/encoding"
)

// InfoDict is the subset of a PDF's Info dictionary this pipeline cares
// about, decoded to UTF-8 per §4.4's best-effort field-by-field rule.
type InfoDict struct {
	Title    string
	Author   string
	Subject  string
	Keywords string
	Pages    int
}

// ParsePdfinfoOutput parses `pdfinfo`'s "Key:    Value" line format. Each
// value is re-decoded through DecodePdfInfoString rather than trusted as
// UTF-8 outright, since poppler passes Info dictionary strings through
// largely as-is and a document authored under a non-UTF-8 tool can leave
// raw UTF-16BE or Latin-1 bytes in the field.
func ParsePdfinfoOutput(raw []byte) InfoDict {
	var info InfoDict
	for _, line := range strings.Split(string(raw), "\n") {
		key, value, ok := splitPdfinfoLine(line)
		if !ok {
			continue
		}
		decoded := encoding.DecodePdfInfoString([]byte(value))
		switch key {
		case "Title":
			info.Title = decoded
		case "Author":
			info.Author = decoded
		case "Subject":
			info.Subject = decoded
		case "Keywords":
			info.Keywords = decoded
		case "Pages":
			if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
				info.Pages = n
			}
		}
	}
	return info
}

func splitPdfinfoLine(line string) (key, value string, ok bool) {
	idx := strings.Index(line, ":")
	if idx < 0 {
		return "", "", false
	}
	key = strings.TrimSpace(line[:idx])
	value = strings.TrimSpace(line[idx+1:])
	if key == "" {
		return "", "", false
	}
	return key, value, true
}
