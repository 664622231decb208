package book

import "strings"

// EbookFormat is the closed set of formats the pipeline can read or write.
type EbookFormat string

const (
	FormatEPUB     EbookFormat = "epub"
	FormatMOBI     EbookFormat = "mobi"
	FormatAZW      EbookFormat = "azw"
	FormatAZW3     EbookFormat = "azw3"
	FormatPDF      EbookFormat = "pdf"
	FormatDOCX     EbookFormat = "docx"
	FormatODT      EbookFormat = "odt"
	FormatRTF      EbookFormat = "rtf"
	FormatFB2      EbookFormat = "fb2"
	FormatHTML     EbookFormat = "html"
	FormatTXT      EbookFormat = "txt"
	FormatMarkdown EbookFormat = "markdown"
)

type formatInfo struct {
	extension string
	mimeType  string
	aliases   []string
}

var formatTable = map[EbookFormat]formatInfo{
	FormatEPUB:     {extension: "epub", mimeType: "application/epub+zip"},
	FormatMOBI:     {extension: "mobi", mimeType: "application/x-mobipocket-ebook", aliases: []string{"prc"}},
	FormatAZW:      {extension: "azw", mimeType: "application/vnd.amazon.ebook"},
	FormatAZW3:     {extension: "azw3", mimeType: "application/vnd.amazon.ebook", aliases: []string{"kf8", "kfx"}},
	FormatPDF:      {extension: "pdf", mimeType: "application/pdf"},
	FormatDOCX:     {extension: "docx", mimeType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
	FormatODT:      {extension: "odt", mimeType: "application/vnd.oasis.opendocument.text"},
	FormatRTF:      {extension: "rtf", mimeType: "application/rtf"},
	FormatFB2:      {extension: "fb2", mimeType: "application/x-fictionbook+xml"},
	FormatHTML:     {extension: "html", mimeType: "text/html", aliases: []string{"htm", "xhtml"}},
	FormatTXT:      {extension: "txt", mimeType: "text/plain"},
	FormatMarkdown: {extension: "md", mimeType: "text/markdown", aliases: []string{"markdown"}},
}

// extensionIndex maps every recognized extension (canonical or alias) to its format.
var extensionIndex = buildExtensionIndex()

func buildExtensionIndex() map[string]EbookFormat {
	idx := make(map[string]EbookFormat)
	for f, info := range formatTable {
		idx[info.extension] = f
		for _, alias := range info.aliases {
			idx[alias] = f
		}
	}
	return idx
}

// Extension returns the canonical file extension for the format (no leading dot).
func (f EbookFormat) Extension() string {
	return formatTable[f].extension
}

// MimeType returns the registered MIME type for the format.
func (f EbookFormat) MimeType() string {
	return formatTable[f].mimeType
}

// IsValid reports whether f is one of the closed set of known formats.
func (f EbookFormat) IsValid() bool {
	_, ok := formatTable[f]
	return ok
}

// FromExtension resolves a file extension (with or without leading dot,
// case-insensitive) to an EbookFormat. The second return is false when the
// extension is unrecognized.
func FromExtension(ext string) (EbookFormat, bool) {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	f, ok := extensionIndex[ext]
	return f, ok
}
