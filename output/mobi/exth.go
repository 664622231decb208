package mobi

import (
	"bytes"

	"github.com/FocuswithJustin/ebookconvert/core/book"
)

// EXTH record type constants, in the fixed order spec.md §4.6 item 4
// lists them. Type 108 is "source string" there; real-world MOBI/Calibre
// treats it as a free-form contributor/generator tag, which is the usage
// below (it always carries this tool's own name).
const (
	exthLanguage     = 524
	exthUpdatedTitle = 503
	exthAuthor       = 100
	exthSourceString = 108
	exthPublisher    = 101
	exthISBN         = 104
	exthDescription  = 103
	exthSubject      = 105
	exthDate         = 106
)

type exthRecord struct {
	recType uint32
	data    []byte
}

// buildEXTH assembles the EXTH metadata block: a 12-byte header followed
// by one (type, length, data) record per populated metadata field, padded
// to a 4-byte boundary.
func buildEXTH(doc *book.BookDocument) []byte {
	var records []exthRecord

	lang := doc.Metadata.Language()
	if lang == "" {
		lang = "en"
	}
	records = append(records, exthRecord{exthLanguage, []byte(lang)})

	if title := doc.Metadata.Title(); title != "" {
		records = append(records, exthRecord{exthUpdatedTitle, []byte(title)})
	}

	for _, author := range doc.Metadata.Authors() {
		records = append(records, exthRecord{exthAuthor, []byte(author)})
	}

	records = append(records, exthRecord{exthSourceString, []byte("ebookconvert")})

	if publisher, ok := doc.Metadata.GetFirst("publisher"); ok {
		records = append(records, exthRecord{exthPublisher, []byte(publisher)})
	}
	if isbn, ok := doc.Metadata.GetFirst("identifier"); ok {
		records = append(records, exthRecord{exthISBN, []byte(isbn)})
	}
	if desc, ok := doc.Metadata.GetFirst("description"); ok {
		records = append(records, exthRecord{exthDescription, []byte(desc)})
	}
	if subject, ok := doc.Metadata.GetFirst("subject"); ok {
		records = append(records, exthRecord{exthSubject, []byte(subject)})
	}
	if date, ok := doc.Metadata.GetFirst("date"); ok {
		records = append(records, exthRecord{exthDate, []byte(date)})
	}

	var recordBytes bytes.Buffer
	for _, r := range records {
		writeBE32(&recordBytes, r.recType)
		writeBE32(&recordBytes, uint32(8+len(r.data)))
		recordBytes.Write(r.data)
	}

	var exth bytes.Buffer
	exth.WriteString("EXTH")
	writeBE32(&exth, uint32(12+recordBytes.Len()))
	writeBE32(&exth, uint32(len(records)))
	exth.Write(recordBytes.Bytes())

	for exth.Len()%4 != 0 {
		exth.WriteByte(0)
	}
	return exth.Bytes()
}
