package mobi

import (
	"bytes"

	"github.com/FocuswithJustin/ebookconvert/core/book"
)

// pdbHeaderSize is the fixed 78-byte PDB (Palm Database) header.
const pdbHeaderSize = 78

// mobiHeaderLen is the fixed size, in bytes, of the MOBI header that
// follows the 16-byte PalmDOC header inside record 0.
const mobiHeaderLen = 232

func writeBE16(buf *bytes.Buffer, v uint16) { buf.WriteByte(byte(v >> 8)); buf.WriteByte(byte(v)) }

func writeBE32(buf *bytes.Buffer, v uint32) {
	buf.WriteByte(byte(v >> 24))
	buf.WriteByte(byte(v >> 16))
	buf.WriteByte(byte(v >> 8))
	buf.WriteByte(byte(v))
}

// writePDBHeader writes the 78-byte PDB header: a 32-byte name field, then
// a run of mostly-zero bookkeeping fields, then the "BOOK"/"MOBI"
// type/creator tags PalmOS readers use to pick a handler, then the record
// count.
func writePDBHeader(buf *bytes.Buffer, title string, totalRecords int) {
	name := make([]byte, 32)
	copy(name, title)
	if len(title) > 31 {
		name = name[:32]
		copy(name, title[:31])
	}
	buf.Write(name)

	writeBE16(buf, 0) // attributes
	writeBE16(buf, 0) // version
	writeBE32(buf, 0) // creation date
	writeBE32(buf, 0) // modification date
	writeBE32(buf, 0) // last backup date
	writeBE32(buf, 0) // modification number
	writeBE32(buf, 0) // app info offset
	writeBE32(buf, 0) // sort info offset
	buf.WriteString("BOOK")
	buf.WriteString("MOBI")
	writeBE32(buf, 0) // unique ID seed
	writeBE32(buf, 0) // next record list
	writeBE16(buf, uint16(totalRecords))
}

// buildMobiHeaderRecord builds record 0: the 16-byte PalmDOC header
// immediately followed by the 232-byte MOBI header, the EXTH block (if
// there is any metadata to carry), and the book's full title, padded to a
// 4-byte boundary.
func buildMobiHeaderRecord(textLength uint32, textRecordCount uint16, title string, doc *book.BookDocument, imageRecords [][]byte) []byte {
	var rec bytes.Buffer

	// -- PalmDOC header (16 bytes) --
	writeBE16(&rec, 1) // compression: 1 = none
	writeBE16(&rec, 0) // unused
	writeBE32(&rec, textLength)
	writeBE16(&rec, textRecordCount)
	writeBE16(&rec, textRecordSize)
	writeBE16(&rec, 0) // encryption: none
	writeBE16(&rec, 0) // unused

	titleBytes := []byte(title)
	exthData := buildEXTH(doc)
	hasEXTH := len(doc.Metadata.Authors()) > 0 || doc.Metadata.Title() != ""

	fullNameOffset := uint32(16+mobiHeaderLen) + uint32(0)
	if hasEXTH {
		fullNameOffset += uint32(len(exthData))
	}

	firstImageRecord := uint32(0xFFFFFFFF)
	if len(imageRecords) > 0 {
		firstImageRecord = uint32(textRecordCount) + 1
	}

	flisRecord := uint32(textRecordCount) + uint32(len(imageRecords)) + 1
	fcisRecord := flisRecord + 1

	rec.WriteString("MOBI")
	writeBE32(&rec, mobiHeaderLen)
	writeBE32(&rec, 2)     // MOBI type: 2 = book
	writeBE32(&rec, 65001) // text encoding: UTF-8
	writeBE32(&rec, 0)     // unique ID
	writeBE32(&rec, 6)     // file version: MOBI6

	for i := 0; i < 8; i++ {
		writeBE32(&rec, 0xFFFFFFFF) // orthographic/inflection/index name/key/extra index 0-3
	}
	writeBE32(&rec, 0xFFFFFFFF) // extra index 4
	writeBE32(&rec, 0xFFFFFFFF) // extra index 5

	writeBE32(&rec, uint32(textRecordCount)+1) // first non-book index
	writeBE32(&rec, fullNameOffset)
	writeBE32(&rec, uint32(len(titleBytes)))

	writeBE32(&rec, 9) // locale: English
	writeBE32(&rec, 0) // input language
	writeBE32(&rec, 0) // output language
	writeBE32(&rec, 6) // min version: MOBI6
	writeBE32(&rec, firstImageRecord)
	writeBE32(&rec, 0) // HUFF record offset
	writeBE32(&rec, 0) // HUFF record count
	writeBE32(&rec, 0) // DATP record offset
	writeBE32(&rec, 0) // DATP record count

	exthFlags := uint32(0)
	if hasEXTH {
		exthFlags = 0x50 // matches Calibre's "has EXTH header" output
	}
	writeBE32(&rec, exthFlags)

	rec.Write(make([]byte, 32)) // unused

	writeBE32(&rec, 0xFFFFFFFF) // DRM offset: none
	writeBE32(&rec, 0)          // DRM count
	writeBE32(&rec, 0)          // DRM size
	writeBE32(&rec, 0)          // DRM flags

	rec.Write(make([]byte, 12)) // unused

	writeBE16(&rec, 0xFFFF)              // first content record: use default
	writeBE16(&rec, textRecordCount+1)   // last content record
	writeBE32(&rec, 1)                   // unknown

	writeBE32(&rec, flisRecord)
	writeBE32(&rec, fcisRecord)
	writeBE32(&rec, 1) // FLIS count
	writeBE32(&rec, 1) // FCIS count

	writeBE32(&rec, 0xFFFFFFFF) // unknown
	writeBE32(&rec, 0)          // unknown
	writeBE32(&rec, 0xFFFFFFFF) // unknown
	writeBE32(&rec, 0)          // unknown

	writeBE32(&rec, 0)          // extra record data flags
	writeBE32(&rec, 0xFFFFFFFF) // INDX record offset: none

	if mobiWritten := rec.Len() - 16; mobiWritten < mobiHeaderLen {
		rec.Write(make([]byte, mobiHeaderLen-mobiWritten))
	}

	if hasEXTH {
		rec.Write(exthData)
	}

	rec.Write(titleBytes)
	for rec.Len()%4 != 0 {
		rec.WriteByte(0)
	}

	return rec.Bytes()
}

// buildFLISRecord builds the Fixed Layout Information Structure record;
// its fields beyond the "FLIS" magic and fixed length are opaque to MOBI6
// readers and carried verbatim from the values every known-good encoder
// emits.
func buildFLISRecord() []byte {
	var flis bytes.Buffer
	flis.WriteString("FLIS")
	writeBE32(&flis, 8)
	writeBE16(&flis, 65)
	writeBE16(&flis, 0)
	writeBE32(&flis, 0)
	writeBE32(&flis, 0xFFFFFFFF)
	writeBE16(&flis, 1)
	writeBE16(&flis, 3)
	writeBE32(&flis, 3)
	writeBE32(&flis, 1)
	writeBE32(&flis, 0xFFFFFFFF)
	return flis.Bytes()
}

// buildFCISRecord builds the Fixed Content Information Structure record,
// which carries the text length a second time for readers that validate
// content size against it.
func buildFCISRecord(textLength uint32) []byte {
	var fcis bytes.Buffer
	fcis.WriteString("FCIS")
	writeBE32(&fcis, 20)
	writeBE32(&fcis, 16)
	writeBE32(&fcis, 1)
	writeBE32(&fcis, 0)
	writeBE32(&fcis, textLength)
	writeBE32(&fcis, 0)
	writeBE32(&fcis, 32)
	writeBE32(&fcis, 8)
	writeBE16(&fcis, 1)
	writeBE16(&fcis, 1)
	writeBE32(&fcis, 0)
	return fcis.Bytes()
}
