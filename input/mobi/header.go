package mobi

import (
	"encoding/binary"
	"fmt"
)

// pdbHeaderSize is the fixed 78-byte PDB (Palm Database) header, matching
// output/mobi's writer-side layout exactly.
const pdbHeaderSize = 78

// pdbFile is a parsed Palm Database container: a name and an ordered list
// of record payloads.
type pdbFile struct {
	name    string
	records [][]byte
}

func be16(b []byte, off int) uint16 { return binary.BigEndian.Uint16(b[off : off+2]) }
func be32(b []byte, off int) uint32 { return binary.BigEndian.Uint32(b[off : off+4]) }

// parsePDB reads the 78-byte header, the record offset list, and slices
// out every record's payload bytes.
func parsePDB(data []byte) (*pdbFile, error) {
	if len(data) < pdbHeaderSize+2 {
		return nil, fmt.Errorf("file too short for a PDB header")
	}

	nameEnd := 0
	for nameEnd < 32 && data[nameEnd] != 0 {
		nameEnd++
	}
	name := string(data[:nameEnd])

	numRecords := int(be16(data, 76))
	if numRecords == 0 {
		return nil, fmt.Errorf("PDB declares zero records")
	}

	indexStart := pdbHeaderSize
	indexEnd := indexStart + numRecords*8
	if len(data) < indexEnd {
		return nil, fmt.Errorf("file too short for record index")
	}

	offsets := make([]int, numRecords)
	for i := 0; i < numRecords; i++ {
		entryOff := indexStart + i*8
		offsets[i] = int(be32(data, entryOff))
	}

	records := make([][]byte, numRecords)
	for i := 0; i < numRecords; i++ {
		start := offsets[i]
		end := len(data)
		if i+1 < numRecords {
			end = offsets[i+1]
		}
		if start < 0 || start > len(data) || end > len(data) || start > end {
			return nil, fmt.Errorf("record %d has invalid bounds", i)
		}
		records[i] = data[start:end]
	}

	return &pdbFile{name: name, records: records}, nil
}

// mobiHeader is the subset of the MOBI6 header (record 0) this reader
// needs, mirroring the fields output/mobi's writer populates.
type mobiHeader struct {
	compression      uint16
	textLength        uint32
	textRecordCount   uint16
	recordSize        uint16
	locale            uint32
	firstImageRecord  uint32
	lastContentRecord uint16
	exth              exthData
}

// parseMobiHeader reads the 16-byte PalmDOC header and the 232-byte MOBI
// header from record 0, then the EXTH block if present, at the exact
// offsets output/mobi's writer uses.
func parseMobiHeader(record0 []byte) (*mobiHeader, error) {
	if len(record0) < 16+mobiHeaderLen {
		return nil, fmt.Errorf("record 0 too short for MOBI header")
	}

	hdr := &mobiHeader{
		compression:     be16(record0, 0),
		textLength:      be32(record0, 4),
		textRecordCount: be16(record0, 8),
		recordSize:      be16(record0, 10),
	}

	mobiOff := 16
	if string(record0[mobiOff:mobiOff+4]) != "MOBI" {
		return nil, fmt.Errorf("missing MOBI magic in record 0")
	}
	// Field offsets below are absolute positions within record0, matching
	// output/mobi's writer byte-for-byte (MOBI magic at 16, header length
	// at 20, full name offset/length at 84/88, locale at 92, first image
	// record at 108, EXTH flags at 128, last content record at 194).
	mobiHeaderLenField := int(be32(record0, 20))

	hdr.firstImageRecord = be32(record0, 108)
	hdr.locale = be32(record0, 92)
	hdr.lastContentRecord = be16(record0, 194)

	exthFlags := be32(record0, 128)
	exthOff := mobiOff + mobiHeaderLenField
	if exthFlags&0x40 != 0 && exthOff+12 <= len(record0) && string(record0[exthOff:exthOff+4]) == "EXTH" {
		hdr.exth = parseEXTH(record0[exthOff:])
	}

	return hdr, nil
}

// mobiHeaderLen is the fixed size, in bytes, of the MOBI header that
// follows the 16-byte PalmDOC header inside record 0 — kept identical to
// output/mobi's constant of the same name since both sides describe the
// same wire layout.
const mobiHeaderLen = 232
