package mobi

import "bytes"

// PalmDOC compression method codes, as stored in the 16-byte PalmDOC
// header's first field.
const (
	compressionNone    = 1
	compressionPalmDOC = 2
	compressionHuffCDIC = 17480
)

// decompressRecords concatenates every text record's decompressed bytes.
// HUFF/CDIC-compressed books (compressionHuffCDIC) are rare in MOBI6 and
// require a book-specific Huffman dictionary this reader does not build;
// such records are passed through raw, which degrades gracefully to
// garbled text rather than failing the whole extraction.
func decompressRecords(records [][]byte, compression uint16) []byte {
	var out bytes.Buffer
	for _, rec := range records {
		switch compression {
		case compressionPalmDOC:
			out.Write(decompressPalmDOC(rec))
		default:
			out.Write(rec)
		}
	}
	return out.Bytes()
}

// decompressPalmDOC implements the PalmDOC LZ77 variant MOBI6 text
// records use: a byte-tagged stream of literal runs, back-references, and
// space+char pairs.
func decompressPalmDOC(data []byte) []byte {
	var out bytes.Buffer
	pos := 0
	for pos < len(data) {
		c := data[pos]
		pos++

		switch {
		case c == 0x00:
			out.WriteByte(c)
		case c >= 0x01 && c <= 0x08:
			n := int(c)
			if pos+n > len(data) {
				n = len(data) - pos
			}
			out.Write(data[pos : pos+n])
			pos += n
		case c <= 0x7f:
			out.WriteByte(c)
		case c <= 0xbf:
			if pos >= len(data) {
				break
			}
			c2 := data[pos]
			pos++
			combined := (uint16(c&0x3f) << 8) | uint16(c2)
			distance := int(combined >> 3)
			length := int(combined&0x7) + 3

			start := out.Len() - distance
			if start < 0 {
				break
			}
			buf := out.Bytes()
			for i := 0; i < length; i++ {
				out.WriteByte(buf[start+i])
				buf = out.Bytes()
			}
		default:
			out.WriteByte(' ')
			out.WriteByte(c ^ 0x80)
		}
	}
	return out.Bytes()
}
