// Package encoding decodes legacy and ambiguously-encoded byte strings
// pulled from binary document formats (a PDF Info dictionary, in
// particular) into Go's native UTF-8 strings.
package encoding

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
)

var (
	utf16BEBom = []byte{0xFE, 0xFF}
	utf8Bom    = []byte{0xEF, 0xBB, 0xBF}
)

// DecodePdfInfoString decodes one PDF Info dictionary string value,
// trying UTF-16BE (BOM 0xFE 0xFF), UTF-8 with a BOM, plain ASCII/UTF-8,
// and finally a byte-for-byte Latin-1 interpretation, in that order
// (§4.4's PDF metadata decoding rule). Latin-1 never fails, so this
// function always returns a usable string.
func DecodePdfInfoString(raw []byte) string {
	if bytes.HasPrefix(raw, utf16BEBom) {
		if s, err := decodeUTF16BE(raw[len(utf16BEBom):]); err == nil {
			return s
		}
	}
	if bytes.HasPrefix(raw, utf8Bom) {
		body := raw[len(utf8Bom):]
		if utf8.Valid(body) {
			return string(body)
		}
	}
	if utf8.Valid(raw) {
		return string(raw)
	}
	return decodeLatin1(raw)
}

func decodeUTF16BE(data []byte) (string, error) {
	decoder := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder()
	out, err := decoder.Bytes(data)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// decodeLatin1 maps each byte directly to the Unicode code point of the
// same value, the ISO-8859-1 interpretation §4.4 falls back to when
// neither UTF-16BE nor UTF-8 decoding succeeds.
func decodeLatin1(raw []byte) string {
	runes := make([]rune, len(raw))
	for i, b := range raw {
		runes[i] = rune(b)
	}
	return string(runes)
}
