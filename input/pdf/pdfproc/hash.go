package pdfproc

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// ContentHash returns a hex BLAKE3 digest of data, used to dedup
// rendered scanned-page images: two pages that rasterize to
// identical bytes (a common occurrence for blank or near-blank scanned
// pages) share one manifest entry instead of being stored twice. Mirrors
// the teacher's content-addressed blob store (core/cas.Blake3Hash).
func ContentHash(data []byte) string {
	h := blake3.Sum256(data)
	return hex.EncodeToString(h[:])
}
