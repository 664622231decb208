// Package ziputil provides the zip container helpers the EPUB reader and
// writer share: an EPUB/ODT is an OCF zip container.
package ziputil

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"sort"
)

// Reader wraps a zip.Reader opened from a file path.
type Reader struct {
	*zip.Reader
	file *os.File
}

// NewReader opens path as a zip archive.
func NewReader(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat zip: %w", err)
	}
	zr, err := zip.NewReader(f, info.Size())
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("read zip: %w", err)
	}
	return &Reader{Reader: zr, file: f}, nil
}

// Close releases the underlying file handle.
func (r *Reader) Close() error {
	return r.file.Close()
}

// ReadFile returns the decompressed bytes of the named entry.
func (r *Reader) ReadFile(name string) ([]byte, error) {
	for _, f := range r.File {
		if f.Name == name {
			rc, err := f.Open()
			if err != nil {
				return nil, fmt.Errorf("open %s: %w", name, err)
			}
			defer rc.Close()
			return io.ReadAll(rc)
		}
	}
	return nil, fmt.Errorf("not found in archive: %s", name)
}

// FindFile returns the first entry whose name satisfies predicate.
func (r *Reader) FindFile(predicate func(name string) bool) (data []byte, name string, err error) {
	for _, f := range r.File {
		if predicate(f.Name) {
			rc, err := f.Open()
			if err != nil {
				return nil, "", fmt.Errorf("open %s: %w", f.Name, err)
			}
			defer rc.Close()
			data, err := io.ReadAll(rc)
			return data, f.Name, err
		}
	}
	return nil, "", fmt.Errorf("no matching entry found")
}

// Names returns every entry name in the archive, in central-directory order.
func (r *Reader) Names() []string {
	names := make([]string, 0, len(r.File))
	for _, f := range r.File {
		names = append(names, f.Name)
	}
	return names
}

// Entry is one file to be written to a zip archive.
type Entry struct {
	Name  string
	Data  []byte
	Store bool // Store writes uncompressed (used for the EPUB "mimetype" entry)
}

// Write creates a zip archive at dstPath from entries, in order. The OCF
// spec requires "mimetype" be the first entry and stored uncompressed with
// no extra field, so callers of WriteEPUB get that for free; this function
// just writes whatever order/method it's given.
func Write(dstPath string, entries []Entry) error {
	f, err := os.Create(dstPath)
	if err != nil {
		return fmt.Errorf("create zip: %w", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	for _, e := range entries {
		method := zip.Deflate
		if e.Store {
			method = zip.Store
		}
		w, err := zw.CreateHeader(&zip.FileHeader{Name: e.Name, Method: method})
		if err != nil {
			return fmt.Errorf("create entry %s: %w", e.Name, err)
		}
		if _, err := w.Write(e.Data); err != nil {
			return fmt.Errorf("write entry %s: %w", e.Name, err)
		}
	}
	return zw.Close()
}

// WriteEPUB writes entries as an OEBPS Container Format zip: the mimetype
// entry first, stored uncompressed, followed by the rest of entries
// (explicit "mimetype" entries in the slice are skipped to avoid duplicates).
func WriteEPUB(dstPath string, entries []Entry) error {
	ordered := make([]Entry, 0, len(entries)+1)
	ordered = append(ordered, Entry{Name: "mimetype", Data: []byte("application/epub+zip"), Store: true})
	for _, e := range entries {
		if e.Name == "mimetype" {
			continue
		}
		ordered = append(ordered, e)
	}
	return Write(dstPath, ordered)
}

// SortedNames returns names sorted for deterministic archive ordering (used
// when generating output so repeated conversions produce byte-stable zips).
func SortedNames(names []string) []string {
	out := append([]string(nil), names...)
	sort.Strings(out)
	return out
}
