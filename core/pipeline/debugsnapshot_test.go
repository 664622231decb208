package pipeline

import (
	"archive/tar"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/ulikunitz/xz"

	"github.com/FocuswithJustin/ebookconvert/core/book"
)

func readSnapshotEntries(t *testing.T, path string) map[string]string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	xr, err := xz.NewReader(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	tr := tar.NewReader(xr)
	entries := map[string]string{}
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		content, err := io.ReadAll(tr)
		if err != nil {
			t.Fatal(err)
		}
		entries[hdr.Name] = string(content)
	}
	return entries
}

func TestWriteManifestArchiveIncludesRealizedItems(t *testing.T) {
	doc := book.New()
	_ = doc.Manifest.Add(book.ManifestItem{ID: "a", Href: "a.xhtml", MediaType: "application/xhtml+xml", Data: book.XHTML("<p>a</p>")})
	_ = doc.Manifest.Add(book.ManifestItem{ID: "b", Href: "style.css", MediaType: "text/css", Data: book.CSS("p{color:red}")})
	_ = doc.Manifest.Add(book.ManifestItem{ID: "c", Href: "cover.jpg", MediaType: "image/jpeg", Data: book.Binary([]byte{0xff, 0xd8})})
	_ = doc.Manifest.Add(book.ManifestItem{ID: "d", Href: "placeholder.xhtml", Data: book.Empty()})

	path := filepath.Join(t.TempDir(), "001-input.tar.xz")
	if err := writeManifestArchive(path, doc); err != nil {
		t.Fatal(err)
	}

	entries := readSnapshotEntries(t, path)
	if entries["a.xhtml"] != "<p>a</p>" {
		t.Errorf("a.xhtml = %q", entries["a.xhtml"])
	}
	if entries["style.css"] != "p{color:red}" {
		t.Errorf("style.css = %q", entries["style.css"])
	}
	if entries["cover.jpg"] != "\xff\xd8" {
		t.Errorf("cover.jpg = %q", entries["cover.jpg"])
	}
	if _, ok := entries["placeholder.xhtml"]; ok {
		t.Errorf("expected the empty placeholder item to be skipped")
	}
}

func TestSnapshotWriterNoopsWithoutADirectory(t *testing.T) {
	w := newDebugSnapshotWriter("")
	w.snapshot("input", book.New())
	if w.seq != 0 {
		t.Errorf("expected no-op writer to never advance its sequence counter")
	}
}

func TestSanitizeSnapshotLabelStripsPathSeparators(t *testing.T) {
	got := sanitizeSnapshotLabel("transform: detect/structure")
	if got != "transform--detect-structure" {
		t.Errorf("sanitizeSnapshotLabel = %q", got)
	}
}
