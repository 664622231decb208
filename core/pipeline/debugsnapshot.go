package pipeline

import (
	"archive/tar"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ulikunitz/xz"

	"github.com/FocuswithJustin/ebookconvert/core/book"
	"github.com/FocuswithJustin/ebookconvert/internal/logging"
)

// debugSnapshotWriter dumps the BookDocument's manifest to a tar.xz
// archive after every pipeline phase, when opts.DebugPipeline names a
// directory. Each archive is numbered so the sequence of snapshots
// shows how the manifest evolved stage by stage.
type debugSnapshotWriter struct {
	dir string
	seq int
}

func newDebugSnapshotWriter(dir string) *debugSnapshotWriter {
	return &debugSnapshotWriter{dir: dir}
}

func (w *debugSnapshotWriter) snapshot(label string, doc *book.BookDocument) {
	if w == nil || w.dir == "" {
		return
	}
	w.seq++
	name := fmt.Sprintf("%03d-%s.tar.xz", w.seq, sanitizeSnapshotLabel(label))
	path := filepath.Join(w.dir, name)

	if err := writeManifestArchive(path, doc); err != nil {
		logging.Warn("debug pipeline snapshot failed", "path", path, "error", err)
	}
}

// writeManifestArchive tars every realized manifest item (skipping
// DataEmpty placeholders and not-yet-read DataLazy entries, which have
// no in-memory bytes to dump) and xz-compresses the result.
func writeManifestArchive(path string, doc *book.BookDocument) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	var buf bytes.Buffer
	xw, err := xz.NewWriter(&buf)
	if err != nil {
		return err
	}
	tw := tar.NewWriter(xw)

	modTime := snapshotModTime()
	for _, item := range doc.Manifest.Items() {
		data, ok := manifestItemBytes(item)
		if !ok {
			continue
		}
		hdr := &tar.Header{
			Name:    item.Href,
			Mode:    0o644,
			Size:    int64(len(data)),
			ModTime: modTime,
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if _, err := tw.Write(data); err != nil {
			return err
		}
	}
	if err := tw.Close(); err != nil {
		return err
	}
	if err := xw.Close(); err != nil {
		return err
	}

	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func manifestItemBytes(item book.ManifestItem) ([]byte, bool) {
	switch item.Data.Kind {
	case book.DataXHTML:
		if s, ok := item.Data.AsXHTML(); ok {
			return []byte(s), true
		}
	case book.DataCSS:
		if s, ok := item.Data.AsCSS(); ok {
			return []byte(s), true
		}
	case book.DataBinary:
		return item.Data.Binary, true
	}
	return nil, false
}

func sanitizeSnapshotLabel(label string) string {
	label = strings.ReplaceAll(label, "/", "-")
	label = strings.ReplaceAll(label, " ", "-")
	label = strings.ReplaceAll(label, ":", "-")
	return label
}

// snapshotModTime is a fixed timestamp so archives of the same manifest
// content hash identically across runs, useful when diffing snapshots.
func snapshotModTime() time.Time {
	return time.Unix(0, 0).UTC()
}
