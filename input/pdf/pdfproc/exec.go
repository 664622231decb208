package pdfproc

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strconv"

	"github.com/FocuswithJustin/ebookconvert/core/errors"
	"github.com/FocuswithJustin/ebookconvert/internal/logging"
)

// readWorkFile is a thin os.ReadFile wrapper kept as a package-level var
// so tests that substitute runCommand can also short-circuit the file
// read pdftohtml's output otherwise requires.
var readWorkFile = os.ReadFile

// commandRunner matches exec.Command's shape so tests can substitute a
// fake without spawning real pdftohtml/pdftoppm/pdfinfo processes,
// mirroring core/runner's osMkdirTemp-style injectable-function pattern.
type commandRunner func(ctx context.Context, dir, name string, args ...string) (stdout, stderr []byte, err error)

var runCommand commandRunner = runCommandReal

func runCommandReal(ctx context.Context, dir, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logging.SubprocessStart(name, args)
	err := cmd.Run()
	if err != nil {
		logging.SubprocessFailed(name, err, stderr.String())
	}
	return stdout.Bytes(), stderr.Bytes(), err
}

// RunPdftohtmlXML invokes `pdftohtml -xml` over [first, last] (a whole-
// document pass when both are 0), writing out.xml into workDir, and
// returns its parsed pages and font table.
func RunPdftohtmlXML(ctx context.Context, pdfPath, workDir string, first, last int) ([]PdfPage, map[string]string, error) {
	args := []string{"-xml", "-q", "-enc", "UTF-8"}
	if first > 0 {
		args = append(args, "-f", strconv.Itoa(first))
	}
	if last > 0 {
		args = append(args, "-l", strconv.Itoa(last))
	}
	outBase := workDir + "/out"
	args = append(args, pdfPath, outBase)

	_, stderr, err := runCommand(ctx, workDir, "pdftohtml", args...)
	if err != nil {
		return nil, nil, errors.NewPDF("pdftohtml: "+string(stderr), err)
	}

	data, err := readWorkFile(outBase + ".xml")
	if err != nil {
		return nil, nil, errors.NewPDF("read pdftohtml output", err)
	}
	return parsePdftohtmlXML(data)
}

// RunPdftohtmlOutline runs the small, image-skipping (-i) invocation
// over the whole document to recover the bookmark outline.
func RunPdftohtmlOutline(ctx context.Context, pdfPath, workDir string) ([]*OutlineEntry, error) {
	outBase := workDir + "/outline"
	args := []string{"-xml", "-i", "-q", pdfPath, outBase}

	_, stderr, err := runCommand(ctx, workDir, "pdftohtml", args...)
	if err != nil {
		return nil, errors.NewPDF("pdftohtml outline: "+string(stderr), err)
	}

	data, err := readWorkFile(outBase + ".xml")
	if err != nil {
		return nil, errors.NewPDF("read outline output", err)
	}
	return parseOutlineXML(data)
}

// RunPdftoppm renders pages [first, last] to JPEG at the given DPI and
// quality, returning the rendered files in page order. width sets the
// zero-padding of pdftoppm's generated filenames (§4.4: 2, 3, or 4
// digits depending on total page count).
func RunPdftoppm(ctx context.Context, pdfPath, workDir string, first, last, dpi, quality, width int) ([]string, error) {
	prefix := workDir + "/page"
	args := []string{
		"-jpeg", "-r", strconv.Itoa(dpi),
		"-jpegopt", "quality=" + strconv.Itoa(quality),
		"-f", strconv.Itoa(first), "-l", strconv.Itoa(last),
		pdfPath, prefix,
	}

	_, stderr, err := runCommand(ctx, workDir, "pdftoppm", args...)
	if err != nil {
		return nil, errors.NewPDF("pdftoppm: "+string(stderr), err)
	}

	files := make([]string, 0, last-first+1)
	for p := first; p <= last; p++ {
		files = append(files, prefix+"-"+padPageNumber(p, width)+".jpg")
	}
	return files, nil
}

// RunPdfinfo runs `pdfinfo` and returns its raw, undecoded stdout for
// DecodeInfoDict to parse.
func RunPdfinfo(ctx context.Context, pdfPath string) ([]byte, error) {
	stdout, stderr, err := runCommand(ctx, "", "pdfinfo", pdfPath)
	if err != nil {
		return nil, errors.NewPDF("pdfinfo: "+string(stderr), err)
	}
	return stdout, nil
}

func padPageNumber(n, width int) string {
	s := strconv.Itoa(n)
	for len(s) < width {
		s = "0" + s
	}
	return s
}
