// Package errors provides the closed error taxonomy used across the
// ebook-convert pipeline: input readers, transforms, and output writers all
// return one of these tagged error types so callers can branch on Unwrap
// without parsing messages.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnsupported  = errors.New("unsupported")
	ErrInternal     = errors.New("internal error")
)

// taggedError is the shape shared by every taxonomy member: a format tag,
// free-text message, and at most one level of wrapped cause.
type taggedError struct {
	tag     string
	message string
	err     error
}

func (e *taggedError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.tag, e.message, e.err)
	}
	return fmt.Sprintf("%s: %s", e.tag, e.message)
}

func (e *taggedError) Unwrap() error {
	return e.err
}

// Tag returns the taxonomy tag (e.g. "pdf", "mobi", "pipeline").
func (e *taggedError) Tag() string {
	return e.tag
}

func newTagged(tag, message string, cause error) *taggedError {
	return &taggedError{tag: tag, message: message, err: cause}
}

// The closed taxonomy. Each constructor wraps an optional cause at one level.
func NewIO(op, path string, cause error) error {
	return newTagged("io", fmt.Sprintf("%s %s", op, path), cause)
}

func NewXML(path, message string, cause error) error {
	return newTagged("xml", withPath(path, message), cause)
}

func NewHTML(path, message string, cause error) error {
	return newTagged("html", withPath(path, message), cause)
}

func NewCSS(path, message string, cause error) error {
	return newTagged("css", withPath(path, message), cause)
}

func NewPDF(message string, cause error) error {
	return newTagged("pdf", message, cause)
}

func NewEPUB(message string, cause error) error {
	return newTagged("epub", message, cause)
}

func NewMOBI(message string, cause error) error {
	return newTagged("mobi", message, cause)
}

func NewDOCX(message string, cause error) error {
	return newTagged("docx", message, cause)
}

func NewODT(message string, cause error) error {
	return newTagged("odt", message, cause)
}

func NewRTF(message string, cause error) error {
	return newTagged("rtf", message, cause)
}

func NewFB2(message string, cause error) error {
	return newTagged("fb2", message, cause)
}

func NewManifest(message string) error {
	return newTagged("manifest", message, nil)
}

func NewMetadata(message string) error {
	return newTagged("metadata", message, nil)
}

func NewUnsupportedFormat(format string) error {
	return newTagged("unsupported_format", format, ErrUnsupported)
}

func NewImage(message string, cause error) error {
	return newTagged("image", message, cause)
}

func NewEncoding(message string, cause error) error {
	return newTagged("encoding", message, cause)
}

// NewPipeline wraps a transform (or phase) failure: "pipeline: transform
// '<name>' failed: <inner>".
func NewPipeline(phase, name string, cause error) error {
	return newTagged("pipeline", fmt.Sprintf("%s '%s' failed", phase, name), cause)
}

func NewPlugin(name, message string, cause error) error {
	return newTagged("plugin", fmt.Sprintf("%s: %s", name, message), cause)
}

func NewOther(message string, cause error) error {
	return newTagged("other", message, cause)
}

func withPath(path, message string) string {
	if path == "" {
		return message
	}
	return fmt.Sprintf("%s: %s", path, message)
}

// Tag returns the taxonomy tag of err, or "" if err is not one of ours.
func Tag(err error) string {
	var te *taggedError
	if errors.As(err, &te) {
		return te.Tag()
	}
	return ""
}
