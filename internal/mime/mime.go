// Package mime maps between file extensions and the MIME types used inside
// OPF manifests and output documents.
package mime

import (
	"path/filepath"
	"strings"
)

// FromExtension returns the MIME type for a file extension (with or without
// a leading dot), defaulting to application/octet-stream when unknown.
func FromExtension(ext string) string {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	switch ext {
	case "xhtml", "xhtm":
		return "application/xhtml+xml"
	case "html", "htm":
		return "text/html"
	case "css":
		return "text/css"
	case "jpg", "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "svg":
		return "image/svg+xml"
	case "webp":
		return "image/webp"
	case "bmp":
		return "image/bmp"
	case "ttf":
		return "font/ttf"
	case "otf":
		return "font/otf"
	case "woff":
		return "font/woff"
	case "woff2":
		return "font/woff2"
	case "xml":
		return "application/xml"
	case "opf":
		return "application/oebps-package+xml"
	case "ncx":
		return "application/x-dtbncx+xml"
	case "js":
		return "application/javascript"
	case "json":
		return "application/json"
	case "txt":
		return "text/plain"
	case "pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}

// FromPath returns the MIME type for a file path's extension.
func FromPath(path string) string {
	return FromExtension(filepath.Ext(path))
}

// IsText reports whether a MIME type represents a text-based format.
func IsText(m string) bool {
	return strings.HasPrefix(m, "text/") ||
		m == "application/xhtml+xml" ||
		m == "application/xml" ||
		m == "application/javascript" ||
		m == "application/json" ||
		m == "application/oebps-package+xml" ||
		m == "application/x-dtbncx+xml"
}

// ExtensionFromMIME returns the canonical extension (without a leading dot)
// for a MIME type, defaulting to "bin" when unknown.
func ExtensionFromMIME(m string) string {
	switch m {
	case "application/xhtml+xml":
		return "xhtml"
	case "text/html":
		return "html"
	case "text/css":
		return "css"
	case "image/jpeg":
		return "jpg"
	case "image/png":
		return "png"
	case "image/gif":
		return "gif"
	case "image/svg+xml":
		return "svg"
	case "image/webp":
		return "webp"
	case "image/bmp":
		return "bmp"
	case "font/ttf", "application/x-font-ttf":
		return "ttf"
	case "font/otf", "application/x-font-opentype":
		return "otf"
	case "font/woff", "application/font-woff":
		return "woff"
	case "font/woff2", "application/font-woff2":
		return "woff2"
	case "application/xml":
		return "xml"
	case "text/plain":
		return "txt"
	case "application/pdf":
		return "pdf"
	default:
		return "bin"
	}
}
