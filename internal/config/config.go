// Package config implements the three-layer configuration discovery
// described in §6: a user config directory, a project-local dotfile,
// and finally CLI flag overrides, each layer winning over the last.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/FocuswithJustin/ebookconvert/core/options"
)

const (
	userConfigSubdir = "ebook-convert"
	userConfigFile   = "config.toml"
	projectDotfile   = ".ebook-convert.toml"
)

// DiscoverPaths returns the ordered list of TOML config files Load reads,
// lowest precedence first: the per-user config directory, then a
// project-local dotfile in the current working directory. Neither path
// is required to exist; Load silently skips a missing layer.
func DiscoverPaths() []string {
	var paths []string
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, userConfigSubdir, userConfigFile))
	}
	paths = append(paths, projectDotfile)
	return paths
}

// Load starts from options.Default() and layers every existing path in
// paths on top of it in order, each layer's TOML decode only touching
// the fields present in that file (BurntSushi/toml leaves fields absent
// from the document untouched), so a later, more specific layer only
// overrides what it explicitly sets.
func Load(paths []string) (options.ConversionOptions, error) {
	opts := options.Default()
	for _, p := range paths {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if _, err := toml.DecodeFile(p, &opts); err != nil {
			return opts, err
		}
	}
	return opts, nil
}

// Overrides holds the subset of ConversionOptions fields a CLI flag
// layer may explicitly set; a nil field means "not provided on the
// command line" and leaves the merged value from Load untouched. This
// mirrors kong's "only apply a flag if the user actually passed it"
// requirement without threading a full bitmask through every field.
type Overrides struct {
	PdfEngine          *options.PdfEngine
	PdfDpi             *uint16
	JpegQuality        *uint8
	BaseFontSize       *float64
	ChapterMark        *options.ChapterMark
	SmartenPunctuation *bool
	NoImages           *bool
	MaxTocLinks        *int
	EpubVersion        *options.EpubVersion
	InputEncoding      *string
}

// Apply merges a CLI override layer onto opts, the final and
// highest-precedence layer in the three described in §6.
func Apply(opts options.ConversionOptions, o Overrides) options.ConversionOptions {
	if o.PdfEngine != nil {
		opts.PdfEngine = *o.PdfEngine
	}
	if o.PdfDpi != nil {
		opts.PdfDpi = *o.PdfDpi
	}
	if o.JpegQuality != nil {
		opts.JpegQuality = *o.JpegQuality
	}
	if o.BaseFontSize != nil {
		opts.BaseFontSize = *o.BaseFontSize
	}
	if o.ChapterMark != nil {
		opts.ChapterMark = *o.ChapterMark
	}
	if o.SmartenPunctuation != nil {
		opts.SmartenPunctuation = *o.SmartenPunctuation
	}
	if o.NoImages != nil {
		opts.NoImages = *o.NoImages
	}
	if o.MaxTocLinks != nil {
		opts.MaxTocLinks = *o.MaxTocLinks
	}
	if o.EpubVersion != nil {
		opts.EpubVersion = *o.EpubVersion
	}
	if o.InputEncoding != nil {
		opts.InputEncoding = *o.InputEncoding
	}
	return opts
}

// DumpTOML renders opts in the same format Load reads, for `--dump-config`.
func DumpTOML(opts options.ConversionOptions) (string, error) {
	var buf strings.Builder
	if err := toml.NewEncoder(&buf).Encode(opts); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// DumpYAML renders opts as YAML for `--dump-config-yaml`, an alternate
// introspection format alongside the canonical TOML dump.
func DumpYAML(opts options.ConversionOptions) (string, error) {
	data, err := yaml.Marshal(opts)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
