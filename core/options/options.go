// Package options defines ConversionOptions, the single flat configuration
// record threaded through every phase of the pipeline, and its TOML
// round-trip for the config file and `--dump-config`.
package options

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/FocuswithJustin/ebookconvert/core/book"
)

// PdfEngine selects the PDF extraction strategy (§4.4).
type PdfEngine string

const (
	PdfEngineAuto      PdfEngine = "auto"
	PdfEngineImageOnly PdfEngine = "image-only"
	PdfEngineTextOnly  PdfEngine = "text-only"
)

// ChapterMark names a marker style for SplitChapters-inserted boundaries.
// It is parsed and layered like every option, but no writer or transform
// reads it.
type ChapterMark string

const (
	ChapterMarkPageBreak ChapterMark = "page-break"
	ChapterMarkRule      ChapterMark = "rule"
	ChapterMarkBoth      ChapterMark = "both"
	ChapterMarkNone      ChapterMark = "none"
)

// EpubVersion is serialized as the bare string "2" or "3".
type EpubVersion int

const (
	EpubV2 EpubVersion = 2
	EpubV3 EpubVersion = 3
)

func (v EpubVersion) String() string {
	if v == EpubV3 {
		return "3"
	}
	return "2"
}

func (v EpubVersion) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

func (v *EpubVersion) UnmarshalText(text []byte) error {
	switch string(text) {
	case "2":
		*v = EpubV2
	case "3":
		*v = EpubV3
	default:
		return fmt.Errorf("options: expected epub_version %q or %q, got %q", "2", "3", string(text))
	}
	return nil
}

// ImageSize is Option<(u32,u32)> serialized as "WxH", or absent entirely.
type ImageSize struct {
	Width, Height uint32
	Set           bool
}

func (s ImageSize) MarshalText() ([]byte, error) {
	if !s.Set {
		return nil, nil
	}
	return []byte(fmt.Sprintf("%dx%d", s.Width, s.Height)), nil
}

func (s *ImageSize) UnmarshalText(text []byte) error {
	str := string(text)
	if str == "" {
		*s = ImageSize{}
		return nil
	}
	parts := strings.SplitN(str, "x", 2)
	if len(parts) != 2 {
		return fmt.Errorf("options: expected max_image_size format 'WxH', got %q", str)
	}
	w, err := strconv.ParseUint(parts[0], 10, 32)
	if err != nil {
		return fmt.Errorf("options: invalid width in %q: %w", str, err)
	}
	h, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return fmt.Errorf("options: invalid height in %q: %w", str, err)
	}
	*s = ImageSize{Width: uint32(w), Height: uint32(h), Set: true}
	return nil
}

// Profile describes a source or target device: screen size, DPI, base font.
type Profile struct {
	Name         string    `toml:"name"`
	ScreenWidth  uint32    `toml:"screen_width"`
	ScreenHeight uint32    `toml:"screen_height"`
	DPI          float64   `toml:"dpi"`
	Fbase        float64   `toml:"fbase"`
	Fsizes       []float64 `toml:"fsizes"`
}

// DefaultProfile matches the Rust original's generic e-reader defaults.
func DefaultProfile() Profile {
	return Profile{
		Name:         "default",
		ScreenWidth:  600,
		ScreenHeight: 800,
		DPI:          166.0,
		Fbase:        12.0,
		Fsizes:       []float64{7.5, 9.0, 10.0, 12.0, 15.5, 20.0, 22.0, 24.0},
	}
}

// ConversionOptions is the flat record controlling the whole pipeline,
// equivalent to Calibre's merged plumber options.
type ConversionOptions struct {
	// General
	Verbose      uint8  `toml:"verbose"`
	DebugPipeline string `toml:"debug_pipeline,omitempty"`

	// Input
	InputEncoding string `toml:"input_encoding,omitempty"`

	// Look & feel
	BaseFontSize          float64  `toml:"base_font_size"`
	FontSizeMapping       []float64 `toml:"font_size_mapping,omitempty"`
	MinimumLineHeight     float64  `toml:"minimum_line_height"`
	LineHeight            float64  `toml:"line_height,omitempty"`
	EmbedFontFamily       string   `toml:"embed_font_family,omitempty"`
	EmbedAllFonts         bool     `toml:"embed_all_fonts"`
	SubsetEmbeddedFonts   bool     `toml:"subset_embedded_fonts"`
	ExtraCSS              string   `toml:"extra_css,omitempty"`
	FilterCSS             string   `toml:"filter_css,omitempty"`
	SmartenPunctuation    bool     `toml:"smarten_punctuation"`
	UnsmartenPunctuation  bool     `toml:"unsmarten_punctuation"`

	// Page setup
	MarginTop    float64 `toml:"margin_top"`
	MarginBottom float64 `toml:"margin_bottom"`
	MarginLeft   float64 `toml:"margin_left"`
	MarginRight  float64 `toml:"margin_right"`

	// Structure
	ChapterMark      ChapterMark `toml:"chapter_mark"`
	ChapterRegex     string      `toml:"chapter_regex,omitempty"`
	PageBreaksBefore string      `toml:"page_breaks_before,omitempty"`
	RemoveFirstImage bool        `toml:"remove_first_image"`
	InsertMetadata   bool        `toml:"insert_metadata"`
	LinearizeTables  bool        `toml:"linearize_tables"`

	// Table of contents
	NoDefaultEPUBCover bool   `toml:"no_default_epub_cover"`
	MaxTocLinks        int    `toml:"max_toc_links"`
	TocThreshold       int    `toml:"toc_threshold"`
	TocFilter          string `toml:"toc_filter,omitempty"`
	Level1Toc          string `toml:"level1_toc,omitempty"`
	Level2Toc          string `toml:"level2_toc,omitempty"`
	Level3Toc          string `toml:"level3_toc,omitempty"`

	// Image
	MaxImageSize ImageSize `toml:"max_image_size"`
	NoImages     bool      `toml:"no_images"`
	JpegQuality  uint8     `toml:"jpeg_quality"`

	// Output format
	OutputProfile Profile `toml:"output_profile"`
	InputProfile  Profile `toml:"input_profile"`
	PrettyPrint   bool    `toml:"pretty_print"`

	// Format-specific
	EpubVersion    EpubVersion `toml:"epub_version"`
	EpubFlatten    bool        `toml:"epub_flatten"`
	PdfPageSize    string      `toml:"pdf_page_size,omitempty"`
	PdfSerifFamily string      `toml:"pdf_serif_family,omitempty"`
	PdfEngine      PdfEngine   `toml:"pdf_engine"`
	PdfDpi         uint16      `toml:"pdf_dpi"`

	// CLI/extension only — never populated from a config file.
	InputFormat  book.EbookFormat `toml:"-"`
	OutputFormat book.EbookFormat `toml:"-"`
}

// Default returns the options struct's zero-value-safe defaults, matching
// the Rust original's `Default for ConversionOptions`.
func Default() ConversionOptions {
	return ConversionOptions{
		MinimumLineHeight:   120.0,
		SubsetEmbeddedFonts: true,
		MarginTop:           5.0,
		MarginBottom:        5.0,
		MarginLeft:          5.0,
		MarginRight:         5.0,
		ChapterMark:         ChapterMarkPageBreak,
		MaxTocLinks:         50,
		TocThreshold:        6,
		JpegQuality:         80,
		OutputProfile:       DefaultProfile(),
		InputProfile:        DefaultProfile(),
		EpubVersion:         EpubV2,
		PdfEngine:           PdfEngineAuto,
		PdfDpi:              200,
	}
}
