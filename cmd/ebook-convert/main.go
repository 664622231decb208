// Command ebook-convert converts ebooks between formats: EPUB, MOBI,
// PDF, DOCX, ODT, RTF, FB2, HTML, Markdown, and plain text.
package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/alecthomas/kong"

	"github.com/FocuswithJustin/ebookconvert/core/book"
	"github.com/FocuswithJustin/ebookconvert/core/options"
	"github.com/FocuswithJustin/ebookconvert/core/pipeline"
	"github.com/FocuswithJustin/ebookconvert/internal/config"
	"github.com/FocuswithJustin/ebookconvert/internal/logging"
	"github.com/FocuswithJustin/ebookconvert/transforms"

	_ "github.com/FocuswithJustin/ebookconvert/input/docx"
	_ "github.com/FocuswithJustin/ebookconvert/input/epub"
	_ "github.com/FocuswithJustin/ebookconvert/input/fb2"
	_ "github.com/FocuswithJustin/ebookconvert/input/html"
	_ "github.com/FocuswithJustin/ebookconvert/input/markdown"
	_ "github.com/FocuswithJustin/ebookconvert/input/mobi"
	_ "github.com/FocuswithJustin/ebookconvert/input/odt"
	_ "github.com/FocuswithJustin/ebookconvert/input/pdf"
	_ "github.com/FocuswithJustin/ebookconvert/input/rtf"
	_ "github.com/FocuswithJustin/ebookconvert/input/txt"

	_ "github.com/FocuswithJustin/ebookconvert/output/epub"
	_ "github.com/FocuswithJustin/ebookconvert/output/html"
	_ "github.com/FocuswithJustin/ebookconvert/output/mobi"
	_ "github.com/FocuswithJustin/ebookconvert/output/pdf"
	_ "github.com/FocuswithJustin/ebookconvert/output/txt"
)

const version = "0.1.0"

// Shared holds every flag common to both CLI forms. Pointer fields are
// nil when the user did not pass the flag, which is how config.Apply
// tells "explicitly overridden" apart from "left at its config-file or
// built-in default."
type Shared struct {
	Verbose            uint8   `short:"v" type:"counter" help:"Increase log verbosity (repeatable)."`
	From               string  `help:"Override input format detection (file extension, e.g. epub)."`
	To                 string  `help:"Override output format detection (file extension, e.g. mobi)."`
	InputEncoding      *string `help:"Override input character encoding (e.g. windows-1252) for formats that need it."`
	ExtraCSS           string  `help:"Extra CSS injected into the output stylesheet."`
	MaxImageSize       string  `help:"Maximum image dimensions as WxH, e.g. 1200x1600."`
	JpegQuality        *uint8  `help:"JPEG quality, 1-100."`
	DebugPipeline      string  `help:"Directory to dump intermediate pipeline state into."`
	PdfEngine          *string `enum:"auto,image-only,text-only" help:"PDF extraction strategy."`
	PdfDpi             *uint16 `help:"PDF rasterization DPI."`
	NoImages           *bool   `help:"Strip images from the output."`
	SmartenPunctuation *bool   `help:"Convert straight quotes and dashes to their typographic forms."`
	DumpConfig         bool    `help:"Print the merged configuration as TOML and exit."`
	DumpConfigYAML     bool    `help:"Print the merged configuration as YAML and exit."`
}

// ConvertCmd implements both CLI forms at once via kong's default-command
// feature: "ebook-convert <input> <output>" (legacy, two bare positionals)
// and "ebook-convert convert <input> -o <output>" (explicit) both land
// here, differing only in whether Output or OutputFlag was populated.
type ConvertCmd struct {
	Shared

	Input      string `arg:"" help:"Source file." type:"existingfile"`
	Output     string `arg:"" optional:"" help:"Destination file (legacy positional form)."`
	OutputFlag string `name:"output" short:"o" help:"Destination file (explicit form)."`
}

func (c *ConvertCmd) Run() error {
	dst := c.Output
	if dst == "" {
		dst = c.OutputFlag
	}
	if dst == "" {
		return fmt.Errorf("no destination file given (use a second positional argument or -o/--output)")
	}
	return runConvert(c.Input, dst, c.Shared)
}

// VersionCmd prints the build version.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Println("ebook-convert", version)
	return nil
}

var CLI struct {
	Convert ConvertCmd `cmd:"" default:"withargs" help:"Convert an ebook from one format to another."`
	Version VersionCmd `cmd:"" help:"Print version information."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("ebook-convert"),
		kong.Description("Converts ebooks between EPUB, MOBI, PDF, DOCX, ODT, RTF, FB2, HTML, Markdown, and TXT."),
		kong.UsageOnError(),
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}

func runConvert(srcPath, dstPath string, shared Shared) error {
	logging.InitLogger(logging.LevelFromVerbosity(shared.Verbose), logging.FormatText)

	opts, err := buildOptions(shared)
	if err != nil {
		return err
	}

	if shared.DumpConfig {
		dumped, err := config.DumpTOML(opts)
		if err != nil {
			return err
		}
		fmt.Print(dumped)
		return nil
	}
	if shared.DumpConfigYAML {
		dumped, err := config.DumpYAML(opts)
		if err != nil {
			return err
		}
		fmt.Print(dumped)
		return nil
	}

	opts.InputFormat, err = resolveFormat(shared.From, srcPath)
	if err != nil {
		return err
	}
	opts.OutputFormat, err = resolveFormat(shared.To, dstPath)
	if err != nil {
		return err
	}

	p := pipeline.New(transforms.StandardChain(), nil)
	return p.Convert(context.Background(), srcPath, dstPath, &opts)
}

// buildOptions layers config.Load's three discovery paths under the
// CLI flags the user actually passed, per spec.md §6's "later wins"
// merge order (config dir, then project dotfile, then flags).
func buildOptions(shared Shared) (options.ConversionOptions, error) {
	opts, err := config.Load(config.DiscoverPaths())
	if err != nil {
		return opts, err
	}

	var overrides config.Overrides
	if shared.PdfEngine != nil {
		e := options.PdfEngine(*shared.PdfEngine)
		overrides.PdfEngine = &e
	}
	overrides.PdfDpi = shared.PdfDpi
	overrides.JpegQuality = shared.JpegQuality
	overrides.NoImages = shared.NoImages
	overrides.SmartenPunctuation = shared.SmartenPunctuation
	overrides.InputEncoding = shared.InputEncoding
	opts = config.Apply(opts, overrides)

	if shared.ExtraCSS != "" {
		opts.ExtraCSS = shared.ExtraCSS
	}
	if shared.DebugPipeline != "" {
		opts.DebugPipeline = shared.DebugPipeline
	}
	if shared.MaxImageSize != "" {
		var size options.ImageSize
		if err := size.UnmarshalText([]byte(shared.MaxImageSize)); err != nil {
			return opts, fmt.Errorf("--max-image-size: %w", err)
		}
		opts.MaxImageSize = size
	}
	return opts, nil
}

// resolveFormat maps an explicit --from/--to extension override, or
// falls back to the given path's own extension.
func resolveFormat(override, path string) (book.EbookFormat, error) {
	ext := override
	if ext == "" {
		ext = filepath.Ext(path)
	}
	format, ok := book.FromExtension(ext)
	if !ok {
		return "", fmt.Errorf("unrecognized format extension %q", ext)
	}
	return format, nil
}
