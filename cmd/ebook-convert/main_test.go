package main

import (
	"testing"

	"github.com/FocuswithJustin/ebookconvert/core/book"
)

func TestResolveFormatUsesOverrideWhenGiven(t *testing.T) {
	format, err := resolveFormat("epub", "whatever.bin")
	if err != nil {
		t.Fatal(err)
	}
	if format != book.FormatEPUB {
		t.Errorf("format = %v", format)
	}
}

func TestResolveFormatFallsBackToFileExtension(t *testing.T) {
	format, err := resolveFormat("", "document.mobi")
	if err != nil {
		t.Fatal(err)
	}
	if format != book.FormatMOBI {
		t.Errorf("format = %v", format)
	}
}

func TestResolveFormatRejectsUnknownExtension(t *testing.T) {
	if _, err := resolveFormat("", "document.xyz"); err == nil {
		t.Fatal("expected an error for an unrecognized extension")
	}
}

func TestBuildOptionsAppliesExplicitOverrides(t *testing.T) {
	dpi := uint16(96)
	engine := "text-only"
	opts, err := buildOptions(Shared{PdfDpi: &dpi, PdfEngine: &engine})
	if err != nil {
		t.Fatal(err)
	}
	if opts.PdfDpi != 96 {
		t.Errorf("pdf dpi = %d", opts.PdfDpi)
	}
	if string(opts.PdfEngine) != "text-only" {
		t.Errorf("pdf engine = %v", opts.PdfEngine)
	}
}

func TestBuildOptionsAppliesExtraCSSAndMaxImageSize(t *testing.T) {
	opts, err := buildOptions(Shared{ExtraCSS: "body{color:red}", MaxImageSize: "800x600"})
	if err != nil {
		t.Fatal(err)
	}
	if opts.ExtraCSS != "body{color:red}" {
		t.Errorf("extra css = %q", opts.ExtraCSS)
	}
	if !opts.MaxImageSize.Set || opts.MaxImageSize.Width != 800 || opts.MaxImageSize.Height != 600 {
		t.Errorf("max image size = %+v", opts.MaxImageSize)
	}
}

func TestBuildOptionsRejectsMalformedMaxImageSize(t *testing.T) {
	if _, err := buildOptions(Shared{MaxImageSize: "not-a-size"}); err == nil {
		t.Fatal("expected an error for a malformed --max-image-size value")
	}
}

func TestConvertCmdRunRequiresADestination(t *testing.T) {
	c := &ConvertCmd{Input: "source.epub"}
	if err := c.Run(); err == nil {
		t.Fatal("expected an error when neither a positional output nor -o is given")
	}
}
