// Package plugin declares the three polymorphic contracts the pipeline
// composes: InputPlugin reads a native format into a BookDocument,
// OutputPlugin serializes a BookDocument into a native format, and
// Transform rewrites a BookDocument in place. Unlike the external,
// manifest-discovered plugins the teacher host loads, these are
// in-process Go interfaces registered at init time — ebook-convert ships
// a single static binary with no external plugin directory.
package plugin

import (
	"context"

	"github.com/FocuswithJustin/ebookconvert/core/book"
	"github.com/FocuswithJustin/ebookconvert/core/options"
)

// Capabilities mirrors the teacher host's plugin manifest capability
// block, but declared directly in Go rather than discovered from JSON.
type Capabilities struct {
	// Formats lists the book.EbookFormat values the plugin handles.
	Formats []book.EbookFormat
	// LossClass is the expected fidelity class (L0-L4) for extraction,
	// matching the teacher's IRCapabilities.LossClass convention.
	LossClass string
}

// InputPlugin extracts a BookDocument from a native-format source file.
type InputPlugin interface {
	// Name is the plugin's stable identifier, used in error wrapping and
	// as the registry key.
	Name() string
	Capabilities() Capabilities
	// Detect reports whether path looks like this plugin's format, by
	// sniffing content rather than trusting the extension alone.
	Detect(ctx context.Context, path string) (bool, error)
	// Extract reads path and populates a fresh BookDocument.
	Extract(ctx context.Context, path string, opts *options.ConversionOptions) (*book.BookDocument, error)
}

// OutputPlugin serializes a BookDocument into a native-format file.
type OutputPlugin interface {
	Name() string
	Capabilities() Capabilities
	// Write serializes doc to path.
	Write(ctx context.Context, doc *book.BookDocument, path string, opts *options.ConversionOptions) error
}

// Transform rewrites a BookDocument in place as one fixed-order pass of
// the pipeline's middle phase.
type Transform interface {
	Name() string
	// Apply mutates doc according to opts. Transforms that fan out
	// per-manifest-item work internally (e.g. via a worker pool) must
	// still apply results back to doc sequentially, since BookDocument
	// is not safe for concurrent mutation.
	Apply(ctx context.Context, doc *book.BookDocument, opts *options.ConversionOptions) error
}

// inputRegistry and outputRegistry hold the statically registered
// plugins, keyed by Name(), populated by each format package's init().
var (
	inputRegistry  = map[string]InputPlugin{}
	outputRegistry = map[string]OutputPlugin{}
)

// RegisterInput adds p to the input registry. Called from each input
// package's init(); panics on duplicate registration since that can only
// indicate a build-time wiring mistake.
func RegisterInput(p InputPlugin) {
	if _, exists := inputRegistry[p.Name()]; exists {
		panic("plugin: duplicate input plugin " + p.Name())
	}
	inputRegistry[p.Name()] = p
}

// RegisterOutput adds p to the output registry.
func RegisterOutput(p OutputPlugin) {
	if _, exists := outputRegistry[p.Name()]; exists {
		panic("plugin: duplicate output plugin " + p.Name())
	}
	outputRegistry[p.Name()] = p
}

// InputFor returns the registered plugin claiming to handle format, if any.
func InputFor(format book.EbookFormat) (InputPlugin, bool) {
	for _, p := range inputRegistry {
		for _, f := range p.Capabilities().Formats {
			if f == format {
				return p, true
			}
		}
	}
	return nil, false
}

// OutputFor returns the registered plugin claiming to handle format, if any.
func OutputFor(format book.EbookFormat) (OutputPlugin, bool) {
	for _, p := range outputRegistry {
		for _, f := range p.Capabilities().Formats {
			if f == format {
				return p, true
			}
		}
	}
	return nil, false
}

// ListInputs returns every registered input plugin's name.
func ListInputs() []string {
	names := make([]string, 0, len(inputRegistry))
	for name := range inputRegistry {
		names = append(names, name)
	}
	return names
}

// ListOutputs returns every registered output plugin's name.
func ListOutputs() []string {
	names := make([]string, 0, len(outputRegistry))
	for name := range outputRegistry {
		names = append(names, name)
	}
	return names
}
