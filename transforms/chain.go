package transforms

import (
	"github.com/FocuswithJustin/ebookconvert/core/plugin"
)

// StandardChain returns the fixed-order transform chain every
// conversion runs: each transform decides internally whether it has
// anything to do for the given options, so unconditional transforms
// (MergeMetadata, CleanGuide, DetectStructure, CSSFlattener, PageMargin,
// SplitChapters, ManifestTrimmer) sit alongside option-gated ones
// (Jacket, LinearizeTables, UnsmartenPunctuation, SmartenPunctuation,
// ImageRescale) without the pipeline needing to know the difference.
func StandardChain() []plugin.Transform {
	return []plugin.Transform{
		DataURL{},
		CleanGuide{},
		MergeMetadata{},
		DetectStructure{},
		Jacket{},
		LinearizeTables{},
		UnsmartenPunctuation{},
		SmartenPunctuation{},
		CSSFlattener{},
		PageMargin{},
		ImageRescale{},
		SplitChapters{},
		ManifestTrimmer{},
	}
}
