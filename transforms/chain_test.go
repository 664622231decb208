package transforms

import "testing"

func TestStandardChainOrder(t *testing.T) {
	chain := StandardChain()
	wantNames := []string{
		"DataURL", "CleanGuide", "MergeMetadata", "DetectStructure", "Jacket",
		"LinearizeTables", "UnsmartenPunctuation", "SmartenPunctuation",
		"CSSFlattener", "PageMargin", "ImageRescale", "SplitChapters", "ManifestTrimmer",
	}
	if len(chain) != len(wantNames) {
		t.Fatalf("len(chain) = %d, want %d", len(chain), len(wantNames))
	}
	for i, tr := range chain {
		if tr.Name() != wantNames[i] {
			t.Errorf("chain[%d].Name() = %q, want %q", i, tr.Name(), wantNames[i])
		}
	}
}
