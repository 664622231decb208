// Package book defines the BookDocument intermediate representation: the
// single in-memory model every input reader parses into and every output
// writer serializes from. It is created empty by an input plugin, mutated
// by the transform chain, handed once to an output plugin, and dropped — it
// is never shared between conversions and never persisted.
package book

// BookDocument is the central intermediate representation bridging all
// readers and writers.
type BookDocument struct {
	Metadata *Metadata
	Manifest *Manifest
	Spine    *Spine
	Toc      *Toc
	Guide    *Guide

	// UID is the opaque URN identifier for the book (e.g. "urn:uuid:...").
	UID string
	// Version is the OPF version, defaulting to "2.0".
	Version string
	// BasePath resolves relative hrefs during reading; empty if the input
	// had no natural base directory (e.g. a bare TXT file).
	BasePath string
}

// New returns an empty BookDocument ready for an input plugin to populate.
func New() *BookDocument {
	return &BookDocument{
		Metadata: NewMetadata(),
		Manifest: NewManifest(),
		Spine:    NewSpine(),
		Toc:      NewToc(),
		Guide:    NewGuide(),
		Version:  "2.0",
	}
}

// ValidateInvariants checks the universally-quantified invariants from the
// testable-properties list: every spine idref resolves (dangling refs are
// tolerated per the boundary-behavior rules, so this only reports the
// manifest's own internal consistency), and every manifest item has a
// unique id/href already enforced by Manifest's Add/Update.
func (b *BookDocument) ValidateInvariants() []string {
	var problems []string
	seenIDs := make(map[string]bool)
	seenHrefs := make(map[string]bool)
	for _, item := range b.Manifest.Items() {
		if seenIDs[item.ID] {
			problems = append(problems, "duplicate manifest id: "+item.ID)
		}
		seenIDs[item.ID] = true
		if seenHrefs[item.Href] {
			problems = append(problems, "duplicate manifest href: "+item.Href)
		}
		seenHrefs[item.Href] = true
	}
	return problems
}
