package book

// GuideRef is one standard-section reference (cover, table-of-contents,
// body start, ...).
type GuideRef struct {
	RefType string
	Title   string
	Href    string
}

// Guide is the ordered list of standard-section references. Adding a
// reference with an existing RefType replaces the prior entry in place.
type Guide struct {
	refs []GuideRef
}

// NewGuide returns an empty guide.
func NewGuide() *Guide {
	return &Guide{}
}

// Refs returns the ordered list of references.
func (g *Guide) Refs() []GuideRef { return g.refs }

// Add inserts ref, replacing any existing entry that shares its RefType.
func (g *Guide) Add(ref GuideRef) {
	for i, existing := range g.refs {
		if existing.RefType == ref.RefType {
			g.refs[i] = ref
			return
		}
	}
	g.refs = append(g.refs, ref)
}

// Get returns the reference for refType, if present.
func (g *Guide) Get(refType string) (GuideRef, bool) {
	for _, ref := range g.refs {
		if ref.RefType == refType {
			return ref, true
		}
	}
	return GuideRef{}, false
}

// Has reports whether a reference of refType exists.
func (g *Guide) Has(refType string) bool {
	_, ok := g.Get(refType)
	return ok
}

// Remove deletes the reference with the given RefType, if present.
func (g *Guide) Remove(refType string) {
	for i, existing := range g.refs {
		if existing.RefType == refType {
			g.refs = append(g.refs[:i], g.refs[i+1:]...)
			return
		}
	}
}

// RemoveIf deletes every reference for which remove returns true.
func (g *Guide) RemoveIf(remove func(GuideRef) bool) {
	kept := g.refs[:0:0]
	for _, ref := range g.refs {
		if !remove(ref) {
			kept = append(kept, ref)
		}
	}
	g.refs = kept
}

// StandardGuideTypes is the 17-entry allow list CleanGuide enforces.
var StandardGuideTypes = map[string]bool{
	"cover": true, "title-page": true, "toc": true, "index": true,
	"glossary": true, "acknowledgements": true, "bibliography": true,
	"colophon": true, "copyright-page": true, "dedication": true,
	"epigraph": true, "foreword": true, "loi": true, "lot": true,
	"notes": true, "preface": true, "text": true,
}
