package book

// TocEntry is one node in the table of contents tree.
type TocEntry struct {
	Title     string
	Href      string
	Children  []*TocEntry
	PlayOrder int
	ID        string
	Class     string
}

// Toc is the hierarchical navigation tree. Depth-first iteration of
// Entries yields reading order.
type Toc struct {
	Entries []*TocEntry
}

// NewToc returns an empty table of contents.
func NewToc() *Toc {
	return &Toc{}
}

// IsEmpty reports whether the TOC has no entries at all.
func (t *Toc) IsEmpty() bool {
	return len(t.Entries) == 0
}

// Walk calls fn for every entry in depth-first, pre-order traversal.
func (t *Toc) Walk(fn func(*TocEntry)) {
	var walk func([]*TocEntry)
	walk = func(entries []*TocEntry) {
		for _, e := range entries {
			fn(e)
			walk(e.Children)
		}
	}
	walk(t.Entries)
}

// Flatten returns every entry in depth-first order.
func (t *Toc) Flatten() []*TocEntry {
	var out []*TocEntry
	t.Walk(func(e *TocEntry) { out = append(out, e) })
	return out
}

// RationalizePlayOrders assigns a sequential 1-based PlayOrder to every
// entry in depth-first order. Idempotent: re-running produces the same
// assignment since traversal order is deterministic.
func (t *Toc) RationalizePlayOrders() {
	n := 1
	t.Walk(func(e *TocEntry) {
		e.PlayOrder = n
		n++
	})
}
