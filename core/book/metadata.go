package book

import "strings"

// MetadataItem is a single value for a Dublin-Core-style metadata term,
// carrying an optional attribute map (e.g. an opf:role on a creator).
type MetadataItem struct {
	Value      string
	Attributes map[string]string
}

// Metadata is a multimap from term (e.g. "title", "creator", "language")
// to an ordered list of values. One term may have many values — co-authors
// are multiple "creator" entries.
type Metadata struct {
	items map[string][]MetadataItem
	// order preserves first-insertion order of terms for deterministic output.
	order []string
}

// NewMetadata returns an empty Metadata multimap.
func NewMetadata() *Metadata {
	return &Metadata{items: make(map[string][]MetadataItem)}
}

// Add appends a value for term, with no attributes.
func (m *Metadata) Add(term, value string) {
	m.AddWithAttrs(term, value, nil)
}

// AddWithAttrs appends a value for term carrying the given attributes.
func (m *Metadata) AddWithAttrs(term, value string, attrs map[string]string) {
	if _, ok := m.items[term]; !ok {
		m.order = append(m.order, term)
	}
	m.items[term] = append(m.items[term], MetadataItem{Value: value, Attributes: attrs})
}

// Set replaces all values of term with a single value.
func (m *Metadata) Set(term, value string) {
	if _, ok := m.items[term]; !ok {
		m.order = append(m.order, term)
	}
	m.items[term] = []MetadataItem{{Value: value}}
}

// Remove deletes every value for term.
func (m *Metadata) Remove(term string) {
	if _, ok := m.items[term]; !ok {
		return
	}
	delete(m.items, term)
	for i, t := range m.order {
		if t == term {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

// Get returns all items for term, or nil if absent.
func (m *Metadata) Get(term string) []MetadataItem {
	return m.items[term]
}

// GetFirst returns the first value for term, or "" with ok=false if absent.
func (m *Metadata) GetFirst(term string) (string, bool) {
	items := m.items[term]
	if len(items) == 0 {
		return "", false
	}
	return items[0].Value, true
}

// Contains reports whether term has at least one value.
func (m *Metadata) Contains(term string) bool {
	return len(m.items[term]) > 0
}

// Terms returns the set of terms in first-insertion order.
func (m *Metadata) Terms() []string {
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// Title returns the first "title" value.
func (m *Metadata) Title() string {
	v, _ := m.GetFirst("title")
	return v
}

// SetTitle sets a single "title" value if non-blank after trimming.
func (m *Metadata) SetTitle(title string) {
	if trimmed := strings.TrimSpace(title); trimmed != "" {
		m.Set("title", trimmed)
	}
}

// Authors returns every "creator" value, in insertion order.
func (m *Metadata) Authors() []string {
	items := m.items["creator"]
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Value
	}
	return out
}

// Language returns the first "language" value.
func (m *Metadata) Language() string {
	v, _ := m.GetFirst("language")
	return v
}

// Publisher returns the first "publisher" value.
func (m *Metadata) Publisher() string {
	v, _ := m.GetFirst("publisher")
	return v
}

// Description returns the first "description" value.
func (m *Metadata) Description() string {
	v, _ := m.GetFirst("description")
	return v
}

// Identifier returns the first "identifier" value.
func (m *Metadata) Identifier() string {
	v, _ := m.GetFirst("identifier")
	return v
}

// Date returns the first "date" value.
func (m *Metadata) Date() string {
	v, _ := m.GetFirst("date")
	return v
}
