package book

import "fmt"

// DataKind tags the variant carried by ManifestItem.Data.
type DataKind int

const (
	// DataEmpty means the item has no payload yet (a placeholder).
	DataEmpty DataKind = iota
	// DataXHTML holds serialized XHTML 1.1 document source.
	DataXHTML
	// DataCSS holds stylesheet source.
	DataCSS
	// DataBinary holds an opaque byte payload (image, font, ...).
	DataBinary
	// DataLazy holds a path whose bytes are read only at write time.
	DataLazy
)

// ItemData is the tagged variant carried by every ManifestItem. Exactly one
// of Text/Binary/Path is meaningful, selected by Kind.
type ItemData struct {
	Kind   DataKind
	Text   string // DataXHTML, DataCSS
	Binary []byte // DataBinary
	Path   string // DataLazy
}

func XHTML(source string) ItemData { return ItemData{Kind: DataXHTML, Text: source} }
func CSS(source string) ItemData   { return ItemData{Kind: DataCSS, Text: source} }
func Binary(data []byte) ItemData  { return ItemData{Kind: DataBinary, Binary: data} }
func Lazy(path string) ItemData    { return ItemData{Kind: DataLazy, Path: path} }
func Empty() ItemData              { return ItemData{Kind: DataEmpty} }

// AsXHTML returns the XHTML source and whether Kind is DataXHTML.
func (d ItemData) AsXHTML() (string, bool) {
	if d.Kind != DataXHTML {
		return "", false
	}
	return d.Text, true
}

// AsCSS returns the stylesheet source and whether Kind is DataCSS.
func (d ItemData) AsCSS() (string, bool) {
	if d.Kind != DataCSS {
		return "", false
	}
	return d.Text, true
}

// ManifestItem is one content item in the book: an XHTML document, a
// stylesheet, an image/font blob, a not-yet-read lazy file, or a placeholder.
type ManifestItem struct {
	ID        string
	Href      string
	MediaType string
	Data      ItemData
	Fallback  string // optional id of a fallback item
}

// IsXHTML reports whether the item's payload is XHTML.
func (i ManifestItem) IsXHTML() bool { return i.Data.Kind == DataXHTML }

// IsCSS reports whether the item's payload is a stylesheet.
func (i ManifestItem) IsCSS() bool { return i.Data.Kind == DataCSS }

// IsImage reports whether the item's media type is one of the standard
// raster/vector image types carried as opaque binary payloads.
func (i ManifestItem) IsImage() bool {
	switch i.MediaType {
	case "image/png", "image/jpeg", "image/jpg", "image/gif", "image/webp", "image/bmp", "image/svg+xml":
		return true
	default:
		return false
	}
}

// Manifest is the set of all content items, dually indexed by id and href.
// Invariant: id and href are each globally unique; both indices always
// point at the same physical position in items.
type Manifest struct {
	items    []ManifestItem
	byID     map[string]int
	byHref   map[string]int
	nextID   int
}

// NewManifest returns an empty manifest.
func NewManifest() *Manifest {
	return &Manifest{
		byID:   make(map[string]int),
		byHref: make(map[string]int),
		nextID: 1,
	}
}

// Len returns the number of items in the manifest.
func (m *Manifest) Len() int { return len(m.items) }

// Items returns the dense ordered list of items. Callers must not mutate
// the slice directly; use Add/Remove/Update.
func (m *Manifest) Items() []ManifestItem { return m.items }

// GenerateID returns a fresh, manifest-unique synthetic id with the given prefix.
func (m *Manifest) GenerateID(prefix string) string {
	for {
		id := fmt.Sprintf("%s%d", prefix, m.nextID)
		m.nextID++
		if _, exists := m.byID[id]; !exists {
			return id
		}
	}
}

// GenerateHref returns a fresh, manifest-unique href of the form
// "<prefix>.<ext>", disambiguating with a numeric suffix on collision.
func (m *Manifest) GenerateHref(prefix, ext string) string {
	href := fmt.Sprintf("%s.%s", prefix, ext)
	if _, exists := m.byHref[href]; !exists {
		return href
	}
	for n := 2; ; n++ {
		href = fmt.Sprintf("%s_%d.%s", prefix, n, ext)
		if _, exists := m.byHref[href]; !exists {
			return href
		}
	}
}

// Add inserts item, returning an error if its id or href already exists.
func (m *Manifest) Add(item ManifestItem) error {
	if _, exists := m.byID[item.ID]; exists {
		return fmt.Errorf("manifest: duplicate id %q", item.ID)
	}
	if _, exists := m.byHref[item.Href]; exists {
		return fmt.Errorf("manifest: duplicate href %q", item.Href)
	}
	idx := len(m.items)
	m.items = append(m.items, item)
	m.byID[item.ID] = idx
	m.byHref[item.Href] = idx
	return nil
}

// ByID returns the item with the given id, and whether it was found.
func (m *Manifest) ByID(id string) (*ManifestItem, bool) {
	idx, ok := m.byID[id]
	if !ok {
		return nil, false
	}
	return &m.items[idx], true
}

// ByHref returns the item with the given href, and whether it was found.
func (m *Manifest) ByHref(href string) (*ManifestItem, bool) {
	idx, ok := m.byHref[href]
	if !ok {
		return nil, false
	}
	return &m.items[idx], true
}

// Update replaces the item stored at id's position, rewriting both indices
// if the id or href changed. Returns an error if id is unknown, or if the
// new id/href collides with a different existing item.
func (m *Manifest) Update(id string, updated ManifestItem) error {
	idx, ok := m.byID[id]
	if !ok {
		return fmt.Errorf("manifest: update of unknown id %q", id)
	}
	if updated.ID != id {
		if _, exists := m.byID[updated.ID]; exists {
			return fmt.Errorf("manifest: duplicate id %q", updated.ID)
		}
	}
	old := m.items[idx]
	if updated.Href != old.Href {
		if existingIdx, exists := m.byHref[updated.Href]; exists && existingIdx != idx {
			return fmt.Errorf("manifest: duplicate href %q", updated.Href)
		}
	}
	m.items[idx] = updated
	if updated.ID != old.ID {
		delete(m.byID, old.ID)
		m.byID[updated.ID] = idx
	}
	if updated.Href != old.Href {
		delete(m.byHref, old.Href)
		m.byHref[updated.Href] = idx
	}
	return nil
}

// RemoveByID deletes the item with the given id, if present, and rebuilds
// both indices from scratch (removal is rare relative to lookup).
func (m *Manifest) RemoveByID(id string) {
	idx, ok := m.byID[id]
	if !ok {
		return
	}
	m.items = append(m.items[:idx], m.items[idx+1:]...)
	m.rebuildIndices()
}

// RemoveIf deletes every item for which remove returns true, then rebuilds
// both indices once.
func (m *Manifest) RemoveIf(remove func(ManifestItem) bool) {
	kept := m.items[:0:0]
	for _, item := range m.items {
		if !remove(item) {
			kept = append(kept, item)
		}
	}
	m.items = kept
	m.rebuildIndices()
}

func (m *Manifest) rebuildIndices() {
	m.byID = make(map[string]int, len(m.items))
	m.byHref = make(map[string]int, len(m.items))
	for i, item := range m.items {
		m.byID[item.ID] = i
		m.byHref[item.Href] = i
	}
}
