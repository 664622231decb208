package book

// PageProgressionDirection is the optional reading direction of the spine.
type PageProgressionDirection string

const (
	DirectionLTR PageProgressionDirection = "ltr"
	DirectionRTL PageProgressionDirection = "rtl"
)

// SpineItemRef is one entry in the reading order: a reference into the
// manifest by id, tagged linear or non-linear.
type SpineItemRef struct {
	IDRef  string
	Linear bool
}

// Spine is the ordered reading-order list of manifest references.
type Spine struct {
	items     []SpineItemRef
	Direction *PageProgressionDirection
}

// NewSpine returns an empty, linear-by-default spine.
func NewSpine() *Spine {
	return &Spine{}
}

// Len returns the number of entries in the spine.
func (s *Spine) Len() int { return len(s.items) }

// Items returns the ordered entries.
func (s *Spine) Items() []SpineItemRef { return s.items }

// Push appends idref at the end of the spine, linear by default.
func (s *Spine) Push(idref string, linear bool) {
	s.items = append(s.items, SpineItemRef{IDRef: idref, Linear: linear})
}

// Insert places idref at position i, shifting subsequent entries right.
// If i is out of range it is clamped to [0, len].
func (s *Spine) Insert(i int, idref string, linear bool) {
	if i < 0 {
		i = 0
	}
	if i > len(s.items) {
		i = len(s.items)
	}
	s.items = append(s.items, SpineItemRef{})
	copy(s.items[i+1:], s.items[i:])
	s.items[i] = SpineItemRef{IDRef: idref, Linear: linear}
}

// ReplaceAt swaps the single entry at position i for the given ordered
// replacement entries (used by SplitChapters to expand one spine slot into
// several chunk entries at the same position).
func (s *Spine) ReplaceAt(i int, replacements []SpineItemRef) {
	if i < 0 || i >= len(s.items) {
		return
	}
	tail := append([]SpineItemRef{}, s.items[i+1:]...)
	s.items = append(s.items[:i], replacements...)
	s.items = append(s.items, tail...)
}

// RemoveByIDRef deletes every entry referencing idref.
func (s *Spine) RemoveByIDRef(idref string) {
	kept := s.items[:0:0]
	for _, it := range s.items {
		if it.IDRef != idref {
			kept = append(kept, it)
		}
	}
	s.items = kept
}

// LinearItems returns only the entries marked linear, in order.
func (s *Spine) LinearItems() []SpineItemRef {
	var out []SpineItemRef
	for _, it := range s.items {
		if it.Linear {
			out = append(out, it)
		}
	}
	return out
}

// IndexOf returns the position of idref's first occurrence, or -1.
func (s *Spine) IndexOf(idref string) int {
	for i, it := range s.items {
		if it.IDRef == idref {
			return i
		}
	}
	return -1
}
