package domain

import "encoding/json"

// LikeSet is an insertion-ordered set of actor refs. It is immutable: With
// returns a new set, so cached comments are never mutated in place.
type LikeSet struct {
	ids []string
}

// NewLikeSet builds a set from refs, dropping duplicates and empty refs.
func NewLikeSet(refs ...string) LikeSet {
	var s LikeSet
	for _, r := range refs {
		s = s.With(r)
	}
	return s
}

// Has reports whether ref is in the set.
func (s LikeSet) Has(ref string) bool {
	for _, id := range s.ids {
		if id == ref {
			return true
		}
	}
	return false
}

// With returns a set that also contains ref. Adding an existing member
// returns s unchanged.
func (s LikeSet) With(ref string) LikeSet {
	if ref == "" || s.Has(ref) {
		return s
	}
	ids := make([]string, len(s.ids), len(s.ids)+1)
	copy(ids, s.ids)
	return LikeSet{ids: append(ids, ref)}
}

// Len returns the number of distinct likers.
func (s LikeSet) Len() int { return len(s.ids) }

// Refs returns a copy of the members in insertion order.
func (s LikeSet) Refs() []string {
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out
}

func (s LikeSet) MarshalJSON() ([]byte, error) {
	if s.ids == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.ids)
}

func (s *LikeSet) UnmarshalJSON(data []byte) error {
	var refs []string
	if err := json.Unmarshal(data, &refs); err != nil {
		return err
	}
	*s = NewLikeSet(refs...)
	return nil
}
