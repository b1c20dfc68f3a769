package domain

// Prompt is the aggregate root entries answer. Entries is denormalized for
// display; EntryRefs is the backend-side linkage ("entries/<id>").
type Prompt struct {
	ID        string         `json:"-"`
	Title     string         `json:"title"`
	Slug      string         `json:"slug"`
	Entries   []EntrySummary `json:"-"`
	EntryRefs []string       `json:"entries"`
}

// EntryIndex returns the position of entryID in Entries, or -1.
func (p Prompt) EntryIndex(entryID string) int {
	for i, e := range p.Entries {
		if e.ID == entryID {
			return i
		}
	}
	return -1
}
