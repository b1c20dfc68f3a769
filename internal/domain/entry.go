package domain

import (
	"fmt"
	"strings"
	"time"
)

// Entry is a response to a prompt. PromptID is explicit; the id prefix is
// never parsed to recover the parent.
type Entry struct {
	ID        string     `json:"-"`
	PromptID  string     `json:"promptId"`
	Slug      string     `json:"slug"`
	Title     string     `json:"title"`
	Text      string     `json:"text"`
	ImageURL  string     `json:"imageURL,omitempty"`
	Author    AuthorRef  `json:"author"`
	CreatedAt time.Time  `json:"created"`
	UpdatedAt *time.Time `json:"updated,omitempty"`
	Version   int64      `json:"-"`
}

// Summary returns the denormalized view kept inside the parent Prompt.
func (e Entry) Summary(author *User) EntrySummary {
	return EntrySummary{
		ID:        e.ID,
		Slug:      e.Slug,
		Title:     e.Title,
		ImageURL:  e.ImageURL,
		Author:    e.Author,
		Profile:   author,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
		Version:   e.Version,
	}
}

// ImagePath is the blob path of the entry's image.
func (e Entry) ImagePath() string { return EntryImagePath(e.ID) }

// EntrySummary is the lightweight entry kept in Prompt.Entries.
type EntrySummary struct {
	ID        string
	Slug      string
	Title     string
	ImageURL  string
	Author    AuthorRef
	Profile   *User
	CreatedAt time.Time
	UpdatedAt *time.Time
	Version   int64
}

// NewEntryID mints an entry id in the "<promptId>T<epochMillis>" form used
// by existing documents.
func NewEntryID(promptID string, now time.Time) string {
	return fmt.Sprintf("%sT%d", promptID, now.UnixMilli())
}

// LegacyPromptID derives the parent prompt for documents written before the
// promptId field existed. New code must read Entry.PromptID instead.
func LegacyPromptID(entryID string) (string, bool) {
	promptID, _, ok := strings.Cut(entryID, "T")
	if !ok || promptID == "" {
		return "", false
	}
	return promptID, true
}

// EntryImagePath is the blob path holding an entry image.
func EntryImagePath(entryID string) string {
	return "images/entry-" + entryID
}

// EntryLockKey is the operation key every store uses for writes touching
// entryID.
func EntryLockKey(entryID string) string { return "entry:" + entryID }

// EnsurePromptID fills PromptID from the legacy id form for documents stored
// before the field existed. It reports whether the fallback was used.
func (e *Entry) EnsurePromptID() (bool, error) {
	if e.PromptID != "" {
		return false, nil
	}
	promptID, ok := LegacyPromptID(e.ID)
	if !ok {
		return false, NewValidationError("promptId", fmt.Sprintf("entry %q has no prompt", e.ID))
	}
	e.PromptID = promptID
	return true, nil
}
