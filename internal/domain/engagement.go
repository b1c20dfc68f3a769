package domain

import "time"

// Like records an actor liking an entry.
type Like struct {
	ID        string    `json:"-"`
	EntryID   string    `json:"entryId"`
	Author    AuthorRef `json:"author"`
	CreatedAt time.Time `json:"created"`
}

// Share records an actor sharing an entry to an external target.
type Share struct {
	ID        string    `json:"-"`
	EntryID   string    `json:"entryId"`
	Author    AuthorRef `json:"author"`
	Target    string    `json:"target"`
	CreatedAt time.Time `json:"created"`
}
