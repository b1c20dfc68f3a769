package domain

import (
	"fmt"
	"time"
)

// Comment is a comment on an entry, optionally a reply to another comment.
type Comment struct {
	ID            string     `json:"id"`
	EntryID       string     `json:"-"`
	ParentID      string     `json:"parentId,omitempty"`
	Author        AuthorRef  `json:"author"`
	AuthorProfile *User      `json:"-"`
	Text          string     `json:"text"`
	IsAnonymous   bool       `json:"isAnonymous"`
	CreatedAt     time.Time  `json:"created"`
	UpdatedAt     *time.Time `json:"updated,omitempty"`
	Likes         LikeSet    `json:"likes"`
}

// IsReply reports whether the comment belongs to a thread.
func (c Comment) IsReply() bool { return c.ParentID != "" }

// NewCommentID builds the "<epochMillis>-<authorRef>" comment id.
func NewCommentID(now time.Time, authorRef string) string {
	return fmt.Sprintf("%d-%s", now.UnixMilli(), authorRef)
}
