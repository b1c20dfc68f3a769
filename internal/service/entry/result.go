package entry

import "github.com/heartmarshall/promptboard/internal/domain"

// EntryDetail is an entry with its resolved author and prompt.
type EntryDetail struct {
	Entry  domain.Entry
	Author *domain.User
	Prompt *domain.Prompt
}
