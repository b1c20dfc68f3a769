package entry

import (
	"strings"

	"github.com/heartmarshall/promptboard/internal/domain"
)

const (
	maxTitleLength = 200
	maxTextLength  = 20000
	maxSlugLength  = 200
)

// AddEntryInput holds the parameters for a new entry. ID is optional; when
// empty a new id is minted from PromptID.
type AddEntryInput struct {
	ID       string
	PromptID string
	Slug     string
	Title    string
	Text     string
	ImageURL string
}

// Validate checks all fields and collects all errors.
func (i AddEntryInput) Validate() error {
	var errs []domain.FieldError

	if strings.TrimSpace(i.PromptID) == "" {
		errs = append(errs, domain.FieldError{Field: "prompt_id", Message: "required"})
	}
	if i.ID != "" && !strings.HasPrefix(i.ID, i.PromptID+"T") {
		errs = append(errs, domain.FieldError{Field: "id", Message: "must belong to the prompt"})
	}
	slug := strings.TrimSpace(i.Slug)
	if slug == "" {
		errs = append(errs, domain.FieldError{Field: "slug", Message: "required"})
	}
	if len(slug) > maxSlugLength {
		errs = append(errs, domain.FieldError{Field: "slug", Message: "max 200 characters"})
	}
	errs = append(errs, validateContent(i.Title, i.Text)...)

	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

// EditEntryInput holds the new content of an entry. Version is the version
// the caller last read.
type EditEntryInput struct {
	ID       string
	Title    string
	Text     string
	ImageURL string
	Version  int64
}

// Validate checks all fields and collects all errors.
func (i EditEntryInput) Validate() error {
	var errs []domain.FieldError

	if i.ID == "" {
		errs = append(errs, domain.FieldError{Field: "id", Message: "required"})
	}
	if i.Version <= 0 {
		errs = append(errs, domain.FieldError{Field: "version", Message: "required"})
	}
	errs = append(errs, validateContent(i.Title, i.Text)...)

	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

func validateContent(title, text string) []domain.FieldError {
	var errs []domain.FieldError
	title = strings.TrimSpace(title)
	if title == "" {
		errs = append(errs, domain.FieldError{Field: "title", Message: "required"})
	}
	if len([]rune(title)) > maxTitleLength {
		errs = append(errs, domain.FieldError{Field: "title", Message: "max 200 characters"})
	}
	if len([]rune(text)) > maxTextLength {
		errs = append(errs, domain.FieldError{Field: "text", Message: "max 20000 characters"})
	}
	return errs
}
