package comment

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/heartmarshall/promptboard/internal/domain"
)

// AddCommentInput holds the parameters for a new comment or reply.
type AddCommentInput struct {
	Text string
}

// Validate checks the comment text.
func (i AddCommentInput) Validate() error {
	return validateText(i.Text)
}

func validateText(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.NewValidationError("text", "required")
	}
	if utf8.RuneCountInString(text) > MaxTextLength {
		return domain.NewValidationError("text", fmt.Sprintf("max %d characters", MaxTextLength))
	}
	return nil
}
