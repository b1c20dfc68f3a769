package user

import (
	"net/url"
	"strings"

	"github.com/heartmarshall/promptboard/internal/docstore"
	"github.com/heartmarshall/promptboard/internal/domain"
)

const (
	maxDisplayNameLength = 100
	maxPhotoURLLength    = 2048
)

// UpdateProfileInput holds the editable profile fields. Nil fields are left
// unchanged.
type UpdateProfileInput struct {
	DisplayName *string
	PhotoURL    *string
}

// Validate validates the update profile input.
func (i UpdateProfileInput) Validate() error {
	var errs []domain.FieldError

	if i.DisplayName == nil && i.PhotoURL == nil {
		errs = append(errs, domain.FieldError{Field: "input", Message: "nothing to update"})
	}

	if i.DisplayName != nil {
		name := strings.TrimSpace(*i.DisplayName)
		if name == "" {
			errs = append(errs, domain.FieldError{Field: "display_name", Message: "required"})
		} else if len([]rune(name)) > maxDisplayNameLength {
			errs = append(errs, domain.FieldError{Field: "display_name", Message: "too long"})
		}
	}

	if i.PhotoURL != nil && *i.PhotoURL != "" {
		if len(*i.PhotoURL) > maxPhotoURLLength {
			errs = append(errs, domain.FieldError{Field: "photo_url", Message: "too long"})
		} else if u, err := url.Parse(*i.PhotoURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, domain.FieldError{Field: "photo_url", Message: "must be an http(s) url"})
		}
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

func (i UpdateProfileInput) fields() docstore.Fields {
	out := docstore.Fields{}
	if i.DisplayName != nil {
		out["displayName"] = strings.TrimSpace(*i.DisplayName)
	}
	if i.PhotoURL != nil {
		out["photoURL"] = *i.PhotoURL
	}
	return out
}
