package entry

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/heartmarshall/promptboard/internal/domain"
	"github.com/heartmarshall/promptboard/internal/mutation"
)

// UploadImage stores the image of entryID and returns its download URL.
// Uploading again replaces the image.
func (s *Service) UploadImage(ctx context.Context, entryID string, r io.Reader, size int64, contentType string) (string, error) {
	path := domain.EntryImagePath(entryID)
	var url string
	err := s.ctrl.Run(ctx, mutation.Op{Name: "entry.upload_image", Key: entryKey(entryID)}, func(ctx context.Context) error {
		if err := validateImage(entryID, contentType); err != nil {
			return err
		}

		if err := s.blobs.Upload(ctx, path, r, size, contentType); err != nil {
			return domain.RemoteWriteFailed("entry.UploadImage", err)
		}

		u, err := s.blobs.DownloadURL(ctx, path)
		if err != nil {
			return domain.RemoteReadFailed("entry.UploadImage", err)
		}
		url = u
		return nil
	})
	if err != nil {
		return "", err
	}

	s.log.InfoContext(ctx, "entry image uploaded",
		slog.String("entry_id", entryID),
		slog.Int64("size", size),
	)
	return url, nil
}

func validateImage(entryID, contentType string) error {
	var errs []domain.FieldError
	if entryID == "" {
		errs = append(errs, domain.FieldError{Field: "entry_id", Message: "required"})
	}
	if !strings.HasPrefix(contentType, "image/") {
		errs = append(errs, domain.FieldError{Field: "content_type", Message: "must be an image"})
	}
	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}
