package docstore

import "context"

// Tx is the view of the backend inside RunTransaction. Reads observe the
// transaction's writes; all writes commit together or not at all.
type Tx interface {
	Get(ctx context.Context, path Path) (Document, error)
	Set(ctx context.Context, path Path, value any) error
	Update(ctx context.Context, path Path, fields Fields) error
	Delete(ctx context.Context, path Path) error
}
