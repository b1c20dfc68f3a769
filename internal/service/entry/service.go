// Package entry is the entries store. Entry summaries live in the prompt
// store, which this store patches after its remote writes succeed.
package entry

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/heartmarshall/promptboard/internal/docstore"
	"github.com/heartmarshall/promptboard/internal/domain"
	"github.com/heartmarshall/promptboard/internal/mutation"
)

type documents interface {
	Get(ctx context.Context, path docstore.Path) (docstore.Document, error)
	Query(ctx context.Context, collection docstore.CollectionPath, filters ...docstore.Filter) ([]docstore.Document, error)
	Set(ctx context.Context, path docstore.Path, value any) error
	Update(ctx context.Context, path docstore.Path, fields docstore.Fields) error
	Delete(ctx context.Context, path docstore.Path) error
	RunTransaction(ctx context.Context, fn func(ctx context.Context, tx docstore.Tx) error) error
}

type blobStore interface {
	Upload(ctx context.Context, path string, r io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, path string) error
	DownloadURL(ctx context.Context, path string) (string, error)
}

type promptCache interface {
	UpsertEntry(promptID string, summary domain.EntrySummary) bool
	RemoveEntry(promptID, entryID string) bool
	FindEntry(entryID string) (string, domain.EntrySummary, bool)
}

type engagementStore interface {
	DeleteEntryLikes(ctx context.Context, entryID string) ([]domain.Like, error)
	RestoreLikes(ctx context.Context, likes []domain.Like) error
	DeleteEntryShares(ctx context.Context, entryID string) ([]domain.Share, error)
	RestoreShares(ctx context.Context, shares []domain.Share) error
}

type actorResolver interface {
	ResolveActor(ctx context.Context) (domain.Actor, error)
}

type profileResolver interface {
	Lookup(ctx context.Context, author domain.AuthorRef) (*domain.User, error)
}

// Service is the entries store.
type Service struct {
	docs       documents
	blobs      blobStore
	prompts    promptCache
	engagement engagementStore
	actors     actorResolver
	profiles   profileResolver
	oplog      mutation.OpLog
	ctrl       *mutation.Controller
	log        *slog.Logger
	now        func() time.Time
}

// NewService creates a new entries store. oplog may be nil, in which case
// sagas are not persisted and RecoverPending does nothing.
func NewService(
	log *slog.Logger,
	docs documents,
	blobs blobStore,
	prompts promptCache,
	engagement engagementStore,
	actors actorResolver,
	profiles profileResolver,
	oplog mutation.OpLog,
	opts ...mutation.Option,
) *Service {
	logger := log.With("service", "entry")
	return &Service{
		docs:       docs,
		blobs:      blobs,
		prompts:    prompts,
		engagement: engagement,
		actors:     actors,
		profiles:   profiles,
		oplog:      oplog,
		ctrl:       mutation.NewController(logger, opts...),
		log:        logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// IsLoading reports whether an operation is in flight.
func (s *Service) IsLoading() bool { return s.ctrl.IsLoading() }

// NewEntryID mints the id of a new entry under promptID. Callers that upload
// an image before creating the entry use it to know the id in advance.
func (s *Service) NewEntryID(promptID string) string {
	return domain.NewEntryID(promptID, s.now())
}

func (s *Service) saga(kind, subject string) *mutation.Saga {
	sg := mutation.NewSaga(s.log, kind, subject)
	if s.oplog != nil {
		sg.WithLog(s.oplog)
	}
	return sg
}

func entryKey(id string) string { return domain.EntryLockKey(id) }

// decode reads an entry document, deriving the prompt of legacy documents.
func (s *Service) decode(ctx context.Context, doc docstore.Document) (domain.Entry, error) {
	var e domain.Entry
	if err := doc.DataTo(&e); err != nil {
		return domain.Entry{}, err
	}
	e.ID, e.Version = doc.ID(), doc.Version

	legacy, err := e.EnsurePromptID()
	if err != nil {
		return domain.Entry{}, err
	}
	if legacy {
		s.log.WarnContext(ctx, "entry prompt derived from legacy id",
			slog.String("entry_id", e.ID),
			slog.String("prompt_id", e.PromptID),
		)
	}
	return e, nil
}
