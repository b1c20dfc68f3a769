package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/heartmarshall/promptboard/internal/adapter/blob/minio"
	"github.com/heartmarshall/promptboard/internal/adapter/blob/s3"
	"github.com/heartmarshall/promptboard/internal/adapter/memory"
	"github.com/heartmarshall/promptboard/internal/adapter/postgres"
	"github.com/heartmarshall/promptboard/internal/adapter/postgres/document"
	"github.com/heartmarshall/promptboard/internal/adapter/provider/cftrace"
	"github.com/heartmarshall/promptboard/internal/adapter/provider/google"
	"github.com/heartmarshall/promptboard/internal/adapter/redis/session"
	"github.com/heartmarshall/promptboard/internal/auth"
	"github.com/heartmarshall/promptboard/internal/config"
	"github.com/heartmarshall/promptboard/internal/docstore"
	"github.com/heartmarshall/promptboard/internal/identity"
	"github.com/heartmarshall/promptboard/internal/mutation"
	"github.com/heartmarshall/promptboard/internal/service/comment"
	"github.com/heartmarshall/promptboard/internal/service/engagement"
	"github.com/heartmarshall/promptboard/internal/service/entry"
	"github.com/heartmarshall/promptboard/internal/service/errreport"
	"github.com/heartmarshall/promptboard/internal/service/profile"
	"github.com/heartmarshall/promptboard/internal/service/prompt"
	"github.com/heartmarshall/promptboard/internal/service/user"
	"github.com/heartmarshall/promptboard/internal/transport/rest"
)

// documentBackend is the document gateway every driver provides.
type documentBackend interface {
	Get(ctx context.Context, path docstore.Path) (docstore.Document, error)
	GetAll(ctx context.Context, paths []docstore.Path) ([]docstore.Document, error)
	Query(ctx context.Context, collection docstore.CollectionPath, filters ...docstore.Filter) ([]docstore.Document, error)
	Set(ctx context.Context, path docstore.Path, value any) error
	Update(ctx context.Context, path docstore.Path, fields docstore.Fields) error
	Delete(ctx context.Context, path docstore.Path) error
	RunTransaction(ctx context.Context, fn func(ctx context.Context, tx docstore.Tx) error) error
	Ping(ctx context.Context) error
}

// blobBackend is the blob gateway every driver provides.
type blobBackend interface {
	Upload(ctx context.Context, path string, r io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, path string) error
	DownloadURL(ctx context.Context, path string) (string, error)
	Ping(ctx context.Context) error
}

// Container holds the wired stores and the backends they run on.
type Container struct {
	Docs     documentBackend
	Blobs    blobBackend
	Sessions *session.Store

	Identity   *identity.Resolver
	Errors     *errreport.Sink
	Users      *user.Service
	Prompts    *prompt.Service
	Entries    *entry.Service
	Comments   *comment.Service
	Engagement *engagement.Service

	closers []func()
}

// Build connects the configured backends and wires the stores. Close
// releases what Build opened, also after a failed Build.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	c := &Container{}
	if err := c.wire(ctx, cfg, logger); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Container) wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	var err error

	if c.Docs, err = c.openDocuments(ctx, cfg.Documents, logger); err != nil {
		return fmt.Errorf("documents: %w", err)
	}
	if c.Blobs, err = openBlobs(ctx, cfg.Blob, logger); err != nil {
		return fmt.Errorf("blob: %w", err)
	}

	c.Sessions, err = session.NewStore(ctx, cfg.Session.RedisURL)
	if err != nil {
		return fmt.Errorf("session store: %w", err)
	}
	c.closers = append(c.closers, func() { _ = c.Sessions.Close() })

	c.Errors = errreport.NewSink(logger, errreport.DefaultCapacity)
	opts := []mutation.Option{mutation.WithReporter(c.Errors), mutation.WithLocks(mutation.NewLocks())}

	tokens := auth.NewSessionManager(cfg.Session.Secret, cfg.Session.Issuer, cfg.Session.TTL)
	verifier := google.NewVerifier(cfg.Auth.GoogleClientID, cfg.Auth.GoogleClientSecret, cfg.Auth.GoogleRedirectURI, logger)
	c.Users = user.NewService(logger, c.Docs, verifier, tokens, c.Sessions, opts...)

	lookup := cftrace.NewProviderWithURL(cfg.Identity.LookupURL, cfg.Identity.Timeout, logger)
	c.Identity, err = identity.NewResolver(logger, c.Users, lookup, []byte(cfg.Identity.FingerprintKey))
	if err != nil {
		return err
	}

	profiles := profile.NewResolver(logger, c.Docs)
	c.Prompts = prompt.NewService(logger, c.Docs, profiles, opts...)
	c.Engagement = engagement.NewService(logger, c.Docs, c.Identity, uuid.NewString, opts...)
	c.Comments = comment.NewService(logger, c.Docs, c.Identity, profiles, opts...)
	c.Entries = entry.NewService(logger, c.Docs, c.Blobs, c.Prompts, c.Engagement, c.Identity, profiles,
		mutation.NewDocLog(c.Docs), opts...)

	return nil
}

func (c *Container) openDocuments(ctx context.Context, cfg config.DocumentsConfig, logger *slog.Logger) (documentBackend, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		logger.WarnContext(ctx, "using in-memory documents, data is lost on exit")
		return memory.NewDocStore(), nil
	case config.DriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, pool.Close)

		if cfg.AutoMigrate {
			if err := postgres.Migrate(ctx, pool, logger); err != nil {
				return nil, err
			}
		}
		return document.New(pool), nil
	}
	return nil, fmt.Errorf("unknown driver %q", cfg.Driver)
}

func openBlobs(ctx context.Context, cfg config.BlobConfig, logger *slog.Logger) (blobBackend, error) {
	switch cfg.Driver {
	case config.BlobDriverMemory:
		return memory.NewBlobStore(cfg.PublicURL), nil
	case config.BlobDriverMinio:
		store, err := minio.New(minio.Config{
			Endpoint:  cfg.Endpoint,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			Bucket:    cfg.Bucket,
			Region:    cfg.Region,
			UseSSL:    cfg.UseSSL,
			URLExpiry: cfg.URLExpiry,
		}, logger)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return store, nil
	case config.BlobDriverS3:
		return s3.New(ctx, s3.Config{
			Endpoint:  cfg.Endpoint,
			Region:    cfg.Region,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			Bucket:    cfg.Bucket,
			URLExpiry: cfg.URLExpiry,
		}, logger)
	}
	return nil, fmt.Errorf("unknown driver %q", cfg.Driver)
}

// Components returns the backends probed by the health endpoint.
func (c *Container) Components() map[string]rest.Pinger {
	return map[string]rest.Pinger{
		"documents": c.Docs,
		"blobs":     c.Blobs,
		"sessions":  c.Sessions,
	}
}

// Close releases backends in reverse order of opening.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}
