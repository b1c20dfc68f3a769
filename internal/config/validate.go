package config

import (
	"errors"
	"fmt"
)

const (
	minSecretLen         = 32
	maxFingerprintKeyLen = 64
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if err := c.Documents.validate(); err != nil {
		return fmt.Errorf("documents: %w", err)
	}
	if err := c.Blob.validate(); err != nil {
		return fmt.Errorf("blob: %w", err)
	}

	if len(c.Session.Secret) < minSecretLen {
		return fmt.Errorf("session.secret must be at least %d characters (got %d)", minSecretLen, len(c.Session.Secret))
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("session.ttl must be > 0 (got %s)", c.Session.TTL)
	}

	if n := len(c.Identity.FingerprintKey); n < minSecretLen || n > maxFingerprintKeyLen {
		return fmt.Errorf("identity.fingerprint_key must be %d..%d characters (got %d)", minSecretLen, maxFingerprintKeyLen, n)
	}

	if !c.Auth.HasGoogleOAuth() {
		return errors.New("auth: google_client_id and google_client_secret are required")
	}

	return nil
}

func (d *DocumentsConfig) validate() error {
	switch d.Driver {
	case DriverPostgres:
		if d.DSN == "" {
			return errors.New("dsn is required for the postgres driver")
		}
		if d.MaxConns <= 0 || d.MinConns < 0 || d.MinConns > d.MaxConns {
			return fmt.Errorf("invalid pool sizing: min_conns=%d max_conns=%d", d.MinConns, d.MaxConns)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown driver %q", d.Driver)
	}
	return nil
}

func (b *BlobConfig) validate() error {
	switch b.Driver {
	case BlobDriverMinio:
		if b.Endpoint == "" {
			return errors.New("endpoint is required for the minio driver")
		}
	case BlobDriverS3:
	case BlobDriverMemory:
		return nil
	default:
		return fmt.Errorf("unknown driver %q", b.Driver)
	}

	if b.Bucket == "" {
		return errors.New("bucket is required")
	}
	if b.URLExpiry <= 0 {
		return fmt.Errorf("url_expiry must be > 0 (got %s)", b.URLExpiry)
	}
	return nil
}
