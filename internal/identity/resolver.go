// Package identity resolves who is acting: the signed-in account, or an
// anonymous visitor identified by a keyed fingerprint of their network address.
package identity

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/crypto/blake2b"

	"github.com/heartmarshall/promptboard/internal/domain"
)

// accountSource reports the signed-in user, if any.
type accountSource interface {
	CurrentUser() (domain.User, bool)
}

// addressLookup asks an external service for the caller's network address.
type addressLookup interface {
	FetchCallerAddress(ctx context.Context) (string, error)
}

// Resolver builds the Actor for each write. Actors are never cached; only the
// last looked-up address is kept for the session.
type Resolver struct {
	log      *slog.Logger
	accounts accountSource
	lookup   addressLookup
	key      []byte

	mu      sync.RWMutex
	address string
}

// NewResolver creates a Resolver. key is the BLAKE2b MAC key (1 to 64 bytes).
func NewResolver(logger *slog.Logger, accounts accountSource, lookup addressLookup, key []byte) (*Resolver, error) {
	if len(key) == 0 || len(key) > blake2b.Size {
		return nil, fmt.Errorf("identity.NewResolver: fingerprint key must be 1..%d bytes, got %d", blake2b.Size, len(key))
	}
	return &Resolver{
		log:      logger.With("component", "identity"),
		accounts: accounts,
		lookup:   lookup,
		key:      append([]byte(nil), key...),
	}, nil
}

// ResolveActor returns the authenticated account when one is signed in,
// otherwise an anonymous actor fingerprinted from the caller's address.
func (r *Resolver) ResolveActor(ctx context.Context) (domain.Actor, error) {
	if u, ok := r.accounts.CurrentUser(); ok {
		return domain.AuthenticatedActor(u), nil
	}

	addr, err := r.resolveAddress(ctx)
	if err != nil {
		return domain.Actor{}, err
	}
	return domain.AnonymousActor(r.Fingerprint(addr)), nil
}

func (r *Resolver) resolveAddress(ctx context.Context) (string, error) {
	addr, err := r.lookup.FetchCallerAddress(ctx)
	if err == nil && addr != "" {
		r.mu.Lock()
		r.address = addr
		r.mu.Unlock()
		return addr, nil
	}
	if err == nil {
		err = fmt.Errorf("empty address")
	}

	if cached := r.Address(); cached != "" {
		r.log.WarnContext(ctx, "address lookup failed, using cached address",
			slog.String("error", err.Error()))
		return cached, nil
	}
	return "", domain.RemoteReadFailed("identity.ResolveActor", err)
}

// Address returns the last address obtained from the lookup.
func (r *Resolver) Address() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.address
}

// Fingerprint returns the hex keyed BLAKE2b-256 digest of address.
func (r *Resolver) Fingerprint(address string) string {
	h, err := blake2b.New256(r.key)
	if err != nil {
		// key length is checked in NewResolver
		panic(err)
	}
	h.Write([]byte(address))
	return hex.EncodeToString(h.Sum(nil))
}
