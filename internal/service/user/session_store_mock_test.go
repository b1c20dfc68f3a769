package user

import (
	"context"
	"sync"

	"github.com/heartmarshall/promptboard/internal/auth"
)

var _ sessionStore = &sessionStoreMock{}

type sessionStoreMock struct {
	SaveFunc   func(ctx context.Context, tokenHash string, sess auth.Session) error
	LookupFunc func(ctx context.Context, tokenHash string) (auth.Session, error)
	RevokeFunc func(ctx context.Context, tokenHash string) error

	calls struct {
		Save []struct {
			Ctx       context.Context
			TokenHash string
			Sess      auth.Session
		}
		Lookup []struct {
			Ctx       context.Context
			TokenHash string
		}
		Revoke []struct {
			Ctx       context.Context
			TokenHash string
		}
	}
	lockSave   sync.RWMutex
	lockLookup sync.RWMutex
	lockRevoke sync.RWMutex
}

func (mock *sessionStoreMock) Save(ctx context.Context, tokenHash string, sess auth.Session) error {
	if mock.SaveFunc == nil {
		panic("sessionStoreMock.SaveFunc: method is nil but sessionStore.Save was just called")
	}
	callInfo := struct {
		Ctx       context.Context
		TokenHash string
		Sess      auth.Session
	}{Ctx: ctx, TokenHash: tokenHash, Sess: sess}
	mock.lockSave.Lock()
	mock.calls.Save = append(mock.calls.Save, callInfo)
	mock.lockSave.Unlock()
	return mock.SaveFunc(ctx, tokenHash, sess)
}

func (mock *sessionStoreMock) SaveCalls() []struct {
	Ctx       context.Context
	TokenHash string
	Sess      auth.Session
} {
	mock.lockSave.RLock()
	calls := mock.calls.Save
	mock.lockSave.RUnlock()
	return calls
}

func (mock *sessionStoreMock) Lookup(ctx context.Context, tokenHash string) (auth.Session, error) {
	if mock.LookupFunc == nil {
		panic("sessionStoreMock.LookupFunc: method is nil but sessionStore.Lookup was just called")
	}
	callInfo := struct {
		Ctx       context.Context
		TokenHash string
	}{Ctx: ctx, TokenHash: tokenHash}
	mock.lockLookup.Lock()
	mock.calls.Lookup = append(mock.calls.Lookup, callInfo)
	mock.lockLookup.Unlock()
	return mock.LookupFunc(ctx, tokenHash)
}

func (mock *sessionStoreMock) LookupCalls() []struct {
	Ctx       context.Context
	TokenHash string
} {
	mock.lockLookup.RLock()
	calls := mock.calls.Lookup
	mock.lockLookup.RUnlock()
	return calls
}

func (mock *sessionStoreMock) Revoke(ctx context.Context, tokenHash string) error {
	if mock.RevokeFunc == nil {
		panic("sessionStoreMock.RevokeFunc: method is nil but sessionStore.Revoke was just called")
	}
	callInfo := struct {
		Ctx       context.Context
		TokenHash string
	}{Ctx: ctx, TokenHash: tokenHash}
	mock.lockRevoke.Lock()
	mock.calls.Revoke = append(mock.calls.Revoke, callInfo)
	mock.lockRevoke.Unlock()
	return mock.RevokeFunc(ctx, tokenHash)
}

func (mock *sessionStoreMock) RevokeCalls() []struct {
	Ctx       context.Context
	TokenHash string
} {
	mock.lockRevoke.RLock()
	calls := mock.calls.Revoke
	mock.lockRevoke.RUnlock()
	return calls
}
