package entry

import (
	"context"
	"sync"

	"github.com/heartmarshall/promptboard/internal/domain"
)

var _ profileResolver = &profileResolverMock{}

type profileResolverMock struct {
	LookupFunc func(ctx context.Context, author domain.AuthorRef) (*domain.User, error)

	calls struct {
		Lookup []struct {
			Ctx    context.Context
			Author domain.AuthorRef
		}
	}
	lockLookup sync.RWMutex
}

func (mock *profileResolverMock) Lookup(ctx context.Context, author domain.AuthorRef) (*domain.User, error) {
	if mock.LookupFunc == nil {
		panic("profileResolverMock.LookupFunc: method is nil but profileResolver.Lookup was just called")
	}
	callInfo := struct {
		Ctx    context.Context
		Author domain.AuthorRef
	}{Ctx: ctx, Author: author}
	mock.lockLookup.Lock()
	mock.calls.Lookup = append(mock.calls.Lookup, callInfo)
	mock.lockLookup.Unlock()
	return mock.LookupFunc(ctx, author)
}

func (mock *profileResolverMock) LookupCalls() []struct {
	Ctx    context.Context
	Author domain.AuthorRef
} {
	mock.lockLookup.RLock()
	calls := mock.calls.Lookup
	mock.lockLookup.RUnlock()
	return calls
}
