package prompt

import (
	"context"
	"sync"

	"github.com/heartmarshall/promptboard/internal/domain"
)

var _ profileResolver = &profileResolverMock{}

type profileResolverMock struct {
	ResolveFunc func(ctx context.Context, authors []domain.AuthorRef) (map[string]*domain.User, error)

	calls struct {
		Resolve []struct {
			Ctx     context.Context
			Authors []domain.AuthorRef
		}
	}
	lockResolve sync.RWMutex
}

func (mock *profileResolverMock) Resolve(ctx context.Context, authors []domain.AuthorRef) (map[string]*domain.User, error) {
	if mock.ResolveFunc == nil {
		panic("profileResolverMock.ResolveFunc: method is nil but profileResolver.Resolve was just called")
	}
	callInfo := struct {
		Ctx     context.Context
		Authors []domain.AuthorRef
	}{Ctx: ctx, Authors: authors}
	mock.lockResolve.Lock()
	mock.calls.Resolve = append(mock.calls.Resolve, callInfo)
	mock.lockResolve.Unlock()
	return mock.ResolveFunc(ctx, authors)
}

func (mock *profileResolverMock) ResolveCalls() []struct {
	Ctx     context.Context
	Authors []domain.AuthorRef
} {
	mock.lockResolve.RLock()
	calls := mock.calls.Resolve
	mock.lockResolve.RUnlock()
	return calls
}
