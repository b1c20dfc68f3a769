package engagement

import (
	"context"
	"sync"

	"github.com/heartmarshall/promptboard/internal/domain"
)

var _ actorResolver = &actorResolverMock{}

type actorResolverMock struct {
	ResolveActorFunc func(ctx context.Context) (domain.Actor, error)

	calls struct {
		ResolveActor []struct {
			Ctx context.Context
		}
	}
	lockResolveActor sync.RWMutex
}

func (mock *actorResolverMock) ResolveActor(ctx context.Context) (domain.Actor, error) {
	if mock.ResolveActorFunc == nil {
		panic("actorResolverMock.ResolveActorFunc: method is nil but actorResolver.ResolveActor was just called")
	}
	callInfo := struct{ Ctx context.Context }{Ctx: ctx}
	mock.lockResolveActor.Lock()
	mock.calls.ResolveActor = append(mock.calls.ResolveActor, callInfo)
	mock.lockResolveActor.Unlock()
	return mock.ResolveActorFunc(ctx)
}

func (mock *actorResolverMock) ResolveActorCalls() []struct{ Ctx context.Context } {
	mock.lockResolveActor.RLock()
	calls := mock.calls.ResolveActor
	mock.lockResolveActor.RUnlock()
	return calls
}
