package entry

import (
	"sync"

	"github.com/heartmarshall/promptboard/internal/domain"
)

var _ promptCache = &promptCacheMock{}

type promptCacheMock struct {
	UpsertEntryFunc func(promptID string, summary domain.EntrySummary) bool
	RemoveEntryFunc func(promptID, entryID string) bool
	FindEntryFunc   func(entryID string) (string, domain.EntrySummary, bool)

	calls struct {
		UpsertEntry []struct {
			PromptID string
			Summary  domain.EntrySummary
		}
		RemoveEntry []struct {
			PromptID string
			EntryID  string
		}
		FindEntry []struct {
			EntryID string
		}
	}
	lockUpsertEntry sync.RWMutex
	lockRemoveEntry sync.RWMutex
	lockFindEntry   sync.RWMutex
}

func (mock *promptCacheMock) UpsertEntry(promptID string, summary domain.EntrySummary) bool {
	if mock.UpsertEntryFunc == nil {
		panic("promptCacheMock.UpsertEntryFunc: method is nil but promptCache.UpsertEntry was just called")
	}
	callInfo := struct {
		PromptID string
		Summary  domain.EntrySummary
	}{PromptID: promptID, Summary: summary}
	mock.lockUpsertEntry.Lock()
	mock.calls.UpsertEntry = append(mock.calls.UpsertEntry, callInfo)
	mock.lockUpsertEntry.Unlock()
	return mock.UpsertEntryFunc(promptID, summary)
}

func (mock *promptCacheMock) UpsertEntryCalls() []struct {
	PromptID string
	Summary  domain.EntrySummary
} {
	mock.lockUpsertEntry.RLock()
	calls := mock.calls.UpsertEntry
	mock.lockUpsertEntry.RUnlock()
	return calls
}

func (mock *promptCacheMock) RemoveEntry(promptID, entryID string) bool {
	if mock.RemoveEntryFunc == nil {
		panic("promptCacheMock.RemoveEntryFunc: method is nil but promptCache.RemoveEntry was just called")
	}
	callInfo := struct {
		PromptID string
		EntryID  string
	}{PromptID: promptID, EntryID: entryID}
	mock.lockRemoveEntry.Lock()
	mock.calls.RemoveEntry = append(mock.calls.RemoveEntry, callInfo)
	mock.lockRemoveEntry.Unlock()
	return mock.RemoveEntryFunc(promptID, entryID)
}

func (mock *promptCacheMock) RemoveEntryCalls() []struct {
	PromptID string
	EntryID  string
} {
	mock.lockRemoveEntry.RLock()
	calls := mock.calls.RemoveEntry
	mock.lockRemoveEntry.RUnlock()
	return calls
}

func (mock *promptCacheMock) FindEntry(entryID string) (string, domain.EntrySummary, bool) {
	if mock.FindEntryFunc == nil {
		panic("promptCacheMock.FindEntryFunc: method is nil but promptCache.FindEntry was just called")
	}
	callInfo := struct{ EntryID string }{EntryID: entryID}
	mock.lockFindEntry.Lock()
	mock.calls.FindEntry = append(mock.calls.FindEntry, callInfo)
	mock.lockFindEntry.Unlock()
	return mock.FindEntryFunc(entryID)
}

func (mock *promptCacheMock) FindEntryCalls() []struct{ EntryID string } {
	mock.lockFindEntry.RLock()
	calls := mock.calls.FindEntry
	mock.lockFindEntry.RUnlock()
	return calls
}
