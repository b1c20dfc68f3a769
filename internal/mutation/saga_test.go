package mutation

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/promptboard/internal/adapter/memory"
	"github.com/heartmarshall/promptboard/internal/domain"
)

func recorder(trace *[]string, name string, err error) func(context.Context) error {
	return func(context.Context) error {
		*trace = append(*trace, name)
		return err
	}
}

func TestSaga_Run_AllStepsSucceed(t *testing.T) {
	t.Parallel()

	var trace []string
	err := NewSaga(testLogger(), "test.op", "s1").
		Step("one", recorder(&trace, "do-one", nil), recorder(&trace, "undo-one", nil)).
		Step("two", recorder(&trace, "do-two", nil), recorder(&trace, "undo-two", nil)).
		Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"do-one", "do-two"}, trace)
}

func TestSaga_Run_CompensatesInReverseOrder(t *testing.T) {
	t.Parallel()

	var trace []string
	stepErr := domain.RemoteWriteFailed("delete blob", errors.New("unavailable"))

	err := NewSaga(testLogger(), "test.op", "s1").
		Step("one", recorder(&trace, "do-one", nil), recorder(&trace, "undo-one", nil)).
		Step("two", recorder(&trace, "do-two", nil), recorder(&trace, "undo-two", nil)).
		Step("three", recorder(&trace, "do-three", stepErr), recorder(&trace, "undo-three", nil)).
		Run(context.Background())

	require.ErrorIs(t, err, domain.ErrPartialCascade)
	require.ErrorIs(t, err, domain.ErrRemoteWrite)

	var cerr *domain.CascadeError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "three", cerr.FailedStep)
	assert.Equal(t, []string{"one", "two"}, cerr.Completed)
	assert.True(t, cerr.Consistent())
	assert.Equal(t, []string{"do-one", "do-two", "do-three", "undo-two", "undo-one"}, trace)
}

func TestSaga_Run_FirstStepFailureIsReturnedAsIs(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	var trace []string

	err := NewSaga(testLogger(), "test.op", "s1").
		Step("one", recorder(&trace, "do-one", boom), recorder(&trace, "undo-one", nil)).
		Step("two", recorder(&trace, "do-two", nil), nil).
		Run(context.Background())

	require.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, domain.ErrPartialCascade)
	assert.Equal(t, []string{"do-one"}, trace)
}

func TestSaga_Run_CompensationFailureIsReported(t *testing.T) {
	t.Parallel()

	var trace []string
	undoErr := errors.New("undo failed")

	err := NewSaga(testLogger(), "test.op", "s1").
		Step("one", recorder(&trace, "do-one", nil), recorder(&trace, "undo-one", undoErr)).
		Step("two", recorder(&trace, "do-two", errors.New("x")), nil).
		Run(context.Background())

	var cerr *domain.CascadeError
	require.ErrorAs(t, err, &cerr)
	assert.False(t, cerr.Consistent())
	assert.ErrorIs(t, cerr.CompensationErrors["one"], undoErr)
}

func TestSaga_Run_PersistsProgress(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		failSecond bool
		undoFails  bool
		wantStatus domain.OperationStatus
		wantSteps  []string
	}{
		{name: "committed", wantStatus: domain.OperationCommitted, wantSteps: []string{"one", "two"}},
		{name: "compensated", failSecond: true, wantStatus: domain.OperationCompensated, wantSteps: []string{"one"}},
		{name: "failed", failSecond: true, undoFails: true, wantStatus: domain.OperationFailed, wantSteps: []string{"one"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			docs := memory.NewDocStore()
			oplog := NewDocLog(docs)

			var secondErr, undoErr error
			if tt.failSecond {
				secondErr = errors.New("second")
			}
			if tt.undoFails {
				undoErr = errors.New("undo")
			}
			var trace []string

			_ = NewSaga(testLogger(), domain.OperationEntryDelete, "P1T0").
				WithLog(oplog).
				WithPayload(map[string]string{"promptId": "P1"}).
				Step("one", recorder(&trace, "do-one", nil), recorder(&trace, "undo-one", undoErr)).
				Step("two", recorder(&trace, "do-two", secondErr), nil).
				Run(context.Background())

			docsOut, err := docs.Query(context.Background(), OperationsCollection)
			require.NoError(t, err)
			require.Len(t, docsOut, 1)

			var op domain.Operation
			require.NoError(t, docsOut[0].DataTo(&op))
			assert.Equal(t, tt.wantStatus, op.Status)
			assert.Equal(t, tt.wantSteps, op.Steps)
			assert.Equal(t, "P1T0", op.Subject)
			assert.Equal(t, "P1", op.Payload["promptId"])

			pending, err := oplog.Pending(context.Background())
			require.NoError(t, err)
			assert.Empty(t, pending)
		})
	}
}

func TestSaga_Run_BeginFailureRunsNothing(t *testing.T) {
	t.Parallel()

	docs := memory.NewDocStore()
	docs.SetFault(func(op, _ string) error {
		if op == "set" {
			return fmt.Errorf("backend down")
		}
		return nil
	})
	var trace []string

	err := NewSaga(testLogger(), "test.op", "s1").
		WithLog(NewDocLog(docs)).
		Step("one", recorder(&trace, "do-one", nil), nil).
		Run(context.Background())

	require.ErrorIs(t, err, domain.ErrRemoteWrite)
	assert.Empty(t, trace)
}

func TestDocLog_Pending(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	oplog := NewDocLog(memory.NewDocStore())

	id1, err := oplog.Begin(ctx, domain.Operation{Kind: domain.OperationEntryCreate, Subject: "P1T1"})
	require.NoError(t, err)
	id2, err := oplog.Begin(ctx, domain.Operation{Kind: domain.OperationEntryDelete, Subject: "P1T2"})
	require.NoError(t, err)
	require.NoError(t, oplog.StepDone(ctx, id2, "prompt-ref"))
	require.NoError(t, oplog.StepDone(ctx, id2, "prompt-ref"))
	require.NoError(t, oplog.Finish(ctx, id1, domain.OperationCommitted, nil))

	pending, err := oplog.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, id2, pending[0].ID)
	assert.Equal(t, []string{"prompt-ref"}, pending[0].Steps)
	assert.Equal(t, domain.OperationPending, pending[0].Status)
}

func TestDocLog_FinishMissing(t *testing.T) {
	t.Parallel()

	err := NewDocLog(memory.NewDocStore()).Finish(context.Background(), "nope", domain.OperationCommitted, nil)

	require.ErrorIs(t, err, domain.ErrNotFound)
}
