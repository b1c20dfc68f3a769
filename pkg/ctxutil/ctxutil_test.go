package ctxutil

import (
	"context"
	"testing"
)

func TestWithOperationID_And_OperationIDFromCtx(t *testing.T) {
	t.Parallel()

	ctx := WithOperationID(context.Background(), "op-1")

	got, ok := OperationIDFromCtx(ctx)
	if !ok {
		t.Fatal("expected ok=true for stored id")
	}
	if got != "op-1" {
		t.Fatalf("expected op-1, got %s", got)
	}
}

func TestOperationIDFromCtx_EmptyContext(t *testing.T) {
	t.Parallel()

	got, ok := OperationIDFromCtx(context.Background())
	if ok {
		t.Fatal("expected ok=false for empty context")
	}
	if got != "" {
		t.Fatalf("expected empty string, got %q", got)
	}
}

func TestOperationIDFromCtx_EmptyValue(t *testing.T) {
	t.Parallel()

	ctx := WithOperationID(context.Background(), "")

	if _, ok := OperationIDFromCtx(ctx); ok {
		t.Fatal("expected ok=false for empty id")
	}
}

func TestOperationIDFromCtx_WrongType(t *testing.T) {
	t.Parallel()

	ctx := context.WithValue(context.Background(), ctxKey("operation_id"), 42)

	if _, ok := OperationIDFromCtx(ctx); ok {
		t.Fatal("expected ok=false for wrong type")
	}
}
