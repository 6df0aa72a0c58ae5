package conversation

import (
	"context"
	"testing"

	"leadchat-server/services/routing-api/internal/utils/platformerrors"
)

func TestTransitionOutcome(t *testing.T) {
	ctx := context.Background()

	if got := transitionOutcome(nil); got != "applied" {
		t.Fatalf("nil error: got %q, want applied", got)
	}

	conflict := platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeConflictingTransition, "status changed", nil, "11111111-2222-4333-8444-555555555555")
	if got := transitionOutcome(conflict); got != "conflict" {
		t.Fatalf("conflicting transition: got %q, want conflict", got)
	}

	invalid := platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeInvalidTransition, "conversation is closed", nil, "66666666-7777-4888-9999-aaaaaaaaaaaa")
	if got := transitionOutcome(invalid); got != "rejected" {
		t.Fatalf("invalid transition: got %q, want rejected", got)
	}
}
