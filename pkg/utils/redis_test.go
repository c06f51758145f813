package utils

import (
	"context"
	"testing"
	"time"
)

func TestAuthFailureScriptCompiles(t *testing.T) {
	// Compile-time smoke test: script should be initialized.
	if authFailureScript == nil {
		t.Fatalf("expected script to be initialized")
	}
}

func TestRecordAuthFailure_RejectsBadArguments(t *testing.T) {
	ctx := context.Background()
	if _, err := RecordAuthFailure(ctx, nil, "k", 5, time.Minute, time.Minute); err == nil {
		t.Fatalf("expected error for nil client")
	}
}
