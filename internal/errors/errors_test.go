package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestKindMatching(t *testing.T) {
	err := NewAuthorization("incorrect database password")

	if !IsKind(err, KindAuthorization) {
		t.Error("authorization error not matched by IsKind")
	}
	if IsKind(err, KindConfiguration) {
		t.Error("authorization error matched wrong kind")
	}
	if !errors.Is(err, &Error{Kind: KindAuthorization}) {
		t.Error("errors.Is should match on Kind")
	}
}

func TestKindSurvivesWrapping(t *testing.T) {
	inner := NewRestore("restore failed", errors.New("pg_restore exploded"))
	wrapped := fmt.Errorf("during operation: %w", inner)

	if KindOf(wrapped) != KindRestore {
		t.Errorf("KindOf(wrapped) = %q, want %q", KindOf(wrapped), KindRestore)
	}
}

func TestFatalDistinguishesRollbackFailure(t *testing.T) {
	recovered := NewRestore("restore failed, rolled back", errors.New("boom"))
	fatal := NewInternal("rollback failed", errors.New("boom"))

	if Fatal(recovered) {
		t.Error("recovered restore error must not be fatal")
	}
	if !Fatal(fatal) {
		t.Error("rollback failure must be fatal")
	}
}

func TestProcessExecutionCarriesOutput(t *testing.T) {
	cause := errors.New("exit status 1")
	err := NewProcessExecution("pg_dump failed", "pg_dump: error: connection refused", cause)

	if !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("captured output missing from message: %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("cause not reachable through Unwrap")
	}
}

func TestUnclassifiedError(t *testing.T) {
	if KindOf(errors.New("plain")) != "" {
		t.Error("plain errors must have no kind")
	}
	if Fatal(nil) {
		t.Error("nil is not fatal")
	}
}

func TestWithDetails(t *testing.T) {
	err := NewConfiguration("unknown database system").WithDetails("DB_SYSTEM=ORACLE")
	if !strings.Contains(err.Error(), "DB_SYSTEM=ORACLE") {
		t.Errorf("details missing: %q", err.Error())
	}
}
