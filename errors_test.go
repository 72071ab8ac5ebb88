package cryptstream

import (
	"errors"
	"testing"
)

func TestBackendError_UnwrapAndIs(t *testing.T) {
	underlying := errors.New("disk full")
	err := NewBackendError("write", "f.bin", 42, underlying)

	if !errors.Is(err, underlying) {
		t.Error("errors.Is should see through BackendError to the wrapped error")
	}
	if !IsBackendError(err) {
		t.Error("IsBackendError should recognize its own constructor's output")
	}
	if IsHeaderError(err) {
		t.Error("IsHeaderError should not match a BackendError")
	}
	if err.Error() == "" {
		t.Error("Error() should not be empty")
	}
}

func TestHeaderError_Message(t *testing.T) {
	err := NewHeaderError("secret.bin", "password or salt mismatch")
	if !IsHeaderError(err) {
		t.Error("IsHeaderError should recognize its own constructor's output")
	}
	if !errors.Is(err, ErrHeaderMismatch) {
		t.Error("errors.Is should see through HeaderError to ErrHeaderMismatch")
	}
	if got := err.Error(); got == "" {
		t.Error("Error() should not be empty")
	}
}

func TestParamError_CarriesFieldAndValue(t *testing.T) {
	err := NewParamError("method", 99, "unsupported encryption method")
	if !IsParamError(err) {
		t.Error("IsParamError should recognize its own constructor's output")
	}
	var pe *ParamError
	if !errors.As(err, &pe) {
		t.Fatal("errors.As should extract *ParamError")
	}
	if pe.Field != "method" || pe.Value != 99 {
		t.Errorf("unexpected ParamError fields: %+v", pe)
	}
}

func TestAllocError_Unwrap(t *testing.T) {
	underlying := errors.New("allocation too large")
	err := NewAllocError("write", 1 << 40, underlying)
	if !errors.Is(err, underlying) {
		t.Error("errors.Is should see through AllocError")
	}
	if !IsAllocError(err) {
		t.Error("IsAllocError should recognize its own constructor's output")
	}
}

func TestNotOpenError(t *testing.T) {
	err := NewNotOpenError("read")
	if !IsNotOpenError(err) {
		t.Error("IsNotOpenError should recognize its own constructor's output")
	}
	if !errors.Is(err, ErrNotOpen) {
		t.Error("errors.Is should see through NotOpenError to ErrNotOpen")
	}
}

func TestStateMismatchError(t *testing.T) {
	err := NewStateMismatchError("seek", "back-end does not support random access", nil)
	if !IsStateMismatchError(err) {
		t.Error("IsStateMismatchError should recognize its own constructor's output")
	}
}

func TestIsPredicates_RejectUnrelatedErrors(t *testing.T) {
	plain := errors.New("plain error")
	predicates := []func(error) bool{
		IsBackendError, IsHeaderError, IsParamError,
		IsAllocError, IsNotOpenError, IsStateMismatchError,
	}
	for _, is := range predicates {
		if is(plain) {
			t.Error("predicate incorrectly matched an unrelated plain error")
		}
	}
}

func TestSentinelErrors_AreDistinct(t *testing.T) {
	sentinels := []error{
		ErrAlreadyOpen, ErrNoBackend, ErrClosed,
		ErrNegativeOffset, ErrNegativeSize, ErrNoPath, ErrAuthFailed,
		ErrHeaderMismatch, ErrNotOpen,
	}
	seen := make(map[string]bool)
	for _, e := range sentinels {
		msg := e.Error()
		if seen[msg] {
			t.Errorf("duplicate sentinel message: %q", msg)
		}
		seen[msg] = true
	}
}
