package zcrack

import (
	"errors"
	"fmt"
	"testing"
)

func TestArgumentErrorMessage(t *testing.T) {
	err := NewArgumentError("charset", "", "must not be empty")
	if !IsArgumentError(err) {
		t.Fatalf("IsArgumentError(%v) = false, want true", err)
	}
	want := "argument error: charset: must not be empty"
	if got := err.Error(); got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}

func TestArgumentErrorWithoutField(t *testing.T) {
	err := NewArgumentError("", nil, "min length exceeds max length")
	want := "argument error: min length exceeds max length"
	if got := err.Error(); got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}

func TestDataErrorWrapsUnderlying(t *testing.T) {
	inner := errors.New("too short")
	err := NewDataError("not enough known plaintext", inner)
	if !IsDataError(err) {
		t.Fatalf("IsDataError(%v) = false, want true", err)
	}
	if !errors.Is(err, inner) {
		t.Fatalf("errors.Is(err, inner) = false, want true")
	}
	want := "data error: not enough known plaintext: too short"
	if got := err.Error(); got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}

func TestDataErrorWithoutUnderlying(t *testing.T) {
	err := NewDataError("extra offsets overlap the contiguous plaintext", nil)
	want := "data error: extra offsets overlap the contiguous plaintext"
	if got := err.Error(); got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}

func TestFileErrorWrapsUnderlying(t *testing.T) {
	inner := errors.New("permission denied")
	err := NewFileError("open", "/tmp/plain.bin", inner)
	if !IsFileError(err) {
		t.Fatalf("IsFileError(%v) = false, want true", err)
	}
	if !errors.Is(err, inner) {
		t.Fatalf("errors.Is(err, inner) = false, want true")
	}
	want := "file error: open /tmp/plain.bin: permission denied"
	if got := err.Error(); got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}

func TestIsNoSolution(t *testing.T) {
	if !IsNoSolution(ErrNoSolution) {
		t.Fatalf("IsNoSolution(ErrNoSolution) = false, want true")
	}
	wrapped := fmt.Errorf("recover password: %w", ErrNoSolution)
	if !IsNoSolution(wrapped) {
		t.Fatalf("IsNoSolution(wrapped) = false, want true")
	}
	if IsNoSolution(errors.New("some other error")) {
		t.Fatalf("IsNoSolution(unrelated) = true, want false")
	}
}

func TestErrorKindsAreDistinct(t *testing.T) {
	argErr := NewArgumentError("keys", "", "malformed")
	dataErr := NewDataError("short plaintext", nil)
	fileErr := NewFileError("read", "cipher.bin", errors.New("eof"))

	if IsDataError(argErr) || IsFileError(argErr) {
		t.Fatalf("ArgumentError misclassified as DataError or FileError")
	}
	if IsArgumentError(dataErr) || IsFileError(dataErr) {
		t.Fatalf("DataError misclassified as ArgumentError or FileError")
	}
	if IsArgumentError(fileErr) || IsDataError(fileErr) {
		t.Fatalf("FileError misclassified as ArgumentError or DataError")
	}
}
