package cryptstream

import (
	"fmt"
)

// Input validation helpers, checked at the public API boundary before any
// back-end I/O is attempted.

// validateBuffer checks that buf is non-nil and, if minSize > 0, at least
// minSize bytes long.
func validateBuffer(buf []byte, name string, minSize int) error {
	if buf == nil {
		return NewParamError(name, nil, "buffer cannot be nil")
	}
	if minSize > 0 && len(buf) < minSize {
		return NewParamError(name, len(buf), fmt.Sprintf("buffer too small: need at least %d bytes", minSize))
	}
	return nil
}

// validateOffset checks that offset is not negative.
func validateOffset(offset int64, name string) error {
	if offset < 0 {
		return NewParamError(name, offset, "offset cannot be negative")
	}
	return nil
}

// validateSize checks that size falls within [minSize, maxSize]. A
// non-positive maxSize disables the upper bound.
func validateSize(size int64, name string, minSize, maxSize int64) error {
	if size < 0 {
		return NewParamError(name, size, "size cannot be negative")
	}
	if size < minSize {
		return NewParamError(name, size, fmt.Sprintf("size too small: minimum is %d", minSize))
	}
	if maxSize > 0 && size > maxSize {
		return NewParamError(name, size, fmt.Sprintf("size too large: maximum is %d", maxSize))
	}
	return nil
}

// validateKey checks that key is exactly expectedSize bytes.
func validateKey(key []byte, expectedSize int) error {
	if key == nil {
		return NewParamError("key", nil, "key cannot be nil")
	}
	if len(key) != expectedSize {
		return NewParamError("key", len(key), fmt.Sprintf("invalid key size: expected %d bytes", expectedSize))
	}
	return nil
}

// validateFilePath checks that path is non-empty.
func validateFilePath(path string) error {
	if path == "" {
		return NewParamError("path", path, "file path cannot be empty")
	}
	return nil
}

// validateReadWrite checks the common preconditions shared by Read and
// Write: a non-nil buffer and a non-negative position.
func validateReadWrite(buf []byte, position int64) error {
	if buf == nil {
		return NewParamError("buffer", nil, "buffer cannot be nil")
	}
	if position < 0 {
		return ErrNegativeOffset
	}
	return nil
}
