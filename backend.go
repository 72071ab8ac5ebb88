package cryptstream

import "io"

// BackEnd is the capability interface a StreamDevice writes its encrypted
// bytes through. It names only the methods cryptstream actually calls, so
// both *os.File and an absfs.File (e.g. absfs/memfs, for tests) satisfy it
// structurally with no adapter required (spec §9: capability interfaces,
// not back-end inheritance).
type BackEnd interface {
	io.Reader
	io.Writer
	io.Seeker
	io.Closer

	// Truncate resizes the back-end to exactly size bytes.
	Truncate(size int64) error

	// Sync flushes any buffered writes to stable storage.
	Sync() error

	// Name returns the back-end's path, or "" for a handle with none
	// (e.g. an in-memory buffer).
	Name() string
}

// ownership tags how a StreamDevice relates to the BackEnd it was given
// (spec §9): Owned back-ends are closed by StreamDevice.Close; Borrowed
// back-ends are left for the caller to close.
type ownership uint8

const (
	ownershipBorrowed ownership = iota
	ownershipOwned
)
