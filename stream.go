package cryptstream

import (
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
)

// StreamDevice is a random-access, byte-addressable stream whose on-disk
// representation is encrypted. See the package doc comment for the full
// contract.
type StreamDevice struct {
	backend   BackEnd
	ownership ownership
	cfg       *Config

	mode     Mode
	position int64 // plaintext position

	encrypted bool
	header    Header
	key       []byte
	iv        []byte

	ctr *keystreamEngine
	xor *xorKeystream

	deviceID uuid.UUID
}

// New wraps an already-open back-end in a StreamDevice. The caller retains
// ownership of backend: Close will not close it (spec §9, Borrowed).
// cfg.Validate() is run immediately so configuration mistakes surface at
// construction, not on the first operation.
func New(backend BackEnd, cfg *Config) (*StreamDevice, error) {
	if backend == nil {
		return nil, ErrNoBackend
	}
	if cfg == nil {
		return nil, NewParamError("config", nil, "config cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &StreamDevice{
		backend:   backend,
		ownership: ownershipBorrowed,
		cfg:       cfg.withDefaults(),
		deviceID:  uuid.New(),
	}, nil
}

// Open opens an OS file at path and wraps it in a StreamDevice that owns
// the handle: Close (and Remove) will close/remove it (spec §9, Owned).
// The file is created if it does not already exist.
func Open(path string, cfg *Config) (*StreamDevice, error) {
	if cfg == nil {
		return nil, NewParamError("config", nil, "config cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	resolved := cfg.withDefaults()

	diskPath := path
	if resolved.PathCodec != nil {
		encoded, err := resolved.PathCodec.EncodePath(path)
		if err != nil {
			return nil, NewBackendError("open", path, -1, err)
		}
		diskPath = encoded
	}

	f, err := os.OpenFile(diskPath, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, NewBackendError("open", path, -1, err)
	}

	return &StreamDevice{
		backend:   f,
		ownership: ownershipOwned,
		cfg:       resolved,
		deviceID:  uuid.New(),
	}, nil
}

func (d *StreamDevice) emit(err error) {
	if err == nil || d.cfg.ErrorSink == nil {
		return
	}
	d.cfg.ErrorSink(fmt.Errorf("cryptstream[%s]: %w", d.deviceID, err))
}

// Open transitions the stream from Closed into mode. Write-only intent is
// expressed as ReadWrite — a read is needed to validate the header before
// any write is trusted (spec §4.1).
func (d *StreamDevice) Open(mode Mode) error {
	if d.backend == nil {
		return ErrNoBackend
	}
	if d.mode != Closed {
		return ErrAlreadyOpen
	}
	if mode == Closed {
		return NewParamError("mode", mode, "cannot open in Closed mode")
	}

	effectiveMode := mode
	if mode == Append {
		effectiveMode = ReadWrite
	}

	if len(d.cfg.Password) == 0 {
		d.encrypted = false
		d.mode = effectiveMode
		if mode == Append {
			end, err := d.backend.Seek(0, io.SeekEnd)
			if err != nil {
				d.mode = Closed
				return NewBackendError("seek", d.backend.Name(), -1, err)
			}
			d.position = end
		}
		return nil
	}

	backendSize, err := d.backendSize()
	if err != nil {
		return NewBackendError("open", d.backend.Name(), -1, err)
	}

	if backendSize == 0 {
		if mode == ReadOnly {
			return NewHeaderError(d.backend.Name(), "empty back-end has no header to read")
		}
		if err := d.writeNewHeader(); err != nil {
			return err
		}
	} else {
		if err := d.parseExistingHeader(); err != nil {
			return err
		}
	}

	if err := d.initCipher(); err != nil {
		return err
	}

	d.encrypted = true
	d.mode = effectiveMode
	d.position = 0

	if mode == Append {
		size, err := d.Size()
		if err != nil {
			d.mode = Closed
			d.encrypted = false
			return err
		}
		if err := d.seekLocked(size); err != nil {
			d.mode = Closed
			d.encrypted = false
			return err
		}
	}

	return nil
}

// writeNewHeader builds and writes a fresh header for an empty back-end,
// fixing the original tool's latent bug where insertHeader was never
// called (spec §9, Design Note 2): the header is always written before any
// ciphertext when opening for write on an empty file.
func (d *StreamDevice) writeNewHeader() error {
	d.header = newHeader(d.cfg.KeyLength, d.cfg.Rounds, d.cfg.Password, d.cfg.Salt)
	buf, err := d.header.Encode()
	if err != nil {
		return err
	}
	if _, err := d.backend.Seek(0, io.SeekStart); err != nil {
		return NewBackendError("seek", d.backend.Name(), 0, err)
	}
	if _, err := d.backend.Write(buf[:]); err != nil {
		return NewBackendError("write", d.backend.Name(), 0, err)
	}
	return nil
}

// parseExistingHeader reads and validates the 128-byte header of a
// non-empty back-end against the configured credentials (spec §3
// invariant 5, §4.4).
func (d *StreamDevice) parseExistingHeader() error {
	if _, err := d.backend.Seek(0, io.SeekStart); err != nil {
		return NewBackendError("seek", d.backend.Name(), 0, err)
	}
	buf := make([]byte, HeaderLen)
	if _, err := io.ReadFull(d.backend, buf); err != nil {
		return NewHeaderError(d.backend.Name(), "short read on header")
	}

	h, err := parseHeader(buf)
	if err != nil {
		return err
	}
	if h.KeyLength != d.cfg.KeyLength {
		return NewHeaderError(d.backend.Name(), "key length mismatch")
	}
	if h.Rounds != uint32(d.cfg.Rounds) {
		return NewHeaderError(d.backend.Name(), "round count mismatch")
	}
	if !h.matchesCredentials(d.cfg.Password, d.cfg.Salt) {
		return NewHeaderError(d.backend.Name(), "password or salt mismatch")
	}

	d.header = h
	return nil
}

// initCipher derives the key/IV and constructs the keystream engine
// matching the configured method.
func (d *StreamDevice) initCipher() error {
	provider := keyProviderFor(d.cfg)
	key, iv, err := provider.DeriveKeyIV(d.cfg.Password, d.cfg.Salt, d.cfg.KeyLength.Bytes(), d.cfg.Rounds)
	if err != nil {
		return err
	}
	d.key = key
	d.iv = iv

	switch d.cfg.Method {
	case MethodXOR:
		d.xor = newXORKeystream(d.cfg.Password)
	default:
		ctr, err := newKeystreamEngine(key, iv, d.cfg.ParallelThreshold)
		if err != nil {
			return err
		}
		d.ctr = ctr
	}
	return nil
}

// Close flushes, seeks the back-end to 0, and (if owned) closes it.
// Idempotent on an already-closed stream (spec §4.1).
func (d *StreamDevice) Close() error {
	if d.mode == Closed {
		return nil
	}
	if err := d.Flush(); err != nil {
		d.emit(err)
	}
	if _, err := d.backend.Seek(0, io.SeekStart); err != nil {
		d.emit(NewBackendError("seek", d.backend.Name(), 0, err))
	}

	d.mode = Closed
	d.encrypted = false

	if d.ownership == ownershipOwned {
		return d.backend.Close()
	}
	return nil
}

// Read copies up to len(buf) plaintext bytes into buf, looping over the
// back-end until either the request is satisfied or EOF is reached (spec
// §4.1 read algorithm).
func (d *StreamDevice) Read(buf []byte) (int, error) {
	if d.mode == Closed {
		return 0, NewNotOpenError("read")
	}
	if err := validateReadWrite(buf, d.position); err != nil {
		return 0, err
	}
	if len(buf) == 0 {
		return 0, nil
	}

	if !d.encrypted {
		n, err := d.backend.Read(buf)
		d.position += int64(n)
		if err == io.EOF {
			err = nil
		}
		return n, err
	}

	ciphertext := make([]byte, len(buf))
	total := 0
	for total < len(buf) {
		n, err := d.backend.Read(ciphertext[total:])
		if n > 0 {
			d.cryptAt(buf[total:total+n], ciphertext[total:total+n], d.position+int64(total))
			total += n
		}
		if err != nil {
			if err == io.EOF || n == 0 {
				break
			}
			return total, NewBackendError("read", d.backend.Name(), d.position, err)
		}
		if n == 0 {
			break
		}
	}
	d.position += int64(total)
	return total, nil
}

// Write encrypts buf and writes the ciphertext through the back-end,
// returning -1 on allocation or back-end failure (spec §4.1 write
// algorithm).
func (d *StreamDevice) Write(buf []byte) (int, error) {
	if d.mode == Closed {
		return -1, NewNotOpenError("write")
	}
	if d.mode == ReadOnly {
		return -1, NewStateMismatchError("write", "stream opened read-only", nil)
	}
	if err := validateReadWrite(buf, d.position); err != nil {
		return -1, err
	}
	if len(buf) == 0 {
		return 0, nil
	}

	if !d.encrypted {
		n, err := d.backend.Write(buf)
		d.position += int64(n)
		if err != nil {
			return -1, NewBackendError("write", d.backend.Name(), d.position, err)
		}
		return n, nil
	}

	ciphertext := make([]byte, len(buf))
	d.cryptAt(ciphertext, buf, d.position)

	n, err := d.backend.Write(ciphertext)
	if err != nil {
		werr := NewBackendError("write", d.backend.Name(), d.position, err)
		d.emit(werr)
		return -1, werr
	}
	d.position += int64(n)
	return len(buf), nil
}

// cryptAt dispatches to the configured method's keystream.
func (d *StreamDevice) cryptAt(dst, src []byte, off int64) {
	if d.cfg.Method == MethodXOR {
		d.xor.apply(dst, src, off)
		return
	}
	d.ctr.crypt(dst, src, off)
}

// Seek repositions the stream to plaintext offset p, honoring whence like
// io.Seeker. In encrypted mode the back-end is repositioned to
// p+HeaderLen and the keystream is re-synchronized to p (spec §4.1,
// §4.2 seek re-sync) — the new position is computed purely from p, the
// cryptographic parameters, making seek-then-seek idempotent (spec §8
// invariant 4) and independent of any prior operation.
func (d *StreamDevice) Seek(offset int64, whence int) (int64, error) {
	if d.mode == Closed {
		return 0, NewNotOpenError("seek")
	}

	var target int64
	switch whence {
	case io.SeekStart:
		target = offset
	case io.SeekCurrent:
		target = d.position + offset
	case io.SeekEnd:
		size, err := d.Size()
		if err != nil {
			return 0, err
		}
		target = size + offset
	default:
		return 0, NewParamError("whence", whence, "unrecognized whence value")
	}
	if target < 0 {
		return 0, ErrNegativeOffset
	}

	if err := d.seekLocked(target); err != nil {
		return 0, err
	}
	return target, nil
}

func (d *StreamDevice) seekLocked(p int64) error {
	backendTarget := p
	if d.encrypted {
		backendTarget = p + HeaderLen
	}
	if _, err := d.backend.Seek(backendTarget, io.SeekStart); err != nil {
		return NewBackendError("seek", d.backend.Name(), p, err)
	}
	d.position = p
	return nil
}

// Size returns the plaintext size: the back-end size minus HeaderLen when
// encrypted, or the raw back-end size in passthrough mode (spec §4.1).
func (d *StreamDevice) Size() (int64, error) {
	if d.mode == Closed {
		return 0, NewNotOpenError("size")
	}
	size, err := d.backendSize()
	if err != nil {
		return 0, NewBackendError("size", d.backend.Name(), -1, err)
	}
	if d.encrypted {
		size -= HeaderLen
		if size < 0 {
			size = 0
		}
	}
	return size, nil
}

// backendSize returns the back-end's current byte length without
// disturbing the caller-visible position: BackEnd exposes Seek but not
// Stat, so size is obtained by seeking to the end and back.
func (d *StreamDevice) backendSize() (int64, error) {
	cur, err := d.backend.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, err
	}
	end, err := d.backend.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, err
	}
	if _, err := d.backend.Seek(cur, io.SeekStart); err != nil {
		return 0, err
	}
	return end, nil
}

// Flush flushes the back-end (spec §4.1).
func (d *StreamDevice) Flush() error {
	if d.mode == Closed {
		return NewNotOpenError("flush")
	}
	if err := d.backend.Sync(); err != nil {
		return NewBackendError("flush", d.backend.Name(), -1, err)
	}
	return nil
}

// Truncate resizes the back-end so the plaintext is exactly size bytes
// (spec §3: "Truncate is honored on the back-end").
func (d *StreamDevice) Truncate(size int64) error {
	if d.mode == Closed {
		return NewNotOpenError("truncate")
	}
	if err := validateOffset(size, "size"); err != nil {
		return err
	}
	backendSize := size
	if d.encrypted {
		backendSize += HeaderLen
	}
	if err := d.backend.Truncate(backendSize); err != nil {
		return NewBackendError("truncate", d.backend.Name(), size, err)
	}
	if d.position > size {
		return d.seekLocked(size)
	}
	return nil
}

// diskPath returns the back-end's name as the disk path for file-level
// operations. For a device built by Open this is the path-codec-transformed
// path the file was opened under; for a device built by New it is whatever
// the back-end's Name reports. A back-end with an empty name yields ErrNoPath.
func (d *StreamDevice) diskPath() (string, error) {
	name := d.backend.Name()
	if name == "" {
		return "", ErrNoPath
	}
	return name, nil
}

// Remove closes the stream if open, then deletes the back-end file
// (spec §4.1).
func (d *StreamDevice) Remove() error {
	path, err := d.diskPath()
	if err != nil {
		return err
	}
	if d.mode != Closed {
		if err := d.Close(); err != nil {
			return err
		}
	}
	if err := os.Remove(path); err != nil {
		return NewBackendError("remove", path, -1, err)
	}
	return nil
}

// Rename closes the stream if open, renames the back-end file to
// newName, and leaves the device referring to the new name (spec §4.1;
// grounded in original_source's close-then-rename-then-reopen sequence).
func (d *StreamDevice) Rename(newName string) error {
	if err := validateFilePath(newName); err != nil {
		return err
	}
	oldPath, err := d.diskPath()
	if err != nil {
		return err
	}

	newDiskPath := newName
	if d.cfg.PathCodec != nil {
		encoded, err := d.cfg.PathCodec.EncodePath(newName)
		if err != nil {
			return NewBackendError("rename", oldPath, -1, err)
		}
		newDiskPath = encoded
	}

	wasOpen := d.mode != Closed
	mode := d.mode
	if wasOpen {
		if err := d.Close(); err != nil {
			return err
		}
	}

	if err := os.Rename(oldPath, newDiskPath); err != nil {
		return NewBackendError("rename", oldPath, -1, err)
	}

	f, err := os.OpenFile(newDiskPath, os.O_RDWR, 0o600)
	if err != nil {
		return NewBackendError("rename", newDiskPath, -1, err)
	}
	d.backend = f

	if wasOpen {
		return d.Open(mode)
	}
	return nil
}

// Exists reports whether the back-end file currently exists on disk
// (spec §4.1).
func (d *StreamDevice) Exists() (bool, error) {
	path, err := d.diskPath()
	if err != nil {
		return false, err
	}
	_, statErr := os.Stat(path)
	if statErr == nil {
		return true, nil
	}
	if os.IsNotExist(statErr) {
		return false, nil
	}
	return false, NewBackendError("exists", path, -1, statErr)
}
