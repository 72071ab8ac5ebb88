package cryptstream

// KeyLength is the AES key size, named by its bit width so the zero value
// (0) is distinguishable from any real setting and resolves to AES256 at
// Config.withDefaults time.
type KeyLength uint16

const (
	// AES128 selects a 128-bit AES key.
	AES128 KeyLength = 128
	// AES192 selects a 192-bit AES key.
	AES192 KeyLength = 192
	// AES256 selects a 256-bit AES key (the default).
	AES256 KeyLength = 256
)

// String returns the human-readable key length.
func (k KeyLength) String() string {
	switch k {
	case AES128:
		return "aes-128"
	case AES192:
		return "aes-192"
	case AES256:
		return "aes-256"
	default:
		return "unknown"
	}
}

// Bytes returns the key length in bytes.
func (k KeyLength) Bytes() int {
	return int(k) / 8
}

// headerCode encodes the key length the way the 128-byte header stores it:
// 0 for 128-bit, 1 for 192-bit, 2 for 256-bit (see spec §3).
func (k KeyLength) headerCode() (uint32, error) {
	switch k {
	case AES128:
		return 0, nil
	case AES192:
		return 1, nil
	case AES256:
		return 2, nil
	default:
		return 0, NewParamError("key_length", k, "unsupported AES key length")
	}
}

func keyLengthFromHeaderCode(code uint32) (KeyLength, error) {
	switch code {
	case 0:
		return AES128, nil
	case 1:
		return AES192, nil
	case 2:
		return AES256, nil
	default:
		return 0, NewParamError("key_length", code, "unrecognized key length code in header")
	}
}

// Method selects the keystream construction.
type Method uint8

const (
	// MethodAESCTR uses AES in counter mode (the default, recommended method).
	MethodAESCTR Method = iota
	// MethodXOR uses the stateless SHA3-512 XOR fallback, kept for
	// compatibility with the original tool.
	MethodXOR
)

// String returns the human-readable method name.
func (m Method) String() string {
	switch m {
	case MethodAESCTR:
		return "aes-ctr"
	case MethodXOR:
		return "xor"
	default:
		return "unknown"
	}
}

// Mode is the open mode of a StreamDevice, mirroring the four modes spec §3
// enumerates for the data model.
type Mode uint8

const (
	// Closed is the zero-value mode: not open.
	Closed Mode = iota
	// ReadOnly opens for reading only.
	ReadOnly
	// ReadWrite opens for both reading and writing.
	ReadWrite
	// Append opens for read-write and positions at the end on open; the
	// underlying mode is coerced to ReadWrite (spec §4.1).
	Append
)

// String returns the human-readable mode name.
func (m Mode) String() string {
	switch m {
	case Closed:
		return "closed"
	case ReadOnly:
		return "read-only"
	case ReadWrite:
		return "read-write"
	case Append:
		return "append"
	default:
		return "unknown"
	}
}

// KDFStrength selects what bytes are fed into the legacy EVP_BytesToKey
// chain as the "password" (see SPEC_FULL.md, Key Derivation). The legacy
// chain itself, and the header's stored SHA3-256(password) digest, are
// unaffected by this choice — only the derived key/IV material.
type KDFStrength uint8

const (
	// KDFLegacy feeds the caller's password bytes to the legacy chain
	// verbatim — bytewise-compatible with the original tool. Default.
	KDFLegacy KDFStrength = iota
	// KDFArgon2Stretched pre-stretches the password through Argon2id
	// before the legacy chain.
	KDFArgon2Stretched
	// KDFPBKDF2Stretched pre-stretches the password through
	// PBKDF2-HMAC-SHA256 before the legacy chain.
	KDFPBKDF2Stretched
)

// saltMaxLength is the hard 8-byte cap on salts (spec §3, §9 Design Note 5:
// silently truncated, never padded, for bit-exact compatibility).
const saltMaxLength = 8

// defaultRounds is the legacy KDF round count, deliberately weak and
// preserved for backward compatibility (spec §4.3, §9 Design Note 3).
const defaultRounds = 5

// defaultParallelThreshold is the buffer size at or above which the keystream
// engine computes AES-ECB blocks across multiple goroutines (SPEC_FULL.md,
// Parallel keystream).
const defaultParallelThreshold = 256 * 1024

// Config carries the cipher parameters and tunables for a StreamDevice. It
// is a plain struct rather than a chain of post-construction setters (spec
// §9, "Config via setters... replace with... a configuration struct with
// enumerated fields").
type Config struct {
	// Password is the encryption password. An empty password puts the
	// StreamDevice into passthrough mode (spec §3: encrypted-flag requires
	// a non-empty password).
	Password []byte

	// Salt is truncated to 8 bytes if longer; never padded if shorter.
	Salt []byte

	// KeyLength is the AES key size. Zero resolves to AES256.
	KeyLength KeyLength

	// Rounds is the legacy KDF round count. Zero resolves to 5.
	Rounds int

	// Method selects AES-CTR (default) or the XOR fallback.
	Method Method

	// KDFStrength selects what feeds the legacy KDF chain as the password.
	KDFStrength KDFStrength

	// KeyProvider overrides key derivation entirely. Nil selects the
	// built-in provider for KDFStrength.
	KeyProvider KeyProvider

	// ParallelThreshold is the buffer size at or above which the keystream
	// engine parallelizes AES-ECB block computation. Zero resolves to
	// 256 KiB. Negative disables parallelism outright.
	ParallelThreshold int

	// PathCodec, if set, deterministically transforms the back-end path
	// used by Remove/Rename/Exists and the path-based Open convenience
	// (SPEC_FULL.md, Path Codec). Nil leaves paths untransformed.
	PathCodec PathCodec

	// ErrorSink receives non-fatal diagnostic errors: a back-end failure
	// behind a -1 Write return, and flush or seek failures during Close
	// (spec §9, SPEC_FULL.md Errors). Read does not emit to it; read errors
	// are only returned. Nil is treated as a no-op.
	ErrorSink func(error)
}

// withDefaults returns a copy of c with zero-valued tunables resolved to
// their documented defaults. The caller's Config is never mutated.
func (c *Config) withDefaults() *Config {
	cp := *c
	if cp.KeyLength == 0 {
		cp.KeyLength = AES256
	}
	if cp.Rounds == 0 {
		cp.Rounds = defaultRounds
	}
	if cp.ParallelThreshold == 0 {
		cp.ParallelThreshold = defaultParallelThreshold
	}
	if len(cp.Salt) > saltMaxLength {
		cp.Salt = cp.Salt[:saltMaxLength]
	}
	return &cp
}

// Validate checks that the configuration's enumerated fields are
// recognized values. This is the Go expression of spec §7's "ParamInvalid:
// unknown key length or method -> fatal assertion at init time": returned
// as an error rather than panicking, per Go convention.
func (c *Config) Validate() error {
	if c == nil {
		return NewParamError("config", nil, "config cannot be nil")
	}
	switch c.KeyLength {
	case 0, AES128, AES192, AES256:
	default:
		return NewParamError("key_length", c.KeyLength, "unsupported AES key length")
	}
	switch c.Method {
	case MethodAESCTR, MethodXOR:
	default:
		return NewParamError("method", c.Method, "unsupported encryption method")
	}
	switch c.KDFStrength {
	case KDFLegacy, KDFArgon2Stretched, KDFPBKDF2Stretched:
	default:
		return NewParamError("kdf_strength", c.KDFStrength, "unsupported KDF strength")
	}
	if c.Rounds < 0 {
		return NewParamError("rounds", c.Rounds, "round count cannot be negative")
	}
	return nil
}
