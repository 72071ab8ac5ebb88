package cryptstream

import (
	"bytes"
	"encoding/binary"
	"golang.org/x/crypto/sha3"
)

// HeaderLen is the fixed size of the on-disk header, in bytes. Every
// encrypted file is exactly HeaderLen+L bytes for L plaintext bytes
// (spec §3).
const HeaderLen = 128

const (
	headerMagic       byte = 0xCD
	headerVersion     byte = 0x01
	headerPaddingByte byte = 0xCD

	offMagic     = 0
	offVersion   = 1
	offKeyLen    = 2
	offRounds    = 6
	offPwdHash   = 10
	offSaltHash  = 42
	offPadding   = 74
	paddingLen   = HeaderLen - offPadding
	digestLength = 32 // SHA3-256
)

// Header is the 128-byte fixed header written at the front of every
// encrypted file. It records enough to recognize and validate the
// credentials a file was written with, but nothing about the plaintext
// itself (spec §3, §4.4).
//
// The two 4-byte integer fields are stored little-endian. The original
// tool this format is derived from stored them in host byte order, which
// made files written on a big-endian host unreadable elsewhere; this
// implementation picks little-endian unconditionally and is therefore not
// wire-compatible with files produced by a big-endian build of that tool.
type Header struct {
	Version   byte
	KeyLength KeyLength
	Rounds    uint32
	PwdHash   [digestLength]byte
	SaltHash  [digestLength]byte
}

// newHeader builds a Header recording the given key length, round count,
// password, and salt. The password and salt are hashed immediately; they
// are not retained.
func newHeader(keyLength KeyLength, rounds int, password, salt []byte) Header {
	return Header{
		Version:   headerVersion,
		KeyLength: keyLength,
		Rounds:    uint32(rounds),
		PwdHash:   sha3.Sum256(password),
		SaltHash:  sha3.Sum256(salt),
	}
}

// Encode writes the 128-byte on-disk representation of h.
func (h Header) Encode() ([HeaderLen]byte, error) {
	var buf [HeaderLen]byte
	buf[offMagic] = headerMagic
	buf[offVersion] = headerVersion

	code, err := h.KeyLength.headerCode()
	if err != nil {
		return buf, err
	}
	binary.LittleEndian.PutUint32(buf[offKeyLen:], code)
	binary.LittleEndian.PutUint32(buf[offRounds:], h.Rounds)
	copy(buf[offPwdHash:], h.PwdHash[:])
	copy(buf[offSaltHash:], h.SaltHash[:])
	for i := offPadding; i < HeaderLen; i++ {
		buf[i] = headerPaddingByte
	}
	return buf, nil
}

// parseHeader decodes a 128-byte on-disk header. It does not validate
// credentials against the header's stored hashes — that is
// matchesCredentials' job — only the structural fields (length, magic,
// key length code, padding). The version byte is recorded, not checked.
func parseHeader(buf []byte) (Header, error) {
	if len(buf) != HeaderLen {
		return Header{}, NewHeaderError("", "wrong header length")
	}
	if buf[offMagic] != headerMagic {
		return Header{}, NewHeaderError("", "bad magic byte")
	}
	// The version byte is recorded but never enforced: a future version
	// that keeps this same 128-byte layout must still be openable here
	// (spec §4.4, forward compatibility).
	version := buf[offVersion]

	code := binary.LittleEndian.Uint32(buf[offKeyLen:])
	keyLength, err := keyLengthFromHeaderCode(code)
	if err != nil {
		return Header{}, NewHeaderError("", "unrecognized key length code")
	}

	rounds := binary.LittleEndian.Uint32(buf[offRounds:])

	pad := buf[offPadding:HeaderLen]
	want := bytes.Repeat([]byte{headerPaddingByte}, paddingLen)
	if !bytes.Equal(pad, want) {
		return Header{}, NewHeaderError("", "corrupt padding region")
	}

	var h Header
	h.Version = version
	h.KeyLength = keyLength
	h.Rounds = rounds
	copy(h.PwdHash[:], buf[offPwdHash:offPwdHash+digestLength])
	copy(h.SaltHash[:], buf[offSaltHash:offSaltHash+digestLength])
	return h, nil
}

// matchesCredentials reports whether password and salt hash to the digests
// stored in h. A mismatch here — as opposed to a structural parse error —
// means the header parsed fine but the wrong password or salt was supplied.
func (h Header) matchesCredentials(password, salt []byte) bool {
	pwdHash := sha3.Sum256(password)
	saltHash := sha3.Sum256(salt)
	return pwdHash == h.PwdHash && saltHash == h.SaltHash
}
