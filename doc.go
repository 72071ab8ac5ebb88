// Package cryptstream provides a transparent encrypting file I/O layer: a
// random-access, byte-addressable stream whose on-disk representation is
// encrypted while callers see and produce plaintext.
//
// # Overview
//
// A StreamDevice wraps a back-end byte-oriented file. Opened with a
// password (and optionally a salt), it derives an AES key/IV, writes or
// validates a small fixed-size header, and thereafter translates every
// read/write through an AES-CTR keystream synchronized to the caller's
// plaintext offset. Arbitrary seeks, partial reads, appends, and mid-file
// overwrites all round-trip exactly, because CTR keystream bytes are a
// pure function of (key, IV, offset) — reproducible from a cold seek
// without replaying any prior I/O.
//
// # Basic usage
//
//	back, _ := os.OpenFile("secret.bin", os.O_RDWR|os.O_CREATE, 0600)
//	dev, err := cryptstream.New(back, &cryptstream.Config{
//	    Password: []byte("correct horse battery staple"),
//	    Salt:     []byte("8bytesA!"),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := dev.Open(cryptstream.ReadWrite); err != nil {
//	    log.Fatal(err)
//	}
//	defer dev.Close()
//	dev.Write([]byte("hello, ciphertext"))
//
// # File format
//
// Every encrypted file is exactly 128+L bytes for L plaintext bytes: a
// 128-byte header (magic byte, version, AES key length, KDF rounds,
// SHA3-256 of the password, SHA3-256 of the salt, padding) followed
// immediately by AES-CTR ciphertext. See Header for the exact layout.
//
// # What this is not
//
// This is not authenticated encryption: a corrupted ciphertext byte
// decrypts to a corrupted plaintext byte, silently, exactly like raw CTR
// mode anywhere else. The header only authenticates the *credentials*
// used to open the file, via a SHA3-256 digest comparison — it says
// nothing about the integrity of the payload that follows it. Do not use
// this where tamper-evidence is required; that needs an AEAD.
//
// # Key derivation
//
// The default key derivation is bytewise-compatible with OpenSSL's
// EVP_BytesToKey(EVP_sha256(), ...), preserved for compatibility with the
// original tool this package's format is derived from, including its weak
// default round count. Config.KDFStrength can opt into an Argon2id or
// PBKDF2 pre-stretch of the password before it enters that legacy chain,
// without changing the wire format — see KeyProvider.
package cryptstream
