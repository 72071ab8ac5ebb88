package cryptstream

import "golang.org/x/crypto/sha3"

// xorKeystream implements the XOR fallback method (spec §4, Method=XOR):
// ciphertext[i] = plaintext[i] XOR SHA3-512(password)[i mod 64] XOR (i mod 251).
//
// Unlike AES-CTR, this method has no state to synchronize on seek: each
// output byte is a pure function of its absolute offset and the password,
// so dst[i] for absolute offset off+i can be computed independently of
// every other byte.
type xorKeystream struct {
	digest [64]byte
}

func newXORKeystream(password []byte) *xorKeystream {
	return &xorKeystream{digest: sha3.Sum512(password)}
}

// apply XORs src into dst (len(dst) == len(src)) as if src began at
// absolute plaintext offset off.
func (x *xorKeystream) apply(dst, src []byte, off int64) {
	for i := range src {
		pos := off + int64(i)
		dst[i] = src[i] ^ x.digest[pos%64] ^ byte(pos%251)
	}
}
