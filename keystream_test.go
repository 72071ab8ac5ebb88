package cryptstream

import (
	"bytes"
	"crypto/rand"
	"testing"
)

func testKey(t *testing.T) ([]byte, []byte) {
	t.Helper()
	key, iv, err := deriveLegacy([]byte("hello"), []byte("s"), 32, 5)
	if err != nil {
		t.Fatal(err)
	}
	return key, iv
}

func TestKeystreamEngine_EncryptDecryptRoundTrip(t *testing.T) {
	key, iv := testKey(t)
	engine, err := newKeystreamEngine(key, iv, 0) // parallel disabled
	if err != nil {
		t.Fatal(err)
	}

	plaintext := make([]byte, 10000)
	rand.Read(plaintext)

	ciphertext := make([]byte, len(plaintext))
	engine.crypt(ciphertext, plaintext, 0)

	decrypted := make([]byte, len(plaintext))
	engine.crypt(decrypted, ciphertext, 0)

	if !bytes.Equal(plaintext, decrypted) {
		t.Error("round trip did not reproduce the original plaintext")
	}
}

// TestKeystreamEngine_OffsetIndependence checks invariant 2 of spec §8: the
// keystream byte at offset p depends only on (key, IV_base, p), not on
// what range was requested around it.
func TestKeystreamEngine_OffsetIndependence(t *testing.T) {
	key, iv := testKey(t)
	engine, err := newKeystreamEngine(key, iv, 0)
	if err != nil {
		t.Fatal(err)
	}

	plaintext := make([]byte, 1000)
	rand.Read(plaintext)

	full := make([]byte, len(plaintext))
	engine.crypt(full, plaintext, 0)

	for _, p := range []int64{0, 1, 15, 16, 17, 31, 32, 500, 999} {
		length := 7
		if p+int64(length) > int64(len(plaintext)) {
			length = int(int64(len(plaintext)) - p)
		}
		partial := make([]byte, length)
		engine.crypt(partial, plaintext[p:p+int64(length)], p)

		if !bytes.Equal(partial, full[p:p+int64(length)]) {
			t.Errorf("offset %d: keystream differs when computed standalone vs from a cold start", p)
		}
	}
}

func TestKeystreamEngine_ParallelMatchesSequential(t *testing.T) {
	key, iv := testKey(t)

	sequential, err := newKeystreamEngine(key, iv, 0)
	if err != nil {
		t.Fatal(err)
	}
	parallel, err := newKeystreamEngine(key, iv, 1024)
	if err != nil {
		t.Fatal(err)
	}

	plaintext := make([]byte, 64*1024)
	rand.Read(plaintext)

	seqOut := make([]byte, len(plaintext))
	sequential.crypt(seqOut, plaintext, 0)

	parOut := make([]byte, len(plaintext))
	parallel.crypt(parOut, plaintext, 0)

	if !bytes.Equal(seqOut, parOut) {
		t.Error("parallel keystream computation diverged from the sequential one")
	}
}

func TestKeystreamEngine_ParallelMatchesSequential_UnalignedOffset(t *testing.T) {
	key, iv := testKey(t)

	sequential, err := newKeystreamEngine(key, iv, 0)
	if err != nil {
		t.Fatal(err)
	}
	parallel, err := newKeystreamEngine(key, iv, 1024)
	if err != nil {
		t.Fatal(err)
	}

	plaintext := make([]byte, 64*1024)
	rand.Read(plaintext)

	const off = 12345 // not a multiple of 16

	seqOut := make([]byte, len(plaintext))
	sequential.crypt(seqOut, plaintext, off)

	parOut := make([]byte, len(plaintext))
	parallel.crypt(parOut, plaintext, off)

	if !bytes.Equal(seqOut, parOut) {
		t.Error("parallel keystream computation diverged from the sequential one at an unaligned offset")
	}
}

func TestXORKeystream_Determinism(t *testing.T) {
	password := []byte("hello")
	x := newXORKeystream(password)

	plaintext := []byte("The quick brown fox\n")
	ciphertext := make([]byte, len(plaintext))
	x.apply(ciphertext, plaintext, 0)

	for i, p := range plaintext {
		want := p ^ x.digest[i%64] ^ byte(i%251)
		if ciphertext[i] != want {
			t.Fatalf("byte %d: got %#x, want %#x", i, ciphertext[i], want)
		}
	}

	decrypted := make([]byte, len(ciphertext))
	x.apply(decrypted, ciphertext, 0)
	if !bytes.Equal(decrypted, plaintext) {
		t.Error("XOR keystream did not invert")
	}
}

func TestXORKeystream_OffsetIndependence(t *testing.T) {
	x := newXORKeystream([]byte("pw"))
	plaintext := make([]byte, 500)
	rand.Read(plaintext)

	full := make([]byte, len(plaintext))
	x.apply(full, plaintext, 0)

	partial := make([]byte, 50)
	x.apply(partial, plaintext[300:350], 300)

	if !bytes.Equal(partial, full[300:350]) {
		t.Error("XOR keystream byte at an offset depends on what else was requested")
	}
}
