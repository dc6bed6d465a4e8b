package crypto

import (
	"bytes"
	"errors"
	"testing"

	"github.com/mja2001/SolCipher-Cronos/internal/domain"
)

func testKey(b byte) []byte {
	key := make([]byte, KeySize)
	for i := range key {
		key[i] = b
	}
	return key
}

func TestSealAndOpen(t *testing.T) {
	key := testKey(1)
	plaintext := []byte(`{"memo":"invoice 42"}`)

	sealed, err := Seal(key, plaintext)
	if err != nil {
		t.Fatalf("Seal() error = %v", err)
	}
	if bytes.Contains(sealed, plaintext) {
		t.Error("sealed envelope contains the plaintext")
	}

	opened, err := Open(key, sealed)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if !bytes.Equal(opened, plaintext) {
		t.Errorf("Open() = %q, want %q", opened, plaintext)
	}
}

func TestSealNonceUniqueness(t *testing.T) {
	key := testKey(1)
	plaintext := []byte("same message")

	a, err := Seal(key, plaintext)
	if err != nil {
		t.Fatalf("Seal() error = %v", err)
	}
	b, err := Seal(key, plaintext)
	if err != nil {
		t.Fatalf("Seal() error = %v", err)
	}
	if bytes.Equal(a, b) {
		t.Error("two seals of the same plaintext produced identical envelopes")
	}
}

func TestOpenRejections(t *testing.T) {
	key := testKey(1)
	sealed, err := Seal(key, []byte("secret"))
	if err != nil {
		t.Fatalf("Seal() error = %v", err)
	}

	tampered := append([]byte(nil), sealed...)
	tampered[len(tampered)-1] ^= 0xff

	tests := []struct {
		name       string
		key        []byte
		ciphertext []byte
	}{
		{"Wrong key", testKey(2), sealed},
		{"Tampered ciphertext", key, tampered},
		{"Truncated", key, sealed[:10]},
		{"Empty", key, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Open(tt.key, tt.ciphertext)
			if !errors.Is(err, domain.ErrDecryption) {
				t.Errorf("Open() error = %v, want ErrDecryption", err)
			}
		})
	}
}

func TestSealRejectsBadKey(t *testing.T) {
	if _, err := Seal([]byte("short"), []byte("data")); err == nil {
		t.Error("Seal() with a short key must fail")
	}
}
