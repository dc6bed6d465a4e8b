// Package crypto provides the metadata envelope used at the API edge. The
// settlement core itself treats ciphertext as opaque bytes; sealing only
// happens when a payer submits cleartext metadata and their policy requires
// encrypted metadata at rest.
package crypto

import (
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/mja2001/SolCipher-Cronos/internal/domain"
)

// KeySize is the envelope key length in bytes.
const KeySize = chacha20poly1305.KeySize

// Seal encrypts plaintext with XChaCha20-Poly1305. The random nonce is
// prepended to the ciphertext.
func Seal(key, plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cipher: %w", err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	return aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Open decrypts an envelope produced by Seal. Returns domain.ErrDecryption
// when the key material does not match or the ciphertext was tampered with.
func Open(key, ciphertext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cipher: %w", err)
	}

	if len(ciphertext) < aead.NonceSize() {
		return nil, fmt.Errorf("ciphertext shorter than nonce: %w", domain.ErrDecryption)
	}

	nonce, sealed := ciphertext[:aead.NonceSize()], ciphertext[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, domain.ErrDecryption)
	}

	return plaintext, nil
}
