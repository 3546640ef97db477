package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"io"

	"github.com/juju/errors"
)

// Cipher seals AI provider API keys before they reach the database and
// opens them again only when a provider call needs the plaintext.
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher takes the 64 hex character master key (a 32 byte AES-256 key,
// the value of SPARKY_FITNESS_API_ENCRYPTION_KEY).
func NewCipher(hexKey string) (*Cipher, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, errors.NewNotValid(err, "encryption key must be hex")
	}
	if len(key) != 32 {
		return nil, errors.NotValidf("encryption key of %d bytes", len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Trace(err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return &Cipher{aead: aead}, nil
}

// Encrypt seals plaintext with a fresh random nonce and returns
// hex(nonce || ciphertext).
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", errors.Trace(err)
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return hex.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. Tampered or truncated input fails
// authentication and comes back as an error, never as garbage plaintext.
func (c *Cipher) Decrypt(encoded string) (string, error) {
	raw, err := hex.DecodeString(encoded)
	if err != nil {
		return "", errors.NewNotValid(err, "sealed key must be hex")
	}
	ns := c.aead.NonceSize()
	if len(raw) < ns {
		return "", errors.NotValidf("sealed key of %d bytes", len(raw))
	}
	plain, err := c.aead.Open(nil, raw[:ns], raw[ns:], nil)
	if err != nil {
		return "", errors.Annotate(err, "opening sealed api key")
	}
	return string(plain), nil
}
