// Package cryptox implements the inner symmetric layer applied to wallet
// keys and relay payloads, plus the CRC32C digest used for envelope
// integrity checks.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/dmitrijs2005/tipkeeper/internal/common"
	"golang.org/x/crypto/hkdf"
)

// Blob layout: version(1) | salt(16) | nonce(12) | ciphertext+tag.
const (
	blobVersion = 0x01
	saltSize    = 16
	nonceSize   = 12
	keySize     = 32
	headerSize  = 1 + saltSize + nonceSize
)

var hkdfInfo = []byte("tipkeeper/inner-layer/v1")

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

var (
	// ErrMalformed means the blob was not produced by Seal.
	ErrMalformed = errors.New("malformed inner ciphertext")
	// ErrOpen means authentication failed: wrong secret or tampered data.
	ErrOpen = errors.New("inner ciphertext authentication failed")
	// ErrEmptySecret is returned when no application secret is configured.
	ErrEmptySecret = errors.New("empty application secret")
)

// deriveKey stretches the application secret into a per-blob AES-256 key.
func deriveKey(secret, salt []byte) ([]byte, error) {
	key := make([]byte, keySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, salt, hkdfInfo), key); err != nil {
		return nil, err
	}
	return key, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Seal encrypts plaintext under secret with AES-256-GCM. Every call draws a
// fresh salt and nonce, so sealing the same input twice yields different
// blobs. The header is authenticated as additional data.
func Seal(plaintext, secret []byte) ([]byte, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}

	header := make([]byte, 0, headerSize)
	header = append(header, blobVersion)
	header = append(header, common.GenerateRandByteArray(saltSize)...)
	header = append(header, common.GenerateRandByteArray(nonceSize)...)

	key, err := deriveKey(secret, header[1:1+saltSize])
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(key)

	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := header[1+saltSize:]
	return aead.Seal(header, nonce, plaintext, header), nil
}

// Open reverses Seal. A blob from another secret or another layering
// order fails; it never yields garbage plaintext.
func Open(blob, secret []byte) ([]byte, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}
	if len(blob) < headerSize+16 || blob[0] != blobVersion {
		return nil, ErrMalformed
	}

	header := blob[:headerSize]
	key, err := deriveKey(secret, header[1:1+saltSize])
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(key)

	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	plaintext, err := aead.Open(nil, header[1+saltSize:], blob[headerSize:], header)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOpen, err)
	}
	return plaintext, nil
}

// SealString seals plaintext and returns it base64 encoded, the form used
// for relay payloads.
func SealString(plaintext, secret []byte) (string, error) {
	blob, err := Seal(plaintext, secret)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(blob), nil
}

// OpenString is the inverse of SealString.
func OpenString(s string, secret []byte) ([]byte, error) {
	blob, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return Open(blob, secret)
}

// Checksum returns the CRC32C (Castagnoli) digest of b widened to int64,
// the representation used by envelope providers.
func Checksum(b []byte) int64 {
	return int64(crc32.Checksum(b, castagnoli))
}
