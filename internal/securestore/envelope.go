// Package securestore seals host snapshots with a passphrase: argon2id derives
// the key and XChaCha20-Poly1305 encrypts the payload.
package securestore

import (
	"bytes"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

const (
	envelopeVersion = 1
	saltSize        = 16
	sealedPrefix    = "SLATEENC1\n"
)

var (
	ErrAuthFailed = errors.New("securestore authentication failed")
	ErrInvalid    = errors.New("securestore envelope is invalid")
	ErrNotSealed  = errors.New("securestore data is not sealed")
)

// Params are the argon2id cost parameters recorded in every envelope.
type Params struct {
	Time     uint32
	MemoryKB uint32
	Threads  uint8
}

var DefaultParams = Params{Time: 2, MemoryKB: 64 * 1024, Threads: 1}

type envelope struct {
	Version     uint32 `json:"version"`
	KDF         string `json:"kdf"`
	KDFTime     uint32 `json:"kdf_time"`
	KDFMemoryKB uint32 `json:"kdf_memory_kb"`
	KDFThreads  uint8  `json:"kdf_threads"`
	Salt        []byte `json:"salt"`
	Nonce       []byte `json:"nonce"`
	Ciphertext  []byte `json:"ciphertext"`
}

// IsSealed reports whether data starts with the sealed snapshot marker.
func IsSealed(data []byte) bool {
	return bytes.HasPrefix(data, []byte(sealedPrefix))
}

func Seal(secret string, plaintext []byte) ([]byte, error) {
	return SealWithParams(secret, plaintext, DefaultParams)
}

func SealWithParams(secret string, plaintext []byte, p Params) ([]byte, error) {
	if secret == "" {
		return nil, errors.New("securestore: empty secret")
	}
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	key := deriveKey(secret, salt, p)
	defer clear(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	raw, err := json.Marshal(envelope{
		Version:     envelopeVersion,
		KDF:         "argon2id",
		KDFTime:     p.Time,
		KDFMemoryKB: p.MemoryKB,
		KDFThreads:  p.Threads,
		Salt:        salt,
		Nonce:       nonce,
		Ciphertext:  aead.Seal(nil, nonce, plaintext, []byte(sealedPrefix)),
	})
	if err != nil {
		return nil, err
	}
	return append([]byte(sealedPrefix), raw...), nil
}

// Open decrypts data produced by Seal. Unsealed input yields ErrNotSealed so
// callers can accept plaintext written before a secret was configured.
func Open(secret string, data []byte) ([]byte, error) {
	if !IsSealed(data) {
		return nil, ErrNotSealed
	}
	var env envelope
	if err := json.Unmarshal(data[len(sealedPrefix):], &env); err != nil {
		return nil, ErrInvalid
	}
	if env.Version != envelopeVersion || env.KDF != "argon2id" || len(env.Salt) != saltSize {
		return nil, ErrInvalid
	}
	key := deriveKey(secret, env.Salt, Params{Time: env.KDFTime, MemoryKB: env.KDFMemoryKB, Threads: env.KDFThreads})
	defer clear(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	if len(env.Nonce) != aead.NonceSize() {
		return nil, ErrInvalid
	}
	plaintext, err := aead.Open(nil, env.Nonce, env.Ciphertext, []byte(sealedPrefix))
	if err != nil {
		return nil, ErrAuthFailed
	}
	return plaintext, nil
}

// WriteFileAtomic writes data through a temporary file and a rename. The
// directory is created 0700 and the file 0600.
func WriteFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

func deriveKey(secret string, salt []byte, p Params) []byte {
	if p.Time == 0 || p.MemoryKB == 0 || p.Threads == 0 {
		p = DefaultParams
	}
	return argon2.IDKey([]byte(secret), salt, p.Time, p.MemoryKB, p.Threads, chacha20poly1305.KeySize)
}
