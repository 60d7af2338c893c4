package security

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/nacl/secretbox"
)

// Key derivation parameters. They match libsodium's "interactive" Argon2id
// limits: time 2, 64 MiB of memory.
const (
	argonTime    = 2
	argonMemory  = 64 * 1024 // KiB
	argonThreads = 1

	KeySize   = 32
	SaltSize  = 16
	NonceSize = 24
)

// ErrAuthentication is returned by Open for a wrong password, a modified
// ciphertext and an undecodable envelope alike.
var ErrAuthentication = errors.New("secrets: authentication failed")

// envelope is the serialized form of sealed secrets.
type envelope struct {
	Salt       []byte `cbor:"salt"`
	Nonce      []byte `cbor:"nonce"`
	Ciphertext []byte `cbor:"ciphertext"`
}

// Seal encrypts plaintext under a key derived from password. Salt and nonce
// are fresh random values on every call.
func Seal(plaintext []byte, password string) ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	var nonce [NonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	key := deriveKey(password, salt)
	ciphertext := secretbox.Seal(nil, plaintext, &nonce, &key)

	blob, err := cbor.Marshal(envelope{Salt: salt, Nonce: nonce[:], Ciphertext: ciphertext})
	if err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}
	return blob, nil
}

// Open reverses Seal.
func Open(blob []byte, password string) ([]byte, error) {
	var env envelope
	if err := cbor.Unmarshal(blob, &env); err != nil {
		return nil, ErrAuthentication
	}
	if len(env.Salt) != SaltSize || len(env.Nonce) != NonceSize {
		return nil, ErrAuthentication
	}

	var nonce [NonceSize]byte
	copy(nonce[:], env.Nonce)
	key := deriveKey(password, env.Salt)

	plaintext, ok := secretbox.Open(nil, env.Ciphertext, &nonce, &key)
	if !ok {
		return nil, ErrAuthentication
	}
	if plaintext == nil {
		plaintext = []byte{}
	}
	return plaintext, nil
}

func deriveKey(password string, salt []byte) [KeySize]byte {
	var key [KeySize]byte
	copy(key[:], argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, KeySize))
	return key
}
