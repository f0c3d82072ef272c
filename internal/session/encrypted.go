package session

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"sync"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltKey          = "_salt"
	saltSize         = 16
	pbkdf2Iterations = 100000
	keySize          = 32
)

// EncryptedStorage encrypts values with AES-256-GCM before handing them to an
// inner Storage. The key is derived from a passphrase with PBKDF2-SHA256; the
// random salt is kept in the inner storage under "_salt".
type EncryptedStorage struct {
	inner      Storage
	passphrase []byte

	once sync.Once
	aead cipher.AEAD
	err  error
}

// NewEncryptedStorage wraps inner with passphrase-based encryption.
func NewEncryptedStorage(inner Storage, passphrase string) (*EncryptedStorage, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("encrypted session storage requires a passphrase")
	}
	return &EncryptedStorage{inner: inner, passphrase: []byte(passphrase)}, nil
}

// Get decrypts the value stored under key.
func (e *EncryptedStorage) Get(key string) (string, bool, error) {
	raw, ok, err := e.inner.Get(key)
	if err != nil || !ok {
		return "", ok, err
	}
	aead, err := e.cipher()
	if err != nil {
		return "", false, err
	}
	plain, err := decrypt(aead, raw)
	if err != nil {
		return "", false, fmt.Errorf("failed to decrypt %q: %w", key, err)
	}
	return plain, true, nil
}

// Set encrypts value and stores it under key.
func (e *EncryptedStorage) Set(key, value string) error {
	aead, err := e.cipher()
	if err != nil {
		return err
	}
	sealed, err := encrypt(aead, value)
	if err != nil {
		return fmt.Errorf("failed to encrypt %q: %w", key, err)
	}
	return e.inner.Set(key, sealed)
}

// Remove deletes key from the inner storage.
func (e *EncryptedStorage) Remove(key string) error {
	return e.inner.Remove(key)
}

func (e *EncryptedStorage) cipher() (cipher.AEAD, error) {
	e.once.Do(func() {
		salt, err := e.salt()
		if err != nil {
			e.err = err
			return
		}
		key := pbkdf2.Key(e.passphrase, salt, pbkdf2Iterations, keySize, sha256.New)
		block, err := aes.NewCipher(key)
		if err != nil {
			e.err = fmt.Errorf("failed to create cipher: %w", err)
			return
		}
		e.aead, e.err = cipher.NewGCM(block)
	})
	return e.aead, e.err
}

func (e *EncryptedStorage) salt() ([]byte, error) {
	encoded, ok, err := e.inner.Get(saltKey)
	if err != nil {
		return nil, err
	}
	if ok {
		salt, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("corrupt salt: %w", err)
		}
		return salt, nil
	}

	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	if err := e.inner.Set(saltKey, base64.StdEncoding.EncodeToString(salt)); err != nil {
		return nil, err
	}
	return salt, nil
}

func encrypt(aead cipher.AEAD, plaintext string) (string, error) {
	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	sealed := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func decrypt(aead cipher.AEAD, encoded string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", err
	}
	nonceSize := aead.NonceSize()
	if len(data) < nonceSize {
		return "", fmt.Errorf("ciphertext too short")
	}
	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plain, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}
