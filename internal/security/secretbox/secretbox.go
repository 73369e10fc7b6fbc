// Package secretbox encrypts small secrets at rest (provider client
// secrets in config files) with a master key taken from the environment.
// Format: base64(nonce)|base64(ciphertext).
package secretbox

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/crypto/nacl/secretbox"
)

const (
	masterKeyEnvVar   = "FORUMD_MASTER_KEY"
	nonceSize         = 24
	requiredKeyLength = 32
	sep               = "|"
)

var (
	masterKey     [requiredKeyLength]byte
	masterKeyOnce sync.Once
	loaded        bool
	loadErr       error
)

// ensureLoaded reads the base64 master key from the env exactly once.
func ensureLoaded() error {
	masterKeyOnce.Do(func() {
		kb64 := strings.TrimSpace(os.Getenv(masterKeyEnvVar))
		if kb64 == "" {
			loadErr = fmt.Errorf("%s not set; generate one with: openssl rand -base64 32", masterKeyEnvVar)
			return
		}
		k, err := base64.StdEncoding.DecodeString(kb64)
		if err != nil {
			loadErr = fmt.Errorf("decode %s: %w", masterKeyEnvVar, err)
			return
		}
		if len(k) != requiredKeyLength {
			loadErr = fmt.Errorf("%s must decode to %d bytes, got %d", masterKeyEnvVar, requiredKeyLength, len(k))
			return
		}
		copy(masterKey[:], k)
		loaded = true
	})
	return loadErr
}

// Ready reports whether the master key is loaded. Useful for config checks.
func Ready() bool {
	return ensureLoaded() == nil && loaded
}

// Encrypt seals plainText and returns base64(nonce)|base64(ciphertext).
func Encrypt(plainText string) (string, error) {
	if err := ensureLoaded(); err != nil {
		return "", err
	}
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", err
	}
	ct := secretbox.Seal(nil, []byte(plainText), &nonce, &masterKey)
	return base64.StdEncoding.EncodeToString(nonce[:]) + sep + base64.StdEncoding.EncodeToString(ct), nil
}

// Decrypt opens a value produced by Encrypt. Any tampering fails.
func Decrypt(value string) (string, error) {
	if err := ensureLoaded(); err != nil {
		return "", err
	}
	parts := strings.SplitN(value, sep, 2)
	if len(parts) != 2 {
		return "", fmt.Errorf("secretbox: malformed value")
	}
	nb, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil || len(nb) != nonceSize {
		return "", fmt.Errorf("secretbox: bad nonce")
	}
	ct, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return "", fmt.Errorf("secretbox: bad ciphertext")
	}
	var nonce [nonceSize]byte
	copy(nonce[:], nb)
	pt, ok := secretbox.Open(nil, ct, &nonce, &masterKey)
	if !ok {
		return "", fmt.Errorf("secretbox: authentication failed")
	}
	return string(pt), nil
}

// MaybeDecrypt decrypts values carrying the enc: prefix and passes
// plaintext values through. Lets config files mix both.
func MaybeDecrypt(value string) (string, error) {
	const prefix = "enc:"
	if !strings.HasPrefix(value, prefix) {
		return value, nil
	}
	return Decrypt(strings.TrimPrefix(value, prefix))
}

// UnsafeResetForTests clears the loaded key so tests can vary the env.
func UnsafeResetForTests() {
	masterKeyOnce = sync.Once{}
	loaded = false
	loadErr = nil
	masterKey = [requiredKeyLength]byte{}
}
