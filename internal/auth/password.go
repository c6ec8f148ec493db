package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	saltBytes           = 16
	hashBytes           = 32
	credentialSeparator = "$"
)

// PasswordHasher produces and checks "<salt hex>$<argon2id hex>" credentials.
type PasswordHasher struct {
	time    uint32
	memory  uint32
	threads uint8
}

// NewPasswordHasher builds a hasher with the given Argon2id cost parameters.
func NewPasswordHasher(time, memoryKiB uint32, threads uint8) *PasswordHasher {
	if time == 0 {
		time = 1
	}
	if memoryKiB == 0 {
		memoryKiB = 19 * 1024
	}
	if threads == 0 {
		threads = 1
	}
	return &PasswordHasher{time: time, memory: memoryKiB, threads: threads}
}

// Hash returns a fresh salted credential for the plaintext password.
func (h *PasswordHasher) Hash(plaintext string) (string, error) {
	salt := make([]byte, saltBytes)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	saltHex := hex.EncodeToString(salt)
	return saltHex + credentialSeparator + hex.EncodeToString(h.derive(plaintext, saltHex)), nil
}

// Verify reports whether plaintext matches credential. Malformed credentials never match.
func (h *PasswordHasher) Verify(plaintext, credential string) bool {
	saltHex, hashHex, ok := strings.Cut(credential, credentialSeparator)
	if !ok || saltHex == "" || strings.Contains(hashHex, credentialSeparator) {
		return false
	}
	if _, err := hex.DecodeString(saltHex); err != nil {
		return false
	}
	stored, err := hex.DecodeString(hashHex)
	if err != nil || len(stored) != hashBytes {
		return false
	}
	return subtle.ConstantTimeCompare(h.derive(plaintext, saltHex), stored) == 1
}

func (h *PasswordHasher) derive(plaintext, saltHex string) []byte {
	return argon2.IDKey([]byte(plaintext), []byte(saltHex), h.time, h.memory, h.threads, hashBytes)
}
