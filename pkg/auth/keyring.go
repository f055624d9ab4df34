package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/amansahu205/ETH-GLOBAL-NYC-2025/pkg/models"
)

var ErrInvalidKey = errors.New("invalid API key")

// KeyEntry binds one bcrypt-hashed API key to the on-chain identity it
// authenticates as.
type KeyEntry struct {
	Hash      string    `yaml:"hash"`
	Address   string    `yaml:"address"`
	Label     string    `yaml:"label,omitempty"`
	CreatedAt time.Time `yaml:"created_at"`
}

type keyringFile struct {
	Keys []KeyEntry `yaml:"keys"`
}

// Keyring maps bearer API keys to caller addresses. Keys are stored
// bcrypt-hashed, so the keyring file never holds a usable secret.
type Keyring struct {
	entries []KeyEntry
	path    string
	mu      sync.RWMutex
}

// NewKeyring creates an empty in-memory keyring.
func NewKeyring() *Keyring {
	return &Keyring{}
}

// LoadKeyring reads a keyring from a YAML file. A missing file yields an
// empty keyring so first boot can mint keys into it.
func LoadKeyring(path string) (*Keyring, error) {
	kr := &Keyring{path: path}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return kr, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read keyring: %w", err)
	}

	var file keyringFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse keyring: %w", err)
	}
	kr.entries = file.Keys
	return kr, nil
}

// GenerateKey mints a random API key for addr and stores its hash. The
// plaintext key is returned exactly once and cannot be recovered later.
func (kr *Keyring) GenerateKey(addr models.Address, label string) (string, error) {
	keyBytes := make([]byte, 32)
	if _, err := rand.Read(keyBytes); err != nil {
		return "", fmt.Errorf("failed to generate API key: %w", err)
	}

	apiKey := base64.URLEncoding.EncodeToString(keyBytes)

	hash, err := bcrypt.GenerateFromPassword([]byte(apiKey), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash API key: %w", err)
	}

	kr.mu.Lock()
	defer kr.mu.Unlock()

	kr.entries = append(kr.entries, KeyEntry{
		Hash:      string(hash),
		Address:   string(addr),
		Label:     label,
		CreatedAt: time.Now().UTC(),
	})

	if kr.path != "" {
		if err := kr.saveLocked(); err != nil {
			return "", err
		}
	}
	return apiKey, nil
}

// Resolve returns the caller address an API key authenticates as.
func (kr *Keyring) Resolve(apiKey string) (models.Address, error) {
	kr.mu.RLock()
	defer kr.mu.RUnlock()

	for _, entry := range kr.entries {
		if err := bcrypt.CompareHashAndPassword([]byte(entry.Hash), []byte(apiKey)); err == nil {
			return models.Address(entry.Address), nil
		}
	}
	return "", ErrInvalidKey
}

// Revoke removes every key bound to addr.
func (kr *Keyring) Revoke(addr models.Address) {
	kr.mu.Lock()
	defer kr.mu.Unlock()

	kept := kr.entries[:0]
	for _, entry := range kr.entries {
		if entry.Address != string(addr) {
			kept = append(kept, entry)
		}
	}
	kr.entries = kept

	if kr.path != "" {
		// Revocation proceeds even if the file write fails; the in-memory
		// view is authoritative for this process.
		_ = kr.saveLocked()
	}
}

// Len returns the number of stored keys.
func (kr *Keyring) Len() int {
	kr.mu.RLock()
	defer kr.mu.RUnlock()
	return len(kr.entries)
}

func (kr *Keyring) saveLocked() error {
	data, err := yaml.Marshal(keyringFile{Keys: kr.entries})
	if err != nil {
		return fmt.Errorf("failed to marshal keyring: %w", err)
	}
	if err := os.WriteFile(kr.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write keyring: %w", err)
	}
	return nil
}

// SecureCompare performs constant-time comparison
func SecureCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
