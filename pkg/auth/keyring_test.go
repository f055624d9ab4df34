package auth

import (
	"path/filepath"
	"testing"

	"github.com/amansahu205/ETH-GLOBAL-NYC-2025/pkg/models"
)

const testAddr = models.Address("0xdddd000000000000000000000000000000000001")

func TestGenerateAndResolve(t *testing.T) {
	kr := NewKeyring()

	key, err := kr.GenerateKey(testAddr, "test")
	if err != nil {
		t.Fatalf("Failed to generate key: %v", err)
	}
	if key == "" {
		t.Fatal("Expected non-empty key")
	}

	addr, err := kr.Resolve(key)
	if err != nil {
		t.Fatalf("Failed to resolve key: %v", err)
	}
	if addr != testAddr {
		t.Errorf("Expected %s, got %s", testAddr, addr)
	}

	if _, err := kr.Resolve("wrong-key"); err != ErrInvalidKey {
		t.Errorf("Expected ErrInvalidKey, got %v", err)
	}
}

func TestRevoke(t *testing.T) {
	kr := NewKeyring()

	key, err := kr.GenerateKey(testAddr, "test")
	if err != nil {
		t.Fatalf("Failed to generate key: %v", err)
	}

	kr.Revoke(testAddr)

	if _, err := kr.Resolve(key); err != ErrInvalidKey {
		t.Errorf("Expected revoked key to be rejected, got %v", err)
	}
	if kr.Len() != 0 {
		t.Errorf("Expected empty keyring, got %d entries", kr.Len())
	}
}

func TestKeyringPersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keyring.yaml")

	kr, err := LoadKeyring(path)
	if err != nil {
		t.Fatalf("Failed to load missing keyring: %v", err)
	}
	key, err := kr.GenerateKey(testAddr, "persisted")
	if err != nil {
		t.Fatalf("Failed to generate key: %v", err)
	}

	reloaded, err := LoadKeyring(path)
	if err != nil {
		t.Fatalf("Failed to reload keyring: %v", err)
	}
	addr, err := reloaded.Resolve(key)
	if err != nil {
		t.Fatalf("Failed to resolve key after reload: %v", err)
	}
	if addr != testAddr {
		t.Errorf("Expected %s, got %s", testAddr, addr)
	}
}

func TestSecureCompare(t *testing.T) {
	if !SecureCompare("abc", "abc") {
		t.Error("Expected equal strings to compare true")
	}
	if SecureCompare("abc", "abd") {
		t.Error("Expected different strings to compare false")
	}
}
