package auth

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const (
	service = "adminkit-cli"
)

// ErrNotAuthenticated is returned by LoadToken when no token is stored
var ErrNotAuthenticated = errors.New("not authenticated. Please run 'adminkit login' first")

// TokenStore persists the session token for one server under a fixed key
type TokenStore interface {
	// Get returns the stored token, or "" when none is stored
	Get() (string, error)
	Set(token string) error
	// Remove deletes the token; removing a missing token is not an error
	Remove() error
}

// getKeyringKey returns the fixed key under which a server's token is stored
func getKeyringKey(serverURL string) string {
	return fmt.Sprintf("admin-token@%s", serverURL)
}

// SaveToken persists the token securely in the OS keychain/credential manager
func SaveToken(serverURL, token string) error {
	key := getKeyringKey(serverURL)
	if err := keyring.Set(service, key, token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// LoadToken retrieves the token from the OS keychain/credential manager
func LoadToken(serverURL string) (string, error) {
	key := getKeyringKey(serverURL)
	token, err := keyring.Get(service, key)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotAuthenticated
		}
		return "", fmt.Errorf("failed to load token: %w", err)
	}
	return token, nil
}

// DeleteToken removes the token from the OS keychain/credential manager
func DeleteToken(serverURL string) error {
	key := getKeyringKey(serverURL)
	if err := keyring.Delete(service, key); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil // Already deleted
		}
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}

// KeyringStore implements TokenStore on top of the OS keyring
type KeyringStore struct {
	serverURL string
}

// NewKeyringStore returns the token store bound to serverURL
func NewKeyringStore(serverURL string) *KeyringStore {
	return &KeyringStore{serverURL: serverURL}
}

func (k *KeyringStore) Get() (string, error) {
	token, err := LoadToken(k.serverURL)
	if errors.Is(err, ErrNotAuthenticated) {
		return "", nil
	}
	return token, err
}

func (k *KeyringStore) Set(token string) error {
	return SaveToken(k.serverURL, token)
}

func (k *KeyringStore) Remove() error {
	return DeleteToken(k.serverURL)
}
