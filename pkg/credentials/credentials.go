// Package credentials stores the platform API key in the operating system's
// keyring (Keychain on macOS, Secret Service on Linux, Credential Manager on
// Windows).
package credentials

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/zalando/go-keyring"
)

const (
	// Service is the keyring service the API key is stored under.
	Service = "adpt-api-key"

	// User is the keyring account the API key is stored under.
	User = "Adaptive"
)

// ErrNotFound is returned by Get when no key has been stored.
var ErrNotFound = errors.New("API key not present in OS keyring")

type (
	// Store reads and writes the API key.
	Store interface {
		Get() (string, error)
		Set(apiKey string) error
	}

	// Keyring is the Store backed by the OS keyring.
	Keyring struct{}
)

// NewKeyring returns the OS keyring store.
func NewKeyring() *Keyring {
	return &Keyring{}
}

// Get returns the stored API key, or ErrNotFound.
func (*Keyring) Get() (string, error) {
	key, err := keyring.Get(Service, User)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrNotFound
	}

	if err != nil {
		return "", errors.Wrap(err, "failed to read API key from OS keyring")
	}

	return key, nil
}

// Set stores the API key, replacing any previous one.
func (*Keyring) Set(apiKey string) error {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return errors.New("API key must not be empty")
	}

	return errors.Wrap(keyring.Set(Service, User, apiKey), "failed to write API key to OS keyring")
}
