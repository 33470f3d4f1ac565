package tokenstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// Keyring stores values in the OS-native credential store.
// Uses macOS Keychain, Windows Credential Manager, or Linux Secret Service.
type Keyring struct {
	service string
}

// Compile-time check to ensure Keyring implements Store
var _ Store = (*Keyring)(nil)

// NewKeyring creates a Keyring store scoped to the given service identifier.
func NewKeyring(service string) (*Keyring, error) {
	if service == "" {
		return nil, fmt.Errorf("service cannot be empty")
	}

	return &Keyring{service: service}, nil
}

// Get returns the value from the system keyring, or "" if not found.
func (k *Keyring) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	value, err := keyring.Get(k.service, key)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// Set persists the value to the system keyring, overwriting any existing value.
func (k *Keyring) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return keyring.Set(k.service, key, value)
}

// Remove deletes the value from the system keyring.
func (k *Keyring) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := keyring.Delete(k.service, key)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}
