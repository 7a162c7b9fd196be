package config

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// KeyringService is the OS keyring service holding provider passwords.
const KeyringService = "iptvstrm"

// StorePassword saves the provider password for username in the OS keyring.
func StorePassword(username, password string) error {
	if username == "" {
		return errors.New("username required")
	}
	if err := keyring.Set(KeyringService, username, password); err != nil {
		return fmt.Errorf("store password: %w", err)
	}
	return nil
}

// resolvePassword fills an empty provider password from the keyring.
// Missing entries and hosts without a keyring backend leave it empty;
// Validate reports that when the provider needs a password.
func (c *Config) resolvePassword() {
	p := &c.Provider
	if p.Password != "" || p.Username == "" {
		return
	}
	if secret, err := keyring.Get(KeyringService, p.Username); err == nil {
		p.Password = secret
	}
}
