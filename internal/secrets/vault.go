// Package secrets holds signing secrets in memory and reloads them on
// demand (SIGHUP) without a restart.
package secrets

import (
	"fmt"
	"sync"
)

// KeyJWTSecret is the vault key of the token signing secret.
const KeyJWTSecret = "JWT_SECRET"

// Loader retrieves secrets from a source (env vars, file, static config).
type Loader func() (map[string]string, error)

// Vault holds secret values and the values they replaced on the last
// reload, so that tokens signed just before a rotation still verify.
type Vault struct {
	mu       sync.RWMutex
	values   map[string]string
	previous map[string]string
	loader   Loader
	required []string
}

// NewVault creates a Vault, calling the loader once to populate initial
// values. Every key in required must be present and non-empty.
func NewVault(loader Loader, required ...string) (*Vault, error) {
	v := &Vault{loader: loader, required: required}
	vals, err := v.load()
	if err != nil {
		return nil, fmt.Errorf("initial secret load: %w", err)
	}
	v.values = vals
	return v, nil
}

// Get returns the secret for key, or an empty string if not found.
func (v *Vault) Get(key string) string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.values[key]
}

// Previous returns the value key had before the last reload that changed
// it, or an empty string.
func (v *Vault) Previous(key string) string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.previous[key]
}

// Reload calls the loader and swaps in the new values atomically.
// If the loader fails or a required key is missing, existing values are
// preserved.
func (v *Vault) Reload() error {
	newVals, err := v.load()
	if err != nil {
		return fmt.Errorf("reload secrets: %w", err)
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	prev := make(map[string]string)
	for k, old := range v.values {
		if newVals[k] != old {
			prev[k] = old
		}
	}
	v.previous = prev
	v.values = newVals
	return nil
}

func (v *Vault) load() (map[string]string, error) {
	vals, err := v.loader()
	if err != nil {
		return nil, err
	}
	for _, k := range v.required {
		if vals[k] == "" {
			return nil, fmt.Errorf("required secret %s is missing", k)
		}
	}
	return vals, nil
}
