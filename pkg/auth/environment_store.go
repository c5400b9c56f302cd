package auth

import (
	"os"
	"time"
)

// EnvironmentStore implements ProfileStore using environment
// variables. Read-only; handy for CI and one-off runs.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based profile store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(profile *Profile) error {
	return ErrStoreUnavailable
}

// Retrieve gets a profile from environment variables
func (e *EnvironmentStore) Retrieve(name string) (*Profile, error) {
	rawCookie := os.Getenv("SHAREFETCH_COOKIE")
	if rawCookie == "" {
		return nil, ErrProfileNotFound
	}

	// The environment holds a single unnamed cookie
	if name == "" {
		name = os.Getenv("SHAREFETCH_COOKIE_PROFILE")
	}
	if name == "" {
		name = "default"
	}

	return &Profile{
		Name:         name,
		Cookie:       rawCookie,
		LastModified: time.Now(),
	}, nil
}

// List returns a single profile if the environment cookie is set
func (e *EnvironmentStore) List() ([]*Profile, error) {
	profile, err := e.Retrieve("")
	if err != nil {
		return []*Profile{}, nil
	}
	return []*Profile{profile}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(name string) error {
	return ErrStoreUnavailable
}

// Exists checks if the environment cookie is set
func (e *EnvironmentStore) Exists(name string) bool {
	return os.Getenv("SHAREFETCH_COOKIE") != ""
}
