// Package auth stores browser cookie profiles across runs. A profile
// is a named raw cookie string captured from a logged-in browser
// session; stores hold it in the system keychain, an encrypted file,
// or the environment, tried in that order.
package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"sharefetch/pkg/cookie"
)

// Profile is one named cookie capture
type Profile struct {
	Name         string    `json:"name"`
	Cookie       string    `json:"cookie"`
	UserAgent    string    `json:"user_agent,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

// ProfileStore is the interface for storing and retrieving cookie profiles
type ProfileStore interface {
	// Store saves a profile
	Store(profile *Profile) error

	// Retrieve gets a profile by name
	Retrieve(name string) (*Profile, error)

	// List returns all stored profiles
	List() ([]*Profile, error)

	// Delete removes a profile by name
	Delete(name string) error

	// Exists checks if a profile exists
	Exists(name string) bool
}

// Manager handles profile storage with fallback mechanisms
type Manager struct {
	stores []ProfileStore
}

// NewManager creates a profile manager with the available storage backends
func NewManager() (*Manager, error) {
	var stores []ProfileStore

	// Try keyring first (system keychain)
	keyringStore, err := NewKeyringStore()
	if err == nil {
		stores = append(stores, keyringStore)
	}

	// Always add encrypted file store as fallback
	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}

	encryptedStore, err := NewEncryptedFileStore(filepath.Join(configDir, "profiles.enc"))
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}
	stores = append(stores, encryptedStore)

	// Add environment store as last resort
	stores = append(stores, NewEnvironmentStore())

	return &Manager{stores: stores}, nil
}

// Store saves a profile using the first store that accepts it. The
// cookie must at least carry the critical session fields; storing a
// cookie that cannot authenticate anything is always a caller bug.
func (m *Manager) Store(profile *Profile) error {
	if profile == nil || profile.Name == "" {
		return errors.New("profile name is required")
	}
	if _, usable, _ := cookie.Normalize(profile.Cookie); !usable {
		return fmt.Errorf("%w: cookie is missing critical session fields", ErrInvalidProfile)
	}

	profile.LastModified = time.Now()

	var lastErr error
	for _, store := range m.stores {
		if err := store.Store(profile); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}

	if lastErr != nil {
		return fmt.Errorf("failed to store profile: %w", lastErr)
	}
	return errors.New("no available profile stores")
}

// Retrieve gets a profile from the first store that has it
func (m *Manager) Retrieve(name string) (*Profile, error) {
	for _, store := range m.stores {
		if profile, err := store.Retrieve(name); err == nil && profile != nil {
			return profile, nil
		}
	}
	return nil, fmt.Errorf("profile not found: %s", name)
}

// RetrieveDefault gets the environment profile if set, otherwise the
// first stored profile
func (m *Manager) RetrieveDefault() (*Profile, error) {
	if envStore, ok := m.stores[len(m.stores)-1].(*EnvironmentStore); ok {
		if profile, err := envStore.Retrieve(""); err == nil && profile != nil {
			return profile, nil
		}
	}

	profiles, err := m.List()
	if err == nil && len(profiles) > 0 {
		return profiles[0], nil
	}

	return nil, ErrProfileNotFound
}

// List returns all stored profiles across stores, newest version wins
func (m *Manager) List() ([]*Profile, error) {
	profileMap := make(map[string]*Profile)

	for _, store := range m.stores {
		profiles, err := store.List()
		if err != nil {
			continue
		}
		for _, profile := range profiles {
			if existing, ok := profileMap[profile.Name]; !ok || profile.LastModified.After(existing.LastModified) {
				profileMap[profile.Name] = profile
			}
		}
	}

	var result []*Profile
	for _, profile := range profileMap {
		result = append(result, profile)
	}

	return result, nil
}

// Delete removes a profile from all stores
func (m *Manager) Delete(name string) error {
	var deleted bool
	var lastErr error

	for _, store := range m.stores {
		if err := store.Delete(name); err == nil {
			deleted = true
		} else {
			lastErr = err
		}
	}

	if !deleted && lastErr != nil {
		return fmt.Errorf("failed to delete profile: %w", lastErr)
	}
	if !deleted {
		return fmt.Errorf("profile not found: %s", name)
	}

	return nil
}

// getConfigDir returns the configuration directory path
func getConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", "sharefetch")
	case "windows":
		configDir = filepath.Join(os.Getenv("APPDATA"), "sharefetch")
	default: // Linux and others
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			configDir = filepath.Join(xdgConfig, "sharefetch")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			configDir = filepath.Join(home, ".config", "sharefetch")
		}
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// SanitizeProfile creates a copy of the profile with the cookie masked
// so it can be logged or printed
func SanitizeProfile(profile *Profile) *Profile {
	if profile == nil {
		return nil
	}

	return &Profile{
		Name:         profile.Name,
		Cookie:       maskString(profile.Cookie),
		UserAgent:    profile.UserAgent,
		LastModified: profile.LastModified,
	}
}

// maskString masks all but the first 4 and last 4 characters of a string
func maskString(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

// Errors
var (
	ErrProfileNotFound  = errors.New("profile not found")
	ErrInvalidProfile   = errors.New("invalid profile")
	ErrStoreUnavailable = errors.New("profile store unavailable")
)
