package auth

import (
	"fmt"
	"sync"
)

// MockStore implements ProfileStore for testing purposes
type MockStore struct {
	profiles map[string]*Profile
	mu       sync.RWMutex

	// Error injection for testing
	StoreError    error
	RetrieveError error
	ListError     error
	DeleteError   error
}

// NewMockStore creates a new mock profile store
func NewMockStore() *MockStore {
	return &MockStore{
		profiles: make(map[string]*Profile),
	}
}

// Store saves a profile to the mock store
func (m *MockStore) Store(profile *Profile) error {
	if m.StoreError != nil {
		return m.StoreError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if profile == nil || profile.Name == "" {
		return ErrInvalidProfile
	}

	profileCopy := *profile
	m.profiles[profile.Name] = &profileCopy

	return nil
}

// Retrieve gets a profile from the mock store
func (m *MockStore) Retrieve(name string) (*Profile, error) {
	if m.RetrieveError != nil {
		return nil, m.RetrieveError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if name == "" {
		return nil, ErrInvalidProfile
	}

	profile, exists := m.profiles[name]
	if !exists {
		return nil, ErrProfileNotFound
	}

	profileCopy := *profile
	return &profileCopy, nil
}

// List returns all stored profiles from the mock store
func (m *MockStore) List() ([]*Profile, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var profiles []*Profile
	for _, profile := range m.profiles {
		profileCopy := *profile
		profiles = append(profiles, &profileCopy)
	}

	return profiles, nil
}

// Delete removes a profile from the mock store
func (m *MockStore) Delete(name string) error {
	if m.DeleteError != nil {
		return m.DeleteError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if name == "" {
		return ErrInvalidProfile
	}

	if _, exists := m.profiles[name]; !exists {
		return ErrProfileNotFound
	}

	delete(m.profiles, name)
	return nil
}

// Exists checks if a profile exists in the mock store
func (m *MockStore) Exists(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, exists := m.profiles[name]
	return exists
}

// Clear removes all profiles from the mock store
func (m *MockStore) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.profiles = make(map[string]*Profile)
}

// Count returns the number of profiles in the mock store
func (m *MockStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.profiles)
}

// GetProfile returns a copy of the profile for inspection
func (m *MockStore) GetProfile(name string) (*Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	profile, exists := m.profiles[name]
	if !exists {
		return nil, fmt.Errorf("profile not found: %s", name)
	}

	profileCopy := *profile
	return &profileCopy, nil
}

// NewMockManager creates a Manager with a mock store for testing
func NewMockManager() (*Manager, *MockStore) {
	mockStore := NewMockStore()
	manager := &Manager{
		stores: []ProfileStore{mockStore},
	}
	return manager, mockStore
}

// NewMockManagerWithStores creates a Manager with explicit stores for testing
func NewMockManagerWithStores(stores ...ProfileStore) *Manager {
	return &Manager{
		stores: stores,
	}
}
