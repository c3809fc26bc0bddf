package db

import (
	"context"
	"fmt"
	"servicedesk/models"
	"sort"
	"strings"
	"sync"
)

// MemoryDB is an in-process store for development and tests.
// Values are copied on the way in and out so callers never share state with it.
type MemoryDB struct {
	mu        sync.RWMutex
	users     map[string]models.User
	passwords map[string]string
	vehicles  map[string]models.Vehicle
	contacts  map[string]models.ContactMessage
}

// NewMemoryDB returns an empty in-memory store
func NewMemoryDB() *MemoryDB {
	m := &MemoryDB{}
	m.clear()
	return m
}

func (m *MemoryDB) clear() {
	m.users = make(map[string]models.User)
	m.passwords = make(map[string]string)
	m.vehicles = make(map[string]models.Vehicle)
	m.contacts = make(map[string]models.ContactMessage)
}

// Close is a no-op
func (m *MemoryDB) Close() error { return nil }

// --- User Operations ---

func (m *MemoryDB) CreateUser(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.ID != user.ID && strings.EqualFold(existing.Email, user.Email) {
			return fmt.Errorf("failed to create user: email %s already in use", user.Email)
		}
	}
	m.users[user.ID] = *user
	return nil
}

func (m *MemoryDB) GetUser(ctx context.Context, userID string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, found := m.users[userID]
	if !found {
		return nil, fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}
	return &user, nil
}

func (m *MemoryDB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, user := range m.users {
		if strings.EqualFold(user.Email, email) {
			u := user
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user %s: %w", email, ErrNotFound)
}

func (m *MemoryDB) GetAllUsers(ctx context.Context) ([]models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	users := make([]models.User, 0, len(m.users))
	for _, user := range m.users {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool {
		if !users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].CreatedAt.Before(users[j].CreatedAt)
		}
		return users[i].ID < users[j].ID
	})
	return users, nil
}

func (m *MemoryDB) UpdateUser(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, found := m.users[user.ID]; !found {
		return fmt.Errorf("user %s: %w", user.ID, ErrNotFound)
	}
	m.users[user.ID] = *user
	return nil
}

func (m *MemoryDB) DeleteUser(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, userID)
	delete(m.passwords, userID)
	return nil
}

// --- Password Operations ---

func (m *MemoryDB) StorePasswordHash(ctx context.Context, userID, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.passwords[userID] = passwordHash
	return nil
}

func (m *MemoryDB) GetPasswordHash(ctx context.Context, userID string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	hash, found := m.passwords[userID]
	if !found {
		return "", fmt.Errorf("password hash for %s: %w", userID, ErrNotFound)
	}
	return hash, nil
}

// --- Vehicle Operations ---

func (m *MemoryDB) CreateVehicle(ctx context.Context, vehicle *models.Vehicle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.vehicles[vehicle.ID]; exists {
		return fmt.Errorf("failed to create vehicle: %s already exists", vehicle.ID)
	}
	m.vehicles[vehicle.ID] = copyVehicle(*vehicle)
	return nil
}

func (m *MemoryDB) GetVehicle(ctx context.Context, vehicleID string) (*models.Vehicle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	vehicle, found := m.vehicles[vehicleID]
	if !found {
		return nil, fmt.Errorf("vehicle %s: %w", vehicleID, ErrNotFound)
	}
	v := copyVehicle(vehicle)
	return &v, nil
}

func (m *MemoryDB) GetAllVehicles(ctx context.Context) ([]models.Vehicle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	vehicles := make([]models.Vehicle, 0, len(m.vehicles))
	for _, vehicle := range m.vehicles {
		vehicles = append(vehicles, copyVehicle(vehicle))
	}
	sort.Slice(vehicles, func(i, j int) bool {
		if !vehicles[i].CreatedAt.Equal(vehicles[j].CreatedAt) {
			return vehicles[i].CreatedAt.Before(vehicles[j].CreatedAt)
		}
		return vehicles[i].ID < vehicles[j].ID
	})
	return vehicles, nil
}

func (m *MemoryDB) MutateVehicle(ctx context.Context, vehicleID string, fn func(*models.Vehicle) error) (*models.Vehicle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, found := m.vehicles[vehicleID]
	if !found {
		return nil, fmt.Errorf("vehicle %s: %w", vehicleID, ErrNotFound)
	}
	working := copyVehicle(stored)
	if err := fn(&working); err != nil {
		return nil, err
	}
	m.vehicles[vehicleID] = copyVehicle(working)
	return &working, nil
}

// --- Contact Operations ---

func (m *MemoryDB) CreateContact(ctx context.Context, msg *models.ContactMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contacts[msg.ID] = copyContact(*msg)
	return nil
}

func (m *MemoryDB) GetContact(ctx context.Context, contactID string) (*models.ContactMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	msg, found := m.contacts[contactID]
	if !found {
		return nil, fmt.Errorf("contact %s: %w", contactID, ErrNotFound)
	}
	c := copyContact(msg)
	return &c, nil
}

func (m *MemoryDB) GetAllContacts(ctx context.Context) ([]models.ContactMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	contacts := make([]models.ContactMessage, 0, len(m.contacts))
	for _, msg := range m.contacts {
		contacts = append(contacts, copyContact(msg))
	}
	sort.Slice(contacts, func(i, j int) bool {
		if !contacts[i].CreatedAt.Equal(contacts[j].CreatedAt) {
			return contacts[i].CreatedAt.Before(contacts[j].CreatedAt)
		}
		return contacts[i].ID < contacts[j].ID
	})
	return contacts, nil
}

func (m *MemoryDB) MutateContact(ctx context.Context, contactID string, fn func(*models.ContactMessage) error) (*models.ContactMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, found := m.contacts[contactID]
	if !found {
		return nil, fmt.Errorf("contact %s: %w", contactID, ErrNotFound)
	}
	working := copyContact(stored)
	if err := fn(&working); err != nil {
		return nil, err
	}
	m.contacts[contactID] = copyContact(working)
	return &working, nil
}

func (m *MemoryDB) Reset(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clear()
	return nil
}

func copyVehicle(v models.Vehicle) models.Vehicle {
	if v.History != nil {
		history := make([]models.HistoryEntry, len(v.History))
		copy(history, v.History)
		v.History = history
	}
	return v
}

func copyContact(c models.ContactMessage) models.ContactMessage {
	if c.RespondedAt != nil {
		at := *c.RespondedAt
		c.RespondedAt = &at
	}
	return c
}
