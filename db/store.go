package db

import (
	"context"
	"errors"
	"fmt"
	"servicedesk/config"
	"servicedesk/models"
)

// ErrNotFound is returned when a requested document does not exist
var ErrNotFound = errors.New("not found")

// Store is the persistence contract of the data API. Every implementation
// applies MutateVehicle and MutateContact atomically per document; concurrent
// writers are otherwise unordered and the last write wins.
type Store interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, userID string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetAllUsers(ctx context.Context) ([]models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, userID string) error

	StorePasswordHash(ctx context.Context, userID, passwordHash string) error
	GetPasswordHash(ctx context.Context, userID string) (string, error)

	CreateVehicle(ctx context.Context, vehicle *models.Vehicle) error
	GetVehicle(ctx context.Context, vehicleID string) (*models.Vehicle, error)
	GetAllVehicles(ctx context.Context) ([]models.Vehicle, error)
	// MutateVehicle loads the vehicle, applies fn and stores the result in one
	// atomic step. An error from fn aborts the write and is returned unchanged.
	MutateVehicle(ctx context.Context, vehicleID string, fn func(*models.Vehicle) error) (*models.Vehicle, error)

	CreateContact(ctx context.Context, msg *models.ContactMessage) error
	GetContact(ctx context.Context, contactID string) (*models.ContactMessage, error)
	GetAllContacts(ctx context.Context) ([]models.ContactMessage, error)
	MutateContact(ctx context.Context, contactID string, fn func(*models.ContactMessage) error) (*models.ContactMessage, error)

	// Reset destroys every user, password hash, vehicle and contact message.
	Reset(ctx context.Context) error
	Close() error
}

// Open creates the store selected by cfg.Storage.Backend
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.Storage.Backend {
	case config.BackendMemory:
		return NewMemoryDB(), nil
	case config.BackendFirestore:
		store, err := NewFirestoreDB(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsPath)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.BackendPostgres:
		store, err := NewPostgresDB(ctx, cfg.Storage.DatabaseURL, cfg.Logging.Level == "debug")
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

var (
	_ Store = (*MemoryDB)(nil)
	_ Store = (*FirestoreDB)(nil)
	_ Store = (*PostgresDB)(nil)
)
