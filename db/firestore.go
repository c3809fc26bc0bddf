package db

import (
	"context"
	"errors"
	"fmt"
	"log"
	"servicedesk/models"
	"time"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	usersCollection     = "users"
	passwordsCollection = "passwords"
	vehiclesCollection  = "vehicles"
	contactsCollection  = "contacts"
)

// FirestoreDB wraps the Firestore client
type FirestoreDB struct {
	client *firestore.Client
}

// NewFirestoreDB initializes a new Firestore client
func NewFirestoreDB(ctx context.Context, projectID, credentialsPath string) (*FirestoreDB, error) {
	opt := option.WithCredentialsFile(credentialsPath)

	config := &firebase.Config{ProjectID: projectID}
	app, err := firebase.NewApp(ctx, config, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing Firebase app: %w", err)
	}

	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("error initializing Firestore client: %w", err)
	}

	log.Printf("✅ Connected to Firestore project: %s", projectID)

	return &FirestoreDB{
		client: client,
	}, nil
}

// Close closes the Firestore client
func (db *FirestoreDB) Close() error {
	return db.client.Close()
}

// notFound maps a Firestore NotFound status onto ErrNotFound
func notFound(err error, what string) error {
	if status.Code(err) == codes.NotFound {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return fmt.Errorf("failed to get %s: %w", what, err)
}

// collect drains a document iterator into a typed slice, skipping documents that fail to decode
func collect[T any](iter *firestore.DocumentIterator, kind string) ([]T, error) {
	defer iter.Stop()

	out := []T{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate %s: %w", kind, err)
		}

		var item T
		if err := doc.DataTo(&item); err != nil {
			log.Printf("Warning: failed to parse %s %s: %v", kind, doc.Ref.ID, err)
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

// --- User Operations ---

// CreateUser creates a new user in Firestore
func (db *FirestoreDB) CreateUser(ctx context.Context, user *models.User) error {
	_, err := db.client.Collection(usersCollection).Doc(user.ID).Set(ctx, user)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUser retrieves a user by ID
func (db *FirestoreDB) GetUser(ctx context.Context, userID string) (*models.User, error) {
	doc, err := db.client.Collection(usersCollection).Doc(userID).Get(ctx)
	if err != nil {
		return nil, notFound(err, "user "+userID)
	}

	var user models.User
	if err := doc.DataTo(&user); err != nil {
		return nil, fmt.Errorf("failed to parse user: %w", err)
	}

	return &user, nil
}

// GetUserByEmail retrieves a user by email address
func (db *FirestoreDB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	iter := db.client.Collection(usersCollection).
		Where("email", "==", email).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, fmt.Errorf("user %s: %w", email, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	var user models.User
	if err := doc.DataTo(&user); err != nil {
		return nil, fmt.Errorf("failed to parse user: %w", err)
	}

	return &user, nil
}

// GetAllUsers retrieves all users
func (db *FirestoreDB) GetAllUsers(ctx context.Context) ([]models.User, error) {
	iter := db.client.Collection(usersCollection).OrderBy("created_at", firestore.Asc).Documents(ctx)
	return collect[models.User](iter, "user")
}

// UpdateUser updates an existing user
func (db *FirestoreDB) UpdateUser(ctx context.Context, user *models.User) error {
	_, err := db.client.Collection(usersCollection).Doc(user.ID).Set(ctx, user)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

// DeleteUser deletes a user and its password hash
func (db *FirestoreDB) DeleteUser(ctx context.Context, userID string) error {
	if _, err := db.client.Collection(usersCollection).Doc(userID).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if _, err := db.client.Collection(passwordsCollection).Doc(userID).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete password hash: %w", err)
	}
	return nil
}

// --- Password Operations ---

// StorePasswordHash stores a password hash for a user
func (db *FirestoreDB) StorePasswordHash(ctx context.Context, userID, passwordHash string) error {
	_, err := db.client.Collection(passwordsCollection).Doc(userID).Set(ctx, map[string]interface{}{
		"user_id":       userID,
		"password_hash": passwordHash,
		"updated_at":    time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to store password hash: %w", err)
	}
	return nil
}

// GetPasswordHash retrieves a password hash for a user
func (db *FirestoreDB) GetPasswordHash(ctx context.Context, userID string) (string, error) {
	doc, err := db.client.Collection(passwordsCollection).Doc(userID).Get(ctx)
	if err != nil {
		return "", notFound(err, "password hash for "+userID)
	}

	data := doc.Data()
	if hash, ok := data["password_hash"].(string); ok {
		return hash, nil
	}

	return "", fmt.Errorf("password hash for %s: %w", userID, ErrNotFound)
}

// --- Vehicle Operations ---

// CreateVehicle creates a new vehicle document; it fails if the ID is taken
func (db *FirestoreDB) CreateVehicle(ctx context.Context, vehicle *models.Vehicle) error {
	_, err := db.client.Collection(vehiclesCollection).Doc(vehicle.ID).Create(ctx, vehicle)
	if err != nil {
		return fmt.Errorf("failed to create vehicle: %w", err)
	}
	return nil
}

// GetVehicle retrieves a vehicle by ID
func (db *FirestoreDB) GetVehicle(ctx context.Context, vehicleID string) (*models.Vehicle, error) {
	doc, err := db.client.Collection(vehiclesCollection).Doc(vehicleID).Get(ctx)
	if err != nil {
		return nil, notFound(err, "vehicle "+vehicleID)
	}

	var vehicle models.Vehicle
	if err := doc.DataTo(&vehicle); err != nil {
		return nil, fmt.Errorf("failed to parse vehicle: %w", err)
	}
	return &vehicle, nil
}

// GetAllVehicles retrieves all vehicles in creation order
func (db *FirestoreDB) GetAllVehicles(ctx context.Context) ([]models.Vehicle, error) {
	iter := db.client.Collection(vehiclesCollection).OrderBy("created_at", firestore.Asc).Documents(ctx)
	return collect[models.Vehicle](iter, "vehicle")
}

// MutateVehicle applies fn inside a Firestore transaction
func (db *FirestoreDB) MutateVehicle(ctx context.Context, vehicleID string, fn func(*models.Vehicle) error) (*models.Vehicle, error) {
	ref := db.client.Collection(vehiclesCollection).Doc(vehicleID)
	var vehicle models.Vehicle

	err := db.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if err != nil {
			return notFound(err, "vehicle "+vehicleID)
		}
		vehicle = models.Vehicle{}
		if err := doc.DataTo(&vehicle); err != nil {
			return fmt.Errorf("failed to parse vehicle: %w", err)
		}
		if err := fn(&vehicle); err != nil {
			return err
		}
		return tx.Set(ref, &vehicle)
	})
	if err != nil {
		return nil, err
	}
	return &vehicle, nil
}

// --- Contact Operations ---

// CreateContact stores a new contact message
func (db *FirestoreDB) CreateContact(ctx context.Context, msg *models.ContactMessage) error {
	_, err := db.client.Collection(contactsCollection).Doc(msg.ID).Set(ctx, msg)
	if err != nil {
		return fmt.Errorf("failed to create contact message: %w", err)
	}
	return nil
}

// GetContact retrieves a contact message by ID
func (db *FirestoreDB) GetContact(ctx context.Context, contactID string) (*models.ContactMessage, error) {
	doc, err := db.client.Collection(contactsCollection).Doc(contactID).Get(ctx)
	if err != nil {
		return nil, notFound(err, "contact "+contactID)
	}

	var msg models.ContactMessage
	if err := doc.DataTo(&msg); err != nil {
		return nil, fmt.Errorf("failed to parse contact message: %w", err)
	}
	return &msg, nil
}

// GetAllContacts retrieves all contact messages in arrival order
func (db *FirestoreDB) GetAllContacts(ctx context.Context) ([]models.ContactMessage, error) {
	iter := db.client.Collection(contactsCollection).OrderBy("created_at", firestore.Asc).Documents(ctx)
	return collect[models.ContactMessage](iter, "contact")
}

// MutateContact applies fn inside a Firestore transaction
func (db *FirestoreDB) MutateContact(ctx context.Context, contactID string, fn func(*models.ContactMessage) error) (*models.ContactMessage, error) {
	ref := db.client.Collection(contactsCollection).Doc(contactID)
	var msg models.ContactMessage

	err := db.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if err != nil {
			return notFound(err, "contact "+contactID)
		}
		msg = models.ContactMessage{}
		if err := doc.DataTo(&msg); err != nil {
			return fmt.Errorf("failed to parse contact message: %w", err)
		}
		if err := fn(&msg); err != nil {
			return err
		}
		return tx.Set(ref, &msg)
	})
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// Reset deletes every document of every collection owned by the service
// desk. Deletes go through one BulkWriter, which batches and retries them.
func (db *FirestoreDB) Reset(ctx context.Context) error {
	bw := db.client.BulkWriter(ctx)
	var errs []error
	for _, name := range []string{vehiclesCollection, contactsCollection, passwordsCollection, usersCollection} {
		refs, err := db.client.Collection(name).DocumentRefs(ctx).GetAll()
		if err != nil {
			bw.End()
			return fmt.Errorf("failed to list %s: %w", name, err)
		}

		jobs := make([]*firestore.BulkWriterJob, 0, len(refs))
		for _, ref := range refs {
			job, err := bw.Delete(ref)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s/%s: %w", name, ref.ID, err))
				continue
			}
			jobs = append(jobs, job)
		}
		bw.Flush()

		failed := 0
		for _, job := range jobs {
			if _, err := job.Results(); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				failed++
			}
		}
		log.Printf("🧹 Cleared %d documents from %s", len(jobs)-failed, name)
	}
	bw.End()

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("failed to reset firestore: %w", err)
	}
	return nil
}
