package handlers

import (
	"context"
	"fmt"
	"log"
	"time"

	"servicedesk/config"
	"servicedesk/db"
	"servicedesk/models"
)

// EnsureAdmin creates the configured administrator unless an admin account
// already exists. It reports whether an account was created.
func EnsureAdmin(ctx context.Context, store db.Store, admin config.AdminConfig, now func() time.Time) (bool, error) {
	users, err := store.GetAllUsers(ctx)
	if err != nil {
		return false, fmt.Errorf("list users: %w", err)
	}
	for _, u := range users {
		if u.Role == models.RoleAdmin {
			return false, nil
		}
	}

	req := models.CreateUserRequest{
		Name:     admin.Name,
		Email:    admin.Email,
		Password: admin.Password,
		Role:     models.RoleAdmin,
	}
	user, err := createAccount(ctx, store, req, now().UTC())
	if err != nil {
		return false, fmt.Errorf("bootstrap admin %s: %w", admin.Email, err)
	}
	log.Printf("👤 Bootstrap admin created: %s", user.Email)
	return true, nil
}
