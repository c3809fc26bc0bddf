package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"servicedesk/auth"
	"servicedesk/config"
	"servicedesk/db"
	"servicedesk/handlers"
	"servicedesk/models"
	"servicedesk/workflow"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if cfg.Storage.Backend == config.BackendMemory {
		log.Fatalf("STORAGE_BACKEND is memory; seeding would be lost when this process exits")
	}

	ctx := context.Background()
	store, err := db.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open %s store: %v", cfg.Storage.Backend, err)
	}
	defer store.Close()

	log.Println("🌱 Starting database seeding...")

	if _, err := handlers.EnsureAdmin(ctx, store, cfg.Admin, time.Now); err != nil {
		log.Fatalf("Failed to seed admin: %v", err)
	}

	staff, err := seedUsers(ctx, store)
	if err != nil {
		log.Fatalf("Failed to seed users: %v", err)
	}

	if err := seedVehicles(ctx, store, staff); err != nil {
		log.Fatalf("Failed to seed vehicles: %v", err)
	}

	if err := seedContacts(ctx, store); err != nil {
		log.Fatalf("Failed to seed contacts: %v", err)
	}

	log.Println("✅ Database seeding completed successfully!")
}

func seedUsers(ctx context.Context, store db.Store) (map[models.Role]string, error) {
	users := []struct {
		Name     string
		Role     models.Role
		Password string
	}{
		{"Gina Gate", models.RoleGuard, "password"},
		{"Rae Reception", models.RoleReceptionist, "password"},
		{"Ari Advisor", models.RoleAdvisor, "password"},
		{"Tim Tech", models.RoleTechnician, "password"},
		{"Quinn Inspector", models.RoleQC, "password"},
	}

	staff := make(map[models.Role]string)
	for _, u := range users {
		email := string(u.Role) + "@servicedesk.local"
		staff[u.Role] = u.Name

		if _, err := store.GetUserByEmail(ctx, email); err == nil {
			log.Printf("  • User exists: %s", email)
			continue
		} else if !errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("failed to look up %s: %w", email, err)
		}

		user := &models.User{
			ID:        uuid.NewString(),
			Name:      u.Name,
			Email:     email,
			Role:      u.Role,
			CreatedAt: time.Now().UTC(),
		}
		if err := store.CreateUser(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to create user %s: %w", email, err)
		}

		// Hash and store password
		passwordHash, err := auth.HashPassword(u.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password for %s: %w", email, err)
		}
		if err := store.StorePasswordHash(ctx, user.ID, passwordHash); err != nil {
			return nil, fmt.Errorf("failed to store password for %s: %w", email, err)
		}

		log.Printf("  ✓ Created user: %s (role: %s)", email, u.Role)
	}
	return staff, nil
}

// seedVehicles places one vehicle at every stage of the workflow, with the
// history a real walk through the transitions would leave behind
func seedVehicles(ctx context.Context, store db.Store, staff map[models.Role]string) error {
	vehicles := []struct {
		Plate string
		Owner string
		Steps int
	}{
		{"KAA 101A", "Wanjiru", 0},
		{"KBB 202B", "Otieno", 1},
		{"KCC 303C", "Achieng", 2},
		{"KDD 404D", "Kamau", 3},
		{"KEE 505E", "Njeri", 4},
		{"KFF 606F", "Mutua", 5},
		{"KGG 707G", "Atieno", 6},
	}

	table := workflow.Table()
	start := time.Now().UTC().Add(-48 * time.Hour)

	for i, seed := range vehicles {
		at := start.Add(time.Duration(i) * time.Hour)
		v := &models.Vehicle{
			ID:        uuid.NewString(),
			Plate:     seed.Plate,
			Owner:     seed.Owner,
			Status:    models.StatusEntered,
			CreatedBy: staff[models.RoleGuard],
			CreatedAt: at,
			History: []models.HistoryEntry{{
				Status: models.StatusEntered,
				Actor:  staff[models.RoleGuard],
				Note:   "Vehicle entered",
				At:     at,
			}},
		}
		for _, t := range table[:seed.Steps] {
			at = at.Add(20 * time.Minute)
			v.Status = t.To
			v.History = append(v.History, models.HistoryEntry{
				Status: t.To,
				Actor:  staff[t.Role],
				Note:   t.Note,
				At:     at,
			})
		}
		v.UpdatedAt = at

		if err := store.CreateVehicle(ctx, v); err != nil {
			return fmt.Errorf("failed to create vehicle %s: %w", seed.Plate, err)
		}
		log.Printf("  ✓ Created vehicle: %s (%s)", seed.Plate, v.Status)
	}
	return nil
}

func seedContacts(ctx context.Context, store db.Store) error {
	messages := []models.ContactMessage{
		{
			Name:        "Peter Maina",
			Email:       "peter@example.com",
			ProblemType: "booking",
			Description: "Can I book a **full service** for next Tuesday morning?",
		},
		{
			Name:        "Lucy Wambui",
			Email:       "lucy@example.com",
			ProblemType: "noise",
			Description: "Front brakes squeal when the car is cold.\n\n- started last week\n- worse after rain",
		},
	}

	for i := range messages {
		msg := &messages[i]
		msg.ID = uuid.NewString()
		msg.Status = models.ContactNew
		msg.CreatedAt = time.Now().UTC().Add(-time.Duration(len(messages)-i) * time.Hour)
		if err := store.CreateContact(ctx, msg); err != nil {
			return fmt.Errorf("failed to create contact from %s: %w", msg.Email, err)
		}
		log.Printf("  ✓ Created contact message: %s (%s)", msg.Email, strings.ToUpper(msg.ProblemType))
	}
	return nil
}
