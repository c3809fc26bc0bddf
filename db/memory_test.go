package db

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"servicedesk/models"
)

func TestMemoryUsers(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryDB()

	user := &models.User{ID: "u-1", Name: "Gina", Email: "gina@example.com", Role: models.RoleGuard}
	if err := m.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	if err := m.CreateUser(ctx, &models.User{ID: "u-2", Email: "GINA@example.com"}); err == nil {
		t.Fatal("CreateUser() accepted a duplicate email")
	}

	got, err := m.GetUserByEmail(ctx, "Gina@Example.com")
	if err != nil || got.ID != "u-1" {
		t.Fatalf("GetUserByEmail() = %+v, %v", got, err)
	}
	if _, err := m.GetUser(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetUser(missing) error = %v, want ErrNotFound", err)
	}

	if err := m.StorePasswordHash(ctx, "u-1", "hash"); err != nil {
		t.Fatalf("StorePasswordHash() failed: %v", err)
	}
	if err := m.DeleteUser(ctx, "u-1"); err != nil {
		t.Fatalf("DeleteUser() failed: %v", err)
	}
	if _, err := m.GetPasswordHash(ctx, "u-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("password hash survived user deletion: %v", err)
	}
}

func TestMemoryVehicleOrderingAndCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryDB()
	base := time.Date(2026, 1, 2, 8, 0, 0, 0, time.UTC)

	for i, id := range []string{"v-b", "v-a", "v-c"} {
		v := &models.Vehicle{ID: id, Plate: id, Status: models.StatusEntered, CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := m.CreateVehicle(ctx, v); err != nil {
			t.Fatalf("CreateVehicle(%s) failed: %v", id, err)
		}
	}
	if err := m.CreateVehicle(ctx, &models.Vehicle{ID: "v-a"}); err == nil {
		t.Fatal("CreateVehicle() accepted a duplicate ID")
	}

	all, err := m.GetAllVehicles(ctx)
	if err != nil {
		t.Fatalf("GetAllVehicles() failed: %v", err)
	}
	order := []string{all[0].ID, all[1].ID, all[2].ID}
	if order[0] != "v-b" || order[1] != "v-a" || order[2] != "v-c" {
		t.Fatalf("vehicles not in creation order: %v", order)
	}

	all[0].History = append(all[0].History, models.HistoryEntry{Note: "local only"})
	again, _ := m.GetVehicle(ctx, "v-b")
	if len(again.History) != 0 {
		t.Fatal("caller mutation leaked into the store")
	}
}

func TestMemoryMutateVehicle(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryDB()
	if err := m.CreateVehicle(ctx, &models.Vehicle{ID: "v-1", Status: models.StatusEntered}); err != nil {
		t.Fatal(err)
	}

	abort := errors.New("abort")
	if _, err := m.MutateVehicle(ctx, "v-1", func(v *models.Vehicle) error {
		v.Status = models.StatusDelivered
		return abort
	}); !errors.Is(err, abort) {
		t.Fatalf("MutateVehicle() error = %v, want abort", err)
	}
	if v, _ := m.GetVehicle(ctx, "v-1"); v.Status != models.StatusEntered {
		t.Fatalf("aborted mutation was stored: %s", v.Status)
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = m.MutateVehicle(ctx, "v-1", func(v *models.Vehicle) error {
				v.History = append(v.History, models.HistoryEntry{Note: "tick"})
				return nil
			})
		}()
	}
	wg.Wait()

	v, _ := m.GetVehicle(ctx, "v-1")
	if len(v.History) != 20 {
		t.Fatalf("history has %d entries, want 20", len(v.History))
	}

	if _, err := m.MutateVehicle(ctx, "missing", func(*models.Vehicle) error { return nil }); !errors.Is(err, ErrNotFound) {
		t.Fatalf("MutateVehicle(missing) error = %v, want ErrNotFound", err)
	}
}

func TestMemoryContactsAndReset(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryDB()
	if err := m.CreateContact(ctx, &models.ContactMessage{ID: "c-1", Status: models.ContactNew}); err != nil {
		t.Fatal(err)
	}

	now := time.Now().UTC()
	msg, err := m.MutateContact(ctx, "c-1", func(c *models.ContactMessage) error {
		c.AdminResponse = "On it"
		c.RespondedAt = &now
		c.Status = models.ContactResponded
		return nil
	})
	if err != nil {
		t.Fatalf("MutateContact() failed: %v", err)
	}
	if msg.Status != models.ContactResponded || msg.AdminResponse != "On it" {
		t.Fatalf("unexpected contact: %+v", msg)
	}

	_ = m.CreateUser(ctx, &models.User{ID: "u-1", Email: "a@b.c"})
	_ = m.CreateVehicle(ctx, &models.Vehicle{ID: "v-1"})
	if err := m.Reset(ctx); err != nil {
		t.Fatalf("Reset() failed: %v", err)
	}
	users, _ := m.GetAllUsers(ctx)
	vehicles, _ := m.GetAllVehicles(ctx)
	contacts, _ := m.GetAllContacts(ctx)
	if len(users)+len(vehicles)+len(contacts) != 0 {
		t.Fatalf("Reset() left data: %d users, %d vehicles, %d contacts", len(users), len(vehicles), len(contacts))
	}
}
