package db

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"servicedesk/models"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// passwordRecord keeps password hashes out of the users table
type passwordRecord struct {
	UserID       string `gorm:"primaryKey;type:text"`
	PasswordHash string `gorm:"size:255;not null"`
	UpdatedAt    time.Time
}

func (passwordRecord) TableName() string { return "passwords" }

// PostgresDB stores the service desk data in Postgres through GORM
type PostgresDB struct {
	db *gorm.DB
}

// NewPostgresDB connects over pgx (IPv4 enforced), then migrates the schema
func NewPostgresDB(ctx context.Context, dsn string, verbose bool) (*PostgresDB, error) {
	// local only: allow sslmode=disable if using localhost
	if strings.Contains(dsn, "localhost") && !strings.Contains(dsn, "sslmode=") {
		if strings.Contains(dsn, "?") {
			dsn += "&sslmode=disable"
		} else {
			dsn += "?sslmode=disable"
		}
	}

	cfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DATABASE_URL: %w", err)
	}
	cfg.DialFunc = func(ctx context.Context, network, addr string) (net.Conn, error) {
		d := &net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}
		return d.DialContext(ctx, "tcp4", addr)
	}

	sqlDB := stdlib.OpenDB(*cfg)
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 8*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to reach postgres: %w", err)
	}

	level := logger.Warn
	if verbose {
		level = logger.Info
	}
	gLogger := logger.New(
		log.New(os.Stdout, "", log.LstdFlags),
		logger.Config{
			SlowThreshold: 1500 * time.Millisecond,
			LogLevel:      level,
			Colorful:      false,
		},
	)

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{Logger: gLogger})
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to open gorm: %w", err)
	}

	if err := gdb.WithContext(ctx).AutoMigrate(
		&models.User{},
		&passwordRecord{},
		&models.Vehicle{},
		&models.ContactMessage{},
	); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	log.Println("✅ Connected to Postgres")
	return &PostgresDB{db: gdb}, nil
}

// Close closes the underlying connection pool
func (p *PostgresDB) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func recordNotFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return fmt.Errorf("failed to get %s: %w", what, err)
}

// --- User Operations ---

func (p *PostgresDB) CreateUser(ctx context.Context, user *models.User) error {
	if err := p.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (p *PostgresDB) GetUser(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	if err := p.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		return nil, recordNotFound(err, "user "+userID)
	}
	return &user, nil
}

func (p *PostgresDB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := p.db.WithContext(ctx).Where("lower(email) = ?", strings.ToLower(email)).First(&user).Error; err != nil {
		return nil, recordNotFound(err, "user "+email)
	}
	return &user, nil
}

func (p *PostgresDB) GetAllUsers(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	if err := p.db.WithContext(ctx).Order("created_at, id").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (p *PostgresDB) UpdateUser(ctx context.Context, user *models.User) error {
	if err := p.db.WithContext(ctx).Save(user).Error; err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

func (p *PostgresDB) DeleteUser(ctx context.Context, userID string) error {
	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&passwordRecord{}, "user_id = ?", userID).Error; err != nil {
			return fmt.Errorf("failed to delete password hash: %w", err)
		}
		if err := tx.Delete(&models.User{}, "id = ?", userID).Error; err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		return nil
	})
}

// --- Password Operations ---

func (p *PostgresDB) StorePasswordHash(ctx context.Context, userID, passwordHash string) error {
	rec := passwordRecord{UserID: userID, PasswordHash: passwordHash, UpdatedAt: time.Now()}
	err := p.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"password_hash", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("failed to store password hash: %w", err)
	}
	return nil
}

func (p *PostgresDB) GetPasswordHash(ctx context.Context, userID string) (string, error) {
	var rec passwordRecord
	if err := p.db.WithContext(ctx).First(&rec, "user_id = ?", userID).Error; err != nil {
		return "", recordNotFound(err, "password hash for "+userID)
	}
	return rec.PasswordHash, nil
}

// --- Vehicle Operations ---

func (p *PostgresDB) CreateVehicle(ctx context.Context, vehicle *models.Vehicle) error {
	if err := p.db.WithContext(ctx).Create(vehicle).Error; err != nil {
		return fmt.Errorf("failed to create vehicle: %w", err)
	}
	return nil
}

func (p *PostgresDB) GetVehicle(ctx context.Context, vehicleID string) (*models.Vehicle, error) {
	var vehicle models.Vehicle
	if err := p.db.WithContext(ctx).First(&vehicle, "id = ?", vehicleID).Error; err != nil {
		return nil, recordNotFound(err, "vehicle "+vehicleID)
	}
	return &vehicle, nil
}

func (p *PostgresDB) GetAllVehicles(ctx context.Context) ([]models.Vehicle, error) {
	vehicles := []models.Vehicle{}
	if err := p.db.WithContext(ctx).Order("created_at, id").Find(&vehicles).Error; err != nil {
		return nil, fmt.Errorf("failed to list vehicles: %w", err)
	}
	return vehicles, nil
}

// MutateVehicle locks the row (SELECT ... FOR UPDATE) for the duration of fn
func (p *PostgresDB) MutateVehicle(ctx context.Context, vehicleID string, fn func(*models.Vehicle) error) (*models.Vehicle, error) {
	var vehicle models.Vehicle
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&vehicle, "id = ?", vehicleID).Error; err != nil {
			return recordNotFound(err, "vehicle "+vehicleID)
		}
		if err := fn(&vehicle); err != nil {
			return err
		}
		return tx.Save(&vehicle).Error
	})
	if err != nil {
		return nil, err
	}
	return &vehicle, nil
}

// --- Contact Operations ---

func (p *PostgresDB) CreateContact(ctx context.Context, msg *models.ContactMessage) error {
	if err := p.db.WithContext(ctx).Create(msg).Error; err != nil {
		return fmt.Errorf("failed to create contact message: %w", err)
	}
	return nil
}

func (p *PostgresDB) GetContact(ctx context.Context, contactID string) (*models.ContactMessage, error) {
	var msg models.ContactMessage
	if err := p.db.WithContext(ctx).First(&msg, "id = ?", contactID).Error; err != nil {
		return nil, recordNotFound(err, "contact "+contactID)
	}
	return &msg, nil
}

func (p *PostgresDB) GetAllContacts(ctx context.Context) ([]models.ContactMessage, error) {
	contacts := []models.ContactMessage{}
	if err := p.db.WithContext(ctx).Order("created_at, id").Find(&contacts).Error; err != nil {
		return nil, fmt.Errorf("failed to list contact messages: %w", err)
	}
	return contacts, nil
}

func (p *PostgresDB) MutateContact(ctx context.Context, contactID string, fn func(*models.ContactMessage) error) (*models.ContactMessage, error) {
	var msg models.ContactMessage
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&msg, "id = ?", contactID).Error; err != nil {
			return recordNotFound(err, "contact "+contactID)
		}
		if err := fn(&msg); err != nil {
			return err
		}
		return tx.Save(&msg).Error
	})
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (p *PostgresDB) Reset(ctx context.Context) error {
	if err := p.db.WithContext(ctx).Exec("TRUNCATE TABLE vehicles, contacts, passwords, users").Error; err != nil {
		return fmt.Errorf("failed to reset data: %w", err)
	}
	return nil
}
