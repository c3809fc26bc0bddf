// models.go
// Defines the core data structures shared by the data API, the dashboard client and the stores.

package models

import (
	"time"
)

// Role defines the access level of a user. Every user has exactly one role.
type Role string

const (
	RoleGuard        Role = "guard"
	RoleReceptionist Role = "receptionist"
	RoleAdvisor      Role = "advisor"
	RoleTechnician   Role = "technician"
	RoleQC           Role = "qc"
	RoleAdmin        Role = "admin"
)

// Roles lists every role in dashboard order.
var Roles = []Role{RoleGuard, RoleReceptionist, RoleAdvisor, RoleTechnician, RoleQC, RoleAdmin}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

// VehicleStatus is the position of a vehicle in the service workflow.
type VehicleStatus string

const (
	StatusNew              VehicleStatus = "new"
	StatusEntered          VehicleStatus = "entered"
	StatusWithAdvisor      VehicleStatus = "with_advisor"
	StatusWithTechnician   VehicleStatus = "with_technician"
	StatusServiceDone      VehicleStatus = "service_done"
	StatusWithQC           VehicleStatus = "with_qc"
	StatusReadyForDelivery VehicleStatus = "ready_for_delivery"
	StatusDelivered        VehicleStatus = "delivered"
)

// Statuses lists every vehicle status in forward order.
var Statuses = []VehicleStatus{
	StatusNew,
	StatusEntered,
	StatusWithAdvisor,
	StatusWithTechnician,
	StatusServiceDone,
	StatusWithQC,
	StatusReadyForDelivery,
	StatusDelivered,
}

// User represents an account of the service center.
// Password hashes are stored separately and never travel with a User.
type User struct {
	ID        string    `firestore:"id" json:"id" gorm:"primaryKey;type:text"`
	Name      string    `firestore:"name" json:"name" gorm:"size:120;not null"`
	Email     string    `firestore:"email" json:"email" gorm:"uniqueIndex;size:320;not null"`
	Role      Role      `firestore:"role" json:"role" gorm:"size:32;not null"`
	CreatedAt time.Time `firestore:"created_at" json:"createdAt"`
	LastLogin time.Time `firestore:"last_login" json:"lastLogin"`
}

// HistoryEntry records one status change of a vehicle.
type HistoryEntry struct {
	Status VehicleStatus `firestore:"status" json:"status"`
	Actor  string        `firestore:"actor" json:"actor"`
	Note   string        `firestore:"note" json:"note"`
	At     time.Time     `firestore:"at" json:"at"`
}

// Vehicle is a car moving through the service workflow.
// History is append-only and kept in transition order.
type Vehicle struct {
	ID        string         `firestore:"id" json:"id" gorm:"primaryKey;type:text"`
	Plate     string         `firestore:"plate" json:"plate" gorm:"size:32;not null;index"`
	Owner     string         `firestore:"owner" json:"owner" gorm:"size:120"`
	Status    VehicleStatus  `firestore:"status" json:"status" gorm:"size:32;not null;index"`
	CreatedBy string         `firestore:"created_by" json:"createdBy" gorm:"size:120"`
	CreatedAt time.Time      `firestore:"created_at" json:"createdAt" gorm:"index"`
	UpdatedAt time.Time      `firestore:"updated_at" json:"updatedAt"`
	History   []HistoryEntry `firestore:"history" json:"history" gorm:"serializer:json;type:jsonb"`
}

// ContactStatus tracks the handling of an inbound contact message.
type ContactStatus string

const (
	ContactNew       ContactStatus = "new"
	ContactResponded ContactStatus = "responded"
	ContactClosed    ContactStatus = "closed"
)

// Valid reports whether s is a known contact status.
func (s ContactStatus) Valid() bool {
	return s == ContactNew || s == ContactResponded || s == ContactClosed
}

// ContactMessage is a message left through the public contact form.
type ContactMessage struct {
	ID            string        `firestore:"id" json:"id" gorm:"primaryKey;type:text"`
	Name          string        `firestore:"name" json:"name" gorm:"size:120"`
	Email         string        `firestore:"email" json:"email" gorm:"size:320"`
	ProblemType   string        `firestore:"problem_type" json:"problemType" gorm:"size:64"`
	Description   string        `firestore:"description" json:"description"`
	Status        ContactStatus `firestore:"status" json:"status" gorm:"size:32;not null"`
	AdminResponse string        `firestore:"admin_response" json:"adminResponse,omitempty"`
	RespondedAt   *time.Time    `firestore:"responded_at" json:"respondedAt,omitempty"`
	CreatedAt     time.Time     `firestore:"created_at" json:"createdAt" gorm:"index"`
}

// TableName keeps the Postgres table name short.
func (ContactMessage) TableName() string { return "contacts" }

// AuditLog represents an audit log entry.
type AuditLog struct {
	LogID     string `json:"log_id"`
	Timestamp string `json:"timestamp"`
	Actor     string `json:"actor"`
	Action    string `json:"action"`
	Details   string `json:"details"`
}

// Snapshot is the full data set served by GET /api/data.
type Snapshot struct {
	Users    []User           `json:"users"`
	Vehicles []Vehicle        `json:"vehicles"`
	Contacts []ContactMessage `json:"contacts"`
}

// EmptySnapshot returns a snapshot whose lists encode as [] rather than null.
func EmptySnapshot() Snapshot {
	return Snapshot{
		Users:    []User{},
		Vehicles: []Vehicle{},
		Contacts: []ContactMessage{},
	}
}

// LoginRequest is the payload for POST /api/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse returns the authenticated user and the bearer token for later calls.
type LoginResponse struct {
	User      User      `json:"user"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// CreateVehicleRequest is the payload for POST /api/vehicles.
type CreateVehicleRequest struct {
	Plate     string `json:"plate"`
	Owner     string `json:"owner"`
	CreatedBy string `json:"createdBy"`
}

// VehicleChanges carries the fields a transition may change.
type VehicleChanges struct {
	Status VehicleStatus `json:"status"`
}

// UpdateVehicleRequest is the payload for PUT /api/vehicles/{id}.
type UpdateVehicleRequest struct {
	Changes VehicleChanges `json:"changes"`
	Actor   string         `json:"actor"`
	Note    string         `json:"note"`
}

// ContactChanges carries the fields an admin may change on a contact message.
type ContactChanges struct {
	AdminResponse string        `json:"adminResponse,omitempty"`
	RespondedAt   *time.Time    `json:"respondedAt,omitempty"`
	Status        ContactStatus `json:"status,omitempty"`
}

// UpdateContactRequest is the payload for PUT /api/contacts/{id}.
type UpdateContactRequest struct {
	Changes ContactChanges `json:"changes"`
}

// CreateContactRequest is the payload of the public contact form.
type CreateContactRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	ProblemType string `json:"problemType"`
	Description string `json:"description"`
}

// CreateUserRequest is the admin-only account creation payload.
type CreateUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     Role   `json:"role"`
}
