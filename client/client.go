// Package client talks to the data API on behalf of the dashboard. Every call
// is a single attempt bounded by the configured timeout.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"servicedesk/models"
)

var (
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrLoginFailed          = errors.New("login failed")
	ErrRegistrationDisabled = errors.New("registration disabled")
	ErrRequestFailed        = errors.New("request failed")
)

// StatusError is a non-2xx answer from the data API
type StatusError struct {
	Method  string
	Path    string
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("%s %s: %d", e.Method, e.Path, e.Status)
}

func (e *StatusError) Unwrap() error { return ErrRequestFailed }

type clientIPKey struct{}

// WithClientIP marks ctx with the browser address a request is made for.
// The data API limits requests per browser through X-Forwarded-For.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey{}, ip)
}

// ClientIP returns the browser address carried by ctx, if any
func ClientIP(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPKey{}).(string)
	return ip
}

// Client is a thin JSON client for the data API
type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Load fetches the full snapshot. Failures are logged and yield an empty
// snapshot along with the error, so callers can still render.
func (c *Client) Load(ctx context.Context, token string) (models.Snapshot, error) {
	var snap models.Snapshot
	if err := c.do(ctx, http.MethodGet, "/api/data", token, nil, &snap); err != nil {
		log.Printf("⚠️  Snapshot load failed: %v", err)
		return models.EmptySnapshot(), err
	}
	if snap.Users == nil {
		snap.Users = []models.User{}
	}
	if snap.Vehicles == nil {
		snap.Vehicles = []models.Vehicle{}
	}
	if snap.Contacts == nil {
		snap.Contacts = []models.ContactMessage{}
	}
	return snap, nil
}

// IsUnauthorized reports whether err is the data API refusing the bearer token
func IsUnauthorized(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.Status == http.StatusUnauthorized
}

// Login exchanges credentials for the user record and a bearer token
func (c *Client) Login(ctx context.Context, email, password string) (*models.LoginResponse, error) {
	var resp models.LoginResponse
	err := c.do(ctx, http.MethodPost, "/api/login", "", models.LoginRequest{Email: email, Password: password}, &resp)
	var statusErr *StatusError
	switch {
	case err == nil:
		return &resp, nil
	case errors.As(err, &statusErr) && statusErr.Status == http.StatusUnauthorized:
		return nil, ErrInvalidCredentials
	default:
		log.Printf("⚠️  Login for %s failed: %v", email, err)
		return nil, ErrLoginFailed
	}
}

// Register never reaches the network. Accounts are created by an admin.
func (c *Client) Register(ctx context.Context, name, email, password string, role models.Role) error {
	return ErrRegistrationDisabled
}

func (c *Client) AddVehicle(ctx context.Context, token, plate, owner, createdBy string) (*models.Vehicle, error) {
	var v models.Vehicle
	req := models.CreateVehicleRequest{Plate: plate, Owner: owner, CreatedBy: createdBy}
	if err := c.do(ctx, http.MethodPost, "/api/vehicles", token, req, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (c *Client) UpdateVehicle(ctx context.Context, token, id string, changes models.VehicleChanges, actor, note string) (*models.Vehicle, error) {
	var v models.Vehicle
	req := models.UpdateVehicleRequest{Changes: changes, Actor: actor, Note: note}
	if err := c.do(ctx, http.MethodPut, "/api/vehicles/"+url.PathEscape(id), token, req, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (c *Client) RespondContact(ctx context.Context, token, id string, changes models.ContactChanges) error {
	req := models.UpdateContactRequest{Changes: changes}
	return c.do(ctx, http.MethodPut, "/api/contacts/"+url.PathEscape(id), token, req, nil)
}

// Reset asks the data API to destroy every entity
func (c *Client) Reset(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "/api/reset", token, nil, nil)
}

func (c *Client) CreateUser(ctx context.Context, token string, req models.CreateUserRequest) (*models.User, error) {
	var u models.User
	if err := c.do(ctx, http.MethodPost, "/api/admin/users", token, req, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// ExportVehicles copies the CSV export into w
func (c *Client) ExportVehicles(ctx context.Context, token string, w io.Writer) error {
	resp, err := c.send(ctx, http.MethodGet, "/api/vehicles/export", token, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("copy export: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out interface{}) error {
	resp, err := c.send(ctx, method, path, token, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}

// send issues the request and returns the response only for 2xx answers
func (c *Client) send(ctx context.Context, method, path, token string, body interface{}) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if ip := ClientIP(ctx); ip != "" {
		req.Header.Set("X-Forwarded-For", ip)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, errors.Join(ErrRequestFailed, err))
	}
	if resp.StatusCode/100 != 2 {
		defer resp.Body.Close()
		var payload struct {
			Error string `json:"error"`
		}
		snip, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		_ = json.Unmarshal(snip, &payload)
		return nil, &StatusError{Method: method, Path: path, Status: resp.StatusCode, Message: payload.Error}
	}
	return resp, nil
}
