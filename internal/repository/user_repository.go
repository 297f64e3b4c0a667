package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jengzang/salesmap-backend-go/internal/auth"
	"github.com/jengzang/salesmap-backend-go/internal/database"
	"github.com/jengzang/salesmap-backend-go/internal/models"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEmail = errors.New("email is already registered or awaiting approval")
	ErrAlreadyDecided = errors.New("access request was already decided")
)

// UserRepository stores dashboard users and access requests
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func encodeStates(states []string) (string, error) {
	if states == nil {
		states = []string{}
	}
	b, err := json.Marshal(states)
	if err != nil {
		return "", fmt.Errorf("failed to encode states: %w", err)
	}
	return string(b), nil
}

func decodeStates(raw string) ([]string, error) {
	states := []string{}
	if raw == "" {
		return states, nil
	}
	if err := json.Unmarshal([]byte(raw), &states); err != nil {
		return nil, fmt.Errorf("failed to decode states: %w", err)
	}
	return states, nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// emailTaken reports whether a user or pending request already holds email
func emailTaken(ctx context.Context, q queryer, email string) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx, `SELECT
		(SELECT COUNT(*) FROM users WHERE email = ?) +
		(SELECT COUNT(*) FROM access_requests WHERE email = ? AND status = 'pending')`,
		email, email).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return n > 0, nil
}

// CreateAccessRequest stores a pending request and fills in its ID
func (r *UserRepository) CreateAccessRequest(ctx context.Context, req *models.AccessRequest) error {
	states, err := encodeStates(req.RequestedStates)
	if err != nil {
		return err
	}
	return database.Transaction(ctx, r.db, func(tx *sql.Tx) error {
		taken, err := emailTaken(ctx, tx, req.Email)
		if err != nil {
			return err
		}
		if taken {
			return ErrDuplicateEmail
		}

		req.ID = uuid.NewString()
		req.Status = models.RequestPending
		_, err = tx.ExecContext(ctx, `INSERT INTO access_requests
			(id, full_name, email, password_hash, requested_states, status)
			VALUES (?, ?, ?, ?, ?, ?)`,
			req.ID, req.FullName, req.Email, req.PasswordHash, states, req.Status)
		if err != nil {
			return fmt.Errorf("failed to insert access request: %w", err)
		}
		return tx.QueryRowContext(ctx, `SELECT requested_at FROM access_requests WHERE id = ?`, req.ID).
			Scan(&req.RequestedAt)
	})
}

const accessRequestColumns = `id, full_name, email, password_hash, requested_states, status,
	requested_at, COALESCE(decided_at, ''), decided_by`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanAccessRequest(row scanner) (models.AccessRequest, error) {
	var req models.AccessRequest
	var states string
	if err := row.Scan(&req.ID, &req.FullName, &req.Email, &req.PasswordHash, &states, &req.Status,
		&req.RequestedAt, &req.DecidedAt, &req.DecidedBy); err != nil {
		return req, err
	}
	var err error
	req.RequestedStates, err = decodeStates(states)
	return req, err
}

// ListAccessRequests returns requests newest first; an empty status lists all
func (r *UserRepository) ListAccessRequests(ctx context.Context, status string) ([]models.AccessRequest, error) {
	query := "SELECT " + accessRequestColumns + " FROM access_requests"
	var args []interface{}
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, status)
	}
	query += " ORDER BY requested_at DESC, rowid DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query access requests: %w", err)
	}
	defer rows.Close()

	reqs := []models.AccessRequest{}
	for rows.Next() {
		req, err := scanAccessRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan access request: %w", err)
		}
		reqs = append(reqs, req)
	}
	return reqs, rows.Err()
}

// pendingRequest loads a request that has not been decided yet
func pendingRequest(ctx context.Context, tx *sql.Tx, id string) (models.AccessRequest, error) {
	row := tx.QueryRowContext(ctx, "SELECT "+accessRequestColumns+" FROM access_requests WHERE id = ?", id)
	req, err := scanAccessRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return req, ErrNotFound
	}
	if err != nil {
		return req, fmt.Errorf("failed to load access request: %w", err)
	}
	if req.Status != models.RequestPending {
		return req, ErrAlreadyDecided
	}
	return req, nil
}

func decide(ctx context.Context, tx *sql.Tx, id, status, by string) error {
	_, err := tx.ExecContext(ctx, `UPDATE access_requests
		SET status = ?, decided_at = CURRENT_TIMESTAMP, decided_by = ?
		WHERE id = ?`, status, by, id)
	if err != nil {
		return fmt.Errorf("failed to update access request: %w", err)
	}
	return nil
}

// ApproveAccessRequest creates a user from the request's details and marks it approved
func (r *UserRepository) ApproveAccessRequest(ctx context.Context, id, decidedBy string) (*models.User, error) {
	var user *models.User
	err := database.Transaction(ctx, r.db, func(tx *sql.Tx) error {
		req, err := pendingRequest(ctx, tx, id)
		if err != nil {
			return err
		}
		user = &models.User{
			Email:         req.Email,
			Username:      usernameFromEmail(req.Email),
			FullName:      req.FullName,
			Role:          auth.RoleUser,
			AllowedStates: req.RequestedStates,
			Active:        true,
			PasswordHash:  req.PasswordHash,
		}
		if err := insertUser(ctx, tx, user); err != nil {
			return err
		}
		return decide(ctx, tx, id, models.RequestApproved, decidedBy)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// RejectAccessRequest marks a pending request rejected
func (r *UserRepository) RejectAccessRequest(ctx context.Context, id, decidedBy string) error {
	return database.Transaction(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := pendingRequest(ctx, tx, id); err != nil {
			return err
		}
		return decide(ctx, tx, id, models.RequestRejected, decidedBy)
	})
}

func usernameFromEmail(email string) string {
	name, _, _ := strings.Cut(email, "@")
	return name
}

// insertUser fails with ErrDuplicateEmail when a user already holds the email
func insertUser(ctx context.Context, tx *sql.Tx, u *models.User) error {
	var n int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE email = ?`, u.Email).Scan(&n); err != nil {
		return fmt.Errorf("failed to check email: %w", err)
	}
	if n > 0 {
		return ErrDuplicateEmail
	}

	states, err := encodeStates(u.AllowedStates)
	if err != nil {
		return err
	}
	if u.Username == "" {
		u.Username = usernameFromEmail(u.Email)
	}
	u.ID = uuid.NewString()
	_, err = tx.ExecContext(ctx, `INSERT INTO users
		(id, email, username, full_name, password_hash, role, allowed_states, active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.Username, u.FullName, u.PasswordHash, u.Role, states, u.Active)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return tx.QueryRowContext(ctx, `SELECT created_at FROM users WHERE id = ?`, u.ID).Scan(&u.CreatedAt)
}

// CreateUser stores a new user and fills in its ID
func (r *UserRepository) CreateUser(ctx context.Context, u *models.User) error {
	return database.Transaction(ctx, r.db, func(tx *sql.Tx) error {
		return insertUser(ctx, tx, u)
	})
}

const userColumns = `id, email, username, full_name, password_hash, role, allowed_states, active, created_at`

func scanUser(row scanner) (models.User, error) {
	var u models.User
	var states string
	if err := row.Scan(&u.ID, &u.Email, &u.Username, &u.FullName, &u.PasswordHash, &u.Role,
		&states, &u.Active, &u.CreatedAt); err != nil {
		return u, err
	}
	var err error
	u.AllowedStates, err = decodeStates(states)
	return u, err
}

// ListUsers returns every user, oldest first
func (r *UserRepository) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY created_at, rowid")
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// FindUserByLogin looks a user up by email (any case) or exact username
func (r *UserRepository) FindUserByLogin(ctx context.Context, login string) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+userColumns+` FROM users
		WHERE email = ? OR username = ? COLLATE BINARY
		ORDER BY email = ? DESC, rowid
		LIMIT 1`, login, login, login)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &u, nil
}
