package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/jengzang/salesmap-backend-go/internal/auth"
	"github.com/jengzang/salesmap-backend-go/internal/logger"
	"github.com/jengzang/salesmap-backend-go/internal/models"
	"github.com/jengzang/salesmap-backend-go/internal/repository"
)

// MinPasswordLength applies to signups and admin-created users
const MinPasswordLength = 6

// ErrInvalidInput wraps every validation failure of the access workflow
var ErrInvalidInput = errors.New("invalid input")

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// UserStore persists users and access requests
type UserStore interface {
	CreateAccessRequest(ctx context.Context, req *models.AccessRequest) error
	ListAccessRequests(ctx context.Context, status string) ([]models.AccessRequest, error)
	ApproveAccessRequest(ctx context.Context, id, decidedBy string) (*models.User, error)
	RejectAccessRequest(ctx context.Context, id, decidedBy string) error
	CreateUser(ctx context.Context, u *models.User) error
	ListUsers(ctx context.Context) ([]models.User, error)
	FindUserByLogin(ctx context.Context, login string) (*models.User, error)
}

// AccessService runs signup, approval and login for stored users
type AccessService struct {
	store UserStore
}

// NewAccessService creates an access service
func NewAccessService(store UserStore) *AccessService {
	return &AccessService{store: store}
}

// SignupRequest is a prospective user's request for access
type SignupRequest struct {
	FullName        string   `json:"full_name"`
	Email           string   `json:"email"`
	Password        string   `json:"password"`
	RequestedStates []string `json:"requested_states"`
}

// NewUser is an admin-created account
type NewUser struct {
	FullName string   `json:"full_name"`
	Email    string   `json:"email"`
	Password string   `json:"password"`
	Role     string   `json:"role"`
	States   []string `json:"states"`
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// cleanStates trims, drops blanks and removes case-insensitive duplicates
func cleanStates(states []string) []string {
	out := []string{}
	seen := make(map[string]bool)
	for _, s := range states {
		s = strings.TrimSpace(s)
		key := strings.ToLower(s)
		if s == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}

func checkCredentials(email, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !emailPattern.MatchString(email) {
		return "", invalid("please enter a valid email address")
	}
	if len(password) < MinPasswordLength {
		return "", invalid("password must be at least %d characters long", MinPasswordLength)
	}
	return email, nil
}

// Signup validates and stores a pending access request
func (s *AccessService) Signup(ctx context.Context, in SignupRequest) (*models.AccessRequest, error) {
	name := strings.TrimSpace(in.FullName)
	if name == "" {
		return nil, invalid("full name is required")
	}
	email, err := checkCredentials(in.Email, in.Password)
	if err != nil {
		return nil, err
	}
	states := cleanStates(in.RequestedStates)
	if len(states) == 0 {
		return nil, invalid("please select at least one state")
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	req := &models.AccessRequest{FullName: name, Email: email, PasswordHash: hash, RequestedStates: states}
	if err := s.store.CreateAccessRequest(ctx, req); err != nil {
		return nil, err
	}

	logger.Log.WithFields(logrus.Fields{"request": req.ID, "email": email}).Info("access request submitted")
	return req, nil
}

// ListRequests returns access requests, optionally by status
func (s *AccessService) ListRequests(ctx context.Context, status string) ([]models.AccessRequest, error) {
	switch status {
	case "", models.RequestPending, models.RequestApproved, models.RequestRejected:
		return s.store.ListAccessRequests(ctx, status)
	}
	return nil, invalid("unknown status %q", status)
}

// Approve turns a pending request into a user limited to the requested states
func (s *AccessService) Approve(ctx context.Context, id, admin string) (*models.User, error) {
	u, err := s.store.ApproveAccessRequest(ctx, id, admin)
	if err != nil {
		return nil, err
	}
	logger.Log.WithFields(logrus.Fields{"request": id, "user": u.Username, "by": admin}).Info("access request approved")
	return u, nil
}

// Reject declines a pending request
func (s *AccessService) Reject(ctx context.Context, id, admin string) error {
	if err := s.store.RejectAccessRequest(ctx, id, admin); err != nil {
		return err
	}
	logger.Log.WithFields(logrus.Fields{"request": id, "by": admin}).Info("access request rejected")
	return nil
}

// ListUsers returns every stored user
func (s *AccessService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.store.ListUsers(ctx)
}

// CreateUser adds an account directly. Admins see every state.
func (s *AccessService) CreateUser(ctx context.Context, in NewUser) (*models.User, error) {
	email, err := checkCredentials(in.Email, in.Password)
	if err != nil {
		return nil, err
	}
	role := strings.ToLower(strings.TrimSpace(in.Role))
	if role == "" {
		role = auth.RoleUser
	}
	states := cleanStates(in.States)
	switch role {
	case auth.RoleAdmin:
		states = []string{}
	case auth.RoleUser:
		if len(states) == 0 {
			return nil, invalid("a user needs at least one state")
		}
	default:
		return nil, invalid("unknown role %q", in.Role)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	u := &models.User{
		Email:         email,
		FullName:      strings.TrimSpace(in.FullName),
		Role:          role,
		AllowedStates: states,
		Active:        true,
		PasswordHash:  hash,
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	logger.Log.WithFields(logrus.Fields{"user": u.Username, "role": role}).Info("user created")
	return u, nil
}

// Authenticate checks a stored user's password. Unknown and inactive users
// fail exactly like a wrong password.
func (s *AccessService) Authenticate(ctx context.Context, login, password string) (auth.Principal, error) {
	u, err := s.store.FindUserByLogin(ctx, strings.TrimSpace(login))
	if errors.Is(err, repository.ErrNotFound) {
		return auth.Principal{}, auth.ErrInvalidCredentials
	}
	if err != nil {
		return auth.Principal{}, err
	}
	if !u.Active {
		return auth.Principal{}, auth.ErrInvalidCredentials
	}
	if err := auth.CheckPassword(u.PasswordHash, password); err != nil {
		return auth.Principal{}, err
	}
	return auth.Principal{Username: u.Username, Role: u.Role, States: u.AllowedStates}, nil
}
