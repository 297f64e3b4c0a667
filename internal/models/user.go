package models

// Access request states
const (
	RequestPending  = "pending"
	RequestApproved = "approved"
	RequestRejected = "rejected"
)

// User is a dashboard account
type User struct {
	ID            string   `json:"id"`
	Email         string   `json:"email"`
	Username      string   `json:"username"`
	FullName      string   `json:"full_name"`
	Role          string   `json:"role"`
	AllowedStates []string `json:"allowed_states"` // Empty means every state
	Active        bool     `json:"active"`
	CreatedAt     string   `json:"created_at"`
	PasswordHash  string   `json:"-"`
}

// AccessRequest is a pending signup awaiting an admin decision
type AccessRequest struct {
	ID              string   `json:"id"`
	FullName        string   `json:"full_name"`
	Email           string   `json:"email"`
	RequestedStates []string `json:"requested_states"`
	Status          string   `json:"status"`
	RequestedAt     string   `json:"requested_at"`
	DecidedAt       string   `json:"decided_at,omitempty"`
	DecidedBy       string   `json:"decided_by,omitempty"`
	PasswordHash    string   `json:"-"`
}
