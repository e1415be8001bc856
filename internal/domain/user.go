package domain

import (
	"fmt"
	"strings"
	"time"
)

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleCustomer Role = "customer"
	RoleDriver   Role = "driver"
	RoleRDC      Role = "rdc"
)

func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleAdmin, RoleCustomer, RoleDriver, RoleRDC:
		return r, nil
	}
	return "", fmt.Errorf("%w: role %q", ErrInvalid, s)
}

// Home is the dashboard path a role lands on after login.
func (r Role) Home() string {
	switch r {
	case RoleAdmin:
		return "/admin"
	case RoleDriver:
		return "/driver"
	case RoleRDC:
		return "/rdc"
	default:
		return "/customer"
	}
}

type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Email    string `json:"email,omitempty"`
	Hash     string `json:"-"`
	Role     Role   `json:"role"`
	RDCHub   string `json:"rdc_hub,omitempty"`
}

// Session is the authenticated-user record every dashboard guard consumes.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	FullName  string    `json:"full_name"`
	Role      Role      `json:"role"`
	RDCHub    string    `json:"rdc_hub,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func NewSession(id string, u User, now time.Time) Session {
	return Session{
		ID:        id,
		UserID:    u.ID,
		Username:  u.Username,
		FullName:  u.FullName,
		Role:      u.Role,
		RDCHub:    u.RDCHub,
		CreatedAt: now.UTC(),
	}
}

// Allows reports whether the session role is one of roles.
func (s Session) Allows(roles ...Role) bool {
	for _, r := range roles {
		if s.Role == r {
			return true
		}
	}
	return false
}
