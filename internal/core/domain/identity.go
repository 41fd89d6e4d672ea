package domain

import (
	"strings"
	"time"
)

// Role is the single coarse-grained role attached to every account.
type Role string

const (
	RoleCustomer      Role = "CUSTOMER"
	RoleBusinessOwner Role = "BUSINESS_OWNER"
	RoleAdmin         Role = "ADMIN"
)

// ParseRole normalises a role name; unknown values fall back to RoleCustomer.
func ParseRole(raw string) Role {
	switch Role(strings.ToUpper(strings.TrimSpace(raw))) {
	case RoleBusinessOwner:
		return RoleBusinessOwner
	case RoleAdmin:
		return RoleAdmin
	default:
		return RoleCustomer
	}
}

// LookupRole returns the canonical role and whether raw names one exactly.
func LookupRole(raw string) (Role, bool) {
	switch r := Role(strings.ToUpper(strings.TrimSpace(raw))); r {
	case RoleCustomer, RoleBusinessOwner, RoleAdmin:
		return r, true
	default:
		return "", false
	}
}

// User mirrors the persisted representation in the users table.
type User struct {
	ID                     int64
	Username               string
	PasswordHash           string
	FullName               string
	Email                  string
	MobileNumber           string
	Pincode                string
	Role                   Role
	ShopName               string
	BusinessCategory       string
	ServiceArea            string
	OffersOnDemandProducts bool
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// IsBusiness reports whether the account represents a local business.
func (u User) IsBusiness() bool {
	return u.Role == RoleBusinessOwner
}

// Identity is the slice of a user the session core needs to re-resolve a token subject.
type Identity struct {
	UserID       int64
	Username     string
	Role         Role
	PasswordHash string
}

// Identity projects the user onto the identity view used by the session core.
func (u User) Identity() Identity {
	return Identity{
		UserID:       u.ID,
		Username:     u.Username,
		Role:         u.Role,
		PasswordHash: u.PasswordHash,
	}
}

// UserQuery narrows user searches with equality filters; empty fields match everything.
type UserQuery struct {
	Role             Role
	Pincode          string
	BusinessCategory string
}
