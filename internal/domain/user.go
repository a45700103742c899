package domain

import "time"

// Role is the coarse-grained authorization unit
type Role string

const (
	RoleCustomer Role = "customer"
	RoleProvider Role = "provider"
	RoleAdmin    Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleProvider, RoleAdmin:
		return true
	}
	return false
}

// AccountStatus is the lifecycle state of a user account
type AccountStatus string

const (
	AccountActive    AccountStatus = "active"
	AccountSuspended AccountStatus = "suspended"
)

func (s AccountStatus) Valid() bool {
	return s == AccountActive || s == AccountSuspended
}

// User is an identity record
type User struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	Email          string        `json:"email"`
	PasswordHash   string        `json:"-"`
	Address        string        `json:"address"`
	Phone          string        `json:"phone"`
	Role           Role          `json:"role"`
	ProfilePicture *MediaRef     `json:"profilePicture,omitempty"`
	AccountStatus  AccountStatus `json:"accountStatus"`
	EmailVerified  bool          `json:"emailVerified"`
	CreatedAt      time.Time     `json:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt"`
}

// HasRole reports whether the user holds one of roles
func (u *User) HasRole(roles ...Role) bool {
	if u == nil {
		return false
	}
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}

// ProfilePatch lists the fields a user may change on their own account.
// Nil fields are left untouched.
type ProfilePatch struct {
	Name     *string
	Email    *string
	Address  *string
	Phone    *string
	Password *string
}

func (p ProfilePatch) Empty() bool {
	return p.Name == nil && p.Email == nil && p.Address == nil && p.Phone == nil && p.Password == nil
}

// UserUpdate is the persisted form of a user mutation
type UserUpdate struct {
	Name           *string
	Email          *string
	Address        *string
	Phone          *string
	PasswordHash   *string
	Role           *Role
	AccountStatus  *AccountStatus
	ProfilePicture **MediaRef
}

// UserSummary is the denormalized projection embedded in read models
type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

func (u *User) Summary() *UserSummary {
	return &UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, Phone: u.Phone}
}
