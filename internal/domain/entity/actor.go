package entity

import (
	"fmt"
	"time"
)

// Role is the closed set of role-kinds an authenticated actor can act as.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleSeller   Role = "seller"
	RoleAdmin    Role = "admin"
)

// ParseRole resolves a role tag at the boundary. Unknown tags are
// rejected early instead of defaulting.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleCustomer, RoleSeller, RoleAdmin:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleSeller, RoleAdmin:
		return true
	}
	return false
}

type Actor struct {
	ID       string `json:"id" firestore:"id"`
	Email    string `json:"email" firestore:"email"`
	Username string `json:"username" firestore:"username"`
	Role     Role   `json:"role" firestore:"role"`
	Status   string `json:"status" firestore:"status"`

	// ShopSlug is set for sellers and resolves shop-addressed messages.
	ShopSlug string `json:"shop_slug,omitempty" firestore:"shopSlug,omitempty"`

	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt time.Time `json:"updated_at" firestore:"updatedAt"`
}

const StatusBlocked = "blocked"
