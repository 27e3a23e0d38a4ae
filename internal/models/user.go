package models

import "time"

// RoleSuper users manage items, members, and logs. RoleMember users are
// staff who handle requests once a super has approved their account.
const (
	RoleMember = "member"
	RoleSuper  = "super"
)

type User struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Approved     bool      `json:"approved"`
	CreatedAt    time.Time `json:"created_at"`
}

// Actor is the authenticated identity performing a transition, as carried
// in the session token. Only the lifecycle engine and the route guards
// consume it.
type Actor struct {
	ID       int    `json:"id"`
	Role     string `json:"role"`
	Approved bool   `json:"approved"`
}

// Staff reports whether the actor may handle requests: any super, or a
// member whose account has been approved.
func (a Actor) Staff() bool {
	switch a.Role {
	case RoleSuper:
		return true
	case RoleMember:
		return a.Approved
	}
	return false
}
