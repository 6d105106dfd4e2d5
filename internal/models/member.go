package models

import (
	"strings"
	"time"
)

// Role is a member's role inside one club.
type Role string

const (
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
	// RoleAuthority is carried only by site-wide authority tokens.
	RoleAuthority Role = "authority"
)

// Valid reports whether r can be stored on a club member.
func (r Role) Valid() bool {
	return r == RoleMember || r == RoleAdmin
}

// Positions that carry club admin rights.
var adminPositions = map[string]struct{}{
	"president":         {},
	"general secretary": {},
	"secretary":         {},
}

// NormalizePosition lowercases and trims a position for comparison.
func NormalizePosition(position string) string {
	return strings.ToLower(strings.TrimSpace(position))
}

// DeriveRole returns the role a member must hold for the given position.
// Presidents and secretaries are admins; every other position, including none, is a member.
func DeriveRole(position string) Role {
	if _, ok := adminPositions[NormalizePosition(position)]; ok {
		return RoleAdmin
	}
	return RoleMember
}

// Member is a club_members row.
type Member struct {
	ID          int64     `json:"id"`
	ClubID      int64     `json:"club_id"`
	ClubName    string    `json:"club_name,omitempty"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Password    string    `json:"-"`
	Role        Role      `json:"role"`
	Position    string    `json:"position"`
	Description string    `json:"description"`
	PhotoKey    string    `json:"-"`
	Photo       string    `json:"photo"`
	ContactNo   string    `json:"contact_no"`
	Gender      string    `json:"gender"`
	Dept        string    `json:"dept"`
	Session     string    `json:"session"`
	JoinedAt    time.Time `json:"joined_at"`
}

// ProfileStatus is the state of a join request.
type ProfileStatus string

const (
	ProfilePending  ProfileStatus = "pending"
	ProfileApproved ProfileStatus = "approved"
	ProfileRejected ProfileStatus = "rejected"
)

// Profile is a join request (pending/approved/rejected) or the directory entry
// written for members created with a club.
type Profile struct {
	ID             int64         `json:"id"`
	ClubID         int64         `json:"club_id"`
	Name           string        `json:"name"`
	Email          string        `json:"email"`
	Password       string        `json:"-"`
	ContactNo      string        `json:"contact_no"`
	ApprovalStatus ProfileStatus `json:"approval_status"`
	CreatedAt      time.Time     `json:"created_at"`
	DecidedAt      *time.Time    `json:"decided_at,omitempty"`
}
