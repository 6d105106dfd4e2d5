package models

import "time"

// Authority is a site-wide administrator, not tied to any club.
type Authority struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Password    string     `json:"-"`
	Designation string     `json:"designation"`
	PhotoKey    string     `json:"-"`
	Photo       string     `json:"photo"`
	ContactNo   string     `json:"contact_no"`
	Role        Role       `json:"role"`
	CreatedAt   time.Time  `json:"created_at"`
	LastLogin   *time.Time `json:"last_login,omitempty"`
}
