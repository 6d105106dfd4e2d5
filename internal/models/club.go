package models

import "time"

// Club is a university club.
type Club struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// ClubOverview is a club with aggregate counts for the authority console.
type ClubOverview struct {
	Club
	MemberCount int `json:"member_count"`
	EventCount  int `json:"event_count"`
}
