package models

import "time"

// Announcement is a club board post.
type Announcement struct {
	ID         int64     `json:"id"`
	ClubID     int64     `json:"club_id"`
	ClubName   string    `json:"club_name"`
	Message    string    `json:"message"`
	CreatedBy  *int64    `json:"created_by"`
	AuthorName string    `json:"author_name"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Audience selects who sees an administrative announcement.
type Audience string

const (
	AudienceAllClubs      Audience = "all_clubs"
	AudienceAllStudents   Audience = "all_students"
	AudienceSpecificClubs Audience = "specific_clubs"
)

// Valid reports whether a is a known audience.
func (a Audience) Valid() bool {
	switch a {
	case AudienceAllClubs, AudienceAllStudents, AudienceSpecificClubs:
		return true
	}
	return false
}

// AdminAnnouncement is an authority board post.
type AdminAnnouncement struct {
	ID             int64     `json:"id"`
	Title          string    `json:"title"`
	Message        string    `json:"message"`
	Type           string    `json:"type"`
	TargetAudience Audience  `json:"target_audience"`
	CreatedBy      int64     `json:"created_by"`
	CreatorName    string    `json:"creator_name"`
	IsActive       bool      `json:"is_active"`
	ClubIDs        []int64   `json:"specific_clubs,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// VisibleTo reports whether an active announcement reaches a reader in clubID (0 = no club).
func (a *AdminAnnouncement) VisibleTo(clubID int64) bool {
	if !a.IsActive {
		return false
	}
	switch a.TargetAudience {
	case AudienceAllClubs, AudienceAllStudents:
		return true
	case AudienceSpecificClubs:
		for _, id := range a.ClubIDs {
			if id == clubID && clubID != 0 {
				return true
			}
		}
	}
	return false
}
