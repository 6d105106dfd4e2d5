package models

import "time"

// DateLayout is the wire format for event dates.
const DateLayout = "2006-01-02"

// Event is a dated club event.
type Event struct {
	ID          int64     `json:"id"`
	ClubID      int64     `json:"club_id"`
	ClubName    string    `json:"club_name,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	EventDate   Date      `json:"event_date"`
	CreatedAt   time.Time `json:"created_at"`
}

// Registration is one member's registration for an event.
type Registration struct {
	EventID      int64     `json:"event_id"`
	UserID       int64     `json:"user_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	RegisteredAt time.Time `json:"registered_at"`
}

// MyRegistration is a registration joined with its event.
type MyRegistration struct {
	EventID      int64     `json:"event_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	EventDate    Date      `json:"event_date"`
	ClubID       int64     `json:"club_id"`
	RegisteredAt time.Time `json:"registered_at"`
}

// Date is a calendar date serialized as YYYY-MM-DD.
type Date struct {
	time.Time
}

// ParseDate parses YYYY-MM-DD.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(DateLayout) + `"`), nil
}

// String returns YYYY-MM-DD.
func (d Date) String() string {
	return d.Format(DateLayout)
}
