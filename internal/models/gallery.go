package models

import "time"

// GalleryImage is a stored club image.
type GalleryImage struct {
	ID         int64     `json:"id"`
	ClubID     int64     `json:"club_id"`
	ObjectKey  string    `json:"-"`
	URL        string    `json:"url"`
	Caption    string    `json:"caption"`
	UploadedBy *int64    `json:"uploaded_by"`
	CreatedAt  time.Time `json:"created_at"`
}
