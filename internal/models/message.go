package models

import "time"

// MessageStatus is the read state of a direct message.
type MessageStatus string

const (
	MessageUnread MessageStatus = "unread"
	MessageRead   MessageStatus = "read"
)

// Message is a direct message between two members.
type Message struct {
	ID         int64         `json:"id"`
	SenderID   int64         `json:"sender_id"`
	ReceiverID int64         `json:"receiver_id"`
	Message    string        `json:"message"`
	Status     MessageStatus `json:"status"`
	CreatedAt  time.Time     `json:"created_at"`
}

// Conversation is the latest message exchanged with one partner.
type Conversation struct {
	PartnerID    int64         `json:"partner_id"`
	PartnerName  string        `json:"partner_name"`
	PartnerPhoto string        `json:"partner_photo"`
	PhotoKey     string        `json:"-"`
	MessageID    int64         `json:"message_id"`
	Message      string        `json:"message"`
	SenderID     int64         `json:"sender_id"`
	ReceiverID   int64         `json:"receiver_id"`
	Status       MessageStatus `json:"status"`
	Unread       int           `json:"unread"`
	CreatedAt    time.Time     `json:"created_at"`
}

// Partner is the public identity of a conversation partner.
type Partner struct {
	ID       int64  `json:"id"`
	ClubID   int64  `json:"club_id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	PhotoKey string `json:"-"`
	Photo    string `json:"photo"`
}
