package entity

import "time"

const (
	EventUserCreated = "user.created"
	EventUserUpdated = "user.updated"
	EventUserDeleted = "user.deleted"
	EventUserPurged  = "user.purged"
)

// UserEvent is the payload published after a successful write.
type UserEvent struct {
	Type       string    `json:"type"`
	UserID     uint      `json:"user_id,omitempty"`
	User       *User     `json:"user,omitempty"`
	Count      int64     `json:"count,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
