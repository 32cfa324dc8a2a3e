package model

import (
	"encoding/json"
	"time"
)

// PendingItem is an item submitted by a contributor, waiting for review.
type PendingItem struct {
	ID          string    `json:"id"`
	Item        Item      `json:"item"`
	SubmittedBy int64     `json:"submitted_by"`
	SubmittedAt time.Time `json:"submitted_at"`

	// Joined fields (not always populated).
	SubmitterName string `json:"submitter_name,omitempty"`
}

// Notification is a message for a single user or for all admins.
type Notification struct {
	ID        string          `json:"id"`
	UserID    *int64          `json:"user_id,omitempty"`
	Type      string          `json:"type"`
	Title     string          `json:"title"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data,omitempty"`
	Read      bool            `json:"read"`
	CreatedAt time.Time       `json:"created_at"`
}

// Notification types.
const (
	NotificationNewItem      = "new_item"
	NotificationNewUser      = "new_user"
	NotificationItemApproved = "item_approved"
	NotificationItemRejected = "item_rejected"
)

// Activity is one entry of the user activity log.
type Activity struct {
	ID        int64     `json:"id"`
	UserID    *int64    `json:"user_id,omitempty"`
	Action    string    `json:"action"`
	Details   string    `json:"details,omitempty"`
	CreatedAt time.Time `json:"created_at"`

	// Joined fields (not always populated).
	Username string `json:"username,omitempty"`
}

// Activity actions.
const (
	ActivityLogin        = "login"
	ActivityRegister     = "register"
	ActivityItemCreated  = "item_created"
	ActivityItemDeleted  = "item_deleted"
	ActivityItemApproved = "item_approved"
	ActivityItemRejected = "item_rejected"
	ActivityImport       = "import"
	ActivityReset        = "reset"
	ActivityUserCreated  = "user_created"
	ActivityUserDeleted  = "user_deleted"
)
