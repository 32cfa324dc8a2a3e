// Package notify stores user notifications and pushes them to connected
// clients.
package notify

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/erazemk/ifrit/internal/model"
	"github.com/erazemk/ifrit/internal/store"
)

// EventType is the realtime message type notifications are pushed with.
const EventType = "notification"

// Publisher delivers realtime messages.
type Publisher interface {
	Publish(userID int64, typ string, payload any)
	PublishAdmins(typ string, payload any)
}

// Center creates notifications.
type Center struct {
	db  *sql.DB
	pub Publisher
	log *zap.Logger
}

// NewCenter returns a center. pub may be nil.
func NewCenter(db *sql.DB, pub Publisher, log *zap.Logger) *Center {
	if log == nil {
		log = zap.NewNop()
	}
	return &Center{db: db, pub: pub, log: log}
}

// Send stores n and pushes it to its recipients.
func (c *Center) Send(ctx context.Context, n *model.Notification) error {
	if err := store.CreateNotification(ctx, c.db, n); err != nil {
		return err
	}
	if c.pub == nil {
		return nil
	}
	if n.UserID == nil {
		c.pub.PublishAdmins(EventType, n)
	} else {
		c.pub.Publish(*n.UserID, EventType, n)
	}
	return nil
}

// ToAdmins notifies every admin.
func (c *Center) ToAdmins(ctx context.Context, typ, title, message string, data any) error {
	return c.send(ctx, nil, typ, title, message, data)
}

// ToUser notifies a single user.
func (c *Center) ToUser(ctx context.Context, userID int64, typ, title, message string, data any) error {
	return c.send(ctx, &userID, typ, title, message, data)
}

func (c *Center) send(ctx context.Context, userID *int64, typ, title, message string, data any) error {
	n := &model.Notification{UserID: userID, Type: typ, Title: title, Message: message}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("encoding notification data: %w", err)
		}
		n.Data = raw
	}
	if err := c.Send(ctx, n); err != nil {
		c.log.Error("sending notification", zap.String("type", typ), zap.Error(err))
		return err
	}
	return nil
}
