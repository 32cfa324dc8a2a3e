package inventory

import (
	"context"

	"github.com/erazemk/ifrit/internal/model"
)

// Event types.
const (
	EventItemAdded           = "item-added"
	EventItemUpdated         = "item-updated"
	EventItemDeleted         = "item-deleted"
	EventCollectionReplaced  = "collection-replaced"
	EventAchievementUnlocked = "achievement-unlocked"
)

// Event describes a change to one collection.
type Event struct {
	Type        string             `json:"type"`
	Item        *model.Item        `json:"item,omitempty"`
	ItemID      int64              `json:"item_id,omitempty"`
	Count       int                `json:"count,omitempty"`
	Achievement *AchievementStatus `json:"achievement,omitempty"`
}

// Notifier receives collection events after each successful mutation.
type Notifier interface {
	Notify(ctx context.Context, owner int64, ev Event)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, owner int64, ev Event)

// Notify calls f.
func (f NotifierFunc) Notify(ctx context.Context, owner int64, ev Event) { f(ctx, owner, ev) }

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, int64, Event) {}
