// Package approval implements the review queue for items submitted by
// contributors. Approved items join the submitter's collection.
package approval

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/erazemk/ifrit/internal/inventory"
	"github.com/erazemk/ifrit/internal/metrics"
	"github.com/erazemk/ifrit/internal/model"
	"github.com/erazemk/ifrit/internal/notify"
	"github.com/erazemk/ifrit/internal/store"
)

// Collections opens the collection of an owner.
type Collections interface {
	Get(ctx context.Context, owner int64) (*inventory.Controller, error)
}

// Service manages pending items.
type Service struct {
	db          *sql.DB
	collections Collections
	notes       *notify.Center
	log         *zap.Logger
}

// New returns a service. Approved items are inserted through collections.
func New(db *sql.DB, collections Collections, notes *notify.Center, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{db: db, collections: collections, notes: notes, log: log}
}

// Submit queues item for review and tells the admins. It satisfies
// inventory.Submitter.
func (s *Service) Submit(ctx context.Context, actor inventory.Actor, item model.Item) (*model.PendingItem, error) {
	p, err := store.CreatePending(ctx, s.db, actor.UserID, item)
	if err != nil {
		return nil, err
	}
	s.refreshGauge(ctx)

	s.logActivity(ctx, actor.UserID, model.ActivityItemCreated, fmt.Sprintf("submitted %q for approval", item.Name))
	if s.notes != nil {
		s.notes.ToAdmins(ctx, model.NotificationNewItem, "New item awaiting approval",
			fmt.Sprintf("%s submitted %q", actor.Username, item.Name),
			map[string]string{"pending_id": p.ID})
	}
	s.log.Info("item submitted for approval", zap.String("pending_id", p.ID), zap.Int64("user_id", actor.UserID))
	return p, nil
}

// List returns the queue, oldest first.
func (s *Service) List(ctx context.Context, reviewer inventory.Actor) ([]model.PendingItem, error) {
	if err := canReview(reviewer); err != nil {
		return nil, err
	}
	return store.ListPending(ctx, s.db)
}

// Approve moves a pending item into its submitter's collection.
func (s *Service) Approve(ctx context.Context, reviewer inventory.Actor, id string, confirmed bool) (inventory.Result, error) {
	if err := canReview(reviewer); err != nil {
		return inventory.Result{}, err
	}
	if !confirmed {
		return inventory.Result{}, inventory.ErrConfirmationRequired
	}
	return s.approve(ctx, reviewer, id)
}

func (s *Service) approve(ctx context.Context, reviewer inventory.Actor, id string) (inventory.Result, error) {
	p, err := store.GetPending(ctx, s.db, id)
	if err != nil {
		return inventory.Result{}, err
	}
	if p == nil {
		return inventory.Result{}, inventory.ErrNotFound
	}

	submitter, err := store.GetUser(ctx, s.db, p.SubmittedBy)
	if err != nil {
		return inventory.Result{}, err
	}
	if submitter == nil {
		return inventory.Result{}, fmt.Errorf("%w: submitter %d no longer exists", inventory.ErrNotFound, p.SubmittedBy)
	}
	owner := inventory.Actor{
		UserID:   submitter.ID,
		Username: submitter.Username,
		Role:     submitter.Role,
		Plan:     submitter.Subscription.Plan,
	}

	coll, err := s.collections.Get(ctx, p.SubmittedBy)
	if err != nil {
		return inventory.Result{}, fmt.Errorf("opening collection of user %d: %w", p.SubmittedBy, err)
	}

	// Deleting first makes concurrent approvals of the same item insert it once.
	deleted, err := store.DeletePending(ctx, s.db, id)
	if err != nil {
		return inventory.Result{}, err
	}
	if !deleted {
		return inventory.Result{}, inventory.ErrNotFound
	}
	s.refreshGauge(ctx)

	item := p.Item
	item.CreatedBy = p.SubmittedBy
	res, err := coll.Insert(ctx, owner, item)
	if err != nil {
		if rerr := store.RestorePending(ctx, s.db, p); rerr != nil {
			s.log.Error("restoring pending item", zap.String("pending_id", id), zap.Error(rerr))
		}
		s.refreshGauge(ctx)
		return inventory.Result{}, err
	}

	s.logActivity(ctx, reviewer.UserID, model.ActivityItemApproved, fmt.Sprintf("approved %q from %s", item.Name, p.SubmitterName))
	if s.notes != nil {
		s.notes.ToUser(ctx, p.SubmittedBy, model.NotificationItemApproved, "Item approved",
			fmt.Sprintf("%q was added to your collection", item.Name),
			map[string]int64{"item_id": res.Item.ID})
	}
	s.log.Info("pending item approved", zap.String("pending_id", id), zap.Int64("reviewer", reviewer.UserID))
	return res, nil
}

// Reject discards a pending item. reason is passed on to the submitter.
func (s *Service) Reject(ctx context.Context, reviewer inventory.Actor, id, reason string, confirmed bool) error {
	if err := canReview(reviewer); err != nil {
		return err
	}
	if !confirmed {
		return inventory.ErrConfirmationRequired
	}

	p, err := store.GetPending(ctx, s.db, id)
	if err != nil {
		return err
	}
	if p == nil {
		return inventory.ErrNotFound
	}
	deleted, err := store.DeletePending(ctx, s.db, id)
	if err != nil {
		return err
	}
	if !deleted {
		return inventory.ErrNotFound
	}
	s.refreshGauge(ctx)

	msg := fmt.Sprintf("%q was not accepted", p.Item.Name)
	if reason != "" {
		msg += ": " + reason
	}
	s.logActivity(ctx, reviewer.UserID, model.ActivityItemRejected, fmt.Sprintf("rejected %q from %s", p.Item.Name, p.SubmitterName))
	if s.notes != nil {
		s.notes.ToUser(ctx, p.SubmittedBy, model.NotificationItemRejected, "Item rejected", msg,
			map[string]string{"reason": reason})
	}
	s.log.Info("pending item rejected", zap.String("pending_id", id), zap.Int64("reviewer", reviewer.UserID))
	return nil
}

// ApproveAll approves every queued item and returns how many were added.
// Items that fail are logged and stay queued.
func (s *Service) ApproveAll(ctx context.Context, reviewer inventory.Actor, confirmed bool) (int, error) {
	if err := canReview(reviewer); err != nil {
		return 0, err
	}
	if !confirmed {
		return 0, inventory.ErrConfirmationRequired
	}

	pending, err := store.ListPending(ctx, s.db)
	if err != nil {
		return 0, err
	}
	approved := 0
	for _, p := range pending {
		if _, err := s.approve(ctx, reviewer, p.ID); err != nil {
			s.log.Warn("approving pending item", zap.String("pending_id", p.ID), zap.Error(err))
			continue
		}
		approved++
	}
	return approved, nil
}

// Count returns the queue length.
func (s *Service) Count(ctx context.Context) (int, error) {
	return store.CountPending(ctx, s.db)
}

func canReview(actor inventory.Actor) error {
	if actor.Role != model.RoleAdmin {
		return fmt.Errorf("%w: only admins review pending items", inventory.ErrForbidden)
	}
	return nil
}

func (s *Service) refreshGauge(ctx context.Context) {
	if n, err := store.CountPending(ctx, s.db); err == nil {
		metrics.PendingItems.Set(float64(n))
	}
}

func (s *Service) logActivity(ctx context.Context, userID int64, action, details string) {
	if err := store.LogActivity(ctx, s.db, &userID, action, details); err != nil {
		s.log.Warn("logging activity", zap.String("action", action), zap.Error(err))
	}
}
