package approval

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/erazemk/ifrit/internal/db"
	"github.com/erazemk/ifrit/internal/inventory"
	"github.com/erazemk/ifrit/internal/model"
	"github.com/erazemk/ifrit/internal/notify"
	"github.com/erazemk/ifrit/internal/store"
)

type fixture struct {
	db       *sql.DB
	svc      *Service
	registry *inventory.Registry
	admin    inventory.Actor
	contrib  inventory.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	database := db.NewTestDB(t)

	a, err := store.CreateUser(ctx, database, "cid", "x", model.RoleAdmin)
	require.NoError(t, err)
	c, err := store.CreateUser(ctx, database, "tifa", "x", model.RoleContributor)
	require.NoError(t, err)

	f := &fixture{
		db:      database,
		admin:   inventory.Actor{UserID: a.ID, Username: a.Username, Role: model.RoleAdmin, Plan: model.PlanEnterprise},
		contrib: inventory.Actor{UserID: c.ID, Username: c.Username, Role: model.RoleContributor, Plan: model.PlanFree},
	}
	log := zaptest.NewLogger(t)
	f.registry = inventory.NewRegistry(func(owner int64) inventory.Config {
		return inventory.Config{
			Storage: store.KV{DB: database, Namespace: store.UserNamespace(owner)},
			Logger:  log,
			Guards:  inventory.DefaultGuards(f.svc),
			Seed:    func() []model.Item { return []model.Item{} },
		}
	})
	f.svc = New(database, f.registry, notify.NewCenter(database, nil, log), log)
	return f
}

func (f *fixture) submit(t *testing.T, name string) *model.PendingItem {
	t.Helper()
	coll, err := f.registry.Get(context.Background(), f.contrib.UserID)
	require.NoError(t, err)

	_, err = coll.Add(context.Background(), f.contrib, model.Item{Name: name, Category: model.CategoryMerch, Rarity: 2})
	var pending *inventory.PendingApprovalError
	require.ErrorAs(t, err, &pending)
	require.ErrorIs(t, err, inventory.ErrPendingApproval)
	return pending.Pending
}

func TestSubmitQueuesAndNotifiesAdmins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := f.submit(t, "Chocobo Plush")
	assert.Equal(t, f.contrib.UserID, p.SubmittedBy)
	assert.Equal(t, "Chocobo Plush", p.Item.Name)

	coll, err := f.registry.Get(ctx, f.contrib.UserID)
	require.NoError(t, err)
	assert.Empty(t, coll.Items(), "pending items stay out of the collection")

	list, err := f.svc.List(ctx, f.admin)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "tifa", list[0].SubmitterName)

	notes, err := store.ListNotifications(ctx, f.db, f.admin.UserID, true, true, 0)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, model.NotificationNewItem, notes[0].Type)
}

func TestApprove(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.submit(t, "Chocobo Plush")

	_, err := f.svc.Approve(ctx, f.admin, p.ID, false)
	assert.ErrorIs(t, err, inventory.ErrConfirmationRequired)

	_, err = f.svc.Approve(ctx, f.contrib, p.ID, true)
	assert.ErrorIs(t, err, inventory.ErrForbidden)

	res, err := f.svc.Approve(ctx, f.admin, p.ID, true)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Item.ID)
	assert.Equal(t, f.contrib.UserID, res.Item.CreatedBy)

	coll, err := f.registry.Get(ctx, f.contrib.UserID)
	require.NoError(t, err)
	items := coll.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "Chocobo Plush", items[0].Name)

	n, err := f.svc.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	notes, err := store.ListNotifications(ctx, f.db, f.contrib.UserID, false, false, 0)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, model.NotificationItemApproved, notes[0].Type)

	_, err = f.svc.Approve(ctx, f.admin, p.ID, true)
	assert.ErrorIs(t, err, inventory.ErrNotFound)
}

func TestReject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.submit(t, "Fake Masamune")

	assert.ErrorIs(t, f.svc.Reject(ctx, f.admin, p.ID, "", false), inventory.ErrConfirmationRequired)
	require.NoError(t, f.svc.Reject(ctx, f.admin, p.ID, "duplicate", true))

	coll, err := f.registry.Get(ctx, f.contrib.UserID)
	require.NoError(t, err)
	assert.Empty(t, coll.Items())

	notes, err := store.ListNotifications(ctx, f.db, f.contrib.UserID, false, false, 0)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, model.NotificationItemRejected, notes[0].Type)
	assert.Contains(t, notes[0].Message, "duplicate")

	assert.ErrorIs(t, f.svc.Reject(ctx, f.admin, p.ID, "", true), inventory.ErrNotFound)
}

func TestApproveAll(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.submit(t, "Moogle Plush")
	f.submit(t, "Tonberry Lantern")

	_, err := f.svc.ApproveAll(ctx, f.admin, false)
	assert.ErrorIs(t, err, inventory.ErrConfirmationRequired)

	n, err := f.svc.ApproveAll(ctx, f.admin, true)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	coll, err := f.registry.Get(ctx, f.contrib.UserID)
	require.NoError(t, err)
	items := coll.Items()
	require.Len(t, items, 2)
	// Oldest submission is approved first, newest ends up in front.
	assert.Equal(t, "Tonberry Lantern", items[0].Name)

	activity, err := store.ListActivity(ctx, f.db, f.admin.UserID, 0)
	require.NoError(t, err)
	assert.Len(t, activity, 2)
}

func TestApproveRespectsSubmitterQuota(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := f.submit(t, "Elixir")

	// The collection fills up while the submission waits.
	coll, err := f.registry.Get(ctx, f.contrib.UserID)
	require.NoError(t, err)
	full := make([]string, model.LimitsFor(model.PlanFree).Items)
	for i := range full {
		full[i] = `{"name":"Potion","category":"Merch"}`
	}
	_, err = coll.ImportText(ctx, f.admin, "["+strings.Join(full, ",")+"]")
	require.NoError(t, err)

	_, err = f.svc.Approve(ctx, f.admin, p.ID, true)
	require.ErrorIs(t, err, inventory.ErrQuotaExceeded)
	assert.Len(t, coll.Items(), len(full))

	// The submission stays queued for a later decision.
	kept, err := store.GetPending(ctx, f.db, p.ID)
	require.NoError(t, err)
	require.NotNil(t, kept)
	assert.Equal(t, "Elixir", kept.Item.Name)

	require.NoError(t, store.UpdateSubscription(ctx, f.db, f.contrib.UserID, model.Subscription{Plan: model.PlanBasic, Status: "active"}))
	res, err := f.svc.Approve(ctx, f.admin, p.ID, true)
	require.NoError(t, err)
	assert.Equal(t, "Elixir", res.Item.Name)
}
