package inventory

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/ifrit/internal/model"
)

type fakeSubmitter struct {
	submitted []model.Item
	err       error
}

func (f *fakeSubmitter) Submit(_ context.Context, actor Actor, item model.Item) (*model.PendingItem, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.submitted = append(f.submitted, item)
	return &model.PendingItem{ID: "p-1", Item: item, SubmittedBy: actor.UserID}, nil
}

func TestPermissionGuardOwnItems(t *testing.T) {
	g := PermissionGuard()
	ctx := context.Background()
	contributor := Actor{UserID: 9, Role: model.RoleContributor}

	mine := &model.Item{CreatedBy: 9}
	theirs := &model.Item{CreatedBy: 10}
	seeded := &model.Item{}

	assert.NoError(t, g.Check(ctx, Operation{Action: ActionUpdate, Actor: contributor, Item: mine}))
	assert.NoError(t, g.Check(ctx, Operation{Action: ActionDelete, Actor: contributor, Item: mine}))
	assert.ErrorIs(t, g.Check(ctx, Operation{Action: ActionUpdate, Actor: contributor, Item: theirs}), ErrForbidden)
	assert.ErrorIs(t, g.Check(ctx, Operation{Action: ActionDelete, Actor: contributor, Item: seeded}), ErrForbidden)

	// Editors edit anything but delete only their own.
	assert.NoError(t, g.Check(ctx, Operation{Action: ActionUpdate, Actor: editor, Item: theirs}))
	assert.ErrorIs(t, g.Check(ctx, Operation{Action: ActionDelete, Actor: editor, Item: theirs}), ErrForbidden)

	assert.ErrorIs(t, g.Check(ctx, Operation{Action: ActionAdd, Actor: viewer}), ErrForbidden)
	assert.NoError(t, g.Check(ctx, Operation{Action: ActionExport, Actor: viewer}))
	assert.ErrorIs(t, g.Check(ctx, Operation{Action: ActionImport, Actor: contributor}), ErrForbidden)
	assert.ErrorIs(t, g.Check(ctx, Operation{Action: ActionAdd, Actor: Actor{Role: "ghost"}}), ErrForbidden)
}

func TestQuotaGuard(t *testing.T) {
	g := QuotaGuard()
	ctx := context.Background()
	free := Actor{Role: model.RoleEditor, Plan: model.PlanFree}

	assert.NoError(t, g.Check(ctx, Operation{Action: ActionAdd, Actor: free, Count: 49}))
	assert.ErrorIs(t, g.Check(ctx, Operation{Action: ActionAdd, Actor: free, Count: 50}), ErrQuotaExceeded)
	assert.ErrorIs(t, g.Check(ctx, Operation{Action: ActionImport, Actor: free, Count: 51}), ErrQuotaExceeded)
	assert.NoError(t, g.Check(ctx, Operation{Action: ActionDelete, Actor: free, Count: 500}))
	assert.NoError(t, g.Check(ctx, Operation{Action: ActionAdd, Actor: admin, Count: 1_000_000}))
}

func TestApprovalGuardDivertsContributors(t *testing.T) {
	sub := &fakeSubmitter{}
	c, rec := openTest(t, newMemStorage(), DefaultGuards(sub))
	ctx := context.Background()
	before := c.Items()
	contributor := Actor{UserID: 4, Role: model.RoleContributor, Plan: model.PlanEnterprise}

	_, err := c.Add(ctx, contributor, model.Item{Name: "Chocobo plush", Category: model.CategoryMerch})
	require.ErrorIs(t, err, ErrPendingApproval)

	var pending *PendingApprovalError
	require.ErrorAs(t, err, &pending)
	assert.Equal(t, "p-1", pending.Pending.ID)

	require.Len(t, sub.submitted, 1)
	assert.Equal(t, int64(4), sub.submitted[0].CreatedBy)
	assert.Equal(t, before, c.Items())
	assert.NotContains(t, rec.types(), EventItemAdded)

	// Approved items enter through Insert, bypassing the approval step.
	res, err := c.Insert(ctx, contributor, sub.submitted[0])
	require.NoError(t, err)
	assert.Equal(t, "Chocobo plush", c.Items()[0].Name)
	assert.Equal(t, int64(4), res.Item.CreatedBy)

	// Editors skip the queue.
	_, err = c.Add(ctx, editor, model.Item{Name: "Bomb", Category: model.CategoryMerch})
	require.NoError(t, err)
	assert.Len(t, sub.submitted, 1)
}

func TestGuardOrder(t *testing.T) {
	sub := &fakeSubmitter{err: errors.New("queue down")}
	c, _ := openTest(t, newMemStorage(), DefaultGuards(sub))
	ctx := context.Background()

	// Permission fails before the submitter is reached.
	_, err := c.Add(ctx, viewer, model.Item{Name: "x", Category: model.CategoryMerch})
	assert.ErrorIs(t, err, ErrForbidden)

	// Quota fails before the submitter is reached.
	_, err = c.Add(ctx, Actor{Role: model.RoleContributor, Plan: model.PlanFree}, model.Item{Name: "x", Category: model.CategoryMerch})
	assert.ErrorIs(t, err, ErrQuotaExceeded)

	_, err = c.Add(ctx, Actor{Role: model.RoleContributor, Plan: model.PlanPremium}, model.Item{Name: "x", Category: model.CategoryMerch})
	assert.ErrorContains(t, err, "queue down")
}

func TestInsertEnforcesQuota(t *testing.T) {
	c, _ := openTest(t, newMemStorage(), DefaultGuards(&fakeSubmitter{}))
	ctx := context.Background()
	free := Actor{UserID: 4, Role: model.RoleContributor, Plan: model.PlanFree}

	items := make([]string, model.LimitsFor(model.PlanFree).Items)
	for i := range items {
		items[i] = `{"name":"Potion","category":"Merch"}`
	}
	_, err := c.ImportText(ctx, admin, "["+strings.Join(items, ",")+"]")
	require.NoError(t, err)

	_, err = c.Insert(ctx, free, model.Item{Name: "Elixir", Category: model.CategoryMerch, CreatedBy: 4})
	assert.ErrorIs(t, err, ErrQuotaExceeded)
	assert.Len(t, c.Items(), len(items))

	res, err := c.Insert(ctx, Actor{UserID: 4, Role: model.RoleContributor, Plan: model.PlanBasic},
		model.Item{Name: "Elixir", Category: model.CategoryMerch, CreatedBy: 4})
	require.NoError(t, err)
	assert.Equal(t, "Elixir", res.Item.Name)
}
