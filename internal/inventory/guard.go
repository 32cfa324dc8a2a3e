package inventory

import (
	"context"
	"fmt"

	"github.com/erazemk/ifrit/internal/model"
)

// Action identifies a controller operation for guards.
type Action string

// Actions.
const (
	ActionAdd    Action = "add"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionImport Action = "import"
	ActionExport Action = "export"
	ActionReset  Action = "reset"
)

// Actor is the user performing an operation.
type Actor struct {
	UserID   int64
	Username string
	Role     string
	Plan     string
}

// Operation describes a pending mutation. Item is the new item for add and
// the current item for update and delete. Count is the collection size
// after an import and before any other operation.
type Operation struct {
	Action Action
	Actor  Actor
	Item   *model.Item
	Count  int
}

// A Guard is a named check run before a mutation. A non-nil error stops the
// chain and the mutation.
type Guard struct {
	Name  string
	Check func(ctx context.Context, op Operation) error
}

// runGuards runs guards in order and returns the first failure.
func runGuards(ctx context.Context, guards []Guard, op Operation) error {
	for _, g := range guards {
		if err := g.Check(ctx, op); err != nil {
			return err
		}
	}
	return nil
}

// selectGuards returns the guards with one of the given names, in order.
func selectGuards(guards []Guard, names ...string) []Guard {
	var out []Guard
	for _, g := range guards {
		for _, n := range names {
			if g.Name == n {
				out = append(out, g)
				break
			}
		}
	}
	return out
}

// PermissionGuard enforces the role permission matrix. Editing and deleting
// fall back to the "own items" permissions when the actor created the item.
func PermissionGuard() Guard {
	return Guard{Name: "permission", Check: func(_ context.Context, op Operation) error {
		role := op.Actor.Role
		own := op.Item != nil && op.Item.CreatedBy != 0 && op.Item.CreatedBy == op.Actor.UserID

		var ok bool
		switch op.Action {
		case ActionAdd:
			ok = model.Can(role, model.PermCreateItems)
		case ActionUpdate:
			ok = model.Can(role, model.PermEditItems) || (own && model.Can(role, model.PermEditOwnItems))
		case ActionDelete:
			ok = model.Can(role, model.PermDeleteItems) || (own && model.Can(role, model.PermDeleteOwnItems))
		case ActionImport:
			ok = model.Can(role, model.PermImportData)
		case ActionExport:
			ok = model.Can(role, model.PermExportData)
		case ActionReset:
			ok = model.Can(role, model.PermResetDatabase)
		}
		if !ok {
			return fmt.Errorf("%w: %s may not %s items", ErrForbidden, role, op.Action)
		}
		return nil
	}}
}

// QuotaGuardName names the guard returned by QuotaGuard.
const QuotaGuardName = "quota"

// QuotaGuard enforces the item limit of the actor's plan.
func QuotaGuard() Guard {
	return Guard{Name: QuotaGuardName, Check: func(_ context.Context, op Operation) error {
		limit := model.LimitsFor(op.Actor.Plan).Items
		if limit == model.Unlimited {
			return nil
		}
		switch op.Action {
		case ActionAdd:
			if op.Count+1 > limit {
				return fmt.Errorf("%w: %d of %d", ErrQuotaExceeded, op.Count, limit)
			}
		case ActionImport:
			if op.Count > limit {
				return fmt.Errorf("%w: import has %d items, plan allows %d", ErrQuotaExceeded, op.Count, limit)
			}
		}
		return nil
	}}
}

// Submitter queues an item for review.
type Submitter interface {
	Submit(ctx context.Context, actor Actor, item model.Item) (*model.PendingItem, error)
}

// ApprovalGuard diverts new items from roles that need approval into the
// review queue. The mutation is then stopped with a PendingApprovalError.
func ApprovalGuard(s Submitter) Guard {
	return Guard{Name: "approval", Check: func(ctx context.Context, op Operation) error {
		if op.Action != ActionAdd || op.Item == nil || !model.NeedsApproval(op.Actor.Role) {
			return nil
		}
		p, err := s.Submit(ctx, op.Actor, *op.Item)
		if err != nil {
			return fmt.Errorf("submitting for approval: %w", err)
		}
		return &PendingApprovalError{Pending: p}
	}}
}

// DefaultGuards returns the standard chain: permission, quota, approval.
// A nil submitter leaves out the approval step.
func DefaultGuards(s Submitter) []Guard {
	guards := []Guard{PermissionGuard(), QuotaGuard()}
	if s != nil {
		guards = append(guards, ApprovalGuard(s))
	}
	return guards
}
