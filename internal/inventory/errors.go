package inventory

import (
	"errors"
	"fmt"

	"github.com/erazemk/ifrit/internal/model"
)

// Sentinel errors returned by the controller and its guards.
var (
	ErrNotFound             = errors.New("item not found")
	ErrForbidden            = errors.New("forbidden")
	ErrConfirmationRequired = errors.New("confirmation required")
	ErrPendingApproval      = errors.New("item submitted for approval")
	ErrQuotaExceeded        = errors.New("item limit of plan reached")
	ErrInvalidImport        = errors.New("invalid import: expected a JSON array of items")
	ErrFeatureDisabled      = errors.New("feature disabled")
)

// ValidationError reports a rejected field on add or update.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// PendingApprovalError carries the queued submission. It matches
// ErrPendingApproval with errors.Is.
type PendingApprovalError struct {
	Pending *model.PendingItem
}

func (e *PendingApprovalError) Error() string { return ErrPendingApproval.Error() }

func (e *PendingApprovalError) Is(target error) bool { return target == ErrPendingApproval }
