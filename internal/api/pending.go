package api

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/erazemk/ifrit/internal/approval"
	"github.com/erazemk/ifrit/internal/model"
)

// PendingHandler serves the approval queue.
type PendingHandler struct {
	Approval *approval.Service
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

// List handles GET /api/pending.
func (h *PendingHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.Approval.List(r.Context(), actorOf(GetUser(r.Context())))
	if err != nil {
		writeError(w, err, "failed to list pending items")
		return
	}
	if items == nil {
		items = []model.PendingItem{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// Approve handles POST /api/pending/{id}/approve?confirm=true.
func (h *PendingHandler) Approve(w http.ResponseWriter, r *http.Request) {
	res, err := h.Approval.Approve(r.Context(), actorOf(GetUser(r.Context())), r.PathValue("id"), confirmed(r))
	if err != nil {
		writeError(w, err, "failed to approve item")
		return
	}
	jsonResponse(w, http.StatusOK, res)
}

// Reject handles POST /api/pending/{id}/reject?confirm=true.
func (h *PendingHandler) Reject(w http.ResponseWriter, r *http.Request) {
	var req rejectRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			jsonError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	if err := h.Approval.Reject(r.Context(), actorOf(GetUser(r.Context())), r.PathValue("id"), req.Reason, confirmed(r)); err != nil {
		writeError(w, err, "failed to reject item")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "item rejected"})
}

// ApproveAll handles POST /api/pending/approve-all?confirm=true.
func (h *PendingHandler) ApproveAll(w http.ResponseWriter, r *http.Request) {
	user := GetUser(r.Context())
	n, err := h.Approval.ApproveAll(r.Context(), actorOf(user), confirmed(r))
	if err != nil {
		writeError(w, err, "failed to approve items")
		return
	}
	zap.L().Info("approved pending items", zap.String("user", user.Username), zap.Int("count", n))
	jsonResponse(w, http.StatusOK, map[string]int{"approved": n})
}

// Count handles GET /api/pending/count.
func (h *PendingHandler) Count(w http.ResponseWriter, r *http.Request) {
	n, err := h.Approval.Count(r.Context())
	if err != nil {
		writeError(w, err, "failed to count pending items")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]int{"count": n})
}
