package api

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/erazemk/ifrit/internal/backup"
	"github.com/erazemk/ifrit/internal/billing"
	"github.com/erazemk/ifrit/internal/inventory"
	"github.com/erazemk/ifrit/internal/model"
	"github.com/erazemk/ifrit/internal/realtime"
)

// maxWebhookSize caps a Stripe delivery.
const maxWebhookSize = 64 << 10

// WebhookHandler receives Stripe billing events.
type WebhookHandler struct {
	Billing *billing.Processor
}

// Stripe handles POST /api/webhooks/stripe.
func (h *WebhookHandler) Stripe(w http.ResponseWriter, r *http.Request) {
	if h.Billing == nil || !h.Billing.Enabled() {
		jsonError(w, http.StatusServiceUnavailable, "billing is not configured")
		return
	}

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookSize))
	if err != nil {
		jsonError(w, http.StatusBadRequest, "failed to read payload")
		return
	}

	err = h.Billing.Handle(r.Context(), payload, r.Header.Get(billing.SignatureHeader))
	switch {
	case err == nil:
		jsonResponse(w, http.StatusOK, map[string]bool{"received": true})
	case errors.Is(err, billing.ErrMissingSignature),
		errors.Is(err, billing.ErrBadSignature),
		errors.Is(err, billing.ErrStaleSignature),
		errors.Is(err, billing.ErrBadPayload):
		zap.L().Warn("rejected webhook", zap.String("remote", r.RemoteAddr), zap.Error(err))
		jsonError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, err, "failed to process webhook")
	}
}

// BackupHandler uploads collection exports to the backup bucket.
type BackupHandler struct {
	Backup   *backup.Service
	Registry *inventory.Registry
}

// Create handles POST /api/collection/backups.
func (h *BackupHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !h.Backup.Enabled() {
		writeError(w, backup.ErrDisabled, "")
		return
	}
	user := GetUser(r.Context())
	coll, err := h.Registry.Get(r.Context(), user.ID)
	if err != nil {
		writeError(w, err, "failed to open collection")
		return
	}

	var buf bytes.Buffer
	if err := coll.Export(r.Context(), actorOf(user), &buf); err != nil {
		writeError(w, err, "failed to export collection")
		return
	}
	obj, err := h.Backup.Upload(r.Context(), user.ID, buf.Bytes())
	if err != nil {
		writeError(w, err, "failed to upload backup")
		return
	}
	jsonResponse(w, http.StatusCreated, obj)
}

// List handles GET /api/collection/backups.
func (h *BackupHandler) List(w http.ResponseWriter, r *http.Request) {
	objs, err := h.Backup.List(r.Context(), GetUser(r.Context()).ID)
	if err != nil {
		writeError(w, err, "failed to list backups")
		return
	}
	if objs == nil {
		objs = []backup.Object{}
	}
	jsonResponse(w, http.StatusOK, objs)
}

// RealtimeHandler upgrades connections to the event stream.
type RealtimeHandler struct {
	Hub *realtime.Hub
}

// Serve handles GET /api/ws. The connection joins the user's room, and
// the admins' room for admins.
func (h *RealtimeHandler) Serve(w http.ResponseWriter, r *http.Request) {
	user := GetUser(r.Context())
	if err := h.Hub.Serve(w, r, user.ID, user.Role == model.RoleAdmin); err != nil {
		// The upgrader has already answered the client.
		zap.L().Debug("websocket upgrade failed", zap.Error(err))
	}
}

// Health handles GET /api/health.
func Health(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}
