package api

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/erazemk/ifrit/internal/imaging"
	"github.com/erazemk/ifrit/internal/inventory"
	"github.com/erazemk/ifrit/internal/model"
	"github.com/erazemk/ifrit/internal/store"
)

// maxImportSize caps an uploaded collection export.
const maxImportSize = 32 << 20

// ItemsHandler serves the collection of the authenticated user.
type ItemsHandler struct {
	DB       *sql.DB
	Registry *inventory.Registry
}

type toggleRequest struct {
	Value *bool `json:"value"`
}

// collection opens the caller's collection.
func (h *ItemsHandler) collection(ctx context.Context) (*inventory.Controller, inventory.Actor, error) {
	user := GetUser(ctx)
	coll, err := h.Registry.Get(ctx, user.ID)
	if err != nil {
		return nil, inventory.Actor{}, err
	}
	return coll, actorOf(user), nil
}

func (h *ItemsHandler) logActivity(ctx context.Context, actor inventory.Actor, action, details string) {
	if err := store.LogActivity(ctx, h.DB, &actor.UserID, action, details); err != nil {
		zap.L().Warn("logging activity", zap.String("action", action), zap.Error(err))
	}
}

// List handles GET /api/items?category=&q=&platform=&sort=.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	qs := r.URL.Query()
	sort, err := inventory.ParseSort(qs.Get("sort"))
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	coll, _, err := h.collection(r.Context())
	if err != nil {
		writeError(w, err, "failed to open collection")
		return
	}

	items := coll.View(inventory.Query{
		Category: qs.Get("category"),
		Text:     qs.Get("q"),
		Platform: qs.Get("platform"),
		Sort:     sort,
	})
	jsonResponse(w, http.StatusOK, items)
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}
	coll, _, err := h.collection(r.Context())
	if err != nil {
		writeError(w, err, "failed to open collection")
		return
	}

	item, err := coll.Get(id)
	if err != nil {
		writeError(w, err, "failed to get item")
		return
	}

	resp := map[string]any{"item": item}
	if model.IsLotteryCategory(item.Category) {
		resp["prizeLevel"] = inventory.PrizeLevel(item)
		resp["prizeDesign"] = inventory.PrizeDesign(item)
	}
	jsonResponse(w, http.StatusOK, resp)
}

// Create handles POST /api/items. Items from contributors are queued for
// approval and answered with 202.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var item model.Item
	if err := decodeJSON(r, &item); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	coll, actor, err := h.collection(r.Context())
	if err != nil {
		writeError(w, err, "failed to open collection")
		return
	}

	res, err := coll.Add(r.Context(), actor, item)
	var pending *inventory.PendingApprovalError
	if errors.As(err, &pending) {
		jsonResponse(w, http.StatusAccepted, map[string]any{
			"message": "item submitted for approval",
			"pending": pending.Pending,
		})
		return
	}
	if err != nil {
		writeError(w, err, "failed to add item")
		return
	}

	h.logActivity(r.Context(), actor, model.ActivityItemCreated, fmt.Sprintf("added %q", res.Item.Name))
	jsonResponse(w, http.StatusCreated, res)
}

// Update handles PUT /api/items/{id}. Omitted fields are left unchanged.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var patch inventory.Patch
	if err := decodeJSON(r, &patch); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	coll, actor, err := h.collection(r.Context())
	if err != nil {
		writeError(w, err, "failed to open collection")
		return
	}

	res, err := coll.Update(r.Context(), actor, id, patch)
	if err != nil {
		writeError(w, err, "failed to update item")
		return
	}
	jsonResponse(w, http.StatusOK, res)
}

// Delete handles DELETE /api/items/{id}?confirm=true.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}
	coll, actor, err := h.collection(r.Context())
	if err != nil {
		writeError(w, err, "failed to open collection")
		return
	}

	res, err := coll.Delete(r.Context(), actor, id, confirmed(r))
	if err != nil {
		writeError(w, err, "failed to delete item")
		return
	}

	h.logActivity(r.Context(), actor, model.ActivityItemDeleted, fmt.Sprintf("deleted %q", res.Item.Name))
	jsonResponse(w, http.StatusOK, res)
}

// SetOwned handles PUT /api/items/{id}/owned.
func (h *ItemsHandler) SetOwned(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, (*inventory.Controller).SetOwned)
}

// SetSealed handles PUT /api/items/{id}/sealed.
func (h *ItemsHandler) SetSealed(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, (*inventory.Controller).SetSealed)
}

type toggleFunc func(c *inventory.Controller, ctx context.Context, actor inventory.Actor, id int64, v bool) (inventory.Result, error)

func (h *ItemsHandler) toggle(w http.ResponseWriter, r *http.Request, set toggleFunc) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}
	var req toggleRequest
	if err := decodeJSON(r, &req); err != nil || req.Value == nil {
		jsonError(w, http.StatusBadRequest, `body must be {"value": true|false}`)
		return
	}

	coll, actor, err := h.collection(r.Context())
	if err != nil {
		writeError(w, err, "failed to open collection")
		return
	}
	res, err := set(coll, r.Context(), actor, id, *req.Value)
	if err != nil {
		writeError(w, err, "failed to update item")
		return
	}
	jsonResponse(w, http.StatusOK, res)
}

// UploadImage handles PUT /api/items/{id}/image. The photo is downscaled
// and stored on the item as a JPEG data URI.
func (h *ItemsHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	file, ok := formFile(w, r, "image", imaging.MaxUploadSize)
	if !ok {
		return
	}
	defer file.Close()

	processed, err := imaging.Process(file)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	coll, actor, err := h.collection(r.Context())
	if err != nil {
		writeError(w, err, "failed to open collection")
		return
	}
	res, err := coll.SetImage(r.Context(), actor, id, processed.DataURI())
	if err != nil {
		writeError(w, err, "failed to save image")
		return
	}
	jsonResponse(w, http.StatusOK, res)
}

// DeleteImage handles DELETE /api/items/{id}/image.
func (h *ItemsHandler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}
	coll, actor, err := h.collection(r.Context())
	if err != nil {
		writeError(w, err, "failed to open collection")
		return
	}
	res, err := coll.SetImage(r.Context(), actor, id, "")
	if err != nil {
		writeError(w, err, "failed to remove image")
		return
	}
	jsonResponse(w, http.StatusOK, res)
}

// GetImage handles GET /api/items/{id}/image.
func (h *ItemsHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}
	coll, _, err := h.collection(r.Context())
	if err != nil {
		writeError(w, err, "failed to open collection")
		return
	}
	item, err := coll.Get(id)
	if err != nil {
		writeError(w, err, "failed to get item")
		return
	}
	if item.Image == "" {
		jsonError(w, http.StatusNotFound, "no image")
		return
	}

	mime, data, err := imaging.DecodeDataURI(item.Image)
	if err != nil {
		jsonError(w, http.StatusNotFound, "stored image is not readable")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.Write(data)
}

// Export handles GET /api/collection/export.
func (h *ItemsHandler) Export(w http.ResponseWriter, r *http.Request) {
	coll, actor, err := h.collection(r.Context())
	if err != nil {
		writeError(w, err, "failed to open collection")
		return
	}

	// Guards run before anything is written, so a refusal can still be
	// reported as JSON.
	var buf strings.Builder
	if err := coll.Export(r.Context(), actor, &buf); err != nil {
		writeError(w, err, "failed to export collection")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, inventory.ExportFilename(time.Now())))
	io.WriteString(w, buf.String())
}

// Import handles POST /api/collection/import. The export is read from a
// multipart "file" field or, failing that, from the raw body.
func (h *ItemsHandler) Import(w http.ResponseWriter, r *http.Request) {
	var src io.Reader
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, ok := formFile(w, r, "file", maxImportSize)
		if !ok {
			return
		}
		defer file.Close()
		src = file
	} else {
		r.Body = http.MaxBytesReader(w, r.Body, maxImportSize)
		defer r.Body.Close()
		src = r.Body
	}

	coll, actor, err := h.collection(r.Context())
	if err != nil {
		writeError(w, err, "failed to open collection")
		return
	}
	res, err := coll.Import(r.Context(), actor, src)
	if err != nil {
		writeError(w, err, "failed to import collection")
		return
	}

	h.logActivity(r.Context(), actor, model.ActivityImport, fmt.Sprintf("imported %d items", res.Count))
	jsonResponse(w, http.StatusOK, res)
}

// Reset handles POST /api/collection/reset?confirm=true.
func (h *ItemsHandler) Reset(w http.ResponseWriter, r *http.Request) {
	coll, actor, err := h.collection(r.Context())
	if err != nil {
		writeError(w, err, "failed to open collection")
		return
	}
	res, err := coll.Reset(r.Context(), actor, confirmed(r))
	if err != nil {
		writeError(w, err, "failed to reset collection")
		return
	}

	h.logActivity(r.Context(), actor, model.ActivityReset, "")
	jsonResponse(w, http.StatusOK, res)
}

// Stats handles GET /api/collection/stats.
func (h *ItemsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	coll, _, err := h.collection(r.Context())
	if err != nil {
		writeError(w, err, "failed to open collection")
		return
	}
	jsonResponse(w, http.StatusOK, coll.Stats())
}

// Dashboard handles GET /api/collection/dashboard.
func (h *ItemsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	coll, _, err := h.collection(r.Context())
	if err != nil {
		writeError(w, err, "failed to open collection")
		return
	}
	jsonResponse(w, http.StatusOK, coll.Dashboard())
}

// Lottery handles GET /api/collection/lottery.
func (h *ItemsHandler) Lottery(w http.ResponseWriter, r *http.Request) {
	coll, _, err := h.collection(r.Context())
	if err != nil {
		writeError(w, err, "failed to open collection")
		return
	}
	progress, err := coll.Lottery()
	if err != nil {
		writeError(w, err, "failed to compute lottery progress")
		return
	}
	if progress == nil {
		progress = []inventory.Progress{}
	}
	jsonResponse(w, http.StatusOK, progress)
}

// Achievements handles GET /api/collection/achievements.
func (h *ItemsHandler) Achievements(w http.ResponseWriter, r *http.Request) {
	coll, _, err := h.collection(r.Context())
	if err != nil {
		writeError(w, err, "failed to open collection")
		return
	}
	statuses, err := coll.Achievements()
	if err != nil {
		writeError(w, err, "failed to list achievements")
		return
	}
	jsonResponse(w, http.StatusOK, statuses)
}

// Platforms handles GET /api/collection/platforms.
func (h *ItemsHandler) Platforms(w http.ResponseWriter, r *http.Request) {
	coll, _, err := h.collection(r.Context())
	if err != nil {
		writeError(w, err, "failed to open collection")
		return
	}
	platforms := inventory.Platforms(coll.Items())
	if platforms == nil {
		platforms = []string{}
	}
	jsonResponse(w, http.StatusOK, platforms)
}

// Categories handles GET /api/categories.
func (h *ItemsHandler) Categories(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]any{
		"all":        model.CategoryAll,
		"categories": model.Categories,
	})
}

// formFile limits the body to limit bytes and opens the named multipart
// file. On failure the error response is already written.
func formFile(w http.ResponseWriter, r *http.Request, field string, limit int64) (io.ReadCloser, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, limit+1<<20)
	if err := r.ParseMultipartForm(limit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, err, "")
			return nil, false
		}
		jsonError(w, http.StatusBadRequest, "invalid multipart form")
		return nil, false
	}
	file, _, err := r.FormFile(field)
	if err != nil {
		jsonError(w, http.StatusBadRequest, field+" file required")
		return nil, false
	}
	return file, true
}
