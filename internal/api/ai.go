package api

import (
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/erazemk/ifrit/internal/ai"
	"github.com/erazemk/ifrit/internal/imaging"
	"github.com/erazemk/ifrit/internal/inventory"
)

// AIHandler serves the assistant endpoints. Routes that reach the model
// are wrapped in AIUsageMiddleware; trends, suggestions and duplicate
// detection are computed locally and are not metered.
type AIHandler struct {
	AI       *ai.Service
	Registry *inventory.Registry
}

type chatRequest struct {
	Message string `json:"message"`
	Confirm bool   `json:"confirm"`
}

type similarRequest struct {
	Name string `json:"name"`
}

func (h *AIHandler) items(w http.ResponseWriter, r *http.Request) (*inventory.Controller, bool) {
	coll, err := h.Registry.Get(r.Context(), GetUser(r.Context()).ID)
	if err != nil {
		writeError(w, err, "failed to open collection")
		return nil, false
	}
	return coll, true
}

// aiError answers provider failures with 502 and everything else through
// writeError.
func aiError(w http.ResponseWriter, err error, fallback string) {
	if ai.IsProviderError(err) {
		zap.L().Warn(fallback, zap.Error(err))
		jsonError(w, http.StatusBadGateway, "AI provider request failed")
		return
	}
	writeError(w, err, fallback)
}

// Recommendations handles POST /api/ai/recommendations.
func (h *AIHandler) Recommendations(w http.ResponseWriter, r *http.Request) {
	coll, ok := h.items(w, r)
	if !ok {
		return
	}
	recs, err := h.AI.Recommend(r.Context(), coll.Items())
	if err != nil {
		aiError(w, err, "failed to get recommendations")
		return
	}
	jsonResponse(w, http.StatusOK, recs)
}

// PredictValue handles POST /api/ai/predict-value.
func (h *AIHandler) PredictValue(w http.ResponseWriter, r *http.Request) {
	var q ai.ValueQuery
	if err := decodeJSON(r, &q); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	pred, err := h.AI.PredictValue(r.Context(), q)
	if err != nil {
		aiError(w, err, "failed to predict value")
		return
	}
	jsonResponse(w, http.StatusOK, pred)
}

// Organize handles POST /api/ai/organize.
func (h *AIHandler) Organize(w http.ResponseWriter, r *http.Request) {
	coll, ok := h.items(w, r)
	if !ok {
		return
	}
	org, err := h.AI.Organize(r.Context(), coll.Items())
	if err != nil {
		aiError(w, err, "failed to organize collection")
		return
	}
	jsonResponse(w, http.StatusOK, org)
}

// Insights handles POST /api/ai/insights.
func (h *AIHandler) Insights(w http.ResponseWriter, r *http.Request) {
	coll, ok := h.items(w, r)
	if !ok {
		return
	}
	insights, err := h.AI.Insights(r.Context(), coll.Items())
	if err != nil {
		aiError(w, err, "failed to build insights")
		return
	}
	jsonResponse(w, http.StatusOK, insights)
}

// Trends handles GET /api/ai/trends.
func (h *AIHandler) Trends(w http.ResponseWriter, r *http.Request) {
	coll, ok := h.items(w, r)
	if !ok {
		return
	}
	jsonResponse(w, http.StatusOK, ai.AnalyzeTrends(coll.Items(), time.Now()))
}

// Chat handles POST /api/ai/chat.
func (h *AIHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		jsonError(w, http.StatusBadRequest, "message required")
		return
	}

	coll, ok := h.items(w, r)
	if !ok {
		return
	}
	reply, err := h.AI.Chat(r.Context(), actorOf(GetUser(r.Context())), coll, req.Message, req.Confirm || confirmed(r))
	if err != nil {
		aiError(w, err, "chat failed")
		return
	}
	jsonResponse(w, http.StatusOK, reply)
}

// ChatSuggestions handles GET /api/ai/chat/suggestions.
func (h *AIHandler) ChatSuggestions(w http.ResponseWriter, r *http.Request) {
	coll, ok := h.items(w, r)
	if !ok {
		return
	}
	jsonResponse(w, http.StatusOK, map[string][]string{"suggestions": ai.Suggestions(coll.Items())})
}

// ClearChat handles DELETE /api/ai/chat/history.
func (h *AIHandler) ClearChat(w http.ResponseWriter, r *http.Request) {
	if err := h.AI.ClearHistory(r.Context(), GetUser(r.Context()).ID); err != nil {
		writeError(w, err, "failed to clear chat history")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "chat history cleared"})
}

// AnalyzeImage handles POST /api/ai/analyze-image with a multipart
// "image" field.
func (h *AIHandler) AnalyzeImage(w http.ResponseWriter, r *http.Request) {
	file, ok := formFile(w, r, "image", imaging.MaxUploadSize)
	if !ok {
		return
	}
	defer file.Close()

	analysis, err := h.AI.AnalyzeImage(r.Context(), file)
	if err != nil {
		aiError(w, err, "failed to analyze image")
		return
	}
	jsonResponse(w, http.StatusOK, analysis)
}

// FindSimilar handles POST /api/ai/find-similar.
func (h *AIHandler) FindSimilar(w http.ResponseWriter, r *http.Request) {
	var req similarRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		jsonError(w, http.StatusBadRequest, "name required")
		return
	}

	coll, ok := h.items(w, r)
	if !ok {
		return
	}
	similar := ai.FindSimilar(req.Name, coll.Items())
	if similar == nil {
		similar = []ai.Similar{}
	}
	jsonResponse(w, http.StatusOK, map[string]any{
		"similar":       similar,
		"hasDuplicates": len(similar) > 0,
	})
}
