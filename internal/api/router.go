package api

import (
	"database/sql"
	"net/http"

	"go.uber.org/zap"

	"github.com/erazemk/ifrit/internal/ai"
	"github.com/erazemk/ifrit/internal/approval"
	"github.com/erazemk/ifrit/internal/backup"
	"github.com/erazemk/ifrit/internal/billing"
	"github.com/erazemk/ifrit/internal/inventory"
	"github.com/erazemk/ifrit/internal/metrics"
	"github.com/erazemk/ifrit/internal/model"
	"github.com/erazemk/ifrit/internal/notify"
	"github.com/erazemk/ifrit/internal/realtime"
)

// Deps are the services the router dispatches to. DB, JWTSecret, Registry
// and Approval are required; a nil AI, Backup or Billing leaves those
// endpoints answering 503, and a nil Hub disables the event stream.
type Deps struct {
	DB        *sql.DB
	JWTSecret string
	Log       *zap.Logger
	Registry  *inventory.Registry
	Approval  *approval.Service
	Notes     *notify.Center
	AI        *ai.Service
	Hub       *realtime.Hub
	Billing   *billing.Processor
	Backup    *backup.Service
	Metrics   bool
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(d Deps) http.Handler {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.AI == nil {
		d.AI = ai.NewService(nil, nil, d.Log)
	}
	if d.Backup == nil {
		d.Backup = backup.New(nil, d.Log)
	}

	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: d.DB, JWTSecret: d.JWTSecret, Notes: d.Notes}
	usersHandler := &UsersHandler{DB: d.DB, Registry: d.Registry}
	itemsHandler := &ItemsHandler{DB: d.DB, Registry: d.Registry}
	pendingHandler := &PendingHandler{Approval: d.Approval}
	notesHandler := &NotificationsHandler{DB: d.DB}
	aiHandler := &AIHandler{AI: d.AI, Registry: d.Registry}
	backupHandler := &BackupHandler{Backup: d.Backup, Registry: d.Registry}
	webhookHandler := &WebhookHandler{Billing: d.Billing}

	authMW := AuthMiddleware(d.JWTSecret, d.DB)
	requireAdmin := RequireRole(model.RoleAdmin)
	metered := AIUsageMiddleware(d.DB, d.AI)
	can := RequirePermission

	// Public.
	mux.HandleFunc("GET /api/health", Health)
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/webhooks/stripe", webhookHandler.Stripe)
	mux.HandleFunc("GET /api/categories", itemsHandler.Categories)
	if d.Metrics {
		mux.Handle("GET /metrics", metrics.Handler())
	}

	// Account.
	mux.Handle("GET /api/auth/me", authMW(http.HandlerFunc(authHandler.Me)))
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))

	// Users (admin only).
	mux.Handle("GET /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.List))))
	mux.Handle("POST /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.Create))))
	mux.Handle("GET /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Get))))
	mux.Handle("PUT /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Update))))
	mux.Handle("PUT /api/users/{id}/password", authMW(requireAdmin(http.HandlerFunc(usersHandler.ResetPassword))))
	mux.Handle("DELETE /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Delete))))

	// Items. Mutation permissions are enforced by the collection guards,
	// which also know about own items.
	mux.Handle("GET /api/items", authMW(can(model.PermViewItems)(http.HandlerFunc(itemsHandler.List))))
	mux.Handle("POST /api/items", authMW(http.HandlerFunc(itemsHandler.Create)))
	mux.Handle("GET /api/items/{id}", authMW(can(model.PermViewItems)(http.HandlerFunc(itemsHandler.Get))))
	mux.Handle("PUT /api/items/{id}", authMW(http.HandlerFunc(itemsHandler.Update)))
	mux.Handle("DELETE /api/items/{id}", authMW(http.HandlerFunc(itemsHandler.Delete)))
	mux.Handle("PUT /api/items/{id}/owned", authMW(http.HandlerFunc(itemsHandler.SetOwned)))
	mux.Handle("PUT /api/items/{id}/sealed", authMW(http.HandlerFunc(itemsHandler.SetSealed)))
	mux.Handle("PUT /api/items/{id}/image", authMW(http.HandlerFunc(itemsHandler.UploadImage)))
	mux.Handle("DELETE /api/items/{id}/image", authMW(http.HandlerFunc(itemsHandler.DeleteImage)))
	mux.Handle("GET /api/items/{id}/image", authMW(can(model.PermViewItems)(http.HandlerFunc(itemsHandler.GetImage))))

	// Whole collection.
	mux.Handle("GET /api/collection/export", authMW(http.HandlerFunc(itemsHandler.Export)))
	mux.Handle("POST /api/collection/import", authMW(http.HandlerFunc(itemsHandler.Import)))
	mux.Handle("POST /api/collection/reset", authMW(http.HandlerFunc(itemsHandler.Reset)))
	mux.Handle("GET /api/collection/stats", authMW(can(model.PermViewStats)(http.HandlerFunc(itemsHandler.Stats))))
	mux.Handle("GET /api/collection/dashboard", authMW(can(model.PermViewStats)(http.HandlerFunc(itemsHandler.Dashboard))))
	mux.Handle("GET /api/collection/lottery", authMW(can(model.PermViewLottery)(http.HandlerFunc(itemsHandler.Lottery))))
	mux.Handle("GET /api/collection/achievements", authMW(can(model.PermViewAchievements)(http.HandlerFunc(itemsHandler.Achievements))))
	mux.Handle("GET /api/collection/platforms", authMW(can(model.PermViewItems)(http.HandlerFunc(itemsHandler.Platforms))))
	mux.Handle("POST /api/collection/backups", authMW(can(model.PermExportData)(http.HandlerFunc(backupHandler.Create))))
	mux.Handle("GET /api/collection/backups", authMW(can(model.PermExportData)(http.HandlerFunc(backupHandler.List))))

	// Approval queue. Reviewing is checked by the approval service.
	mux.Handle("GET /api/pending", authMW(http.HandlerFunc(pendingHandler.List)))
	mux.Handle("GET /api/pending/count", authMW(requireAdmin(http.HandlerFunc(pendingHandler.Count))))
	mux.Handle("POST /api/pending/approve-all", authMW(http.HandlerFunc(pendingHandler.ApproveAll)))
	mux.Handle("POST /api/pending/{id}/approve", authMW(http.HandlerFunc(pendingHandler.Approve)))
	mux.Handle("POST /api/pending/{id}/reject", authMW(http.HandlerFunc(pendingHandler.Reject)))

	// Notifications and activity.
	mux.Handle("GET /api/notifications", authMW(http.HandlerFunc(notesHandler.List)))
	mux.Handle("PUT /api/notifications/read-all", authMW(http.HandlerFunc(notesHandler.MarkAllRead)))
	mux.Handle("PUT /api/notifications/{id}/read", authMW(http.HandlerFunc(notesHandler.MarkRead)))
	mux.Handle("GET /api/activity", authMW(http.HandlerFunc(notesHandler.Activity)))

	// AI. Only routes that call the model are metered.
	mux.Handle("POST /api/ai/recommendations", authMW(metered(http.HandlerFunc(aiHandler.Recommendations))))
	mux.Handle("POST /api/ai/predict-value", authMW(metered(http.HandlerFunc(aiHandler.PredictValue))))
	mux.Handle("POST /api/ai/organize", authMW(metered(http.HandlerFunc(aiHandler.Organize))))
	mux.Handle("POST /api/ai/insights", authMW(metered(http.HandlerFunc(aiHandler.Insights))))
	mux.Handle("POST /api/ai/chat", authMW(metered(http.HandlerFunc(aiHandler.Chat))))
	mux.Handle("POST /api/ai/analyze-image", authMW(metered(http.HandlerFunc(aiHandler.AnalyzeImage))))
	mux.Handle("GET /api/ai/trends", authMW(can(model.PermViewStats)(http.HandlerFunc(aiHandler.Trends))))
	mux.Handle("GET /api/ai/chat/suggestions", authMW(http.HandlerFunc(aiHandler.ChatSuggestions)))
	mux.Handle("DELETE /api/ai/chat/history", authMW(http.HandlerFunc(aiHandler.ClearChat)))
	mux.Handle("POST /api/ai/find-similar", authMW(http.HandlerFunc(aiHandler.FindSimilar)))

	// Realtime events.
	if d.Hub != nil {
		rt := &RealtimeHandler{Hub: d.Hub}
		mux.Handle("GET /api/ws", authMW(http.HandlerFunc(rt.Serve)))
	}

	return LoggingMiddleware(d.Log)(mux)
}
