package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/erazemk/ifrit/internal/ai"
	"github.com/erazemk/ifrit/internal/approval"
	"github.com/erazemk/ifrit/internal/auth"
	"github.com/erazemk/ifrit/internal/billing"
	"github.com/erazemk/ifrit/internal/db"
	"github.com/erazemk/ifrit/internal/inventory"
	"github.com/erazemk/ifrit/internal/model"
	"github.com/erazemk/ifrit/internal/notify"
	"github.com/erazemk/ifrit/internal/realtime"
	"github.com/erazemk/ifrit/internal/store"
)

const (
	testJWTSecret     = "test-secret"
	testWebhookSecret = "whsec_test"
	testPassword      = "password1"
)

type testServer struct {
	*httptest.Server
	db    *sql.DB
	admin string
}

type fakeCompleter struct {
	answer string
}

func (f *fakeCompleter) Name() string { return "fake" }

func (f *fakeCompleter) Complete(context.Context, ai.Request) (string, error) {
	return f.answer, nil
}

func setupTestServer(t *testing.T, opts ...func(*Deps)) *testServer {
	t.Helper()
	database := db.NewTestDB(t)
	log := zaptest.NewLogger(t)

	hub := realtime.NewHub(log)
	t.Cleanup(hub.Close)
	notes := notify.NewCenter(database, hub, log)

	var approvals *approval.Service
	registry := inventory.NewRegistry(func(owner int64) inventory.Config {
		return inventory.Config{
			Storage:  store.KV{DB: database, Namespace: store.UserNamespace(owner)},
			Logger:   log,
			Guards:   inventory.DefaultGuards(approvals),
			Notifier: hub,
			Features: inventory.Features{Lottery: true, Achievements: true},
			Seed:     func() []model.Item { return []model.Item{} },
		}
	})
	approvals = approval.New(database, registry, notes, log)

	deps := Deps{
		DB:        database,
		JWTSecret: testJWTSecret,
		Log:       log,
		Registry:  registry,
		Approval:  approvals,
		Notes:     notes,
		Hub:       hub,
		Billing:   billing.NewProcessor(database, testWebhookSecret, log),
		Metrics:   true,
	}
	for _, o := range opts {
		o(&deps)
	}

	server := httptest.NewServer(NewRouter(deps))
	t.Cleanup(server.Close)

	ts := &testServer{Server: server, db: database}
	ts.createUser(t, "admin", model.RoleAdmin)
	ts.admin = ts.login(t, "admin")
	return ts
}

func (ts *testServer) createUser(t *testing.T, username, role string) *model.User {
	t.Helper()
	hash, err := auth.HashPassword(testPassword)
	require.NoError(t, err)
	u, err := store.CreateUser(context.Background(), ts.db, username, hash, role)
	require.NoError(t, err)
	return u
}

func (ts *testServer) login(t *testing.T, username string) string {
	t.Helper()
	resp := ts.do(t, "POST", "/api/auth/login", "", map[string]string{"username": username, "password": testPassword})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out loginResponse
	decode(t, resp, &out)
	require.NotEmpty(t, out.Token)
	return out.Token
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, ts.URL+path, r)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func (ts *testServer) addItem(t *testing.T, token, name, category string) model.Item {
	t.Helper()
	resp := ts.do(t, "POST", "/api/items", token, model.Item{Name: name, Category: category, Rarity: 3})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var res inventory.Result
	decode(t, resp, &res)
	require.NotNil(t, res.Item)
	return *res.Item
}

func TestLoginEndpoint(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.do(t, "POST", "/api/auth/login", "", map[string]string{"username": "admin", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = ts.do(t, "POST", "/api/auth/login", "", map[string]string{"username": "nobody", "password": testPassword})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = ts.do(t, "GET", "/api/auth/me", ts.admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var me struct {
		User        model.User         `json:"user"`
		Permissions []model.Permission `json:"permissions"`
	}
	decode(t, resp, &me)
	assert.Equal(t, "admin", me.User.Username)
	assert.Contains(t, me.Permissions, model.PermResetDatabase)
	assert.NotNil(t, me.User.LastLogin)
}

func TestRegister(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.do(t, "POST", "/api/auth/register", "", map[string]string{"username": "zidane", "password": "short"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = ts.do(t, "POST", "/api/auth/register", "", map[string]string{"username": "zidane", "password": testPassword})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var out loginResponse
	decode(t, resp, &out)
	assert.Equal(t, model.RoleViewer, out.User.Role, "an admin already exists")
	assert.NotEmpty(t, out.Token)

	resp = ts.do(t, "POST", "/api/auth/register", "", map[string]string{"username": "zidane", "password": testPassword})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = ts.do(t, "GET", "/api/notifications", ts.admin, nil)
	var notes []model.Notification
	decode(t, resp, &notes)
	require.Len(t, notes, 1)
	assert.Equal(t, model.NotificationNewUser, notes[0].Type)
}

func TestUnauthenticatedAccess(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.do(t, "GET", "/api/items", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = ts.do(t, "GET", "/api/items", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = ts.do(t, "GET", "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLogoutRevokesToken(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.do(t, "POST", "/api/auth/logout", ts.admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = ts.do(t, "GET", "/api/items", ts.admin, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestDeletedUserLosesAccess(t *testing.T) {
	ts := setupTestServer(t)
	u := ts.createUser(t, "vivi", model.RoleEditor)
	token := ts.login(t, "vivi")

	resp := ts.do(t, "DELETE", "/api/users/"+itoa(u.ID), ts.admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = ts.do(t, "GET", "/api/items", token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestItemsAPIFlow(t *testing.T) {
	ts := setupTestServer(t)

	ff7 := ts.addItem(t, ts.admin, "Final Fantasy VII", model.CategoryGames)
	ts.addItem(t, ts.admin, "Ultimania Omega", model.CategoryBooks)
	ts.addItem(t, ts.admin, "Final Fantasy IX", model.CategoryGames)

	resp := ts.do(t, "POST", "/api/items", ts.admin, model.Item{Name: " ", Category: model.CategoryGames})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = ts.do(t, "GET", "/api/items?category=Jogos&sort=name-asc", ts.admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var items []model.Item
	decode(t, resp, &items)
	require.Len(t, items, 2)
	assert.Equal(t, "Final Fantasy IX", items[0].Name)

	resp = ts.do(t, "GET", "/api/items?q=ultimania", ts.admin, nil)
	decode(t, resp, &items)
	require.Len(t, items, 1)

	resp = ts.do(t, "GET", "/api/items?sort=bogus", ts.admin, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = ts.do(t, "PUT", "/api/items/"+itoa(ff7.ID), ts.admin, map[string]any{"platform": "PS1", "rarity": 5})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var res inventory.Result
	decode(t, resp, &res)
	assert.Equal(t, "PS1", res.Item.Platform)
	assert.Equal(t, 5, res.Item.Rarity)

	resp = ts.do(t, "PUT", "/api/items/"+itoa(ff7.ID), ts.admin, map[string]any{"rarity": 9})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = ts.do(t, "PUT", "/api/items/"+itoa(ff7.ID)+"/owned", ts.admin, map[string]bool{"value": true})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &res)
	require.NotNil(t, res.Item.Owned)
	assert.True(t, *res.Item.Owned)

	resp = ts.do(t, "DELETE", "/api/items/"+itoa(ff7.ID), ts.admin, nil)
	assert.Equal(t, http.StatusPreconditionRequired, resp.StatusCode)

	resp = ts.do(t, "DELETE", "/api/items/"+itoa(ff7.ID)+"?confirm=true", ts.admin, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = ts.do(t, "GET", "/api/items/"+itoa(ff7.ID), ts.admin, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = ts.do(t, "GET", "/api/collection/stats", ts.admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var stats inventory.Stats
	decode(t, resp, &stats)
	assert.Equal(t, 2, stats.Total)
}

func TestCollectionsArePerUser(t *testing.T) {
	ts := setupTestServer(t)
	ts.createUser(t, "steiner", model.RoleEditor)
	editor := ts.login(t, "steiner")

	ts.addItem(t, ts.admin, "Final Fantasy VI", model.CategoryGames)

	resp := ts.do(t, "GET", "/api/items", editor, nil)
	var items []model.Item
	decode(t, resp, &items)
	assert.Empty(t, items)
}

func TestRoleBasedAccess(t *testing.T) {
	ts := setupTestServer(t)
	ts.createUser(t, "quina", model.RoleViewer)
	viewer := ts.login(t, "quina")

	resp := ts.do(t, "POST", "/api/items", viewer, model.Item{Name: "Test", Category: model.CategoryMerch})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = ts.do(t, "GET", "/api/users", viewer, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = ts.do(t, "POST", "/api/collection/reset?confirm=true", viewer, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = ts.do(t, "POST", "/api/collection/import", viewer, []model.Item{})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = ts.do(t, "GET", "/api/collection/export", viewer, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = ts.do(t, "GET", "/api/pending", viewer, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestContributorApprovalFlow(t *testing.T) {
	ts := setupTestServer(t)
	ts.createUser(t, "eiko", model.RoleContributor)
	contrib := ts.login(t, "eiko")

	resp := ts.do(t, "POST", "/api/items", contrib, model.Item{Name: "Moogle Plush", Category: model.CategoryMerch})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	var queued struct {
		Pending model.PendingItem `json:"pending"`
	}
	decode(t, resp, &queued)
	require.NotEmpty(t, queued.Pending.ID)

	resp = ts.do(t, "GET", "/api/pending", ts.admin, nil)
	var pending []model.PendingItem
	decode(t, resp, &pending)
	require.Len(t, pending, 1)

	resp = ts.do(t, "POST", "/api/pending/"+queued.Pending.ID+"/approve", ts.admin, nil)
	assert.Equal(t, http.StatusPreconditionRequired, resp.StatusCode)

	resp = ts.do(t, "POST", "/api/pending/"+queued.Pending.ID+"/approve", contrib, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = ts.do(t, "POST", "/api/pending/"+queued.Pending.ID+"/approve?confirm=true", ts.admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = ts.do(t, "GET", "/api/items", contrib, nil)
	var items []model.Item
	decode(t, resp, &items)
	require.Len(t, items, 1)
	assert.Equal(t, "Moogle Plush", items[0].Name)

	resp = ts.do(t, "GET", "/api/notifications?unread=true", contrib, nil)
	var notes []model.Notification
	decode(t, resp, &notes)
	require.Len(t, notes, 1)
	assert.Equal(t, model.NotificationItemApproved, notes[0].Type)

	resp = ts.do(t, "PUT", "/api/notifications/read-all", contrib, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = ts.do(t, "GET", "/api/notifications?unread=true", contrib, nil)
	decode(t, resp, &notes)
	assert.Empty(t, notes)
}

func TestImportExport(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.do(t, "POST", "/api/collection/import", ts.admin, map[string]string{"not": "an array"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	payload := []model.Item{
		{ID: 7, Name: "Final Fantasy Tactics", Category: model.CategoryGames},
		{Name: "Ifrit Figure", Category: model.CategoryMerch},
	}
	resp = ts.do(t, "POST", "/api/collection/import", ts.admin, payload)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var res inventory.Result
	decode(t, resp, &res)
	assert.Equal(t, 2, res.Count)

	resp = ts.do(t, "GET", "/api/collection/export", ts.admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "ifrit-inventory-backup-")
	var exported []model.Item
	decode(t, resp, &exported)
	require.Len(t, exported, 2)
	assert.Equal(t, int64(7), exported[0].ID)
	assert.NotZero(t, exported[1].ID, "missing ids are backfilled")

	resp = ts.do(t, "GET", "/api/activity", ts.admin, nil)
	var entries []model.Activity
	decode(t, resp, &entries)
	require.NotEmpty(t, entries)
	assert.Equal(t, model.ActivityImport, entries[0].Action)
}

func TestImportMultipart(t *testing.T) {
	ts := setupTestServer(t)

	body, contentType := multipartBody(t, "file", "backup.json", []byte(`[{"name":"Chocobo Card","category":"Cartas"}]`))
	req, err := http.NewRequest("POST", ts.URL+"/api/collection/import", body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+ts.admin)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var res inventory.Result
	decode(t, resp, &res)
	assert.Equal(t, 1, res.Count)
}

func TestResetRequiresConfirmation(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.do(t, "POST", "/api/collection/reset", ts.admin, nil)
	assert.Equal(t, http.StatusPreconditionRequired, resp.StatusCode)

	resp = ts.do(t, "POST", "/api/collection/reset?confirm=true", ts.admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var res inventory.Result
	decode(t, resp, &res)
	assert.Equal(t, len(inventory.SampleData()), res.Count)
}

func TestImageUpload(t *testing.T) {
	ts := setupTestServer(t)
	item := ts.addItem(t, ts.admin, "Final Fantasy VIII", model.CategoryGames)

	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for x := range 32 {
		img.Set(x, x, color.RGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	body, contentType := multipartBody(t, "image", "cover.png", buf.Bytes())
	req, err := http.NewRequest("PUT", ts.URL+"/api/items/"+itoa(item.ID)+"/image", body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+ts.admin)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = ts.do(t, "GET", "/api/items/"+itoa(item.ID)+"/image", ts.admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/jpeg", resp.Header.Get("Content-Type"))

	resp = ts.do(t, "DELETE", "/api/items/"+itoa(item.ID)+"/image", ts.admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = ts.do(t, "GET", "/api/items/"+itoa(item.ID)+"/image", ts.admin, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestLotteryAndAchievements(t *testing.T) {
	ts := setupTestServer(t)
	item := ts.addItem(t, ts.admin, "Prize A", model.CategoryLotteryXVI)

	resp := ts.do(t, "GET", "/api/collection/lottery", ts.admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var progress []inventory.Progress
	decode(t, resp, &progress)
	require.Len(t, progress, 1)
	assert.Equal(t, model.CategoryLotteryXVI, progress[0].Category)

	resp = ts.do(t, "GET", "/api/items/"+itoa(item.ID), ts.admin, nil)
	var got map[string]any
	decode(t, resp, &got)
	assert.Contains(t, got, "prizeLevel")

	resp = ts.do(t, "GET", "/api/collection/achievements", ts.admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var statuses []inventory.AchievementStatus
	decode(t, resp, &statuses)
	assert.Len(t, statuses, len(inventory.Achievements))
}

func TestAIDisabled(t *testing.T) {
	ts := setupTestServer(t)
	ts.addItem(t, ts.admin, "Final Fantasy X", model.CategoryGames)

	resp := ts.do(t, "POST", "/api/ai/recommendations", ts.admin, nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp = ts.do(t, "POST", "/api/ai/find-similar", ts.admin, map[string]string{"name": "final fantasy x"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var similar struct {
		HasDuplicates bool `json:"hasDuplicates"`
	}
	decode(t, resp, &similar)
	assert.True(t, similar.HasDuplicates)

	resp = ts.do(t, "GET", "/api/ai/trends", ts.admin, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAIUsageLimit(t *testing.T) {
	fake := &fakeCompleter{answer: `{"estimatedValue": {"min": 80, "max": 150, "average": 120}, "trend": "rising", "reasoning": "scarce", "investmentPotential": "high"}`}
	ts := setupTestServer(t, func(d *Deps) {
		d.AI = ai.NewService(fake, nil, d.Log)
	})
	ts.createUser(t, "kuja", model.RoleEditor)
	token := ts.login(t, "kuja")

	limit := model.LimitsFor(model.PlanFree).AIRequests
	for range limit {
		resp := ts.do(t, "POST", "/api/ai/predict-value", token, map[string]string{"itemName": "Final Fantasy VII Black Label"})
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp := ts.do(t, "POST", "/api/ai/predict-value", token, map[string]string{"itemName": "Final Fantasy VII Black Label"})
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	// Local features stay available.
	resp = ts.do(t, "GET", "/api/ai/chat/suggestions", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestStripeWebhook(t *testing.T) {
	ts := setupTestServer(t)
	u := ts.createUser(t, "cloud", model.RoleEditor)
	require.NoError(t, store.UpdateSubscription(context.Background(), ts.db, u.ID, model.Subscription{
		Plan: model.PlanFree, Status: model.SubscriptionActive, StripeCustomerID: "cus_42",
	}))

	payload := []byte(`{"id":"evt_1","type":"customer.subscription.updated","data":{"object":{"id":"sub_1","customer":"cus_42","status":"active","current_period_end":1900000000,"metadata":{"plan":"premium"}}}}`)

	post := func(signature string) *http.Response {
		req, err := http.NewRequest("POST", ts.URL+"/api/webhooks/stripe", bytes.NewReader(payload))
		require.NoError(t, err)
		req.Header.Set(billing.SignatureHeader, signature)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		t.Cleanup(func() { resp.Body.Close() })
		return resp
	}

	assert.Equal(t, http.StatusBadRequest, post("t=1,v1=bad").StatusCode)
	require.Equal(t, http.StatusOK, post(billing.Sign(payload, testWebhookSecret, time.Now())).StatusCode)

	got, err := store.GetUser(context.Background(), ts.db, u.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PlanPremium, got.Subscription.Plan)
}

func TestStripeWebhookNotConfigured(t *testing.T) {
	ts := setupTestServer(t, func(d *Deps) { d.Billing = nil })
	resp := ts.do(t, "POST", "/api/webhooks/stripe", "", map[string]string{})
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestBackupNotConfigured(t *testing.T) {
	ts := setupTestServer(t)
	resp := ts.do(t, "POST", "/api/collection/backups", ts.admin, nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestUsersAdmin(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.do(t, "POST", "/api/users", ts.admin, map[string]string{"username": "freya", "password": testPassword, "role": "bogus"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = ts.do(t, "POST", "/api/users", ts.admin, map[string]string{"username": "freya", "password": testPassword, "role": model.RoleContributor})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var u model.User
	decode(t, resp, &u)

	resp = ts.do(t, "PUT", "/api/users/"+itoa(u.ID), ts.admin, map[string]string{"role": model.RoleEditor, "plan": model.PlanBasic})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &u)
	assert.Equal(t, model.RoleEditor, u.Role)
	assert.Equal(t, model.PlanBasic, u.Subscription.Plan)

	me := ts.do(t, "GET", "/api/auth/me", ts.admin, nil)
	var self struct {
		User model.User `json:"user"`
	}
	decode(t, me, &self)
	resp = ts.do(t, "DELETE", "/api/users/"+itoa(self.User.ID), ts.admin, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := setupTestServer(t)
	resp := ts.do(t, "GET", "/metrics", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(data), "ifrit_http_requests_total")
}

func TestWebSocketReceivesEvents(t *testing.T) {
	ts := setupTestServer(t)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/ws?token=" + ts.admin
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg realtime.Message
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, realtime.TypeWelcome, msg.Type)

	ts.addItem(t, ts.admin, "Final Fantasy XII", model.CategoryGames)
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, inventory.EventItemAdded, msg.Type)
}

func multipartBody(t *testing.T, field, filename string, data []byte) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
