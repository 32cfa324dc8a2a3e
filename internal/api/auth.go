package api

import (
	"database/sql"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/erazemk/ifrit/internal/auth"
	"github.com/erazemk/ifrit/internal/model"
	"github.com/erazemk/ifrit/internal/notify"
	"github.com/erazemk/ifrit/internal/store"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	DB        *sql.DB
	JWTSecret string
	Notes     *notify.Center
}

type credentialsRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name,omitempty"`
	Email       string `json:"email,omitempty"`
}

type loginResponse struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// Register handles POST /api/auth/register. The first account becomes an
// admin; later ones start as viewers until an admin promotes them.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		jsonError(w, http.StatusBadRequest, "username and password required")
		return
	}
	if err := model.ValidatePassword(req.Password); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	existing, err := store.GetUserByUsername(r.Context(), h.DB, req.Username)
	if err != nil {
		writeError(w, err, "internal error")
		return
	}
	if existing != nil {
		jsonError(w, http.StatusConflict, "username already taken")
		return
	}

	admins, err := store.CountAdmins(r.Context(), h.DB)
	if err != nil {
		writeError(w, err, "internal error")
		return
	}
	role := model.RoleViewer
	if admins == 0 {
		role = model.RoleAdmin
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, err, "failed to hash password")
		return
	}
	user, err := store.CreateUser(r.Context(), h.DB, req.Username, hash, role)
	if err != nil {
		writeError(w, err, "failed to create user")
		return
	}
	if req.DisplayName != "" || req.Email != "" {
		if err := store.UpdateUserProfile(r.Context(), h.DB, user.ID, req.DisplayName, req.Email); err != nil {
			zap.L().Warn("saving profile", zap.Int64("user_id", user.ID), zap.Error(err))
		}
		user.DisplayName, user.Email = req.DisplayName, req.Email
	}

	_ = store.LogActivity(r.Context(), h.DB, &user.ID, model.ActivityRegister, "")
	if h.Notes != nil && role != model.RoleAdmin {
		h.Notes.ToAdmins(r.Context(), model.NotificationNewUser, "New user registered",
			fmt.Sprintf("%s created an account", user.Username),
			map[string]int64{"user_id": user.ID})
	}

	token, err := auth.GenerateToken(h.JWTSecret, user.ID, user.Username, user.Role)
	if err != nil {
		writeError(w, err, "failed to generate token")
		return
	}

	zap.L().Info("user registered", zap.String("user", user.Username), zap.String("role", user.Role))
	jsonResponse(w, http.StatusCreated, loginResponse{Token: token, User: user})
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Username == "" || req.Password == "" {
		jsonError(w, http.StatusBadRequest, "username and password required")
		return
	}

	user, err := store.GetUserByUsername(r.Context(), h.DB, req.Username)
	if err != nil {
		writeError(w, err, "internal error")
		return
	}
	var hash string
	if user != nil && user.DeletedAt == nil {
		hash = user.PasswordHash
	}
	if !auth.CheckPasswordOrDummy(hash, req.Password) {
		zap.L().Warn("login failed", zap.String("username", req.Username), zap.String("remote", r.RemoteAddr))
		jsonError(w, http.StatusUnauthorized, auth.ErrBadCredentials.Error())
		return
	}

	token, err := auth.GenerateToken(h.JWTSecret, user.ID, user.Username, user.Role)
	if err != nil {
		writeError(w, err, "failed to generate token")
		return
	}

	now := time.Now()
	if err := store.TouchLastLogin(r.Context(), h.DB, user.ID, now); err != nil {
		zap.L().Warn("recording last login", zap.Error(err))
	}
	user.LastLogin = &now
	_ = store.LogActivity(r.Context(), h.DB, &user.ID, model.ActivityLogin, "")

	zap.L().Info("user logged in", zap.String("user", user.Username), zap.String("role", user.Role))
	jsonResponse(w, http.StatusOK, loginResponse{Token: token, User: user})
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := GetUser(r.Context())
	perms := make([]model.Permission, 0)
	for _, p := range model.Permissions() {
		if model.Can(user.Role, p) {
			perms = append(perms, p)
		}
	}
	jsonResponse(w, http.StatusOK, map[string]any{
		"user":        user,
		"permissions": perms,
		"limits":      model.LimitsFor(user.Subscription.Plan),
	})
}

// ChangePassword handles PUT /api/auth/password.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user := GetUser(r.Context())

	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.CurrentPassword == "" || req.NewPassword == "" {
		jsonError(w, http.StatusBadRequest, "current and new password required")
		return
	}
	if err := model.ValidatePassword(req.NewPassword); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !auth.CheckPassword(user.PasswordHash, req.CurrentPassword) {
		jsonError(w, http.StatusUnauthorized, "current password is incorrect")
		return
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		writeError(w, err, "failed to hash password")
		return
	}

	if err := store.UpdateUserPassword(r.Context(), h.DB, user.ID, hash); err != nil {
		writeError(w, err, "failed to update password")
		return
	}

	zap.L().Info("user changed own password", zap.String("user", user.Username))
	jsonResponse(w, http.StatusOK, map[string]string{"message": "password updated"})
}

// Logout handles POST /api/auth/logout by revoking the presented token.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	expires := time.Now().Add(auth.TokenExpiry)
	if claims.ExpiresAt != nil {
		expires = claims.ExpiresAt.Time
	}
	if err := store.RevokeToken(r.Context(), h.DB, claims.ID, expires); err != nil {
		writeError(w, err, "failed to revoke token")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "logged out"})
}
