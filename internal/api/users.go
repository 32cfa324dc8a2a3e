package api

import (
	"database/sql"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/erazemk/ifrit/internal/auth"
	"github.com/erazemk/ifrit/internal/inventory"
	"github.com/erazemk/ifrit/internal/model"
	"github.com/erazemk/ifrit/internal/store"
)

// UsersHandler handles user management endpoints (admin only).
type UsersHandler struct {
	DB       *sql.DB
	Registry *inventory.Registry
}

type createUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type updateUserRequest struct {
	Role        *string `json:"role"`
	Plan        *string `json:"plan"`
	DisplayName *string `json:"display_name"`
	Email       *string `json:"email"`
}

type resetPasswordRequest struct {
	Password string `json:"password"`
}

// List handles GET /api/users.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := store.ListUsers(r.Context(), h.DB)
	if err != nil {
		writeError(w, err, "failed to list users")
		return
	}
	if users == nil {
		users = []model.User{}
	}
	jsonResponse(w, http.StatusOK, users)
}

// Create handles POST /api/users.
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		jsonError(w, http.StatusBadRequest, "username and password required")
		return
	}
	if req.Role == "" {
		req.Role = model.RoleViewer
	}
	if !model.ValidRole(req.Role) {
		jsonError(w, http.StatusBadRequest, "invalid role")
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

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, err, "failed to hash password")
		return
	}
	user, err := store.CreateUser(r.Context(), h.DB, req.Username, hash, req.Role)
	if err != nil {
		writeError(w, err, "failed to create user")
		return
	}

	admin := GetUser(r.Context())
	_ = store.LogActivity(r.Context(), h.DB, &admin.ID, model.ActivityUserCreated,
		fmt.Sprintf("created %s (%s)", user.Username, user.Role))
	zap.L().Info("user created", zap.String("user", admin.Username), zap.String("new_user", user.Username), zap.String("role", user.Role))
	jsonResponse(w, http.StatusCreated, user)
}

// Get handles GET /api/users/{id}.
func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	user, err := store.GetUser(r.Context(), h.DB, id)
	if err != nil {
		writeError(w, err, "failed to get user")
		return
	}
	if user == nil || user.DeletedAt != nil {
		jsonError(w, http.StatusNotFound, "user not found")
		return
	}
	jsonResponse(w, http.StatusOK, user)
}

// Update handles PUT /api/users/{id}. Role, plan and profile fields are
// changed independently; omitted fields are kept.
func (h *UsersHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req updateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Role != nil && !model.ValidRole(*req.Role) {
		jsonError(w, http.StatusBadRequest, "invalid role")
		return
	}
	if req.Plan != nil && !model.ValidPlan(*req.Plan) {
		jsonError(w, http.StatusBadRequest, "invalid plan")
		return
	}

	user, err := store.GetUser(r.Context(), h.DB, id)
	if err != nil {
		writeError(w, err, "failed to get user")
		return
	}
	if user == nil || user.DeletedAt != nil {
		jsonError(w, http.StatusNotFound, "user not found")
		return
	}

	admin := GetUser(r.Context())
	if req.Role != nil && *req.Role != model.RoleAdmin && user.Role == model.RoleAdmin {
		if n, err := store.CountAdmins(r.Context(), h.DB); err == nil && n <= 1 {
			jsonError(w, http.StatusBadRequest, "cannot demote the last admin")
			return
		}
	}

	if req.Role != nil {
		if err := store.UpdateUser(r.Context(), h.DB, id, *req.Role); err != nil {
			writeError(w, err, "failed to update user")
			return
		}
		zap.L().Info("user role updated", zap.String("user", admin.Username), zap.String("target_user", user.Username), zap.String("new_role", *req.Role))
	}
	if req.Plan != nil {
		sub := user.Subscription
		sub.Plan = *req.Plan
		if err := store.UpdateSubscription(r.Context(), h.DB, id, sub); err != nil {
			writeError(w, err, "failed to update plan")
			return
		}
		zap.L().Info("user plan updated", zap.String("user", admin.Username), zap.String("target_user", user.Username), zap.String("plan", sub.Plan))
	}
	if req.DisplayName != nil || req.Email != nil {
		name, email := user.DisplayName, user.Email
		if req.DisplayName != nil {
			name = *req.DisplayName
		}
		if req.Email != nil {
			email = *req.Email
		}
		if err := store.UpdateUserProfile(r.Context(), h.DB, id, name, email); err != nil {
			writeError(w, err, "failed to update profile")
			return
		}
	}

	user, err = store.GetUser(r.Context(), h.DB, id)
	if err != nil {
		writeError(w, err, "failed to get user")
		return
	}
	jsonResponse(w, http.StatusOK, user)
}

// ResetPassword handles PUT /api/users/{id}/password.
func (h *UsersHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req resetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := model.ValidatePassword(req.Password); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	target, err := store.GetUser(r.Context(), h.DB, id)
	if err != nil {
		writeError(w, err, "failed to get user")
		return
	}
	if target == nil || target.DeletedAt != nil {
		jsonError(w, http.StatusNotFound, "user not found")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, err, "failed to hash password")
		return
	}
	if err := store.UpdateUserPassword(r.Context(), h.DB, id, hash); err != nil {
		writeError(w, err, "failed to reset password")
		return
	}

	zap.L().Info("user password reset", zap.String("user", GetUser(r.Context()).Username), zap.String("target_user", target.Username))
	jsonResponse(w, http.StatusOK, map[string]string{"message": "password reset"})
}

// Delete handles DELETE /api/users/{id}.
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	admin := GetUser(r.Context())
	if admin.ID == id {
		jsonError(w, http.StatusBadRequest, "cannot delete yourself")
		return
	}

	target, err := store.GetUser(r.Context(), h.DB, id)
	if err != nil {
		writeError(w, err, "failed to get user")
		return
	}
	if target == nil || target.DeletedAt != nil {
		jsonError(w, http.StatusNotFound, "user not found")
		return
	}

	if err := store.DeleteUser(r.Context(), h.DB, id); err != nil {
		writeError(w, err, "failed to delete user")
		return
	}
	if h.Registry != nil {
		h.Registry.Forget(id)
	}

	_ = store.LogActivity(r.Context(), h.DB, &admin.ID, model.ActivityUserDeleted, "deleted "+target.Username)
	zap.L().Info("user deleted", zap.String("user", admin.Username), zap.String("deleted_user", target.Username))
	jsonResponse(w, http.StatusOK, map[string]string{"message": "user deleted"})
}
