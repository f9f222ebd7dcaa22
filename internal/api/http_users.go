package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"ows/internal/auth"
	"ows/internal/entity"
	"ows/internal/rbac"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// parseIDParam reads a positive integer path parameter, replying 400 itself
// when the value is malformed.
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	raw := strings.TrimSpace(c.Param(name))
	value, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || value == 0 {
		BadRequest(c, ErrCodeInvalidRequest, "invalid "+name)
		return 0, false
	}
	return uint(value), true
}

func (h *HTTPHandler) ListUsers(c *gin.Context) {
	var params entity.UserQuery
	if err := c.ShouldBindQuery(&params); err != nil {
		InvalidPayload(c)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	users, meta, err := h.repo.ListUsers(ctx, &params)
	if err != nil {
		logrus.WithError(err).Error("failed to list users")
		InternalError(c, "failed to list users")
		return
	}

	summaries := make([]entity.UserSummary, 0, len(users))
	for i := range users {
		summaries = append(summaries, makeUserSummary(&users[i]))
	}
	c.JSON(http.StatusOK, entity.UserListResponse{Users: summaries, Meta: meta})
}

func (h *HTTPHandler) CreateUser(c *gin.Context) {
	var req entity.UserCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	role := strings.TrimSpace(req.Role)
	switch role {
	case entity.UserRoleAdmin, entity.UserRoleEditor, entity.UserRoleUser:
	default:
		BadRequest(c, ErrCodeInvalidRequest, "unknown role")
		return
	}
	if err := auth.ValidatePassword(req.Password); err != nil {
		BadRequest(c, ErrCodeInvalidRequest, err.Error())
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		logrus.WithError(err).Error("failed to hash password")
		InternalError(c, "failed to create user")
		return
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	user := &entity.DbUser{
		Username:     strings.TrimSpace(req.Username),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hash,
		Role:         role,
		IsActive:     isActive,
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			Conflict(c, ErrCodeEmailExists, "username or email already registered")
			return
		}
		logrus.WithError(err).Error("failed to create user")
		InternalError(c, "failed to create user")
		return
	}
	c.JSON(http.StatusCreated, makeUserSummary(user))
}

func (h *HTTPHandler) UpdateUser(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req entity.UserUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	updates := make(map[string]interface{})
	if req.Email != nil {
		updates["email"] = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.Role != nil {
		role := strings.TrimSpace(*req.Role)
		switch role {
		case entity.UserRoleAdmin, entity.UserRoleEditor, entity.UserRoleUser:
		default:
			BadRequest(c, ErrCodeInvalidRequest, "unknown role")
			return
		}
		updates["role"] = role
	}
	if req.Password != nil {
		if err := auth.ValidatePassword(*req.Password); err != nil {
			BadRequest(c, ErrCodeInvalidRequest, err.Error())
			return
		}
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			logrus.WithError(err).Error("failed to hash password")
			InternalError(c, "failed to update user")
			return
		}
		updates["password_hash"] = hash
	}
	if req.Avatar != nil {
		updates["avatar"] = strings.TrimSpace(*req.Avatar)
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if _, err := h.repo.GetUserByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodeUserNotFound, "user not found")
			return
		}
		logrus.WithError(err).Error("failed to load user")
		InternalError(c, "failed to update user")
		return
	}

	if err := h.repo.UpdateUser(ctx, id, updates); err != nil {
		logrus.WithError(err).WithField("user_id", id).Error("failed to update user")
		InternalError(c, "failed to update user")
		return
	}

	// Tier changes alter the implicit grant set.
	if _, ok := updates["role"]; ok {
		if err := h.perms.InvalidateUser(ctx, id); err != nil {
			logrus.WithError(err).WithField("user_id", id).Warn("failed to invalidate permissions")
		}
	}

	user, err := h.repo.GetUserByID(ctx, id)
	if err != nil {
		logrus.WithError(err).Error("failed to reload user")
		InternalError(c, "failed to update user")
		return
	}
	c.JSON(http.StatusOK, makeUserSummary(user))
}

func (h *HTTPHandler) DeleteUser(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	current := CurrentUser(c)
	if current != nil && current.ID == id {
		BadRequest(c, ErrCodeCannotDeleteSelf, "cannot delete your own account")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.repo.DeleteUser(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodeUserNotFound, "user not found")
			return
		}
		logrus.WithError(err).WithField("user_id", id).Error("failed to delete user")
		InternalError(c, "failed to delete user")
		return
	}

	if err := h.perms.InvalidateUser(ctx, id); err != nil {
		logrus.WithError(err).WithField("user_id", id).Warn("failed to invalidate permissions")
	}
	c.Status(http.StatusNoContent)
}

// ListUserRoles returns a user's role assignments.
func (h *HTTPHandler) ListUserRoles(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	assignments, err := h.repo.ListUserRoles(ctx, id)
	if err != nil {
		logrus.WithError(err).WithField("user_id", id).Error("failed to list user roles")
		InternalError(c, "failed to list user roles")
		return
	}

	now := time.Now().UTC()
	summaries := make([]entity.UserRoleSummary, 0, len(assignments))
	for _, assignment := range assignments {
		if assignment.IsExpired(now) {
			continue
		}
		summary := entity.UserRoleSummary{
			AssignedAt: assignment.AssignedAt,
			ExpiresAt:  assignment.ExpiresAt,
		}
		if assignment.Role != nil {
			summary.RoleCode = assignment.Role.Code
			summary.RoleName = assignment.Role.Name
		}
		summaries = append(summaries, summary)
	}
	c.JSON(http.StatusOK, gin.H{"roles": summaries})
}

// AssignUserRole grants a role to a user, optionally with an expiry.
func (h *HTTPHandler) AssignUserRole(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req entity.RoleAssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	var assignedBy *uint
	if current := CurrentUser(c); current != nil {
		assignedBy = &current.ID
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.perms.AssignRole(ctx, id, req.RoleCode, req.ExpiresAt, assignedBy); err != nil {
		switch {
		case errors.Is(err, rbac.ErrUserNotFound):
			NotFound(c, ErrCodeUserNotFound, "user not found")
		case errors.Is(err, rbac.ErrRoleNotFound):
			NotFound(c, ErrCodeRoleNotFound, "role not found")
		case errors.Is(err, rbac.ErrRoleInactive):
			BadRequest(c, ErrCodeInvalidRequest, "role is inactive")
		default:
			logrus.WithError(err).WithField("user_id", id).Error("failed to assign role")
			InternalError(c, "failed to assign role")
		}
		return
	}
	c.Status(http.StatusNoContent)
}

// RevokeUserRole removes a role from a user.
func (h *HTTPHandler) RevokeUserRole(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	roleCode := strings.TrimSpace(c.Param("role_code"))
	if roleCode == "" {
		BadRequest(c, ErrCodeInvalidRequest, "invalid role_code")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.perms.RevokeRole(ctx, id, roleCode); err != nil {
		switch {
		case errors.Is(err, rbac.ErrRoleNotFound):
			NotFound(c, ErrCodeRoleNotFound, "role not found")
		case errors.Is(err, gorm.ErrRecordNotFound):
			NotFound(c, ErrCodeNotFound, "role assignment not found")
		default:
			logrus.WithError(err).WithField("user_id", id).Error("failed to revoke role")
			InternalError(c, "failed to revoke role")
		}
		return
	}
	c.Status(http.StatusNoContent)
}
