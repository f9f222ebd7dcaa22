package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"ows/internal/entity"
	"ows/internal/rbac"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ListPermissionCatalog returns every grantable permission.
func (h *HTTPHandler) ListPermissionCatalog(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	perms, err := h.repo.ListPermissions(ctx)
	if err != nil {
		logrus.WithError(err).Error("failed to list permissions")
		InternalError(c, "failed to list permissions")
		return
	}
	c.JSON(http.StatusOK, gin.H{"permissions": perms})
}

func (h *HTTPHandler) ListRoles(c *gin.Context) {
	includeInactive := strings.EqualFold(c.Query("include_inactive"), "true")

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	roles, err := h.repo.ListRoles(ctx, includeInactive)
	if err != nil {
		logrus.WithError(err).Error("failed to list roles")
		InternalError(c, "failed to list roles")
		return
	}

	summaries := make([]entity.RoleSummary, 0, len(roles))
	for i := range roles {
		summaries = append(summaries, makeRoleSummary(&roles[i]))
	}
	c.JSON(http.StatusOK, gin.H{"roles": summaries})
}

func (h *HTTPHandler) GetRole(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	role, err := h.repo.GetRoleByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodeRoleNotFound, "role not found")
			return
		}
		logrus.WithError(err).Error("failed to load role")
		InternalError(c, "failed to load role")
		return
	}
	c.JSON(http.StatusOK, makeRoleSummary(role))
}

func (h *HTTPHandler) CreateRole(c *gin.Context) {
	var req entity.RoleCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	code := strings.TrimSpace(req.Code)
	if code == "" {
		MissingField(c, "code")
		return
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	role := &entity.DbRole{
		Code:        code,
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		IsActive:    isActive,
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.repo.CreateRole(ctx, role); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			Conflict(c, ErrCodeDuplicateEntry, "role code already exists")
			return
		}
		logrus.WithError(err).Error("failed to create role")
		InternalError(c, "failed to create role")
		return
	}
	c.JSON(http.StatusCreated, makeRoleSummary(role))
}

func (h *HTTPHandler) UpdateRole(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req entity.RoleUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	role, err := h.repo.GetRoleByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodeRoleNotFound, "role not found")
			return
		}
		logrus.WithError(err).Error("failed to load role")
		InternalError(c, "failed to update role")
		return
	}

	updates := make(map[string]interface{})
	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		updates["description"] = strings.TrimSpace(*req.Description)
	}
	if req.IsActive != nil {
		if role.IsSystem && !*req.IsActive {
			BadRequest(c, ErrCodeSystemRole, "system roles cannot be deactivated")
			return
		}
		updates["is_active"] = *req.IsActive
	}

	if err := h.repo.UpdateRole(ctx, id, updates); err != nil {
		logrus.WithError(err).WithField("role_id", id).Error("failed to update role")
		InternalError(c, "failed to update role")
		return
	}

	// Deactivation changes effective grants for every holder.
	if _, ok := updates["is_active"]; ok {
		if err := h.perms.InvalidateAll(ctx); err != nil {
			logrus.WithError(err).Warn("failed to flush permission cache")
		}
	}

	updated, err := h.repo.GetRoleByID(ctx, id)
	if err != nil {
		logrus.WithError(err).Error("failed to reload role")
		InternalError(c, "failed to update role")
		return
	}
	c.JSON(http.StatusOK, makeRoleSummary(updated))
}

func (h *HTTPHandler) DeleteRole(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	role, err := h.repo.GetRoleByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodeRoleNotFound, "role not found")
			return
		}
		logrus.WithError(err).Error("failed to load role")
		InternalError(c, "failed to delete role")
		return
	}
	if role.IsSystem {
		BadRequest(c, ErrCodeSystemRole, "system roles cannot be deleted")
		return
	}

	if err := h.repo.DeleteRole(ctx, id); err != nil {
		logrus.WithError(err).WithField("role_id", id).Error("failed to delete role")
		InternalError(c, "failed to delete role")
		return
	}

	if err := h.perms.InvalidateAll(ctx); err != nil {
		logrus.WithError(err).Warn("failed to flush permission cache")
	}
	c.Status(http.StatusNoContent)
}

// SetRolePermissions replaces a role's grant set.
func (h *HTTPHandler) SetRolePermissions(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req entity.RolePermissionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	var grantedBy *uint
	if current := CurrentUser(c); current != nil {
		grantedBy = &current.ID
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if _, err := h.repo.GetRoleByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodeRoleNotFound, "role not found")
			return
		}
		logrus.WithError(err).Error("failed to load role")
		InternalError(c, "failed to set role permissions")
		return
	}

	if err := h.perms.SetRolePermissions(ctx, id, req.PermissionCodes, grantedBy); err != nil {
		if errors.Is(err, rbac.ErrUnknownPermCodes) {
			BadRequest(c, ErrCodeInvalidRequest, "unknown permission codes")
			return
		}
		logrus.WithError(err).WithField("role_id", id).Error("failed to set role permissions")
		InternalError(c, "failed to set role permissions")
		return
	}

	role, err := h.repo.GetRoleByID(ctx, id)
	if err != nil {
		logrus.WithError(err).Error("failed to reload role")
		InternalError(c, "failed to set role permissions")
		return
	}
	c.JSON(http.StatusOK, makeRoleSummary(role))
}

func makeRoleSummary(role *entity.DbRole) entity.RoleSummary {
	if role == nil {
		return entity.RoleSummary{}
	}
	permissions := make([]string, 0, len(role.RolePermissions))
	for _, grant := range role.RolePermissions {
		if grant.Permission != nil {
			permissions = append(permissions, grant.Permission.Code)
		}
	}
	return entity.RoleSummary{
		ID:          role.ID,
		Code:        role.Code,
		Name:        role.Name,
		Description: role.Description,
		IsSystem:    role.IsSystem,
		IsActive:    role.IsActive,
		Permissions: permissions,
		CreatedAt:   role.CreatedAt,
	}
}
