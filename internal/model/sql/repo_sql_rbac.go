package sql

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ows/internal/entity"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreateRole persists a new role.
func (r *GormRepository) CreateRole(ctx context.Context, role *entity.DbRole) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if role == nil {
		return fmt.Errorf("role is nil")
	}
	return r.db.WithContext(ctx).Create(role).Error
}

// UpdateRole updates an existing role.
func (r *GormRepository) UpdateRole(ctx context.Context, id uint, updates map[string]interface{}) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if id == 0 {
		return fmt.Errorf("invalid role id")
	}
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&entity.DbRole{}).Where("id = ?", id).Updates(updates).Error
}

// DeleteRole removes a role together with its grants and assignments.
func (r *GormRepository) DeleteRole(ctx context.Context, id uint) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if id == 0 {
		return fmt.Errorf("invalid role id")
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("role_id = ?", id).Delete(&entity.DbRolePermission{}).Error; err != nil {
			return err
		}
		if err := tx.Where("role_id = ?", id).Delete(&entity.DbUserRole{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&entity.DbRole{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// GetRoleByID loads a role with its permission grants.
func (r *GormRepository) GetRoleByID(ctx context.Context, id uint) (*entity.DbRole, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	if id == 0 {
		return nil, fmt.Errorf("invalid role id")
	}
	var role entity.DbRole
	if err := r.db.WithContext(ctx).Preload("RolePermissions.Permission").First(&role, id).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

// GetRoleByCode loads a role by its unique code.
func (r *GormRepository) GetRoleByCode(ctx context.Context, code string) (*entity.DbRole, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return nil, fmt.Errorf("role code is empty")
	}
	var role entity.DbRole
	if err := r.db.WithContext(ctx).Preload("RolePermissions.Permission").
		Where("code = ?", trimmed).First(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

// ListRoles returns roles ordered by code, with grants preloaded.
func (r *GormRepository) ListRoles(ctx context.Context, includeInactive bool) ([]entity.DbRole, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	query := r.db.WithContext(ctx).Preload("RolePermissions.Permission").Order("code ASC")
	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}
	var roles []entity.DbRole
	if err := query.Find(&roles).Error; err != nil {
		return nil, err
	}
	return roles, nil
}

// CreatePermission inserts a permission row.
func (r *GormRepository) CreatePermission(ctx context.Context, perm *entity.DbPermission) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if perm == nil {
		return fmt.Errorf("permission is nil")
	}
	return r.db.WithContext(ctx).Create(perm).Error
}

// ListPermissions returns the full permission catalog.
func (r *GormRepository) ListPermissions(ctx context.Context) ([]entity.DbPermission, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	var perms []entity.DbPermission
	if err := r.db.WithContext(ctx).Order("module ASC, action ASC").Find(&perms).Error; err != nil {
		return nil, err
	}
	return perms, nil
}

// FindPermissionsByCodes resolves permission rows for the given codes.
func (r *GormRepository) FindPermissionsByCodes(ctx context.Context, codes []string) ([]entity.DbPermission, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	if len(codes) == 0 {
		return nil, nil
	}
	var perms []entity.DbPermission
	if err := r.db.WithContext(ctx).Where("code IN ?", codes).Find(&perms).Error; err != nil {
		return nil, err
	}
	return perms, nil
}

// SetRolePermissions replaces the full grant set of a role.
func (r *GormRepository) SetRolePermissions(ctx context.Context, roleID uint, permissionIDs []uint, grantedBy *uint) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if roleID == 0 {
		return fmt.Errorf("invalid role id")
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("role_id = ?", roleID).Delete(&entity.DbRolePermission{}).Error; err != nil {
			return err
		}
		if len(permissionIDs) == 0 {
			return nil
		}
		grants := make([]entity.DbRolePermission, 0, len(permissionIDs))
		for _, pid := range permissionIDs {
			grants = append(grants, entity.DbRolePermission{
				RoleID:       roleID,
				PermissionID: pid,
				GrantedBy:    grantedBy,
			})
		}
		return tx.Create(&grants).Error
	})
}

// AssignUserRole creates or refreshes a user role assignment. Re-assigning
// an existing role updates its expiry and assigner.
func (r *GormRepository) AssignUserRole(ctx context.Context, userRole *entity.DbUserRole) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if userRole == nil || userRole.UserID == 0 || userRole.RoleID == 0 {
		return fmt.Errorf("invalid user role assignment")
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "role_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"expires_at", "assigned_by", "assigned_at"}),
	}).Create(userRole).Error
}

// RevokeUserRole removes a role assignment from a user.
func (r *GormRepository) RevokeUserRole(ctx context.Context, userID, roleID uint) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if userID == 0 || roleID == 0 {
		return fmt.Errorf("invalid user role assignment")
	}
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND role_id = ?", userID, roleID).
		Delete(&entity.DbUserRole{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListUserRoles returns a user's assignments with role details preloaded.
func (r *GormRepository) ListUserRoles(ctx context.Context, userID uint) ([]entity.DbUserRole, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	if userID == 0 {
		return nil, fmt.Errorf("invalid user id")
	}
	var assignments []entity.DbUserRole
	if err := r.db.WithContext(ctx).Preload("Role").
		Where("user_id = ?", userID).Find(&assignments).Error; err != nil {
		return nil, err
	}
	return assignments, nil
}

// ListUserPermissionCodes aggregates the distinct permission codes a user
// holds through active, unexpired role assignments. An assignment only
// lapses once its expiry is strictly in the past, matching
// DbUserRole.IsExpired.
func (r *GormRepository) ListUserPermissionCodes(ctx context.Context, userID uint, now time.Time) ([]string, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	if userID == 0 {
		return nil, fmt.Errorf("invalid user id")
	}
	var codes []string
	err := r.db.WithContext(ctx).
		Table("permissions").
		Distinct("permissions.code").
		Joins("JOIN role_permissions ON role_permissions.permission_id = permissions.id").
		Joins("JOIN roles ON roles.id = role_permissions.role_id").
		Joins("JOIN user_roles ON user_roles.role_id = roles.id").
		Where("user_roles.user_id = ?", userID).
		Where("roles.is_active = ?", true).
		Where("user_roles.expires_at IS NULL OR user_roles.expires_at >= ?", now).
		Pluck("permissions.code", &codes).Error
	if err != nil {
		return nil, err
	}
	return codes, nil
}
