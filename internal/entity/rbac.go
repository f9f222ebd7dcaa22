package entity

import "time"

// DbRole is a named bundle of permissions.
type DbRole struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Code        string    `gorm:"column:code;type:varchar(50);uniqueIndex;not null" json:"code"`
	Name        string    `gorm:"column:name;type:varchar(100)" json:"name"`
	Description string    `gorm:"column:description;type:text" json:"description"`
	IsSystem    bool      `gorm:"column:is_system;not null;default:false" json:"is_system"`
	IsActive    bool      `gorm:"column:is_active;index;not null;default:true" json:"is_active"`

	RolePermissions []DbRolePermission `gorm:"foreignKey:RoleID" json:"-"`
}

func (DbRole) TableName() string {
	return "roles"
}

// DbPermission is an atomic capability identified by a module.action code.
// Rows are immutable once referenced by a role.
type DbPermission struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Code      string    `gorm:"column:code;type:varchar(100);uniqueIndex;not null" json:"code"`
	Name      string    `gorm:"column:name;type:varchar(100)" json:"name"`
	Module    string    `gorm:"column:module;type:varchar(50);index;not null" json:"module"`
	Action    string    `gorm:"column:action;type:varchar(50);not null" json:"action"`
}

func (DbPermission) TableName() string {
	return "permissions"
}

// DbRolePermission grants a permission to a role.
type DbRolePermission struct {
	RoleID       uint      `gorm:"column:role_id;primaryKey" json:"role_id"`
	PermissionID uint      `gorm:"column:permission_id;primaryKey" json:"permission_id"`
	GrantedAt    time.Time `gorm:"column:granted_at;autoCreateTime" json:"granted_at"`
	GrantedBy    *uint     `gorm:"column:granted_by" json:"granted_by"`

	Permission *DbPermission `gorm:"foreignKey:PermissionID" json:"permission,omitempty"`
}

func (DbRolePermission) TableName() string {
	return "role_permissions"
}

// DbUserRole assigns a role to a user, optionally until an expiry instant.
type DbUserRole struct {
	UserID     uint       `gorm:"column:user_id;primaryKey" json:"user_id"`
	RoleID     uint       `gorm:"column:role_id;primaryKey" json:"role_id"`
	AssignedAt time.Time  `gorm:"column:assigned_at;autoCreateTime" json:"assigned_at"`
	AssignedBy *uint      `gorm:"column:assigned_by" json:"assigned_by"`
	ExpiresAt  *time.Time `gorm:"column:expires_at" json:"expires_at"`

	Role *DbRole `gorm:"foreignKey:RoleID" json:"role,omitempty"`
}

func (DbUserRole) TableName() string {
	return "user_roles"
}

// IsExpired reports whether the assignment has lapsed at the given instant.
func (ur *DbUserRole) IsExpired(now time.Time) bool {
	return ur != nil && ur.ExpiresAt != nil && ur.ExpiresAt.Before(now)
}

type RoleCreateRequest struct {
	Code        string `json:"code" binding:"required"`
	Name        string `json:"name"`
	Description string `json:"description"`
	IsActive    *bool  `json:"is_active"`
}

type RoleUpdateRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

type RolePermissionsRequest struct {
	PermissionCodes []string `json:"permission_codes" binding:"required"`
}

type RoleAssignRequest struct {
	RoleCode  string     `json:"role_code" binding:"required"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

type RoleSummary struct {
	ID          uint      `json:"id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsSystem    bool      `json:"is_system"`
	IsActive    bool      `json:"is_active"`
	Permissions []string  `json:"permissions"`
	CreatedAt   time.Time `json:"created_at"`
}

type UserRoleSummary struct {
	RoleCode   string     `json:"role_code"`
	RoleName   string     `json:"role_name"`
	AssignedAt time.Time  `json:"assigned_at"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
}
