package entity

import "time"

// Legacy coarse roles. The table-driven RBAC system supplements these; they
// are kept for backward compatibility and first-user bootstrap.
const (
	UserRoleAdmin  = "admin"
	UserRoleEditor = "editor"
	UserRoleUser   = "user"
)

// DbUser represents a persisted user account.
type DbUser struct {
	ID           uint       `gorm:"primarykey" json:"id"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	Username     string     `gorm:"column:username;type:varchar(50);uniqueIndex;not null" json:"username"`
	Email        string     `gorm:"column:email;type:varchar(100);uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"column:password_hash;type:varchar(255);not null" json:"-"`
	Role         string     `gorm:"column:role;type:varchar(20);index;not null;default:user" json:"role"`
	IsActive     bool       `gorm:"column:is_active;not null;default:true" json:"is_active"`
	Avatar       string     `gorm:"column:avatar;type:varchar(500)" json:"avatar"`
	LastLogin    *time.Time `gorm:"column:last_login" json:"last_login"`

	UserRoles []DbUserRole `gorm:"foreignKey:UserID" json:"-"`
}

// TableName overrides default pluralised name.
func (DbUser) TableName() string {
	return "users"
}

// IsSuperuser reports whether the legacy role grants every permission
// unconditionally.
func (u *DbUser) IsSuperuser() bool {
	return u != nil && u.Role == UserRoleAdmin
}

// UserSummary is a lightweight user description returned to clients.
type UserSummary struct {
	ID        uint       `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	Role      string     `json:"role"`
	IsActive  bool       `json:"is_active"`
	Avatar    string     `json:"avatar,omitempty"`
	LastLogin *time.Time `json:"last_login,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// UserQuery supports listing users with pagination.
type UserQuery struct {
	BaseParams
	Role    string `json:"role" form:"role" query:"role"`
	Keyword string `json:"keyword" form:"keyword" query:"keyword"`
}

// AuthStatusResponse indicates whether the system already has users.
type AuthStatusResponse struct {
	HasUser bool `json:"has_user"`
}

type AuthLoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthRegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type AuthResponse struct {
	Token       string      `json:"token"`
	ExpiresAt   time.Time   `json:"expires_at"`
	User        UserSummary `json:"user"`
	Permissions []string    `json:"permissions,omitempty"`
}

type UserCreateRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role" binding:"required"`
	IsActive *bool  `json:"is_active"`
}

type UserUpdateRequest struct {
	Email    *string `json:"email,omitempty"`
	Role     *string `json:"role,omitempty"`
	Password *string `json:"password,omitempty"`
	Avatar   *string `json:"avatar,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}

type UserListResponse struct {
	Users []UserSummary `json:"users"`
	Meta  *Meta         `json:"meta"`
}
