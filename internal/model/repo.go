package model

import (
	"context"
	"time"

	"ows/internal/entity"
)

// Repository 定义数据库操作接口
type Repository interface {
	// 用户管理
	CreateUser(ctx context.Context, user *entity.DbUser) error
	UpdateUser(ctx context.Context, id uint, updates map[string]interface{}) error
	GetUserByEmail(ctx context.Context, email string) (*entity.DbUser, error)
	GetUserByUsername(ctx context.Context, username string) (*entity.DbUser, error)
	GetUserByID(ctx context.Context, id uint) (*entity.DbUser, error)
	ListUsers(ctx context.Context, params *entity.UserQuery) ([]entity.DbUser, *entity.Meta, error)
	DeleteUser(ctx context.Context, id uint) error
	CountUsers(ctx context.Context) (int64, error)

	// 角色与权限
	CreateRole(ctx context.Context, role *entity.DbRole) error
	UpdateRole(ctx context.Context, id uint, updates map[string]interface{}) error
	DeleteRole(ctx context.Context, id uint) error
	GetRoleByID(ctx context.Context, id uint) (*entity.DbRole, error)
	GetRoleByCode(ctx context.Context, code string) (*entity.DbRole, error)
	ListRoles(ctx context.Context, includeInactive bool) ([]entity.DbRole, error)
	CreatePermission(ctx context.Context, perm *entity.DbPermission) error
	ListPermissions(ctx context.Context) ([]entity.DbPermission, error)
	FindPermissionsByCodes(ctx context.Context, codes []string) ([]entity.DbPermission, error)
	SetRolePermissions(ctx context.Context, roleID uint, permissionIDs []uint, grantedBy *uint) error
	AssignUserRole(ctx context.Context, userRole *entity.DbUserRole) error
	RevokeUserRole(ctx context.Context, userID, roleID uint) error
	ListUserRoles(ctx context.Context, userID uint) ([]entity.DbUserRole, error)
	ListUserPermissionCodes(ctx context.Context, userID uint, now time.Time) ([]string, error)

	// 内容管理
	CreateContent(ctx context.Context, content *entity.DbContent) error
	UpdateContent(ctx context.Context, id uint, updates map[string]interface{}) error
	GetContent(ctx context.Context, id uint) (*entity.DbContent, error)
	GetContentBySlug(ctx context.Context, slug string) (*entity.DbContent, error)
	ListContents(ctx context.Context, params *entity.ContentQuery) ([]entity.DbContent, *entity.Meta, error)
	DeleteContent(ctx context.Context, id uint) error
	SetContentTags(ctx context.Context, contentID uint, tagIDs []uint) error
	IncrementContentViews(ctx context.Context, id uint) error

	// 分类与标签
	CreateCategory(ctx context.Context, category *entity.DbCategory) error
	UpdateCategory(ctx context.Context, id uint, updates map[string]interface{}) error
	DeleteCategory(ctx context.Context, id uint) error
	GetCategory(ctx context.Context, id uint) (*entity.DbCategory, error)
	ListCategories(ctx context.Context, includeInactive bool) ([]entity.DbCategory, error)
	CreateTag(ctx context.Context, tag *entity.DbTag) error
	DeleteTag(ctx context.Context, id uint) error
	GetTag(ctx context.Context, id uint) (*entity.DbTag, error)
	ListTags(ctx context.Context) ([]entity.DbTag, error)
	FindTagsByIDs(ctx context.Context, ids []uint) ([]entity.DbTag, error)

	// 媒体库
	CreateMediaFile(ctx context.Context, file *entity.DbMediaFile) error
	GetMediaFile(ctx context.Context, id uint) (*entity.DbMediaFile, error)
	ListMediaFiles(ctx context.Context, params *entity.MediaFileQuery) ([]entity.DbMediaFile, *entity.Meta, error)
	UpdateMediaFile(ctx context.Context, id uint, updates map[string]interface{}) error
	DeleteMediaFile(ctx context.Context, id uint) error
	MoveMediaFiles(ctx context.Context, fileIDs []uint, folderID *uint) (int64, error)
	ListAllObjectKeys(ctx context.Context) ([]string, error)
	CreateMediaFolder(ctx context.Context, folder *entity.DbMediaFolder) error
	GetMediaFolder(ctx context.Context, id uint) (*entity.DbMediaFolder, error)
	ListMediaFolders(ctx context.Context) ([]entity.DbMediaFolder, error)
	UpdateMediaFolder(ctx context.Context, id uint, updates map[string]interface{}) error
	DeleteMediaFolder(ctx context.Context, id uint) error
	CountMediaFilesInFolder(ctx context.Context, folderID uint) (int64, error)
	CountChildFolders(ctx context.Context, folderID uint) (int64, error)

	// 商品与订单
	CreateProduct(ctx context.Context, product *entity.DbProduct) error
	UpdateProduct(ctx context.Context, id uint, updates map[string]interface{}) error
	DeleteProduct(ctx context.Context, id uint) error
	GetProduct(ctx context.Context, id uint) (*entity.DbProduct, error)
	GetProductByCode(ctx context.Context, code string) (*entity.DbProduct, error)
	ListProducts(ctx context.Context, params *entity.ProductQuery) ([]entity.DbProduct, *entity.Meta, error)
	SetProductTags(ctx context.Context, productID uint, tagIDs []uint) error
	UpsertProductPrice(ctx context.Context, price *entity.DbProductPrice) error
	DeleteProductPrice(ctx context.Context, productID uint, currency string) error
	IncrementProductViews(ctx context.Context, id uint) error
	IncrementProductSales(ctx context.Context, id uint, quantity int) error
	CreateOrder(ctx context.Context, order *entity.DbOrder) error
	GetOrder(ctx context.Context, id uint) (*entity.DbOrder, error)
	GetOrderByNo(ctx context.Context, orderNo string) (*entity.DbOrder, error)
	ListOrders(ctx context.Context, params *entity.OrderQuery) ([]entity.DbOrder, *entity.Meta, error)
	UpdateOrder(ctx context.Context, id uint, updates map[string]interface{}) error

	// 系统设置
	UpsertSetting(ctx context.Context, setting *entity.DbSetting) error
	GetSetting(ctx context.Context, key string) (*entity.DbSetting, error)
	ListSettings(ctx context.Context) ([]entity.DbSetting, error)
	DeleteSetting(ctx context.Context, key string) error
}
