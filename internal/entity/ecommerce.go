package entity

import "time"

// Order lifecycle states.
const (
	OrderStatusPending   = "pending"
	OrderStatusPaid      = "paid"
	OrderStatusCancelled = "cancelled"
)

// DbProduct is a sellable item. Prices are integer minor units.
type DbProduct struct {
	ID            uint      `gorm:"primarykey" json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	Code          string    `gorm:"column:code;type:varchar(100);uniqueIndex;not null" json:"code"`
	Name          string    `gorm:"column:name;type:varchar(200);not null" json:"name"`
	Description   string    `gorm:"column:description;type:text" json:"description"`
	Price         int64     `gorm:"column:price;not null" json:"price"`
	OriginalPrice *int64    `gorm:"column:original_price" json:"original_price"`
	Currency      string    `gorm:"column:currency;type:varchar(10);not null;default:USD" json:"currency"`
	// -1 means unlimited stock.
	StockQuantity   int    `gorm:"column:stock_quantity;not null;default:-1" json:"stock_quantity"`
	FeaturedImageID *uint  `gorm:"column:featured_image_id" json:"featured_image_id"`
	CategoryID      *uint  `gorm:"column:category_id;index" json:"category_id"`
	IsActive        bool   `gorm:"column:is_active;index;not null;default:true" json:"is_active"`
	IsFeatured      bool   `gorm:"column:is_featured;not null;default:false" json:"is_featured"`
	SortOrder       int    `gorm:"column:sort_order;not null;default:0" json:"sort_order"`
	ViewsCount      int64  `gorm:"column:views_count;not null;default:0" json:"views_count"`
	SalesCount      int64  `gorm:"column:sales_count;not null;default:0" json:"sales_count"`

	Tags   []DbTag          `gorm:"many2many:product_tags;joinForeignKey:ProductID;joinReferences:TagID" json:"tags"`
	Prices []DbProductPrice `gorm:"foreignKey:ProductID" json:"prices"`
}

func (DbProduct) TableName() string {
	return "products"
}

// DbProductPrice is a per-currency price override for a product.
type DbProductPrice struct {
	ID            uint      `gorm:"primarykey" json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	ProductID     uint      `gorm:"column:product_id;index;not null;uniqueIndex:uq_product_currency" json:"product_id"`
	Currency      string    `gorm:"column:currency;type:varchar(10);not null;uniqueIndex:uq_product_currency" json:"currency"`
	Price         int64     `gorm:"column:price;not null" json:"price"`
	OriginalPrice *int64    `gorm:"column:original_price" json:"original_price"`
	IsActive      bool      `gorm:"column:is_active;not null;default:true" json:"is_active"`
}

func (DbProductPrice) TableName() string {
	return "product_prices"
}

// OrderItem is a snapshot of a purchased product line.
type OrderItem struct {
	ProductID uint   `json:"product_id"`
	Code      string `json:"code"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
}

// DbOrder records a purchase. Items are snapshotted so later product edits
// do not rewrite order history.
type DbOrder struct {
	ID        uint        `gorm:"primarykey" json:"id"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
	OrderNo   string      `gorm:"column:order_no;type:varchar(50);uniqueIndex;not null" json:"order_no"`
	UserID    uint        `gorm:"column:user_id;index;not null" json:"user_id"`
	Amount    int64       `gorm:"column:amount;not null" json:"amount"`
	Currency  string      `gorm:"column:currency;type:varchar(10);index;not null;default:USD" json:"currency"`
	Status    string      `gorm:"column:status;type:varchar(20);index;not null;default:pending" json:"status"`
	Items     []OrderItem `gorm:"column:items;serializer:json" json:"items"`
	PaidAt    *time.Time  `gorm:"column:paid_at" json:"paid_at"`
}

func (DbOrder) TableName() string {
	return "orders"
}

type ProductQuery struct {
	BaseParams
	CategoryID uint   `json:"category_id" form:"category_id" query:"category_id"`
	TagID      uint   `json:"tag_id" form:"tag_id" query:"tag_id"`
	Keyword    string `json:"keyword" form:"keyword" query:"keyword"`
	Featured   *bool  `json:"featured" form:"featured" query:"featured"`
	ActiveOnly bool   `json:"active_only" form:"active_only" query:"active_only"`
}

type ProductCreateRequest struct {
	Code            string `json:"code" binding:"required"`
	Name            string `json:"name" binding:"required"`
	Description     string `json:"description"`
	Price           int64  `json:"price" binding:"required"`
	OriginalPrice   *int64 `json:"original_price"`
	Currency        string `json:"currency"`
	StockQuantity   *int   `json:"stock_quantity"`
	FeaturedImageID *uint  `json:"featured_image_id"`
	CategoryID      *uint  `json:"category_id"`
	IsFeatured      *bool  `json:"is_featured"`
	SortOrder       int    `json:"sort_order"`
	TagIDs          []uint `json:"tag_ids"`
}

type ProductUpdateRequest struct {
	Name            *string `json:"name,omitempty"`
	Description     *string `json:"description,omitempty"`
	Price           *int64  `json:"price,omitempty"`
	OriginalPrice   *int64  `json:"original_price,omitempty"`
	StockQuantity   *int    `json:"stock_quantity,omitempty"`
	FeaturedImageID *uint   `json:"featured_image_id,omitempty"`
	CategoryID      *uint   `json:"category_id,omitempty"`
	IsActive        *bool   `json:"is_active,omitempty"`
	IsFeatured      *bool   `json:"is_featured,omitempty"`
	SortOrder       *int    `json:"sort_order,omitempty"`
	TagIDs          []uint  `json:"tag_ids,omitempty"`
}

type ProductPriceRequest struct {
	Currency      string `json:"currency" binding:"required"`
	Price         int64  `json:"price" binding:"required"`
	OriginalPrice *int64 `json:"original_price"`
	IsActive      *bool  `json:"is_active"`
}

type ProductListResponse struct {
	Products []DbProduct `json:"products"`
	Meta     *Meta       `json:"meta"`
}

type OrderQuery struct {
	BaseParams
	UserID   uint   `json:"user_id" form:"user_id" query:"user_id"`
	Status   string `json:"status" form:"status" query:"status"`
	Currency string `json:"currency" form:"currency" query:"currency"`
}

type OrderCreateRequest struct {
	Currency string             `json:"currency"`
	Items    []OrderItemRequest `json:"items" binding:"required"`
}

type OrderItemRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required,min=1"`
}

type OrderUpdateRequest struct {
	Status *string `json:"status,omitempty"`
}

type OrderListResponse struct {
	Orders []DbOrder `json:"orders"`
	Meta   *Meta     `json:"meta"`
}
