package entity

import "time"

// Content lifecycle states.
const (
	ContentStatusDraft     = "draft"
	ContentStatusPublished = "published"
	ContentStatusArchived  = "archived"
)

// DbCategory organises contents and products in a tree.
type DbCategory struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Code      string    `gorm:"column:code;type:varchar(100);uniqueIndex;not null" json:"code"`
	Slug      string    `gorm:"column:slug;type:varchar(100);index" json:"slug"`
	ParentID  *uint     `gorm:"column:parent_id;index" json:"parent_id"`
	SortOrder int       `gorm:"column:sort_order;not null;default:0" json:"sort_order"`
	IsActive  bool      `gorm:"column:is_active;index;not null;default:true" json:"is_active"`
}

func (DbCategory) TableName() string {
	return "categories"
}

// DbTag labels contents and products.
type DbTag struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Code      string    `gorm:"column:code;type:varchar(50);uniqueIndex;not null" json:"code"`
	Slug      string    `gorm:"column:slug;type:varchar(100);uniqueIndex" json:"slug"`
}

func (DbTag) TableName() string {
	return "tags"
}

// DbContent is an article, page, or other editorial unit.
type DbContent struct {
	ID            uint       `gorm:"primarykey" json:"id"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	Title         string     `gorm:"column:title;type:varchar(200);not null" json:"title"`
	Body          string     `gorm:"column:body;type:text" json:"body"`
	Summary       string     `gorm:"column:summary;type:text" json:"summary"`
	Slug          string     `gorm:"column:slug;type:varchar(200);uniqueIndex;not null" json:"slug"`
	Status        string     `gorm:"column:status;type:varchar(20);index;not null;default:draft" json:"status"`
	ContentType   string     `gorm:"column:content_type;type:varchar(50);index;not null;default:article" json:"content_type"`
	CategoryID    *uint      `gorm:"column:category_id;index" json:"category_id"`
	AuthorID      *uint      `gorm:"column:author_id;index" json:"author_id"`
	FeaturedImage string     `gorm:"column:featured_image;type:varchar(700)" json:"featured_image"`
	MetaTitle     string     `gorm:"column:meta_title;type:varchar(200)" json:"meta_title"`
	MetaDesc      string     `gorm:"column:meta_description;type:text" json:"meta_description"`
	ViewsCount    int64      `gorm:"column:views_count;not null;default:0" json:"views_count"`
	PublishedAt   *time.Time `gorm:"column:published_at;index" json:"published_at"`

	Tags []DbTag `gorm:"many2many:content_tags;joinForeignKey:ContentID;joinReferences:TagID" json:"tags"`
}

func (DbContent) TableName() string {
	return "contents"
}

// IsPublished reports whether the content is visible at the given instant.
func (c *DbContent) IsPublished(now time.Time) bool {
	return c != nil && c.Status == ContentStatusPublished &&
		c.PublishedAt != nil && !c.PublishedAt.After(now)
}

type ContentQuery struct {
	BaseParams
	Status      string `json:"status" form:"status" query:"status"`
	ContentType string `json:"content_type" form:"content_type" query:"content_type"`
	CategoryID  uint   `json:"category_id" form:"category_id" query:"category_id"`
	TagID       uint   `json:"tag_id" form:"tag_id" query:"tag_id"`
	Keyword     string `json:"keyword" form:"keyword" query:"keyword"`
}

type ContentCreateRequest struct {
	Title         string `json:"title" binding:"required"`
	Body          string `json:"body"`
	Summary       string `json:"summary"`
	Slug          string `json:"slug"`
	ContentType   string `json:"content_type"`
	CategoryID    *uint  `json:"category_id"`
	FeaturedImage string `json:"featured_image"`
	MetaTitle     string `json:"meta_title"`
	MetaDesc      string `json:"meta_description"`
	TagIDs        []uint `json:"tag_ids"`
}

type ContentUpdateRequest struct {
	Title         *string `json:"title,omitempty"`
	Body          *string `json:"body,omitempty"`
	Summary       *string `json:"summary,omitempty"`
	Slug          *string `json:"slug,omitempty"`
	Status        *string `json:"status,omitempty"`
	ContentType   *string `json:"content_type,omitempty"`
	CategoryID    *uint   `json:"category_id,omitempty"`
	FeaturedImage *string `json:"featured_image,omitempty"`
	MetaTitle     *string `json:"meta_title,omitempty"`
	MetaDesc      *string `json:"meta_description,omitempty"`
	TagIDs        []uint  `json:"tag_ids,omitempty"`
}

type ContentListResponse struct {
	Contents []DbContent `json:"contents"`
	Meta     *Meta       `json:"meta"`
}

type CategoryCreateRequest struct {
	Code      string `json:"code" binding:"required"`
	Slug      string `json:"slug"`
	ParentID  *uint  `json:"parent_id"`
	SortOrder int    `json:"sort_order"`
	IsActive  *bool  `json:"is_active"`
}

type CategoryUpdateRequest struct {
	Slug      *string `json:"slug,omitempty"`
	ParentID  *uint   `json:"parent_id,omitempty"`
	SortOrder *int    `json:"sort_order,omitempty"`
	IsActive  *bool   `json:"is_active,omitempty"`
}

type TagCreateRequest struct {
	Code string `json:"code" binding:"required"`
	Slug string `json:"slug"`
}
