package entity

import "time"

// DbMediaFolder is a nested folder with a materialised path ("/a/b").
type DbMediaFolder struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Name      string    `gorm:"column:name;type:varchar(255);not null" json:"name"`
	ParentID  *uint     `gorm:"column:parent_id;index" json:"parent_id"`
	Path      string    `gorm:"column:path;type:varchar(500);index;not null" json:"path"`
	CreatedBy *uint     `gorm:"column:created_by" json:"created_by"`
}

func (DbMediaFolder) TableName() string {
	return "media_folders"
}

// DbMediaFile is an uploaded file backed by one object in storage.
type DbMediaFile struct {
	ID               uint      `gorm:"primarykey" json:"id"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
	Filename         string    `gorm:"column:filename;type:varchar(255);not null" json:"filename"`
	OriginalFilename string    `gorm:"column:original_filename;type:varchar(255);not null" json:"original_filename"`
	ObjectKey        string    `gorm:"column:object_key;type:varchar(500);index;not null" json:"object_key"`
	PublicURL        string    `gorm:"column:public_url;type:varchar(700);not null" json:"public_url"`
	FileSize         int64     `gorm:"column:file_size" json:"file_size"`
	MimeType         string    `gorm:"column:mime_type;type:varchar(100)" json:"mime_type"`
	Width            *int      `gorm:"column:width" json:"width"`
	Height           *int      `gorm:"column:height" json:"height"`
	AltText          string    `gorm:"column:alt_text;type:varchar(500)" json:"alt_text"`
	Caption          string    `gorm:"column:caption;type:text" json:"caption"`
	FolderID         *uint     `gorm:"column:folder_id;index" json:"folder_id"`
	UploadedBy       *uint     `gorm:"column:uploaded_by" json:"uploaded_by"`

	Variants []DbMediaVariant `gorm:"foreignKey:FileID" json:"variants"`
}

func (DbMediaFile) TableName() string {
	return "media_files"
}

// DbMediaVariant is a derived rendition of an image file. Variants are
// disposable: deleting the parent file removes them and their blobs.
type DbMediaVariant struct {
	ID          uint   `gorm:"primarykey" json:"id"`
	FileID      uint   `gorm:"column:file_id;index;not null" json:"file_id"`
	VariantType string `gorm:"column:variant_type;type:varchar(20);not null" json:"variant_type"`
	ObjectKey   string `gorm:"column:object_key;type:varchar(500);not null" json:"object_key"`
	PublicURL   string `gorm:"column:public_url;type:varchar(700);not null" json:"public_url"`
	Width       int    `gorm:"column:width" json:"width"`
	Height      int    `gorm:"column:height" json:"height"`
	FileSize    int64  `gorm:"column:file_size" json:"file_size"`
}

func (DbMediaVariant) TableName() string {
	return "media_variants"
}

type MediaFileQuery struct {
	BaseParams
	FolderID *uint  `json:"folder_id" form:"folder_id" query:"folder_id"`
	Keyword  string `json:"keyword" form:"keyword" query:"keyword"`
	MimeType string `json:"mime_type" form:"mime_type" query:"mime_type"`
}

type MediaFileUpdateRequest struct {
	AltText  *string `json:"alt_text,omitempty"`
	Caption  *string `json:"caption,omitempty"`
	FolderID *uint   `json:"folder_id,omitempty"`
}

type MediaMoveRequest struct {
	FileIDs  []uint `json:"file_ids" binding:"required"`
	FolderID *uint  `json:"folder_id"`
}

type MediaMoveResponse struct {
	Moved int64 `json:"moved"`
}

type MediaFolderCreateRequest struct {
	Name     string `json:"name" binding:"required"`
	ParentID *uint  `json:"parent_id"`
}

type MediaFolderUpdateRequest struct {
	Name     *string `json:"name,omitempty"`
	ParentID *uint   `json:"parent_id,omitempty"`
}

type MediaListResponse struct {
	Files []DbMediaFile `json:"files"`
	Meta  *Meta         `json:"meta"`
}

// OrphanObject describes a stored blob with no matching database row,
// reported by the reconciliation scan.
type OrphanObject struct {
	ObjectKey string `json:"object_key"`
	PublicURL string `json:"public_url"`
	Size      int64  `json:"size"`
}

type MediaScanResponse struct {
	TotalFound int            `json:"total_found"`
	Objects    []OrphanObject `json:"objects"`
}
