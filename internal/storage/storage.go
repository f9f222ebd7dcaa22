package storage

import (
	"context"
	"fmt"
	"strings"

	"ows/internal/config"
)

const (
	// TypeLocal 表示本地文件系统存储。
	TypeLocal = "local"
	// TypeS3 表示 Amazon S3 或兼容的存储后端。
	TypeS3 = "s3"
	// TypeOSS 表示阿里云 OSS 存储。
	TypeOSS = "oss"
	// TypeCOS 表示腾讯云 COS 存储。
	TypeCOS = "cos"
	// TypeR2 表示 Cloudflare R2 存储。
	TypeR2 = "r2"
)

// ObjectInfo describes one stored blob, as returned by List.
type ObjectInfo struct {
	Key  string
	Size int64
}

// UploadResult carries the identifiers of a stored object.
type UploadResult struct {
	ObjectKey  string
	PublicURL  string
	StoredName string
}

// ObjectStorage 是持久化二进制数据并返回存储标识符的抽象。
//
// Delete and Exists accept either a bare object key or a public URL the
// backend itself issued; URLs are normalised back to keys first. Deleting
// an object that is already gone reports false without an error.
type ObjectStorage interface {
	Upload(ctx context.Context, data []byte, originalName, contentType string) (*UploadResult, error)
	UploadAt(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, keyOrURL string) (bool, error)
	Exists(ctx context.Context, keyOrURL string) (bool, error)
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
	PublicURL(key string) string
}

// LocalBaseDirProvider 由暴露可通过 HTTP 直接提供服务的本地目录的存储驱动实现。
type LocalBaseDirProvider interface {
	LocalBaseDir() string
}

// NewStorage 根据配置实例化存储后端。
func NewStorage(cfg config.Config) (ObjectStorage, error) {
	typeName := strings.ToLower(strings.TrimSpace(cfg.StorageType))
	switch typeName {
	case "", TypeLocal:
		return NewLocalStorage(cfg.StorageLocalDir, cfg.StoragePublicBaseURL, cfg.StorageBasePath)
	case TypeS3:
		return NewS3Storage(cfg)
	case TypeOSS:
		return NewOSSStorage(cfg)
	case TypeCOS:
		return NewCOSStorage(cfg)
	case TypeR2:
		return NewR2Storage(cfg)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.StorageType)
	}
}
