package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"ows/internal/config"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
)

type ossStorage struct {
	bucket      *oss.Bucket
	basePath    string
	publicBase  string
	publicBases []string
}

func NewOSSStorage(cfg config.Config) (ObjectStorage, error) {
	endpoint := strings.TrimSpace(cfg.StorageOSSEndpoint)
	if endpoint == "" {
		return nil, errors.New("storage: missing OSS endpoint")
	}
	bucketName := strings.TrimSpace(cfg.StorageOSSBucket)
	if bucketName == "" {
		return nil, errors.New("storage: missing OSS bucket")
	}
	accessKey := strings.TrimSpace(cfg.StorageOSSAccessKeyID)
	secretKey := strings.TrimSpace(cfg.StorageOSSAccessKeySecret)
	if accessKey == "" || secretKey == "" {
		return nil, errors.New("storage: missing OSS credentials")
	}

	client, err := oss.New(endpoint, accessKey, secretKey)
	if err != nil {
		return nil, fmt.Errorf("storage: create OSS client: %w", err)
	}
	bucket, err := client.Bucket(bucketName)
	if err != nil {
		return nil, fmt.Errorf("storage: open OSS bucket: %w", err)
	}

	canonical := canonicalOSSBaseURL(bucketName, endpoint)
	publicBase, publicBases := resolvePublicBases(cfg.StoragePublicBaseURL, canonical)

	return &ossStorage{
		bucket:      bucket,
		basePath:    trimPrefix(cfg.StorageBasePath),
		publicBase:  publicBase,
		publicBases: publicBases,
	}, nil
}

func canonicalOSSBaseURL(bucket, endpoint string) string {
	host := strings.TrimRight(strings.TrimPrefix(strings.TrimPrefix(endpoint, "https://"), "http://"), "/")
	return fmt.Sprintf("https://%s.%s", bucket, host)
}

func (s *ossStorage) PublicURL(key string) string {
	return s.publicBase + "/" + strings.TrimLeft(key, "/")
}

func (s *ossStorage) normalize(keyOrURL string) string {
	return normalizeKeyOrURL(keyOrURL, s.publicBases, s.bucket.BucketName)
}

func (s *ossStorage) Upload(ctx context.Context, data []byte, originalName, contentType string) (*UploadResult, error) {
	key, storedName := BuildObjectKey(s.basePath, originalName)
	publicURL, err := s.UploadAt(ctx, key, data, contentType)
	if err != nil {
		return nil, err
	}
	return &UploadResult{ObjectKey: key, PublicURL: publicURL, StoredName: storedName}, nil
}

func (s *ossStorage) UploadAt(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty payload")
	}
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	options := []oss.Option{oss.WithContext(ctx)}
	if contentType != "" {
		options = append(options, oss.ContentType(contentType))
	}

	if err := s.bucket.PutObject(key, bytes.NewReader(data), options...); err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}
	return s.PublicURL(key), nil
}

func (s *ossStorage) Delete(ctx context.Context, keyOrURL string) (bool, error) {
	key := s.normalize(keyOrURL)
	if key == "" {
		return false, errors.New("empty object key")
	}
	exists, err := s.bucket.IsObjectExist(key)
	if err != nil {
		return false, fmt.Errorf("check object: %w", err)
	}
	if !exists {
		return false, nil
	}
	if err := s.bucket.DeleteObject(key, oss.WithContext(ctx)); err != nil {
		return false, fmt.Errorf("delete object: %w", err)
	}
	return true, nil
}

func (s *ossStorage) Exists(ctx context.Context, keyOrURL string) (bool, error) {
	select {
	case <-ctx.Done():
		return false, ctx.Err()
	default:
	}

	key := s.normalize(keyOrURL)
	if key == "" {
		return false, errors.New("empty object key")
	}
	exists, err := s.bucket.IsObjectExist(key)
	if err != nil {
		return false, fmt.Errorf("check object: %w", err)
	}
	return exists, nil
}

func (s *ossStorage) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	var objects []ObjectInfo
	marker := ""
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		result, err := s.bucket.ListObjects(oss.Prefix(trimPrefix(prefix)), oss.Marker(marker))
		if err != nil {
			return nil, fmt.Errorf("list objects: %w", err)
		}
		for _, obj := range result.Objects {
			objects = append(objects, ObjectInfo{Key: obj.Key, Size: obj.Size})
		}
		if !result.IsTruncated {
			break
		}
		marker = result.NextMarker
	}
	return objects, nil
}

var _ ObjectStorage = (*ossStorage)(nil)
