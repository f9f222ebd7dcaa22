package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"ows/internal/config"

	"github.com/tencentyun/cos-go-sdk-v5"
)

type cosStorage struct {
	client      *cos.Client
	basePath    string
	publicBase  string
	publicBases []string
}

func NewCOSStorage(cfg config.Config) (ObjectStorage, error) {
	baseURL := strings.TrimSpace(cfg.StorageCOSBucketURL)
	if baseURL == "" {
		return nil, errors.New("storage: missing COS bucket URL")
	}
	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("storage: parse COS bucket URL: %w", err)
	}

	secretID := strings.TrimSpace(cfg.StorageCOSSecretID)
	secretKey := strings.TrimSpace(cfg.StorageCOSSecretKey)
	if secretID == "" || secretKey == "" {
		return nil, errors.New("storage: missing COS credentials")
	}

	transport := &cos.AuthorizationTransport{
		SecretID:  secretID,
		SecretKey: secretKey,
	}

	client := cos.NewClient(&cos.BaseURL{BucketURL: parsedURL}, &http.Client{Transport: transport})

	canonical := strings.TrimRight(baseURL, "/")
	publicBase, publicBases := resolvePublicBases(cfg.StoragePublicBaseURL, canonical)

	return &cosStorage{
		client:      client,
		basePath:    trimPrefix(cfg.StorageBasePath),
		publicBase:  publicBase,
		publicBases: publicBases,
	}, nil
}

func (s *cosStorage) PublicURL(key string) string {
	return s.publicBase + "/" + strings.TrimLeft(key, "/")
}

func (s *cosStorage) normalize(keyOrURL string) string {
	return normalizeKeyOrURL(keyOrURL, s.publicBases, "")
}

func (s *cosStorage) Upload(ctx context.Context, data []byte, originalName, contentType string) (*UploadResult, error) {
	key, storedName := BuildObjectKey(s.basePath, originalName)
	publicURL, err := s.UploadAt(ctx, key, data, contentType)
	if err != nil {
		return nil, err
	}
	return &UploadResult{ObjectKey: key, PublicURL: publicURL, StoredName: storedName}, nil
}

func (s *cosStorage) UploadAt(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty payload")
	}
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	options := &cos.ObjectPutOptions{
		ObjectPutHeaderOptions: &cos.ObjectPutHeaderOptions{},
	}
	if contentType != "" {
		options.ObjectPutHeaderOptions.ContentType = contentType
	}

	resp, err := s.client.Object.Put(ctx, key, bytes.NewReader(data), options)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}
	return s.PublicURL(key), nil
}

func (s *cosStorage) Delete(ctx context.Context, keyOrURL string) (bool, error) {
	key := s.normalize(keyOrURL)
	if key == "" {
		return false, errors.New("empty object key")
	}

	resp, err := s.client.Object.Head(ctx, key, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		if cos.IsNotFoundError(err) {
			return false, nil
		}
		return false, fmt.Errorf("head object: %w", err)
	}

	resp, err = s.client.Object.Delete(ctx, key)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return false, fmt.Errorf("delete object: %w", err)
	}
	return true, nil
}

func (s *cosStorage) Exists(ctx context.Context, keyOrURL string) (bool, error) {
	key := s.normalize(keyOrURL)
	if key == "" {
		return false, errors.New("empty object key")
	}
	resp, err := s.client.Object.Head(ctx, key, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		if cos.IsNotFoundError(err) {
			return false, nil
		}
		return false, fmt.Errorf("head object: %w", err)
	}
	return true, nil
}

func (s *cosStorage) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	var objects []ObjectInfo
	marker := ""
	for {
		result, _, err := s.client.Bucket.Get(ctx, &cos.BucketGetOptions{
			Prefix:  trimPrefix(prefix),
			Marker:  marker,
			MaxKeys: 1000,
		})
		if err != nil {
			return nil, fmt.Errorf("list objects: %w", err)
		}
		for _, obj := range result.Contents {
			objects = append(objects, ObjectInfo{Key: obj.Key, Size: obj.Size})
		}
		if !result.IsTruncated {
			break
		}
		marker = result.NextMarker
	}
	return objects, nil
}

var _ ObjectStorage = (*cosStorage)(nil)
