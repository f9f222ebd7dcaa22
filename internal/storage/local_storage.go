package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LocalStorage persists files to the local filesystem.
type LocalStorage struct {
	baseDir    string
	publicBase string
	basePath   string
}

// NewLocalStorage creates a LocalStorage instance. The directory is created if
// it does not exist.
func NewLocalStorage(baseDir, publicBase, basePath string) (*LocalStorage, error) {
	baseDir = strings.TrimSpace(baseDir)
	if baseDir == "" {
		baseDir = "datas/uploads"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	publicBase = strings.TrimRight(strings.TrimSpace(publicBase), "/")
	if publicBase == "" {
		publicBase = "/uploads"
	}
	return &LocalStorage{
		baseDir:    baseDir,
		publicBase: publicBase,
		basePath:   trimPrefix(basePath),
	}, nil
}

// LocalBaseDir returns the root directory used for storing files.
func (s *LocalStorage) LocalBaseDir() string {
	return s.baseDir
}

// PublicURL returns the URL the key is served under.
func (s *LocalStorage) PublicURL(key string) string {
	return s.publicBase + "/" + strings.TrimLeft(key, "/")
}

// Upload writes the payload under a freshly derived object key.
func (s *LocalStorage) Upload(ctx context.Context, data []byte, originalName, contentType string) (*UploadResult, error) {
	key, storedName := BuildObjectKey(s.basePath, originalName)
	publicURL, err := s.UploadAt(ctx, key, data, contentType)
	if err != nil {
		return nil, err
	}
	return &UploadResult{ObjectKey: key, PublicURL: publicURL, StoredName: storedName}, nil
}

// UploadAt writes the payload under the exact key given.
func (s *LocalStorage) UploadAt(ctx context.Context, key string, data []byte, _ string) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty payload")
	}
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	absPath, err := s.resolve(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return "", fmt.Errorf("create dir: %w", err)
	}
	if err := os.WriteFile(absPath, data, 0o644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return s.PublicURL(key), nil
}

// Delete removes the object if present and reports whether it existed.
func (s *LocalStorage) Delete(ctx context.Context, keyOrURL string) (bool, error) {
	select {
	case <-ctx.Done():
		return false, ctx.Err()
	default:
	}

	absPath, err := s.resolve(s.normalize(keyOrURL))
	if err != nil {
		return false, err
	}
	if err := os.Remove(absPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("remove file: %w", err)
	}
	return true, nil
}

// Exists reports whether the object is present.
func (s *LocalStorage) Exists(ctx context.Context, keyOrURL string) (bool, error) {
	select {
	case <-ctx.Done():
		return false, ctx.Err()
	default:
	}

	absPath, err := s.resolve(s.normalize(keyOrURL))
	if err != nil {
		return false, err
	}
	info, err := os.Stat(absPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return !info.IsDir(), nil
}

// List walks the tree under prefix and returns every stored object.
func (s *LocalStorage) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	root := s.baseDir
	cleanPrefix := trimPrefix(prefix)
	if cleanPrefix != "" {
		resolved, err := s.resolve(cleanPrefix)
		if err != nil {
			return nil, err
		}
		root = resolved
	}

	var objects []ObjectInfo
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(s.baseDir, p)
		if err != nil {
			return err
		}
		objects = append(objects, ObjectInfo{
			Key:  filepath.ToSlash(rel),
			Size: info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return objects, nil
}

func (s *LocalStorage) normalize(keyOrURL string) string {
	return normalizeKeyOrURL(keyOrURL, []string{s.publicBase}, "")
}

// resolve maps a key to an absolute path, rejecting traversal attempts.
func (s *LocalStorage) resolve(key string) (string, error) {
	if key == "" {
		return "", errors.New("empty object key")
	}
	if strings.HasPrefix(key, "/") {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	for _, segment := range strings.Split(key, "/") {
		if segment == ".." {
			return "", fmt.Errorf("invalid object key %q", key)
		}
	}
	return filepath.Join(s.baseDir, filepath.FromSlash(key)), nil
}

var _ ObjectStorage = (*LocalStorage)(nil)
var _ LocalBaseDirProvider = (*LocalStorage)(nil)
