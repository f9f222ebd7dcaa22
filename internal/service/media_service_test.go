package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/jpeg"
	"strings"
	"testing"

	"ows/internal/entity"
	"ows/internal/model"
	"ows/internal/storage"

	"gorm.io/gorm"
)

// fakeMediaRepo covers the repository slice the media service touches.
type fakeMediaRepo struct {
	model.Repository

	folders    map[uint]*entity.DbMediaFolder
	files      map[uint]*entity.DbMediaFile
	nextID     uint
	failCreate bool
}

func newFakeMediaRepo() *fakeMediaRepo {
	return &fakeMediaRepo{
		folders: make(map[uint]*entity.DbMediaFolder),
		files:   make(map[uint]*entity.DbMediaFile),
		nextID:  1,
	}
}

func (r *fakeMediaRepo) allocID() uint {
	id := r.nextID
	r.nextID++
	return id
}

func (r *fakeMediaRepo) GetMediaFolder(_ context.Context, id uint) (*entity.DbMediaFolder, error) {
	folder, ok := r.folders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *folder
	return &copied, nil
}

func (r *fakeMediaRepo) CreateMediaFolder(_ context.Context, folder *entity.DbMediaFolder) error {
	folder.ID = r.allocID()
	stored := *folder
	r.folders[folder.ID] = &stored
	return nil
}

func (r *fakeMediaRepo) UpdateMediaFolder(_ context.Context, id uint, updates map[string]interface{}) error {
	folder, ok := r.folders[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if name, ok := updates["name"].(string); ok {
		folder.Name = name
	}
	if path, ok := updates["path"].(string); ok {
		folder.Path = path
	}
	if parent, present := updates["parent_id"]; present {
		switch v := parent.(type) {
		case *uint:
			folder.ParentID = v
		case nil:
			folder.ParentID = nil
		}
	}
	return nil
}

func (r *fakeMediaRepo) DeleteMediaFolder(_ context.Context, id uint) error {
	if _, ok := r.folders[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.folders, id)
	return nil
}

func (r *fakeMediaRepo) ListMediaFolders(_ context.Context) ([]entity.DbMediaFolder, error) {
	out := make([]entity.DbMediaFolder, 0, len(r.folders))
	for _, folder := range r.folders {
		out = append(out, *folder)
	}
	return out, nil
}

func (r *fakeMediaRepo) CountMediaFilesInFolder(_ context.Context, folderID uint) (int64, error) {
	var count int64
	for _, file := range r.files {
		if file.FolderID != nil && *file.FolderID == folderID {
			count++
		}
	}
	return count, nil
}

func (r *fakeMediaRepo) CountChildFolders(_ context.Context, folderID uint) (int64, error) {
	var count int64
	for _, folder := range r.folders {
		if folder.ParentID != nil && *folder.ParentID == folderID {
			count++
		}
	}
	return count, nil
}

func (r *fakeMediaRepo) CreateMediaFile(_ context.Context, file *entity.DbMediaFile) error {
	if r.failCreate {
		return errors.New("database unavailable")
	}
	file.ID = r.allocID()
	for i := range file.Variants {
		file.Variants[i].ID = r.allocID()
		file.Variants[i].FileID = file.ID
	}
	stored := *file
	r.files[file.ID] = &stored
	return nil
}

func (r *fakeMediaRepo) GetMediaFile(_ context.Context, id uint) (*entity.DbMediaFile, error) {
	file, ok := r.files[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *file
	return &copied, nil
}

func (r *fakeMediaRepo) DeleteMediaFile(_ context.Context, id uint) error {
	if _, ok := r.files[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.files, id)
	return nil
}

func (r *fakeMediaRepo) MoveMediaFiles(_ context.Context, fileIDs []uint, folderID *uint) (int64, error) {
	var moved int64
	for _, id := range fileIDs {
		if file, ok := r.files[id]; ok {
			file.FolderID = folderID
			moved++
		}
	}
	return moved, nil
}

func (r *fakeMediaRepo) ListAllObjectKeys(_ context.Context) ([]string, error) {
	var keys []string
	for _, file := range r.files {
		keys = append(keys, file.ObjectKey)
		for _, variant := range file.Variants {
			keys = append(keys, variant.ObjectKey)
		}
	}
	return keys, nil
}

func newTestMediaService(t *testing.T) (*MediaService, *fakeMediaRepo, *storage.LocalStorage) {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir(), "/uploads", "media")
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	repo := newFakeMediaRepo()
	return NewMediaService(repo, store, "media", 1<<20), repo, store
}

func testJPEG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("failed to encode jpeg: %v", err)
	}
	return buf.Bytes()
}

func TestUploadImageGeneratesVariants(t *testing.T) {
	svc, _, store := newTestMediaService(t)
	ctx := context.Background()

	file, err := svc.Upload(ctx, testJPEG(t, 900, 600), "photo.jpg", "image/jpeg", nil, nil)
	if err != nil {
		t.Fatalf("unexpected upload error: %v", err)
	}
	if file.ID == 0 {
		t.Fatal("expected file to be persisted")
	}
	if file.Width == nil || *file.Width != 900 || file.Height == nil || *file.Height != 600 {
		t.Fatal("expected probed dimensions on the file row")
	}
	// 900x600 exceeds thumbnail, small, and medium bounds but fits large.
	if len(file.Variants) != 3 {
		t.Fatalf("expected 3 variants, got %d", len(file.Variants))
	}

	exists, err := store.Exists(ctx, file.ObjectKey)
	if err != nil || !exists {
		t.Fatalf("expected original blob to exist, exists=%v err=%v", exists, err)
	}
	for _, variant := range file.Variants {
		if !strings.Contains(variant.ObjectKey, variant.VariantType+"_") {
			t.Fatalf("unexpected variant key %q", variant.ObjectKey)
		}
		exists, err := store.Exists(ctx, variant.ObjectKey)
		if err != nil || !exists {
			t.Fatalf("expected %s blob to exist, exists=%v err=%v", variant.VariantType, exists, err)
		}
	}
}

func TestUploadNonImageSkipsVariants(t *testing.T) {
	svc, _, _ := newTestMediaService(t)

	file, err := svc.Upload(context.Background(), []byte("plain text payload"), "notes.txt", "text/plain", nil, nil)
	if err != nil {
		t.Fatalf("unexpected upload error: %v", err)
	}
	if len(file.Variants) != 0 {
		t.Fatalf("expected no variants for text upload, got %d", len(file.Variants))
	}
	if file.Width != nil || file.Height != nil {
		t.Fatal("expected no dimensions for text upload")
	}
}

func TestUploadValidation(t *testing.T) {
	svc, _, _ := newTestMediaService(t)
	ctx := context.Background()

	if _, err := svc.Upload(ctx, nil, "x.bin", "", nil, nil); !errors.Is(err, ErrEmptyFile) {
		t.Fatalf("expected ErrEmptyFile, got %v", err)
	}

	oversized := make([]byte, (1<<20)+1)
	if _, err := svc.Upload(ctx, oversized, "x.bin", "", nil, nil); !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("expected ErrFileTooLarge, got %v", err)
	}

	if _, err := svc.Upload(ctx, []byte("<script/>"), "payload.HTML", "", nil, nil); !errors.Is(err, ErrDisallowedType) {
		t.Fatalf("expected ErrDisallowedType, got %v", err)
	}

	missing := uint(404)
	if _, err := svc.Upload(ctx, []byte("data"), "x.bin", "", &missing, nil); !errors.Is(err, ErrFolderNotFound) {
		t.Fatalf("expected ErrFolderNotFound, got %v", err)
	}
}

func TestUploadCleansUpBlobsWhenPersistFails(t *testing.T) {
	svc, repo, store := newTestMediaService(t)
	repo.failCreate = true
	ctx := context.Background()

	if _, err := svc.Upload(ctx, testJPEG(t, 900, 600), "photo.jpg", "image/jpeg", nil, nil); err == nil {
		t.Fatal("expected upload to fail")
	}

	objects, err := store.List(ctx, "media")
	if err != nil {
		t.Fatalf("unexpected list error: %v", err)
	}
	if len(objects) != 0 {
		t.Fatalf("expected blobs to be cleaned up, found %d", len(objects))
	}
}

func TestDeleteRemovesBlobsAndRows(t *testing.T) {
	svc, repo, store := newTestMediaService(t)
	ctx := context.Background()

	file, err := svc.Upload(ctx, testJPEG(t, 900, 600), "photo.jpg", "image/jpeg", nil, nil)
	if err != nil {
		t.Fatalf("unexpected upload error: %v", err)
	}

	if err := svc.Delete(ctx, file.ID); err != nil {
		t.Fatalf("unexpected delete error: %v", err)
	}
	if _, ok := repo.files[file.ID]; ok {
		t.Fatal("expected file row to be removed")
	}

	objects, err := store.List(ctx, "media")
	if err != nil {
		t.Fatalf("unexpected list error: %v", err)
	}
	if len(objects) != 0 {
		t.Fatalf("expected all blobs removed, found %d", len(objects))
	}
}

func TestReconcileReportsOrphans(t *testing.T) {
	svc, _, store := newTestMediaService(t)
	ctx := context.Background()

	tracked, err := svc.Upload(ctx, []byte("tracked"), "tracked.txt", "text/plain", nil, nil)
	if err != nil {
		t.Fatalf("unexpected upload error: %v", err)
	}
	if _, err := store.UploadAt(ctx, "media/2026/01/stray_blob.bin", []byte("stray"), ""); err != nil {
		t.Fatalf("unexpected upload error: %v", err)
	}

	resp, err := svc.Reconcile(ctx)
	if err != nil {
		t.Fatalf("unexpected reconcile error: %v", err)
	}
	if resp.TotalFound != 1 {
		t.Fatalf("expected 1 orphan, got %d", resp.TotalFound)
	}
	orphan := resp.Objects[0]
	if orphan.ObjectKey != "media/2026/01/stray_blob.bin" {
		t.Fatalf("unexpected orphan key %q", orphan.ObjectKey)
	}
	if orphan.ObjectKey == tracked.ObjectKey {
		t.Fatal("tracked object reported as orphan")
	}
	if !strings.HasPrefix(orphan.PublicURL, "/uploads/") {
		t.Fatalf("unexpected orphan url %q", orphan.PublicURL)
	}
}

func TestFolderLifecycle(t *testing.T) {
	svc, repo, _ := newTestMediaService(t)
	ctx := context.Background()

	root, err := svc.CreateFolder(ctx, &entity.MediaFolderCreateRequest{Name: "campaigns"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if root.Path != "/campaigns" {
		t.Fatalf("unexpected root path %q", root.Path)
	}

	child, err := svc.CreateFolder(ctx, &entity.MediaFolderCreateRequest{Name: "summer", ParentID: &root.ID}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if child.Path != "/campaigns/summer" {
		t.Fatalf("unexpected child path %q", child.Path)
	}

	// Moving the root under its own child is a cycle.
	if _, err := svc.UpdateFolder(ctx, root.ID, &entity.MediaFolderUpdateRequest{ParentID: &child.ID}); !errors.Is(err, ErrFolderCycle) {
		t.Fatalf("expected ErrFolderCycle, got %v", err)
	}
	if _, err := svc.UpdateFolder(ctx, root.ID, &entity.MediaFolderUpdateRequest{ParentID: &root.ID}); !errors.Is(err, ErrFolderCycle) {
		t.Fatalf("expected ErrFolderCycle for self-parent, got %v", err)
	}

	// Renaming the root rewrites descendant paths.
	newName := "archive"
	updated, err := svc.UpdateFolder(ctx, root.ID, &entity.MediaFolderUpdateRequest{Name: &newName})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Path != "/archive" {
		t.Fatalf("unexpected renamed path %q", updated.Path)
	}
	reloaded, err := repo.GetMediaFolder(ctx, child.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reloaded.Path != "/archive/summer" {
		t.Fatalf("expected descendant path rewrite, got %q", reloaded.Path)
	}

	// Non-empty folders cannot be deleted.
	if err := svc.DeleteFolder(ctx, root.ID); !errors.Is(err, ErrFolderNotEmpty) {
		t.Fatalf("expected ErrFolderNotEmpty, got %v", err)
	}
	if err := svc.DeleteFolder(ctx, child.ID); err != nil {
		t.Fatalf("unexpected error deleting empty folder: %v", err)
	}
	if err := svc.DeleteFolder(ctx, root.ID); err != nil {
		t.Fatalf("unexpected error deleting root: %v", err)
	}
}

func TestMoveFiles(t *testing.T) {
	svc, _, _ := newTestMediaService(t)
	ctx := context.Background()

	folder, err := svc.CreateFolder(ctx, &entity.MediaFolderCreateRequest{Name: "docs"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first, err := svc.Upload(ctx, []byte("one"), "one.txt", "text/plain", nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.Upload(ctx, []byte("two"), "two.txt", "text/plain", nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	resp, err := svc.Move(ctx, &entity.MediaMoveRequest{FileIDs: []uint{first.ID, second.ID, 999}, FolderID: &folder.ID})
	if err != nil {
		t.Fatalf("unexpected move error: %v", err)
	}
	if resp.Moved != 2 {
		t.Fatalf("expected 2 files moved, got %d", resp.Moved)
	}

	missing := uint(404)
	if _, err := svc.Move(ctx, &entity.MediaMoveRequest{FileIDs: []uint{first.ID}, FolderID: &missing}); !errors.Is(err, ErrFolderNotFound) {
		t.Fatalf("expected ErrFolderNotFound, got %v", err)
	}
}
