package storage

import (
	"context"
	"strings"
	"testing"
)

func newTestLocalStorage(t *testing.T) *LocalStorage {
	t.Helper()
	store, err := NewLocalStorage(t.TempDir(), "/uploads", "media")
	if err != nil {
		t.Fatalf("failed to create local storage: %v", err)
	}
	return store
}

func TestLocalStorageUploadRoundTrip(t *testing.T) {
	store := newTestLocalStorage(t)
	ctx := context.Background()

	result, err := store.Upload(ctx, []byte("hello"), "greeting.txt", "text/plain")
	if err != nil {
		t.Fatalf("unexpected upload error: %v", err)
	}
	if !strings.HasPrefix(result.ObjectKey, "media/") {
		t.Fatalf("expected key under media/, got %q", result.ObjectKey)
	}
	if !strings.HasPrefix(result.PublicURL, "/uploads/") {
		t.Fatalf("expected public url under /uploads/, got %q", result.PublicURL)
	}

	exists, err := store.Exists(ctx, result.ObjectKey)
	if err != nil {
		t.Fatalf("unexpected exists error: %v", err)
	}
	if !exists {
		t.Fatal("expected uploaded object to exist")
	}

	// The public URL resolves to the same object.
	exists, err = store.Exists(ctx, result.PublicURL)
	if err != nil {
		t.Fatalf("unexpected exists error: %v", err)
	}
	if !exists {
		t.Fatal("expected lookup by public url to succeed")
	}

	removed, err := store.Delete(ctx, result.ObjectKey)
	if err != nil {
		t.Fatalf("unexpected delete error: %v", err)
	}
	if !removed {
		t.Fatal("expected delete to report removal")
	}

	exists, err = store.Exists(ctx, result.ObjectKey)
	if err != nil {
		t.Fatalf("unexpected exists error: %v", err)
	}
	if exists {
		t.Fatal("expected object to be gone after delete")
	}
}

func TestLocalStorageDeleteMissingIsNotAnError(t *testing.T) {
	store := newTestLocalStorage(t)

	removed, err := store.Delete(context.Background(), "media/2026/01/nope.jpg")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if removed {
		t.Fatal("expected removed=false for missing object")
	}
}

func TestLocalStorageUploadAtAndList(t *testing.T) {
	store := newTestLocalStorage(t)
	ctx := context.Background()

	keys := []string{
		"media/2026/01/a_one.jpg",
		"media/2026/01/thumbnail_a_one.jpg",
		"media/2026/02/b_two.png",
	}
	for _, key := range keys {
		if _, err := store.UploadAt(ctx, key, []byte("data"), "image/jpeg"); err != nil {
			t.Fatalf("unexpected upload error for %s: %v", key, err)
		}
	}

	objects, err := store.List(ctx, "media")
	if err != nil {
		t.Fatalf("unexpected list error: %v", err)
	}
	if len(objects) != len(keys) {
		t.Fatalf("expected %d objects, got %d", len(keys), len(objects))
	}
	found := make(map[string]int64, len(objects))
	for _, obj := range objects {
		found[obj.Key] = obj.Size
	}
	for _, key := range keys {
		size, ok := found[key]
		if !ok {
			t.Fatalf("expected %s in listing", key)
		}
		if size != int64(len("data")) {
			t.Fatalf("unexpected size %d for %s", size, key)
		}
	}

	scoped, err := store.List(ctx, "media/2026/01")
	if err != nil {
		t.Fatalf("unexpected list error: %v", err)
	}
	if len(scoped) != 2 {
		t.Fatalf("expected 2 objects under media/2026/01, got %d", len(scoped))
	}
}

func TestLocalStorageListMissingPrefixIsEmpty(t *testing.T) {
	store := newTestLocalStorage(t)

	objects, err := store.List(context.Background(), "media/2030/12")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(objects) != 0 {
		t.Fatalf("expected empty listing, got %d objects", len(objects))
	}
}

func TestLocalStorageRejectsTraversal(t *testing.T) {
	store := newTestLocalStorage(t)
	ctx := context.Background()

	if _, err := store.UploadAt(ctx, "../escape.txt", []byte("x"), "text/plain"); err == nil {
		t.Fatal("expected traversal key to be rejected")
	}
	if _, err := store.UploadAt(ctx, "media/../../escape.txt", []byte("x"), "text/plain"); err == nil {
		t.Fatal("expected nested traversal key to be rejected")
	}
	if _, err := store.UploadAt(ctx, "/absolute.txt", []byte("x"), "text/plain"); err == nil {
		t.Fatal("expected absolute key to be rejected")
	}
	if _, err := store.Exists(ctx, "../somefile"); err == nil {
		t.Fatal("expected traversal lookup to be rejected")
	}
}

func TestLocalStorageRejectsEmptyPayload(t *testing.T) {
	store := newTestLocalStorage(t)

	if _, err := store.UploadAt(context.Background(), "media/x.bin", nil, ""); err == nil {
		t.Fatal("expected empty payload to be rejected")
	}
}
