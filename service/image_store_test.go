package service

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vishalseelam/ElectrocardiogramRiskEngine/config"
)

func newTestStore(t *testing.T) *ImageStore {
	t.Helper()
	store, err := NewImageStore(&config.UploadConfig{UploadDir: filepath.Join(t.TempDir(), "uploads")})
	if err != nil {
		t.Fatalf("NewImageStore failed: %v", err)
	}
	return store
}

func TestImageStoreStoreAndDelete(t *testing.T) {
	store := newTestStore(t)

	path, err := store.Store(bytes.NewReader([]byte("ecg")), "patient.JPG")
	if err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	if filepath.Dir(path) != store.Dir() {
		t.Errorf("expected file in %s, got %s", store.Dir(), path)
	}
	if !strings.HasPrefix(filepath.Base(path), tempPrefix) || filepath.Ext(path) != ".jpg" {
		t.Errorf("unexpected temp name %s", filepath.Base(path))
	}

	data, err := os.ReadFile(path)
	if err != nil || string(data) != "ecg" {
		t.Fatalf("unexpected stored content %q (%v)", data, err)
	}

	if err := store.Delete(path); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected file to be gone, stat err = %v", err)
	}
	// 重复删除不报错
	if err := store.Delete(path); err != nil {
		t.Errorf("second Delete returned %v", err)
	}
}

func TestImageStoreSameFilenameDoesNotCollide(t *testing.T) {
	store := newTestStore(t)

	p1, err := store.Store(strings.NewReader("a"), "ecg.png")
	if err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	p2, err := store.Store(strings.NewReader("b"), "ecg.png")
	if err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	if p1 == p2 {
		t.Fatalf("expected distinct paths, both %s", p1)
	}
}

func TestImageStoreIgnoresClientPath(t *testing.T) {
	store := newTestStore(t)

	path, err := store.Store(strings.NewReader("x"), "../../etc/passwd")
	if err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	if filepath.Dir(path) != store.Dir() {
		t.Errorf("file escaped upload dir: %s", path)
	}
}

func TestImageStoreSweep(t *testing.T) {
	store := newTestStore(t)

	for i := 0; i < 3; i++ {
		if _, err := store.Store(strings.NewReader("x"), "a.jpg"); err != nil {
			t.Fatalf("Store failed: %v", err)
		}
	}
	keep := filepath.Join(store.Dir(), "README")
	if err := os.WriteFile(keep, []byte("keep"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	removed, err := store.Sweep()
	if err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}
	if removed != 3 {
		t.Errorf("expected 3 removed, got %d", removed)
	}
	if _, err := os.Stat(keep); err != nil {
		t.Errorf("unrelated file removed: %v", err)
	}
}

func TestImageStoreWriteFailureIsStorageError(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Store(errReader{}, "a.jpg")
	var serr *StorageError
	if !errors.As(err, &serr) {
		t.Fatalf("expected StorageError, got %v", err)
	}

	entries, _ := os.ReadDir(store.Dir())
	if len(entries) != 0 {
		t.Errorf("partial file left behind")
	}
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }
