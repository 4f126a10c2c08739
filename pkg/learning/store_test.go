package learning

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func testStoreRoundTrip(t *testing.T, store ModelStore) {
	t.Helper()
	ctx := context.Background()

	if _, err := store.Load(ctx, "missing"); !errors.Is(err, ErrModelNotFound) {
		t.Errorf("expected ErrModelNotFound, got %v", err)
	}

	model, err := Train(nil, sampleExamples())
	if err != nil {
		t.Fatalf("Train failed: %v", err)
	}
	if err := store.Save(ctx, "default", model); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	// saving twice replaces the snapshot
	if err := store.Save(ctx, "default", model); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}

	loaded, err := store.Load(ctx, "default")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.ID != model.ID {
		t.Errorf("loaded ID %s, expected %s", loaded.ID, model.ID)
	}

	want, _ := model.Predict("Password Expiration", "Reset your password now")
	got, err := loaded.Predict("Password Expiration", "Reset your password now")
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if got.Label != want.Label || got.Confidence != want.Confidence {
		t.Errorf("loaded model predicts %+v, expected %+v", got, want)
	}
}

func TestFileStore(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "models"))
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	defer store.Close()

	testStoreRoundTrip(t, store)
}

func TestSQLiteStore(t *testing.T) {
	store, err := NewSQLStore(context.Background(), "sqlite3", filepath.Join(t.TempDir(), "models.db"))
	if err != nil {
		t.Skipf("SQLite not available: %v", err)
	}
	defer store.Close()

	testStoreRoundTrip(t, store)
}

func TestSQLStoreRejectsUnknownDriver(t *testing.T) {
	if _, err := NewSQLStore(context.Background(), "postgres", ""); err == nil {
		t.Error("expected error for unsupported driver")
	}
}
