package repository

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"
)

func exerciseBlobStore(t *testing.T, store SessionBlobRepository) {
	t.Helper()
	ctx := context.Background()

	if _, found, err := store.Get(ctx, "missing"); err != nil || found {
		t.Fatalf("Get(missing) = found %v, err %v", found, err)
	}

	if err := store.Put(ctx, "s1", []byte(`{"v":1}`)); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, found, err := store.Get(ctx, "s1")
	if err != nil || !found {
		t.Fatalf("Get(s1) = found %v, err %v", found, err)
	}
	if !bytes.Equal(got, []byte(`{"v":1}`)) {
		t.Errorf("Get(s1) = %s", got)
	}

	// Last writer wins
	if err := store.Put(ctx, "s1", []byte(`{"v":2}`)); err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}
	got, _, _ = store.Get(ctx, "s1")
	if !bytes.Equal(got, []byte(`{"v":2}`)) {
		t.Errorf("after overwrite Get(s1) = %s", got)
	}

	if _, found, _ := store.Get(ctx, "s1.pkl"); found {
		t.Errorf("keys with a suffix must be distinct")
	}
}

func TestSessionBlobMemory(t *testing.T) {
	exerciseBlobStore(t, NewSessionBlobMemory(time.Hour))
}

func TestSessionBlobMemory_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewSessionBlobMemory(0)

	value := []byte("abc")
	if err := store.Put(ctx, "k", value); err != nil {
		t.Fatalf("Put: %v", err)
	}
	value[0] = 'x'

	got, _, _ := store.Get(ctx, "k")
	got[1] = 'y'

	again, _, _ := store.Get(ctx, "k")
	if string(again) != "abc" {
		t.Errorf("stored value was mutated: %s", again)
	}
}

func TestSessionBlobMemory_Expires(t *testing.T) {
	ctx := context.Background()
	store := NewSessionBlobMemory(20 * time.Millisecond)

	if err := store.Put(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	time.Sleep(50 * time.Millisecond)

	if _, found, _ := store.Get(ctx, "k"); found {
		t.Errorf("expected blob to expire")
	}
}

func TestSessionBlobSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.db")

	store, err := NewSessionBlobSQLite(path)
	if err != nil {
		t.Fatalf("NewSessionBlobSQLite: %v", err)
	}
	defer store.Close()

	exerciseBlobStore(t, store)
}

func TestSessionBlobSQLite_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.db")

	store, err := NewSessionBlobSQLite(path)
	if err != nil {
		t.Fatalf("NewSessionBlobSQLite: %v", err)
	}
	if err := store.Put(ctx, "s1", []byte("persisted")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	store.Close()

	reopened, err := NewSessionBlobSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	got, found, err := reopened.Get(ctx, "s1")
	if err != nil || !found || string(got) != "persisted" {
		t.Fatalf("Get after reopen = %q, %v, %v", got, found, err)
	}
}

func TestNewSessionBlobSQLite_EmptyPath(t *testing.T) {
	if _, err := NewSessionBlobSQLite(""); err == nil {
		t.Fatal("expected error for empty path")
	}
}
