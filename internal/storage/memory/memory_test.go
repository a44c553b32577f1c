package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/merchbay/storefront/internal/storage"
)

func TestStore_GetSetDelete(t *testing.T) {
	s := New()
	ctx := context.Background()

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Get missing key: got %v, want ErrNotFound", err)
	}

	if err := s.Set(ctx, storage.KeyToken, []byte("abc")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := s.Get(ctx, storage.KeyToken)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "abc" {
		t.Fatalf("Get = %q, want %q", got, "abc")
	}

	if err := s.Delete(ctx, storage.KeyToken); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, storage.KeyToken); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Get after delete: got %v, want ErrNotFound", err)
	}

	// Deleting an absent key is not an error.
	if err := s.Delete(ctx, "missing"); err != nil {
		t.Fatalf("Delete missing key: %v", err)
	}
}

func TestStore_CopiesValues(t *testing.T) {
	s := New()
	ctx := context.Background()

	in := []byte("value")
	if err := s.Set(ctx, "k", in); err != nil {
		t.Fatalf("Set: %v", err)
	}
	in[0] = 'X'

	got, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "value" {
		t.Fatalf("stored value aliased caller buffer: %q", got)
	}

	got[0] = 'Y'
	again, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(again) != "value" {
		t.Fatalf("returned value aliased stored buffer: %q", again)
	}
}
