package cache

import (
	"context"
	"testing"
)

func TestNewRedis_EmptyURL(t *testing.T) {
	if _, err := NewRedis(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty url")
	}
}

func TestNewRedis_BadURL(t *testing.T) {
	if _, err := NewRedis(context.Background(), "http://not-redis"); err == nil {
		t.Fatal("expected error for non-redis scheme")
	}
}

func TestRedisKVStore_Key(t *testing.T) {
	s := NewRedisKVStore(nil, "dentrec:clinic_a:")
	if got := s.key("summary:123"); got != "dentrec:clinic_a:summary:123" {
		t.Errorf("unexpected key %q", got)
	}
}

func TestRedisKVStore_DeleteNothing(t *testing.T) {
	s := NewRedisKVStore(nil, "p:")
	if err := s.Delete(context.Background()); err != nil {
		t.Errorf("expected no-op for empty key list, got %v", err)
	}
}
