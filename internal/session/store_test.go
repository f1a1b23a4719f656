package session

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/smartwin-lab/smartwin/internal/membership"
)

func sampleAccount() membership.Account {
	expiry := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	return membership.Account{
		ID:             "0d9c3a5e-7a53-4c53-9c55-7d5c0b8e9a10",
		Phone:          "13800138000",
		PasswordHash:   []byte("$2a$04$hash"),
		Tier:           membership.TierL2,
		ExpiryDate:     &expiry,
		InvitationCode: "SW-ABC123",
		CreatedAt:      time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
	}
}

func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()
	token := NewToken()

	if _, err := store.Load(ctx, token); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound before save, got %v", err)
	}

	acct := sampleAccount()
	if err := store.Refresh(ctx, token, acct); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected refresh of unknown token to fail, got %v", err)
	}
	if _, err := store.Load(ctx, token); !errors.Is(err, ErrNotFound) {
		t.Fatalf("refresh must not create a session, got %v", err)
	}
	if err := store.Save(ctx, token, acct); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := store.Load(ctx, token)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.ID != acct.ID || loaded.Tier != membership.TierL2 || loaded.InvitationCode != acct.InvitationCode {
		t.Fatalf("unexpected account %+v", loaded)
	}
	if loaded.ExpiryDate == nil || !loaded.ExpiryDate.Equal(*acct.ExpiryDate) {
		t.Fatalf("expiry not preserved: %v", loaded.ExpiryDate)
	}
	if len(loaded.PasswordHash) != 0 {
		t.Fatal("password hash must not be kept in the session")
	}

	upgraded := loaded
	upgraded.Tier = membership.TierL3
	upgraded.ExpiryDate = nil
	if err := store.Refresh(ctx, token, upgraded); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if loaded, err = store.Load(ctx, token); err != nil || loaded.Tier != membership.TierL3 {
		t.Fatalf("expected refreshed L3 session, got %+v (%v)", loaded, err)
	}

	if err := store.Clear(ctx, token); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := store.Load(ctx, token); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after clear, got %v", err)
	}
	if err := store.Refresh(ctx, token, upgraded); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected refresh after clear to fail, got %v", err)
	}
	if _, err := store.Load(ctx, token); !errors.Is(err, ErrNotFound) {
		t.Fatalf("refresh after clear must not restore the session, got %v", err)
	}
	if err := store.Clear(ctx, token); err != nil {
		t.Fatalf("second clear: %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestRedisStore(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	exerciseStore(t, NewRedisStore(client, time.Hour))
}

func TestRedisStoreExpires(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	store := NewRedisStore(client, time.Minute)
	ctx := context.Background()
	if err := store.Save(ctx, "tok", sampleAccount()); err != nil {
		t.Fatalf("save: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	if _, err := store.Load(ctx, "tok"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected session to expire, got %v", err)
	}
}
