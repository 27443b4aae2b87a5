package cache

import (
	"context"
	"errors"
	"testing"

	"pos-backend/internal/models"
)

// Without Init every helper must degrade to a miss or a no-op.
func TestDisabledCacheDegrades(t *testing.T) {
	ctx := context.Background()
	if GetClient() != nil {
		t.Skip("redis client initialized by another test")
	}

	if _, ok := GetCached(ctx, "anything"); ok {
		t.Error("GetCached() hit without redis")
	}
	SetCached(ctx, "k", []byte("v"), 0)
	InvalidatePattern(ctx, "k*")
	InvalidateKeys(ctx, "k")

	wc := NewWalletCache(0)
	wc.SetWallet(ctx, &models.Wallet{ID: "w1"})
	if _, ok := wc.GetWallet(ctx, "w1"); ok {
		t.Error("GetWallet() hit without redis")
	}
	wc.InvalidateWallet(ctx, "w1")

	if _, err := NewRedisLocker(0); !errors.Is(err, ErrDisabled) {
		t.Errorf("NewRedisLocker() error = %v, want ErrDisabled", err)
	}
	if err := Ping(ctx); !errors.Is(err, ErrDisabled) {
		t.Errorf("Ping() error = %v, want ErrDisabled", err)
	}
}

func TestWalletKey(t *testing.T) {
	if got := walletKey("abc"); got != "wallet:summary:abc" {
		t.Errorf("walletKey() = %q", got)
	}
}
