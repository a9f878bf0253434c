//go:build integration

package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/freeeve/polforge/api/internal/testutil"
)

func setup(t *testing.T) *Client {
	t.Helper()
	rdb := testutil.SetupRedis(t)
	testutil.CleanupRedis(t, rdb)
	return NewClientFromPool(rdb)
}

func TestGameStateRoundTrip(t *testing.T) {
	c := setup(t)
	ctx := context.Background()

	if got, err := c.GetGameState(ctx, "g1"); err != nil || got != nil {
		t.Fatalf("empty state = %v, %v", got, err)
	}
	if err := c.SetGameState(ctx, "g1", []byte{0x28, 0xb5}); err != nil {
		t.Fatalf("SetGameState: %v", err)
	}
	got, err := c.GetGameState(ctx, "g1")
	if err != nil || len(got) != 2 || got[0] != 0x28 {
		t.Errorf("state = %v, %v", got, err)
	}
}

func TestReportRoundTrip(t *testing.T) {
	c := setup(t)
	ctx := context.Background()

	if err := c.SetReport(ctx, "g1", json.RawMessage(`{"turn":3}`)); err != nil {
		t.Fatalf("SetReport: %v", err)
	}
	got, err := c.GetReport(ctx, "g1")
	if err != nil || string(got) != `{"turn":3}` {
		t.Errorf("report = %s, %v", got, err)
	}
}

func TestIdleKeyExpires(t *testing.T) {
	c := setup(t)
	ctx := context.Background()

	if err := c.TouchIdle(ctx, "g1", time.Minute); err != nil {
		t.Fatalf("TouchIdle: %v", err)
	}
	ttl, err := c.Underlying().TTL(ctx, idleKey("g1")).Result()
	if err != nil || ttl <= 0 || ttl > time.Minute {
		t.Errorf("ttl = %v, %v", ttl, err)
	}
	if err := c.ClearIdle(ctx, "g1"); err != nil {
		t.Fatalf("ClearIdle: %v", err)
	}
	if n, _ := c.Underlying().Exists(ctx, idleKey("g1")).Result(); n != 0 {
		t.Error("idle key should be cleared")
	}
}

func TestDeleteGameData(t *testing.T) {
	c := setup(t)
	ctx := context.Background()

	_ = c.SetGameState(ctx, "g1", []byte("x"))
	_ = c.SetReport(ctx, "g1", json.RawMessage(`{}`))
	_ = c.TouchIdle(ctx, "g1", time.Minute)
	if err := c.DeleteGameData(ctx, "g1"); err != nil {
		t.Fatalf("DeleteGameData: %v", err)
	}
	if got, _ := c.GetGameState(ctx, "g1"); got != nil {
		t.Error("state should be deleted")
	}
}
