package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Key patterns for live campaign data.
func stateKey(gameID string) string  { return "game:" + gameID + ":state" }
func reportKey(gameID string) string { return "game:" + gameID + ":report" }
func idleKey(gameID string) string   { return "game:" + gameID + ":idle" }

// IdleKeyGameID extracts the game ID from an expired idle key, or "" when
// key is not one.
func IdleKeyGameID(key string) string {
	if !strings.HasPrefix(key, "game:") || !strings.HasSuffix(key, ":idle") {
		return ""
	}
	parts := strings.SplitN(key, ":", 3)
	if len(parts) != 3 {
		return ""
	}
	return parts[1]
}

// SetGameState stores the encoded live ledger.
func (c *Client) SetGameState(ctx context.Context, gameID string, state []byte) error {
	if err := c.rdb.Set(ctx, stateKey(gameID), state, 0).Err(); err != nil {
		return fmt.Errorf("set game state: %w", err)
	}
	return nil
}

// GetGameState retrieves the encoded live ledger, or nil if none is cached.
func (c *Client) GetGameState(ctx context.Context, gameID string) ([]byte, error) {
	data, err := c.rdb.Get(ctx, stateKey(gameID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get game state: %w", err)
	}
	return data, nil
}

// SetReport stores the opponent's last-turn report.
func (c *Client) SetReport(ctx context.Context, gameID string, report json.RawMessage) error {
	if err := c.rdb.Set(ctx, reportKey(gameID), []byte(report), 0).Err(); err != nil {
		return fmt.Errorf("set report: %w", err)
	}
	return nil
}

// GetReport retrieves the opponent's last-turn report, or nil.
func (c *Client) GetReport(ctx context.Context, gameID string) (json.RawMessage, error) {
	data, err := c.rdb.Get(ctx, reportKey(gameID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get report: %w", err)
	}
	return json.RawMessage(data), nil
}

// TouchIdle (re)arms the idle key. Its expiry is delivered as a keyspace
// notification and evicts the in-memory session.
func (c *Client) TouchIdle(ctx context.Context, gameID string, ttl time.Duration) error {
	if err := c.rdb.Set(ctx, idleKey(gameID), time.Now().Add(ttl).Unix(), ttl).Err(); err != nil {
		return fmt.Errorf("touch idle: %w", err)
	}
	return nil
}

// ClearIdle removes the idle key so no eviction fires.
func (c *Client) ClearIdle(ctx context.Context, gameID string) error {
	return c.rdb.Del(ctx, idleKey(gameID)).Err()
}

// DeleteGameData removes every key for a game.
func (c *Client) DeleteGameData(ctx context.Context, gameID string) error {
	keys := []string{stateKey(gameID), reportKey(gameID), idleKey(gameID)}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("delete game data: %w", err)
	}
	return nil
}
