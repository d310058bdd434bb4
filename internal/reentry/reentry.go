// Package reentry decides whether an accepted scan may be recorded again.
// Repeat scans are allowed by default; the redis window rejects a second
// scan of the same attendee by the same staff member within a time window.
package reentry

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"admitgate/internal/config"
	"admitgate/lib/sl"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "admitgate:reentry"

// Guard claims a scan slot with Admit. Release gives the slot back when the
// scan could not be recorded.
type Guard interface {
	Admit(ctx context.Context, eventId, userId, staffId string) (bool, error)
	Release(ctx context.Context, eventId, userId, staffId string) error
}

type AllowAll struct{}

func (AllowAll) Admit(context.Context, string, string, string) (bool, error) {
	return true, nil
}

func (AllowAll) Release(context.Context, string, string, string) error {
	return nil
}

type store interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type Window struct {
	rdb    store
	close  func() error
	window time.Duration
	log    *slog.Logger
}

func NewWindow(ctx context.Context, conf config.Reentry, log *slog.Logger) (*Window, error) {
	if conf.Window <= 0 {
		return nil, fmt.Errorf("reentry window must be positive, got %s", conf.Window)
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     conf.RedisAddr,
		Password: conf.RedisPassword,
		DB:       conf.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", conf.RedisAddr, err)
	}
	log.With(
		sl.Module("reentry"),
		slog.String("addr", conf.RedisAddr),
		slog.Duration("window", conf.Window),
	).Info("re-entry window enabled")
	return &Window{rdb: rdb, close: rdb.Close, window: conf.Window, log: log.With(sl.Module("reentry"))}, nil
}

// Admit claims the (event, user, staff) slot for the window. It returns
// false when the slot is already taken.
func (w *Window) Admit(ctx context.Context, eventId, userId, staffId string) (bool, error) {
	ok, err := w.rdb.SetNX(ctx, Key(eventId, userId, staffId), time.Now().Unix(), w.window).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx: %w", err)
	}
	if !ok {
		w.log.Debug("repeat scan inside window", sl.Event(eventId), sl.User(userId))
	}
	return ok, nil
}

// Release frees the slot so the attendee can be scanned again right away.
func (w *Window) Release(ctx context.Context, eventId, userId, staffId string) error {
	if err := w.rdb.Del(ctx, Key(eventId, userId, staffId)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (w *Window) Close() error {
	if w.close == nil {
		return nil
	}
	return w.close()
}

func Key(eventId, userId, staffId string) string {
	return strings.Join([]string{keyPrefix, eventId, userId, staffId}, ":")
}
