package store

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/bdevroede/courtplan/internal/challenge"
	"github.com/bdevroede/courtplan/internal/notify"
	"github.com/bdevroede/courtplan/internal/obslog"
	"github.com/bdevroede/courtplan/internal/schedule"
)

const (
	keyPrefix   = "tennis:"
	changesChan = "tennis:changes"
)

// RedisStore keeps every collection as one JSON value and fans out change
// messages over pub/sub so peer instances can adopt the new state.
type RedisStore struct {
	rdb      *redis.Client
	instance string
}

func NewRedisStore(redisURL string) (*RedisStore, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, fmt.Errorf("REDIS_URL required for redis store")
	}
	opts, err := parseRedisURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisStore{rdb: rdb, instance: uuid.NewString()}, nil
}

func (s *RedisStore) Close() error {
	if s == nil || s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
}

func (s *RedisStore) LoadReservations(ctx context.Context) ([]schedule.Reservation, error) {
	var out []schedule.Reservation
	err := s.load(ctx, ColReservations, &out)
	return out, err
}

func (s *RedisStore) SaveReservations(ctx context.Context, rs []schedule.Reservation) error {
	return s.save(ctx, ColReservations, rs)
}

func (s *RedisStore) LoadAvailability(ctx context.Context) (schedule.Availability, error) {
	var out schedule.Availability
	err := s.load(ctx, ColAvailability, &out)
	return out, err
}

func (s *RedisStore) SaveAvailability(ctx context.Context, a schedule.Availability) error {
	return s.save(ctx, ColAvailability, a)
}

func (s *RedisStore) LoadChallenges(ctx context.Context) ([]challenge.Challenge, error) {
	var out []challenge.Challenge
	err := s.load(ctx, ColChallenges, &out)
	return out, err
}

func (s *RedisStore) SaveChallenges(ctx context.Context, items []challenge.Challenge) error {
	return s.save(ctx, ColChallenges, items)
}

func (s *RedisStore) LoadNotifications(ctx context.Context) ([]notify.Notification, error) {
	var out []notify.Notification
	err := s.load(ctx, ColNotifications, &out)
	return out, err
}

func (s *RedisStore) SaveNotifications(ctx context.Context, items []notify.Notification) error {
	return s.save(ctx, ColNotifications, items)
}

func (s *RedisStore) LoadRemindersSent(ctx context.Context) ([]string, error) {
	var out []string
	err := s.load(ctx, ColReminders, &out)
	return out, err
}

func (s *RedisStore) SaveRemindersSent(ctx context.Context, keys []string) error {
	return s.save(ctx, ColReminders, keys)
}

func (s *RedisStore) load(ctx context.Context, collection string, into any) error {
	raw, err := s.rdb.Get(ctx, keyPrefix+collection).Bytes()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load %s: %w", collection, err)
	}
	if err := json.Unmarshal(raw, into); err != nil {
		return fmt.Errorf("decode %s: %w", collection, err)
	}
	return nil
}

func (s *RedisStore) save(ctx context.Context, collection string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", collection, err)
	}
	if err := s.rdb.Set(ctx, keyPrefix+collection, raw, 0).Err(); err != nil {
		return fmt.Errorf("save %s: %w", collection, err)
	}
	// Change fanout is best effort; peers resync on their next write anyway.
	if err := s.rdb.Publish(ctx, changesChan, s.instance+"|"+collection).Err(); err != nil {
		obslog.L().Warn("store_publish_error", zap.String("collection", collection), zap.Error(err))
	}
	return nil
}

// Subscribe listens for change messages from peer instances and calls fn with
// the changed collection. Messages published by this instance are skipped.
func (s *RedisStore) Subscribe(ctx context.Context, fn func(collection string)) error {
	sub := s.rdb.Subscribe(ctx, changesChan)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			instance, collection, found := strings.Cut(msg.Payload, "|")
			if !found || instance == s.instance {
				continue
			}
			fn(collection)
		}
	}
}

func parseRedisURL(raw string) (*redis.Options, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "redis" && u.Scheme != "rediss" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	db := 0
	if p := strings.TrimPrefix(u.Path, "/"); p != "" {
		if n, err := strconv.Atoi(p); err == nil {
			db = n
		}
	}
	pass, _ := u.User.Password()
	return &redis.Options{Addr: u.Host, Password: pass, DB: db}, nil
}
