package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/disaster-watch-service/internal/config"
	"github.com/couchcryptid/disaster-watch-service/internal/domain"
	goredis "github.com/redis/go-redis/v9"
)

// ChangesChannel carries every stored settings document.
const ChangesChannel = "settings:changed"

const keyPrefix = "settings:"

// SettingsStore keeps per-user notification settings in Redis.
//
// Writes are last-write-wins: Put overwrites the whole document and then
// publishes it on ChangesChannel so other sessions of the same user converge.
type SettingsStore struct {
	client *goredis.Client
	logger *slog.Logger
}

// NewSettingsStore connects to Redis and verifies the connection.
func NewSettingsStore(cfg *config.Config, logger *slog.Logger) (*SettingsStore, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return newSettingsStore(client, logger), nil
}

func newSettingsStore(client *goredis.Client, logger *slog.Logger) *SettingsStore {
	return &SettingsStore{client: client, logger: logger}
}

// Get returns the user's settings, or the defaults when none are stored.
func (s *SettingsStore) Get(ctx context.Context, userID string) (domain.Settings, error) {
	val, err := s.client.Get(ctx, keyPrefix+userID).Bytes()
	if errors.Is(err, goredis.Nil) {
		return domain.DefaultSettings(userID), nil
	}
	if err != nil {
		return domain.Settings{}, fmt.Errorf("get settings %s: %w", userID, err)
	}

	var settings domain.Settings
	if err := json.Unmarshal(val, &settings); err != nil {
		return domain.Settings{}, fmt.Errorf("decode settings %s: %w", userID, err)
	}
	return settings, nil
}

// Put validates and stores settings, then announces the change. A failed
// announcement is logged; the write itself has already succeeded.
func (s *SettingsStore) Put(ctx context.Context, settings domain.Settings) (domain.Settings, error) {
	if err := settings.Validate(); err != nil {
		return domain.Settings{}, err
	}
	settings.UpdatedAt = domain.Now()

	data, err := json.Marshal(settings)
	if err != nil {
		return domain.Settings{}, fmt.Errorf("encode settings: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+settings.UserID, data, 0).Err(); err != nil {
		return domain.Settings{}, fmt.Errorf("put settings %s: %w", settings.UserID, err)
	}
	if err := s.client.Publish(ctx, ChangesChannel, data).Err(); err != nil {
		s.logger.Warn("settings change broadcast failed", "user_id", settings.UserID, "error", err)
	}
	return settings, nil
}

// Watch subscribes to ChangesChannel. The returned channel closes when ctx
// is cancelled or the subscription fails.
func (s *SettingsStore) Watch(ctx context.Context) (<-chan domain.Settings, error) {
	pubsub := s.client.Subscribe(ctx, ChangesChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", ChangesChannel, err)
	}

	out := make(chan domain.Settings)
	go func() {
		defer close(out)
		defer pubsub.Close()

		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				settings, err := decodeChange(msg.Payload)
				if err != nil {
					s.logger.Warn("ignoring malformed settings change", "error", err)
					continue
				}
				select {
				case out <- settings:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func decodeChange(payload string) (domain.Settings, error) {
	var settings domain.Settings
	if err := json.Unmarshal([]byte(payload), &settings); err != nil {
		return domain.Settings{}, err
	}
	if settings.UserID == "" {
		return domain.Settings{}, errors.New("settings change without user_id")
	}
	return settings, nil
}

// CheckReadiness pings Redis.
func (s *SettingsStore) CheckReadiness(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *SettingsStore) Close() error {
	return s.client.Close()
}
