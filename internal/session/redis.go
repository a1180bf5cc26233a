package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/comercio-labs/admin-console-service/internal/config"
)

const sessionKeyPrefix = "session:"

// RedisStore keeps session tokens in Redis so sessions survive console
// restarts and are shared across replicas.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time
}

var _ Store = (*RedisStore)(nil)

func NewRedisStore(cfg config.RedisConfig, sessionCfg config.SessionConfig, logger *zap.Logger) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return &RedisStore{
		client: client,
		ttl:    sessionCfg.TTL,
		logger: logger,
		now:    time.Now,
	}
}

func (s *RedisStore) Create(ctx context.Context, token string) (string, error) {
	sessionID := uuid.NewString()
	key := sessionKeyPrefix + sessionID
	ttl := TokenTTL(token, s.ttl, s.now())

	if err := s.client.Set(ctx, key, token, ttl).Err(); err != nil {
		s.logger.Error("session store failed", zap.Error(err))
		return "", err
	}

	s.logger.Debug("session created",
		zap.String("session_id", sessionID),
		zap.Duration("ttl", ttl))
	return sessionID, nil
}

func (s *RedisStore) Lookup(ctx context.Context, sessionID string) (string, error) {
	token, err := s.client.Get(ctx, sessionKeyPrefix+sessionID).Result()
	if err == redis.Nil {
		return "", ErrNoSession
	}
	if err != nil {
		return "", fmt.Errorf("session lookup: %w", err)
	}
	return token, nil
}

func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, sessionKeyPrefix+sessionID).Err(); err != nil {
		s.logger.Error("session delete failed",
			zap.String("session_id", sessionID),
			zap.Error(err))
		return err
	}
	s.logger.Debug("session deleted", zap.String("session_id", sessionID))
	return nil
}

// Close releases the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
