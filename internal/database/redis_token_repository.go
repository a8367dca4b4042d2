package database

import (
	"context"
	"fmt"

	"storyweave-server/internal/interfaces"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Compile-time check
var _ interfaces.TokenRepository = (*redisTokenRepository)(nil)

const revokedTokenKeyPrefix = "revoked_token:"

// redisTokenRepository проверяет черный список токенов, который ведет
// провайдер идентичности в общем Redis.
type redisTokenRepository struct {
	client *redis.Client
	logger *zap.Logger
}

func NewRedisTokenRepository(client *redis.Client, logger *zap.Logger) interfaces.TokenRepository {
	return &redisTokenRepository{
		client: client,
		logger: logger.Named("RedisTokenRepo"),
	}
}

func (r *redisTokenRepository) IsRevoked(ctx context.Context, jti string) (bool, error) {
	count, err := r.client.Exists(ctx, revokedTokenKeyPrefix+jti).Result()
	if err != nil {
		r.logger.Error("Failed to check token revocation", zap.String("jti", jti), zap.Error(err))
		return false, fmt.Errorf("ошибка проверки отзыва токена: %w", err)
	}
	return count > 0, nil
}

// NewRedisClient создает клиент Redis и проверяет соединение пингом.
func NewRedisClient(ctx context.Context, addr, password string, db int, log *zap.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	log.Info("Successfully connected to Redis", zap.String("addr", addr))
	return client, nil
}
