package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"self-sim-server/internal/interfaces"
	"self-sim-server/internal/models"
)

var _ interfaces.TokenRepository = (*redisTokenRepository)(nil)

type redisTokenRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisTokenRepository creates a new Redis-backed TokenRepository.
func NewRedisTokenRepository(client *redis.Client, logger *zap.Logger) interfaces.TokenRepository {
	return &redisTokenRepository{
		client: client,
		logger: logger.Named("RedisTokenRepo"),
	}
}

// SetToken stores two keys per issued pair, each expiring with its token:
//
//	access_uuid:{AccessUUID}  -> UserID
//	refresh_uuid:{RefreshUUID} -> UserID
func (r *redisTokenRepository) SetToken(ctx context.Context, userID uuid.UUID, td *models.TokenDetails) error {
	now := time.Now()
	accessTTL := time.Unix(td.AtExpires, 0).Sub(now)
	refreshTTL := time.Unix(td.RtExpires, 0).Sub(now)
	userIDStr := userID.String()

	pipe := r.client.Pipeline()
	pipe.Set(ctx, accessKey(td.AccessUUID), userIDStr, accessTTL)
	pipe.Set(ctx, refreshKey(td.RefreshUUID), userIDStr, refreshTTL)

	r.logger.Debug("Setting tokens in Redis",
		zap.String("userID", userIDStr),
		zap.String("accessUUID", td.AccessUUID),
		zap.String("refreshUUID", td.RefreshUUID),
		zap.Duration("accessTTL", accessTTL),
		zap.Duration("refreshTTL", refreshTTL),
	)

	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Error("Failed to set token details in redis", zap.Error(err), zap.String("userID", userIDStr))
		return fmt.Errorf("failed to set token details in redis: %w", err)
	}
	return nil
}

// GetUserIDByAccessUUID retrieves the UserID behind an access token UUID.
// A missing key means the token was revoked or expired.
func (r *redisTokenRepository) GetUserIDByAccessUUID(ctx context.Context, accessUUID string) (uuid.UUID, error) {
	return r.getUserID(ctx, accessKey(accessUUID))
}

// GetUserIDByRefreshUUID retrieves the UserID behind a refresh token UUID.
func (r *redisTokenRepository) GetUserIDByRefreshUUID(ctx context.Context, refreshUUID string) (uuid.UUID, error) {
	return r.getUserID(ctx, refreshKey(refreshUUID))
}

func (r *redisTokenRepository) getUserID(ctx context.Context, key string) (uuid.UUID, error) {
	userIDStr, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			r.logger.Debug("Token not found in Redis", zap.String("key", key))
			return uuid.Nil, models.ErrTokenNotFound
		}
		r.logger.Error("Failed to get token from redis", zap.Error(err), zap.String("key", key))
		return uuid.Nil, fmt.Errorf("failed to get token from redis: %w", err)
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		// Corrupted payload means the store can no longer vouch for the token.
		r.logger.Error("Failed to parse userID from redis data",
			zap.Error(err), zap.String("key", key), zap.String("value", userIDStr))
		return uuid.Nil, fmt.Errorf("corrupted userID data in redis for key %s: %w", key, err)
	}
	return userID, nil
}

// DeleteTokens revokes the given token UUIDs and reports how many keys were
// actually removed. An empty UUID is skipped.
func (r *redisTokenRepository) DeleteTokens(ctx context.Context, accessUUID, refreshUUID string) (int64, error) {
	keys := make([]string, 0, 2)
	if accessUUID != "" {
		keys = append(keys, accessKey(accessUUID))
	}
	if refreshUUID != "" {
		keys = append(keys, refreshKey(refreshUUID))
	}
	if len(keys) == 0 {
		r.logger.Warn("DeleteTokens called with no UUIDs")
		return 0, nil
	}

	deleted, err := r.client.Del(ctx, keys...).Result()
	if err != nil {
		r.logger.Error("Failed to delete tokens from redis", zap.Error(err), zap.Strings("keys", keys))
		return 0, fmt.Errorf("failed to delete tokens from redis: %w", err)
	}
	r.logger.Info("Tokens deleted from Redis", zap.Int64("deletedCount", deleted))
	return deleted, nil
}

func accessKey(accessUUID string) string {
	return fmt.Sprintf("access_uuid:%s", accessUUID)
}

func refreshKey(refreshUUID string) string {
	return fmt.Sprintf("refresh_uuid:%s", refreshUUID)
}
