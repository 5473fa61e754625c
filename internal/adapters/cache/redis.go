package cache

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

func Connect(_ context.Context, redisURL string) (*redis.Client, error) {
	if strings.HasPrefix(redisURL, "redis://") {
		opt, parseErr := redis.ParseURL(redisURL)
		if parseErr != nil {
			return nil, fmt.Errorf("parse redis url: %w", parseErr)
		}
		return redis.NewClient(opt), nil
	}
	return redis.NewClient(&redis.Options{Addr: redisURL}), nil
}

// RedisCampaignLockStore is a per-campaign advisory lock. A held lock means
// another process is mid-run on the campaign; the TTL caps how long a crashed
// holder can block the next run.
type RedisCampaignLockStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCampaignLockStore(client *redis.Client, ttl time.Duration) *RedisCampaignLockStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &RedisCampaignLockStore{client: client, ttl: ttl}
}

func (s *RedisCampaignLockStore) Acquire(ctx context.Context, campaignID int64) (bool, error) {
	ok, err := s.client.SetNX(ctx, lockKey(campaignID), "1", s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire campaign lock: %w", err)
	}
	return ok, nil
}

func (s *RedisCampaignLockStore) Release(ctx context.Context, campaignID int64) error {
	return s.client.Del(ctx, lockKey(campaignID)).Err()
}

func lockKey(campaignID int64) string {
	return "skygrow:campaign:lock:" + strconv.FormatInt(campaignID, 10)
}
