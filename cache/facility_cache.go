// Package cache keeps facility reads off the database.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"facility-booking/config"
	"facility-booking/logger"
	"facility-booking/models/facility"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// FacilityCache is best effort: misses and errors fall through to the repository.
type FacilityCache interface {
	Get(ctx context.Context, id string) (*facility.Facility, bool)
	Set(ctx context.Context, f *facility.Facility)
	Invalidate(ctx context.Context, id string)
}

type Nop struct{}

func (Nop) Get(context.Context, string) (*facility.Facility, bool) { return nil, false }
func (Nop) Set(context.Context, *facility.Facility)                {}
func (Nop) Invalidate(context.Context, string)                     {}

// NewRedisClient connects and pings; an error means the cache should be disabled.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	logger.Success("Successfully connected to Redis")
	return client, nil
}

type RedisFacilityCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisFacilityCache(client *redis.Client, ttl time.Duration) *RedisFacilityCache {
	return &RedisFacilityCache{client: client, ttl: ttl}
}

func facilityKey(id string) string {
	return "facility:" + id
}

func (c *RedisFacilityCache) Get(ctx context.Context, id string) (*facility.Facility, bool) {
	data, err := c.client.Get(ctx, facilityKey(id)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.WithFields(logrus.Fields{"facility_id": id}).WithError(err).Warn("⚠️ facility cache read failed")
		}
		return nil, false
	}

	var f facility.Facility
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, false
	}
	return &f, true
}

func (c *RedisFacilityCache) Set(ctx context.Context, f *facility.Facility) {
	data, err := json.Marshal(f)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, facilityKey(f.ID), data, c.ttl).Err(); err != nil {
		logger.WithFields(logrus.Fields{"facility_id": f.ID}).WithError(err).Warn("⚠️ facility cache write failed")
	}
}

func (c *RedisFacilityCache) Invalidate(ctx context.Context, id string) {
	if err := c.client.Del(ctx, facilityKey(id)).Err(); err != nil {
		logger.WithFields(logrus.Fields{"facility_id": id}).WithError(err).Warn("⚠️ facility cache invalidation failed")
	}
}
