package cache

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"gymtrack/internal/domain"

	"github.com/redis/go-redis/v9"
)

const workoutListTTL = 10 * time.Minute

// redisCache implements WorkoutListCache on a Redis backend.
type redisCache struct {
	client *redis.Client
}

// NewRedis pings the Redis server at addr and returns a cache backed by it.
func NewRedis(ctx context.Context, addr, password string, db int) (WorkoutListCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &redisCache{client: client}, nil
}

func workoutListKey(externalID string) string {
	return "workouts:list:" + externalID
}

func (c *redisCache) GetList(ctx context.Context, externalID string) ([]domain.Workout, bool) {
	raw, err := c.client.Get(ctx, workoutListKey(externalID)).Bytes()
	if err != nil {
		// redis.Nil is a plain miss; anything else degrades to a miss too.
		return nil, false
	}

	var workouts []domain.Workout
	if err := json.Unmarshal(raw, &workouts); err != nil {
		log.Printf("WARN: dropping undecodable workout list cache entry for %s: %v", externalID, err)
		c.InvalidateList(ctx, externalID)
		return nil, false
	}
	return workouts, true
}

func (c *redisCache) SetList(ctx context.Context, externalID string, workouts []domain.Workout) {
	raw, err := json.Marshal(workouts)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, workoutListKey(externalID), raw, workoutListTTL).Err(); err != nil {
		log.Printf("WARN: failed to cache workout list for %s: %v", externalID, err)
	}
}

func (c *redisCache) InvalidateList(ctx context.Context, externalID string) {
	if err := c.client.Del(ctx, workoutListKey(externalID)).Err(); err != nil {
		log.Printf("WARN: failed to invalidate workout list cache for %s: %v", externalID, err)
	}
}
