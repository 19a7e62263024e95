package redis

import (
	"CodeCollab/models/postgres"
	redis_models "CodeCollab/models/redis"
	redis_utils "CodeCollab/services/redis/utils"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned when a key is not present in Redis
var ErrCacheMiss = errors.New("cache miss")

const roomTTL = 24 * time.Hour

// RedisClient handles Redis operations
type RedisClient struct {
	client *redis.Client
	ctx    context.Context
}

// NewRedisClient creates a new Redis client instance.
// Addr is either a plain "host:port" or a redis:// URL.
func NewRedisClient(Addr string, DB int) (*RedisClient, error) {
	var client *redis.Client
	if Addr != "localhost:6379" {
		log.Println("Connecting to remote Redis...")
		opt, err := redis.ParseURL(Addr)
		if err != nil {
			return nil, fmt.Errorf("error parsing Redis URL: %v", err)
		}
		client = redis.NewClient(opt)
	} else {
		client = redis.NewClient(&redis.Options{
			Addr: Addr,
			DB:   DB,
		})
	}
	return &RedisClient{
		client: client,
		ctx:    context.Background(),
	}, nil
}

// SaveRoom stores a room snapshot in Redis
// Key format: "room:{code}"
// TTL: 24 hours
func (rc *RedisClient) SaveRoom(room *postgres.Room) error {
	key := redis_utils.FormatRoomKey(room.Code)
	data, err := json.Marshal(redis_models.RoomSnapshot{
		Code:            room.Code,
		Name:            room.Name,
		PasswordHash:    room.PasswordHash,
		CreatorUsername: room.CreatorUsername,
		Members:         room.Members,
		CurrentCode:     room.CurrentCode,
		CurrentLanguage: room.CurrentLanguage,
		IsActive:        room.IsActive,
		CreatedAt:       room.CreatedAt,
		LastActivity:    room.LastActivity,
	})
	if err != nil {
		return fmt.Errorf("error marshaling room data: %v", err)
	}
	return rc.client.Set(rc.ctx, key, data, roomTTL).Err()
}

// GetRoom retrieves a room snapshot from Redis
// Key format: "room:{code}"
// Returns ErrCacheMiss when the key does not exist
func (rc *RedisClient) GetRoom(code string) (*postgres.Room, error) {
	key := redis_utils.FormatRoomKey(code)
	data, err := rc.client.Get(rc.ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("error getting room data: %v", err)
	}

	var snapshot redis_models.RoomSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("error unmarshaling room data: %v", err)
	}
	return &postgres.Room{
		Code:            snapshot.Code,
		Name:            snapshot.Name,
		PasswordHash:    snapshot.PasswordHash,
		CreatorUsername: snapshot.CreatorUsername,
		Members:         snapshot.Members,
		CurrentCode:     snapshot.CurrentCode,
		CurrentLanguage: snapshot.CurrentLanguage,
		IsActive:        snapshot.IsActive,
		CreatedAt:       snapshot.CreatedAt,
		LastActivity:    snapshot.LastActivity,
	}, nil
}

// DeleteRoom removes a room snapshot from Redis
func (rc *RedisClient) DeleteRoom(code string) error {
	if err := rc.client.Del(rc.ctx, redis_utils.FormatRoomKey(code)).Err(); err != nil {
		return fmt.Errorf("error deleting room data: %v", err)
	}
	return nil
}
