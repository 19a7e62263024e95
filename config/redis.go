package config

import (
	"CodeCollab/services/redis"
	"log"
	"os"
)

// Connect_redis connects to the Redis pointed at by REDIS_URL.
// Returns (nil, nil) when REDIS_URL is not set, the server then runs without cache or relay.
func Connect_redis() (*redis.RedisClient, error) {
	redisUri := os.Getenv("REDIS_URL")
	if redisUri == "" {
		log.Println("REDIS_URL not set, running without Redis")
		return nil, nil
	}
	redisClient, err := redis.InitRedis(redisUri, 0)
	if err != nil {
		log.Printf("Error connecting to Redis: %v", err)
		return nil, err
	}
	log.Println("Redis connection established")
	return redisClient, nil
}
