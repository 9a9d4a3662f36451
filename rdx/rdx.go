package rdx

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

// Conn is the shared Redis client. It stays nil when Redis is not
// configured; callers treat a nil Conn as "no cache, no fan-out".
var Conn *redis.Client

// Init connects to Redis using REDIS_URL / REDIS_PASSWORD.
func Init(ctx context.Context) error {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     redisURL,
		Password: os.Getenv("REDIS_PASSWORD"), // Empty if no password
		DB:       0,                           // Default DB
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return err
	}
	Conn = client
	log.Printf("Connected to Redis at %s", redisURL)
	return nil
}

const changePrefix = "sync:"

// PublishChange announces that a collection's contents changed. Every
// standing subscription on that collection re-reads the full set.
func PublishChange(ctx context.Context, collection string) {
	if Conn == nil {
		return
	}
	if err := Conn.Publish(ctx, changePrefix+collection, "changed").Err(); err != nil {
		log.Printf("Redis publish %s failed: %v", collection, err)
	}
}

// SubscribeChanges opens a pub/sub subscription on a collection's change
// channel. The caller owns the returned PubSub and must Close it.
func SubscribeChanges(ctx context.Context, collection string) *redis.PubSub {
	if Conn == nil {
		return nil
	}
	return Conn.Subscribe(ctx, changePrefix+collection)
}

// --- Small string cache, used by geo and rates ---

func CacheGet(ctx context.Context, key string) (string, bool) {
	if Conn == nil {
		return "", false
	}
	val, err := Conn.Get(ctx, key).Result()
	if err != nil {
		return "", false
	}
	return val, true
}

func CacheSet(ctx context.Context, key, val string, ttl time.Duration) {
	if Conn == nil {
		return
	}
	if err := Conn.Set(ctx, key, val, ttl).Err(); err != nil {
		log.Printf("Redis set %s failed: %v", key, err)
	}
}
