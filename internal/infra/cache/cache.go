package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"qrmenu-backend/config"
	"qrmenu-backend/internal/domain/subscriptions"

	"github.com/redis/go-redis/v9"
)

// Redis is nil when REDIS_URL is not configured; every helper degrades to a
// cache miss in that case.
var Redis *redis.Client

const subscriptionTTL = 60 * time.Second

func Init() {
	if config.REDIS_URL == "" {
		log.Println("REDIS_URL not set, subscription cache disabled")
		return
	}

	opt, err := redis.ParseURL(config.REDIS_URL)
	if err != nil {
		log.Println("❌ Invalid REDIS_URL, subscription cache disabled:", err)
		return
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Println("❌ Redis unreachable, subscription cache disabled:", err)
		return
	}

	Redis = client
	fmt.Println("✅ Redis connected")
}

func subscriptionKey(restaurantID uint) string {
	return fmt.Sprintf("sub:restaurant:%d", restaurantID)
}

// GetSubscription returns the cached subscription record for a restaurant.
func GetSubscription(ctx context.Context, restaurantID uint) (*subscriptions.Subscription, bool) {
	if Redis == nil {
		return nil, false
	}

	raw, err := Redis.Get(ctx, subscriptionKey(restaurantID)).Bytes()
	if err != nil {
		return nil, false
	}

	var sub subscriptions.Subscription
	if err := json.Unmarshal(raw, &sub); err != nil {
		return nil, false
	}
	return &sub, true
}

// SetSubscription caches a subscription record for a short TTL. Any write to
// the record must invalidate the key, so staleness is bounded by the TTL even
// if an invalidation is missed.
func SetSubscription(ctx context.Context, sub *subscriptions.Subscription) {
	if Redis == nil || sub == nil {
		return
	}

	raw, err := json.Marshal(sub)
	if err != nil {
		return
	}
	Redis.Set(ctx, subscriptionKey(sub.RestaurantID), raw, subscriptionTTL)
}

// InvalidateSubscription drops the cached record after any subscription write.
func InvalidateSubscription(ctx context.Context, restaurantID uint) {
	if Redis == nil {
		return
	}
	Redis.Del(ctx, subscriptionKey(restaurantID))
}
