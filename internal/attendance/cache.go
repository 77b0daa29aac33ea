package attendance

import (
	"context"
	"fmt"
	"time"

	"github.com/traineo/backend/internal/telemetry/metrics"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
)

const (
	dashboardCacheKeyPrefix = "traineo-dashboard||"
	dashboardCacheTTL       = 10 * time.Minute
)

// DashboardCache memoizes rendered dashboard payloads in redis. Entries
// for a trainee are tracked in a per-trainee set so a new check-in can
// drop all of them at once.
type DashboardCache struct {
	redisClient *redis.Client
	metrics     *metrics.Manager
	ttl         time.Duration
}

func NewDashboardCache(redisClient *redis.Client, metrics *metrics.Manager) *DashboardCache {
	return &DashboardCache{
		redisClient: redisClient,
		metrics:     metrics,
		ttl:         dashboardCacheTTL,
	}
}

func dashboardCacheKey(traineeID int, view string) string {
	return fmt.Sprintf("%s%d||%s", dashboardCacheKeyPrefix, traineeID, view)
}

func dashboardCacheSetKey(traineeID int) string {
	return fmt.Sprintf("%s%d||keys", dashboardCacheKeyPrefix, traineeID)
}

func (c *DashboardCache) Get(ctx context.Context, traineeID int, view string) ([]byte, bool) {
	payload, err := c.redisClient.Get(ctx, dashboardCacheKey(traineeID, view)).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Errorf("dashboard cache: get %s for trainee %d: %s", view, traineeID, err)
		}
		c.metrics.CounterStatsCacheMisses.Inc()
		return nil, false
	}
	c.metrics.CounterStatsCacheHits.Inc()
	return payload, true
}

func (c *DashboardCache) Set(ctx context.Context, traineeID int, view string, payload []byte) {
	key := dashboardCacheKey(traineeID, view)
	if err := c.redisClient.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		log.Errorf("dashboard cache: set %s for trainee %d: %s", view, traineeID, err)
		return
	}
	if err := c.redisClient.SAdd(ctx, dashboardCacheSetKey(traineeID), key).Err(); err != nil {
		log.Errorf("dashboard cache: track key %s: %s", key, err)
	}
}

// InvalidateTrainee drops every cached view for the trainee.
func (c *DashboardCache) InvalidateTrainee(ctx context.Context, traineeID int) {
	setKey := dashboardCacheSetKey(traineeID)
	keys, err := c.redisClient.SMembers(ctx, setKey).Result()
	if err != nil {
		log.Errorf("dashboard cache: list keys for trainee %d: %s", traineeID, err)
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.redisClient.Del(ctx, append(keys, setKey)...).Err(); err != nil {
		log.Errorf("dashboard cache: invalidate trainee %d: %s", traineeID, err)
	}
}
