package history

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	dailyCountsKey = "webhook:daily_success_counts"
	dailyCountsTTL = time.Minute
)

// Cache keeps the all-time daily success aggregate in Redis so the history
// page doesn't re-run the GROUP BY on every render. Entries are dropped after
// each successful ingestion and expire on their own as a backstop.
type Cache struct {
	Client *redis.Client
}

func NewCache(client *redis.Client) *Cache {
	return &Cache{Client: client}
}

func (c *Cache) GetDailyCounts(ctx context.Context) ([]DayCount, bool) {
	val, err := c.Client.Get(ctx, dailyCountsKey).Result()
	if err != nil {
		// redis.Nil and transport errors both mean: go to the database.
		return nil, false
	}
	var counts []DayCount
	if err := json.Unmarshal([]byte(val), &counts); err != nil {
		return nil, false
	}
	return counts, true
}

func (c *Cache) SetDailyCounts(ctx context.Context, counts []DayCount) {
	data, err := json.Marshal(counts)
	if err != nil {
		return
	}
	if err := c.Client.Set(ctx, dailyCountsKey, data, dailyCountsTTL).Err(); err != nil {
		log.Printf("HISTORY: failed to cache daily counts: %v", err)
	}
}

func (c *Cache) InvalidateDailyCounts(ctx context.Context) {
	if err := c.Client.Del(ctx, dailyCountsKey).Err(); err != nil {
		log.Printf("HISTORY: failed to invalidate daily counts cache: %v", err)
	}
}
