package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"cahier-service/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// ExerciseLoader fetches exercise records from a backing store.
type ExerciseLoader interface {
	GetExercise(ctx context.Context, id string) (domain.Exercise, error)
}

// ExerciseCache keeps whole exercise records (content + answer key) as JSON
// values in Redis and falls back to the loader on a miss. Keys:
// SET exercise:{id} {json} with TTL.
type ExerciseCache struct {
	client *redis.Client
	loader ExerciseLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewExerciseCache(client *redis.Client, loader ExerciseLoader, ttl time.Duration) *ExerciseCache {
	return &ExerciseCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *ExerciseCache) GetExercise(ctx context.Context, id string) (domain.Exercise, error) {
	if ex, ok := c.lookup(ctx, id); ok {
		return ex, nil
	}

	result, err, _ := c.sf.Do(id, func() (interface{}, error) {
		// Re-check in case another goroutine filled the cache.
		if ex, ok := c.lookup(ctx, id); ok {
			return ex, nil
		}

		ex, err := c.loader.GetExercise(ctx, id)
		if err != nil {
			return domain.Exercise{}, err
		}

		if data, err := json.Marshal(ex); err == nil {
			// best-effort: a failed SET only costs the next reader a load
			_ = c.client.Set(ctx, c.key(id), data, c.ttlWithJitter()).Err()
		}
		return ex, nil
	})
	if err != nil {
		return domain.Exercise{}, err
	}
	return result.(domain.Exercise), nil
}

// Invalidate drops one cached record after an admin write.
func (c *ExerciseCache) Invalidate(id string) {
	_ = c.client.Del(context.Background(), c.key(id)).Err()
}

func (c *ExerciseCache) lookup(ctx context.Context, id string) (domain.Exercise, bool) {
	data, err := c.client.Get(ctx, c.key(id)).Bytes()
	if err != nil || len(data) == 0 {
		return domain.Exercise{}, false
	}
	var ex domain.Exercise
	if err := json.Unmarshal(data, &ex); err != nil {
		return domain.Exercise{}, false
	}
	return ex, true
}

func (c *ExerciseCache) key(id string) string {
	return "exercise:" + id
}

func (c *ExerciseCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
