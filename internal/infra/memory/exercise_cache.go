package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"cahier-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// ExerciseLoader fetches exercise records from a backing store.
type ExerciseLoader interface {
	GetExercise(ctx context.Context, id string) (domain.Exercise, error)
}

// ExerciseCache is a read-through TTL cache over an ExerciseLoader. Grading
// paths hit it on every submitted answer, so repeated loads of the same
// answer key collapse into one backing-store call.
type ExerciseCache struct {
	loader ExerciseLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedExercise
}

type cachedExercise struct {
	exercise  domain.Exercise
	expiresAt time.Time
}

func NewExerciseCache(loader ExerciseLoader, ttl time.Duration) *ExerciseCache {
	return &ExerciseCache{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedExercise),
	}
}

func (c *ExerciseCache) GetExercise(ctx context.Context, id string) (domain.Exercise, error) {
	now := c.clock()

	c.mu.RLock()
	if entry, ok := c.cache[id]; ok && entry.expiresAt.After(now) {
		c.mu.RUnlock()
		return entry.exercise, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do(id, func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if entry, ok := c.cache[id]; ok && entry.expiresAt.After(now) {
			c.mu.RUnlock()
			return entry.exercise, nil
		}
		c.mu.RUnlock()

		ex, err := c.loader.GetExercise(ctx, id)
		if err != nil {
			return domain.Exercise{}, err
		}

		c.mu.Lock()
		c.cache[id] = cachedExercise{
			exercise:  ex,
			expiresAt: now.Add(c.ttlWithJitter()),
		}
		c.mu.Unlock()
		return ex, nil
	})
	if err != nil {
		return domain.Exercise{}, err
	}
	return result.(domain.Exercise), nil
}

// Invalidate drops one entry after an admin write.
func (c *ExerciseCache) Invalidate(id string) {
	c.mu.Lock()
	delete(c.cache, id)
	c.mu.Unlock()
}

func (c *ExerciseCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
