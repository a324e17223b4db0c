package storage

import (
	"context"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"github.com/Davi2004/TarefasPlus/domain"
)

type backend interface {
	CreateTask(ctx context.Context, owner string, in domain.NewTask) (string, error)
	DeleteTask(ctx context.Context, id string) error
	GetTask(ctx context.Context, id string) (domain.Task, bool, error)
	TasksByOwner(ctx context.Context, owner string) ([]domain.Task, error)
	CreateComment(ctx context.Context, c domain.Comment) (domain.Comment, error)
	GetComment(ctx context.Context, id string) (domain.Comment, bool, error)
	DeleteComment(ctx context.Context, id string) error
	CommentsByTask(ctx context.Context, taskID string) ([]domain.Comment, error)
}

// Cache wraps a backend with a Redis cache of each owner's task list.
// Point reads and comment queries always go to the backend.
type Cache struct {
	backend
	redis *redis.Client
	ttl   time.Duration
}

// NewCache creates a caching wrapper using the provided Redis client and TTL.
func NewCache(base backend, client *redis.Client, ttl time.Duration) *Cache {
	if base == nil {
		panic("storage.NewCache: base storage is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Cache{backend: base, redis: client, ttl: ttl}
}

// generationTTL bounds how long an owner's generation counter outlives its
// last eviction.
const generationTTL = 24 * time.Hour

// storeIfCurrent writes the list only while the generation still matches the
// one read before the backend query. An absent generation reads as "".
var storeIfCurrent = redis.NewScript(`
local gen = redis.call('GET', KEYS[2]) or ''
if gen ~= ARGV[1] then
	return 0
end
redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
return 1
`)

func (c *Cache) TasksByOwner(ctx context.Context, owner string) ([]domain.Task, error) {
	if tasks, ok := c.loadTasks(ctx, owner); ok {
		return tasks, nil
	}
	gen, genOK := c.generation(ctx, owner)
	tasks, err := c.backend.TasksByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	if genOK {
		c.storeTasks(ctx, owner, gen, tasks)
	}
	return tasks, nil
}

func (c *Cache) CreateTask(ctx context.Context, owner string, in domain.NewTask) (string, error) {
	id, err := c.backend.CreateTask(ctx, owner, in)
	if err != nil {
		return "", err
	}
	c.Evict(ctx, owner)
	return id, nil
}

func (c *Cache) DeleteTask(ctx context.Context, id string) error {
	task, found, err := c.backend.GetTask(ctx, id)
	if err != nil {
		return err
	}
	if err := c.backend.DeleteTask(ctx, id); err != nil {
		return err
	}
	if found {
		c.Evict(ctx, task.Owner)
	}
	return nil
}

// Evict drops the cached task list of owner and bumps its generation, so a
// list read that started before the eviction is never written back.
func (c *Cache) Evict(ctx context.Context, owner string) {
	if c.redis == nil {
		return
	}
	_, _ = c.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, generationKey(owner))
		pipe.Expire(ctx, generationKey(owner), generationTTL)
		pipe.Del(ctx, TasksCacheKey(owner))
		return nil
	})
}

func (c *Cache) generation(ctx context.Context, owner string) (string, bool) {
	if c.redis == nil || c.ttl == 0 {
		return "", false
	}
	gen, err := c.redis.Get(ctx, generationKey(owner)).Result()
	switch {
	case err == redis.Nil:
		return "", true
	case err != nil:
		return "", false
	}
	return gen, true
}

func (c *Cache) loadTasks(ctx context.Context, owner string) ([]domain.Task, bool) {
	if c.redis == nil {
		return nil, false
	}
	data, err := c.redis.Get(ctx, TasksCacheKey(owner)).Bytes()
	if err != nil {
		if err != redis.Nil {
			// On redis errors fall back to the backing storage without failing.
			_ = c.redis.Del(ctx, TasksCacheKey(owner)).Err()
		}
		return nil, false
	}
	var tasks []domain.Task
	if err := sonic.Unmarshal(data, &tasks); err != nil {
		_ = c.redis.Del(ctx, TasksCacheKey(owner)).Err()
		return nil, false
	}
	return tasks, true
}

func (c *Cache) storeTasks(ctx context.Context, owner, gen string, tasks []domain.Task) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := sonic.Marshal(tasks)
	if err != nil {
		return
	}
	keys := []string{TasksCacheKey(owner), generationKey(owner)}
	_ = storeIfCurrent.Run(ctx, c.redis, keys, gen, data, c.ttl.Milliseconds()).Err()
}

// TasksCacheKey is the Redis key holding the task list of owner.
func TasksCacheKey(owner string) string {
	return "tasks:" + owner
}

func generationKey(owner string) string {
	return "tasks-gen:" + owner
}
