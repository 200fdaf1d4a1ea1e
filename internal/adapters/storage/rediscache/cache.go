// Package rediscache wraps a Repository with Redis-backed caching of the
// board and contact listings.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/evanschultz/join/internal/app"
	"github.com/evanschultz/join/internal/domain"
)

const defaultPrefix = "join"

var errStaleGeneration = errors.New("listing read before the last eviction")

// Cache caches ListTasks and ListContacts and evicts both on every write.
// Every eviction bumps a generation counter in Redis; a listing read under an
// older generation is never stored.
type Cache struct {
	base   app.Repository
	redis  *redis.Client
	ttl    time.Duration
	prefix string
}

// New creates a caching wrapper around base.
func New(base app.Repository, client *redis.Client, ttl time.Duration, prefix string) *Cache {
	if base == nil {
		panic("rediscache.New: base repository is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Cache{base: base, redis: client, ttl: ttl, prefix: prefix}
}

func (c *Cache) CreateTask(ctx context.Context, t domain.Task) error {
	return c.write(ctx, func() error { return c.base.CreateTask(ctx, t) })
}

func (c *Cache) UpdateTask(ctx context.Context, t domain.Task) error {
	return c.write(ctx, func() error { return c.base.UpdateTask(ctx, t) })
}

func (c *Cache) UpdateTaskStatus(ctx context.Context, id string, status domain.Status, at time.Time) error {
	return c.write(ctx, func() error { return c.base.UpdateTaskStatus(ctx, id, status, at) })
}

func (c *Cache) GetTask(ctx context.Context, id string) (domain.Task, error) {
	return c.base.GetTask(ctx, id)
}

func (c *Cache) ListTasks(ctx context.Context) ([]domain.Task, error) {
	var tasks []domain.Task
	if c.load(ctx, c.tasksKey(), &tasks) {
		return tasks, nil
	}
	gen, genOK := c.generation(ctx)
	tasks, err := c.base.ListTasks(ctx)
	if err != nil {
		return nil, err
	}
	if genOK {
		c.store(ctx, c.tasksKey(), tasks, gen)
	}
	return tasks, nil
}

func (c *Cache) DeleteTask(ctx context.Context, id string) error {
	return c.write(ctx, func() error { return c.base.DeleteTask(ctx, id) })
}

func (c *Cache) CreateContact(ctx context.Context, contact domain.Contact) error {
	return c.write(ctx, func() error { return c.base.CreateContact(ctx, contact) })
}

func (c *Cache) UpdateContact(ctx context.Context, contact domain.Contact) error {
	return c.write(ctx, func() error { return c.base.UpdateContact(ctx, contact) })
}

func (c *Cache) GetContact(ctx context.Context, id string) (domain.Contact, error) {
	return c.base.GetContact(ctx, id)
}

func (c *Cache) ListContacts(ctx context.Context) ([]domain.Contact, error) {
	var contacts []domain.Contact
	if c.load(ctx, c.contactsKey(), &contacts) {
		return contacts, nil
	}
	gen, genOK := c.generation(ctx)
	contacts, err := c.base.ListContacts(ctx)
	if err != nil {
		return nil, err
	}
	if genOK {
		c.store(ctx, c.contactsKey(), contacts, gen)
	}
	return contacts, nil
}

func (c *Cache) DeleteContact(ctx context.Context, id string) error {
	return c.write(ctx, func() error { return c.base.DeleteContact(ctx, id) })
}

// Ping reports whether Redis answers.
func (c *Cache) Ping(ctx context.Context) error {
	if c.redis == nil {
		return nil
	}
	return c.redis.Ping(ctx).Err()
}

// write evicts after the base call even when it fails, since a failed
// multi-statement write may still have partially applied.
func (c *Cache) write(ctx context.Context, fn func() error) error {
	err := fn()
	c.evict(ctx)
	return err
}

func (c *Cache) load(ctx context.Context, key string, out any) bool {
	if c.redis == nil {
		return false
	}
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			_ = c.redis.Del(ctx, key).Err()
		}
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		_ = c.redis.Del(ctx, key).Err()
		return false
	}
	return true
}

// generation reads the eviction counter. A missing counter is generation zero.
func (c *Cache) generation(ctx context.Context) (uint64, bool) {
	if c.redis == nil || c.ttl == 0 {
		return 0, false
	}
	gen, err := c.redis.Get(ctx, c.generationKey()).Uint64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, false
	}
	return gen, true
}

// store sets key only while the eviction counter still equals gen.
func (c *Cache) store(ctx context.Context, key string, value any, gen uint64) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	genKey := c.generationKey()
	_ = c.redis.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Uint64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != gen {
			return errStaleGeneration
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, c.ttl)
			return nil
		})
		return err
	}, genKey)
}

func (c *Cache) evict(ctx context.Context) {
	if c.redis == nil {
		return
	}
	_, _ = c.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, c.generationKey())
		pipe.Del(ctx, c.tasksKey(), c.contactsKey())
		return nil
	})
}

func (c *Cache) tasksKey() string {
	return c.prefix + ":tasks"
}

func (c *Cache) contactsKey() string {
	return c.prefix + ":contacts"
}

func (c *Cache) generationKey() string {
	return c.prefix + ":generation"
}
