package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
)

// ErrMiss 缓存未命中
var ErrMiss = errors.New("cache miss")

// Backend 缓存存储，生产环境为 Redis
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Incr(ctx context.Context, key string) (int64, error)
}

// RedisBackend 基于 go-redis 的 Backend
type RedisBackend struct {
	client *redis.Client
}

func NewRedisBackend(client *redis.Client) *RedisBackend {
	return &RedisBackend{client: client}
}

func (b *RedisBackend) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := b.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	return val, err
}

func (b *RedisBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return b.client.Set(ctx, key, value, ttl).Err()
}

func (b *RedisBackend) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return b.client.Del(ctx, keys...).Err()
}

func (b *RedisBackend) Incr(ctx context.Context, key string) (int64, error) {
	return b.client.Incr(ctx, key).Result()
}

// ReadThrough 读穿透缓存
//
// 数据库是唯一数据源：未命中时调用 loader 回源并写回缓存，
// 写操作提交后由调用方显式 Invalidate。缓存故障只记日志，直接回源。
//
// 提交前开始的回源可能在 Invalidate 之后把旧值写回，
// 设置 redelete 后 Invalidate 会在延迟后再删一次
type ReadThrough struct {
	backend  Backend
	prefix   string
	redelete time.Duration
}

func NewReadThrough(backend Backend, prefix string) *ReadThrough {
	return &ReadThrough{backend: backend, prefix: prefix}
}

// WithRedelete 设置延迟二次删除的间隔，0 表示不二次删除
func (c *ReadThrough) WithRedelete(d time.Duration) *ReadThrough {
	if c != nil {
		c.redelete = d
	}
	return c
}

func (c *ReadThrough) key(k string) string {
	if c.prefix == "" {
		return k
	}
	return c.prefix + ":" + k
}

// Fetch 从缓存读取 key，未命中时调用 load 并按 ttl 写回。c 为 nil 时直接回源
func Fetch[T any](ctx context.Context, c *ReadThrough, key string, ttl time.Duration, load func(ctx context.Context) (T, error)) (T, error) {
	if c == nil {
		return load(ctx)
	}

	fullKey := c.key(key)
	raw, err := c.backend.Get(ctx, fullKey)
	if err == nil {
		var cached T
		if jsonErr := json.Unmarshal(raw, &cached); jsonErr == nil {
			return cached, nil
		}
		log.WithField("key", fullKey).Warn("缓存数据无法解析，回源")
	} else if !errors.Is(err, ErrMiss) {
		log.WithError(err).WithField("key", fullKey).Warn("读取缓存失败，回源")
	}

	value, err := load(ctx)
	if err != nil {
		return value, err
	}

	if data, jsonErr := json.Marshal(value); jsonErr == nil {
		if setErr := c.backend.Set(ctx, fullKey, data, ttl); setErr != nil {
			log.WithError(setErr).WithField("key", fullKey).Warn("写入缓存失败")
		}
	}
	return value, nil
}

// Invalidate 删除缓存键
func (c *ReadThrough) Invalidate(ctx context.Context, keys ...string) {
	if c == nil || len(keys) == 0 {
		return
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.key(k)
	}
	if err := c.backend.Del(ctx, full...); err != nil {
		log.WithError(err).WithField("keys", strings.Join(full, ",")).Warn("删除缓存失败")
	}
	if c.redelete <= 0 {
		return
	}
	time.AfterFunc(c.redelete, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := c.backend.Del(ctx, full...); err != nil {
			log.WithError(err).WithField("keys", strings.Join(full, ",")).Warn("延迟删除缓存失败")
		}
	})
}

// Generation 返回命名空间当前代数，列表类缓存把代数拼进 key
func (c *ReadThrough) Generation(ctx context.Context, namespace string) string {
	if c == nil {
		return "0"
	}
	raw, err := c.backend.Get(ctx, c.key("gen:"+namespace))
	if err != nil {
		return "0"
	}
	return string(raw)
}

// BumpGeneration 让命名空间下的所有列表缓存失效
func (c *ReadThrough) BumpGeneration(ctx context.Context, namespace string) {
	if c == nil {
		return
	}
	if _, err := c.backend.Incr(ctx, c.key("gen:"+namespace)); err != nil {
		log.WithError(err).WithField("namespace", namespace).Warn("更新缓存代数失败")
	}
}

// 常用缓存键
func TournamentKey(id int64) string { return "tournament:" + strconv.FormatInt(id, 10) }
func WalletKey(userID int64) string { return "wallet:" + strconv.FormatInt(userID, 10) }
func ProfileKey(userID int64) string { return "profile:" + strconv.FormatInt(userID, 10) }

const NamespaceTournamentList = "tournaments:list"
