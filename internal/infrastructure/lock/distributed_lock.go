package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// 加锁：SET key value NX PX ttl
// 解锁：Lua 脚本比较 value 后删除，避免误删其他请求持有的锁

var (
	ErrLockFailed = errors.New("获取分布式锁失败")
	ErrNotHeld    = errors.New("锁已过期或被他人持有")
)

var unlockScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	else
		return 0
	end
`)

// DistributedLock 分布式锁
type DistributedLock struct {
	client     *redis.Client
	key        string        // 锁的 key
	value      string        // 持有者标识
	expiration time.Duration // 锁的过期时间
}

func NewDistributedLock(client *redis.Client, key, value string, expiration time.Duration) *DistributedLock {
	return &DistributedLock{
		client:     client,
		key:        key,
		value:      value,
		expiration: expiration,
	}
}

// TryLock 尝试获取锁（非阻塞）
func (l *DistributedLock) TryLock(ctx context.Context) (bool, error) {
	return l.client.SetNX(ctx, l.key, l.value, l.expiration).Result()
}

// Lock 阻塞式获取锁（带重试）
func (l *DistributedLock) Lock(ctx context.Context, retryInterval time.Duration, maxRetries int) error {
	for i := 0; i < maxRetries; i++ {
		success, err := l.TryLock(ctx)
		if err != nil {
			return err
		}
		if success {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryInterval):
		}
	}
	return ErrLockFailed
}

// Unlock 释放锁，只删除自己持有的锁
func (l *DistributedLock) Unlock(ctx context.Context) error {
	n, err := unlockScript.Run(ctx, l.client, []string{l.key}, l.value).Int()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotHeld
	}
	return nil
}

// UserLocker 按用户维度串行化钱包变更（报名扣费、提现申请、审核入账）
type UserLocker struct {
	client        *redis.Client
	expiration    time.Duration
	retryInterval time.Duration
	maxRetries    int
}

func NewUserLocker(client *redis.Client, retryInterval time.Duration, maxRetries int) *UserLocker {
	return &UserLocker{
		client:        client,
		expiration:    30 * time.Second,
		retryInterval: retryInterval,
		maxRetries:    maxRetries,
	}
}

// LockUser 获取用户钱包锁，返回释放函数
func (u *UserLocker) LockUser(ctx context.Context, userID int64, owner string) (func(), error) {
	l := NewDistributedLock(u.client, fmt.Sprintf("wallet:lock:user:%d", userID), owner, u.expiration)
	if err := l.Lock(ctx, u.retryInterval, u.maxRetries); err != nil {
		return nil, err
	}
	return func() {
		// 使用独立 context，请求被取消时也要释放
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = l.Unlock(releaseCtx)
	}, nil
}
