package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"firestrike/internal/repository"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// walletGuard 钱包变更的公共前置：用户锁 + 乐观锁冲突重试
type walletGuard struct {
	locker  UserLocker
	retries int
}

// lock 获取用户锁，locker 为空时（单机测试）不加锁
func (g walletGuard) lock(ctx context.Context, userID int64) (func(), error) {
	if g.locker == nil {
		return func() {}, nil
	}
	release, err := g.locker.LockUser(ctx, userID, uuid.NewString())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSystemBusy, err)
	}
	return release, nil
}

// retry 遇到 ErrOptimisticLock 时重试整个事务
func (g walletGuard) retry(ctx context.Context, op string, fn func() error) error {
	attempts := g.retries
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for i := 0; i < attempts; i++ {
		err = fn()
		if !errors.Is(err, repository.ErrOptimisticLock) {
			return err
		}
		log.WithFields(log.Fields{
			"op":      op,
			"attempt": i + 1,
		}).Warn("乐观锁冲突，重试")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(i+1) * 10 * time.Millisecond):
		}
	}
	return fmt.Errorf("%w: %v", ErrSystemBusy, err)
}
