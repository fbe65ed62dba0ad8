package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

var (
	ErrDuplicate      = errors.New("记录已存在")
	ErrStatusConflict = errors.New("状态已变更")
)

// Transactor 开启数据库事务
type Transactor struct {
	db *gorm.DB
}

func NewTransactor(db *gorm.DB) *Transactor {
	return &Transactor{db: db}
}

// Transaction fn 返回错误时回滚
func (t *Transactor) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return t.db.WithContext(ctx).Transaction(fn)
}

// Page 分页参数，Page 从 1 开始
type Page struct {
	Page int
	Size int
}

func (p Page) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.Size
}

func (p Page) Limit() int {
	if p.Size < 1 {
		return 20
	}
	return p.Size
}

// conn tx 为空时使用默认连接
func conn(db, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return db
}

// isDuplicateKey MySQL 1062 Duplicate entry
func isDuplicateKey(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
