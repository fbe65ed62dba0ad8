package repository

import (
	"context"
	"errors"

	"firestrike/internal/model"

	"gorm.io/gorm"
)

var ErrProfileNotFound = errors.New("用户不存在")

type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Create 邮箱已注册返回 ErrDuplicate
func (r *ProfileRepository) Create(ctx context.Context, tx *gorm.DB, p *model.Profile) error {
	err := conn(r.db, tx).WithContext(ctx).Create(p).Error
	if isDuplicateKey(err) {
		return ErrDuplicate
	}
	return err
}

func (r *ProfileRepository) GetByID(ctx context.Context, id int64) (*model.Profile, error) {
	var p model.Profile
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *ProfileRepository) GetByEmail(ctx context.Context, email string) (*model.Profile, error) {
	var p model.Profile
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *ProfileRepository) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	result := r.db.WithContext(ctx).
		Model(&model.Profile{}).
		Where("id = ?", id).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		// 值未变化时 MySQL 也返回 0，需要确认记录是否存在
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (r *ProfileRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&model.Profile{}).Count(&total).Error
	return total, err
}

// ListWithBalance 管理后台用户列表，附带钱包余额
func (r *ProfileRepository) ListWithBalance(ctx context.Context, page Page) ([]*model.ProfileWithBalance, int64, error) {
	total, err := r.Count(ctx)
	if err != nil {
		return nil, 0, err
	}

	var items []*model.ProfileWithBalance
	err = r.db.WithContext(ctx).
		Table("profiles").
		Select("profiles.*, COALESCE(wallets.balance, 0) AS balance").
		Joins("LEFT JOIN wallets ON wallets.user_id = profiles.id").
		Order("profiles.id DESC").
		Offset(page.Offset()).
		Limit(page.Limit()).
		Scan(&items).Error
	return items, total, err
}
