package repository

import (
	"context"
	"errors"
	"time"

	"firestrike/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrTournamentNotFound = errors.New("赛事不存在")

type TournamentRepository struct {
	db *gorm.DB
}

func NewTournamentRepository(db *gorm.DB) *TournamentRepository {
	return &TournamentRepository{db: db}
}

func (r *TournamentRepository) Create(ctx context.Context, t *model.Tournament) error {
	err := r.db.WithContext(ctx).Create(t).Error
	if isDuplicateKey(err) {
		return ErrDuplicate
	}
	return err
}

func (r *TournamentRepository) GetByID(ctx context.Context, id int64) (*model.Tournament, error) {
	var t model.Tournament
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return &t, nil
}

// GetByIDForUpdate 报名时锁住赛事行，串行化名额分配
func (r *TournamentRepository) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id int64) (*model.Tournament, error) {
	var t model.Tournament
	err := conn(r.db, tx).WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *TournamentRepository) GetByIDs(ctx context.Context, ids []int64) ([]*model.Tournament, error) {
	var items []*model.Tournament
	if len(ids) == 0 {
		return items, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&items).Error
	return items, err
}

func (r *TournamentRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Tournament{}).Where("slug = ?", slug).Count(&count).Error
	return count > 0, err
}

// UpdateFields 管理员编辑赛事，需要和名额变更互斥时传入持有行锁的 tx
func (r *TournamentRepository) UpdateFields(ctx context.Context, tx *gorm.DB, id int64, fields map[string]interface{}) error {
	result := conn(r.db, tx).WithContext(ctx).
		Model(&model.Tournament{}).
		Where("id = ?", id).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTournamentNotFound
	}
	return nil
}

// UpdateSeats 修改报名人数和状态，以 expectedPlayers 作为并发校验
func (r *TournamentRepository) UpdateSeats(ctx context.Context, tx *gorm.DB, id int64, expectedPlayers, newPlayers int, newStatus string) error {
	result := conn(r.db, tx).WithContext(ctx).
		Model(&model.Tournament{}).
		Where("id = ? AND current_players = ?", id, expectedPlayers).
		Updates(map[string]interface{}{
			"current_players": newPlayers,
			"status":          newStatus,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStatusConflict
	}
	return nil
}

// UpdateStatus 按状态机修改赛事状态
func (r *TournamentRepository) UpdateStatus(ctx context.Context, tx *gorm.DB, id int64, fromStatus, toStatus string) error {
	if !model.CanTournamentTransitionTo(fromStatus, toStatus) {
		return ErrStatusConflict
	}

	result := conn(r.db, tx).WithContext(ctx).
		Model(&model.Tournament{}).
		Where("id = ? AND status = ?", id, fromStatus).
		Update("status", toStatus)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStatusConflict
	}
	return nil
}

func (r *TournamentRepository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND current_players = 0", id).
		Delete(&model.Tournament{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStatusConflict
	}
	return nil
}

func (r *TournamentRepository) List(ctx context.Context, filter model.TournamentFilter, page Page) ([]*model.Tournament, int64, error) {
	var items []*model.Tournament
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Tournament{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Order("start_time ASC, id ASC").
		Offset(page.Offset()).
		Limit(page.Limit()).
		Find(&items).Error

	return items, total, err
}

// ListDueToStart 开赛时间已到但仍在报名阶段的赛事
func (r *TournamentRepository) ListDueToStart(ctx context.Context, now time.Time, limit int) ([]*model.Tournament, error) {
	var items []*model.Tournament
	err := r.db.WithContext(ctx).
		Where("status IN ? AND start_time <= ?",
			[]string{model.TournamentStatusOpen, model.TournamentStatusFull}, now).
		Order("start_time ASC").
		Limit(limit).
		Find(&items).Error
	return items, err
}

func (r *TournamentRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Status string
		Total  int64
	}
	err := r.db.WithContext(ctx).
		Model(&model.Tournament{}).
		Select("status, COUNT(*) AS total").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Total
	}
	return out, nil
}
