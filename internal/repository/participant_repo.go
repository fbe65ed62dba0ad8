package repository

import (
	"context"
	"errors"

	"firestrike/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrParticipantNotFound = errors.New("报名记录不存在")

type ParticipantRepository struct {
	db *gorm.DB
}

func NewParticipantRepository(db *gorm.DB) *ParticipantRepository {
	return &ParticipantRepository{db: db}
}

func (r *ParticipantRepository) Create(ctx context.Context, tx *gorm.DB, p *model.Participant) error {
	err := conn(r.db, tx).WithContext(ctx).Create(p).Error
	if isDuplicateKey(err) {
		return ErrDuplicate
	}
	return err
}

func (r *ParticipantRepository) GetByID(ctx context.Context, id int64) (*model.Participant, error) {
	var p model.Participant
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrParticipantNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *ParticipantRepository) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id int64) (*model.Participant, error) {
	var p model.Participant
	err := conn(r.db, tx).WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrParticipantNotFound
		}
		return nil, err
	}
	return &p, nil
}

// FindByTournamentAndUser 未报名时返回 nil, nil
func (r *ParticipantRepository) FindByTournamentAndUser(ctx context.Context, tx *gorm.DB, tournamentID, userID int64) (*model.Participant, error) {
	var p model.Participant
	err := conn(r.db, tx).WithContext(ctx).
		Where("tournament_id = ? AND user_id = ?", tournamentID, userID).
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// FindByWalletTransactionID UPI 报名单据对应的报名记录，不存在时返回 nil, nil
func (r *ParticipantRepository) FindByWalletTransactionID(ctx context.Context, tx *gorm.DB, walletTxID int64) (*model.Participant, error) {
	var p model.Participant
	err := conn(r.db, tx).WithContext(ctx).
		Where("wallet_transaction_id = ?", walletTxID).
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// TakenSlots 已占用的位置号
func (r *ParticipantRepository) TakenSlots(ctx context.Context, tx *gorm.DB, tournamentID int64) ([]int, error) {
	var slots []int
	err := conn(r.db, tx).WithContext(ctx).
		Model(&model.Participant{}).
		Where("tournament_id = ?", tournamentID).
		Order("slot_number ASC").
		Pluck("slot_number", &slots).Error
	return slots, err
}

func (r *ParticipantRepository) UpdateResult(ctx context.Context, tx *gorm.DB, id int64, result string) error {
	res := conn(r.db, tx).WithContext(ctx).
		Model(&model.Participant{}).
		Where("id = ?", id).
		Update("result", result)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrParticipantNotFound
	}
	return nil
}

func (r *ParticipantRepository) UpdatePaymentStatus(ctx context.Context, tx *gorm.DB, id int64, status string) error {
	res := conn(r.db, tx).WithContext(ctx).
		Model(&model.Participant{}).
		Where("id = ?", id).
		Update("payment_status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrParticipantNotFound
	}
	return nil
}

func (r *ParticipantRepository) Delete(ctx context.Context, tx *gorm.DB, id int64) error {
	res := conn(r.db, tx).WithContext(ctx).Where("id = ?", id).Delete(&model.Participant{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrParticipantNotFound
	}
	return nil
}

func (r *ParticipantRepository) ListByTournament(ctx context.Context, tournamentID int64) ([]*model.Participant, error) {
	var items []*model.Participant
	err := r.db.WithContext(ctx).
		Where("tournament_id = ?", tournamentID).
		Order("slot_number ASC").
		Find(&items).Error
	return items, err
}

func (r *ParticipantRepository) ListByUser(ctx context.Context, userID int64, page Page) ([]*model.Participant, int64, error) {
	var items []*model.Participant
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Participant{}).Where("user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Order("created_at DESC, id DESC").
		Offset(page.Offset()).
		Limit(page.Limit()).
		Find(&items).Error
	return items, total, err
}
