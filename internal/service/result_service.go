package service

import (
	"context"
	"fmt"
	"strconv"

	"firestrike/internal/config"
	"firestrike/internal/events"
	"firestrike/internal/model"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type ResultService struct {
	tx           Transactor
	tournaments  TournamentRepository
	participants ParticipantRepository
	recorder     eventRecorder
	bus          *events.Bus
	cfg          *config.Config
}

func NewResultService(tx Transactor, tournaments TournamentRepository, participants ParticipantRepository, outbox OutboxRepository, bus *events.Bus, cfg *config.Config) *ResultService {
	return &ResultService{
		tx:           tx,
		tournaments:  tournaments,
		participants: participants,
		recorder:     eventRecorder{outbox: outbox},
		bus:          bus,
		cfg:          cfg,
	}
}

// MarkResult 标记比赛成绩，重复标记相同成绩不改状态也不发事件；报名费待审核时拒绝
//
// 返回 changed 表示是否真正写入
func (s *ResultService) MarkResult(ctx context.Context, adminID, participantID int64, result string) (*model.Participant, bool, error) {
	if !model.IsValidResult(result) {
		return nil, false, ErrInvalidResult
	}

	var (
		participant *model.Participant
		changed     bool
	)
	tb := events.NewTransactionalBus(s.bus)
	err := s.tx.Transaction(ctx, func(tx *gorm.DB) error {
		p, err := s.participants.GetByIDForUpdate(ctx, tx, participantID)
		if err != nil {
			return err
		}
		participant = p

		t, err := s.tournaments.GetByID(ctx, p.TournamentID)
		if err != nil {
			return err
		}
		if t.Status != model.TournamentStatusStarted && t.Status != model.TournamentStatusCompleted {
			return ErrTournamentNotStarted
		}

		if p.HasResult(result) {
			return nil
		}
		// 报名费待审核时不能记成绩，驳回会删除报名记录
		if p.PaymentStatus == model.PaymentStatusPending {
			return ErrPaymentPending
		}

		if err := s.participants.UpdateResult(ctx, tx, p.ID, result); err != nil {
			return fmt.Errorf("更新比赛结果失败: %w", err)
		}
		r := result
		p.Result = &r
		changed = true

		return s.recorder.record(ctx, tx, tb, s.cfg.Kafka.Topic.Tournament, strconv.FormatInt(t.ID, 10), events.ResultMarkedEvent{
			ParticipantID:   p.ID,
			TournamentID:    t.ID,
			TournamentTitle: t.Title,
			UserID:          p.UserID,
			Result:          result,
			MarkedBy:        adminID,
		})
	})
	if err != nil {
		tb.Discard()
		return nil, false, err
	}
	tb.Flush()

	if changed {
		log.WithFields(log.Fields{
			"participant_id": participantID,
			"result":         result,
			"admin_id":       adminID,
		}).Info("比赛结果已标记")
	}
	return participant, changed, nil
}
