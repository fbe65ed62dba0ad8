package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"firestrike/internal/config"
	"firestrike/internal/events"
	"firestrike/internal/infrastructure/cache"
	"firestrike/internal/model"
	"firestrike/internal/repository"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type TournamentService struct {
	tx          Transactor
	tournaments TournamentRepository
	recorder    eventRecorder
	bus         *events.Bus
	cache       *cache.ReadThrough
	cfg         *config.Config
	pager       pager
}

func NewTournamentService(tx Transactor, tournaments TournamentRepository, outbox OutboxRepository, bus *events.Bus, c *cache.ReadThrough, cfg *config.Config) *TournamentService {
	return &TournamentService{
		tx:          tx,
		tournaments: tournaments,
		recorder:    eventRecorder{outbox: outbox},
		bus:         bus,
		cache:       c,
		cfg:         cfg,
		pager:       newPager(cfg),
	}
}

// TournamentPage 赛事列表分页结果，整体缓存
type TournamentPage struct {
	Items []*model.Tournament `json:"items"`
	Total int64               `json:"total"`
}

func (s *TournamentService) List(ctx context.Context, filter model.TournamentFilter, page, size int) (*TournamentPage, error) {
	if filter.Status != "" && !model.IsValidTournamentStatus(filter.Status) {
		return nil, fmt.Errorf("%w: status", ErrInvalidInput)
	}
	if filter.Type != "" && !model.IsValidTournamentType(filter.Type) {
		return nil, fmt.Errorf("%w: type", ErrInvalidInput)
	}
	p := s.pager.page(page, size)

	gen := s.cache.Generation(ctx, cache.NamespaceTournamentList)
	key := fmt.Sprintf("%s:%s:%s:%s:%d:%d", cache.NamespaceTournamentList, gen, filter.Status, filter.Type, p.Page, p.Size)

	return cache.Fetch(ctx, s.cache, key, s.cfg.Cache.TournamentTTL, func(ctx context.Context) (*TournamentPage, error) {
		items, total, err := s.tournaments.List(ctx, filter, p)
		if err != nil {
			return nil, err
		}
		return &TournamentPage{Items: items, Total: total}, nil
	})
}

func (s *TournamentService) Get(ctx context.Context, id int64) (*model.Tournament, error) {
	return cache.Fetch(ctx, s.cache, cache.TournamentKey(id), s.cfg.Cache.TournamentTTL,
		func(ctx context.Context) (*model.Tournament, error) {
			return s.tournaments.GetByID(ctx, id)
		})
}

// TournamentInput 创建/修改赛事的表单，修改时 nil 表示不变
type TournamentInput struct {
	Title       *string
	Type        *string
	EntryFee    *decimal.Decimal
	PrizePool   *decimal.Decimal
	MaxPlayers  *int
	StartTime   *time.Time
	Description *string
}

func (s *TournamentService) Create(ctx context.Context, in TournamentInput) (*model.Tournament, error) {
	if in.Title == nil || strings.TrimSpace(*in.Title) == "" {
		return nil, fmt.Errorf("%w: title", ErrInvalidInput)
	}
	if in.Type == nil || !model.IsValidTournamentType(*in.Type) {
		return nil, fmt.Errorf("%w: type", ErrInvalidInput)
	}
	if in.MaxPlayers == nil || *in.MaxPlayers < 1 {
		return nil, fmt.Errorf("%w: max_players", ErrInvalidInput)
	}
	if in.StartTime == nil || in.StartTime.IsZero() {
		return nil, fmt.Errorf("%w: start_time", ErrInvalidInput)
	}

	t := &model.Tournament{
		Title:      strings.TrimSpace(*in.Title),
		Type:       *in.Type,
		EntryFee:   decimal.Zero,
		PrizePool:  decimal.Zero,
		MaxPlayers: *in.MaxPlayers,
		StartTime:  in.StartTime.UTC(),
		Status:     model.TournamentStatusOpen,
	}
	if in.EntryFee != nil {
		if in.EntryFee.IsNegative() {
			return nil, fmt.Errorf("%w: entry_fee", ErrInvalidInput)
		}
		t.EntryFee = in.EntryFee.Round(2)
	}
	if in.PrizePool != nil {
		if in.PrizePool.IsNegative() {
			return nil, fmt.Errorf("%w: prize_pool", ErrInvalidInput)
		}
		t.PrizePool = in.PrizePool.Round(2)
	}
	if in.Description != nil {
		t.Description = *in.Description
	}

	slugStr, err := s.uniqueSlug(ctx, t.Title)
	if err != nil {
		return nil, err
	}
	t.Slug = slugStr

	if err := s.tournaments.Create(ctx, t); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// 并发创建同名赛事，换一个后缀重试一次
			t.Slug = slugStr + "-" + uuid.NewString()[:8]
			err = s.tournaments.Create(ctx, t)
		}
		if err != nil {
			return nil, fmt.Errorf("创建赛事失败: %w", err)
		}
	}

	s.cache.BumpGeneration(afterCommit(ctx), cache.NamespaceTournamentList)
	log.WithFields(log.Fields{
		"tournament_id": t.ID,
		"slug":          t.Slug,
	}).Info("赛事已创建")
	return t, nil
}

func (s *TournamentService) uniqueSlug(ctx context.Context, title string) (string, error) {
	base := slug.Make(title)
	if base == "" {
		base = "tournament"
	}
	candidate := base
	for i := 2; i <= 5; i++ {
		exists, err := s.tournaments.SlugExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = base + "-" + strconv.Itoa(i)
	}
	return base + "-" + uuid.NewString()[:8], nil
}

// Update 修改赛事信息；已有报名时不能改报名费，名额不能低于当前人数
//
// 在事务内锁住赛事行再校验，和报名互斥
func (s *TournamentService) Update(ctx context.Context, id int64, in TournamentInput) (*model.Tournament, error) {
	var t *model.Tournament
	changed := false
	tb := events.NewTransactionalBus(s.bus)
	err := s.tx.Transaction(ctx, func(tx *gorm.DB) error {
		var err error
		t, err = s.tournaments.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		fields, err := tournamentChanges(t, in)
		if err != nil {
			return err
		}
		if len(fields) == 0 {
			return nil
		}
		if err := s.tournaments.UpdateFields(ctx, tx, id, fields); err != nil {
			return fmt.Errorf("修改赛事失败: %w", err)
		}
		changed = true
		if status, ok := fields["status"].(string); ok {
			ev := events.TournamentStatusChangedEvent{TournamentID: id, OldStatus: t.Status, NewStatus: status}
			return s.recorder.record(ctx, tx, tb, s.cfg.Kafka.Topic.Tournament, strconv.FormatInt(id, 10), ev)
		}
		return nil
	})
	if err != nil {
		tb.Discard()
		return nil, err
	}
	if !changed {
		return t, nil
	}

	s.invalidate(ctx, id)
	tb.Flush()
	return s.tournaments.GetByID(ctx, id)
}

// tournamentChanges 校验表单并返回要更新的列，t 必须是加锁后读到的行
func tournamentChanges(t *model.Tournament, in TournamentInput) (map[string]interface{}, error) {
	fields := map[string]interface{}{}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: title", ErrInvalidInput)
		}
		fields["title"] = title
	}
	if in.Type != nil {
		if !model.IsValidTournamentType(*in.Type) {
			return nil, fmt.Errorf("%w: type", ErrInvalidInput)
		}
		fields["type"] = *in.Type
	}
	if in.EntryFee != nil {
		if in.EntryFee.IsNegative() {
			return nil, fmt.Errorf("%w: entry_fee", ErrInvalidInput)
		}
		if t.CurrentPlayers > 0 && !in.EntryFee.Equal(t.EntryFee) {
			return nil, ErrTournamentHasEntries
		}
		fields["entry_fee"] = in.EntryFee.Round(2)
	}
	if in.PrizePool != nil {
		if in.PrizePool.IsNegative() {
			return nil, fmt.Errorf("%w: prize_pool", ErrInvalidInput)
		}
		fields["prize_pool"] = in.PrizePool.Round(2)
	}
	if in.MaxPlayers != nil {
		if *in.MaxPlayers < 1 || *in.MaxPlayers < t.CurrentPlayers {
			return nil, fmt.Errorf("%w: max_players", ErrInvalidInput)
		}
		fields["max_players"] = *in.MaxPlayers
		resized := *t
		resized.MaxPlayers = *in.MaxPlayers
		if status := seatStatusAfter(&resized, t.CurrentPlayers); status != t.Status {
			fields["status"] = status
		}
	}
	if in.StartTime != nil {
		fields["start_time"] = in.StartTime.UTC()
	}
	if in.Description != nil {
		fields["description"] = *in.Description
	}
	return fields, nil
}

// Delete 只能删除没有报名的赛事
func (s *TournamentService) Delete(ctx context.Context, id int64) error {
	if _, err := s.tournaments.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.tournaments.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrStatusConflict) {
			return ErrTournamentHasEntries
		}
		return err
	}
	s.invalidate(ctx, id)
	log.WithField("tournament_id", id).Info("赛事已删除")
	return nil
}

// SetStatus 按状态表手动流转
func (s *TournamentService) SetStatus(ctx context.Context, id int64, target string) (*model.Tournament, error) {
	if !model.IsValidTournamentStatus(target) {
		return nil, fmt.Errorf("%w: status", ErrInvalidInput)
	}

	var t *model.Tournament
	tb := events.NewTransactionalBus(s.bus)
	err := s.tx.Transaction(ctx, func(tx *gorm.DB) error {
		var err error
		t, err = s.tournaments.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if !model.CanTournamentTransitionTo(t.Status, target) {
			return ErrInvalidTransition
		}
		// 名额满了不能手动回到 open
		if target == model.TournamentStatusOpen && t.CurrentPlayers >= t.MaxPlayers {
			return ErrInvalidTransition
		}
		if err := s.tournaments.UpdateStatus(ctx, tx, id, t.Status, target); err != nil {
			if errors.Is(err, repository.ErrStatusConflict) {
				return ErrInvalidTransition
			}
			return err
		}
		ev := events.TournamentStatusChangedEvent{TournamentID: id, OldStatus: t.Status, NewStatus: target}
		t.Status = target
		return s.recorder.record(ctx, tx, tb, s.cfg.Kafka.Topic.Tournament, strconv.FormatInt(id, 10), ev)
	})
	if err != nil {
		tb.Discard()
		return nil, err
	}

	s.invalidate(ctx, id)
	tb.Flush()
	return t, nil
}

// StartDue 把到点的 open/full 赛事切到 started，返回切换数量
func (s *TournamentService) StartDue(ctx context.Context, now time.Time, limit int) (int, error) {
	due, err := s.tournaments.ListDueToStart(ctx, now, limit)
	if err != nil {
		return 0, err
	}

	started := 0
	for _, t := range due {
		if _, err := s.SetStatus(ctx, t.ID, model.TournamentStatusStarted); err != nil {
			log.WithError(err).WithField("tournament_id", t.ID).Warn("赛事自动开赛失败")
			continue
		}
		started++
	}
	return started, nil
}

func (s *TournamentService) invalidate(ctx context.Context, id int64) {
	done := afterCommit(ctx)
	s.cache.Invalidate(done, cache.TournamentKey(id))
	s.cache.BumpGeneration(done, cache.NamespaceTournamentList)
}
