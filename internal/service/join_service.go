package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"firestrike/internal/config"
	"firestrike/internal/events"
	"firestrike/internal/infrastructure/cache"
	"firestrike/internal/model"
	"firestrike/internal/repository"
	"firestrike/pkg/idgen"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const NextStepDeposit = "deposit"

type JoinService struct {
	tx           Transactor
	tournaments  TournamentRepository
	participants ParticipantRepository
	wallets      WalletRepository
	ledger       LedgerRepository
	walletTxs    WalletTransactionRepository
	recorder     eventRecorder
	guard        walletGuard
	bus          *events.Bus
	cache        *cache.ReadThrough
	cfg          *config.Config
	pager        pager
}

type JoinServiceDeps struct {
	Transactor   Transactor
	Tournaments  TournamentRepository
	Participants ParticipantRepository
	Wallets      WalletRepository
	Ledger       LedgerRepository
	WalletTxs    WalletTransactionRepository
	Outbox       OutboxRepository
	Locker       UserLocker
	Bus          *events.Bus
	Cache        *cache.ReadThrough
}

func NewJoinService(deps JoinServiceDeps, cfg *config.Config) *JoinService {
	return &JoinService{
		tx:           deps.Transactor,
		tournaments:  deps.Tournaments,
		participants: deps.Participants,
		wallets:      deps.Wallets,
		ledger:       deps.Ledger,
		walletTxs:    deps.WalletTxs,
		recorder:     eventRecorder{outbox: deps.Outbox},
		guard:        walletGuard{locker: deps.Locker, retries: cfg.Business.OptimisticRetries},
		bus:          deps.Bus,
		cache:        deps.Cache,
		cfg:          cfg,
		pager:        newPager(cfg),
	}
}

// JoinOptions 报名第一步展示的数据
type JoinOptions struct {
	TournamentID    int64    `json:"tournament_id"`
	EntryFee        string   `json:"entry_fee"`
	Balance         string   `json:"balance"`
	WalletAvailable bool     `json:"wallet_available"`
	Shortfall       string   `json:"shortfall,omitempty"`
	NextStep        string   `json:"next_step,omitempty"`
	Methods         []string `json:"payment_methods"`
	AlreadyJoined   bool     `json:"already_joined"`
	Full            bool     `json:"full"`
}

func (s *JoinService) JoinOptions(ctx context.Context, userID, tournamentID int64) (*JoinOptions, error) {
	t, err := s.tournaments.GetByID(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	balance, err := s.currentBalance(ctx, userID)
	if err != nil {
		return nil, err
	}
	existing, err := s.participants.FindByTournamentAndUser(ctx, nil, tournamentID, userID)
	if err != nil {
		return nil, err
	}

	opts := &JoinOptions{
		TournamentID:  t.ID,
		EntryFee:      t.EntryFee.StringFixed(2),
		Balance:       balance.StringFixed(2),
		AlreadyJoined: existing != nil,
		Full:          t.IsFull(),
	}

	if t.IsFree() {
		opts.WalletAvailable = true
		opts.Methods = []string{model.PaymentMethodFree}
		return opts, nil
	}

	opts.Methods = []string{model.PaymentMethodUPI}
	if balance.GreaterThanOrEqual(t.EntryFee) {
		opts.WalletAvailable = true
		opts.Methods = []string{model.PaymentMethodWallet, model.PaymentMethodUPI}
	} else {
		opts.Shortfall = balanceShortfall(balance, t.EntryFee).StringFixed(2)
		opts.NextStep = NextStepDeposit
	}
	return opts, nil
}

// currentBalance 只读查询余额，钱包还没创建时按 0 处理
func (s *JoinService) currentBalance(ctx context.Context, userID int64) (decimal.Decimal, error) {
	wallet, err := s.wallets.GetByUserID(ctx, userID)
	if errors.Is(err, repository.ErrWalletNotFound) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	return wallet.Balance, nil
}

// JoinRequest 报名表单
type JoinRequest struct {
	GameName      string
	UID           string
	PaymentMethod string
	Screenshot    string
	TransactionID string
}

// Join 报名赛事
//
// 在同一事务内完成：锁定赛事行 -> 校验状态和名额 -> 分配最小空闲位置 -> 付款 -> 写报名记录
func (s *JoinService) Join(ctx context.Context, userID, tournamentID int64, req JoinRequest) (*model.Participant, error) {
	req.GameName = strings.TrimSpace(req.GameName)
	req.UID = strings.TrimSpace(req.UID)
	if req.GameName == "" || req.UID == "" {
		return nil, fmt.Errorf("%w: game_name 和 uid 不能为空", ErrInvalidInput)
	}
	switch req.PaymentMethod {
	case model.PaymentMethodWallet, model.PaymentMethodFree:
	case model.PaymentMethodUPI:
		if strings.TrimSpace(req.Screenshot) == "" || strings.TrimSpace(req.TransactionID) == "" {
			return nil, ErrPaymentProofRequired
		}
	default:
		return nil, ErrInvalidPaymentMethod
	}

	release, err := s.guard.lock(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer release()

	var (
		participant *model.Participant
		tournament  *model.Tournament
		tb          *events.TransactionalBus
	)
	err = s.guard.retry(ctx, "join", func() error {
		tb = events.NewTransactionalBus(s.bus)
		return s.tx.Transaction(ctx, func(tx *gorm.DB) error {
			var err error
			tournament, participant, err = s.joinTx(ctx, tx, tb, userID, tournamentID, req)
			return err
		})
	})
	if err != nil {
		if tb != nil {
			tb.Discard()
		}
		if tournament != nil {
			return nil, insufficientBalanceError(ctx, s.wallets, userID, tournament.EntryFee, err)
		}
		return nil, err
	}

	done := afterCommit(ctx)
	s.cache.Invalidate(done, cache.TournamentKey(tournamentID))
	s.cache.BumpGeneration(done, cache.NamespaceTournamentList)
	if participant.PaymentMethod == model.PaymentMethodWallet {
		s.cache.Invalidate(done, cache.WalletKey(userID))
	}
	tb.Flush()

	log.WithFields(log.Fields{
		"user_id":        userID,
		"tournament_id":  tournamentID,
		"slot":           participant.SlotNumber,
		"payment_method": participant.PaymentMethod,
	}).Info("报名成功")
	return participant, nil
}

func (s *JoinService) joinTx(ctx context.Context, tx *gorm.DB, tb *events.TransactionalBus, userID, tournamentID int64, req JoinRequest) (*model.Tournament, *model.Participant, error) {
	t, err := s.tournaments.GetByIDForUpdate(ctx, tx, tournamentID)
	if err != nil {
		return nil, nil, err
	}
	if !t.AcceptsRegistration() {
		return t, nil, ErrTournamentClosed
	}
	if t.IsFull() {
		return t, nil, ErrTournamentFull
	}

	existing, err := s.participants.FindByTournamentAndUser(ctx, tx, t.ID, userID)
	if err != nil {
		return t, nil, err
	}
	if existing != nil {
		return t, nil, ErrAlreadyJoined
	}

	method := req.PaymentMethod
	if t.IsFree() {
		method = model.PaymentMethodFree
	} else if method == model.PaymentMethodFree {
		return t, nil, ErrInvalidPaymentMethod
	}

	taken, err := s.participants.TakenSlots(ctx, tx, t.ID)
	if err != nil {
		return t, nil, err
	}
	slot := lowestFreeSlot(taken, t.MaxPlayers)
	if slot == 0 {
		return t, nil, ErrTournamentFull
	}

	p := &model.Participant{
		TournamentID:  t.ID,
		UserID:        userID,
		GameName:      req.GameName,
		UID:           req.UID,
		SlotNumber:    slot,
		PaymentMethod: method,
		PaymentStatus: model.PaymentStatusPaid,
	}

	switch method {
	case model.PaymentMethodWallet:
		wtx, err := s.chargeEntryFee(ctx, tx, tb, t, userID)
		if err != nil {
			return t, nil, err
		}
		p.WalletTransactionID = &wtx.ID
	case model.PaymentMethodUPI:
		wtx, err := s.createPendingEntryFee(ctx, tx, tb, t, userID, req)
		if err != nil {
			return t, nil, err
		}
		p.WalletTransactionID = &wtx.ID
		p.PaymentStatus = model.PaymentStatusPending
	}

	if err := s.participants.Create(ctx, tx, p); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return t, nil, ErrAlreadyJoined
		}
		return t, nil, fmt.Errorf("创建报名记录失败: %w", err)
	}

	newPlayers := t.CurrentPlayers + 1
	newStatus := seatStatusAfter(t, newPlayers)
	if err := s.tournaments.UpdateSeats(ctx, tx, t.ID, t.CurrentPlayers, newPlayers, newStatus); err != nil {
		if errors.Is(err, repository.ErrStatusConflict) {
			return t, nil, repository.ErrOptimisticLock
		}
		return t, nil, fmt.Errorf("更新报名人数失败: %w", err)
	}

	topic := s.cfg.Kafka.Topic.Tournament
	key := strconv.FormatInt(t.ID, 10)
	if err := s.recorder.record(ctx, tx, tb, topic, key, events.ParticipantJoinedEvent{
		ParticipantID:   p.ID,
		TournamentID:    t.ID,
		TournamentTitle: t.Title,
		UserID:          userID,
		SlotNumber:      slot,
		PaymentMethod:   p.PaymentMethod,
		PaymentStatus:   p.PaymentStatus,
	}); err != nil {
		return t, nil, err
	}
	if newStatus != t.Status {
		if err := s.recorder.record(ctx, tx, tb, topic, key, events.TournamentStatusChangedEvent{
			TournamentID: t.ID,
			OldStatus:    t.Status,
			NewStatus:    newStatus,
		}); err != nil {
			return t, nil, err
		}
	}
	return t, p, nil
}

// chargeEntryFee 钱包支付：扣减报名费，单据直接 completed
func (s *JoinService) chargeEntryFee(ctx context.Context, tx *gorm.DB, tb *events.TransactionalBus, t *model.Tournament, userID int64) (*model.WalletTransaction, error) {
	if _, err := s.wallets.GetOrCreate(ctx, tx, userID); err != nil {
		return nil, fmt.Errorf("获取钱包失败: %w", err)
	}

	tid := t.ID
	wtx := &model.WalletTransaction{
		Reference:    idgen.GenerateReference(model.WalletTxTypeTournamentPayment),
		UserID:       userID,
		Type:         model.WalletTxTypeTournamentPayment,
		Amount:       t.EntryFee,
		Status:       model.WalletTxStatusCompleted,
		TournamentID: &tid,
	}
	if err := s.walletTxs.Create(ctx, tx, wtx); err != nil {
		return nil, fmt.Errorf("创建报名费单据失败: %w", err)
	}
	if err := applyAndRecord(ctx, tx, s.wallets, s.ledger, wtx, t.EntryFee.Neg(), "报名费-"+t.Title); err != nil {
		return nil, err
	}
	return wtx, s.recorder.record(ctx, tx, tb, s.cfg.Kafka.Topic.Wallet, wtx.Reference, events.WalletTransactionCreatedEvent{
		TransactionID: wtx.ID,
		Reference:     wtx.Reference,
		UserID:        userID,
		TxType:        wtx.Type,
		Amount:        wtx.Amount.StringFixed(2),
		Status:        wtx.Status,
	})
}

// createPendingEntryFee UPI 支付：记录待审核单据，不动余额
func (s *JoinService) createPendingEntryFee(ctx context.Context, tx *gorm.DB, tb *events.TransactionalBus, t *model.Tournament, userID int64, req JoinRequest) (*model.WalletTransaction, error) {
	tid := t.ID
	wtx := &model.WalletTransaction{
		Reference:     idgen.GenerateReference(model.WalletTxTypeTournamentPayment),
		UserID:        userID,
		Type:          model.WalletTxTypeTournamentPayment,
		Amount:        t.EntryFee,
		Status:        model.WalletTxStatusPending,
		Screenshot:    strings.TrimSpace(req.Screenshot),
		TransactionID: strings.TrimSpace(req.TransactionID),
		TournamentID:  &tid,
	}
	if err := s.walletTxs.Create(ctx, tx, wtx); err != nil {
		return nil, fmt.Errorf("创建报名费单据失败: %w", err)
	}
	return wtx, s.recorder.record(ctx, tx, tb, s.cfg.Kafka.Topic.Wallet, wtx.Reference, events.WalletTransactionCreatedEvent{
		TransactionID: wtx.ID,
		Reference:     wtx.Reference,
		UserID:        userID,
		TxType:        wtx.Type,
		Amount:        wtx.Amount.StringFixed(2),
		Status:        wtx.Status,
	})
}

// MyTournaments 我的比赛记录（含赛事信息与成绩）
func (s *JoinService) MyTournaments(ctx context.Context, userID int64, page, size int) ([]*model.MatchHistoryItem, int64, error) {
	parts, total, err := s.participants.ListByUser(ctx, userID, s.pager.page(page, size))
	if err != nil {
		return nil, 0, err
	}
	if len(parts) == 0 {
		return []*model.MatchHistoryItem{}, total, nil
	}

	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		ids = append(ids, p.TournamentID)
	}
	ts, err := s.tournaments.GetByIDs(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	byID := make(map[int64]*model.Tournament, len(ts))
	for _, t := range ts {
		byID[t.ID] = t
	}

	items := make([]*model.MatchHistoryItem, 0, len(parts))
	for _, p := range parts {
		item := &model.MatchHistoryItem{Participant: *p}
		if t, ok := byID[p.TournamentID]; ok {
			item.Tournament = *t
		}
		items = append(items, item)
	}
	return items, total, nil
}

func (s *JoinService) ListParticipants(ctx context.Context, tournamentID int64) ([]*model.Participant, error) {
	if _, err := s.tournaments.GetByID(ctx, tournamentID); err != nil {
		return nil, err
	}
	return s.participants.ListByTournament(ctx, tournamentID)
}

// balanceShortfall 钱包余额与报名费的差额，余额充足时为 0
func balanceShortfall(balance, fee decimal.Decimal) decimal.Decimal {
	if balance.GreaterThanOrEqual(fee) {
		return decimal.Zero
	}
	return fee.Sub(balance)
}
