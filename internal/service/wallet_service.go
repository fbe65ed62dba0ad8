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

type WalletService struct {
	tx           Transactor
	wallets      WalletRepository
	ledger       LedgerRepository
	walletTxs    WalletTransactionRepository
	participants ParticipantRepository
	tournaments  TournamentRepository
	recorder     eventRecorder
	guard        walletGuard
	bus          *events.Bus
	cache        *cache.ReadThrough
	cfg          *config.Config
	pager        pager
	minWithdraw  decimal.Decimal
}

type WalletServiceDeps struct {
	Transactor   Transactor
	Wallets      WalletRepository
	Ledger       LedgerRepository
	WalletTxs    WalletTransactionRepository
	Participants ParticipantRepository
	Tournaments  TournamentRepository
	Outbox       OutboxRepository
	Locker       UserLocker
	Bus          *events.Bus
	Cache        *cache.ReadThrough
}

func NewWalletService(deps WalletServiceDeps, cfg *config.Config) *WalletService {
	minWithdraw, err := decimal.NewFromString(cfg.Business.MinWithdrawAmount)
	if err != nil {
		minWithdraw = decimal.Zero
	}
	return &WalletService{
		tx:           deps.Transactor,
		wallets:      deps.Wallets,
		ledger:       deps.Ledger,
		walletTxs:    deps.WalletTxs,
		participants: deps.Participants,
		tournaments:  deps.Tournaments,
		recorder:     eventRecorder{outbox: deps.Outbox},
		guard:        walletGuard{locker: deps.Locker, retries: cfg.Business.OptimisticRetries},
		bus:          deps.Bus,
		cache:        deps.Cache,
		cfg:          cfg,
		pager:        newPager(cfg),
		minWithdraw:  minWithdraw,
	}
}

// GetWallet 读穿透缓存，钱包不存在时创建
func (s *WalletService) GetWallet(ctx context.Context, userID int64) (*model.Wallet, error) {
	return cache.Fetch(ctx, s.cache, cache.WalletKey(userID), s.cfg.Cache.WalletTTL,
		func(ctx context.Context) (*model.Wallet, error) {
			return s.wallets.GetOrCreate(ctx, nil, userID)
		})
}

func (s *WalletService) ListTransactions(ctx context.Context, userID int64, txType string, page, size int) ([]*model.WalletTransaction, int64, error) {
	if txType != "" && !model.IsValidWalletTxType(txType) {
		return nil, 0, fmt.Errorf("%w: type", ErrInvalidInput)
	}
	return s.walletTxs.List(ctx, model.WalletTxFilter{UserID: userID, Type: txType}, s.pager.page(page, size))
}

// ListAll 管理后台单据列表
func (s *WalletService) ListAll(ctx context.Context, filter model.WalletTxFilter, page, size int) ([]*model.WalletTransaction, int64, error) {
	return s.walletTxs.List(ctx, filter, s.pager.page(page, size))
}

func (s *WalletService) ListLedger(ctx context.Context, userID int64, page, size int) ([]*model.LedgerEntry, int64, error) {
	return s.ledger.ListByUserID(ctx, userID, s.pager.page(page, size))
}

type DepositRequest struct {
	Amount        decimal.Decimal
	Screenshot    string
	TransactionID string
}

// RequestDeposit 提交充值单据，等待管理员核对截图
func (s *WalletService) RequestDeposit(ctx context.Context, userID int64, req DepositRequest) (*model.WalletTransaction, error) {
	if !req.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if strings.TrimSpace(req.Screenshot) == "" || strings.TrimSpace(req.TransactionID) == "" {
		return nil, ErrPaymentProofRequired
	}

	wtx := &model.WalletTransaction{
		Reference:     idgen.GenerateReference(model.WalletTxTypeDeposit),
		UserID:        userID,
		Type:          model.WalletTxTypeDeposit,
		Amount:        req.Amount.Round(2),
		Status:        model.WalletTxStatusPending,
		Screenshot:    strings.TrimSpace(req.Screenshot),
		TransactionID: strings.TrimSpace(req.TransactionID),
	}

	tb := events.NewTransactionalBus(s.bus)
	err := s.tx.Transaction(ctx, func(tx *gorm.DB) error {
		if _, err := s.wallets.GetOrCreate(ctx, tx, userID); err != nil {
			return fmt.Errorf("获取钱包失败: %w", err)
		}
		if err := s.walletTxs.Create(ctx, tx, wtx); err != nil {
			return fmt.Errorf("创建充值单据失败: %w", err)
		}
		return s.recordCreated(ctx, tx, tb, wtx)
	})
	if err != nil {
		tb.Discard()
		return nil, err
	}
	tb.Flush()

	log.WithFields(log.Fields{
		"user_id":   userID,
		"reference": wtx.Reference,
		"amount":    wtx.Amount.StringFixed(2),
	}).Info("充值单据已提交")
	return wtx, nil
}

type WithdrawRequest struct {
	Amount    decimal.Decimal
	PayoutUPI string
}

// RequestWithdraw 提现申请：立即扣减余额，驳回时退回
func (s *WalletService) RequestWithdraw(ctx context.Context, userID int64, req WithdrawRequest) (*model.WalletTransaction, error) {
	if !req.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if req.Amount.LessThan(s.minWithdraw) {
		return nil, ErrWithdrawBelowMinimum
	}
	if strings.TrimSpace(req.PayoutUPI) == "" {
		return nil, fmt.Errorf("%w: payout_upi", ErrInvalidInput)
	}

	release, err := s.guard.lock(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer release()

	amount := req.Amount.Round(2)
	var wtx *model.WalletTransaction
	var tb *events.TransactionalBus

	err = s.guard.retry(ctx, "withdraw", func() error {
		tb = events.NewTransactionalBus(s.bus)
		wtx = &model.WalletTransaction{
			Reference: idgen.GenerateReference(model.WalletTxTypeWithdraw),
			UserID:    userID,
			Type:      model.WalletTxTypeWithdraw,
			Amount:    amount,
			Status:    model.WalletTxStatusPending,
			PayoutUPI: strings.TrimSpace(req.PayoutUPI),
		}

		return s.tx.Transaction(ctx, func(tx *gorm.DB) error {
			if _, err := s.wallets.GetOrCreate(ctx, tx, userID); err != nil {
				return fmt.Errorf("获取钱包失败: %w", err)
			}
			if err := s.walletTxs.Create(ctx, tx, wtx); err != nil {
				return fmt.Errorf("创建提现单据失败: %w", err)
			}
			if err := s.applyAndRecord(ctx, tx, wtx, amount.Neg(), "提现冻结-"+wtx.Reference); err != nil {
				return err
			}
			return s.recordCreated(ctx, tx, tb, wtx)
		})
	})
	if err != nil {
		if tb != nil {
			tb.Discard()
		}
		return nil, s.enrichInsufficient(ctx, userID, amount, err)
	}

	s.cache.Invalidate(afterCommit(ctx), cache.WalletKey(userID))
	tb.Flush()

	log.WithFields(log.Fields{
		"user_id":   userID,
		"reference": wtx.Reference,
		"amount":    amount.StringFixed(2),
	}).Info("提现申请已提交")
	return wtx, nil
}

// Approve 管理员通过单据
//
//	deposit            余额 += amount，状态 completed
//	withdraw           状态 completed（申请时已扣款）
//	tournament_payment 状态 completed，报名记录标记为已付款
func (s *WalletService) Approve(ctx context.Context, adminID, txID int64, note string) (*model.WalletTransaction, error) {
	return s.settle(ctx, adminID, txID, true, note)
}

// Reject 管理员驳回单据，状态 failed
//
// 只有 withdraw 会退回金额；UPI 报名被驳回时删除报名记录并释放名额
func (s *WalletService) Reject(ctx context.Context, adminID, txID int64, note string) (*model.WalletTransaction, error) {
	return s.settle(ctx, adminID, txID, false, note)
}

func (s *WalletService) settle(ctx context.Context, adminID, txID int64, approve bool, note string) (*model.WalletTransaction, error) {
	current, err := s.walletTxs.GetByID(ctx, txID)
	if err != nil {
		return nil, err
	}
	if current.Status != model.WalletTxStatusPending {
		return nil, ErrInvalidTransition
	}

	release, err := s.guard.lock(ctx, current.UserID)
	if err != nil {
		return nil, err
	}
	defer release()

	target := model.WalletTxStatusFailed
	if approve {
		target = model.WalletTxStatusCompleted
	}

	var (
		settled         *model.WalletTransaction
		tb              *events.TransactionalBus
		touchedTourneys []int64
	)

	err = s.guard.retry(ctx, "settle", func() error {
		tb = events.NewTransactionalBus(s.bus)
		touchedTourneys = nil

		return s.tx.Transaction(ctx, func(tx *gorm.DB) error {
			wtx, err := s.walletTxs.GetByIDForUpdate(ctx, tx, txID)
			if err != nil {
				return err
			}
			if !model.CanWalletTxTransitionTo(wtx.Status, target) {
				return ErrInvalidTransition
			}

			if err := s.walletTxs.UpdateStatus(ctx, tx, wtx.ID, wtx.Status, target, adminID, note); err != nil {
				if errors.Is(err, repository.ErrStatusConflict) {
					return ErrInvalidTransition
				}
				return fmt.Errorf("更新单据状态失败: %w", err)
			}

			refunded := false
			switch {
			case approve && wtx.Type == model.WalletTxTypeDeposit:
				if err := s.applyAndRecord(ctx, tx, wtx, wtx.Amount, "充值入账-"+wtx.Reference); err != nil {
					return err
				}
			case !approve && wtx.Type == model.WalletTxTypeWithdraw:
				if err := s.applyAndRecord(ctx, tx, wtx, wtx.Amount, "提现驳回退回-"+wtx.Reference); err != nil {
					return err
				}
				refunded = true
			case wtx.Type == model.WalletTxTypeTournamentPayment:
				tid, err := s.settleEntryFee(ctx, tx, tb, wtx, approve)
				if err != nil {
					return err
				}
				if tid > 0 {
					touchedTourneys = append(touchedTourneys, tid)
				}
			}

			wtx.Status = target
			wtx.AdminNote = note
			processedBy := adminID
			wtx.ProcessedBy = &processedBy
			settled = wtx

			ev := events.WalletTransactionSettledEvent{
				TransactionID: wtx.ID,
				Reference:     wtx.Reference,
				UserID:        wtx.UserID,
				TxType:        wtx.Type,
				Amount:        wtx.Amount.StringFixed(2),
				Status:        target,
				Refunded:      refunded,
				Note:          note,
				ProcessedBy:   adminID,
			}
			return s.recorder.record(ctx, tx, tb, s.cfg.Kafka.Topic.Wallet, wtx.Reference, ev)
		})
	})
	if err != nil {
		if tb != nil {
			tb.Discard()
		}
		return nil, err
	}

	done := afterCommit(ctx)
	s.cache.Invalidate(done, cache.WalletKey(settled.UserID))
	for _, id := range touchedTourneys {
		s.cache.Invalidate(done, cache.TournamentKey(id))
		s.cache.BumpGeneration(done, cache.NamespaceTournamentList)
	}
	tb.Flush()

	log.WithFields(log.Fields{
		"admin_id":  adminID,
		"user_id":   settled.UserID,
		"reference": settled.Reference,
		"type":      settled.Type,
		"status":    settled.Status,
	}).Info("钱包单据已审核")
	return settled, nil
}

// settleEntryFee 处理 UPI 报名费单据对应的报名记录，返回受影响的赛事 ID
func (s *WalletService) settleEntryFee(ctx context.Context, tx *gorm.DB, tb *events.TransactionalBus, wtx *model.WalletTransaction, approve bool) (int64, error) {
	p, err := s.participants.FindByWalletTransactionID(ctx, tx, wtx.ID)
	if err != nil {
		return 0, fmt.Errorf("查询报名记录失败: %w", err)
	}
	if p == nil {
		return 0, nil
	}

	if approve {
		if err := s.participants.UpdatePaymentStatus(ctx, tx, p.ID, model.PaymentStatusPaid); err != nil {
			return 0, fmt.Errorf("更新报名付款状态失败: %w", err)
		}
		return p.TournamentID, nil
	}

	// 与报名相同的加锁顺序：先赛事行，再报名记录
	t, err := s.tournaments.GetByIDForUpdate(ctx, tx, p.TournamentID)
	if err != nil {
		return 0, err
	}
	if err := s.participants.Delete(ctx, tx, p.ID); err != nil {
		return 0, fmt.Errorf("删除报名记录失败: %w", err)
	}
	newPlayers := t.CurrentPlayers - 1
	if newPlayers < 0 {
		newPlayers = 0
	}
	newStatus := seatStatusAfter(t, newPlayers)
	if err := s.tournaments.UpdateSeats(ctx, tx, t.ID, t.CurrentPlayers, newPlayers, newStatus); err != nil {
		return 0, fmt.Errorf("释放名额失败: %w", err)
	}

	topic := s.cfg.Kafka.Topic.Tournament
	key := strconv.FormatInt(t.ID, 10)
	if err := s.recorder.record(ctx, tx, tb, topic, key, events.ParticipantRemovedEvent{
		ParticipantID: p.ID,
		TournamentID:  t.ID,
		UserID:        p.UserID,
		Reason:        "payment_rejected",
	}); err != nil {
		return 0, err
	}
	if newStatus != t.Status {
		if err := s.recorder.record(ctx, tx, tb, topic, key, events.TournamentStatusChangedEvent{
			TournamentID: t.ID,
			OldStatus:    t.Status,
			NewStatus:    newStatus,
		}); err != nil {
			return 0, err
		}
	}
	return t.ID, nil
}

// Reconcile 核对余额与流水合计
func (s *WalletService) Reconcile(ctx context.Context, userID int64) (*model.Reconciliation, error) {
	wallet, err := s.wallets.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	sum, err := s.ledger.SumByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &model.Reconciliation{
		UserID:    userID,
		Balance:   wallet.Balance.StringFixed(2),
		LedgerSum: sum.StringFixed(2),
		Balanced:  wallet.Balance.Equal(sum),
	}, nil
}

// applyAndRecord 施加余额增量并写流水，必须在事务内调用
func (s *WalletService) applyAndRecord(ctx context.Context, tx *gorm.DB, wtx *model.WalletTransaction, delta decimal.Decimal, remark string) error {
	return applyAndRecord(ctx, tx, s.wallets, s.ledger, wtx, delta, remark)
}

func applyAndRecord(ctx context.Context, tx *gorm.DB, wallets WalletRepository, ledger LedgerRepository, wtx *model.WalletTransaction, delta decimal.Decimal, remark string) error {
	change, err := wallets.ApplyDelta(ctx, tx, wtx.UserID, delta)
	if err != nil {
		if errors.Is(err, repository.ErrInsufficientBalance) || errors.Is(err, repository.ErrOptimisticLock) {
			return err
		}
		return fmt.Errorf("修改余额失败: %w", err)
	}

	entry := &model.LedgerEntry{
		EntryNo:             idgen.GenerateLedgerNo(),
		UserID:              wtx.UserID,
		WalletTransactionID: wtx.ID,
		Amount:              change.Delta,
		BalanceBefore:       change.BalanceBefore,
		BalanceAfter:        change.BalanceAfter,
		Remark:              remark,
	}
	if err := ledger.Create(ctx, tx, entry); err != nil {
		return fmt.Errorf("记录流水失败: %w", err)
	}
	return nil
}

func (s *WalletService) recordCreated(ctx context.Context, tx *gorm.DB, tb *events.TransactionalBus, wtx *model.WalletTransaction) error {
	return s.recorder.record(ctx, tx, tb, s.cfg.Kafka.Topic.Wallet, wtx.Reference, events.WalletTransactionCreatedEvent{
		TransactionID: wtx.ID,
		Reference:     wtx.Reference,
		UserID:        wtx.UserID,
		TxType:        wtx.Type,
		Amount:        wtx.Amount.StringFixed(2),
		Status:        wtx.Status,
	})
}

// enrichInsufficient 把仓储层的余额不足转换为带差额的错误
func (s *WalletService) enrichInsufficient(ctx context.Context, userID int64, required decimal.Decimal, err error) error {
	return insufficientBalanceError(ctx, s.wallets, userID, required, err)
}

func insufficientBalanceError(ctx context.Context, wallets WalletRepository, userID int64, required decimal.Decimal, err error) error {
	if !errors.Is(err, repository.ErrInsufficientBalance) {
		return err
	}
	var typed *InsufficientBalanceError
	if errors.As(err, &typed) {
		return typed
	}
	balance := decimal.Zero
	if w, werr := wallets.GetByUserID(ctx, userID); werr == nil {
		balance = w.Balance
	}
	return &InsufficientBalanceError{Balance: balance, Required: required}
}
