package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"firestrike/internal/events"
	"firestrike/internal/model"
	"firestrike/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type walletFixture struct {
	tx           *fakeTransactor
	wallets      *MockWalletRepository
	ledger       *MockLedgerRepository
	walletTxs    *MockWalletTransactionRepository
	participants *MockParticipantRepository
	tournaments  *MockTournamentRepository
	outbox       *MockOutboxRepository
	locker       *MockUserLocker
	svc          *WalletService
}

func newWalletFixture() *walletFixture {
	f := &walletFixture{
		tx:           &fakeTransactor{},
		wallets:      new(MockWalletRepository),
		ledger:       new(MockLedgerRepository),
		walletTxs:    new(MockWalletTransactionRepository),
		participants: new(MockParticipantRepository),
		tournaments:  new(MockTournamentRepository),
		outbox:       new(MockOutboxRepository),
		locker:       new(MockUserLocker),
	}
	f.locker.On("LockUser", mock.Anything, mock.Anything).Return(nil)
	f.outbox.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.svc = NewWalletService(WalletServiceDeps{
		Transactor:   f.tx,
		Wallets:      f.wallets,
		Ledger:       f.ledger,
		WalletTxs:    f.walletTxs,
		Participants: f.participants,
		Tournaments:  f.tournaments,
		Outbox:       f.outbox,
		Locker:       f.locker,
		Bus:          events.NewBus(),
	}, testConfig())
	return f
}

func decEq(want string) interface{} {
	return mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(dec(want)) })
}

func pendingTx(id, userID int64, txType, amount string) *model.WalletTransaction {
	return &model.WalletTransaction{
		ID:        id,
		Reference: "REF" + txType,
		UserID:    userID,
		Type:      txType,
		Amount:    dec(amount),
		Status:    model.WalletTxStatusPending,
	}
}

// expectSettle wires the lookups shared by every approve/reject path
func (f *walletFixture) expectSettle(wtx *model.WalletTransaction, target string) {
	copyForUpdate := *wtx
	f.walletTxs.On("GetByID", mock.Anything, wtx.ID).Return(wtx, nil)
	f.walletTxs.On("GetByIDForUpdate", mock.Anything, mock.Anything, wtx.ID).Return(&copyForUpdate, nil)
	f.walletTxs.On("UpdateStatus", mock.Anything, mock.Anything, wtx.ID, model.WalletTxStatusPending, target, int64(1), mock.Anything).Return(nil)
}

func settledEvent(t *testing.T, outbox *MockOutboxRepository) events.WalletTransactionSettledEvent {
	t.Helper()
	for _, c := range outbox.Calls {
		msg := c.Arguments.Get(2).(*model.OutboxMessage)
		if msg.EventType == string(events.EventTypeWalletTransactionSettled) {
			var ev events.WalletTransactionSettledEvent
			require.NoError(t, json.Unmarshal([]byte(msg.Payload), &ev))
			return ev
		}
	}
	t.Fatal("no settled event written to outbox")
	return events.WalletTransactionSettledEvent{}
}

func TestApprove_DepositCreditsBalance(t *testing.T) {
	f := newWalletFixture()
	ctx := context.Background()

	wtx := pendingTx(10, 7, model.WalletTxTypeDeposit, "250")
	f.expectSettle(wtx, model.WalletTxStatusCompleted)
	f.wallets.On("ApplyDelta", mock.Anything, mock.Anything, int64(7), decEq("250")).
		Return(&model.BalanceChange{UserID: 7, Delta: dec("250"), BalanceBefore: dec("100"), BalanceAfter: dec("350")}, nil)

	var entry *model.LedgerEntry
	f.ledger.On("Create", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { entry = args.Get(2).(*model.LedgerEntry) }).
		Return(nil)

	settled, err := f.svc.Approve(ctx, 1, 10, "ok")
	require.NoError(t, err)

	assert.Equal(t, model.WalletTxStatusCompleted, settled.Status)
	require.NotNil(t, entry)
	assert.True(t, entry.BalanceBefore.Add(dec("250")).Equal(entry.BalanceAfter), "balance = old + amount")
	assert.True(t, entry.Amount.Equal(dec("250")))
	assert.Equal(t, int64(10), entry.WalletTransactionID)
	assert.Equal(t, 1, f.locker.released)

	ev := settledEvent(t, f.outbox)
	assert.Equal(t, model.WalletTxStatusCompleted, ev.Status)
	assert.False(t, ev.Refunded)
	f.wallets.AssertExpectations(t)
}

func TestReject_DepositLeavesBalance(t *testing.T) {
	f := newWalletFixture()

	wtx := pendingTx(11, 7, model.WalletTxTypeDeposit, "250")
	f.expectSettle(wtx, model.WalletTxStatusFailed)

	settled, err := f.svc.Reject(context.Background(), 1, 11, "blurry screenshot")
	require.NoError(t, err)

	assert.Equal(t, model.WalletTxStatusFailed, settled.Status)
	assert.Equal(t, "blurry screenshot", settled.AdminNote)
	f.wallets.AssertNotCalled(t, "ApplyDelta", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.ledger.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestReject_WithdrawRefunds(t *testing.T) {
	f := newWalletFixture()

	wtx := pendingTx(12, 7, model.WalletTxTypeWithdraw, "300")
	f.expectSettle(wtx, model.WalletTxStatusFailed)
	f.wallets.On("ApplyDelta", mock.Anything, mock.Anything, int64(7), decEq("300")).
		Return(&model.BalanceChange{UserID: 7, Delta: dec("300"), BalanceBefore: dec("0"), BalanceAfter: dec("300")}, nil)
	f.ledger.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	settled, err := f.svc.Reject(context.Background(), 1, 12, "")
	require.NoError(t, err)

	assert.Equal(t, model.WalletTxStatusFailed, settled.Status)
	assert.True(t, settledEvent(t, f.outbox).Refunded)
	f.wallets.AssertNumberOfCalls(t, "ApplyDelta", 1)
}

func TestApprove_WithdrawDoesNotTouchBalance(t *testing.T) {
	f := newWalletFixture()

	wtx := pendingTx(13, 7, model.WalletTxTypeWithdraw, "300")
	f.expectSettle(wtx, model.WalletTxStatusCompleted)

	settled, err := f.svc.Approve(context.Background(), 1, 13, "paid out")
	require.NoError(t, err)

	assert.Equal(t, model.WalletTxStatusCompleted, settled.Status)
	f.wallets.AssertNotCalled(t, "ApplyDelta", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestReject_EntryFeeReleasesSeatWithoutRefund(t *testing.T) {
	f := newWalletFixture()

	wtx := pendingTx(14, 7, model.WalletTxTypeTournamentPayment, "50")
	f.expectSettle(wtx, model.WalletTxStatusFailed)

	p := &model.Participant{ID: 90, TournamentID: 3, UserID: 7, SlotNumber: 4, PaymentStatus: model.PaymentStatusPending}
	f.participants.On("FindByWalletTransactionID", mock.Anything, mock.Anything, int64(14)).Return(p, nil)
	f.participants.On("Delete", mock.Anything, mock.Anything, int64(90)).Return(nil)

	full := &model.Tournament{ID: 3, MaxPlayers: 4, CurrentPlayers: 4, Status: model.TournamentStatusFull}
	f.tournaments.On("GetByIDForUpdate", mock.Anything, mock.Anything, int64(3)).Return(full, nil)
	f.tournaments.On("UpdateSeats", mock.Anything, mock.Anything, int64(3), 4, 3, model.TournamentStatusOpen).Return(nil)

	settled, err := f.svc.Reject(context.Background(), 1, 14, "no payment received")
	require.NoError(t, err)

	assert.Equal(t, model.WalletTxStatusFailed, settled.Status)
	assert.False(t, settledEvent(t, f.outbox).Refunded)
	f.wallets.AssertNotCalled(t, "ApplyDelta", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.participants.AssertExpectations(t)
	f.tournaments.AssertExpectations(t)
	assert.Equal(t, []string{
		string(events.EventTypeParticipantRemoved),
		string(events.EventTypeTournamentStatusChanged),
		string(events.EventTypeWalletTransactionSettled),
	}, f.outbox.eventTypes())
}

func TestReject_EntryFeeOnStartedTournament(t *testing.T) {
	f := newWalletFixture()

	wtx := pendingTx(16, 7, model.WalletTxTypeTournamentPayment, "50")
	f.expectSettle(wtx, model.WalletTxStatusFailed)

	var order []string
	p := &model.Participant{ID: 92, TournamentID: 3, UserID: 7, PaymentStatus: model.PaymentStatusPending}
	f.participants.On("FindByWalletTransactionID", mock.Anything, mock.Anything, int64(16)).Return(p, nil)
	f.participants.On("Delete", mock.Anything, mock.Anything, int64(92)).
		Run(func(mock.Arguments) { order = append(order, "delete participant") }).Return(nil)

	started := &model.Tournament{ID: 3, MaxPlayers: 4, CurrentPlayers: 4, Status: model.TournamentStatusStarted}
	f.tournaments.On("GetByIDForUpdate", mock.Anything, mock.Anything, int64(3)).
		Run(func(mock.Arguments) { order = append(order, "lock tournament") }).Return(started, nil)
	f.tournaments.On("UpdateSeats", mock.Anything, mock.Anything, int64(3), 4, 3, model.TournamentStatusStarted).Return(nil)

	_, err := f.svc.Reject(context.Background(), 1, 16, "fake screenshot")
	require.NoError(t, err)

	// 与报名一致：先锁赛事再动报名记录
	assert.Equal(t, []string{"lock tournament", "delete participant"}, order)
	f.tournaments.AssertExpectations(t)
	assert.Equal(t, []string{
		string(events.EventTypeParticipantRemoved),
		string(events.EventTypeWalletTransactionSettled),
	}, f.outbox.eventTypes())
}

func TestApprove_EntryFeeMarksParticipantPaid(t *testing.T) {
	f := newWalletFixture()

	wtx := pendingTx(15, 7, model.WalletTxTypeTournamentPayment, "50")
	f.expectSettle(wtx, model.WalletTxStatusCompleted)

	p := &model.Participant{ID: 91, TournamentID: 3, UserID: 7}
	f.participants.On("FindByWalletTransactionID", mock.Anything, mock.Anything, int64(15)).Return(p, nil)
	f.participants.On("UpdatePaymentStatus", mock.Anything, mock.Anything, int64(91), model.PaymentStatusPaid).Return(nil)

	_, err := f.svc.Approve(context.Background(), 1, 15, "")
	require.NoError(t, err)

	f.participants.AssertExpectations(t)
	f.wallets.AssertNotCalled(t, "ApplyDelta", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestApprove_AlreadySettled(t *testing.T) {
	f := newWalletFixture()

	done := pendingTx(16, 7, model.WalletTxTypeDeposit, "250")
	done.Status = model.WalletTxStatusCompleted
	f.walletTxs.On("GetByID", mock.Anything, int64(16)).Return(done, nil)

	_, err := f.svc.Approve(context.Background(), 1, 16, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, 0, f.tx.calls)
}

func TestApprove_ConcurrentApprovalCreditsOnce(t *testing.T) {
	f := newWalletFixture()

	wtx := pendingTx(17, 7, model.WalletTxTypeDeposit, "250")
	copyForUpdate := *wtx
	f.walletTxs.On("GetByID", mock.Anything, int64(17)).Return(wtx, nil)
	f.walletTxs.On("GetByIDForUpdate", mock.Anything, mock.Anything, int64(17)).Return(&copyForUpdate, nil)
	// 另一个审核已抢先把状态改掉
	f.walletTxs.On("UpdateStatus", mock.Anything, mock.Anything, int64(17), model.WalletTxStatusPending, model.WalletTxStatusCompleted, int64(1), mock.Anything).
		Return(repository.ErrStatusConflict)

	_, err := f.svc.Approve(context.Background(), 1, 17, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	f.wallets.AssertNotCalled(t, "ApplyDelta", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestApprove_RetriesOnOptimisticLock(t *testing.T) {
	f := newWalletFixture()

	wtx := pendingTx(18, 7, model.WalletTxTypeDeposit, "10")
	f.expectSettle(wtx, model.WalletTxStatusCompleted)
	f.wallets.On("ApplyDelta", mock.Anything, mock.Anything, int64(7), decEq("10")).
		Return(nil, repository.ErrOptimisticLock).Once()
	f.wallets.On("ApplyDelta", mock.Anything, mock.Anything, int64(7), decEq("10")).
		Return(&model.BalanceChange{UserID: 7, Delta: dec("10"), BalanceBefore: dec("0"), BalanceAfter: dec("10")}, nil).Once()
	f.ledger.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	_, err := f.svc.Approve(context.Background(), 1, 18, "")
	require.NoError(t, err)
	assert.Equal(t, 2, f.tx.calls)
}

func TestRequestDeposit(t *testing.T) {
	tests := []struct {
		name    string
		req     DepositRequest
		wantErr error
	}{
		{"zero amount", DepositRequest{Amount: dec("0"), Screenshot: "https://x/s.png", TransactionID: "UTR1"}, ErrInvalidAmount},
		{"negative amount", DepositRequest{Amount: dec("-5"), Screenshot: "https://x/s.png", TransactionID: "UTR1"}, ErrInvalidAmount},
		{"missing screenshot", DepositRequest{Amount: dec("100"), TransactionID: "UTR1"}, ErrPaymentProofRequired},
		{"missing transaction id", DepositRequest{Amount: dec("100"), Screenshot: "https://x/s.png"}, ErrPaymentProofRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newWalletFixture()
			_, err := f.svc.RequestDeposit(context.Background(), 7, tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, 0, f.tx.calls)
		})
	}

	t.Run("creates pending document", func(t *testing.T) {
		f := newWalletFixture()
		f.wallets.On("GetOrCreate", mock.Anything, mock.Anything, int64(7)).Return(&model.Wallet{UserID: 7}, nil)
		f.walletTxs.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(nil)

		wtx, err := f.svc.RequestDeposit(context.Background(), 7, DepositRequest{
			Amount: dec("100"), Screenshot: " https://x/s.png ", TransactionID: "UTR1",
		})
		require.NoError(t, err)
		assert.Equal(t, model.WalletTxStatusPending, wtx.Status)
		assert.Equal(t, model.WalletTxTypeDeposit, wtx.Type)
		assert.Equal(t, "https://x/s.png", wtx.Screenshot)
		assert.NotEmpty(t, wtx.Reference)
		f.wallets.AssertNotCalled(t, "ApplyDelta", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		assert.Equal(t, []string{string(events.EventTypeWalletTransactionCreated)}, f.outbox.eventTypes())
	})
}

func TestRequestWithdraw_BelowMinimum(t *testing.T) {
	f := newWalletFixture()
	_, err := f.svc.RequestWithdraw(context.Background(), 7, WithdrawRequest{Amount: dec("99.99"), PayoutUPI: "me@upi"})
	assert.ErrorIs(t, err, ErrWithdrawBelowMinimum)
}

func TestRequestWithdraw_InsufficientBalance(t *testing.T) {
	f := newWalletFixture()
	f.wallets.On("GetOrCreate", mock.Anything, mock.Anything, int64(7)).Return(&model.Wallet{UserID: 7, Balance: dec("150")}, nil)
	f.walletTxs.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.wallets.On("ApplyDelta", mock.Anything, mock.Anything, int64(7), decEq("-200")).Return(nil, repository.ErrInsufficientBalance)
	f.wallets.On("GetByUserID", mock.Anything, int64(7)).Return(&model.Wallet{UserID: 7, Balance: dec("150")}, nil)

	_, err := f.svc.RequestWithdraw(context.Background(), 7, WithdrawRequest{Amount: dec("200"), PayoutUPI: "me@upi"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInsufficientBalance))

	var ib *InsufficientBalanceError
	require.True(t, errors.As(err, &ib))
	assert.True(t, ib.Shortfall().Equal(dec("50")))
	f.ledger.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestRequestWithdraw_DebitsImmediately(t *testing.T) {
	f := newWalletFixture()
	f.wallets.On("GetOrCreate", mock.Anything, mock.Anything, int64(7)).Return(&model.Wallet{UserID: 7, Balance: dec("500")}, nil)
	f.walletTxs.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.wallets.On("ApplyDelta", mock.Anything, mock.Anything, int64(7), decEq("-200")).
		Return(&model.BalanceChange{UserID: 7, Delta: dec("-200"), BalanceBefore: dec("500"), BalanceAfter: dec("300")}, nil)
	f.ledger.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	wtx, err := f.svc.RequestWithdraw(context.Background(), 7, WithdrawRequest{Amount: dec("200"), PayoutUPI: "me@upi"})
	require.NoError(t, err)

	assert.Equal(t, model.WalletTxStatusPending, wtx.Status)
	assert.Equal(t, "me@upi", wtx.PayoutUPI)
	f.locker.AssertCalled(t, "LockUser", mock.Anything, int64(7))
	assert.Equal(t, 1, f.locker.released)
}

func TestRequestWithdraw_LockBusy(t *testing.T) {
	f := newWalletFixture()
	f.locker = new(MockUserLocker)
	f.locker.On("LockUser", mock.Anything, int64(7)).Return(errors.New("timeout"))
	f.svc.guard.locker = f.locker

	_, err := f.svc.RequestWithdraw(context.Background(), 7, WithdrawRequest{Amount: dec("200"), PayoutUPI: "me@upi"})
	assert.ErrorIs(t, err, ErrSystemBusy)
	assert.Equal(t, 0, f.tx.calls)
}

func TestReconcile(t *testing.T) {
	f := newWalletFixture()
	f.wallets.On("GetByUserID", mock.Anything, int64(7)).Return(&model.Wallet{UserID: 7, Balance: dec("120.50")}, nil)
	f.ledger.On("SumByUserID", mock.Anything, int64(7)).Return(dec("120.5"), nil)

	r, err := f.svc.Reconcile(context.Background(), 7)
	require.NoError(t, err)
	assert.True(t, r.Balanced)
	assert.Equal(t, "120.50", r.Balance)
	assert.Equal(t, "120.50", r.LedgerSum)
}
