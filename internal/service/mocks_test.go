package service

import (
	"context"
	"io"
	"time"

	"firestrike/internal/config"
	"firestrike/internal/model"
	"firestrike/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

// fakeTransactor runs the callback with a nil tx, which repositories treat as the default connection
type fakeTransactor struct {
	calls int
}

func (t *fakeTransactor) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	t.calls++
	return fn(nil)
}

func testConfig() *config.Config {
	return &config.Config{
		Kafka: config.KafkaConfig{
			Topic: config.KafkaTopicConfig{Wallet: "fs.wallet", Tournament: "fs.tournament"},
		},
		Auth: config.AuthConfig{
			JWTSecret:   "test-secret-0123456789",
			Issuer:      "firestrike-test",
			TokenTTL:    time.Hour,
			AdminEmails: []string{"boss@example.com"},
		},
		Cache: config.CacheConfig{
			TournamentTTL: time.Minute,
			WalletTTL:     time.Minute,
			ProfileTTL:    time.Minute,
		},
		Business: config.BusinessConfig{
			OptimisticRetries: 3,
			DefaultPageSize:   20,
			MaxPageSize:       100,
			MinWithdrawAmount: "100",
		},
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// MockProfileRepository is a mock implementation of ProfileRepository
type MockProfileRepository struct {
	mock.Mock
}

func (m *MockProfileRepository) Create(ctx context.Context, tx *gorm.DB, p *model.Profile) error {
	args := m.Called(ctx, tx, p)
	return args.Error(0)
}

func (m *MockProfileRepository) GetByID(ctx context.Context, id int64) (*model.Profile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Profile), args.Error(1)
}

func (m *MockProfileRepository) GetByEmail(ctx context.Context, email string) (*model.Profile, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Profile), args.Error(1)
}

func (m *MockProfileRepository) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	args := m.Called(ctx, id, fields)
	return args.Error(0)
}

func (m *MockProfileRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProfileRepository) ListWithBalance(ctx context.Context, page repository.Page) ([]*model.ProfileWithBalance, int64, error) {
	args := m.Called(ctx, page)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*model.ProfileWithBalance), args.Get(1).(int64), args.Error(2)
}

// MockWalletRepository is a mock implementation of WalletRepository
type MockWalletRepository struct {
	mock.Mock
}

func (m *MockWalletRepository) GetByUserID(ctx context.Context, userID int64) (*model.Wallet, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Wallet), args.Error(1)
}

func (m *MockWalletRepository) GetOrCreate(ctx context.Context, tx *gorm.DB, userID int64) (*model.Wallet, error) {
	args := m.Called(ctx, tx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Wallet), args.Error(1)
}

func (m *MockWalletRepository) ApplyDelta(ctx context.Context, tx *gorm.DB, userID int64, delta decimal.Decimal) (*model.BalanceChange, error) {
	args := m.Called(ctx, tx, userID, delta)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.BalanceChange), args.Error(1)
}

// MockLedgerRepository is a mock implementation of LedgerRepository
type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) Create(ctx context.Context, tx *gorm.DB, entry *model.LedgerEntry) error {
	args := m.Called(ctx, tx, entry)
	return args.Error(0)
}

func (m *MockLedgerRepository) ListByUserID(ctx context.Context, userID int64, page repository.Page) ([]*model.LedgerEntry, int64, error) {
	args := m.Called(ctx, userID, page)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*model.LedgerEntry), args.Get(1).(int64), args.Error(2)
}

func (m *MockLedgerRepository) SumByUserID(ctx context.Context, userID int64) (decimal.Decimal, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// MockWalletTransactionRepository is a mock implementation of WalletTransactionRepository
type MockWalletTransactionRepository struct {
	mock.Mock
}

func (m *MockWalletTransactionRepository) Create(ctx context.Context, tx *gorm.DB, t *model.WalletTransaction) error {
	args := m.Called(ctx, tx, t)
	return args.Error(0)
}

func (m *MockWalletTransactionRepository) GetByID(ctx context.Context, id int64) (*model.WalletTransaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.WalletTransaction), args.Error(1)
}

func (m *MockWalletTransactionRepository) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id int64) (*model.WalletTransaction, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.WalletTransaction), args.Error(1)
}

func (m *MockWalletTransactionRepository) UpdateStatus(ctx context.Context, tx *gorm.DB, id int64, fromStatus, toStatus string, processedBy int64, note string) error {
	args := m.Called(ctx, tx, id, fromStatus, toStatus, processedBy, note)
	return args.Error(0)
}

func (m *MockWalletTransactionRepository) List(ctx context.Context, filter model.WalletTxFilter, page repository.Page) ([]*model.WalletTransaction, int64, error) {
	args := m.Called(ctx, filter, page)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*model.WalletTransaction), args.Get(1).(int64), args.Error(2)
}

func (m *MockWalletTransactionRepository) CountPendingByType(ctx context.Context) (map[string]int64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int64), args.Error(1)
}

func (m *MockWalletTransactionRepository) SumCompleted(ctx context.Context, txType string) (decimal.Decimal, error) {
	args := m.Called(ctx, txType)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// MockTournamentRepository is a mock implementation of TournamentRepository
type MockTournamentRepository struct {
	mock.Mock
}

func (m *MockTournamentRepository) Create(ctx context.Context, t *model.Tournament) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTournamentRepository) GetByID(ctx context.Context, id int64) (*model.Tournament, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Tournament), args.Error(1)
}

func (m *MockTournamentRepository) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id int64) (*model.Tournament, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Tournament), args.Error(1)
}

func (m *MockTournamentRepository) GetByIDs(ctx context.Context, ids []int64) ([]*model.Tournament, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Tournament), args.Error(1)
}

func (m *MockTournamentRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	args := m.Called(ctx, slug)
	return args.Bool(0), args.Error(1)
}

func (m *MockTournamentRepository) UpdateFields(ctx context.Context, tx *gorm.DB, id int64, fields map[string]interface{}) error {
	args := m.Called(ctx, tx, id, fields)
	return args.Error(0)
}

func (m *MockTournamentRepository) UpdateSeats(ctx context.Context, tx *gorm.DB, id int64, expectedPlayers, newPlayers int, newStatus string) error {
	args := m.Called(ctx, tx, id, expectedPlayers, newPlayers, newStatus)
	return args.Error(0)
}

func (m *MockTournamentRepository) UpdateStatus(ctx context.Context, tx *gorm.DB, id int64, fromStatus, toStatus string) error {
	args := m.Called(ctx, tx, id, fromStatus, toStatus)
	return args.Error(0)
}

func (m *MockTournamentRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTournamentRepository) List(ctx context.Context, filter model.TournamentFilter, page repository.Page) ([]*model.Tournament, int64, error) {
	args := m.Called(ctx, filter, page)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*model.Tournament), args.Get(1).(int64), args.Error(2)
}

func (m *MockTournamentRepository) ListDueToStart(ctx context.Context, now time.Time, limit int) ([]*model.Tournament, error) {
	args := m.Called(ctx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Tournament), args.Error(1)
}

func (m *MockTournamentRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int64), args.Error(1)
}

// MockParticipantRepository is a mock implementation of ParticipantRepository
type MockParticipantRepository struct {
	mock.Mock
}

func (m *MockParticipantRepository) Create(ctx context.Context, tx *gorm.DB, p *model.Participant) error {
	args := m.Called(ctx, tx, p)
	return args.Error(0)
}

func (m *MockParticipantRepository) GetByID(ctx context.Context, id int64) (*model.Participant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Participant), args.Error(1)
}

func (m *MockParticipantRepository) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id int64) (*model.Participant, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Participant), args.Error(1)
}

func (m *MockParticipantRepository) FindByTournamentAndUser(ctx context.Context, tx *gorm.DB, tournamentID, userID int64) (*model.Participant, error) {
	args := m.Called(ctx, tx, tournamentID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Participant), args.Error(1)
}

func (m *MockParticipantRepository) FindByWalletTransactionID(ctx context.Context, tx *gorm.DB, walletTxID int64) (*model.Participant, error) {
	args := m.Called(ctx, tx, walletTxID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Participant), args.Error(1)
}

func (m *MockParticipantRepository) TakenSlots(ctx context.Context, tx *gorm.DB, tournamentID int64) ([]int, error) {
	args := m.Called(ctx, tx, tournamentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int), args.Error(1)
}

func (m *MockParticipantRepository) UpdateResult(ctx context.Context, tx *gorm.DB, id int64, result string) error {
	args := m.Called(ctx, tx, id, result)
	return args.Error(0)
}

func (m *MockParticipantRepository) UpdatePaymentStatus(ctx context.Context, tx *gorm.DB, id int64, status string) error {
	args := m.Called(ctx, tx, id, status)
	return args.Error(0)
}

func (m *MockParticipantRepository) Delete(ctx context.Context, tx *gorm.DB, id int64) error {
	args := m.Called(ctx, tx, id)
	return args.Error(0)
}

func (m *MockParticipantRepository) ListByTournament(ctx context.Context, tournamentID int64) ([]*model.Participant, error) {
	args := m.Called(ctx, tournamentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Participant), args.Error(1)
}

func (m *MockParticipantRepository) ListByUser(ctx context.Context, userID int64, page repository.Page) ([]*model.Participant, int64, error) {
	args := m.Called(ctx, userID, page)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*model.Participant), args.Get(1).(int64), args.Error(2)
}

// MockOutboxRepository is a mock implementation of OutboxRepository
type MockOutboxRepository struct {
	mock.Mock
}

func (m *MockOutboxRepository) Create(ctx context.Context, tx *gorm.DB, msg *model.OutboxMessage) error {
	args := m.Called(ctx, tx, msg)
	return args.Error(0)
}

// eventTypes returns the event types written to the outbox, in order
func (m *MockOutboxRepository) eventTypes() []string {
	var out []string
	for _, c := range m.Calls {
		if c.Method == "Create" {
			out = append(out, c.Arguments.Get(2).(*model.OutboxMessage).EventType)
		}
	}
	return out
}

// MockNotificationRepository is a mock implementation of NotificationRepository
type MockNotificationRepository struct {
	mock.Mock
}

func (m *MockNotificationRepository) Create(ctx context.Context, n *model.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *MockNotificationRepository) ListByUser(ctx context.Context, userID int64, unreadOnly bool, page repository.Page) ([]*model.Notification, int64, error) {
	args := m.Called(ctx, userID, unreadOnly, page)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*model.Notification), args.Get(1).(int64), args.Error(2)
}

func (m *MockNotificationRepository) CountUnread(ctx context.Context, userID int64) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNotificationRepository) MarkRead(ctx context.Context, userID, id int64) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

func (m *MockNotificationRepository) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

// MockActivityRepository is a mock implementation of ActivityRepository
type MockActivityRepository struct {
	mock.Mock
}

func (m *MockActivityRepository) Create(ctx context.Context, a *model.ActivityLog) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *MockActivityRepository) ListByUser(ctx context.Context, userID int64, page repository.Page) ([]*model.ActivityLog, int64, error) {
	args := m.Called(ctx, userID, page)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*model.ActivityLog), args.Get(1).(int64), args.Error(2)
}

// MockContactRepository is a mock implementation of ContactRepository
type MockContactRepository struct {
	mock.Mock
}

func (m *MockContactRepository) Create(ctx context.Context, c *model.ContactSubmission) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockContactRepository) List(ctx context.Context, page repository.Page) ([]*model.ContactSubmission, int64, error) {
	args := m.Called(ctx, page)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*model.ContactSubmission), args.Get(1).(int64), args.Error(2)
}

// MockSessionStore is a mock implementation of SessionStore
type MockSessionStore struct {
	mock.Mock
}

func (m *MockSessionStore) Revoke(ctx context.Context, sessionID string, ttl time.Duration) error {
	args := m.Called(ctx, sessionID, ttl)
	return args.Error(0)
}

func (m *MockSessionStore) IsRevoked(ctx context.Context, sessionID string) (bool, error) {
	args := m.Called(ctx, sessionID)
	return args.Bool(0), args.Error(1)
}

// MockObjectStore is a mock implementation of ObjectStore
type MockObjectStore struct {
	mock.Mock
	body []byte
}

func (m *MockObjectStore) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	data, _ := io.ReadAll(body)
	m.body = data
	args := m.Called(ctx, key, size, contentType)
	return args.String(0), args.Error(1)
}

// MockUserLocker is a mock implementation of UserLocker
type MockUserLocker struct {
	mock.Mock
	released int
}

func (m *MockUserLocker) LockUser(ctx context.Context, userID int64, owner string) (func(), error) {
	args := m.Called(ctx, userID)
	if err := args.Error(0); err != nil {
		return nil, err
	}
	return func() { m.released++ }, nil
}
