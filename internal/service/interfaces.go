package service

import (
	"context"
	"io"
	"time"

	"firestrike/internal/model"
	"firestrike/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Transactor runs fn inside one database transaction; a nil tx passed to
// repositories means "use the default connection".
type Transactor interface {
	Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// UserLocker serializes wallet mutations of one user across instances
type UserLocker interface {
	// LockUser blocks until the lock is held and returns the release function
	LockUser(ctx context.Context, userID int64, owner string) (func(), error)
}

// ProfileRepository defines the interface for profile data access
type ProfileRepository interface {
	// Create inserts a profile, returns repository.ErrDuplicate when the email exists
	Create(ctx context.Context, tx *gorm.DB, p *model.Profile) error

	// GetByID returns repository.ErrProfileNotFound when missing
	GetByID(ctx context.Context, id int64) (*model.Profile, error)

	// GetByEmail returns repository.ErrProfileNotFound when missing
	GetByEmail(ctx context.Context, email string) (*model.Profile, error)

	// UpdateFields updates the given columns
	UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error

	// Count returns the total number of profiles
	Count(ctx context.Context) (int64, error)

	// ListWithBalance lists profiles joined with their wallet balance
	ListWithBalance(ctx context.Context, page repository.Page) ([]*model.ProfileWithBalance, int64, error)
}

// WalletRepository defines the interface for wallet balance access
type WalletRepository interface {
	// GetByUserID returns repository.ErrWalletNotFound when missing
	GetByUserID(ctx context.Context, userID int64) (*model.Wallet, error)

	// GetOrCreate returns the wallet, creating an empty one if needed
	GetOrCreate(ctx context.Context, tx *gorm.DB, userID int64) (*model.Wallet, error)

	// ApplyDelta atomically adds a signed delta to the balance.
	// Returns repository.ErrInsufficientBalance if the result would be negative.
	ApplyDelta(ctx context.Context, tx *gorm.DB, userID int64, delta decimal.Decimal) (*model.BalanceChange, error)
}

// LedgerRepository defines the interface for the append-only wallet ledger
type LedgerRepository interface {
	// Create appends a ledger entry
	Create(ctx context.Context, tx *gorm.DB, entry *model.LedgerEntry) error

	// ListByUserID lists entries newest first
	ListByUserID(ctx context.Context, userID int64, page repository.Page) ([]*model.LedgerEntry, int64, error)

	// SumByUserID returns the sum of all entry amounts of a user
	SumByUserID(ctx context.Context, userID int64) (decimal.Decimal, error)
}

// WalletTransactionRepository defines the interface for deposit/withdraw/entry fee documents
type WalletTransactionRepository interface {
	// Create inserts a new document
	Create(ctx context.Context, tx *gorm.DB, t *model.WalletTransaction) error

	// GetByID returns repository.ErrWalletTransactionNotFound when missing
	GetByID(ctx context.Context, id int64) (*model.WalletTransaction, error)

	// GetByIDForUpdate locks the row for the rest of the transaction
	GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id int64) (*model.WalletTransaction, error)

	// UpdateStatus moves a document from fromStatus to toStatus, or returns repository.ErrStatusConflict
	UpdateStatus(ctx context.Context, tx *gorm.DB, id int64, fromStatus, toStatus string, processedBy int64, note string) error

	// List lists documents matching the filter newest first
	List(ctx context.Context, filter model.WalletTxFilter, page repository.Page) ([]*model.WalletTransaction, int64, error)

	// CountPendingByType counts pending documents grouped by type
	CountPendingByType(ctx context.Context) (map[string]int64, error)

	// SumCompleted sums completed documents of a type
	SumCompleted(ctx context.Context, txType string) (decimal.Decimal, error)
}

// TournamentRepository defines the interface for tournament data access
type TournamentRepository interface {
	// Create inserts a tournament, returns repository.ErrDuplicate on slug clash
	Create(ctx context.Context, t *model.Tournament) error

	// GetByID returns repository.ErrTournamentNotFound when missing
	GetByID(ctx context.Context, id int64) (*model.Tournament, error)

	// GetByIDForUpdate locks the row for the rest of the transaction
	GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id int64) (*model.Tournament, error)

	// GetByIDs loads several tournaments at once
	GetByIDs(ctx context.Context, ids []int64) ([]*model.Tournament, error)

	// SlugExists reports whether a slug is taken
	SlugExists(ctx context.Context, slug string) (bool, error)

	// UpdateFields updates editable columns; pass the tx holding the row lock
	UpdateFields(ctx context.Context, tx *gorm.DB, id int64, fields map[string]interface{}) error

	// UpdateSeats sets current_players and status, guarded by the expected player count
	UpdateSeats(ctx context.Context, tx *gorm.DB, id int64, expectedPlayers, newPlayers int, newStatus string) error

	// UpdateStatus applies a status transition, or returns repository.ErrStatusConflict
	UpdateStatus(ctx context.Context, tx *gorm.DB, id int64, fromStatus, toStatus string) error

	// Delete removes a tournament without participants
	Delete(ctx context.Context, id int64) error

	// List lists tournaments by start time
	List(ctx context.Context, filter model.TournamentFilter, page repository.Page) ([]*model.Tournament, int64, error)

	// ListDueToStart returns open/full tournaments whose start time has passed
	ListDueToStart(ctx context.Context, now time.Time, limit int) ([]*model.Tournament, error)

	// CountByStatus counts tournaments grouped by status
	CountByStatus(ctx context.Context) (map[string]int64, error)
}

// ParticipantRepository defines the interface for tournament registrations
type ParticipantRepository interface {
	// Create inserts a registration, returns repository.ErrDuplicate on a second join or slot clash
	Create(ctx context.Context, tx *gorm.DB, p *model.Participant) error

	// GetByID returns repository.ErrParticipantNotFound when missing
	GetByID(ctx context.Context, id int64) (*model.Participant, error)

	// GetByIDForUpdate locks the row for the rest of the transaction
	GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id int64) (*model.Participant, error)

	// FindByTournamentAndUser returns nil, nil when the user has not joined
	FindByTournamentAndUser(ctx context.Context, tx *gorm.DB, tournamentID, userID int64) (*model.Participant, error)

	// FindByWalletTransactionID returns nil, nil when no registration references the document
	FindByWalletTransactionID(ctx context.Context, tx *gorm.DB, walletTxID int64) (*model.Participant, error)

	// TakenSlots returns the occupied slot numbers in ascending order
	TakenSlots(ctx context.Context, tx *gorm.DB, tournamentID int64) ([]int, error)

	// UpdateResult sets the match result
	UpdateResult(ctx context.Context, tx *gorm.DB, id int64, result string) error

	// UpdatePaymentStatus sets the payment status
	UpdatePaymentStatus(ctx context.Context, tx *gorm.DB, id int64, status string) error

	// Delete removes a registration
	Delete(ctx context.Context, tx *gorm.DB, id int64) error

	// ListByTournament lists registrations by slot
	ListByTournament(ctx context.Context, tournamentID int64) ([]*model.Participant, error)

	// ListByUser lists a user's registrations newest first
	ListByUser(ctx context.Context, userID int64, page repository.Page) ([]*model.Participant, int64, error)
}

// OutboxRepository defines the interface for the transactional outbox
type OutboxRepository interface {
	Create(ctx context.Context, tx *gorm.DB, msg *model.OutboxMessage) error
}

// NotificationRepository defines the interface for user notifications
type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	ListByUser(ctx context.Context, userID int64, unreadOnly bool, page repository.Page) ([]*model.Notification, int64, error)
	CountUnread(ctx context.Context, userID int64) (int64, error)
	MarkRead(ctx context.Context, userID, id int64) error
	MarkAllRead(ctx context.Context, userID int64) (int64, error)
}

// ActivityRepository defines the interface for the activity log
type ActivityRepository interface {
	Create(ctx context.Context, a *model.ActivityLog) error
	ListByUser(ctx context.Context, userID int64, page repository.Page) ([]*model.ActivityLog, int64, error)
}

// ContactRepository defines the interface for contact form submissions
type ContactRepository interface {
	Create(ctx context.Context, c *model.ContactSubmission) error
	List(ctx context.Context, page repository.Page) ([]*model.ContactSubmission, int64, error)
}

// SessionStore remembers revoked session ids
type SessionStore interface {
	Revoke(ctx context.Context, sessionID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, sessionID string) (bool, error)
}

// ObjectStore stores uploaded files and returns their public URL
type ObjectStore interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
}
