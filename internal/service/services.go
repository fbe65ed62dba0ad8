package service

import (
	"firestrike/internal/auth"
	"firestrike/internal/config"
	"firestrike/internal/events"
	"firestrike/internal/infrastructure/cache"
	"firestrike/internal/infrastructure/lock"
	"firestrike/internal/repository"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// Services 所有业务服务，main 中组装一次后交给 handler
type Services struct {
	Auth          *AuthService
	Profiles      *ProfileService
	Tournaments   *TournamentService
	Join          *JoinService
	Results       *ResultService
	Wallet        *WalletService
	Uploads       *UploadService
	Notifications *NotificationService
	Contact       *ContactService
	Admin         *AdminService
}

// NewServices 组装仓储与服务。store 为 nil 时上传接口返回 ErrStorageUnavailable
func NewServices(db *gorm.DB, rdb *redis.Client, store ObjectStore, bus *events.Bus, cfg *config.Config) *Services {
	transactor := repository.NewTransactor(db)
	profiles := repository.NewProfileRepository(db)
	wallets := repository.NewWalletRepository(db)
	ledger := repository.NewLedgerRepository(db)
	walletTxs := repository.NewWalletTransactionRepository(db)
	tournaments := repository.NewTournamentRepository(db)
	participants := repository.NewParticipantRepository(db)
	outbox := repository.NewOutboxRepository(db)
	notifications := repository.NewNotificationRepository(db)
	activity := repository.NewActivityRepository(db)
	contacts := repository.NewContactRepository(db)

	readThrough := cache.NewReadThrough(cache.NewRedisBackend(rdb), cfg.Cache.Prefix).WithRedelete(cfg.Cache.RedeleteDelay)
	sessions := cache.NewSessionStore(rdb, cfg.Cache.Prefix)
	locker := lock.NewUserLocker(rdb, cfg.Business.LockRetryInterval, cfg.Business.LockMaxRetries)
	tokens := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)

	uploads := NewUploadService(store, cfg.Storage.MaxUploadBytes)

	return &Services{
		Auth:        NewAuthService(transactor, profiles, wallets, sessions, tokens, bus, cfg),
		Profiles:    NewProfileService(profiles, uploads, bus, readThrough, cfg),
		Tournaments: NewTournamentService(transactor, tournaments, outbox, bus, readThrough, cfg),
		Join: NewJoinService(JoinServiceDeps{
			Transactor:   transactor,
			Tournaments:  tournaments,
			Participants: participants,
			Wallets:      wallets,
			Ledger:       ledger,
			WalletTxs:    walletTxs,
			Outbox:       outbox,
			Locker:       locker,
			Bus:          bus,
			Cache:        readThrough,
		}, cfg),
		Results: NewResultService(transactor, tournaments, participants, outbox, bus, cfg),
		Wallet: NewWalletService(WalletServiceDeps{
			Transactor:   transactor,
			Wallets:      wallets,
			Ledger:       ledger,
			WalletTxs:    walletTxs,
			Participants: participants,
			Tournaments:  tournaments,
			Outbox:       outbox,
			Locker:       locker,
			Bus:          bus,
			Cache:        readThrough,
		}, cfg),
		Uploads:       uploads,
		Notifications: NewNotificationService(notifications, activity, cfg),
		Contact:       NewContactService(contacts, cfg),
		Admin:         NewAdminService(profiles, tournaments, walletTxs),
	}
}
