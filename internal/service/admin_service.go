package service

import (
	"context"

	"firestrike/internal/model"
)

type AdminService struct {
	profiles    ProfileRepository
	tournaments TournamentRepository
	walletTxs   WalletTransactionRepository
}

func NewAdminService(profiles ProfileRepository, tournaments TournamentRepository, walletTxs WalletTransactionRepository) *AdminService {
	return &AdminService{profiles: profiles, tournaments: tournaments, walletTxs: walletTxs}
}

// Stats 管理后台概览
func (s *AdminService) Stats(ctx context.Context) (*model.DashboardStats, error) {
	users, err := s.profiles.Count(ctx)
	if err != nil {
		return nil, err
	}
	byStatus, err := s.tournaments.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	pending, err := s.walletTxs.CountPendingByType(ctx)
	if err != nil {
		return nil, err
	}
	deposits, err := s.walletTxs.SumCompleted(ctx, model.WalletTxTypeDeposit)
	if err != nil {
		return nil, err
	}
	withdraws, err := s.walletTxs.SumCompleted(ctx, model.WalletTxTypeWithdraw)
	if err != nil {
		return nil, err
	}

	return &model.DashboardStats{
		Users:               users,
		TournamentsByStatus: byStatus,
		PendingByType:       pending,
		CompletedDeposits:   deposits.StringFixed(2),
		CompletedWithdraws:  withdraws.StringFixed(2),
	}, nil
}
