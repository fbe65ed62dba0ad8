package model

// DashboardStats 管理后台概览
type DashboardStats struct {
	Users               int64            `json:"users"`
	TournamentsByStatus map[string]int64 `json:"tournaments_by_status"`
	PendingByType       map[string]int64 `json:"pending_transactions_by_type"`
	CompletedDeposits   string           `json:"completed_deposits"`
	CompletedWithdraws  string           `json:"completed_withdraws"`
}

// Reconciliation 余额与流水核对结果
type Reconciliation struct {
	UserID    int64  `json:"user_id"`
	Balance   string `json:"balance"`
	LedgerSum string `json:"ledger_sum"`
	Balanced  bool   `json:"balanced"`
}
