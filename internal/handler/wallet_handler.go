package handler

import (
	"firestrike/internal/model"
	"firestrike/internal/service"
	"firestrike/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// GetWallet 钱包余额
// GET /api/v1/wallet
func (h *Handler) GetWallet(c *gin.Context) {
	w, err := h.wallet.GetWallet(c.Request.Context(), currentSession(c).UserID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{
		"user_id": w.UserID,
		"balance": w.Balance.StringFixed(2),
	})
}

// ListWalletTransactions 我的单据
// GET /api/v1/wallet/transactions?type=deposit&page=1&page_size=20
func (h *Handler) ListWalletTransactions(c *gin.Context) {
	page, size := h.pageQuery(c)
	list, total, err := h.wallet.ListTransactions(c.Request.Context(), currentSession(c).UserID, c.Query("type"), page, size)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, pageResult(list, total, page, size))
}

// ListLedger 余额流水
// GET /api/v1/wallet/ledger
func (h *Handler) ListLedger(c *gin.Context) {
	page, size := h.pageQuery(c)
	list, total, err := h.wallet.ListLedger(c.Request.Context(), currentSession(c).UserID, page, size)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, pageResult(list, total, page, size))
}

type DepositRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	Screenshot    string          `json:"screenshot"`
	TransactionID string          `json:"transaction_id"`
}

// RequestDeposit 提交充值（截图 + 交易号，等待审核）
// POST /api/v1/wallet/deposit
func (h *Handler) RequestDeposit(c *gin.Context) {
	var req DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}
	wtx, err := h.wallet.RequestDeposit(c.Request.Context(), currentSession(c).UserID, service.DepositRequest{
		Amount:        req.Amount,
		Screenshot:    req.Screenshot,
		TransactionID: req.TransactionID,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, wtx)
}

type WithdrawRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	PayoutUPI string          `json:"payout_upi"`
}

// RequestWithdraw 提现申请，余额立即扣减
// POST /api/v1/wallet/withdraw
func (h *Handler) RequestWithdraw(c *gin.Context) {
	var req WithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}
	wtx, err := h.wallet.RequestWithdraw(c.Request.Context(), currentSession(c).UserID, service.WithdrawRequest{
		Amount:    req.Amount,
		PayoutUPI: req.PayoutUPI,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, wtx)
}

// ListAllTransactions 管理后台单据列表
// GET /api/v1/admin/transactions?status=pending&type=deposit&user_id=1
func (h *Handler) ListAllTransactions(c *gin.Context) {
	var q struct {
		UserID int64  `form:"user_id"`
		Type   string `form:"type"`
		Status string `form:"status"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}
	page, size := h.pageQuery(c)
	list, total, err := h.wallet.ListAll(c.Request.Context(), model.WalletTxFilter{
		UserID: q.UserID,
		Type:   q.Type,
		Status: q.Status,
	}, page, size)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, pageResult(list, total, page, size))
}

type ReviewRequest struct {
	Note string `json:"note"`
}

// ApproveTransaction 审核通过
// POST /api/v1/admin/transactions/:id/approve
func (h *Handler) ApproveTransaction(c *gin.Context) {
	h.review(c, true)
}

// RejectTransaction 审核驳回
// POST /api/v1/admin/transactions/:id/reject
func (h *Handler) RejectTransaction(c *gin.Context) {
	h.review(c, false)
}

func (h *Handler) review(c *gin.Context, approve bool) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req ReviewRequest
	// note 可选，允许空 body
	_ = c.ShouldBindJSON(&req)

	adminID := currentSession(c).UserID
	var (
		wtx *model.WalletTransaction
		err error
	)
	if approve {
		wtx, err = h.wallet.Approve(c.Request.Context(), adminID, id, req.Note)
	} else {
		wtx, err = h.wallet.Reject(c.Request.Context(), adminID, id, req.Note)
	}
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, wtx)
}

// ReconcileUser 核对余额与流水
// GET /api/v1/admin/users/:id/reconcile
func (h *Handler) ReconcileUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	r, err := h.wallet.Reconcile(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, r)
}
