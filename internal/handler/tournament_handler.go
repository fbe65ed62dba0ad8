package handler

import (
	"time"

	"firestrike/internal/model"
	"firestrike/internal/service"
	"firestrike/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// ListTournaments 赛事列表
// GET /api/v1/tournaments?status=open&type=Solo&page=1&page_size=20
func (h *Handler) ListTournaments(c *gin.Context) {
	page, size := h.pageQuery(c)
	filter := model.TournamentFilter{
		Status: c.Query("status"),
		Type:   c.Query("type"),
	}

	result, err := h.tournaments.List(c.Request.Context(), filter, page, size)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, pageResult(result.Items, result.Total, page, size))
}

// GetTournament 赛事详情
// GET /api/v1/tournaments/:id
func (h *Handler) GetTournament(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	t, err := h.tournaments.Get(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, t)
}

// JoinOptions 报名第一步：报名费、余额、可用支付方式
// GET /api/v1/tournaments/:id/join-options
func (h *Handler) JoinOptions(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	opts, err := h.join.JoinOptions(c.Request.Context(), currentSession(c).UserID, id)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, opts)
}

type JoinRequest struct {
	GameName      string `json:"game_name" binding:"required"`
	UID           string `json:"uid" binding:"required"`
	PaymentMethod string `json:"payment_method" binding:"required,oneof=wallet upi free"`
	Screenshot    string `json:"screenshot"`
	TransactionID string `json:"transaction_id"`
}

// JoinTournament 报名
// POST /api/v1/tournaments/:id/join
func (h *Handler) JoinTournament(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req JoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	p, err := h.join.Join(c.Request.Context(), currentSession(c).UserID, id, service.JoinRequest{
		GameName:      req.GameName,
		UID:           req.UID,
		PaymentMethod: req.PaymentMethod,
		Screenshot:    req.Screenshot,
		TransactionID: req.TransactionID,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, p)
}

// TournamentRequest 创建和修改共用，修改时缺省字段保持不变
type TournamentRequest struct {
	Title       *string          `json:"title"`
	Type        *string          `json:"type"`
	EntryFee    *decimal.Decimal `json:"entry_fee"`
	PrizePool   *decimal.Decimal `json:"prize_pool"`
	MaxPlayers  *int             `json:"max_players"`
	StartTime   *time.Time       `json:"start_time"`
	Description *string          `json:"description"`
}

func (r TournamentRequest) input() service.TournamentInput {
	return service.TournamentInput{
		Title:       r.Title,
		Type:        r.Type,
		EntryFee:    r.EntryFee,
		PrizePool:   r.PrizePool,
		MaxPlayers:  r.MaxPlayers,
		StartTime:   r.StartTime,
		Description: r.Description,
	}
}

// CreateTournament 创建赛事
// POST /api/v1/admin/tournaments
func (h *Handler) CreateTournament(c *gin.Context) {
	var req TournamentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}
	t, err := h.tournaments.Create(c.Request.Context(), req.input())
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, t)
}

// UpdateTournament 修改赛事
// PUT /api/v1/admin/tournaments/:id
func (h *Handler) UpdateTournament(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req TournamentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}
	t, err := h.tournaments.Update(c.Request.Context(), id, req.input())
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, t)
}

// DeleteTournament 删除没有报名的赛事
// DELETE /api/v1/admin/tournaments/:id
func (h *Handler) DeleteTournament(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.tournaments.Delete(c.Request.Context(), id); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "赛事已删除"})
}

// SetTournamentStatus 手动流转状态
// POST /api/v1/admin/tournaments/:id/status
func (h *Handler) SetTournamentStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}
	t, err := h.tournaments.SetStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, t)
}

// ListParticipants 赛事报名名单
// GET /api/v1/admin/tournaments/:id/participants
func (h *Handler) ListParticipants(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	list, err := h.join.ListParticipants(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"list": list, "total": len(list)})
}

// MarkResult 标记比赛成绩，重复标记相同成绩返回 changed=false
// POST /api/v1/admin/participants/:id/result
func (h *Handler) MarkResult(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Result string `json:"result" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}
	p, changed, err := h.results.MarkResult(c.Request.Context(), currentSession(c).UserID, id, req.Result)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"participant": p, "changed": changed})
}
