package handler

import (
	"strconv"

	"firestrike/internal/auth"
	"firestrike/internal/config"
	"firestrike/internal/service"
	"firestrike/pkg/response"

	"github.com/gin-gonic/gin"
)

// Handler 统一处理器，包含所有服务依赖
type Handler struct {
	auth          *service.AuthService
	profiles      *service.ProfileService
	tournaments   *service.TournamentService
	join          *service.JoinService
	results       *service.ResultService
	wallet        *service.WalletService
	uploads       *service.UploadService
	notifications *service.NotificationService
	contact       *service.ContactService
	admin         *service.AdminService
	cfg           *config.Config
}

// NewHandler 创建处理器实例
func NewHandler(svc *service.Services, cfg *config.Config) *Handler {
	return &Handler{
		auth:          svc.Auth,
		profiles:      svc.Profiles,
		tournaments:   svc.Tournaments,
		join:          svc.Join,
		results:       svc.Results,
		wallet:        svc.Wallet,
		uploads:       svc.Uploads,
		notifications: svc.Notifications,
		contact:       svc.Contact,
		admin:         svc.Admin,
		cfg:           cfg,
	}
}

// pageQuery 通用分页参数 ?page=1&page_size=20，返回纠正后的值，与服务层查询时用的一致
func (h *Handler) pageQuery(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", "0"))
	p := service.NormalizePage(h.cfg, page, size)
	return p.Page, p.Size
}

func pageResult(list interface{}, total int64, page, size int) gin.H {
	return gin.H{
		"list":      list,
		"total":     total,
		"page":      page,
		"page_size": size,
	}
}

// pathID 解析路径参数中的数字 ID，失败时直接写参数错误
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.ParamError(c, name+" 参数错误")
		return 0, false
	}
	return id, true
}

// currentSession RequireAuth 之后一定存在
func currentSession(c *gin.Context) *auth.Session {
	sess, _ := auth.FromContext(c.Request.Context())
	return sess
}
