package handler

import (
	"firestrike/internal/auth"
	"firestrike/internal/model"
	"firestrike/internal/service"
	"firestrike/pkg/response"

	"github.com/gin-gonic/gin"
)

type SignUpRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Phone    string `json:"phone"`
}

func sessionResult(sess *auth.Session, p *model.Profile) gin.H {
	return gin.H{
		"session": sess,
		"profile": p,
	}
}

// SignUp 注册
// POST /api/v1/auth/signup
func (h *Handler) SignUp(c *gin.Context) {
	var req SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	sess, p, err := h.auth.SignUp(c.Request.Context(), service.SignUpRequest{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Phone:    req.Phone,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, sessionResult(sess, p))
}

type SignInRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// SignIn 邮箱密码登录
// POST /api/v1/auth/signin
func (h *Handler) SignIn(c *gin.Context) {
	var req SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	sess, p, err := h.auth.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, sessionResult(sess, p))
}

type OAuthRequest struct {
	Provider string `json:"provider" binding:"required"`
	Subject  string `json:"subject" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Name     string `json:"name"`
}

// SignInWithOAuth 网关完成第三方授权后回调
// POST /api/v1/auth/oauth（需要网关 token）
func (h *Handler) SignInWithOAuth(c *gin.Context) {
	var req OAuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	sess, p, err := h.auth.SignInWithOAuth(c.Request.Context(), service.OAuthIdentity{
		Provider: req.Provider,
		Subject:  req.Subject,
		Email:    req.Email,
		Name:     req.Name,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, sessionResult(sess, p))
}

// SignOut 注销当前会话
// POST /api/v1/auth/signout
func (h *Handler) SignOut(c *gin.Context) {
	if err := h.auth.SignOut(c.Request.Context(), currentSession(c)); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "已退出登录"})
}

// Refresh 换发新 token
// POST /api/v1/auth/refresh
func (h *Handler) Refresh(c *gin.Context) {
	sess, err := h.auth.Refresh(c.Request.Context(), currentSession(c))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"session": sess})
}

// GetMe 当前用户资料
// GET /api/v1/me
func (h *Handler) GetMe(c *gin.Context) {
	p, err := h.profiles.GetProfile(c.Request.Context(), currentSession(c).UserID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, p)
}

type UpdateMeRequest struct {
	Name  *string `json:"name"`
	Phone *string `json:"phone"`
}

// UpdateMe 修改资料
// PUT /api/v1/me
func (h *Handler) UpdateMe(c *gin.Context) {
	var req UpdateMeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	p, err := h.profiles.UpdateProfile(c.Request.Context(), currentSession(c).UserID, req.Name, req.Phone)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, p)
}

// UploadAvatar 上传头像，multipart 字段名 file
// POST /api/v1/me/avatar
func (h *Handler) UploadAvatar(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		response.ParamError(c, "请选择要上传的图片")
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.ParamError(c, "读取上传文件失败")
		return
	}
	defer f.Close()

	p, err := h.profiles.UploadAvatar(c.Request.Context(), currentSession(c).UserID, f, fh.Size)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, p)
}

// MyTournaments 我的比赛记录
// GET /api/v1/me/tournaments?page=1&page_size=20
func (h *Handler) MyTournaments(c *gin.Context) {
	page, size := h.pageQuery(c)
	items, total, err := h.join.MyTournaments(c.Request.Context(), currentSession(c).UserID, page, size)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, pageResult(items, total, page, size))
}

// MyActivity 活动日志
// GET /api/v1/me/activity
func (h *Handler) MyActivity(c *gin.Context) {
	page, size := h.pageQuery(c)
	items, total, err := h.notifications.ListActivity(c.Request.Context(), currentSession(c).UserID, page, size)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, pageResult(items, total, page, size))
}
