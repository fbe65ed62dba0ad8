package handler

import (
	"firestrike/pkg/response"

	"github.com/gin-gonic/gin"
)

// Stats 管理后台概览
// GET /api/v1/admin/stats
func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.admin.Stats(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, stats)
}

// ListUsers 用户列表（含余额）
// GET /api/v1/admin/users
func (h *Handler) ListUsers(c *gin.Context) {
	page, size := h.pageQuery(c)
	list, total, err := h.profiles.ListProfiles(c.Request.Context(), page, size)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, pageResult(list, total, page, size))
}

// SetUserAdmin 设置或取消管理员
// POST /api/v1/admin/users/:id/admin
func (h *Handler) SetUserAdmin(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		IsAdmin *bool `json:"is_admin" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}
	if err := h.profiles.SetAdmin(c.Request.Context(), id, *req.IsAdmin); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"user_id": id, "is_admin": *req.IsAdmin})
}

// ListContacts 联系表单列表
// GET /api/v1/admin/contact
func (h *Handler) ListContacts(c *gin.Context) {
	page, size := h.pageQuery(c)
	list, total, err := h.contact.List(c.Request.Context(), page, size)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, pageResult(list, total, page, size))
}
