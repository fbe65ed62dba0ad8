package handler

import (
	"firestrike/internal/service"
	"firestrike/pkg/response"

	"github.com/gin-gonic/gin"
)

// ListNotifications 通知列表
// GET /api/v1/notifications?unread=true
func (h *Handler) ListNotifications(c *gin.Context) {
	page, size := h.pageQuery(c)
	unreadOnly := c.Query("unread") == "true"
	list, total, err := h.notifications.List(c.Request.Context(), currentSession(c).UserID, unreadOnly, page, size)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, pageResult(list, total, page, size))
}

// UnreadCount 未读数量
// GET /api/v1/notifications/unread-count
func (h *Handler) UnreadCount(c *gin.Context) {
	n, err := h.notifications.UnreadCount(c.Request.Context(), currentSession(c).UserID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"count": n})
}

// MarkNotificationRead 标记已读
// POST /api/v1/notifications/:id/read
func (h *Handler) MarkNotificationRead(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.notifications.MarkRead(c.Request.Context(), currentSession(c).UserID, id); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"id": id})
}

// MarkAllNotificationsRead 全部已读
// POST /api/v1/notifications/read-all
func (h *Handler) MarkAllNotificationsRead(c *gin.Context) {
	n, err := h.notifications.MarkAllRead(c.Request.Context(), currentSession(c).UserID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"updated": n})
}

// UploadScreenshot 上传付款截图，返回的地址用于充值或 UPI 报名
// POST /api/v1/uploads/screenshot
func (h *Handler) UploadScreenshot(c *gin.Context) {
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

	url, err := h.uploads.UploadScreenshot(c.Request.Context(), currentSession(c).UserID, f, fh.Size)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"url": url})
}

type ContactRequest struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required"`
	Subject string `json:"subject"`
	Message string `json:"message" binding:"required"`
}

// SubmitContact 联系我们
// POST /api/v1/contact
func (h *Handler) SubmitContact(c *gin.Context) {
	var req ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}
	sub, err := h.contact.Submit(c.Request.Context(), service.ContactRequest{
		Name:    req.Name,
		Email:   req.Email,
		Subject: req.Subject,
		Message: req.Message,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"id": sub.ID})
}
