package handler

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"firestrike/internal/auth"
	"firestrike/pkg/response"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// LoggerMiddleware 日志中间件
func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		// 处理请求
		c.Next()

		if query != "" {
			path = path + "?" + query
		}

		entry := log.WithFields(log.Fields{
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
			"ip":      c.ClientIP(),
			"method":  c.Request.Method,
			"path":    path,
		})
		if sess, ok := auth.FromContext(c.Request.Context()); ok {
			entry = entry.WithField("user_id", sess.UserID)
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			entry.Error("[HTTP]")
			return
		}
		entry.Info("[HTTP]")
	}
}

// RecoveryMiddleware 恢复中间件，防止 panic 导致服务崩溃
func RecoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.WithFields(log.Fields{
					"panic":  err,
					"method": c.Request.Method,
					"path":   c.Request.URL.Path,
				}).Error("[PANIC]")
				c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
					Code:    response.CodeServerError,
					Message: "服务器内部错误",
				})
			}
		}()
		c.Next()
	}
}

// CORSMiddleware 跨域中间件
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization, X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Authenticator 校验 bearer token，由 AuthService 实现
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*auth.Session, error)
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// RequireAuth 校验登录态并把会话放入请求 context
func RequireAuth(a Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			response.Unauthorized(c, "缺少 Authorization 头")
			return
		}

		sess, err := a.Authenticate(c.Request.Context(), token)
		if err != nil {
			response.Unauthorized(c, "未登录或会话已失效")
			return
		}

		c.Request = c.Request.WithContext(auth.WithSession(c.Request.Context(), sess))
		c.Next()
	}
}

// RequireAdmin 必须在 RequireAuth 之后使用
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := auth.FromContext(c.Request.Context())
		if !ok {
			response.Unauthorized(c, "未登录或会话已失效")
			return
		}
		if !sess.IsAdmin {
			response.Forbidden(c, "需要管理员权限")
			return
		}
		c.Next()
	}
}

// GatewayAuth 只允许持有网关 token 的调用方，token 未配置时拒绝所有请求
func GatewayAuth(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := bearerToken(c)
		if token == "" || got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			response.Unauthorized(c, "网关鉴权失败")
			return
		}
		c.Next()
	}
}
