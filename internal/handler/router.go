package handler

import (
	"firestrike/internal/config"

	"github.com/gin-gonic/gin"
)

// SetupRouter 配置路由
func SetupRouter(h *Handler, authn Authenticator, cfg *config.Config) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}

	r := gin.New()

	// 注册中间件
	r.Use(RecoveryMiddleware())
	r.Use(LoggerMiddleware())
	r.Use(CORSMiddleware())

	maxUpload := cfg.Storage.MaxUploadBytes
	if maxUpload > 0 {
		r.MaxMultipartMemory = maxUpload
	}

	api := r.Group("/api/v1")
	{
		// 公开接口
		api.POST("/auth/signup", h.SignUp)
		api.POST("/auth/signin", h.SignIn)
		api.POST("/auth/oauth", GatewayAuth(cfg.Auth.GatewayToken), h.SignInWithOAuth)
		api.GET("/tournaments", h.ListTournaments)
		api.GET("/tournaments/:id", h.GetTournament)
		api.POST("/contact", h.SubmitContact)
		api.GET("/health", Health)

		// 登录用户
		user := api.Group("", RequireAuth(authn))
		{
			user.POST("/auth/signout", h.SignOut)
			user.POST("/auth/refresh", h.Refresh)

			user.GET("/me", h.GetMe)
			user.PUT("/me", h.UpdateMe)
			user.POST("/me/avatar", h.UploadAvatar)
			user.GET("/me/tournaments", h.MyTournaments)
			user.GET("/me/activity", h.MyActivity)

			user.GET("/tournaments/:id/join-options", h.JoinOptions)
			user.POST("/tournaments/:id/join", h.JoinTournament)

			user.GET("/wallet", h.GetWallet)
			user.GET("/wallet/transactions", h.ListWalletTransactions)
			user.GET("/wallet/ledger", h.ListLedger)
			user.POST("/wallet/deposit", h.RequestDeposit)
			user.POST("/wallet/withdraw", h.RequestWithdraw)

			user.POST("/uploads/screenshot", h.UploadScreenshot)

			user.GET("/notifications", h.ListNotifications)
			user.GET("/notifications/unread-count", h.UnreadCount)
			user.POST("/notifications/:id/read", h.MarkNotificationRead)
			user.POST("/notifications/read-all", h.MarkAllNotificationsRead)
		}

		// 管理后台
		admin := api.Group("/admin", RequireAuth(authn), RequireAdmin())
		{
			admin.GET("/stats", h.Stats)
			admin.GET("/users", h.ListUsers)
			admin.POST("/users/:id/admin", h.SetUserAdmin)
			admin.GET("/users/:id/reconcile", h.ReconcileUser)

			admin.POST("/tournaments", h.CreateTournament)
			admin.PUT("/tournaments/:id", h.UpdateTournament)
			admin.DELETE("/tournaments/:id", h.DeleteTournament)
			admin.POST("/tournaments/:id/status", h.SetTournamentStatus)
			admin.GET("/tournaments/:id/participants", h.ListParticipants)

			admin.POST("/participants/:id/result", h.MarkResult)

			admin.GET("/transactions", h.ListAllTransactions)
			admin.POST("/transactions/:id/approve", h.ApproveTransaction)
			admin.POST("/transactions/:id/reject", h.RejectTransaction)

			admin.GET("/contact", h.ListContacts)
		}
	}

	// 健康检查
	r.GET("/health", Health)

	return r
}

// Health 健康检查
func Health(c *gin.Context) {
	c.JSON(200, gin.H{"status": "ok"})
}
