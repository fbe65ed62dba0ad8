package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	CodeSuccess       = 0
	CodeParamError    = 400
	CodeUnauthorized  = 401
	CodeForbidden     = 403
	CodeNotFound      = 404
	CodeConflict      = 409
	CodeServerError   = 500
	CodeBusinessError = 1000
)

// 业务错误码
const (
	CodeTournamentNotFound    = 1001
	CodeTournamentFull        = 1002
	CodeBalanceNotEnough      = 1003
	CodeAlreadyJoined         = 1004
	CodeWalletNotFound        = 1005
	CodeTournamentClosed      = 1006
	CodeTransactionNotFound   = 1007
	CodeTransactionStatus     = 1008
	CodeInvalidCredentials    = 1009
	CodeEmailTaken            = 1010
	CodePaymentProofRequired  = 1011
	CodeInvalidResult         = 1012
	CodeTournamentNotStarted  = 1013
	CodeInvalidTransition     = 1014
	CodeParticipantNotFound   = 1015
	CodeProfileNotFound       = 1016
	CodeSystemBusy            = 1017
	CodeTournamentHasEntrants = 1018
	CodeUnsupportedUpload     = 1019
	CodeNotificationNotFound  = 1020
	CodeWithdrawBelowMinimum  = 1021
	CodeInvalidAmount         = 1022
	CodeInvalidPaymentMethod  = 1023
	CodeUploadTooLarge        = 1024
	CodePaymentPending        = 1025
)

type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeSuccess,
		Message: "success",
		Data:    data,
	})
}

func Error(c *gin.Context, code int, message string) {
	c.JSON(http.StatusOK, Response{
		Code:    code,
		Message: message,
	})
}

// ErrorWithData 业务错误附带数据，例如余额不足时的差额
func ErrorWithData(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    code,
		Message: message,
		Data:    data,
	})
}

func ParamError(c *gin.Context, message string) {
	Error(c, CodeParamError, message)
}

func ServerError(c *gin.Context, message string) {
	Error(c, CodeServerError, message)
}

func BusinessError(c *gin.Context, code int, message string) {
	Error(c, code, message)
}

// Unauthorized 鉴权失败使用真实 HTTP 状态码，便于网关和前端统一跳转登录
func Unauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
		Code:    CodeUnauthorized,
		Message: message,
	})
}

func Forbidden(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusForbidden, Response{
		Code:    CodeForbidden,
		Message: message,
	})
}
