package handler

import (
	"errors"

	"firestrike/internal/repository"
	"firestrike/internal/service"
	"firestrike/pkg/response"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

type errorCode struct {
	err  error
	code int
}

// 按顺序匹配，越具体的错误越靠前
var errorCodes = []errorCode{
	{repository.ErrTournamentNotFound, response.CodeTournamentNotFound},
	{repository.ErrWalletNotFound, response.CodeWalletNotFound},
	{repository.ErrWalletTransactionNotFound, response.CodeTransactionNotFound},
	{repository.ErrParticipantNotFound, response.CodeParticipantNotFound},
	{repository.ErrProfileNotFound, response.CodeProfileNotFound},
	{repository.ErrNotificationNotFound, response.CodeNotificationNotFound},
	{repository.ErrStatusConflict, response.CodeTransactionStatus},
	{service.ErrTournamentFull, response.CodeTournamentFull},
	{service.ErrTournamentClosed, response.CodeTournamentClosed},
	{service.ErrTournamentNotStarted, response.CodeTournamentNotStarted},
	{service.ErrTournamentHasEntries, response.CodeTournamentHasEntrants},
	{service.ErrAlreadyJoined, response.CodeAlreadyJoined},
	{service.ErrPaymentProofRequired, response.CodePaymentProofRequired},
	{service.ErrInvalidPaymentMethod, response.CodeInvalidPaymentMethod},
	{service.ErrInvalidResult, response.CodeInvalidResult},
	{service.ErrInvalidTransition, response.CodeInvalidTransition},
	{service.ErrPaymentPending, response.CodePaymentPending},
	{service.ErrInvalidCredentials, response.CodeInvalidCredentials},
	{service.ErrEmailTaken, response.CodeEmailTaken},
	{service.ErrInvalidAmount, response.CodeInvalidAmount},
	{service.ErrWithdrawBelowMinimum, response.CodeWithdrawBelowMinimum},
	{service.ErrUnsupportedUpload, response.CodeUnsupportedUpload},
	{service.ErrUploadTooLarge, response.CodeUploadTooLarge},
	{service.ErrSystemBusy, response.CodeSystemBusy},
	{service.ErrInvalidInput, response.CodeParamError},
}

// handleError 把服务层错误转换为统一响应
func handleError(c *gin.Context, err error) {
	var insufficient *service.InsufficientBalanceError
	if errors.As(err, &insufficient) {
		response.ErrorWithData(c, response.CodeBalanceNotEnough, service.ErrInsufficientBalance.Error(), gin.H{
			"balance":   insufficient.Balance.StringFixed(2),
			"required":  insufficient.Required.StringFixed(2),
			"shortfall": insufficient.Shortfall().StringFixed(2),
			"next_step": service.NextStepDeposit,
		})
		return
	}
	if errors.Is(err, service.ErrInsufficientBalance) {
		response.BusinessError(c, response.CodeBalanceNotEnough, err.Error())
		return
	}

	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		response.Unauthorized(c, err.Error())
		return
	case errors.Is(err, service.ErrForbidden):
		response.Forbidden(c, err.Error())
		return
	}

	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			response.BusinessError(c, ec.code, err.Error())
			return
		}
	}

	log.WithError(err).WithFields(log.Fields{
		"method": c.Request.Method,
		"path":   c.FullPath(),
	}).Error("请求处理失败")
	response.ServerError(c, "服务器内部错误")
}
