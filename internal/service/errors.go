package service

import (
	"errors"
	"fmt"

	"firestrike/internal/repository"

	"github.com/shopspring/decimal"
)

var (
	ErrUnauthenticated      = errors.New("未登录或会话已失效")
	ErrForbidden            = errors.New("无权限")
	ErrInvalidCredentials   = errors.New("邮箱或密码错误")
	ErrEmailTaken           = errors.New("邮箱已注册")
	ErrInvalidInput         = errors.New("参数错误")
	ErrInvalidAmount        = errors.New("金额必须大于0")
	ErrWithdrawBelowMinimum = errors.New("提现金额低于最低限额")
	ErrTournamentFull       = errors.New("赛事名额已满")
	ErrTournamentClosed     = errors.New("赛事已停止报名")
	ErrTournamentNotStarted = errors.New("赛事尚未开始")
	ErrTournamentHasEntries = errors.New("赛事已有报名，不能删除")
	ErrAlreadyJoined        = errors.New("已报名该赛事")
	ErrPaymentProofRequired = errors.New("请上传付款截图并填写交易号")
	ErrInvalidPaymentMethod = errors.New("不支持的支付方式")
	ErrInvalidResult        = errors.New("比赛结果只能是 winner 或 loss")
	ErrInvalidTransition    = errors.New("状态流转不合法")
	ErrPaymentPending       = errors.New("报名费尚未审核通过")
	ErrUnsupportedUpload    = errors.New("只支持图片文件")
	ErrUploadTooLarge       = errors.New("文件过大")
	ErrStorageUnavailable   = errors.New("文件存储未配置")
	ErrSystemBusy           = errors.New("系统繁忙，请稍后重试")

	// 与仓储层共用同一个哨兵，errors.Is 在两层都能匹配
	ErrInsufficientBalance = repository.ErrInsufficientBalance
)

// InsufficientBalanceError 余额不足，携带差额以便引导用户充值
type InsufficientBalanceError struct {
	Balance  decimal.Decimal
	Required decimal.Decimal
}

func (e *InsufficientBalanceError) Shortfall() decimal.Decimal {
	return e.Required.Sub(e.Balance)
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("%s: 余额 %s，需要 %s", ErrInsufficientBalance.Error(), e.Balance.StringFixed(2), e.Required.StringFixed(2))
}

func (e *InsufficientBalanceError) Is(target error) bool {
	return target == ErrInsufficientBalance
}
