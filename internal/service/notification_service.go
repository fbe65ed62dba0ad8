package service

import (
	"context"
	"errors"
	"fmt"

	"firestrike/internal/config"
	"firestrike/internal/events"
	"firestrike/internal/model"
	"firestrike/internal/repository"

	log "github.com/sirupsen/logrus"
)

var ErrNotificationNotFound = repository.ErrNotificationNotFound

type NotificationService struct {
	notifications NotificationRepository
	activity      ActivityRepository
	pager         pager
}

func NewNotificationService(notifications NotificationRepository, activity ActivityRepository, cfg *config.Config) *NotificationService {
	return &NotificationService{
		notifications: notifications,
		activity:      activity,
		pager:         newPager(cfg),
	}
}

func (s *NotificationService) List(ctx context.Context, userID int64, unreadOnly bool, page, size int) ([]*model.Notification, int64, error) {
	return s.notifications.ListByUser(ctx, userID, unreadOnly, s.pager.page(page, size))
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID int64) (int64, error) {
	return s.notifications.CountUnread(ctx, userID)
}

// MarkRead 只能标记自己的通知，重复标记不报错
func (s *NotificationService) MarkRead(ctx context.Context, userID, id int64) error {
	return s.notifications.MarkRead(ctx, userID, id)
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	return s.notifications.MarkAllRead(ctx, userID)
}

func (s *NotificationService) ListActivity(ctx context.Context, userID int64, page, size int) ([]*model.ActivityLog, int64, error) {
	return s.activity.ListByUser(ctx, userID, s.pager.page(page, size))
}

// Subscribe 注册通知和活动日志订阅者，返回取消订阅函数
func (s *NotificationService) Subscribe(bus *events.Bus) func() {
	unsubs := []func(){
		bus.Subscribe(events.EventTypeWalletTransactionSettled, s.onSettled),
		bus.Subscribe(events.EventTypeWalletTransactionCreated, s.onCreated),
		bus.Subscribe(events.EventTypeParticipantJoined, s.onJoined),
		bus.Subscribe(events.EventTypeParticipantRemoved, s.onRemoved),
		bus.Subscribe(events.EventTypeResultMarked, s.onResult),
		bus.Subscribe(events.EventTypeAuthStateChanged, s.onAuth),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

func (s *NotificationService) onSettled(ctx context.Context, e events.Event) {
	ev, ok := e.(events.WalletTransactionSettledEvent)
	if !ok {
		return
	}
	var title, msg string
	approved := ev.Status == model.WalletTxStatusCompleted
	switch ev.TxType {
	case model.WalletTxTypeDeposit:
		if approved {
			title, msg = "充值成功", fmt.Sprintf("充值 %s 已到账", ev.Amount)
		} else {
			title, msg = "充值被驳回", fmt.Sprintf("充值 %s 未通过审核 %s", ev.Amount, ev.Note)
		}
	case model.WalletTxTypeWithdraw:
		if approved {
			title, msg = "提现成功", fmt.Sprintf("提现 %s 已打款", ev.Amount)
		} else {
			title, msg = "提现被驳回", fmt.Sprintf("提现 %s 已退回钱包 %s", ev.Amount, ev.Note)
		}
	case model.WalletTxTypeTournamentPayment:
		if approved {
			title, msg = "报名费已确认", fmt.Sprintf("报名费 %s 审核通过", ev.Amount)
		} else {
			title, msg = "报名费被驳回", fmt.Sprintf("报名费 %s 未通过审核，报名已取消 %s", ev.Amount, ev.Note)
		}
	default:
		return
	}
	s.notify(ctx, ev.UserID, model.NotificationKindWallet, title, msg)
	s.track(ctx, ev.UserID, "wallet."+ev.TxType+"."+ev.Status, ev.Reference)
}

func (s *NotificationService) onCreated(ctx context.Context, e events.Event) {
	ev, ok := e.(events.WalletTransactionCreatedEvent)
	if !ok {
		return
	}
	s.track(ctx, ev.UserID, "wallet."+ev.TxType+".requested", fmt.Sprintf("%s %s", ev.Reference, ev.Amount))
}

func (s *NotificationService) onJoined(ctx context.Context, e events.Event) {
	ev, ok := e.(events.ParticipantJoinedEvent)
	if !ok {
		return
	}
	msg := fmt.Sprintf("已报名 %s，位置 #%d", ev.TournamentTitle, ev.SlotNumber)
	if ev.PaymentStatus == model.PaymentStatusPending {
		msg += "，付款待审核"
	}
	s.notify(ctx, ev.UserID, model.NotificationKindTournament, "报名成功", msg)
	s.track(ctx, ev.UserID, "tournament.joined", ev.TournamentTitle)
}

func (s *NotificationService) onRemoved(ctx context.Context, e events.Event) {
	ev, ok := e.(events.ParticipantRemovedEvent)
	if !ok {
		return
	}
	s.track(ctx, ev.UserID, "tournament.removed", fmt.Sprintf("tournament=%d reason=%s", ev.TournamentID, ev.Reason))
}

func (s *NotificationService) onResult(ctx context.Context, e events.Event) {
	ev, ok := e.(events.ResultMarkedEvent)
	if !ok {
		return
	}
	title := "比赛结果"
	msg := fmt.Sprintf("%s：%s", ev.TournamentTitle, ev.Result)
	if ev.Result == model.ResultWinner {
		title = "恭喜获胜"
	}
	s.notify(ctx, ev.UserID, model.NotificationKindResult, title, msg)
	s.track(ctx, ev.UserID, "tournament.result", msg)
}

func (s *NotificationService) onAuth(ctx context.Context, e events.Event) {
	ev, ok := e.(events.AuthStateChangedEvent)
	if !ok {
		return
	}
	s.track(ctx, ev.UserID, "auth."+string(ev.Event), ev.SessionID)
}

func (s *NotificationService) notify(ctx context.Context, userID int64, kind, title, msg string) {
	n := &model.Notification{UserID: userID, Kind: kind, Title: title, Message: msg}
	if err := s.notifications.Create(ctx, n); err != nil {
		log.WithError(err).WithField("user_id", userID).Error("写入通知失败")
	}
}

func (s *NotificationService) track(ctx context.Context, userID int64, action, detail string) {
	if userID == 0 {
		return
	}
	a := &model.ActivityLog{UserID: userID, Action: action, Detail: detail}
	if err := s.activity.Create(ctx, a); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).WithField("user_id", userID).Error("写入活动日志失败")
	}
}
