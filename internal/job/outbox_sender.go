package job

import (
	"context"
	"time"

	"firestrike/internal/config"
	"firestrike/internal/model"

	log "github.com/sirupsen/logrus"
)

// Sender 投递消息到 broker，生产环境为 mq.Producer
type Sender interface {
	SendMessage(topic, key, eventType, value string) error
}

// OutboxStore outbox 表的读写
type OutboxStore interface {
	GetPendingMessages(ctx context.Context, limit int) ([]*model.OutboxMessage, error)
	MarkAsSent(ctx context.Context, id int64) error
	IncrementRetryCount(ctx context.Context, id int64) error
	MarkAsFailed(ctx context.Context, id int64) error
}

type OutboxSender struct {
	store     OutboxStore
	sender    Sender
	cfg       *config.Config
	stopCh    chan struct{}
	interval  time.Duration
	batchSize int
}

func NewOutboxSender(store OutboxStore, sender Sender, cfg *config.Config) *OutboxSender {
	interval := cfg.Business.OutboxInterval
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return &OutboxSender{
		store:     store,
		sender:    sender,
		cfg:       cfg,
		stopCh:    make(chan struct{}),
		interval:  interval,
		batchSize: 100,
	}
}

func (s *OutboxSender) Start(ctx context.Context) {
	log.Info("[OutboxSender] 消息发送任务启动")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("[OutboxSender] 收到停止信号，任务退出")
			return
		case <-s.stopCh:
			log.Info("[OutboxSender] 任务停止")
			return
		case <-ticker.C:
			s.processPendingMessages(ctx)
		}
	}
}

func (s *OutboxSender) Stop() {
	close(s.stopCh)
}

func (s *OutboxSender) processPendingMessages(ctx context.Context) int {
	messages, err := s.store.GetPendingMessages(ctx, s.batchSize)
	if err != nil {
		log.WithError(err).Error("[OutboxSender] 查询消息失败")
		return 0
	}

	sent := 0
	for _, msg := range messages {
		if s.sendMessage(ctx, msg) {
			sent++
		}
	}
	return sent
}

func (s *OutboxSender) sendMessage(ctx context.Context, msg *model.OutboxMessage) bool {
	fields := log.Fields{"id": msg.ID, "topic": msg.Topic, "key": msg.MessageKey, "event_type": msg.EventType}

	err := s.sender.SendMessage(msg.Topic, msg.MessageKey, msg.EventType, msg.Payload)
	if err == nil {
		if updateErr := s.store.MarkAsSent(ctx, msg.ID); updateErr != nil {
			log.WithError(updateErr).WithFields(fields).Error("[OutboxSender] 更新消息状态失败")
		} else {
			log.WithFields(fields).Debug("[OutboxSender] 消息发送成功")
		}
		return true
	}

	log.WithError(err).WithFields(fields).Warn("[OutboxSender] 消息发送失败")

	if err := s.store.IncrementRetryCount(ctx, msg.ID); err != nil {
		log.WithError(err).WithFields(fields).Error("[OutboxSender] 增加重试次数失败")
	}

	if msg.RetryCount+1 >= s.cfg.Business.MaxRetryCount {
		if err := s.store.MarkAsFailed(ctx, msg.ID); err != nil {
			log.WithError(err).WithFields(fields).Error("[OutboxSender] 标记消息失败状态失败")
		} else {
			log.WithFields(fields).Error("[OutboxSender] 消息超过最大重试次数，标记为失败")
		}
	}
	return false
}

// LogSender kafka 未启用时使用，只记日志并视为已投递
type LogSender struct{}

func (LogSender) SendMessage(topic, key, eventType, value string) error {
	log.WithFields(log.Fields{
		"topic":      topic,
		"key":        key,
		"event_type": eventType,
	}).Debug("[OutboxSender] kafka 未启用，跳过投递")
	return nil
}
