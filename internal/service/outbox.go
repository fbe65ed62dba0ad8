package service

import (
	"context"
	"encoding/json"
	"fmt"

	"firestrike/internal/events"
	"firestrike/internal/model"

	"gorm.io/gorm"
)

// eventRecorder 事务内记录领域事件：写 outbox（投递 Kafka）并挂到事务总线（提交后进程内分发）
type eventRecorder struct {
	outbox OutboxRepository
}

func (r eventRecorder) record(ctx context.Context, tx *gorm.DB, tb *events.TransactionalBus, topic, key string, ev events.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("序列化事件失败: %w", err)
	}

	msg := &model.OutboxMessage{
		MessageKey: key,
		Topic:      topic,
		EventType:  string(ev.Type()),
		Payload:    string(payload),
		Status:     model.OutboxStatusPending,
	}
	if err := r.outbox.Create(ctx, tx, msg); err != nil {
		return fmt.Errorf("写入消息失败: %w", err)
	}

	tb.Publish(ev)
	return nil
}
