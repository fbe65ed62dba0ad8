package mq

import (
	"fmt"

	"firestrike/internal/config"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"
)

// Producer 把 outbox 消息投递到 Kafka
type Producer struct {
	producer sarama.SyncProducer
}

// NewProducer 初始化 Kafka 同步生产者
func NewProducer(cfg *config.KafkaConfig) (*Producer, error) {
	kafkaConfig := sarama.NewConfig()
	kafkaConfig.Producer.RequiredAcks = sarama.WaitForAll // 等待所有副本确认
	kafkaConfig.Producer.Retry.Max = 3
	kafkaConfig.Producer.Return.Successes = true
	kafkaConfig.Producer.Idempotent = true
	kafkaConfig.Net.MaxOpenRequests = 1
	kafkaConfig.Version = sarama.V2_8_0_0

	producer, err := sarama.NewSyncProducer(cfg.Brokers, kafkaConfig)
	if err != nil {
		return nil, fmt.Errorf("创建 Kafka 生产者失败: %w", err)
	}

	log.WithField("brokers", cfg.Brokers).Info("Kafka 生产者创建成功")
	return &Producer{producer: producer}, nil
}

// NewProducerFromSarama 包装已有的 SyncProducer
func NewProducerFromSarama(p sarama.SyncProducer) *Producer {
	return &Producer{producer: p}
}

// SendMessage 发送消息，eventType 写入消息头
func (p *Producer) SendMessage(topic, key, eventType, value string) error {
	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.StringEncoder(value),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte(eventType)},
		},
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"topic":     topic,
		"key":       key,
		"partition": partition,
		"offset":    offset,
	}).Debug("Kafka 消息已发送")
	return nil
}

func (p *Producer) Close() error {
	if p == nil || p.producer == nil {
		return nil
	}
	return p.producer.Close()
}
