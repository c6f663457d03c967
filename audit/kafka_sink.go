package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"
)

// KafkaSink publishes JSON events keyed by user id so one user's events
// stay ordered within a partition
type KafkaSink struct {
	producer sarama.SyncProducer
	topic    string
}

func NewKafkaSink(producer sarama.SyncProducer, topic string) *KafkaSink {
	return &KafkaSink{producer: producer, topic: topic}
}

// NewKafkaProducer builds a sync producer from cfg
func NewKafkaProducer(cfg KafkaConfig) (sarama.SyncProducer, error) {
	saramaCfg, err := buildSaramaConfig(cfg)
	if err != nil {
		return nil, err
	}
	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaCfg)
	if err != nil {
		return nil, fmt.Errorf("create sync producer failed: %w", err)
	}
	return producer, nil
}

func buildSaramaConfig(cfg KafkaConfig) (*sarama.Config, error) {
	saramaCfg := sarama.NewConfig()
	version, err := sarama.ParseKafkaVersion(cfg.Version)
	if err != nil {
		return nil, fmt.Errorf("parse kafka version failed: %w", err)
	}
	saramaCfg.Version = version
	saramaCfg.ClientID = cfg.ClientID

	saramaCfg.Producer.Return.Successes = true
	saramaCfg.Producer.Return.Errors = true
	switch cfg.RequiredAcks {
	case 0:
		saramaCfg.Producer.RequiredAcks = sarama.NoResponse
	case -1:
		saramaCfg.Producer.RequiredAcks = sarama.WaitForAll
	default:
		saramaCfg.Producer.RequiredAcks = sarama.WaitForLocal
	}
	saramaCfg.Producer.Timeout = cfg.Timeout
	saramaCfg.Producer.Retry.Max = cfg.RetryMax
	return saramaCfg, nil
}

func (s *KafkaSink) Write(_ context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	msg := &sarama.ProducerMessage{
		Topic: s.topic,
		Value: sarama.ByteEncoder(payload),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte(event.Type)},
		},
	}
	if event.UserID != "" {
		msg.Key = sarama.StringEncoder(event.UserID)
	}
	if _, _, err := s.producer.SendMessage(msg); err != nil {
		return fmt.Errorf("send audit event: %w", err)
	}
	return nil
}

func (s *KafkaSink) Close() error {
	return s.producer.Close()
}
