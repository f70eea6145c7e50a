package events

import (
	"context"
	"encoding/json"

	"github.com/IBM/sarama"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Kafkaへ同期送信するPublisher
type KafkaPublisher struct {
	producer sarama.SyncProducer
	log      logrus.FieldLogger
}

// NewKafkaConfigは全レプリカ確認で送る設定
func NewKafkaConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 3
	return cfg
}

func NewKafkaPublisher(brokers []string, log logrus.FieldLogger) (*KafkaPublisher, error) {
	producer, err := sarama.NewSyncProducer(brokers, NewKafkaConfig())
	if err != nil {
		return nil, errors.Wrap(err, "events: kafka producer")
	}
	return NewKafkaPublisherWithProducer(producer, log), nil
}

func NewKafkaPublisherWithProducer(producer sarama.SyncProducer, log logrus.FieldLogger) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, log: log}
}

// NewPublisherはbrokersが空ならNopPublisherを返す
func NewPublisher(brokers []string, log logrus.FieldLogger) (Publisher, error) {
	if len(brokers) == 0 {
		return NopPublisher{}, nil
	}
	return NewKafkaPublisher(brokers, log)
}

func (p *KafkaPublisher) Publish(ctx context.Context, topic string, key string, event any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(event)
	if err != nil {
		return errors.Wrapf(err, "events: marshal %s", topic)
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(data),
	}
	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return errors.Wrapf(err, "events: send %s", topic)
	}

	p.log.WithFields(logrus.Fields{
		"topic":     topic,
		"key":       key,
		"partition": partition,
		"offset":    offset,
	}).Debug("event published")
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}
