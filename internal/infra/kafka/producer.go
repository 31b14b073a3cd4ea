package kafka

import (
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/bastianbaeza/JackdawSoft/internal/infra/config"
	"github.com/bastianbaeza/JackdawSoft/internal/infra/logger"
)

// Producer wraps an async sarama producer. Send never blocks the caller;
// delivery errors are drained into the log.
type Producer struct {
	producer sarama.AsyncProducer
	prefix   string
	done     chan struct{}
}

func NewProducer(cfg config.KafkaSettings) (*Producer, error) {
	sc := sarama.NewConfig()
	sc.Producer.RequiredAcks = sarama.WaitForLocal
	sc.Producer.Compression = sarama.CompressionSnappy
	sc.Producer.Flush.Frequency = 500 * time.Millisecond
	sc.Producer.Return.Errors = true

	producer, err := sarama.NewAsyncProducer(cfg.Brokers, sc)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}

	p := &Producer{
		producer: producer,
		prefix:   cfg.TopicPrefix,
		done:     make(chan struct{}),
	}
	go p.drainErrors()
	return p, nil
}

func (p *Producer) drainErrors() {
	defer close(p.done)
	for err := range p.producer.Errors() {
		logger.L().Warn("kafka publish failed",
			zap.String("topic", err.Msg.Topic),
			zap.Error(err.Err))
	}
}

// Send enqueues a keyed message on the prefixed topic.
func (p *Producer) Send(topic, key string, payload []byte) {
	p.producer.Input() <- &sarama.ProducerMessage{
		Topic: p.prefix + "." + topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(payload),
	}
}

// Close flushes pending messages and waits for the error drain to finish.
func (p *Producer) Close() error {
	if err := p.producer.Close(); err != nil {
		return fmt.Errorf("close kafka producer: %w", err)
	}
	<-p.done
	return nil
}
