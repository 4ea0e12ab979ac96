package kafka

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type Producer struct {
	w       *kafka.Writer
	log     *zap.Logger
	inbox   chan kafka.Message
	closeCh chan struct{}
}

func NewProducer(brokers []string, topic string, buf int, log *zap.Logger) *Producer {
	return &Producer{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			Async:        true,
		},
		log:     log,
		inbox:   make(chan kafka.Message, buf),
		closeCh: make(chan struct{}),
	}
}

// Start runs the publish loop. Shut down by calling Close, which flushes the
// inbox before the writer is closed; ctx only interrupts in-flight writes.
func (p *Producer) Start(ctx context.Context) {
	go func() {
		defer func() {
			// inbox is closed by Close(); drain what is left
			for m := range p.inbox {
				p.write(m)
			}
			_ = p.w.Close()
			close(p.closeCh)
		}()
		for m := range p.inbox {
			p.write(m)
		}
	}()
}

func (p *Producer) write(m kafka.Message) {
	if err := p.w.WriteMessages(context.Background(), m); err != nil {
		p.log.Warn("kafka write failed", zap.String("topic", p.w.Topic), zap.Error(err))
	}
}

func (p *Producer) Publish(key, value []byte, headers ...kafka.Header) {
	p.inbox <- kafka.Message{
		Key:     key,
		Value:   value,
		Time:    time.Now(),
		Headers: headers,
	}
}

// Close stops accepting messages; the run loop flushes what is left.
func (p *Producer) Close() { close(p.inbox) }

// WaitClosed blocks until the run loop has flushed and exited.
func (p *Producer) WaitClosed() { <-p.closeCh }
