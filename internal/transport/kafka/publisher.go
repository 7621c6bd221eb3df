package kafka

import (
	"encoding/json"
	"sync"

	"github.com/IBM/sarama"

	"courier-dispatch/internal/logx"
	"courier-dispatch/internal/metrics"
)

// newSyncProducer is swappable in tests.
var newSyncProducer = sarama.NewSyncProducer

type outboundMsg struct {
	topic   string
	payload []byte
}

// Publisher sends local state changes to the bus with at-most-once
// semantics. Publish never blocks the caller: messages go through a bounded
// queue served by a fixed worker pool, and on overflow the message is
// dropped and counted. Send failures are logged, never retried.
type Publisher struct {
	producer sarama.SyncProducer
	queue    chan outboundMsg
	wg       sync.WaitGroup
	logger   logx.Logger
	m        *metrics.Metrics

	closeOnce sync.Once
}

// NewPublisher creates a Publisher. Returns (nil, nil) when the bus is not
// configured; a nil Publisher silently discards everything.
func NewPublisher(logger logx.Logger, brokers []string, queueSize, workers int, m *metrics.Metrics) (*Publisher, error) {
	if len(brokers) == 0 {
		return nil, nil
	}
	if queueSize <= 0 {
		queueSize = 256
	}
	if workers <= 0 {
		workers = 1
	}

	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForLocal

	producer, err := newSyncProducer(brokers, cfg)
	if err != nil {
		return nil, err
	}

	p := &Publisher{
		producer: producer,
		queue:    make(chan outboundMsg, queueSize),
		logger:   logger,
		m:        m,
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p, nil
}

// Publish serializes v and enqueues it for the given topic.
func (p *Publisher) Publish(topic string, v any) {
	if p == nil {
		return
	}
	payload, err := json.Marshal(v)
	if err != nil {
		p.logger.Error("publish marshal failed", logx.String("topic", topic), logx.Err(err))
		p.m.PublishFailuresTotal.Inc()
		return
	}
	select {
	case p.queue <- outboundMsg{topic: topic, payload: payload}:
	default:
		p.logger.Warn("publish queue full, dropping message", logx.String("topic", topic))
		p.m.PublishDroppedTotal.Inc()
	}
}

func (p *Publisher) worker() {
	defer p.wg.Done()
	for msg := range p.queue {
		_, _, err := p.producer.SendMessage(&sarama.ProducerMessage{
			Topic: msg.topic,
			Value: sarama.ByteEncoder(msg.payload),
		})
		if err != nil {
			p.logger.Error("publish failed", logx.String("topic", msg.topic), logx.Err(err))
			p.m.PublishFailuresTotal.Inc()
		}
	}
}

// Close drains the queue, stops the workers and closes the producer.
func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	var err error
	p.closeOnce.Do(func() {
		close(p.queue)
		p.wg.Wait()
		err = p.producer.Close()
	})
	return err
}
