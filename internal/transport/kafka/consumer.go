package kafka

import (
	"context"
	"time"

	"github.com/IBM/sarama"

	"courier-dispatch/internal/logx"
)

// HandleFunc processes the raw payload of one inbound message.
type HandleFunc func(context.Context, []byte) error

// newConsumerGroup is swappable in tests.
var newConsumerGroup = sarama.NewConsumerGroup

// Consumer wraps a Sarama consumer group and routes messages to per-topic
// handlers. A failing handler never stops the claim loop: the message is
// logged and marked so one bad payload cannot wedge the topic.
type Consumer struct {
	group  sarama.ConsumerGroup
	routes map[string]HandleFunc
	logger logx.Logger
}

// NewConsumer creates a Kafka consumer for the given topic routes. Returns
// (nil, nil) when the bus is not configured; a nil Consumer is a no-op.
func NewConsumer(logger logx.Logger, brokers []string, groupID string, routes map[string]HandleFunc) (*Consumer, error) {
	if len(brokers) == 0 || groupID == "" || len(routes) == 0 {
		return nil, nil
	}

	cfg := sarama.NewConfig()
	cfg.Consumer.Offsets.Initial = sarama.OffsetOldest

	group, err := newConsumerGroup(brokers, groupID, cfg)
	if err != nil {
		return nil, err
	}

	return &Consumer{
		group:  group,
		routes: routes,
		logger: logger,
	}, nil
}

// Run consumes until the context is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	if c == nil {
		<-ctx.Done()
		return ctx.Err()
	}

	topics := make([]string, 0, len(c.routes))
	for t := range c.routes {
		topics = append(topics, t)
	}

	h := &groupHandler{c: c}
	for {
		if err := c.group.Consume(ctx, topics, h); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Error("kafka consume error", logx.Err(err))
			time.Sleep(time.Second)
			continue
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// Close shuts down the consumer group.
func (c *Consumer) Close() error {
	if c == nil {
		return nil
	}
	return c.group.Close()
}

type groupHandler struct{ c *Consumer }

func (h *groupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *groupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *groupHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		handle, ok := h.c.routes[msg.Topic]
		if !ok {
			sess.MarkMessage(msg, "")
			continue
		}
		if err := handle(sess.Context(), msg.Value); err != nil {
			h.c.logger.Error("dropping unprocessable message",
				logx.String("topic", msg.Topic),
				logx.Err(err),
			)
		}
		sess.MarkMessage(msg, "")
	}
	return nil
}
