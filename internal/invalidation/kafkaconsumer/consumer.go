// Package kafkaconsumer applies cache invalidation events from Kafka to
// the in-process caches. Each instance of the service consumes the full
// topic so local caches converge after map or listing data changes.
package kafkaconsumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/IBM/sarama"

	"github.com/propstack/proximity/internal/invalidation"
	"github.com/propstack/proximity/internal/observability"
)

// Invalidator removes cache entries whose key contains the pattern.
type Invalidator interface {
	Invalidate(pattern string) int
}

type Consumer struct {
	cfg    Config
	logger *slog.Logger
	caches Invalidator
	dedupe *seqDedupe
}

func New(cfg Config, logger *slog.Logger, caches Invalidator) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{
		cfg:    cfg,
		logger: logger,
		caches: caches,
		dedupe: newSeqDedupe(cfg.DedupeSize),
	}
}

// Start consumes invalidation events until ctx is cancelled.
func (c *Consumer) Start(ctx context.Context) error {
	if c.caches == nil {
		return errors.New("kafkaconsumer: missing invalidator")
	}

	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_1_0_0
	cfg.Consumer.Group.Session.Timeout = c.cfg.SessionTimeout
	cfg.Consumer.Group.Heartbeat.Interval = c.cfg.Heartbeat
	cfg.Consumer.Group.Rebalance.Timeout = c.cfg.RebalanceTimeout
	if c.cfg.InitialOffsetOldest {
		cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	} else {
		cfg.Consumer.Offsets.Initial = sarama.OffsetNewest
	}
	cfg.Consumer.Offsets.AutoCommit.Enable = true

	group, err := sarama.NewConsumerGroup(c.cfg.Brokers, c.cfg.GroupID, cfg)
	if err != nil {
		return fmt.Errorf("create consumer group: %w", err)
	}
	defer func() { _ = group.Close() }()

	handler := &groupHandler{process: c.ProcessOne}

	c.logger.Info("kafka invalidation consumer starting",
		"brokers", c.cfg.Brokers, "topic", c.cfg.Topic, "group", c.cfg.GroupID)

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("kafka invalidation consumer shutting down")
			return nil
		default:
			if err := group.Consume(ctx, []string{c.cfg.Topic}, handler); err != nil {
				c.logger.Error("consumer error", "err", err,
					"topic", c.cfg.Topic)
				time.Sleep(2 * time.Second)
			}
		}
	}
}

// ProcessOne handles a single invalidation event message.
func (c *Consumer) ProcessOne(_ context.Context, msg *sarama.ConsumerMessage) error {
	var ev invalidation.Event
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		observability.IncInvalidation("decode_error")
		c.logger.Error("invalidation decode failed",
			"topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset, "err", err)
		return fmt.Errorf("json decode: %w", err)
	}
	if err := ev.Validate(); err != nil {
		// malformed events are logged and skipped, not retried
		observability.IncInvalidation("invalid")
		c.logger.Warn("invalid invalidation event skipped",
			"offset", msg.Offset, "err", err)
		return nil
	}
	if !c.dedupe.shouldApply(ev.Source, ev.Seq) {
		observability.IncInvalidation("deduped")
		c.logger.Debug("stale invalidation event deduped",
			"source", ev.Source, "seq", ev.Seq)
		return nil
	}

	n := c.caches.Invalidate(ev.KeyPattern())
	observability.IncInvalidation("applied")
	c.logger.Debug("invalidated cache entries",
		"op", ev.Op, "pattern", ev.KeyPattern(), "removed", n)
	return nil
}
