package kafka

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	applogger "FinDash/pkg/logger"
)

// MessageHandler receives the payloads of one topic.
type MessageHandler interface {
	Topic() string
	Handle(context.Context, []byte) error
}

// fetcher is the part of *kafka.Reader the consumer drives.
type fetcher interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer reads each registered topic in its own goroutine and hands
// messages to the topic's handler in partition order. A message is
// committed after its handler succeeds or its retries run out.
type Consumer struct {
	cfg     ConsumerConfig
	log     *applogger.Logger
	metrics *consumerMetrics
	hook    ConsumerHook

	handlers map[string]MessageHandler
	readers  map[string]fetcher
	newRead  func(topic string) fetcher
	dlq      *kafka.Writer

	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	stopOnce sync.Once
}

func NewConsumer(opts ...ConsumerOption) (*Consumer, error) {
	cfg := defaultConsumerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka consumer: brokers are required")
	}

	c := &Consumer{
		cfg:      cfg,
		log:      cfg.Logger,
		metrics:  newConsumerMetrics(cfg.Registerer),
		hook:     NoopHook{},
		handlers: make(map[string]MessageHandler),
		readers:  make(map[string]fetcher),
	}
	c.newRead = func(topic string) fetcher {
		return kafka.NewReader(kafka.ReaderConfig{
			Brokers:     cfg.Brokers,
			Topic:       topic,
			GroupID:     cfg.GroupID,
			StartOffset: cfg.StartOffset,
			MinBytes:    cfg.MinBytes,
			MaxBytes:    cfg.MaxBytes,
		})
	}
	if cfg.DLQTopic != "" {
		c.dlq = &kafka.Writer{
			Addr:     kafka.TCP(cfg.Brokers...),
			Topic:    cfg.DLQTopic,
			Balancer: &kafka.Hash{},
		}
	}
	return c, nil
}

// RegisterHandler adds h for its topic. The first handler for a topic
// wins. Call before Start.
func (c *Consumer) RegisterHandler(h MessageHandler) {
	topic := h.Topic()
	if _, dup := c.handlers[topic]; dup {
		c.log.Warn("kafka handler already registered", applogger.String("topic", topic))
		return
	}
	c.handlers[topic] = h
}

// WithConsumerHook wraps every handler call in h.
func (c *Consumer) WithConsumerHook(h ConsumerHook) {
	if h != nil {
		c.hook = h
	}
}

// Start opens a reader per registered topic.
func (c *Consumer) Start() error {
	if len(c.handlers) == 0 {
		return errors.New("kafka consumer: no handlers registered")
	}
	c.ctx, c.cancel = context.WithCancel(context.Background())

	for topic, h := range c.handlers {
		r := c.newRead(topic)
		c.readers[topic] = r
		c.wg.Add(1)
		go c.run(h, r)
	}

	c.log.Info("kafka consumer started",
		applogger.Strings("topics", c.Topics()),
		applogger.String("group", c.cfg.GroupID),
	)
	return nil
}

// Topics lists the registered topics.
func (c *Consumer) Topics() []string {
	out := make([]string, 0, len(c.handlers))
	for t := range c.handlers {
		out = append(out, t)
	}
	return out
}

// Stop cancels fetching and waits, bounded by ctx, for the message in
// hand to finish.
func (c *Consumer) Stop(ctx context.Context) error {
	var err error
	c.stopOnce.Do(func() {
		if c.cancel == nil {
			return
		}
		c.cancel()

		done := make(chan struct{})
		go func() {
			c.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			err = fmt.Errorf("kafka consumer stop: %w", ctx.Err())
		}

		for topic, r := range c.readers {
			if cerr := r.Close(); cerr != nil {
				c.log.Warn("kafka reader close failed", applogger.String("topic", topic), applogger.Error(cerr))
			}
		}
		if c.dlq != nil {
			if cerr := c.dlq.Close(); cerr != nil {
				c.log.Warn("kafka dlq close failed", applogger.Error(cerr))
			}
		}
		if err == nil {
			c.log.Info("kafka consumer stopped")
		}
	})
	return err
}

func (c *Consumer) run(h MessageHandler, r fetcher) {
	defer c.wg.Done()
	topic := h.Topic()

	for {
		km, err := r.FetchMessage(c.ctx)
		if err != nil {
			if c.ctx.Err() != nil {
				return
			}
			c.log.Warn("kafka fetch failed", applogger.String("topic", topic), applogger.Error(err))
			if !c.sleep(c.cfg.BackoffMin) {
				return
			}
			continue
		}

		if !c.process(h, km) {
			return
		}
		c.commit(r, km)
	}
}

// process runs the handler with retries. It returns false when the
// consumer stopped mid-retry, leaving the message uncommitted.
func (c *Consumer) process(h MessageHandler, km kafka.Message) bool {
	topic := h.Topic()
	start := time.Now()

	attempts, err := 0, error(nil)
	for {
		attempts++
		err = c.attempt(h, km)
		if err == nil || attempts > c.cfg.RetryMax {
			break
		}
		if !c.sleep(backoffWithJitter(c.cfg.BackoffMin, c.cfg.BackoffMax, attempts)) {
			return false
		}
	}

	result := "ok"
	if err != nil {
		result = "error"
		c.log.Warn("kafka message dropped",
			applogger.String("topic", topic),
			applogger.Int64("offset", km.Offset),
			applogger.Int("attempts", attempts),
			applogger.Error(err),
		)
		c.deadLetter(topic, km)
	}
	c.metrics.handled.WithLabelValues(topic, result).Inc()
	c.metrics.handleLatency.WithLabelValues(topic).Observe(time.Since(start).Seconds())
	return true
}

func (c *Consumer) attempt(h MessageHandler, km kafka.Message) (err error) {
	topic := h.Topic()
	defer func() {
		if r := recover(); r != nil {
			err = &HookError{Code: "ERR_PANIC", Err: fmt.Errorf("handler panic: %v", r)}
		}
	}()

	ctx, hkm, data, err := c.hook.BeforeHandle(c.ctx, topic, km, km.Value)
	if err != nil {
		return err
	}
	err = h.Handle(ctx, data)
	c.hook.AfterHandle(ctx, topic, hkm, data, err)
	if err != nil {
		c.hook.OnError(ctx, topic, hkm, data, err)
	}
	return err
}

func (c *Consumer) commit(r fetcher, km kafka.Message) {
	var err error
	for i := 1; i <= 3; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err = r.CommitMessages(ctx, km)
		cancel()
		if err == nil {
			return
		}
		if !c.sleep(backoffWithJitter(50*time.Millisecond, 500*time.Millisecond, i)) {
			break
		}
	}
	c.log.Warn("kafka commit failed", applogger.Int64("offset", km.Offset), applogger.Error(err))
}

func (c *Consumer) deadLetter(topic string, km kafka.Message) {
	if c.dlq == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.dlq.WriteMessages(ctx, dlqMessage(topic, km)); err != nil {
		c.log.Error("kafka dlq write failed", applogger.String("dlq", c.cfg.DLQTopic), applogger.Error(err))
	}
}

// dlqMessage copies km for the dead-letter topic and tags it with the topic
// it was read from. The fetched message is left untouched.
func dlqMessage(topic string, km kafka.Message) kafka.Message {
	headers := make([]kafka.Header, len(km.Headers), len(km.Headers)+1)
	copy(headers, km.Headers)
	return kafka.Message{
		Key:     km.Key,
		Value:   km.Value,
		Headers: append(headers, kafka.Header{Key: "source_topic", Value: []byte(topic)}),
	}
}

// sleep waits d or until the consumer stops, reporting whether it may
// continue.
func (c *Consumer) sleep(d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-c.ctx.Done():
		return false
	}
}

// backoffWithJitter doubles from min per attempt, caps at max, and
// subtracts up to half as jitter.
func backoffWithJitter(min, max time.Duration, attempt int) time.Duration {
	if min <= 0 {
		min = 50 * time.Millisecond
	}
	if max < min {
		max = min
	}
	if attempt < 1 {
		attempt = 1
	}
	d := max
	if attempt < 32 {
		if exp := min << uint(attempt-1); exp > 0 && exp < max {
			d = exp
		}
	}
	if half := int64(d) / 2; half > 0 {
		d -= time.Duration(rand.Int63n(half))
	}
	return d
}
