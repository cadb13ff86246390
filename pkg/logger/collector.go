package logger

import (
	"context"
	"fmt"
	"hash/fnv"
	"os"
	"sort"
	"sync"
	"time"
)

// Publisher ships aggregated log batches. kafka.Producer satisfies it.
type Publisher interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
}

type CollectionConfig struct {
	TimeInterval   time.Duration // flush interval, default 30s
	CountThreshold int           // distinct entries that force a flush, default 100
	PublishTimeout time.Duration // per batch, default 30s
	Topic          string
	Source         string // message key, usually the service name
	Publisher      Publisher
}

type AggregatedLogEntry struct {
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields"`
	Caller    string                 `json:"caller"`
	Count     int                    `json:"count"`
	FirstSeen time.Time              `json:"first_seen"`
	LastSeen  time.Time              `json:"last_seen"`
}

// LogCollector folds repeated warn/error lines into counted entries and
// publishes them in batches.
type LogCollector struct {
	cfg CollectionConfig

	mu      sync.Mutex
	entries map[uint64]*AggregatedLogEntry

	stop      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
	sending   sync.WaitGroup
}

func NewLogCollector(config *CollectionConfig) *LogCollector {
	cfg := *config
	if cfg.TimeInterval <= 0 {
		cfg.TimeInterval = 30 * time.Second
	}
	if cfg.CountThreshold <= 0 {
		cfg.CountThreshold = 100
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = 30 * time.Second
	}

	c := &LogCollector{
		cfg:     cfg,
		entries: make(map[uint64]*AggregatedLogEntry),
		stop:    make(chan struct{}),
	}
	c.wg.Add(1)
	go c.loop()
	return c
}

func (c *LogCollector) AddLog(level, message string, fields map[string]interface{}, caller string) {
	now := time.Now()
	key := entryKey(level, message, fields, caller)

	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.Count++
		e.LastSeen = now
	} else {
		c.entries[key] = &AggregatedLogEntry{
			Level:     level,
			Message:   message,
			Fields:    fields,
			Caller:    caller,
			Count:     1,
			FirstSeen: now,
			LastSeen:  now,
		}
	}
	if len(c.entries) >= c.cfg.CountThreshold {
		c.flushLocked()
	}
}

// Pending returns the number of distinct entries waiting for a flush.
func (c *LogCollector) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// entryKey identifies a line by level, caller, message and field values.
// Field order does not matter.
func entryKey(level, message string, fields map[string]interface{}, caller string) uint64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s\x00%s\x00%s", level, caller, message)

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(h, "\x00%s=%v", k, fields[k])
	}
	return h.Sum64()
}

func (c *LogCollector) loop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.cfg.TimeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.mu.Lock()
			c.flushLocked()
			c.mu.Unlock()
		case <-c.stop:
			c.mu.Lock()
			c.flushLocked()
			c.mu.Unlock()
			return
		}
	}
}

// flushLocked hands the current batch to the publisher. Caller holds mu.
func (c *LogCollector) flushLocked() {
	if len(c.entries) == 0 || c.cfg.Publisher == nil {
		return
	}

	batch := make([]AggregatedLogEntry, 0, len(c.entries))
	for _, e := range c.entries {
		batch = append(batch, *e)
	}
	sort.Slice(batch, func(i, j int) bool { return batch[i].FirstSeen.Before(batch[j].FirstSeen) })
	c.entries = make(map[uint64]*AggregatedLogEntry)

	c.sending.Add(1)
	go func() {
		defer c.sending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), c.cfg.PublishTimeout)
		defer cancel()

		if err := c.cfg.Publisher.Publish(ctx, c.cfg.Topic, []byte(c.cfg.Source), batch); err != nil {
			// The logger itself feeds this collector; stderr avoids a loop.
			fmt.Fprintf(os.Stderr, "log collector: publish %d entries: %v\n", len(batch), err)
		}
	}()
}

// Close flushes what is pending and waits for in-flight publishes. It is
// safe to call more than once.
func (c *LogCollector) Close() {
	c.closeOnce.Do(func() { close(c.stop) })
	c.wg.Wait()
	c.sending.Wait()
}
