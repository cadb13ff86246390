package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	applogger "FinDash/pkg/logger"
)

// ConsumerHook observes each handler attempt. BeforeHandle may replace
// the context, message or payload; an error from it skips the handler
// and counts as a failed attempt.
type ConsumerHook interface {
	BeforeHandle(ctx context.Context, topic string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error)
	AfterHandle(ctx context.Context, topic string, km kafka.Message, data []byte, err error)
	OnError(ctx context.Context, topic string, km kafka.Message, data []byte, err error)
}

type NoopHook struct{}

func (NoopHook) BeforeHandle(ctx context.Context, _ string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error) {
	return ctx, km, data, nil
}
func (NoopHook) AfterHandle(context.Context, string, kafka.Message, []byte, error) {}
func (NoopHook) OnError(context.Context, string, kafka.Message, []byte, error)     {}

// HookError carries a machine readable code, such as ERR_PANIC.
type HookError struct {
	Code string
	Err  error
}

func (e *HookError) Error() string {
	if e.Err == nil {
		return e.Code
	}
	return e.Code + ": " + e.Err.Error()
}

func (e *HookError) Unwrap() error { return e.Err }

func panicError(r interface{}) error {
	return &HookError{Code: "ERR_PANIC", Err: fmt.Errorf("hook panic: %v", r)}
}

// HookFuncs builds a ConsumerHook from optional functions.
type HookFuncs struct {
	Before func(context.Context, string, kafka.Message, []byte) (context.Context, kafka.Message, []byte, error)
	After  func(context.Context, string, kafka.Message, []byte, error)
	Err    func(context.Context, string, kafka.Message, []byte, error)
}

func (h HookFuncs) BeforeHandle(ctx context.Context, topic string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error) {
	if h.Before == nil {
		return ctx, km, data, nil
	}
	return h.Before(ctx, topic, km, data)
}

func (h HookFuncs) AfterHandle(ctx context.Context, topic string, km kafka.Message, data []byte, err error) {
	if h.After != nil {
		h.After(ctx, topic, km, data, err)
	}
}

func (h HookFuncs) OnError(ctx context.Context, topic string, km kafka.Message, data []byte, err error) {
	if h.Err != nil {
		h.Err(ctx, topic, km, data, err)
	}
}

// HookChain composes hooks like middleware: BeforeHandle runs first to
// last, AfterHandle last to first. A panicking hook never reaches the
// consumer; in BeforeHandle it becomes an ERR_PANIC HookError.
type HookChain struct {
	hooks []ConsumerHook
}

// NewHookChain skips nil hooks.
func NewHookChain(hooks ...ConsumerHook) *HookChain {
	c := &HookChain{}
	for _, h := range hooks {
		if h != nil {
			c.hooks = append(c.hooks, h)
		}
	}
	return c
}

func (c *HookChain) BeforeHandle(ctx context.Context, topic string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error) {
	for _, h := range c.hooks {
		nctx, nkm, ndata, err := guardedBefore(h, ctx, topic, km, data)
		if err != nil {
			c.OnError(ctx, topic, km, data, err)
			return ctx, km, data, err
		}
		ctx, km, data = nctx, nkm, ndata
	}
	return ctx, km, data, nil
}

func (c *HookChain) AfterHandle(ctx context.Context, topic string, km kafka.Message, data []byte, err error) {
	for i := len(c.hooks) - 1; i >= 0; i-- {
		h := c.hooks[i]
		guarded(func() { h.AfterHandle(ctx, topic, km, data, err) })
	}
}

func (c *HookChain) OnError(ctx context.Context, topic string, km kafka.Message, data []byte, err error) {
	for _, h := range c.hooks {
		guarded(func() { h.OnError(ctx, topic, km, data, err) })
	}
}

func guardedBefore(h ConsumerHook, ctx context.Context, topic string, km kafka.Message, data []byte) (nctx context.Context, nkm kafka.Message, ndata []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			nctx, nkm, ndata, err = ctx, km, data, panicError(r)
		}
	}()
	return h.BeforeHandle(ctx, topic, km, data)
}

func guarded(fn func()) {
	defer func() { _ = recover() }()
	fn()
}

type ctxKey int

const (
	// CtxStartTime holds the time.Time the attempt started.
	CtxStartTime ctxKey = iota
	// CtxTraceID holds the trace_id message header, when present.
	CtxTraceID
)

// ExtractTraceID returns the trace_id header or "".
func ExtractTraceID(km kafka.Message) string {
	for _, h := range km.Headers {
		if h.Key == "trace_id" {
			return string(h.Value)
		}
	}
	return ""
}

// TracingHook records the start time and trace id for later hooks.
func TracingHook() ConsumerHook {
	return HookFuncs{
		Before: func(ctx context.Context, _ string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error) {
			ctx = context.WithValue(ctx, CtxStartTime, time.Now())
			if id := ExtractTraceID(km); id != "" {
				ctx = context.WithValue(ctx, CtxTraceID, id)
			}
			return ctx, km, data, nil
		},
	}
}

// LoggingHook warns on each failed attempt and then calls onErr, if set.
func LoggingHook(l *applogger.Logger, onErr func(topic string)) ConsumerHook {
	return HookFuncs{
		Err: func(ctx context.Context, topic string, km kafka.Message, _ []byte, err error) {
			fields := []applogger.Field{
				applogger.String("topic", topic),
				applogger.Int("partition", km.Partition),
				applogger.Int64("offset", km.Offset),
				applogger.Error(err),
			}
			if id, ok := ctx.Value(CtxTraceID).(string); ok {
				fields = append(fields, applogger.String("trace_id", id))
			}
			if start, ok := ctx.Value(CtxStartTime).(time.Time); ok {
				fields = append(fields, applogger.Duration("elapsed_ms", time.Since(start)))
			}
			l.Warn("kafka handle attempt failed", fields...)
			if onErr != nil {
				onErr(topic)
			}
		},
	}
}
