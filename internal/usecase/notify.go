package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"ContentGenesis/internal/domain"
	"ContentGenesis/internal/ports"
	"ContentGenesis/internal/progress"
)

const notifyTimeout = 10 * time.Second

// Subscribable is anything that broadcasts pipeline snapshots.
type Subscribable interface {
	Subscribe(fn progress.Subscriber) func()
}

// CompletionNotifier sends a run summary once per run, as soon as the run is
// observed as STOPPED or COMPLETED. Delivery happens off the publishing
// goroutine so a slow channel never stalls the pipeline.
type CompletionNotifier struct {
	notifier ports.Notifier
	logger   *slog.Logger

	mu       sync.Mutex
	idle     *sync.Cond
	notified string
	inflight int
}

// NewCompletionNotifier builds a notifier bound to the given channel.
func NewCompletionNotifier(notifier ports.Notifier, logger *slog.Logger) *CompletionNotifier {
	c := &CompletionNotifier{notifier: notifier, logger: logger}
	c.idle = sync.NewCond(&c.mu)
	return c
}

// Attach subscribes to source and returns the disposer.
func (c *CompletionNotifier) Attach(ctx context.Context, source Subscribable) func() {
	return source.Subscribe(func(s domain.PipelineState) {
		c.observe(ctx, s)
	})
}

// Wait blocks until every in-flight delivery has returned. Deliveries may be
// queued while Wait is blocked; it returns once none remain.
func (c *CompletionNotifier) Wait() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.inflight > 0 {
		c.idle.Wait()
	}
}

func (c *CompletionNotifier) observe(ctx context.Context, s domain.PipelineState) {
	if !s.Finished() || s.RunID == "" {
		return
	}

	c.mu.Lock()
	if c.notified == s.RunID {
		c.mu.Unlock()
		return
	}
	c.notified = s.RunID
	c.inflight++
	c.mu.Unlock()

	msg := Summary(s)
	go func() {
		defer c.done()
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
		defer cancel()
		if err := c.notifier.Notify(sendCtx, msg); err != nil && c.logger != nil {
			c.logger.Warn("completion notification failed", "run", s.RunID, "error", err)
		}
	}()
}

func (c *CompletionNotifier) done() {
	c.mu.Lock()
	c.inflight--
	if c.inflight == 0 {
		c.idle.Broadcast()
	}
	c.mu.Unlock()
}

// Summary renders a short human-readable report of a finished run.
func Summary(s domain.PipelineState) string {
	var b strings.Builder
	switch s.Status {
	case domain.StatusCompleted:
		b.WriteString("*Genesis complete*\n")
	default:
		b.WriteString("*Genesis stopped*\n")
	}
	fmt.Fprintf(&b, "Items: %d/%d\n", s.CompletedItems, s.TotalItems)
	fmt.Fprintf(&b, "Generated: %d, skipped: %d, failed: %d\n", s.GeneratedItems, s.SkippedItems, s.FailedItems)
	if !s.StartTime.IsZero() && !s.FinishTime.IsZero() {
		fmt.Fprintf(&b, "Duration: %s\n", s.FinishTime.Sub(s.StartTime).Round(time.Second))
	}
	return strings.TrimRight(b.String(), "\n")
}
