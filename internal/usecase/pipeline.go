package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"ContentGenesis/internal/domain"
	"ContentGenesis/internal/generation"
	"ContentGenesis/internal/logbuf"
	"ContentGenesis/internal/ports"
	"ContentGenesis/internal/progress"
)

// Catalog is the read-only list of items a run walks.
type Catalog interface {
	Items() []domain.ContentItem
	Total() int
}

// Generator produces a result for every item; it never fails.
type Generator interface {
	Generate(ctx context.Context, item domain.ContentItem, observe generation.Observer) domain.GenerationResult
}

// PipelineDeps wires all collaborators into the Genesis pipeline.
type PipelineDeps struct {
	Catalog   Catalog
	Store     ports.ResultStore
	Generator Generator
	Bus       *progress.Bus
	Logs      *logbuf.Buffer
	Logger    *slog.Logger
	Now       func() time.Time
	NewRunID  func() string
}

type run struct {
	id        string
	cancelled bool // guarded by Pipeline.mu
	done      chan struct{}
}

// Pipeline walks the catalog, skipping stored items and generating the rest.
// Only one iteration loop exists at a time; Stop is cooperative and takes
// effect between items.
type Pipeline struct {
	catalog   Catalog
	store     ports.ResultStore
	generator Generator
	bus       *progress.Bus
	logs      *logbuf.Buffer
	logger    *slog.Logger
	now       func() time.Time
	newRunID  func() string

	mu         sync.Mutex
	delivered  *sync.Cond
	state      domain.PipelineState
	current    *run
	pending    []domain.PipelineState
	publishing bool
}

// NewPipeline constructs the orchestrator in the IDLE state.
func NewPipeline(deps PipelineDeps) *Pipeline {
	p := &Pipeline{
		catalog:   deps.Catalog,
		store:     deps.Store,
		generator: deps.Generator,
		bus:       deps.Bus,
		logs:      deps.Logs,
		logger:    deps.Logger,
		now:       deps.Now,
		newRunID:  deps.NewRunID,
	}
	p.delivered = sync.NewCond(&p.mu)
	if p.bus == nil {
		p.bus = progress.NewBus(p.logger)
	}
	if p.logs == nil {
		p.logs = logbuf.New(logbuf.DefaultCapacity)
	}
	if p.now == nil {
		p.now = time.Now
	}
	if p.newRunID == nil {
		p.newRunID = func() string { return uuid.NewString() }
	}
	p.state = domain.PipelineState{Status: domain.StatusIdle, TotalItems: p.catalog.Total(), Logs: []domain.LogEntry{}}
	return p
}

// Subscribe registers an observer of state snapshots and returns its disposer.
// Callbacks run on the publishing goroutine and must not block for long.
func (p *Pipeline) Subscribe(fn progress.Subscriber) func() {
	return p.bus.Subscribe(fn)
}

// State returns the latest snapshot.
func (p *Pipeline) State() domain.PipelineState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked()
}

// Start begins a new run unless one is already iterating. It reports whether
// a run was started. The loop runs on its own goroutine bound to ctx.
func (p *Pipeline) Start(ctx context.Context) bool {
	items := p.catalog.Items()

	p.mu.Lock()
	if p.state.Status == domain.StatusRunning {
		p.mu.Unlock()
		return false
	}

	prev := p.current
	r := &run{id: p.newRunID(), done: make(chan struct{})}
	p.current = r

	p.logs.Reset()
	p.state = domain.PipelineState{
		RunID:      r.id,
		Status:     domain.StatusRunning,
		IsActive:   true,
		TotalItems: len(items),
		StartTime:  p.now(),
	}
	if len(items) == 0 {
		p.state.Status = domain.StatusCompleted
		p.state.IsActive = false
		p.state.FinishTime = p.state.StartTime
		p.recordLocked(domain.LevelSuccess, "", "", "Genesis complete: catalog is empty")
		close(r.done)
		p.pending = append(p.pending, p.snapshotLocked())
		p.mu.Unlock()
		p.flush()
		return true
	}

	p.state.CurrentItemID = items[0].ID
	p.recordLocked(domain.LevelInfo, "", "", fmt.Sprintf("Genesis run %s started: %d items in catalog", shortID(r.id), len(items)))
	p.pending = append(p.pending, p.snapshotLocked())
	p.mu.Unlock()
	p.flush()

	go p.loop(ctx, r, prev, items)
	return true
}

// Stop requests cancellation of the running loop. The item currently being
// generated is allowed to finish and is still persisted. It reports whether a
// running run was stopped.
func (p *Pipeline) Stop() bool {
	p.mu.Lock()
	if p.state.Status != domain.StatusRunning || p.current == nil {
		p.mu.Unlock()
		return false
	}

	p.current.cancelled = true
	p.state.Status = domain.StatusStopped
	p.state.IsActive = false
	p.state.CurrentItemID = ""
	p.state.FinishTime = p.now()
	p.recordLocked(domain.LevelInfo, "", "", fmt.Sprintf("Stop requested at %d/%d items", p.state.CompletedItems, p.state.TotalItems))
	p.pending = append(p.pending, p.snapshotLocked())
	p.mu.Unlock()
	p.flush()
	return true
}

// Wait blocks until the most recently started loop has exited and every
// snapshot it produced has reached subscribers. It must not be called from a
// subscriber callback.
func (p *Pipeline) Wait() {
	p.mu.Lock()
	r := p.current
	p.mu.Unlock()
	if r != nil {
		<-r.done
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for p.publishing || len(p.pending) > 0 {
		p.delivered.Wait()
	}
}

func (p *Pipeline) loop(ctx context.Context, r *run, prev *run, items []domain.ContentItem) {
	defer close(r.done)

	// A stopped loop may still be finishing its in-flight item.
	if prev != nil {
		<-prev.done
	}

	for _, item := range items {
		if ctx.Err() != nil || !p.claim(r, item) {
			break
		}
		p.processItem(ctx, r, item)
	}

	p.finish(ctx, r)
}

// claim marks item as in flight unless cancellation was requested.
func (p *Pipeline) claim(r *run, item domain.ContentItem) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if r != p.current || r.cancelled {
		return false
	}
	p.state.CurrentItemID = item.ID
	return true
}

func (p *Pipeline) processItem(ctx context.Context, r *run, item domain.ContentItem) {
	has, err := p.store.Has(ctx, item.ID)
	if err != nil {
		// Unknown presence: generating could overwrite a stored result.
		p.update(r, true, func(s *domain.PipelineState) {
			s.FailedItems++
			p.recordLocked(domain.LevelError, item.ID, "", fmt.Sprintf("Lookup failed for %s, will retry next run: %v", item.ID, err))
		})
		return
	}
	if has {
		p.update(r, true, func(s *domain.PipelineState) {
			s.CompletedItems++
			s.SkippedItems++
			p.recordLocked(domain.LevelInfo, item.ID, "", fmt.Sprintf("Skip %s: already generated", item.ID))
		})
		return
	}

	result := p.generator.Generate(ctx, item, func(a generation.Attempt) {
		p.update(r, false, func(*domain.PipelineState) {
			p.recordAttemptLocked(item, a)
		})
	})

	if ctx.Err() != nil && result.ProviderUsed == domain.ProviderLocal {
		// Cloud tiers were cut off by cancellation; keep the item eligible.
		p.update(r, true, func(*domain.PipelineState) {
			p.recordLocked(domain.LevelInfo, item.ID, "", fmt.Sprintf("Interrupted %s, local fallback not saved", item.ID))
		})
		return
	}

	if err := p.store.Set(ctx, result); err != nil {
		p.update(r, true, func(s *domain.PipelineState) {
			s.FailedItems++
			p.recordLocked(domain.LevelError, item.ID, result.ProviderUsed, fmt.Sprintf("Could not save %s, will retry next run: %v", item.ID, err))
		})
		return
	}

	p.update(r, true, func(s *domain.PipelineState) {
		s.CompletedItems++
		s.GeneratedItems++
	})
}

func (p *Pipeline) finish(ctx context.Context, r *run) {
	p.mu.Lock()
	if r != p.current {
		p.mu.Unlock()
		return
	}

	s := &p.state
	switch {
	case s.Status != domain.StatusRunning:
		p.recordLocked(domain.LevelInfo, "", "", fmt.Sprintf("Genesis stopped: %d/%d items complete", s.CompletedItems, s.TotalItems))
	case ctx.Err() != nil:
		s.Status = domain.StatusStopped
		p.recordLocked(domain.LevelInfo, "", "", fmt.Sprintf("Genesis interrupted: %d/%d items complete", s.CompletedItems, s.TotalItems))
	default:
		s.Status = domain.StatusCompleted
		p.recordLocked(domain.LevelSuccess, "", "", fmt.Sprintf("Genesis complete: %d/%d items, %d generated, %d skipped, %d failed",
			s.CompletedItems, s.TotalItems, s.GeneratedItems, s.SkippedItems, s.FailedItems))
	}
	s.IsActive = false
	s.CurrentItemID = ""
	s.FinishTime = p.now()

	p.pending = append(p.pending, p.snapshotLocked())
	p.mu.Unlock()
	p.flush()
}

// update applies fn to the state of r, if r is still the current run, and
// optionally queues a snapshot for observers.
func (p *Pipeline) update(r *run, publish bool, fn func(*domain.PipelineState)) {
	p.mu.Lock()
	if r != p.current {
		p.mu.Unlock()
		return
	}
	fn(&p.state)
	if publish {
		p.pending = append(p.pending, p.snapshotLocked())
	}
	p.mu.Unlock()

	if publish {
		p.flush()
	}
}

// flush delivers queued snapshots in the order they were taken. Whoever finds
// the queue idle becomes the publisher; concurrent or re-entrant callers only
// enqueue.
func (p *Pipeline) flush() {
	p.mu.Lock()
	if p.publishing {
		p.mu.Unlock()
		return
	}
	p.publishing = true
	for len(p.pending) > 0 {
		batch := p.pending
		p.pending = nil
		p.mu.Unlock()
		for _, snap := range batch {
			p.bus.Publish(snap)
		}
		p.mu.Lock()
	}
	p.publishing = false
	p.delivered.Broadcast()
	p.mu.Unlock()
}

func (p *Pipeline) snapshotLocked() domain.PipelineState {
	snap := p.state.Clone()
	snap.Logs = p.logs.Snapshot()
	return snap
}

func (p *Pipeline) recordAttemptLocked(item domain.ContentItem, a generation.Attempt) {
	switch {
	case a.Tag == domain.ProviderLocal:
		p.recordLocked(domain.LevelSuccess, item.ID, a.Tag, fmt.Sprintf("[%s] %s generated from key points", a.Tag, item.ID))
	case a.Succeeded():
		p.recordLocked(domain.LevelSuccess, item.ID, a.Tag, fmt.Sprintf("[%s] %s generated by %s in %s", a.Tag, item.ID, a.Provider, a.Duration.Round(time.Millisecond)))
	default:
		p.recordLocked(domain.LevelError, item.ID, a.Tag, fmt.Sprintf("[%s] %s failed for %s: %v", a.Tag, a.Provider, item.ID, a.Err))
	}
}

func (p *Pipeline) recordLocked(level domain.LogLevel, itemID string, tag domain.ProviderTag, msg string) {
	p.logs.Append(domain.LogEntry{
		Timestamp: p.now(),
		Message:   msg,
		Level:     level,
		ItemID:    itemID,
		Provider:  tag,
	})

	if p.logger == nil {
		return
	}
	args := []any{"run", shortID(p.state.RunID)}
	if itemID != "" {
		args = append(args, "item", itemID)
	}
	if tag != "" {
		args = append(args, "provider", tag)
	}
	switch level {
	case domain.LevelError:
		p.logger.Warn(msg, args...)
	default:
		p.logger.Info(msg, args...)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
