package facts

import (
	"context"
	"errors"
	"sync"
	"time"

	"ratematch/internal/metrics"
	"ratematch/internal/rates"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Status is the lifecycle state of a fact task.
type Status string

// Fact task statuses.
const (
	StatusPending  Status = "PENDING"
	StatusRunning  Status = "RUNNING"
	StatusSuccess  Status = "SUCCESS"
	StatusFailed   Status = "FAILED"
	StatusCanceled Status = "CANCELED"
)

// Terminal reports whether no further updates will happen.
func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusFailed || s == StatusCanceled
}

var (
	// ErrFactNotFound is returned for unknown or pruned task ids.
	ErrFactNotFound = errors.New("fact not found")
	// ErrFactsDisabled is returned by a nil *Manager.
	ErrFactsDisabled = errors.New("facts are disabled")
	// ErrManagerClosed is returned by Start after Close.
	ErrManagerClosed = errors.New("fact manager is closed")
)

const defaultRetention = 10 * time.Minute

// Fact is a point-in-time view of a task.
type Fact struct {
	ID        string      `json:"id"`
	Symbol    string      `json:"symbol"`
	Class     rates.Class `json:"class"`
	Status    Status      `json:"status"`
	Text      string      `json:"text"`
	Error     string      `json:"error,omitempty"`
	Cached    bool        `json:"cached"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

type task struct {
	fact    Fact
	cancel  context.CancelFunc
	done    chan struct{}
	changed chan struct{} // closed and replaced on every update
}

// Options tune a Manager.
type Options struct {
	RequestsPerMinute int           // 0 disables throttling.
	Retention         time.Duration // How long finished tasks stay readable.
	Metrics           *metrics.Metrics
}

// Manager runs fact tasks. At most one task per class is in flight: starting the
// same symbol again joins the running task, a different symbol cancels it.
//
// A nil *Manager is valid and reports ErrFactsDisabled.
type Manager struct {
	gen       Generator
	cache     Cache
	limiter   *rate.Limiter
	retention time.Duration
	metrics   *metrics.Metrics
	logger    *zap.SugaredLogger

	baseCtx context.Context
	stop    context.CancelFunc
	wg      sync.WaitGroup

	mu       sync.Mutex
	tasks    map[string]*task
	inflight map[rates.Class]*task
	closed   bool
	now      func() time.Time
}

// NewManager creates a Manager. cache may be nil.
func NewManager(gen Generator, cache Cache, opts Options, logger *zap.SugaredLogger) *Manager {
	limit := rate.Inf
	burst := 1
	if opts.RequestsPerMinute > 0 {
		limit = rate.Limit(float64(opts.RequestsPerMinute) / 60)
		burst = opts.RequestsPerMinute
	}
	retention := opts.Retention
	if retention <= 0 {
		retention = defaultRetention
	}

	ctx, stop := context.WithCancel(context.Background())
	return &Manager{
		gen:       gen,
		cache:     cache,
		limiter:   rate.NewLimiter(limit, burst),
		retention: retention,
		metrics:   opts.Metrics,
		logger:    logger,
		baseCtx:   ctx,
		stop:      stop,
		tasks:     make(map[string]*task),
		inflight:  make(map[rates.Class]*task),
		now:       time.Now,
	}
}

// Start begins generating a fact about symbol and returns the task id.
func (m *Manager) Start(symbol string, class rates.Class) (string, error) {
	if m == nil {
		return "", ErrFactsDisabled
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return "", ErrManagerClosed
	}
	m.pruneLocked()

	if cur, ok := m.inflight[class]; ok {
		if cur.fact.Symbol == symbol {
			return cur.fact.ID, nil
		}
		m.logger.Infow("Replacing in-flight fact", "fact_id", cur.fact.ID, "symbol", cur.fact.Symbol, "new_symbol", symbol)
		cur.cancel()
		delete(m.inflight, class)
	}

	ctx, cancel := context.WithCancel(m.baseCtx)
	now := m.now()
	t := &task{
		fact: Fact{
			ID:        uuid.NewString(),
			Symbol:    symbol,
			Class:     class,
			Status:    StatusPending,
			CreatedAt: now,
			UpdatedAt: now,
		},
		cancel:  cancel,
		done:    make(chan struct{}),
		changed: make(chan struct{}),
	}
	m.tasks[t.fact.ID] = t
	m.inflight[class] = t

	m.wg.Add(1)
	go m.run(ctx, t)
	return t.fact.ID, nil
}

func (m *Manager) run(ctx context.Context, t *task) {
	defer m.wg.Done()
	defer t.cancel()

	symbol := t.fact.Symbol

	if m.cache != nil {
		text, ok, err := m.cache.Get(ctx, symbol)
		if err != nil {
			m.logger.Warnw("Fact cache read failed", "symbol", symbol, "error", err)
		} else if ok {
			m.update(t, func(f *Fact) {
				f.Text = text
				f.Cached = true
			})
			m.finish(t, StatusSuccess, "")
			return
		}
	}

	if err := m.limiter.Wait(ctx); err != nil {
		m.finishErr(ctx, t, err)
		return
	}

	m.update(t, func(f *Fact) { f.Status = StatusRunning })

	err := m.gen.Stream(ctx, symbol, func(fragment string) {
		m.update(t, func(f *Fact) { f.Text += fragment })
	})
	if err != nil || ctx.Err() != nil {
		m.finishErr(ctx, t, err)
		return
	}

	// Cached before the task is marked finished so a waiter's next Start hits it.
	if m.cache != nil {
		m.mu.Lock()
		text := t.fact.Text
		m.mu.Unlock()

		cacheCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		if err := m.cache.Set(cacheCtx, symbol, text); err != nil {
			m.logger.Warnw("Fact cache write failed", "symbol", symbol, "error", err)
		}
		cancel()
	}

	m.finish(t, StatusSuccess, "")
}

func (m *Manager) finishErr(ctx context.Context, t *task, err error) {
	if ctx.Err() != nil {
		m.finish(t, StatusCanceled, "")
		return
	}
	m.finish(t, StatusFailed, err.Error())
}

// update applies fn to a task that has not finished yet and wakes followers.
func (m *Manager) update(t *task, fn func(f *Fact)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.fact.Status.Terminal() {
		return
	}
	fn(&t.fact)
	t.fact.UpdatedAt = m.now()
	close(t.changed)
	t.changed = make(chan struct{})
}

func (m *Manager) finish(t *task, status Status, errMsg string) {
	m.mu.Lock()
	if t.fact.Status.Terminal() {
		m.mu.Unlock()
		return
	}
	t.fact.Status = status
	t.fact.Error = errMsg
	t.fact.UpdatedAt = m.now()
	if m.inflight[t.fact.Class] == t {
		delete(m.inflight, t.fact.Class)
	}
	close(t.changed)
	t.changed = make(chan struct{})
	close(t.done)
	f := t.fact
	m.mu.Unlock()

	m.metrics.RecordFact(string(status))
	if status == StatusFailed {
		m.logger.Errorw("Fact generation failed", "fact_id", f.ID, "symbol", f.Symbol, "error", errMsg)
		return
	}
	m.logger.Infow("Fact finished", "fact_id", f.ID, "symbol", f.Symbol, "status", status, "cached", f.Cached)
}

func (m *Manager) lookup(id string) (*task, error) {
	if m == nil {
		return nil, ErrFactsDisabled
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pruneLocked()
	t, ok := m.tasks[id]
	if !ok {
		return nil, ErrFactNotFound
	}
	return t, nil
}

// Get returns the current state of a task.
func (m *Manager) Get(id string) (Fact, error) {
	t, err := m.lookup(id)
	if err != nil {
		return Fact{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return t.fact, nil
}

// Wait blocks until the task finishes or ctx ends.
func (m *Manager) Wait(ctx context.Context, id string) (Fact, error) {
	t, err := m.lookup(id)
	if err != nil {
		return Fact{}, err
	}
	select {
	case <-t.done:
	case <-ctx.Done():
		return Fact{}, ctx.Err()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return t.fact, nil
}

// Follow calls fn with every piece of text as it is produced, starting with the
// text generated so far, and returns the final state once the task finishes.
func (m *Manager) Follow(ctx context.Context, id string, fn func(fragment string)) (Fact, error) {
	t, err := m.lookup(id)
	if err != nil {
		return Fact{}, err
	}

	sent := 0
	for {
		m.mu.Lock()
		f := t.fact
		changed := t.changed
		m.mu.Unlock()

		if len(f.Text) > sent {
			fn(f.Text[sent:])
			sent = len(f.Text)
		}
		if f.Status.Terminal() {
			return f, nil
		}

		select {
		case <-changed:
		case <-ctx.Done():
			return f, ctx.Err()
		}
	}
}

// Cancel stops a task. Cancelling a finished task is a no-op.
func (m *Manager) Cancel(id string) error {
	t, err := m.lookup(id)
	if err != nil {
		return err
	}
	// Released right away so a new Start for the symbol does not join a dying task.
	m.mu.Lock()
	if m.inflight[t.fact.Class] == t {
		delete(m.inflight, t.fact.Class)
	}
	m.mu.Unlock()
	t.cancel()
	return nil
}

// Close cancels every running task and waits for them to stop.
func (m *Manager) Close(ctx context.Context) error {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	m.stop()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) pruneLocked() {
	cutoff := m.now().Add(-m.retention)
	for id, t := range m.tasks {
		if t.fact.Status.Terminal() && t.fact.UpdatedAt.Before(cutoff) {
			delete(m.tasks, id)
		}
	}
}
