package journal

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"Skirmish/internal/session/app"
	"Skirmish/modules/kit/logx"
)

const (
	defaultFlushEvery = time.Second
	defaultBatchSize  = 64
	retryBackoff      = 200 * time.Millisecond

	// 积压超过上限时丢弃最旧的记录，Append 永不阻塞。
	defaultMaxPending = 10000

	// 单批落库的上限，存储卡住时写线程也能按时回到重试逻辑。
	defaultSaveTimeout = 5 * time.Second

	// 关闭阶段每批最多重试次数，避免存储长期不可用时 Close 卡住。
	closeRetries = 3
)

// IDSource 生成单调递增的流水号。
type IDSource func() (int64, error)

type WriterOption func(*Writer)

func WithFlushEvery(d time.Duration) WriterOption {
	return func(w *Writer) {
		if d > 0 {
			w.flushEvery = d
		}
	}
}

func WithBatchSize(n int) WriterOption {
	return func(w *Writer) {
		if n > 0 {
			w.batchSize = n
		}
	}
}

func WithMaxPending(n int) WriterOption {
	return func(w *Writer) {
		if n > 0 {
			w.maxPending = n
		}
	}
}

func WithSaveTimeout(d time.Duration) WriterOption {
	return func(w *Writer) {
		if d > 0 {
			w.saveTimeout = d
		}
	}
}

func WithLogger(l logx.Logger) WriterOption {
	return func(w *Writer) {
		if l != nil {
			w.log = l
		}
	}
}

// WithCloser 在写线程退出后调用，用来释放底层连接。
func WithCloser(f func(ctx context.Context) error) WriterOption {
	return func(w *Writer) { w.onClose = f }
}

// Writer 异步批量写审计流水：调用方只入队，单个写线程按批落库，失败重排到队首重试。
type Writer struct {
	repo        Repository
	ids         IDSource
	flushEvery  time.Duration
	batchSize   int
	maxPending  int
	saveTimeout time.Duration
	log         logx.Logger
	onClose     func(ctx context.Context) error

	mu      sync.Mutex
	pending []Record
	dropped int
	closed  bool

	wake chan struct{}
	stop chan struct{}
	done chan struct{}
}

var _ app.Journal = (*Writer)(nil)

func NewWriter(repo Repository, ids IDSource, opts ...WriterOption) *Writer {
	w := &Writer{
		repo:        repo,
		ids:         ids,
		flushEvery:  defaultFlushEvery,
		batchSize:   defaultBatchSize,
		maxPending:  defaultMaxPending,
		saveTimeout: defaultSaveTimeout,
		log:         logx.Nop(),
		wake:        make(chan struct{}, 1),
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	go w.writerLoop()
	return w
}

// Append 转换并入队，满一批时唤醒写线程。
func (w *Writer) Append(ctx context.Context, ev app.Event) {
	id, err := w.ids()
	if err != nil {
		logx.ReportSysError(ctx, w.log, logx.NewSysLog("journal_id", err), zap.String("session_id", string(ev.Session)))
		return
	}
	rec, err := FromEvent(id, ev)
	if err != nil {
		logx.ReportSysError(ctx, w.log, logx.NewSysLog("journal_encode", err), zap.String("session_id", string(ev.Session)))
		return
	}

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.pending = append(w.pending, rec)
	if over := len(w.pending) - w.maxPending; over > 0 {
		w.pending = w.pending[over:]
		w.dropped += over
	}
	full := len(w.pending) >= w.batchSize
	w.mu.Unlock()

	if full {
		w.signal()
	}
}

// Pending 当前积压条数。
func (w *Writer) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pending)
}

// Close 停止接收并等待积压写完；ctx 到期先返回，写线程仍会在有限重试后退出。
func (w *Writer) Close(ctx context.Context) error {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.stop)
	}
	w.mu.Unlock()

	select {
	case <-w.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	if w.onClose != nil {
		return w.onClose(ctx)
	}
	return nil
}

func (w *Writer) signal() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *Writer) popBatch() []Record {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.pending) == 0 {
		return nil
	}
	n := min(len(w.pending), w.batchSize)
	batch := make([]Record, n)
	copy(batch, w.pending[:n])
	w.pending = w.pending[n:]
	return batch
}

func (w *Writer) save(batch []Record) error {
	ctx, cancel := context.WithTimeout(context.Background(), w.saveTimeout)
	defer cancel()
	return w.repo.SaveBatch(ctx, batch)
}

// requeueFront 失败的批次放回队首，保持写入顺序。
func (w *Writer) requeueFront(batch []Record) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending = append(batch, w.pending...)
}

func (w *Writer) writerLoop() {
	defer close(w.done)

	ticker := time.NewTicker(w.flushEvery)
	defer ticker.Stop()
	for {
		select {
		case <-w.wake:
			w.consumePending(false)
		case <-ticker.C:
			w.consumePending(false)
		case <-w.stop:
			w.consumePending(true)
			w.reportDropped()
			return
		}
	}
}

func (w *Writer) consumePending(closing bool) {
	failures := 0
	for {
		batch := w.popBatch()
		if batch == nil {
			return
		}
		if err := w.save(batch); err != nil {
			failures++
			logx.ReportSysError(context.Background(), w.log, logx.NewSysLog("journal_flush", err),
				zap.Int("batch", len(batch)), zap.Int("failures", failures))
			if closing && failures >= closeRetries {
				w.mu.Lock()
				w.dropped += len(batch) + len(w.pending)
				w.pending = nil
				w.mu.Unlock()
				return
			}
			w.requeueFront(batch)
			if !closing {
				// 等下一次 tick 或唤醒再试
				return
			}
			time.Sleep(retryBackoff)
			continue
		}
		failures = 0
	}
}

func (w *Writer) reportDropped() {
	w.mu.Lock()
	n := w.dropped
	w.mu.Unlock()
	if n > 0 {
		w.log.Warn("journal records dropped", zap.Int("dropped", n))
	}
}
