package journal

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"Skirmish/internal/game/entity"
	"Skirmish/internal/game/rules"
	"Skirmish/internal/session/app"
	"Skirmish/internal/shared/serverconfig"
)

func counter() IDSource {
	var n atomic.Int64
	return func() (int64, error) { return n.Add(1), nil }
}

// flakyRepo 前 failN 次写入失败。
type flakyRepo struct {
	*MemoryRepository
	mu    sync.Mutex
	failN int
	calls int
}

func (f *flakyRepo) SaveBatch(ctx context.Context, records []Record) error {
	f.mu.Lock()
	f.calls++
	fail := f.calls <= f.failN
	f.mu.Unlock()
	if fail {
		return errors.New("db down")
	}
	return f.MemoryRepository.SaveBatch(ctx, records)
}

func newFlaky(failN int) *flakyRepo {
	return &flakyRepo{MemoryRepository: NewMemoryRepository(), failN: failN}
}

func ev(kind app.EventKind, session string) app.Event {
	return app.Event{Kind: kind, Session: app.SessionID(session), At: time.Now()}
}

func TestFromEvent_字段映射(t *testing.T) {
	cid := entity.FromRaw[rules.Character](3)
	snap := &rules.Snapshot{Turn: 7, TurnHolder: cid, Characters: entity.NewArena[rules.Character](0)}
	r, err := FromEvent(42, app.Event{Kind: app.EventActionApplied, Session: "ABCDEFGHIJ", Character: &cid, Snapshot: snap, Detail: strings.Repeat("x", 300)})
	if err != nil {
		t.Fatalf("FromEvent: %v", err)
	}
	if r.ID != 42 || r.SessionID != "ABCDEFGHIJ" || r.Kind != "match.updated" {
		t.Fatalf("期望基础字段一致, got=%+v", r)
	}
	if r.CharacterID == nil || *r.CharacterID != 3 || r.Turn != 7 {
		t.Fatalf("期望角色与回合被带上, got=%+v", r)
	}
	if len(r.Detail) != 255 || r.Snapshot == "" || r.CreatedAt.IsZero() {
		t.Fatalf("期望说明被截断且快照被序列化, detail=%d snap=%q", len(r.Detail), r.Snapshot)
	}
}

func TestWriter_关闭时写完积压(t *testing.T) {
	repo := NewMemoryRepository()
	w := NewWriter(repo, counter(), WithFlushEvery(time.Hour), WithBatchSize(100))
	for i := 0; i < 10; i++ {
		w.Append(context.Background(), ev(app.EventJoined, "S1"))
	}
	if err := w.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}
	got := repo.BySession("S1")
	if len(got) != 10 {
		t.Fatalf("期望 10 条流水, got=%d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].ID <= got[i-1].ID {
			t.Fatalf("期望按流水号顺序写入")
		}
	}
	w.Append(context.Background(), ev(app.EventJoined, "S1"))
	if w.Pending() != 0 {
		t.Fatalf("期望关闭后丢弃新事件")
	}
}

func TestWriter_满一批立即落库(t *testing.T) {
	repo := NewMemoryRepository()
	w := NewWriter(repo, counter(), WithFlushEvery(time.Hour), WithBatchSize(3))
	defer w.Close(context.Background())
	for i := 0; i < 3; i++ {
		w.Append(context.Background(), ev(app.EventCreated, "S1"))
	}
	deadline := time.Now().Add(2 * time.Second)
	for len(repo.Records()) < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("期望满批后 2s 内落库, got=%d", len(repo.Records()))
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestWriter_失败后重试且不重复(t *testing.T) {
	repo := newFlaky(2)
	w := NewWriter(repo, counter(), WithFlushEvery(20*time.Millisecond), WithBatchSize(2))
	for i := 0; i < 5; i++ {
		w.Append(context.Background(), ev(app.EventJoined, "S1"))
	}
	deadline := time.Now().Add(3 * time.Second)
	for len(repo.Records()) < 5 {
		if time.Now().After(deadline) {
			t.Fatalf("期望重试后全部落库, got=%d", len(repo.Records()))
		}
		time.Sleep(10 * time.Millisecond)
	}
	_ = w.Close(context.Background())
	if len(repo.Records()) != 5 {
		t.Fatalf("期望恰好 5 条, got=%d", len(repo.Records()))
	}
}

func TestWriter_存储一直不可用时关闭不会卡死(t *testing.T) {
	repo := newFlaky(1 << 30)
	w := NewWriter(repo, counter(), WithFlushEvery(time.Hour))
	w.Append(context.Background(), ev(app.EventJoined, "S1"))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := w.Close(ctx); err != nil {
		t.Fatalf("期望有限重试后退出, err=%v", err)
	}
}

func TestWriter_积压超限丢弃最旧(t *testing.T) {
	repo := newFlaky(1 << 30)
	w := NewWriter(repo, counter(), WithFlushEvery(time.Hour), WithBatchSize(100), WithMaxPending(3))
	for i := 0; i < 5; i++ {
		w.Append(context.Background(), ev(app.EventJoined, "S1"))
	}
	if n := w.Pending(); n != 3 {
		t.Fatalf("期望积压上限 3, got=%d", n)
	}
	_ = w.Close(context.Background())
}

func TestOpen_按驱动选择后端(t *testing.T) {
	ctx := context.Background()
	var cfg serverconfig.Config

	cfg.Journal.Driver = DriverNone
	s, err := Open(ctx, cfg, nil)
	if err != nil {
		t.Fatalf("none: %v", err)
	}
	if _, ok := s.(discard); !ok {
		t.Fatalf("期望 none 返回丢弃实现, got=%T", s)
	}

	cfg.Journal.Driver = DriverMemory
	s, err = Open(ctx, cfg, nil)
	if err != nil {
		t.Fatalf("memory: %v", err)
	}
	if _, ok := s.(*Writer); !ok {
		t.Fatalf("期望 memory 返回异步写入器, got=%T", s)
	}
	_ = s.Close(ctx)

	cfg.Journal.Driver = "redis"
	if _, err := Open(ctx, cfg, nil); err == nil {
		t.Fatalf("期望未知驱动报错")
	}
}

func TestGormRepository_生成幂等插入(t *testing.T) {
	gdb, err := gorm.Open(mysql.New(mysql.Config{
		DSN:                       "u:p@tcp(127.0.0.1:3306)/skirmish?parseTime=True",
		SkipInitializeWithVersion: true,
	}), &gorm.Config{DryRun: true, DisableAutomaticPing: true})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	records := []Record{{ID: 1, SessionID: "S1", Kind: "session.created", CreatedAt: time.Now()}}
	sql := gdb.ToSQL(func(tx *gorm.DB) *gorm.DB {
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&records)
	})
	if !strings.Contains(sql, "INSERT INTO `session_journal`") {
		t.Fatalf("期望写入 session_journal 表, sql=%s", sql)
	}
	if !strings.Contains(sql, "ON DUPLICATE KEY") {
		t.Fatalf("期望主键冲突时忽略, sql=%s", sql)
	}
}

// stuckRepo 一直阻塞到 ctx 结束，并记下 ctx 是否带截止时间。
type stuckRepo struct {
	mu          sync.Mutex
	calls       int
	hadDeadline bool
}

func (s *stuckRepo) SaveBatch(ctx context.Context, _ []Record) error {
	_, ok := ctx.Deadline()
	s.mu.Lock()
	s.calls++
	s.hadDeadline = ok
	s.mu.Unlock()
	<-ctx.Done()
	return ctx.Err()
}

func TestWriter_单批落库有超时(t *testing.T) {
	repo := &stuckRepo{}
	w := NewWriter(repo, counter(), WithFlushEvery(time.Hour), WithSaveTimeout(50*time.Millisecond))
	w.Append(context.Background(), ev(app.EventJoined, "S1"))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := w.Close(ctx); err != nil {
		t.Fatalf("期望卡住的存储按超时放弃后 Close 返回, err=%v", err)
	}
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if !repo.hadDeadline {
		t.Fatalf("期望落库 ctx 带截止时间")
	}
	if repo.calls != closeRetries {
		t.Fatalf("期望关闭阶段重试 %d 次, got=%d", closeRetries, repo.calls)
	}
}
