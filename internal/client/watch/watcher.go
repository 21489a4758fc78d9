package watch

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"Skirmish/internal/client/flow"
	"Skirmish/internal/session/dto"
	"Skirmish/internal/shared/transport/ws"
	"Skirmish/modules/kit/logx"
)

const (
	DefaultPollInterval = 2 * time.Second
	heartbeatEvery      = 15 * time.Second
	eventBuffer         = 8
)

// Describer 是轮询兜底需要的那一个接口。
type Describer interface {
	DescribeSession(ctx context.Context, sessionID string) (dto.DescribeResp, error)
}

type frame struct {
	Seq  int64           `json:"seq"`
	Name string          `json:"name"`
	Code int             `json:"code"`
	Msg  json.RawMessage `json:"msg"`
}

// Watcher 把会话的带外变化（开始、快照更新）转成状态机事件。
// 优先走 WebSocket 推送，拨号或读失败时退化为定时轮询。
type Watcher struct {
	wsBase   string
	api      Describer
	interval time.Duration
	dialer   *websocket.Dialer
	log      logx.Logger

	events chan flow.Event

	mu      sync.Mutex
	session string
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New 的 httpBase 形如 http://host:port，推送地址由它推导。
func New(httpBase string, api Describer, interval time.Duration, l logx.Logger) *Watcher {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if l == nil {
		l = logx.Nop()
	}
	return &Watcher{
		wsBase:   toWS(httpBase),
		api:      api,
		interval: interval,
		dialer:   &websocket.Dialer{HandshakeTimeout: 3 * time.Second},
		log:      l,
		events:   make(chan flow.Event, eventBuffer),
	}
}

// Events 由渲染循环每帧非阻塞地取。
func (w *Watcher) Events() <-chan flow.Event {
	return w.events
}

// Watch 切换观察对象；同一会话重复调用无副作用，空串表示停止。
func (w *Watcher) Watch(sessionID string) {
	w.mu.Lock()
	if sessionID == w.session {
		w.mu.Unlock()
		return
	}
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
	w.session = sessionID
	if sessionID == "" {
		w.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.wg.Add(1)
	w.mu.Unlock()

	go func() {
		defer w.wg.Done()
		w.run(ctx, sessionID)
	}()
}

// Stop 停止观察并等待后台协程退出。
func (w *Watcher) Stop() {
	w.Watch("")
	w.wg.Wait()
}

func (w *Watcher) run(ctx context.Context, sessionID string) {
	if err := w.push(ctx, sessionID); err != nil && ctx.Err() == nil {
		w.log.Warn("push channel unavailable, falling back to polling",
			zap.String("session_id", sessionID), zap.Error(err))
	}
	if ctx.Err() != nil {
		return
	}
	w.poll(ctx, sessionID)
}

func (w *Watcher) push(ctx context.Context, sessionID string) error {
	conn, _, err := w.dialer.DialContext(ctx, w.wsBase+"/ws/sessions/"+url.PathEscape(sessionID), nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()
	go w.heartbeat(ctx, conn)

	for {
		var f frame
		if err := conn.ReadJSON(&f); err != nil {
			return err
		}
		var ev dto.PushEvent
		switch f.Name {
		case ws.SessionStartedMsg, ws.MatchUpdatedMsg:
			if err := json.Unmarshal(f.Msg, &ev); err != nil {
				w.log.Warn("push frame decode", zap.String("name", f.Name), zap.Error(err))
				continue
			}
		default:
			continue
		}
		if f.Name == ws.SessionStartedMsg {
			w.emit(ctx, flow.Started(ev.Snapshot))
		} else {
			w.emit(ctx, flow.SnapshotUpdated(ev.Snapshot))
		}
	}
}

// heartbeat 是这条连接上唯一的写者。
func (w *Watcher) heartbeat(ctx context.Context, conn *websocket.Conn) {
	t := time.NewTicker(heartbeatEvery)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			msg := ws.PushMsg{Name: ws.HeartbeatMsg, Msg: ws.Heartbeat{CTime: time.Now().UnixMilli()}}
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		}
	}
}

// poll 只在快照回合数前进时投递，第一次看到 running 投递开始事件。
func (w *Watcher) poll(ctx context.Context, sessionID string) {
	t := time.NewTicker(w.interval)
	defer t.Stop()
	started := false
	lastTurn := -1
	for {
		d, err := w.api.DescribeSession(ctx, sessionID)
		if err == nil && d.Phase == "running" && d.Snapshot != nil {
			switch {
			case !started:
				started = true
				lastTurn = d.Snapshot.Turn
				w.emit(ctx, flow.Started(d.Snapshot))
			case d.Snapshot.Turn != lastTurn:
				lastTurn = d.Snapshot.Turn
				w.emit(ctx, flow.SnapshotUpdated(d.Snapshot))
			}
		}
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}

func (w *Watcher) emit(ctx context.Context, ev flow.Event) {
	select {
	case w.events <- ev:
	case <-ctx.Done():
	}
}

func toWS(httpBase string) string {
	base := strings.TrimRight(httpBase, "/")
	switch {
	case strings.HasPrefix(base, "https://"):
		return "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		return "ws://" + strings.TrimPrefix(base, "http://")
	default:
		return base
	}
}
