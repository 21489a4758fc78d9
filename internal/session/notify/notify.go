package notify

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	protoactor "github.com/asynkron/protoactor-go/actor"
	"go.uber.org/zap"

	"Skirmish/internal/session/app"
	"Skirmish/internal/shared/actor/messages"
	"Skirmish/modules/kit/errx"
	"Skirmish/modules/kit/logx"
)

const (
	defaultAskTimeout = 3 * time.Second
	// DefaultBuffer 每个订阅者的事件缓冲。
	DefaultBuffer = 16
)

var ErrHubClosed = errx.NewSys("NOTIFY_HUB_CLOSED", "推送中心已关闭")

// Hub 基于 actor 的会话事件扇出，实现 app.Notifier。
type Hub struct {
	system  *protoactor.ActorSystem
	root    *protoactor.RootContext
	manager *protoactor.PID
	timeout time.Duration
	buffer  int
	nextSub atomic.Uint64
	closed  atomic.Bool
	log     logx.Logger
}

var _ app.Notifier = (*Hub)(nil)

func NewHub(buffer int, askTimeout time.Duration, l logx.Logger) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	if askTimeout <= 0 {
		askTimeout = defaultAskTimeout
	}
	if l == nil {
		l = logx.Nop()
	}

	system := protoactor.NewActorSystem()
	root := system.Root
	props := protoactor.PropsFromProducer(func() protoactor.Actor {
		return newManagerActor()
	})
	return &Hub{
		system:  system,
		root:    root,
		manager: root.Spawn(props),
		timeout: askTimeout,
		buffer:  buffer,
		log:     l,
	}
}

// Subscribe 注册后才返回，之后发布的事件都能收到。cancel 幂等，调用后通道被关闭。
func (h *Hub) Subscribe(ctx context.Context, id app.SessionID) (<-chan app.Event, func(), error) {
	if h.closed.Load() {
		return nil, nil, ErrHubClosed
	}
	subID := h.nextSub.Add(1)
	sink := make(chan app.Event, h.buffer)
	base := messages.SessionBaseMessage{Session: string(id)}

	if _, err := h.request(ctx, &subscribe{SessionBaseMessage: base, subID: subID, sink: sink}); err != nil {
		return nil, nil, err
	}

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			if h.closed.Load() {
				return
			}
			h.root.Send(h.manager, &unsubscribe{SessionBaseMessage: base, subID: subID})
		})
	}
	h.log.Debug("notify subscribed", zap.String("session_id", string(id)), zap.Uint64("sub_id", subID))
	return sink, cancel, nil
}

// Publish 非阻塞，关闭后静默丢弃。
func (h *Hub) Publish(id app.SessionID, ev app.Event) {
	if h.closed.Load() {
		return
	}
	h.root.Send(h.manager, &publish{SessionBaseMessage: messages.SessionBaseMessage{Session: string(id)}, ev: ev})
}

// Subscribers 返回会话当前的订阅数。
func (h *Hub) Subscribers(ctx context.Context, id app.SessionID) (int, error) {
	res, err := h.request(ctx, &countSubscribers{SessionBaseMessage: messages.SessionBaseMessage{Session: string(id)}})
	if err != nil {
		return 0, err
	}
	c, ok := res.(*subscriberCount)
	if !ok {
		return 0, errx.NewSys(errx.CodeInternal, "意外的 actor 响应")
	}
	return c.count, nil
}

// Close 停掉整个 actor 系统，所有订阅通道随 hub 一起关闭。
func (h *Hub) Close() {
	if h == nil || !h.closed.CompareAndSwap(false, true) {
		return
	}
	if err := h.root.StopFuture(h.manager).Wait(); err != nil {
		h.log.Warn("notify manager stop", zap.Error(err))
	}
	h.system.Shutdown()
}

func (h *Hub) request(ctx context.Context, msg any) (any, error) {
	if h.closed.Load() {
		return nil, ErrHubClosed
	}
	res, err := h.root.RequestFuture(h.manager, msg, h.timeoutFromContext(ctx)).Result()
	if err != nil {
		if errors.Is(err, protoactor.ErrTimeout) {
			return nil, errx.ErrTimeout.WithCause(err)
		}
		return nil, errx.NewSys(errx.CodeUnavailable, "actor 请求失败").WithCause(err)
	}
	return res, nil
}

func (h *Hub) timeoutFromContext(ctx context.Context) time.Duration {
	if ctx == nil {
		return h.timeout
	}
	deadline, ok := ctx.Deadline()
	if !ok {
		return h.timeout
	}
	remain := time.Until(deadline)
	if remain <= 0 {
		return time.Millisecond
	}
	if remain < h.timeout {
		return remain
	}
	return h.timeout
}
