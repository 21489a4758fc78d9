package notify

import (
	"Skirmish/internal/session/app"

	"github.com/asynkron/protoactor-go/actor"
)

// hubActor 持有一个会话的全部订阅者。发送永不阻塞：订阅者缓冲满时丢弃该条事件。
type hubActor struct {
	session string
	subs    map[uint64]chan app.Event
	dropped int
}

func newHubActor(session string) *hubActor {
	return &hubActor{
		session: session,
		subs:    make(map[uint64]chan app.Event),
	}
}

func (h *hubActor) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *subscribe:
		h.subs[msg.subID] = msg.sink
		ctx.Respond(&subscribeAck{subID: msg.subID})
	case *unsubscribe:
		if sink, ok := h.subs[msg.subID]; ok {
			close(sink)
			delete(h.subs, msg.subID)
		}
	case *publish:
		h.broadcast(ctx, msg.ev)
	case *actor.Stopped:
		for id, sink := range h.subs {
			close(sink)
			delete(h.subs, id)
		}
	}
}

func (h *hubActor) broadcast(ctx actor.Context, ev app.Event) {
	for id, sink := range h.subs {
		select {
		case sink <- ev:
		default:
			h.dropped++
			ctx.Logger().Warn("subscriber lagging, event dropped",
				"session_id", h.session, "sub_id", id, "kind", string(ev.Kind), "dropped", h.dropped)
		}
	}
}
