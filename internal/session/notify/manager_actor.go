package notify

import (
	"Skirmish/internal/shared/actor/messages"

	"github.com/asynkron/protoactor-go/actor"
)

type hubEntry struct {
	pid  *actor.PID
	subs int
}

// managerActor 按会话 id 维护 hub，订阅数归零时毒杀对应 hub。
// 计数放在这里而不是 hub 里，避免“hub 自报空闲”与新订阅之间的竞态。
type managerActor struct {
	hubs map[string]*hubEntry
}

func newManagerActor() *managerActor {
	return &managerActor{
		hubs: make(map[string]*hubEntry),
	}
}

func (m *managerActor) Receive(ctx actor.Context) {
	req, ok := ctx.Message().(messages.SessionMessage)
	if !ok {
		return
	}
	id := req.SessionID()

	switch req.(type) {
	case *subscribe:
		e := m.getOrSpawn(ctx, id)
		e.subs++
		ctx.Forward(e.pid)
	case *unsubscribe:
		e, ok := m.hubs[id]
		if !ok {
			return
		}
		ctx.Forward(e.pid)
		e.subs--
		if e.subs <= 0 {
			ctx.Poison(e.pid)
			delete(m.hubs, id)
		}
	case *publish:
		// 没人订阅的会话直接丢弃
		if e, ok := m.hubs[id]; ok {
			ctx.Forward(e.pid)
		}
	case *countSubscribers:
		n := 0
		if e, ok := m.hubs[id]; ok {
			n = e.subs
		}
		ctx.Respond(&subscriberCount{count: n})
	}
}

func (m *managerActor) getOrSpawn(ctx actor.Context, id string) *hubEntry {
	if e, ok := m.hubs[id]; ok && e.pid != nil {
		return e
	}
	props := actor.PropsFromProducer(func() actor.Actor {
		return newHubActor(id)
	})
	e := &hubEntry{pid: ctx.Spawn(props)}
	m.hubs[id] = e
	return e
}
