package app

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"Skirmish/internal/client/flow"
	"Skirmish/internal/client/input"
	"Skirmish/modules/kit/logx"
)

// Source 每次调用产出一帧的输入，超时也算一帧。
type Source interface {
	Next(ctx context.Context) input.Result
}

// Observer 提供带外事件，并按当前状态切换观察的会话。
type Observer interface {
	Events() <-chan flow.Event
	Watch(sessionID string)
}

type Drawer interface {
	Draw(s flow.State)
}

// App 是客户端的渲染循环：画一帧，吃掉带外事件，再等一次输入。
type App struct {
	flow  *flow.Flow
	src   Source
	watch Observer
	draw  Drawer
	clip  Clipboard
	log   logx.Logger
}

func New(f *flow.Flow, src Source, watch Observer, draw Drawer, clip Clipboard, l logx.Logger) *App {
	if l == nil {
		l = logx.Nop()
	}
	return &App{flow: f, src: src, watch: watch, draw: draw, clip: clip, log: l}
}

// Run 一直跑到状态机进入 Exit，返回最后的状态。
func (a *App) Run(ctx context.Context) flow.State {
	state := flow.Initial()
	defer a.watch.Watch("")

	for {
		a.draw.Draw(state)
		if _, ok := state.(flow.Exit); ok {
			return state
		}
		state = a.drain(ctx, state)

		res := a.src.Next(ctx)
		switch res.Kind {
		case input.KindCopy:
			a.copy(state)
			continue
		case input.KindPaste:
			ev, ok := a.paste()
			if !ok {
				continue
			}
			res.Event = ev
		}

		next := a.flow.Next(ctx, state, res.Event)
		a.logTransition(state, next, res.Event)
		state = next
		sid, _ := flow.SessionOf(state)
		a.watch.Watch(sid)
	}
}

// drain 非阻塞地把已到达的带外事件全部喂给状态机。
func (a *App) drain(ctx context.Context, state flow.State) flow.State {
	for {
		select {
		case ev := <-a.watch.Events():
			state = a.flow.Next(ctx, state, ev)
		default:
			return state
		}
	}
}

func (a *App) copy(state flow.State) {
	code := flow.ShareCode(state)
	if code == "" || a.clip == nil {
		return
	}
	if err := a.clip.WriteAll(code); err != nil {
		a.log.Warn("clipboard write failed", zap.Error(err))
	}
}

func (a *App) paste() (flow.Event, bool) {
	if a.clip == nil {
		return flow.Event{}, false
	}
	text, err := a.clip.ReadAll()
	if err != nil {
		a.log.Warn("clipboard read failed", zap.Error(err))
		return flow.Event{}, false
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return flow.Event{}, false
	}
	return flow.Text(text), true
}

func (a *App) logTransition(from, to flow.State, ev flow.Event) {
	if stateName(from) == stateName(to) {
		return
	}
	a.log.Debug("state transition",
		zap.String("from", stateName(from)),
		zap.String("to", stateName(to)),
		zap.Stringer("event", ev.Kind),
	)
}

func stateName(s flow.State) string {
	switch s.(type) {
	case flow.CreateOrJoin:
		return "create_or_join"
	case flow.SelectMap:
		return "select_map"
	case flow.AssembleCharacter:
		return "assemble_character"
	case flow.AwaitingStart:
		return "awaiting_start"
	case flow.Playing:
		return "playing"
	case flow.Exit:
		return "exit"
	default:
		return "unknown"
	}
}
