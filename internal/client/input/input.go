package input

import (
	"context"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"

	"Skirmish/internal/client/flow"
)

const DefaultTimeout = 500 * time.Millisecond

// RawSource 是阻塞的终端事件源，tcell.Screen 满足它。关闭后 PollEvent 返回 nil。
type RawSource interface {
	PollEvent() tcell.Event
}

type Kind int

const (
	KindFlow Kind = iota
	// 复制 / 粘贴由渲染循环处理，不进入状态机。
	KindCopy
	KindPaste
)

type Result struct {
	Kind  Kind
	Event flow.Event
}

// Source 每帧产出恰好一个事件：一次原始输入与固定超时赛跑。
// 没人等待时到达的原始输入直接丢弃，不跨帧缓冲。
type Source struct {
	timeout time.Duration
	raw     chan tcell.Event
	once    sync.Once
	src     RawSource
	done    chan struct{}
}

func NewSource(src RawSource, timeout time.Duration) *Source {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Source{
		timeout: timeout,
		raw:     make(chan tcell.Event),
		src:     src,
		done:    make(chan struct{}),
	}
}

// Next 阻塞到输入或超时先到。ctx 取消视为退出。
func (s *Source) Next(ctx context.Context) Result {
	s.once.Do(func() { go s.pump() })

	timer := time.NewTimer(s.timeout)
	defer timer.Stop()
	select {
	case ev := <-s.raw:
		return Translate(ev)
	case <-timer.C:
		return Result{Kind: KindFlow, Event: flow.Key(flow.EventTimeout)}
	case <-ctx.Done():
		return Result{Kind: KindFlow, Event: flow.Key(flow.EventExit)}
	case <-s.done:
		return Result{Kind: KindFlow, Event: flow.Key(flow.EventExit)}
	}
}

// pump 是唯一的读线程；非阻塞投递到无缓冲通道，只有正在 Next 里等待时才能送达。
func (s *Source) pump() {
	defer close(s.done)
	for {
		ev := s.src.PollEvent()
		if ev == nil {
			return
		}
		select {
		case s.raw <- ev:
		default:
		}
	}
}

// Translate 把 tcell 事件翻译为状态机事件或剪贴板元事件。
func Translate(ev tcell.Event) Result {
	key, ok := ev.(*tcell.EventKey)
	if !ok {
		return Result{Kind: KindFlow, Event: flow.Key(flow.EventOther)}
	}
	switch key.Key() {
	case tcell.KeyLeft:
		return keyResult(flow.EventLeft)
	case tcell.KeyRight:
		return keyResult(flow.EventRight)
	case tcell.KeyUp:
		return keyResult(flow.EventUp)
	case tcell.KeyDown:
		return keyResult(flow.EventDown)
	case tcell.KeyEnter:
		return keyResult(flow.EventConfirm)
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		return keyResult(flow.EventBackspace)
	case tcell.KeyDelete, tcell.KeyTab:
		return keyResult(flow.EventCancel)
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return keyResult(flow.EventExit)
	case tcell.KeyRune:
		switch r := key.Rune(); r {
		case '[':
			return Result{Kind: KindCopy}
		case ']':
			return Result{Kind: KindPaste}
		default:
			return Result{Kind: KindFlow, Event: flow.Text(string(r))}
		}
	default:
		return keyResult(flow.EventOther)
	}
}

func keyResult(k flow.EventKind) Result {
	return Result{Kind: KindFlow, Event: flow.Key(k)}
}
