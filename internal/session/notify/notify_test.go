package notify

import (
	"context"
	"testing"
	"time"

	"Skirmish/internal/session/app"
)

func recv(t *testing.T, ch <-chan app.Event) app.Event {
	t.Helper()
	select {
	case ev, ok := <-ch:
		if !ok {
			t.Fatalf("期望收到事件，通道却已关闭")
		}
		return ev
	case <-time.After(2 * time.Second):
		t.Fatalf("期望 2s 内收到事件")
	}
	return app.Event{}
}

func waitClosed(t *testing.T, ch <-chan app.Event) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatalf("期望通道被关闭")
		}
	}
}

func TestHub_订阅后收到本会话事件(t *testing.T) {
	h := NewHub(4, time.Second, nil)
	defer h.Close()
	ctx := context.Background()

	a, cancelA, err := h.Subscribe(ctx, "S1")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancelA()
	other, cancelO, _ := h.Subscribe(ctx, "S2")
	defer cancelO()

	h.Publish("S1", app.Event{Kind: app.EventStarted, Session: "S1"})
	if ev := recv(t, a); ev.Kind != app.EventStarted {
		t.Fatalf("期望 started, got=%s", ev.Kind)
	}
	select {
	case ev := <-other:
		t.Fatalf("期望其他会话收不到事件, got=%+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_多个订阅者都收到且保持顺序(t *testing.T) {
	h := NewHub(8, time.Second, nil)
	defer h.Close()
	ctx := context.Background()
	a, ca, _ := h.Subscribe(ctx, "S1")
	b, cb, _ := h.Subscribe(ctx, "S1")
	defer ca()
	defer cb()

	for i := 0; i < 3; i++ {
		h.Publish("S1", app.Event{Kind: app.EventActionApplied, Detail: string(rune('a' + i))})
	}
	for _, ch := range []<-chan app.Event{a, b} {
		for i := 0; i < 3; i++ {
			if got := recv(t, ch).Detail; got != string(rune('a'+i)) {
				t.Fatalf("期望第 %d 条为 %c, got=%s", i, 'a'+i, got)
			}
		}
	}
}

func TestHub_取消订阅关闭通道并减少计数(t *testing.T) {
	h := NewHub(4, time.Second, nil)
	defer h.Close()
	ctx := context.Background()
	a, cancel, _ := h.Subscribe(ctx, "S1")
	_, keep, _ := h.Subscribe(ctx, "S1")
	defer keep()

	if n, err := h.Subscribers(ctx, "S1"); err != nil || n != 2 {
		t.Fatalf("期望 2 个订阅者, got=%d err=%v", n, err)
	}
	cancel()
	cancel()
	waitClosed(t, a)
	if n, _ := h.Subscribers(ctx, "S1"); n != 1 {
		t.Fatalf("期望剩 1 个订阅者, got=%d", n)
	}
}

func TestHub_慢订阅者不阻塞其他人(t *testing.T) {
	h := NewHub(1, time.Second, nil)
	defer h.Close()
	ctx := context.Background()
	_, cs, _ := h.Subscribe(ctx, "S1") // 从不读取
	defer cs()
	fast, cf, _ := h.Subscribe(ctx, "S1")
	defer cf()

	for i := 0; i < 5; i++ {
		h.Publish("S1", app.Event{Kind: app.EventActionApplied})
		recv(t, fast)
	}
}

func TestHub_关闭后通道关闭且发布静默(t *testing.T) {
	h := NewHub(4, time.Second, nil)
	a, _, _ := h.Subscribe(context.Background(), "S1")
	h.Close()
	waitClosed(t, a)

	h.Publish("S1", app.Event{})
	if _, _, err := h.Subscribe(context.Background(), "S1"); err == nil {
		t.Fatalf("期望关闭后订阅失败")
	}
}
