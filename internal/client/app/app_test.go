package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"Skirmish/internal/client/flow"
	"Skirmish/internal/client/input"
	"Skirmish/internal/game/entity"
	"Skirmish/internal/game/gamedef"
	"Skirmish/internal/game/rules"
	"Skirmish/internal/session/dto"
)

const testDef = `{
  "classes": [{"name":"Warrior","health":30,"damage":8,"attack_range":1,"move_range":2}],
  "maps": [{
    "name": "Tiny",
    "cells": [{"x":0,"y":0},{"x":1,"y":0}],
    "teams": [{"name":"A","start_cells":[0]},{"name":"B","start_cells":[1]}]
  }]
}`

type stubAPI struct{}

func (stubAPI) CreateSession(context.Context, entity.ID[gamedef.GameMap], int) (dto.CreateSessionResp, error) {
	return dto.CreateSessionResp{}, errors.New("unused")
}

func (stubAPI) DescribeSession(context.Context, string) (dto.DescribeResp, error) {
	return dto.DescribeResp{}, errors.New("unused")
}

func (stubAPI) JoinSession(context.Context, string, dto.JoinReq) (dto.JoinResp, error) {
	return dto.JoinResp{}, errors.New("unused")
}

func (stubAPI) Rejoin(context.Context, string, string) (dto.RejoinResp, error) {
	return dto.RejoinResp{CharacterID: entity.FromRaw[rules.Character](1), Phase: "assembling"}, nil
}

func (stubAPI) SubmitAction(context.Context, string, string, rules.Action) error {
	return nil
}

// step 在返回输入之前可以先做点事，用来模拟帧间到达的带外事件。
type step struct {
	res    input.Result
	before func()
}

type scriptSource struct {
	steps []step
}

func (s *scriptSource) Next(ctx context.Context) input.Result {
	if len(s.steps) == 0 || ctx.Err() != nil {
		return input.Result{Kind: input.KindFlow, Event: flow.Key(flow.EventExit)}
	}
	st := s.steps[0]
	s.steps = s.steps[1:]
	if st.before != nil {
		st.before()
	}
	return st.res
}

type fakeObserver struct {
	events  chan flow.Event
	watched []string
}

func (o *fakeObserver) Events() <-chan flow.Event { return o.events }
func (o *fakeObserver) Watch(id string)           { o.watched = append(o.watched, id) }

type recorder struct {
	states []flow.State
}

func (r *recorder) Draw(s flow.State) { r.states = append(r.states, s) }

type memClipboard struct {
	text    string
	readErr error
}

func (c *memClipboard) ReadAll() (string, error) { return c.text, c.readErr }
func (c *memClipboard) WriteAll(text string) error {
	c.text = text
	return nil
}

func key(k flow.EventKind) step {
	return step{res: input.Result{Kind: input.KindFlow, Event: flow.Key(k)}}
}

func newApp(t *testing.T, src Source, clip Clipboard) (*App, *fakeObserver, *recorder) {
	t.Helper()
	def, err := gamedef.Parse([]byte(testDef))
	if err != nil {
		t.Fatalf("parse def: %v", err)
	}
	obs := &fakeObserver{events: make(chan flow.Event, 4)}
	rec := &recorder{}
	return New(flow.New(def, stubAPI{}, 1), src, obs, rec, clip, nil), obs, rec
}

func TestRun_粘贴进入输入框(t *testing.T) {
	clip := &memClipboard{text: " ABCDEFGHIJ \n"}
	src := &scriptSource{steps: []step{
		key(flow.EventRight),
		{res: input.Result{Kind: input.KindPaste}},
	}}
	a, _, rec := newApp(t, src, clip)

	final := a.Run(context.Background())
	if _, ok := final.(flow.Exit); !ok {
		t.Fatalf("期望最终状态为 Exit, got=%T", final)
	}
	st, ok := rec.states[len(rec.states)-2].(flow.CreateOrJoin)
	if !ok || st.Buffer != "ABCDEFGHIJ" {
		t.Fatalf("期望粘贴后输入框为 ABCDEFGHIJ, got=%+v", rec.states[len(rec.states)-2])
	}
}

func TestRun_剪贴板不可用时粘贴无效(t *testing.T) {
	clip := &memClipboard{readErr: errors.New("no xclip")}
	src := &scriptSource{steps: []step{
		key(flow.EventRight),
		{res: input.Result{Kind: input.KindPaste}},
	}}
	a, _, rec := newApp(t, src, clip)
	a.Run(context.Background())

	st := rec.states[len(rec.states)-2].(flow.CreateOrJoin)
	if st.Buffer != "" {
		t.Fatalf("期望输入框保持为空, got=%q", st.Buffer)
	}
}

func TestRun_重连后观察会话并接收开始信号(t *testing.T) {
	clip := &memClipboard{text: "ABCDEFGHIJ/KLMNOPQRST"}
	var obs *fakeObserver
	src := &scriptSource{}
	a, o, rec := newApp(t, src, clip)
	obs = o
	src.steps = []step{
		key(flow.EventRight),
		{res: input.Result{Kind: input.KindPaste}},
		key(flow.EventConfirm),
		{res: input.Result{Kind: input.KindCopy}, before: func() { clip.text = "" }},
		{res: input.Result{Kind: input.KindFlow, Event: flow.Key(flow.EventTimeout)}, before: func() {
			obs.events <- flow.Started(&rules.Snapshot{Turn: 1})
		}},
		key(flow.EventTimeout),
	}

	a.Run(context.Background())

	if clip.text != "ABCDEFGHIJ/KLMNOPQRST" {
		t.Fatalf("期望复制出重连码, got=%q", clip.text)
	}
	var sawAwaiting, sawPlaying bool
	for _, s := range rec.states {
		switch st := s.(type) {
		case flow.AwaitingStart:
			sawAwaiting = true
		case flow.Playing:
			sawPlaying = st.Snapshot != nil && st.Snapshot.Turn == 1
		}
	}
	if !sawAwaiting || !sawPlaying {
		t.Fatalf("期望经历 AwaitingStart 与 Playing, awaiting=%v playing=%v", sawAwaiting, sawPlaying)
	}
	if len(obs.watched) == 0 || obs.watched[len(obs.watched)-1] != "" {
		t.Fatalf("期望退出时停止观察, got=%v", obs.watched)
	}
	found := false
	for _, id := range obs.watched {
		if id == "ABCDEFGHIJ" {
			found = true
		}
	}
	if !found {
		t.Fatalf("期望观察过会话 ABCDEFGHIJ, got=%v", obs.watched)
	}
}

func TestRun_取消上下文退出(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	src := &scriptSource{}
	a, _, rec := newApp(t, src, nil)
	if _, ok := a.Run(ctx).(flow.Exit); !ok {
		t.Fatalf("期望直接退出")
	}
	if len(rec.states) != 2 {
		t.Fatalf("期望画两帧（初始与退出）, got=%d", len(rec.states))
	}
}

// silentSource 在关闭前从不产生输入。
type silentSource struct {
	closed chan struct{}
}

func (s silentSource) PollEvent() tcell.Event {
	<-s.closed
	return nil
}

func TestSource_无输入超时后状态不变(t *testing.T) {
	raw := silentSource{closed: make(chan struct{})}
	defer close(raw.closed)
	src := input.NewSource(raw, 20*time.Millisecond)

	def, err := gamedef.Parse([]byte(testDef))
	if err != nil {
		t.Fatalf("parse def: %v", err)
	}
	f := flow.New(def, stubAPI{}, 1)
	start := flow.CreateOrJoin{Mode: flow.ModeJoin, Buffer: "ABC", Notice: "x"}

	res := src.Next(context.Background())
	if res.Kind != input.KindFlow || res.Event.Kind != flow.EventTimeout {
		t.Fatalf("期望恰好一个 Timeout, got=%+v", res)
	}
	next := f.Next(context.Background(), start, res.Event)
	if got, ok := next.(flow.CreateOrJoin); !ok || got != start {
		t.Fatalf("期望状态原样返回, got=%+v", next)
	}
}
