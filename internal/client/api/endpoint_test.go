package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"Skirmish/internal/game/entity"
	"Skirmish/internal/game/gamedef"
	"Skirmish/internal/game/rules"
	"Skirmish/internal/session/app"
	"Skirmish/internal/session/dto"
	"Skirmish/internal/session/interfaces/handler"
	"Skirmish/internal/session/notify"
	"Skirmish/internal/shared/transport"
	"Skirmish/internal/shared/transport/ws"
)

const testDef = `{
  "classes": [{"name":"Warrior","health":30,"damage":8,"attack_range":1,"move_range":2}],
  "maps": [{
    "name": "Square",
    "cells": [{"x":0,"y":0},{"x":0,"y":3}],
    "teams": [{"name":"N","start_cells":[0]},{"name":"S","start_cells":[1]}]
  }]
}`

// newServer 起一个真实的会话服务，客户端与服务端走同一套线格式。
func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	def, err := gamedef.Parse([]byte(testDef))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	hub := notify.NewHub(4, time.Second, nil)
	t.Cleanup(hub.Close)
	r := gin.New()
	handler.NewSession(app.NewRegistry(def, app.WithNotifier(hub)), hub, ws.NewUpgrader(nil, 0), nil).RegisterRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestEndpoint_与服务端往返(t *testing.T) {
	e := NewEndpoint(newServer(t).URL+"/", time.Second)
	ctx := context.Background()

	def, err := e.LoadGame(ctx)
	if err != nil || def.MapCount() != 1 {
		t.Fatalf("期望拉到定义, err=%v", err)
	}

	created, err := e.CreateSession(ctx, entity.FromRaw[gamedef.GameMap](0), 1)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	a, err := e.JoinSession(ctx, created.SessionID, dto.JoinReq{Name: "a", TeamID: entity.FromRaw[gamedef.Team](0)})
	if err != nil || a.Started {
		t.Fatalf("join a: %+v err=%v", a, err)
	}
	b, err := e.JoinSession(ctx, created.SessionID, dto.JoinReq{Name: "b", TeamID: entity.FromRaw[gamedef.Team](1), CellID: entity.FromRaw[gamedef.Cell](1)})
	if err != nil || !b.Started {
		t.Fatalf("期望第二人开始对局: %+v err=%v", b, err)
	}

	d, err := e.DescribeSession(ctx, created.SessionID)
	if err != nil || d.Phase != "running" || d.Snapshot == nil || d.Snapshot.Characters.Len() != 2 {
		t.Fatalf("期望对局快照含 2 名角色: %+v err=%v", d, err)
	}
	m, err := e.Rejoin(ctx, created.SessionID, a.LoginToken)
	if err != nil || m.CharacterID != a.CharacterID {
		t.Fatalf("rejoin: %+v err=%v", m, err)
	}
	if err := e.SubmitAction(ctx, created.SessionID, a.LoginToken, rules.Pass()); err != nil {
		t.Fatalf("submit: %v", err)
	}
}

func TestEndpoint_业务码还原为Error(t *testing.T) {
	e := NewEndpoint(newServer(t).URL, time.Second)
	_, err := e.JoinSession(context.Background(), "NOPENOPENO", dto.JoinReq{Name: "x"})
	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.Code != transport.NoSuchSession || apiErr.Error() == "" {
		t.Fatalf("期望 NoSuchSession, got=%v", err)
	}
}

func TestEndpoint_非200视为系统错误(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewEndpoint(srv.URL, time.Second).SubmitAction(context.Background(), "S", "T", rules.Pass())
	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.Code != transport.SystemError {
		t.Fatalf("期望系统错误, got=%v", err)
	}
}
