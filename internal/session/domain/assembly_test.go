package domain

import (
	"errors"
	"fmt"
	"testing"

	"Skirmish/internal/game/entity"
	"Skirmish/internal/game/gamedef"
)

// 两支队伍，各 2 个出生格。
const testDef = `{
  "classes": [{"name":"Warrior","health":30,"mana":2,"damage":8,"attack_range":1,"move_range":2}],
  "maps": [{
    "name": "Square",
    "cells": [{"x":0,"y":0},{"x":1,"y":0},{"x":0,"y":3},{"x":1,"y":3}],
    "teams": [{"name":"N","start_cells":[0,1]},{"name":"S","start_cells":[2,3]}]
  }]
}`

func mustDef(t *testing.T) *gamedef.Definition {
	t.Helper()
	def, err := gamedef.Parse([]byte(testDef))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return def
}

func seqTokens() TokenSource {
	n := 0
	return func() (LoginToken, error) {
		n++
		return LoginToken(fmt.Sprintf("TOKEN%05d", n)), nil
	}
}

func req(team, cell uint64) JoinRequest {
	return JoinRequest{
		Name:  fmt.Sprintf("c%d", cell),
		Class: entity.FromRaw[gamedef.Class](0),
		Team:  entity.FromRaw[gamedef.Team](team),
		Cell:  entity.FromRaw[gamedef.Cell](cell),
	}
}

func newTestAssembly(t *testing.T, teamSize int) *Assembly {
	t.Helper()
	a, err := NewAssembly(mustDef(t), entity.FromRaw[gamedef.GameMap](0), teamSize, seqTokens())
	if err != nil {
		t.Fatalf("new assembly: %v", err)
	}
	return a
}

func TestAssembly_只有第N次成功加入后才可Build(t *testing.T) {
	a := newTestAssembly(t, 2)
	if a.Capacity() != 4 {
		t.Fatalf("期望容量 2x2=4, got=%d", a.Capacity())
	}
	joins := []JoinRequest{req(0, 0), req(1, 2), req(0, 1), req(1, 3)}
	for i, r := range joins {
		if a.CanBuild() {
			t.Fatalf("第 %d 次加入前不应可 Build", i)
		}
		if _, _, err := a.Add(r); err != nil {
			t.Fatalf("第 %d 次加入失败: %v", i, err)
		}
	}
	if !a.CanBuild() {
		t.Fatalf("期望第 4 次加入后可 Build")
	}
	roster := a.Build()
	if roster.Len() != 4 {
		t.Fatalf("期望名册 4 人, got=%d", roster.Len())
	}
	if a.CanBuild() {
		t.Fatalf("期望 Build 之后 CanBuild 为 false")
	}
	if _, _, err := a.Add(req(0, 0)); !errors.Is(err, ErrAssemblyFull) {
		t.Fatalf("期望 Build 之后 Add 失败, got=%v", err)
	}
}

func TestAssembly_失败的加入不占名额(t *testing.T) {
	a := newTestAssembly(t, 1)
	if _, _, err := a.Add(req(0, 0)); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, _, err := a.Add(req(0, 1)); !errors.Is(err, ErrTeamFull) {
		t.Fatalf("期望队伍已满, got=%v", err)
	}
	if a.CanBuild() || a.Len() != 1 {
		t.Fatalf("期望失败的加入不计数, len=%d", a.Len())
	}
	if _, _, err := a.Add(req(1, 2)); err != nil {
		t.Fatalf("add: %v", err)
	}
	if !a.CanBuild() {
		t.Fatalf("期望两队各一人后可 Build")
	}
	if _, _, err := a.Add(req(1, 3)); !errors.Is(err, ErrAssemblyFull) {
		t.Fatalf("期望人数已满, got=%v", err)
	}
}

func TestAssembly_引用与占用错误(t *testing.T) {
	a := newTestAssembly(t, 2)
	bad := req(0, 0)
	bad.Class = entity.FromRaw[gamedef.Class](9)
	if _, _, err := a.Add(bad); !errors.Is(err, ErrInvalidClass) {
		t.Fatalf("期望职业不存在, got=%v", err)
	}
	if _, _, err := a.Add(req(5, 0)); !errors.Is(err, ErrInvalidTeam) {
		t.Fatalf("期望队伍不存在, got=%v", err)
	}
	// 格子 2 属于 S 队
	if _, _, err := a.Add(req(0, 2)); !errors.Is(err, ErrInvalidCell) {
		t.Fatalf("期望出生格不属于所选队伍, got=%v", err)
	}
	if _, _, err := a.Add(req(0, 0)); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, _, err := a.Add(req(0, 0)); !errors.Is(err, ErrCellOccupied) {
		t.Fatalf("期望出生格已被占用, got=%v", err)
	}
}

func TestAssembly_角色继承职业属性且令牌独立(t *testing.T) {
	a := newTestAssembly(t, 1)
	tok1, id1, _ := a.Add(req(0, 0))
	tok2, id2, _ := a.Add(req(1, 2))
	if tok1 == tok2 || id1 == id2 {
		t.Fatalf("期望令牌与 id 各不相同")
	}
	if got, ok := a.Lookup(tok2); !ok || got != id2 {
		t.Fatalf("期望令牌映射到对应角色")
	}
	roster := a.Build()
	c, _ := roster.Characters().Get(id1)
	if c.Health != 30 || c.Mana != 2 {
		t.Fatalf("期望生命/法力取自职业, got=%+v", c)
	}
}

func TestAssembly_Undo撤回最后一次加入(t *testing.T) {
	a := newTestAssembly(t, 1)
	first, _, _ := a.Add(req(0, 0))
	last, _, _ := a.Add(req(1, 2))
	a.Build()

	if a.Undo(first) {
		t.Fatalf("期望只能撤回最后加入的令牌")
	}
	if !a.Undo(last) {
		t.Fatalf("期望撤回最后一次加入")
	}
	if a.Len() != 1 || a.CanBuild() {
		t.Fatalf("期望回到 1 人且不可 Build, len=%d", a.Len())
	}
	if _, ok := a.Lookup(last); ok {
		t.Fatalf("期望被撤回的令牌失效")
	}
	tok, _, err := a.Add(req(1, 2))
	if err != nil || !a.CanBuild() {
		t.Fatalf("期望出生格与队伍名额已释放, err=%v", err)
	}
	if tok == last {
		t.Fatalf("期望重新加入拿到新令牌")
	}
}

func TestAssembly_Build未满时panic(t *testing.T) {
	a := newTestAssembly(t, 1)
	defer func() {
		if recover() == nil {
			t.Fatalf("期望未满时 Build panic")
		}
	}()
	a.Build()
}

func TestNewAssembly_参数校验(t *testing.T) {
	def := mustDef(t)
	if _, err := NewAssembly(def, entity.FromRaw[gamedef.GameMap](3), 1, seqTokens()); !errors.Is(err, ErrInvalidMap) {
		t.Fatalf("期望地图不存在, got=%v", err)
	}
	if _, err := NewAssembly(def, entity.FromRaw[gamedef.GameMap](0), 0, seqTokens()); !errors.Is(err, ErrInvalidTeamSize) {
		t.Fatalf("期望人数 0 非法, got=%v", err)
	}
	if _, err := NewAssembly(def, entity.FromRaw[gamedef.GameMap](0), 3, seqTokens()); !errors.Is(err, ErrInvalidTeamSize) {
		t.Fatalf("期望人数超过出生格数非法, got=%v", err)
	}
}
