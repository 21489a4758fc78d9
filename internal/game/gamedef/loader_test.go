package gamedef

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"Skirmish/internal/game/entity"
)

const tinyDef = `{
  "classes": [{"name":"Warrior","health":30,"damage":8,"attack_range":1,"move_range":2}],
  "maps": [{
    "name": "Tiny",
    "cells": [{"x":0,"y":0},{"x":1,"y":0},{"x":2,"y":0}],
    "teams": [{"name":"A","start_cells":[0]},{"name":"B","start_cells":[2]}]
  }]
}`

func TestLoad_仓库自带定义可加载(t *testing.T) {
	def, err := Load(filepath.Join("..", "..", "..", "configs", "game", "definition.json"))
	if err != nil {
		t.Fatalf("期望加载成功, err=%v", err)
	}
	if def.ClassCount() == 0 || def.MapCount() == 0 {
		t.Fatalf("期望职业与地图非空, classes=%d maps=%d", def.ClassCount(), def.MapCount())
	}
	m, ok := def.Map(entity.FromRaw[GameMap](0))
	if !ok || m.TeamCount() < 2 {
		t.Fatalf("期望第一张地图至少两支队伍, got=%+v ok=%v", m, ok)
	}
}

func TestLoad_支持YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "def.yaml")
	body := "classes:\n  - name: Archer\n    health: 20\n    damage: 6\n    attack_range: 3\n    move_range: 2\n" +
		"maps:\n  - name: Line\n    cells:\n      - {x: 0, y: 0}\n      - {x: 1, y: 0}\n" +
		"    teams:\n      - name: L\n        start_cells: [0]\n      - name: R\n        start_cells: [1]\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	def, err := Load(path)
	if err != nil {
		t.Fatalf("期望 YAML 加载成功, err=%v", err)
	}
	c, ok := def.Class(entity.FromRaw[Class](0))
	if !ok || c.AttackRange != 3 {
		t.Fatalf("期望 attack_range=3, got=%+v", c)
	}
}

func TestParse_非法定义被拒绝(t *testing.T) {
	cases := map[string]string{
		"无职业":    `{"classes":[],"maps":[{"name":"m","cells":[{"x":0,"y":0}],"teams":[{"name":"a","start_cells":[0]}]}]}`,
		"无地图":    `{"classes":[{"name":"w","health":1}],"maps":[]}`,
		"生命非正":   `{"classes":[{"name":"w","health":0}],"maps":[{"name":"m","cells":[{"x":0,"y":0}],"teams":[{"name":"a","start_cells":[0]}]}]}`,
		"队伍无出生格": `{"classes":[{"name":"w","health":1}],"maps":[{"name":"m","cells":[{"x":0,"y":0}],"teams":[{"name":"a","start_cells":[]}]}]}`,
		"出生格不存在": `{"classes":[{"name":"w","health":1}],"maps":[{"name":"m","cells":[{"x":0,"y":0}],"teams":[{"name":"a","start_cells":[5]}]}]}`,
		"出生格被共用": `{"classes":[{"name":"w","health":1}],"maps":[{"name":"m","cells":[{"x":0,"y":0}],"teams":[{"name":"a","start_cells":[0]},{"name":"b","start_cells":[0]}]}]}`,
		"地图无队伍":  `{"classes":[{"name":"w","health":1}],"maps":[{"name":"m","cells":[{"x":0,"y":0}],"teams":[]}]}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(raw))
			if !errors.Is(err, ErrInvalidDefinition) {
				t.Fatalf("期望 ErrInvalidDefinition, got=%v", err)
			}
		})
	}
}

func TestMarshalJSON_可被Decode还原(t *testing.T) {
	def, err := Parse([]byte(tinyDef))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	data, err := json.Marshal(def)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	back, err := Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	m, _ := back.Map(entity.FromRaw[GameMap](0))
	team, ok := m.Team(entity.FromRaw[Team](1))
	if !ok || team.Name() != "B" {
		t.Fatalf("期望队伍 B, got=%+v ok=%v", team, ok)
	}
	if cell, ok := team.StartCellAt(0); !ok || cell.Raw() != 2 {
		t.Fatalf("期望 B 的出生格为 2, got=%v ok=%v", cell, ok)
	}
}

func TestTeam_StartCells返回拷贝(t *testing.T) {
	def, _ := Parse([]byte(tinyDef))
	m, _ := def.Map(entity.FromRaw[GameMap](0))
	team, _ := m.Team(entity.FromRaw[Team](0))

	cells := team.StartCells()
	cells[0] = entity.FromRaw[Cell](99)
	if again, _ := m.Team(entity.FromRaw[Team](0)); !again.HasStartCell(entity.FromRaw[Cell](0)) {
		t.Fatalf("期望修改返回值不影响定义本身")
	}
}

func TestCell_Distance曼哈顿距离(t *testing.T) {
	if d := (Cell{X: 0, Y: 0}).Distance(Cell{X: 2, Y: -3}); d != 5 {
		t.Fatalf("期望距离 5, got=%d", d)
	}
}
