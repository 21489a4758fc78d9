package rules

import (
	"Skirmish/internal/game/entity"
	"Skirmish/internal/game/gamedef"
)

// Character 是对局中的一名角色，生命/法力初值取自职业。
type Character struct {
	Name   string                   `json:"name"`
	Class  entity.ID[gamedef.Class] `json:"class_id"`
	Team   entity.ID[gamedef.Team]  `json:"team_id"`
	Cell   entity.ID[gamedef.Cell]  `json:"cell_id"`
	Health int                      `json:"health"`
	Mana   int                      `json:"mana"`
}

func (c Character) Alive() bool {
	return c.Health > 0
}

type ActionKind string

const (
	ActionMove   ActionKind = "move"
	ActionAttack ActionKind = "attack"
	ActionPass   ActionKind = "pass"
)

// Action 是玩家提交的动作，会话层原样转交引擎，不做解释。
type Action struct {
	Kind   ActionKind               `json:"kind"`
	Cell   *entity.ID[gamedef.Cell] `json:"cell,omitempty"`
	Target *entity.ID[Character]    `json:"target,omitempty"`
}

func Move(cell entity.ID[gamedef.Cell]) Action {
	return Action{Kind: ActionMove, Cell: &cell}
}

func Attack(target entity.ID[Character]) Action {
	return Action{Kind: ActionAttack, Target: &target}
}

func Pass() Action {
	return Action{Kind: ActionPass}
}

// Snapshot 是对局的只读快照，客户端渲染与轮询都用它。
type Snapshot struct {
	Map        entity.ID[gamedef.GameMap] `json:"map_id"`
	Turn       int                        `json:"turn"`
	TurnHolder entity.ID[Character]       `json:"turn_holder"`
	Characters *entity.Arena[Character]   `json:"characters"`
	Winner     *entity.ID[gamedef.Team]   `json:"winner,omitempty"`
	Finished   bool                       `json:"finished"`
	LastAction string                     `json:"last_action,omitempty"`
}

// Character 按 id 取快照中的角色。
func (s Snapshot) Character(id entity.ID[Character]) (Character, bool) {
	return s.Characters.Get(id)
}

// Occupant 返回站在 cell 上的存活角色。
func (s Snapshot) Occupant(cell entity.ID[gamedef.Cell]) (entity.ID[Character], bool) {
	var (
		found entity.ID[Character]
		ok    bool
	)
	s.Characters.Each(func(id entity.ID[Character], c *Character) {
		if !ok && c.Alive() && c.Cell == cell {
			found, ok = id, true
		}
	})
	return found, ok
}
