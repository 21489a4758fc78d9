package domain

import (
	"Skirmish/internal/game/entity"
	"Skirmish/internal/game/rules"
)

// Engine 是规则引擎端口：会话层只关心回合持有者与动作结果。
type Engine interface {
	CurrentTurnHolder() entity.ID[rules.Character]
	ApplyAction(actor entity.ID[rules.Character], action rules.Action) error
	Snapshot() rules.Snapshot
}

// EngineFactory 用名册构造引擎。
type EngineFactory func(roster Roster) (Engine, error)

// Match 是回合权限闸门：只有当前回合持有者的动作才会交给引擎。
// 不做内部加锁，原子性由注册表的写锁保证。
type Match struct {
	roster Roster
	engine Engine
}

func NewMatch(roster Roster, engine Engine) *Match {
	return &Match{roster: roster, engine: engine}
}

func (m *Match) Roster() Roster {
	return m.roster
}

func (m *Match) TurnHolder() entity.ID[rules.Character] {
	return m.engine.CurrentTurnHolder()
}

// Authorize 角色 id 必须等于当前回合持有者。
func (m *Match) Authorize(c entity.ID[rules.Character]) error {
	holder := m.engine.CurrentTurnHolder()
	if c != holder {
		return ErrNotYourTurn.WithData("character", c.Raw()).WithData("turn_holder", holder.Raw())
	}
	return nil
}

// Submit 先鉴权再交给引擎；引擎的拒绝原因保留在 cause 链中。
func (m *Match) Submit(c entity.ID[rules.Character], action rules.Action) error {
	if err := m.Authorize(c); err != nil {
		return err
	}
	if err := m.engine.ApplyAction(c, action); err != nil {
		return ErrRejected.WithData("character", c.Raw()).WithCause(err)
	}
	return nil
}

func (m *Match) Snapshot() rules.Snapshot {
	return m.engine.Snapshot()
}
