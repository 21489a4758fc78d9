package flow

import (
	"Skirmish/internal/game/entity"
	"Skirmish/internal/game/gamedef"
	"Skirmish/internal/game/rules"
)

// State 是封闭的界面状态集合。所有状态都是值类型，转移返回新值。
type State interface {
	isState()
}

type Mode int

const (
	ModeCreate Mode = iota
	ModeJoin
)

type CreateOrJoin struct {
	Mode   Mode
	Buffer string
	Notice string
}

// SelectMap 只保存游标，可选数量每次转移时从定义里现读。
type SelectMap struct {
	Cursor int
	Notice string
}

type Step int

const (
	StepTeam Step = iota
	StepClass
	StepPosition
	StepName
)

func (s Step) String() string {
	switch s {
	case StepTeam:
		return "team"
	case StepClass:
		return "class"
	case StepPosition:
		return "position"
	default:
		return "name"
	}
}

type AssembleCharacter struct {
	Step        Step
	TeamIdx     int
	ClassIdx    int
	PositionIdx int
	Name        string
	SessionID   string
	MapID       entity.ID[gamedef.GameMap]
	Notice      string
}

type AwaitingStart struct {
	SessionID   string
	Token       string
	CharacterID entity.ID[rules.Character]
	MapID       entity.ID[gamedef.GameMap]
	Notice      string
}

type PlayMode int

const (
	PlayMove PlayMode = iota
	PlayAttack
)

// Playing 的 Snapshot 可能暂时为空（重新加入时等观察者推来第一帧）。
// 只凭会话 id 进入已开始的对局时 Spectator 为 true：没有令牌，也不对应任何角色。
type Playing struct {
	SessionID   string
	Token       string
	CharacterID entity.ID[rules.Character]
	Spectator   bool
	Snapshot    *rules.Snapshot
	Mode        PlayMode
	TargetIdx   int
	Notice      string
}

type Exit struct{}

func (CreateOrJoin) isState()      {}
func (SelectMap) isState()         {}
func (AssembleCharacter) isState() {}
func (AwaitingStart) isState()     {}
func (Playing) isState()           {}
func (Exit) isState()              {}

// OurTurn 快照就绪、对局未结束且回合在自己手里。观战者永远为 false。
func (p Playing) OurTurn() bool {
	return !p.Spectator && p.Snapshot != nil && !p.Snapshot.Finished && p.Snapshot.TurnHolder == p.CharacterID
}
