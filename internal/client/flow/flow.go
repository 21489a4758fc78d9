package flow

import (
	"context"
	"strings"
	"unicode/utf8"

	"Skirmish/internal/game/entity"
	"Skirmish/internal/game/gamedef"
	"Skirmish/internal/game/rules"
	"Skirmish/internal/session/dto"
	"Skirmish/internal/shared/utils"
)

const (
	// IDLength 会话 id 与登录令牌的长度。
	IDLength = 10
	// rejoinLength = "{会话 id}/{令牌}"。
	rejoinLength = IDLength*2 + 1
	maxNameLen   = 32
)

// Transport 是状态机对服务端的全部依赖。调用同步完成，失败只体现在 Notice 上。
type Transport interface {
	CreateSession(ctx context.Context, mapID entity.ID[gamedef.GameMap], teamSize int) (dto.CreateSessionResp, error)
	DescribeSession(ctx context.Context, sessionID string) (dto.DescribeResp, error)
	JoinSession(ctx context.Context, sessionID string, req dto.JoinReq) (dto.JoinResp, error)
	Rejoin(ctx context.Context, sessionID, token string) (dto.RejoinResp, error)
	SubmitAction(ctx context.Context, sessionID, token string, action rules.Action) error
}

// Flow 是确定性的 (state, event) -> state 函数；每次转移至多发起一次请求。
type Flow struct {
	def      *gamedef.Definition
	api      Transport
	teamSize int
}

func New(def *gamedef.Definition, api Transport, teamSize int) *Flow {
	if teamSize < 1 {
		teamSize = 1
	}
	return &Flow{def: def, api: api, teamSize: teamSize}
}

func Initial() State {
	return CreateOrJoin{Mode: ModeCreate}
}

func (f *Flow) Definition() *gamedef.Definition {
	return f.def
}

func (f *Flow) Next(ctx context.Context, s State, ev Event) State {
	switch ev.Kind {
	case EventExit:
		return Exit{}
	case EventTimeout, EventOther:
		return s
	}

	switch st := s.(type) {
	case CreateOrJoin:
		return f.createOrJoin(ctx, st, ev)
	case SelectMap:
		return f.selectMap(ctx, st, ev)
	case AssembleCharacter:
		return f.assemble(ctx, st, ev)
	case AwaitingStart:
		return f.awaiting(st, ev)
	case Playing:
		return f.playing(ctx, st, ev)
	default:
		return s
	}
}

func (f *Flow) createOrJoin(ctx context.Context, s CreateOrJoin, ev Event) State {
	switch ev.Kind {
	case EventLeft, EventRight, EventUp, EventDown:
		if s.Mode == ModeCreate {
			s.Mode = ModeJoin
		} else {
			s.Mode = ModeCreate
		}
		s.Notice = ""
		return s
	case EventCancel:
		if s.Mode == ModeJoin {
			s.Mode = ModeCreate
		}
		return s
	case EventText:
		if s.Mode == ModeJoin {
			s.Buffer += strings.TrimSpace(ev.Text)
		}
		return s
	case EventBackspace:
		if s.Mode == ModeJoin {
			s.Buffer = dropLastRune(s.Buffer)
		}
		return s
	case EventConfirm:
		if s.Mode == ModeCreate {
			return SelectMap{}
		}
		return f.join(ctx, s)
	default:
		return s
	}
}

// join 解析输入框：10 位是会话 id，21 位 "id/令牌" 是重新加入。
func (f *Flow) join(ctx context.Context, s CreateOrJoin) State {
	buf := s.Buffer
	switch {
	case len(buf) == IDLength && utils.IsAlphanumeric(buf, IDLength):
		d, err := f.api.DescribeSession(ctx, buf)
		if err != nil {
			s.Notice = err.Error()
			return s
		}
		switch d.Phase {
		case "assembling":
			return AssembleCharacter{Step: StepTeam, SessionID: buf, MapID: d.MapID}
		case "running":
			// 没有令牌只能观战，提交动作会被服务端以 UnknownLogin 拒绝
			return Playing{SessionID: buf, Spectator: true, Snapshot: d.Snapshot}
		default:
			s.Notice = "会话不存在"
		}
		return s
	case len(buf) == rejoinLength && buf[IDLength] == '/':
		sid, token := buf[:IDLength], buf[IDLength+1:]
		if !utils.IsAlphanumeric(sid, IDLength) || !utils.IsAlphanumeric(token, IDLength) {
			s.Notice = "格式应为 会话id/令牌"
			return s
		}
		m, err := f.api.Rejoin(ctx, sid, token)
		if err != nil {
			s.Notice = err.Error()
			return s
		}
		if m.Phase == "running" {
			return Playing{SessionID: sid, Token: token, CharacterID: m.CharacterID}
		}
		return AwaitingStart{SessionID: sid, Token: token, CharacterID: m.CharacterID}
	default:
		s.Notice = "请输入 10 位会话id 或 会话id/令牌"
		return s
	}
}

func (f *Flow) selectMap(ctx context.Context, s SelectMap, ev Event) State {
	n := f.def.MapCount()
	switch ev.Kind {
	case EventLeft:
		s.Cursor = wrap(s.Cursor-1, n)
	case EventRight:
		s.Cursor = wrap(s.Cursor+1, n)
	case EventCancel:
		return CreateOrJoin{Mode: ModeCreate}
	case EventConfirm:
		mapID, ok := f.def.MapAt(wrap(s.Cursor, n))
		if !ok {
			return s
		}
		created, err := f.api.CreateSession(ctx, mapID, f.teamSize)
		if err != nil {
			s.Notice = err.Error()
			return s
		}
		return AssembleCharacter{Step: StepTeam, SessionID: created.SessionID, MapID: created.MapID}
	}
	return s
}

func (f *Flow) assemble(ctx context.Context, s AssembleCharacter, ev Event) State {
	gm, ok := f.def.Map(s.MapID)
	if !ok {
		s.Notice = "地图不存在"
		return s
	}

	switch ev.Kind {
	case EventConfirm:
		if s.Step == StepName {
			return f.submitJoin(ctx, s, gm)
		}
		// 步骤严格按 队伍 -> 职业 -> 出生格 -> 名字 推进
		s.Step++
		return s
	case EventLeft, EventRight:
		delta := 1
		if ev.Kind == EventLeft {
			delta = -1
		}
		switch s.Step {
		case StepTeam:
			s.TeamIdx = wrap(s.TeamIdx+delta, gm.TeamCount())
			s.PositionIdx = 0
		case StepClass:
			s.ClassIdx = wrap(s.ClassIdx+delta, f.def.ClassCount())
		case StepPosition:
			s.PositionIdx = wrap(s.PositionIdx+delta, startCellCount(gm, s.TeamIdx))
		}
		return s
	case EventText:
		if s.Step == StepName && utf8.RuneCountInString(s.Name) < maxNameLen {
			s.Name += ev.Text
		}
		return s
	case EventBackspace:
		if s.Step == StepName {
			s.Name = dropLastRune(s.Name)
		}
		return s
	default:
		return s
	}
}

func (f *Flow) submitJoin(ctx context.Context, s AssembleCharacter, gm gamedef.GameMap) State {
	teamID, ok := gm.TeamAt(wrap(s.TeamIdx, gm.TeamCount()))
	if !ok {
		return s
	}
	team, _ := gm.Team(teamID)
	cellID, ok := team.StartCellAt(wrap(s.PositionIdx, team.StartCellCount()))
	if !ok {
		return s
	}
	classID, ok := f.def.ClassAt(wrap(s.ClassIdx, f.def.ClassCount()))
	if !ok {
		return s
	}

	joined, err := f.api.JoinSession(ctx, s.SessionID, dto.JoinReq{
		Name:    s.Name,
		ClassID: classID,
		TeamID:  teamID,
		CellID:  cellID,
	})
	if err != nil {
		s.Notice = err.Error()
		return s
	}
	if joined.Started {
		return Playing{SessionID: s.SessionID, Token: joined.LoginToken, CharacterID: joined.CharacterID}
	}
	return AwaitingStart{SessionID: s.SessionID, Token: joined.LoginToken, CharacterID: joined.CharacterID, MapID: s.MapID}
}

// awaiting 只接受退出与带外的开始信号。
func (f *Flow) awaiting(s AwaitingStart, ev Event) State {
	if ev.Kind == EventStarted {
		return Playing{SessionID: s.SessionID, Token: s.Token, CharacterID: s.CharacterID, Snapshot: ev.Snapshot}
	}
	return s
}

func (f *Flow) playing(ctx context.Context, s Playing, ev Event) State {
	switch ev.Kind {
	case EventStarted, EventSnapshot:
		if ev.Snapshot != nil {
			s.Snapshot = ev.Snapshot
		}
		return s
	case EventUp, EventDown:
		if s.Mode == PlayMove {
			s.Mode = PlayAttack
		} else {
			s.Mode = PlayMove
		}
		s.TargetIdx = 0
		return s
	case EventLeft, EventRight:
		delta := 1
		if ev.Kind == EventLeft {
			delta = -1
		}
		s.TargetIdx = wrap(s.TargetIdx+delta, f.targetCount(s))
		return s
	case EventText:
		if ev.Text == "p" {
			return f.submit(ctx, s, rules.Pass())
		}
		return s
	case EventConfirm:
		action, ok := f.selectedAction(s)
		if !ok {
			s.Notice = "没有可选目标"
			return s
		}
		return f.submit(ctx, s, action)
	default:
		return s
	}
}

func (f *Flow) submit(ctx context.Context, s Playing, action rules.Action) State {
	if s.Spectator {
		s.Notice = "观战中，输入 会话id/令牌 才能行动"
		return s
	}
	if !s.OurTurn() {
		s.Notice = "还没轮到你"
		return s
	}
	if err := f.api.SubmitAction(ctx, s.SessionID, s.Token, action); err != nil {
		s.Notice = err.Error()
		return s
	}
	s.Notice = ""
	return s
}

func (f *Flow) targetCount(s Playing) int {
	if s.Snapshot == nil {
		return 0
	}
	if s.Mode == PlayAttack {
		return len(AttackTargets(s))
	}
	gm, ok := f.def.Map(s.Snapshot.Map)
	if !ok {
		return 0
	}
	return gm.CellCount()
}

func (f *Flow) selectedAction(s Playing) (rules.Action, bool) {
	n := f.targetCount(s)
	if n == 0 {
		return rules.Action{}, false
	}
	idx := wrap(s.TargetIdx, n)
	if s.Mode == PlayAttack {
		return rules.Attack(AttackTargets(s)[idx]), true
	}
	// 地图格子的 id 与下标一致
	return rules.Move(entity.FromRaw[gamedef.Cell](uint64(idx))), true
}

// AttackTargets 按 id 升序列出存活的敌方角色。
func AttackTargets(s Playing) []entity.ID[rules.Character] {
	if s.Spectator || s.Snapshot == nil || s.Snapshot.Characters == nil {
		return nil
	}
	self, ok := s.Snapshot.Character(s.CharacterID)
	if !ok {
		return nil
	}
	var out []entity.ID[rules.Character]
	s.Snapshot.Characters.Each(func(id entity.ID[rules.Character], c *rules.Character) {
		if c.Alive() && c.Team != self.Team {
			out = append(out, id)
		}
	})
	return out
}

// ShareCode 供复制到剪贴板：组队中给会话 id，拿到令牌后给 "id/令牌"。
func ShareCode(s State) string {
	switch st := s.(type) {
	case AssembleCharacter:
		return st.SessionID
	case AwaitingStart:
		return st.SessionID + "/" + st.Token
	case Playing:
		if st.Spectator {
			return st.SessionID
		}
		return st.SessionID + "/" + st.Token
	default:
		return ""
	}
}

// SessionOf 返回需要观察的会话 id。
func SessionOf(s State) (string, bool) {
	switch st := s.(type) {
	case AwaitingStart:
		return st.SessionID, true
	case Playing:
		return st.SessionID, true
	default:
		return "", false
	}
}

func startCellCount(gm gamedef.GameMap, teamIdx int) int {
	tid, ok := gm.TeamAt(wrap(teamIdx, gm.TeamCount()))
	if !ok {
		return 0
	}
	team, _ := gm.Team(tid)
	return team.StartCellCount()
}

// wrap 取模到 [0, n)；n 为 0 时恒为 0。
func wrap(i, n int) int {
	if n <= 0 {
		return 0
	}
	return ((i % n) + n) % n
}

func dropLastRune(s string) string {
	if s == "" {
		return s
	}
	_, size := utf8.DecodeLastRuneInString(s)
	return s[:len(s)-size]
}
