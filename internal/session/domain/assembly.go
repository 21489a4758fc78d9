package domain

import (
	"Skirmish/internal/game/entity"
	"Skirmish/internal/game/gamedef"
	"Skirmish/internal/game/rules"
)

// LoginToken 是行动凭证：与角色一一对应，独立随机生成，不可由角色 id 推导。
type LoginToken string

// TokenSource 生成新的登录令牌，由会话注册表保证进程内唯一。
type TokenSource func() (LoginToken, error)

// JoinRequest 是加入会话时选择的角色配置。
type JoinRequest struct {
	Name  string
	Class entity.ID[gamedef.Class]
	Team  entity.ID[gamedef.Team]
	Cell  entity.ID[gamedef.Cell]
}

// Joined 是组队阶段对外可见的已加入角色（不含令牌）。
type Joined struct {
	Character entity.ID[rules.Character] `json:"character_id"`
	Name      string                     `json:"name"`
	Class     entity.ID[gamedef.Class]   `json:"class_id"`
	Team      entity.ID[gamedef.Team]    `json:"team_id"`
	Cell      entity.ID[gamedef.Cell]    `json:"cell_id"`
}

// Assembly 在对局开始前累积参与者，容量 = 每队人数 × 队伍数。
// 不加锁：调用方（注册表）在同一把写锁内完成 Add 与 CanBuild 检查。
type Assembly struct {
	def      *gamedef.Definition
	mapID    entity.ID[gamedef.GameMap]
	gameMap  gamedef.GameMap
	teamSize int
	capacity int
	tokens   TokenSource

	characters *entity.Arena[rules.Character]
	logins     map[LoginToken]entity.ID[rules.Character]
	occupied   map[entity.ID[gamedef.Cell]]bool
	perTeam    map[entity.ID[gamedef.Team]]int
	built      bool
}

// NewAssembly 校验地图与队伍人数；人数必须 ≥1 且不超过任何一支队伍的出生格数。
func NewAssembly(def *gamedef.Definition, mapID entity.ID[gamedef.GameMap], teamSize int, tokens TokenSource) (*Assembly, error) {
	gm, ok := def.Map(mapID)
	if !ok {
		return nil, ErrInvalidMap.WithData("map_id", mapID.Raw())
	}
	if teamSize < 1 {
		return nil, ErrInvalidTeamSize.WithData("team_size", teamSize)
	}
	for _, tid := range gm.TeamIDs() {
		team, _ := gm.Team(tid)
		if teamSize > team.StartCellCount() {
			return nil, ErrInvalidTeamSize.WithData("team_size", teamSize).WithData("team", team.Name())
		}
	}
	capacity := teamSize * gm.TeamCount()
	return &Assembly{
		def:        def,
		mapID:      mapID,
		gameMap:    gm,
		teamSize:   teamSize,
		capacity:   capacity,
		tokens:     tokens,
		characters: entity.NewArena[rules.Character](capacity),
		logins:     make(map[LoginToken]entity.ID[rules.Character], capacity),
		occupied:   make(map[entity.ID[gamedef.Cell]]bool, capacity),
		perTeam:    make(map[entity.ID[gamedef.Team]]int, gm.TeamCount()),
	}, nil
}

// Add 加入一名角色，成功时返回新令牌与角色 id。
func (a *Assembly) Add(req JoinRequest) (LoginToken, entity.ID[rules.Character], error) {
	var zero entity.ID[rules.Character]
	if a.built || a.characters.Len() >= a.capacity {
		return "", zero, ErrAssemblyFull.WithData("capacity", a.capacity)
	}
	class, ok := a.def.Class(req.Class)
	if !ok {
		return "", zero, ErrInvalidClass.WithData("class_id", req.Class.Raw())
	}
	team, ok := a.gameMap.Team(req.Team)
	if !ok {
		return "", zero, ErrInvalidTeam.WithData("team_id", req.Team.Raw())
	}
	if !team.HasStartCell(req.Cell) {
		return "", zero, ErrInvalidCell.WithData("cell_id", req.Cell.Raw()).WithData("team_id", req.Team.Raw())
	}
	if a.perTeam[req.Team] >= a.teamSize {
		return "", zero, ErrTeamFull.WithData("team_id", req.Team.Raw())
	}
	if a.occupied[req.Cell] {
		return "", zero, ErrCellOccupied.WithData("cell_id", req.Cell.Raw())
	}

	token, err := a.tokens()
	if err != nil {
		return "", zero, err
	}
	id := a.characters.Allocate(rules.Character{
		Name:   req.Name,
		Class:  req.Class,
		Team:   req.Team,
		Cell:   req.Cell,
		Health: class.Health,
		Mana:   class.Mana,
	})
	a.logins[token] = id
	a.occupied[req.Cell] = true
	a.perTeam[req.Team]++
	return token, id, nil
}

// CanBuild 只有填满最后一个名额的那次 Add 之后才为 true。
func (a *Assembly) CanBuild() bool {
	return !a.built && a.characters.Len() == a.capacity
}

// Build 消费 assembly 生成不可变名册；未满或重复调用属于编程错误。
func (a *Assembly) Build() Roster {
	if a.built {
		panic("domain: assembly already built")
	}
	if a.characters.Len() != a.capacity {
		panic("domain: assembly built before full")
	}
	a.built = true
	logins := make(map[LoginToken]entity.ID[rules.Character], len(a.logins))
	for k, v := range a.logins {
		logins[k] = v
	}
	return Roster{mapID: a.mapID, characters: a.characters.Clone(), logins: logins}
}

// Undo 撤回最近一次 Add，连同 Build 标记一起；开局失败时由注册表回滚用。
// 只认最后加入的令牌，其他令牌返回 false。
func (a *Assembly) Undo(token LoginToken) bool {
	id, ok := a.logins[token]
	if !ok || id.Raw() != uint64(a.characters.Len()-1) {
		return false
	}
	c, _ := a.characters.Get(id)
	a.characters.Truncate(a.characters.Len() - 1)
	delete(a.logins, token)
	delete(a.occupied, c.Cell)
	a.perTeam[c.Team]--
	a.built = false
	return true
}

func (a *Assembly) MapID() entity.ID[gamedef.GameMap] {
	return a.mapID
}

func (a *Assembly) TeamSize() int {
	return a.teamSize
}

func (a *Assembly) Capacity() int {
	return a.capacity
}

func (a *Assembly) Len() int {
	return a.characters.Len()
}

// Lookup 组队阶段也允许用令牌找回角色（断线重连）。
func (a *Assembly) Lookup(token LoginToken) (entity.ID[rules.Character], bool) {
	id, ok := a.logins[token]
	return id, ok
}

func (a *Assembly) Joined() []Joined {
	out := make([]Joined, 0, a.characters.Len())
	a.characters.Each(func(id entity.ID[rules.Character], c *rules.Character) {
		out = append(out, Joined{Character: id, Name: c.Name, Class: c.Class, Team: c.Team, Cell: c.Cell})
	})
	return out
}

// Roster 是组队完成后的不可变名册。
type Roster struct {
	mapID      entity.ID[gamedef.GameMap]
	characters *entity.Arena[rules.Character]
	logins     map[LoginToken]entity.ID[rules.Character]
}

func (r Roster) MapID() entity.ID[gamedef.GameMap] {
	return r.mapID
}

// Characters 返回拷贝。
func (r Roster) Characters() *entity.Arena[rules.Character] {
	return r.characters.Clone()
}

func (r Roster) Lookup(token LoginToken) (entity.ID[rules.Character], bool) {
	id, ok := r.logins[token]
	return id, ok
}

func (r Roster) Len() int {
	return r.characters.Len()
}
