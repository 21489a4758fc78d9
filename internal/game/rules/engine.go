package rules

import (
	"fmt"

	"Skirmish/internal/game/entity"
	"Skirmish/internal/game/gamedef"
)

// Engine 是最小可玩的回合制规则：
// 存活角色按 id 升序轮流行动，每个被接受的动作结束当前回合；
// 只剩一支队伍有存活角色时对局结束。
// Engine 自身不加锁，由会话层的互斥保证串行调用。
type Engine struct {
	def        *gamedef.Definition
	mapID      entity.ID[gamedef.GameMap]
	gameMap    gamedef.GameMap
	characters *entity.Arena[Character]
	holder     entity.ID[Character]
	turn       int
	winner     *entity.ID[gamedef.Team]
	lastAction string
}

func NewEngine(def *gamedef.Definition, mapID entity.ID[gamedef.GameMap], characters *entity.Arena[Character]) (*Engine, error) {
	gm, ok := def.Map(mapID)
	if !ok {
		return nil, fmt.Errorf("rules: unknown map %s", mapID)
	}
	if characters.Len() == 0 {
		return nil, fmt.Errorf("rules: empty roster")
	}
	e := &Engine{
		def:        def,
		mapID:      mapID,
		gameMap:    gm,
		characters: characters.Clone(),
		turn:       1,
	}
	first, ok := e.nextAlive(-1)
	if !ok {
		return nil, fmt.Errorf("rules: no living character")
	}
	e.holder = first
	e.checkWinner()
	return e, nil
}

func (e *Engine) CurrentTurnHolder() entity.ID[Character] {
	return e.holder
}

// ApplyAction 校验并执行动作；调用方已确认 actor 是当前回合持有者。
func (e *Engine) ApplyAction(actor entity.ID[Character], action Action) error {
	if e.winner != nil {
		return ErrMatchFinished
	}
	self, ok := e.characters.GetMut(actor)
	if !ok {
		return ErrUnknownActor.WithData("character", actor.Raw())
	}
	if !self.Alive() {
		return ErrActorDead.WithData("character", actor.Raw())
	}

	switch action.Kind {
	case ActionMove:
		if err := e.move(self, action); err != nil {
			return err
		}
	case ActionAttack:
		if err := e.attack(self, action); err != nil {
			return err
		}
	case ActionPass:
		e.lastAction = fmt.Sprintf("%s passes", self.Name)
	default:
		return ErrUnknownAction.WithData("kind", string(action.Kind))
	}

	e.checkWinner()
	if e.winner == nil {
		e.advance()
	}
	return nil
}

func (e *Engine) move(self *Character, action Action) error {
	if action.Cell == nil {
		return ErrBadCell
	}
	to, ok := e.gameMap.Cell(*action.Cell)
	if !ok {
		return ErrBadCell.WithData("cell", action.Cell.Raw())
	}
	if _, taken := e.occupant(*action.Cell); taken {
		return ErrCellOccupied.WithData("cell", action.Cell.Raw())
	}
	from, _ := e.gameMap.Cell(self.Cell)
	class, _ := e.def.Class(self.Class)
	if from.Distance(to) > class.MoveRange {
		return ErrOutOfRange.WithData("distance", from.Distance(to)).WithData("move_range", class.MoveRange)
	}
	self.Cell = *action.Cell
	e.lastAction = fmt.Sprintf("%s moves to (%d,%d)", self.Name, to.X, to.Y)
	return nil
}

func (e *Engine) attack(self *Character, action Action) error {
	if action.Target == nil {
		return ErrInvalidTarget
	}
	target, ok := e.characters.GetMut(*action.Target)
	if !ok || !target.Alive() || target.Team == self.Team {
		return ErrInvalidTarget.WithData("target", action.Target.Raw())
	}
	from, _ := e.gameMap.Cell(self.Cell)
	to, _ := e.gameMap.Cell(target.Cell)
	class, _ := e.def.Class(self.Class)
	if from.Distance(to) > class.AttackRange {
		return ErrOutOfRange.WithData("distance", from.Distance(to)).WithData("attack_range", class.AttackRange)
	}
	target.Health = max(0, target.Health-class.Damage)
	e.lastAction = fmt.Sprintf("%s hits %s for %d", self.Name, target.Name, class.Damage)
	return nil
}

func (e *Engine) occupant(cell entity.ID[gamedef.Cell]) (entity.ID[Character], bool) {
	for _, id := range e.characters.IDs() {
		c, _ := e.characters.Get(id)
		if c.Alive() && c.Cell == cell {
			return id, true
		}
	}
	return entity.ID[Character]{}, false
}

// nextAlive 返回 after 之后（环绕）第一个存活角色。
func (e *Engine) nextAlive(after int) (entity.ID[Character], bool) {
	n := e.characters.Len()
	for step := 1; step <= n; step++ {
		idx := (after + step + n) % n
		id, _ := e.characters.At(idx)
		if c, _ := e.characters.Get(id); c.Alive() {
			return id, true
		}
	}
	return entity.ID[Character]{}, false
}

func (e *Engine) advance() {
	if next, ok := e.nextAlive(int(e.holder.Raw())); ok {
		e.holder = next
	}
	e.turn++
}

func (e *Engine) checkWinner() {
	alive := make(map[entity.ID[gamedef.Team]]bool)
	e.characters.Each(func(_ entity.ID[Character], c *Character) {
		if c.Alive() {
			alive[c.Team] = true
		}
	})
	if len(alive) != 1 {
		return
	}
	for team := range alive {
		t := team
		e.winner = &t
	}
}

func (e *Engine) Snapshot() Snapshot {
	s := Snapshot{
		Map:        e.mapID,
		Turn:       e.turn,
		TurnHolder: e.holder,
		Characters: e.characters.Clone(),
		Finished:   e.winner != nil,
		LastAction: e.lastAction,
	}
	if e.winner != nil {
		w := *e.winner
		s.Winner = &w
	}
	return s
}
