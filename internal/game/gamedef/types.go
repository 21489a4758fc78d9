package gamedef

import "Skirmish/internal/game/entity"

// Class 是职业模板，角色的初始生命/法力取自职业。
type Class struct {
	Name        string `json:"name" mapstructure:"name"`
	Health      int    `json:"health" mapstructure:"health"`
	Mana        int    `json:"mana" mapstructure:"mana"`
	Damage      int    `json:"damage" mapstructure:"damage"`
	AttackRange int    `json:"attack_range" mapstructure:"attack_range"`
	MoveRange   int    `json:"move_range" mapstructure:"move_range"`
}

type Cell struct {
	X int `json:"x" mapstructure:"x"`
	Y int `json:"y" mapstructure:"y"`
}

// Distance 曼哈顿距离。
func (c Cell) Distance(o Cell) int {
	return abs(c.X-o.X) + abs(c.Y-o.Y)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Team 只读：出生格列表对外返回拷贝。
type Team struct {
	name       string
	startCells []entity.ID[Cell]
}

func (t Team) Name() string {
	return t.name
}

func (t Team) StartCells() []entity.ID[Cell] {
	out := make([]entity.ID[Cell], len(t.startCells))
	copy(out, t.startCells)
	return out
}

func (t Team) StartCellCount() int {
	return len(t.startCells)
}

// StartCellAt 按序号取出生格，越界返回 false。
func (t Team) StartCellAt(idx int) (entity.ID[Cell], bool) {
	if idx < 0 || idx >= len(t.startCells) {
		return entity.ID[Cell]{}, false
	}
	return t.startCells[idx], true
}

func (t Team) HasStartCell(id entity.ID[Cell]) bool {
	for _, c := range t.startCells {
		if c == id {
			return true
		}
	}
	return false
}

type GameMap struct {
	name  string
	cells *entity.Arena[Cell]
	teams *entity.Arena[Team]
}

func (m GameMap) Name() string {
	return m.name
}

func (m GameMap) Cell(id entity.ID[Cell]) (Cell, bool) {
	return m.cells.Get(id)
}

func (m GameMap) CellCount() int {
	return m.cells.Len()
}

// CellAt 返回坐标所在格子。
func (m GameMap) CellAt(x, y int) (entity.ID[Cell], bool) {
	for _, id := range m.cells.IDs() {
		if c, _ := m.cells.Get(id); c.X == x && c.Y == y {
			return id, true
		}
	}
	return entity.ID[Cell]{}, false
}

func (m GameMap) Team(id entity.ID[Team]) (Team, bool) {
	return m.teams.Get(id)
}

func (m GameMap) TeamCount() int {
	return m.teams.Len()
}

func (m GameMap) TeamAt(idx int) (entity.ID[Team], bool) {
	return m.teams.At(idx)
}

func (m GameMap) TeamIDs() []entity.ID[Team] {
	return m.teams.IDs()
}

// Definition 是进程级只读的静态游戏定义：启动时加载一次，之后不再修改。
type Definition struct {
	classes *entity.Arena[Class]
	maps    *entity.Arena[GameMap]
}

func (d *Definition) Class(id entity.ID[Class]) (Class, bool) {
	return d.classes.Get(id)
}

func (d *Definition) ClassCount() int {
	return d.classes.Len()
}

func (d *Definition) ClassAt(idx int) (entity.ID[Class], bool) {
	return d.classes.At(idx)
}

func (d *Definition) Map(id entity.ID[GameMap]) (GameMap, bool) {
	return d.maps.Get(id)
}

func (d *Definition) MapCount() int {
	return d.maps.Len()
}

func (d *Definition) MapAt(idx int) (entity.ID[GameMap], bool) {
	return d.maps.At(idx)
}
