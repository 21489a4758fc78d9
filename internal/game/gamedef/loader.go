package gamedef

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/viper"

	"Skirmish/internal/game/entity"
	"Skirmish/modules/kit/errx"
)

const CodeInvalidDefinition errx.Code = "GAME_DEFINITION_INVALID"

var ErrInvalidDefinition = errx.NewSys(CodeInvalidDefinition, "游戏定义不合法")

// definitionFile 是定义文件与 GET /game 共用的格式。
type definitionFile struct {
	Classes []Class   `json:"classes" mapstructure:"classes"`
	Maps    []mapFile `json:"maps" mapstructure:"maps"`
}

type mapFile struct {
	Name  string     `json:"name" mapstructure:"name"`
	Cells []Cell     `json:"cells" mapstructure:"cells"`
	Teams []teamFile `json:"teams" mapstructure:"teams"`
}

type teamFile struct {
	Name       string   `json:"name" mapstructure:"name"`
	StartCells []uint64 `json:"start_cells" mapstructure:"start_cells"`
}

// Load 读取定义文件（json/yaml 由扩展名决定）并校验。
func Load(path string) (*Definition, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read game definition %s: %w", path, err)
	}
	var f definitionFile
	if err := v.Unmarshal(&f); err != nil {
		return nil, fmt.Errorf("decode game definition %s: %w", path, err)
	}
	return build(f)
}

// Decode 从 JSON 流还原定义，客户端拿到 GET /game 的响应后使用。
func Decode(r io.Reader) (*Definition, error) {
	var f definitionFile
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decode game definition: %w", err)
	}
	return build(f)
}

// Parse 是 Decode 的字节版本。
func Parse(data []byte) (*Definition, error) {
	var f definitionFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode game definition: %w", err)
	}
	return build(f)
}

func (d *Definition) MarshalJSON() ([]byte, error) {
	f := definitionFile{}
	d.classes.Each(func(_ entity.ID[Class], c *Class) {
		f.Classes = append(f.Classes, *c)
	})
	d.maps.Each(func(_ entity.ID[GameMap], m *GameMap) {
		mf := mapFile{Name: m.name}
		m.cells.Each(func(_ entity.ID[Cell], c *Cell) {
			mf.Cells = append(mf.Cells, *c)
		})
		m.teams.Each(func(_ entity.ID[Team], t *Team) {
			tf := teamFile{Name: t.name}
			for _, id := range t.startCells {
				tf.StartCells = append(tf.StartCells, id.Raw())
			}
			mf.Teams = append(mf.Teams, tf)
		})
		f.Maps = append(f.Maps, mf)
	})
	return json.Marshal(f)
}

func build(f definitionFile) (*Definition, error) {
	if len(f.Classes) == 0 {
		return nil, invalid("no classes")
	}
	if len(f.Maps) == 0 {
		return nil, invalid("no maps")
	}

	classes := entity.NewArena[Class](len(f.Classes))
	for i, c := range f.Classes {
		if c.Health <= 0 {
			return nil, invalid(fmt.Sprintf("class %d (%s): health must be positive", i, c.Name))
		}
		if c.Mana < 0 || c.Damage < 0 || c.AttackRange < 0 || c.MoveRange < 0 {
			return nil, invalid(fmt.Sprintf("class %d (%s): negative attribute", i, c.Name))
		}
		classes.Allocate(c)
	}

	maps := entity.NewArena[GameMap](len(f.Maps))
	for i, mf := range f.Maps {
		m, err := buildMap(i, mf)
		if err != nil {
			return nil, err
		}
		maps.Allocate(m)
	}
	return &Definition{classes: classes, maps: maps}, nil
}

func buildMap(idx int, mf mapFile) (GameMap, error) {
	if len(mf.Cells) == 0 {
		return GameMap{}, invalid(fmt.Sprintf("map %d (%s): no cells", idx, mf.Name))
	}
	if len(mf.Teams) == 0 {
		return GameMap{}, invalid(fmt.Sprintf("map %d (%s): no teams", idx, mf.Name))
	}

	cells := entity.NewArena[Cell](len(mf.Cells))
	for _, c := range mf.Cells {
		cells.Allocate(c)
	}

	owner := make(map[uint64]int)
	teams := entity.NewArena[Team](len(mf.Teams))
	for ti, tf := range mf.Teams {
		if len(tf.StartCells) == 0 {
			return GameMap{}, invalid(fmt.Sprintf("map %d team %d (%s): no start cells", idx, ti, tf.Name))
		}
		t := Team{name: tf.Name, startCells: make([]entity.ID[Cell], 0, len(tf.StartCells))}
		for _, raw := range tf.StartCells {
			id := entity.FromRaw[Cell](raw)
			if !cells.Contains(id) {
				return GameMap{}, invalid(fmt.Sprintf("map %d team %d: start cell %d does not exist", idx, ti, raw))
			}
			if prev, ok := owner[raw]; ok {
				return GameMap{}, invalid(fmt.Sprintf("map %d: start cell %d shared by teams %d and %d", idx, raw, prev, ti))
			}
			owner[raw] = ti
			t.startCells = append(t.startCells, id)
		}
		teams.Allocate(t)
	}
	return GameMap{name: mf.Name, cells: cells, teams: teams}, nil
}

func invalid(detail string) error {
	return ErrInvalidDefinition.WithData("detail", detail).WithCause(errors.New(detail))
}
