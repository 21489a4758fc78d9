package tui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/uniseg"

	"Skirmish/internal/client/flow"
	"Skirmish/internal/game/entity"
	"Skirmish/internal/game/gamedef"
	"Skirmish/internal/game/rules"
)

var (
	white     = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	gray      = tcell.StyleDefault.Foreground(tcell.ColorGray)
	yellow    = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	cyan      = tcell.StyleDefault.Foreground(tcell.ColorAqua)
	green     = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	red       = tcell.StyleDefault.Foreground(tcell.ColorRed)
	highlight = tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorAqua)
)

// Renderer 把界面状态画到终端上，本身不持有任何状态。
type Renderer struct {
	screen tcell.Screen
	def    *gamedef.Definition
}

func NewRenderer(screen tcell.Screen, def *gamedef.Definition) *Renderer {
	return &Renderer{screen: screen, def: def}
}

// Draw 整屏重画一帧。
func (r *Renderer) Draw(s flow.State) {
	r.screen.Clear()
	switch st := s.(type) {
	case flow.CreateOrJoin:
		r.createOrJoin(st)
	case flow.SelectMap:
		r.selectMap(st)
	case flow.AssembleCharacter:
		r.assemble(st)
	case flow.AwaitingStart:
		r.awaiting(st)
	case flow.Playing:
		r.playing(st)
	}
	r.screen.Show()
}

// put 按显示宽度推进列，中文占两格。
func (r *Renderer) put(x, y int, s string, style tcell.Style) int {
	for _, c := range s {
		r.screen.SetContent(x, y, c, nil, style)
		w := uniseg.StringWidth(string(c))
		if w < 1 {
			w = 1
		}
		x += w
	}
	return x
}

func (r *Renderer) rule(y int) {
	w, _ := r.screen.Size()
	for x := 0; x < w; x++ {
		r.screen.SetContent(x, y, '─', nil, gray)
	}
}

func (r *Renderer) header(title, hints string) {
	r.put(0, 0, title, yellow)
	w, _ := r.screen.Size()
	if hw := uniseg.StringWidth(hints); hw+uniseg.StringWidth(title)+2 < w {
		r.put(w-hw, 0, hints, gray)
	}
	r.rule(1)
}

// notice 固定画在最后一行。
func (r *Renderer) notice(msg string) {
	if msg == "" {
		return
	}
	_, h := r.screen.Size()
	r.put(0, h-1, msg, red)
}

func (r *Renderer) createOrJoin(s flow.CreateOrJoin) {
	r.header("SKIRMISH", "[←/→] Switch  [Enter] Confirm  [Esc] Quit")
	create, join := white, white
	if s.Mode == flow.ModeCreate {
		create = highlight
	} else {
		join = highlight
	}
	r.put(2, 3, " Create session ", create)
	r.put(20, 3, " Join session ", join)
	if s.Mode == flow.ModeJoin {
		r.put(2, 5, "Code: ", white)
		x := r.put(8, 5, s.Buffer, cyan)
		r.screen.SetContent(x, 5, '_', nil, gray)
		r.put(2, 7, "session id to join, session/token to rejoin, ] to paste", gray)
	}
	r.notice(s.Notice)
}

func (r *Renderer) selectMap(s flow.SelectMap) {
	r.header("SELECT MAP", "[←/→] Browse  [Enter] Create  [Del] Back")
	n := r.def.MapCount()
	for i := 0; i < n; i++ {
		id, _ := r.def.MapAt(i)
		gm, _ := r.def.Map(id)
		style := white
		if i == wrap(s.Cursor, n) {
			style = highlight
		}
		r.put(2, 3+i, fmt.Sprintf(" %s (%d teams, %d cells) ", gm.Name(), gm.TeamCount(), gm.CellCount()), style)
	}
	r.notice(s.Notice)
}

func (r *Renderer) assemble(s flow.AssembleCharacter) {
	r.header("SESSION "+s.SessionID, "[←/→] Change  [Enter] Next  [ [ ] Copy code")
	gm, ok := r.def.Map(s.MapID)
	if !ok {
		r.notice(s.Notice)
		return
	}

	row := func(y int, step flow.Step, label, value string) {
		style := gray
		if step == s.Step {
			style = highlight
		} else if step < s.Step {
			style = green
		}
		r.put(2, y, label, white)
		r.put(12, y, " "+value+" ", style)
	}

	teamName, cells := "-", 0
	if tid, ok := gm.TeamAt(wrap(s.TeamIdx, gm.TeamCount())); ok {
		team, _ := gm.Team(tid)
		teamName, cells = team.Name(), team.StartCellCount()
	}
	className := "-"
	if cid, ok := r.def.ClassAt(wrap(s.ClassIdx, r.def.ClassCount())); ok {
		c, _ := r.def.Class(cid)
		className = fmt.Sprintf("%s hp:%d mp:%d dmg:%d", c.Name, c.Health, c.Mana, c.Damage)
	}

	r.put(2, 2, "Map: "+gm.Name(), cyan)
	row(4, flow.StepTeam, "Team", teamName)
	row(5, flow.StepClass, "Class", className)
	row(6, flow.StepPosition, "Start", fmt.Sprintf("%d/%d", wrap(s.PositionIdx, cells)+1, cells))
	row(7, flow.StepName, "Name", s.Name+"_")
	r.notice(s.Notice)
}

func (r *Renderer) awaiting(s flow.AwaitingStart) {
	r.header("WAITING", "[ [ ] Copy rejoin code  [Esc] Quit")
	r.put(2, 3, "Joined as character #"+fmt.Sprint(s.CharacterID.Raw()), white)
	r.put(2, 4, "Rejoin code: "+flow.ShareCode(s), cyan)
	r.put(2, 6, "Waiting for other players...", gray)
	r.notice(s.Notice)
}

func (r *Renderer) playing(s flow.Playing) {
	r.header("MATCH "+s.SessionID, "[↑/↓] Mode  [←/→] Target  [Enter] Act  [p] Pass")
	snap := s.Snapshot
	if snap == nil {
		r.put(2, 3, "Loading match...", gray)
		r.notice(s.Notice)
		return
	}

	status := fmt.Sprintf("Turn %d  holder #%d", snap.Turn, snap.TurnHolder.Raw())
	statusStyle := white
	switch {
	case snap.Finished:
		status = "Match finished"
		if snap.Winner != nil {
			status += fmt.Sprintf(", winner team #%d", snap.Winner.Raw())
		}
		statusStyle = yellow
	case s.Spectator:
		status += "  SPECTATING"
		statusStyle = cyan
	case s.OurTurn():
		status += "  YOUR TURN"
		statusStyle = green
	}
	r.put(0, 2, status, statusStyle)

	mode := "MOVE"
	if s.Mode == flow.PlayAttack {
		mode = "ATTACK"
	}
	r.put(0, 3, "Mode: "+mode, cyan)

	bottom := r.board(s, 5)
	r.roster(s, bottom+1)
	if snap.LastAction != "" {
		_, h := r.screen.Size()
		r.put(0, h-2, "Last: "+snap.LastAction, gray)
	}
	r.notice(s.Notice)
}

// board 画地图格子，返回最后一行的 y。
func (r *Renderer) board(s flow.Playing, top int) int {
	gm, ok := r.def.Map(s.Snapshot.Map)
	if !ok {
		return top
	}
	var selCell entity.ID[gamedef.Cell]
	hasSel := false
	if s.Mode == flow.PlayMove && gm.CellCount() > 0 {
		selCell, hasSel = entity.FromRaw[gamedef.Cell](uint64(wrap(s.TargetIdx, gm.CellCount()))), true
	}
	var selTarget entity.ID[rules.Character]
	if targets := flow.AttackTargets(s); s.Mode == flow.PlayAttack && len(targets) > 0 {
		selTarget = targets[wrap(s.TargetIdx, len(targets))]
	}

	maxY := top
	for i := 0; i < gm.CellCount(); i++ {
		id := entity.FromRaw[gamedef.Cell](uint64(i))
		cell, _ := gm.Cell(id)
		glyph, style := '.', gray
		if occ, ok := s.Snapshot.Occupant(id); ok {
			c, _ := s.Snapshot.Character(occ)
			glyph = firstRune(c.Name)
			style = white
			if !s.Spectator && occ == s.CharacterID {
				style = green
			}
			if s.Mode == flow.PlayAttack && occ == selTarget {
				style = highlight
			}
		}
		if hasSel && id == selCell {
			style = highlight
		}
		x, y := cell.X*2, top+cell.Y
		r.screen.SetContent(x, y, glyph, nil, style)
		if y > maxY {
			maxY = y
		}
	}
	return maxY
}

func (r *Renderer) roster(s flow.Playing, top int) {
	y := top
	s.Snapshot.Characters.Each(func(id entity.ID[rules.Character], c *rules.Character) {
		style := white
		switch {
		case !c.Alive():
			style = gray
		case !s.Spectator && id == s.CharacterID:
			style = green
		}
		marker := " "
		if id == s.Snapshot.TurnHolder {
			marker = ">"
		}
		r.put(0, y, fmt.Sprintf("%s#%d %s team:%d hp:%d mp:%d", marker, id.Raw(), c.Name, c.Team.Raw(), c.Health, c.Mana), style)
		y++
	})
}

func firstRune(s string) rune {
	for _, c := range s {
		return c
	}
	return '@'
}

func wrap(i, n int) int {
	if n <= 0 {
		return 0
	}
	return ((i % n) + n) % n
}
