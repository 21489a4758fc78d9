package flow

import "Skirmish/internal/game/rules"

type EventKind int

const (
	EventTimeout EventKind = iota
	EventText
	EventExit
	EventLeft
	EventRight
	EventUp
	EventDown
	EventBackspace
	EventCancel
	EventConfirm
	EventOther
	// 以下两种不来自键盘，由会话观察者在带外投递。
	EventStarted
	EventSnapshot
)

// Event 是状态机的唯一输入。Text 只在 EventText 时有效，Snapshot 只在带外事件时有效。
type Event struct {
	Kind     EventKind
	Text     string
	Snapshot *rules.Snapshot
}

func Key(kind EventKind) Event {
	return Event{Kind: kind}
}

func Text(s string) Event {
	return Event{Kind: EventText, Text: s}
}

func Started(s *rules.Snapshot) Event {
	return Event{Kind: EventStarted, Snapshot: s}
}

func SnapshotUpdated(s *rules.Snapshot) Event {
	return Event{Kind: EventSnapshot, Snapshot: s}
}

func (k EventKind) String() string {
	switch k {
	case EventTimeout:
		return "timeout"
	case EventText:
		return "text"
	case EventExit:
		return "exit"
	case EventLeft:
		return "left"
	case EventRight:
		return "right"
	case EventUp:
		return "up"
	case EventDown:
		return "down"
	case EventBackspace:
		return "backspace"
	case EventCancel:
		return "cancel"
	case EventConfirm:
		return "confirm"
	case EventStarted:
		return "started"
	case EventSnapshot:
		return "snapshot"
	default:
		return "other"
	}
}
