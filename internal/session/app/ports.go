package app

import (
	"context"
	"time"

	"Skirmish/internal/game/entity"
	"Skirmish/internal/game/rules"
)

// RandSeq 生成 n 位随机字母数字串。
type RandSeq func(n int) string

type EventKind string

const (
	EventCreated        EventKind = "session.created"
	EventJoined         EventKind = "session.joined"
	EventStarted        EventKind = "session.started"
	EventActionApplied  EventKind = "match.updated"
	EventActionRejected EventKind = "action.rejected"
)

// Event 是会话生命周期事件：写入审计日志，并推送给订阅者。
type Event struct {
	Kind      EventKind
	Session   SessionID
	Character *entity.ID[rules.Character]
	Snapshot  *rules.Snapshot
	Detail    string
	At        time.Time
}

// Journal 追加审计事件，实现必须非阻塞。
type Journal interface {
	Append(ctx context.Context, ev Event)
}

// Notifier 把事件扇出给该会话的订阅者，实现必须非阻塞。
type Notifier interface {
	Publish(id SessionID, ev Event)
}

type nopJournal struct{}

func (nopJournal) Append(context.Context, Event) {}

type nopNotifier struct{}

func (nopNotifier) Publish(SessionID, Event) {}
