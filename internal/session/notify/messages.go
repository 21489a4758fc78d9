package notify

import (
	"Skirmish/internal/session/app"
	"Skirmish/internal/shared/actor/messages"
)

type subscribe struct {
	messages.SessionBaseMessage
	subID uint64
	sink  chan app.Event
}

type subscribeAck struct {
	subID uint64
}

type unsubscribe struct {
	messages.SessionBaseMessage
	subID uint64
}

// publish 只投递不等待。
type publish struct {
	messages.SessionBaseMessage
	ev app.Event
}

type countSubscribers struct {
	messages.SessionBaseMessage
}

type subscriberCount struct {
	count int
}
