package messages

// SessionMessage 按会话路由：管理 actor 据此转发给对应的 hub。
type SessionMessage interface {
	SessionID() string
}

type SessionBaseMessage struct {
	Session string
}

func (m SessionBaseMessage) SessionID() string {
	return m.Session
}
