package ws

// PushMsg 是推送通道上唯一的帧格式，服务端与客户端共用。
type PushMsg struct {
	Seq  int64  `json:"seq"`
	Name string `json:"name"`
	Code int    `json:"code"`
	Msg  any    `json:"msg"`
}

type Heartbeat struct {
	CTime int64 `json:"ctime" mapstructure:"ctime"`
	STime int64 `json:"stime" mapstructure:"stime"`
}

const (
	HeartbeatMsg = "heartbeat"
	// 会话从组队进入对局。
	SessionStartedMsg = "session.started"
	// 对局快照更新（每次动作被接受后）。
	MatchUpdatedMsg = "match.updated"
)
