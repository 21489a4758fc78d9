package ws

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"Skirmish/modules/kit/logx"
)

type Upgrader struct {
	upgrader  websocket.Upgrader
	heartbeat time.Duration
	log       logx.Logger
}

func NewUpgrader(l logx.Logger, heartbeat time.Duration) *Upgrader {
	if l == nil {
		l = logx.Nop()
	}
	return &Upgrader{
		upgrader: websocket.Upgrader{
			// 终端客户端不带 Origin，放行所有来源
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		heartbeat: heartbeat,
		log:       l,
	}
}

// Upgrade 升级连接并启动读写循环。
func (u *Upgrader) Upgrade(resp http.ResponseWriter, req *http.Request) (*Conn, error) {
	wsConn, err := u.upgrader.Upgrade(resp, req, nil)
	if err != nil {
		u.log.Warn("websocket upgrade error", zap.Error(err))
		return nil, err
	}
	c := NewConn(wsConn, u.log, u.heartbeat)
	c.Run()
	u.log.Debug("websocket upgrade success", zap.String("addr", c.Addr()))
	return c, nil
}
