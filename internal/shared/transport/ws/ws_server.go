package ws

import (
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"Skirmish/modules/kit/logx"
)

const writeWait = 5 * time.Second

// Conn 是服务端一条推送连接：读循环只处理心跳，写循环串行发送。
type Conn struct {
	conn      *websocket.Conn
	outChan   chan *PushMsg
	seq       atomic.Int64
	heartbeat time.Duration
	done      chan struct{}
	closeOnce sync.Once
	log       logx.Logger
}

func NewConn(wsConn *websocket.Conn, l logx.Logger, heartbeat time.Duration) *Conn {
	if l == nil {
		l = logx.Nop()
	}
	return &Conn{
		conn:      wsConn,
		outChan:   make(chan *PushMsg, 64),
		heartbeat: heartbeat,
		done:      make(chan struct{}),
		log:       l,
	}
}

func (s *Conn) Addr() string {
	return s.conn.RemoteAddr().String()
}

// Push 非阻塞投递；缓冲满或连接已关闭时丢弃并返回 false。
func (s *Conn) Push(name string, data any) bool {
	msg := &PushMsg{Seq: s.seq.Add(1), Name: name, Msg: data}
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.outChan <- msg:
		return true
	case <-s.done:
		return false
	default:
		s.log.Warn("ws push dropped, out chan full", zap.String("name", name), zap.String("addr", s.Addr()))
		return false
	}
}

func (s *Conn) Run() {
	go s.readMsgLoop()
	go s.writeMsgLoop()
}

func (s *Conn) readMsgLoop() {
	defer func() {
		if err := recover(); err != nil {
			s.log.Error("ws readMsgLoop panic", zap.String("err", fmt.Sprintf("%v", err)))
		}
		s.Close()
	}()
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Warn("ws read msg", zap.Error(err))
			}
			return
		}

		var req PushMsg
		if err := json.Unmarshal(data, &req); err != nil {
			s.log.Warn("ws read msg unmarshal json error", zap.Error(err))
			continue
		}
		if req.Name != HeartbeatMsg {
			// 推送通道是单向的，业务请求走 HTTP。
			s.log.Debug("ws ignore client msg", zap.String("name", req.Name))
			continue
		}
		h := &Heartbeat{}
		if err := mapstructure.Decode(req.Msg, h); err != nil {
			s.log.Warn("ws heartbeat decode error", zap.Error(err))
			continue
		}
		h.STime = time.Now().UnixMilli()
		s.Push(HeartbeatMsg, h)
	}
}

func (s *Conn) writeMsgLoop() {
	var tick <-chan time.Time
	if s.heartbeat > 0 {
		ticker := time.NewTicker(s.heartbeat)
		defer ticker.Stop()
		tick = ticker.C
	}
	for {
		select {
		case msg := <-s.outChan:
			if msg.Name != HeartbeatMsg {
				s.log.Debug("ws write msg", zap.String("name", msg.Name), zap.Int64("seq", msg.Seq))
			}
			if err := s.write(msg); err != nil {
				s.log.Warn("ws write error", zap.Error(err))
				s.Close()
				return
			}
		case <-tick:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.Close()
				return
			}
		case <-s.done:
			return
		}
	}
}

func (s *Conn) write(msg *PushMsg) error {
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteJSON(msg)
}

func (s *Conn) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		_ = s.conn.Close()
	})
}

// Done 在连接关闭时被关闭。
func (s *Conn) Done() <-chan struct{} {
	return s.done
}
