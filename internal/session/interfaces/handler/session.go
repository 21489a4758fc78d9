package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"Skirmish/internal/session/app"
	"Skirmish/internal/session/domain"
	"Skirmish/internal/session/dto"
	"Skirmish/internal/shared/transport"
	"Skirmish/internal/shared/transport/http/middleware"
	"Skirmish/internal/shared/transport/ws"
	"Skirmish/modules/kit/errx"
	"Skirmish/modules/kit/logx"
)

// Subscriber 是推送中心的订阅端。
type Subscriber interface {
	Subscribe(ctx context.Context, id app.SessionID) (<-chan app.Event, func(), error)
}

type Session struct {
	reg *app.Registry
	sub Subscriber
	up  *ws.Upgrader
	log logx.Logger
}

func NewSession(reg *app.Registry, sub Subscriber, up *ws.Upgrader, log logx.Logger) *Session {
	if log == nil {
		log = logx.Nop()
	}
	return &Session{reg: reg, sub: sub, up: up, log: log}
}

func (h *Session) RegisterRoutes(r gin.IRouter) {
	r.GET("/game", h.game)

	g := r.Group("/sessions", middleware.SessionScope("id"))
	g.POST("", h.create)
	g.GET("/:id", h.describe)
	g.POST("/:id/characters", h.join)
	g.GET("/:id/logins/:login", h.rejoin)
	g.POST("/:id/actions/:login", h.submit)

	r.GET("/ws/sessions/:id", middleware.SessionScope("id"), h.push)
}

func (h *Session) game(c *gin.Context) {
	h.ok(c, h.reg.Definition())
}

func (h *Session) create(c *gin.Context) {
	var req dto.CreateSessionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, errx.ErrReqParamERR.WithCause(err))
		return
	}
	created, err := h.reg.CreateSession(c.Request.Context(), req.MapID, req.TeamSize)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, dto.CreateSessionResp{
		SessionID: string(created.ID),
		MapID:     created.MapID,
		TeamSize:  created.TeamSize,
	})
}

func (h *Session) describe(c *gin.Context) {
	d := h.reg.Describe(c.Request.Context(), app.SessionID(c.Param("id")))
	h.ok(c, dto.DescribeResp{
		Phase:     d.Phase.String(),
		SessionID: string(d.ID),
		MapID:     d.MapID,
		TeamSize:  d.TeamSize,
		Joined:    d.Joined,
		Snapshot:  d.Snapshot,
	})
}

func (h *Session) join(c *gin.Context) {
	var req dto.JoinReq
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, errx.ErrReqParamERR.WithCause(err))
		return
	}
	joined, err := h.reg.Join(c.Request.Context(), app.SessionID(c.Param("id")), domain.JoinRequest{
		Name:  req.Name,
		Class: req.ClassID,
		Team:  req.TeamID,
		Cell:  req.CellID,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, dto.JoinResp{
		LoginToken:  string(joined.Token),
		CharacterID: joined.Character,
		Started:     joined.Started,
	})
}

func (h *Session) rejoin(c *gin.Context) {
	m, err := h.reg.Rejoin(c.Request.Context(), app.SessionID(c.Param("id")), domain.LoginToken(c.Param("login")))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, dto.RejoinResp{CharacterID: m.Character, Phase: m.Phase.String()})
}

func (h *Session) submit(c *gin.Context) {
	var action dto.ActionReq
	if err := c.ShouldBindJSON(&action); err != nil {
		h.fail(c, errx.ErrReqParamERR.WithCause(err))
		return
	}
	err := h.reg.SubmitAction(c.Request.Context(), app.SessionID(c.Param("id")), domain.LoginToken(c.Param("login")), action)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, struct{}{})
}

// push 先订阅再查阶段再升级：订阅之后发生的开始事件一定进通道，
// 订阅之前已经开始的会话由查到的 Running 补发一帧当前快照。
func (h *Session) push(c *gin.Context) {
	ctx := c.Request.Context()
	id := app.SessionID(c.Param("id"))

	events, cancel, err := h.sub.Subscribe(ctx, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	defer cancel()

	d := h.reg.Describe(ctx, id)
	if d.Phase == app.PhaseNotFound {
		h.fail(c, app.ErrNoSuchSession.WithData("session_id", string(id)))
		return
	}

	conn, err := h.up.Upgrade(c.Writer, c.Request)
	if err != nil {
		return
	}
	defer conn.Close()

	// 补发过开始帧后，通道里可能还排着同一次开始事件，跳过
	started := d.Phase == app.PhaseRunning
	if started {
		conn.Push(ws.SessionStartedMsg, dto.PushEvent{SessionID: string(id), Snapshot: d.Snapshot})
	}
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			if ev.Kind == app.EventStarted && started {
				continue
			}
			name, ok := pushName(ev.Kind)
			if !ok {
				continue
			}
			conn.Push(name, dto.PushEvent{SessionID: string(id), Snapshot: ev.Snapshot})
		case <-conn.Done():
			h.log.WithContext(ctx).Debug("push conn closed")
			return
		}
	}
}

func pushName(kind app.EventKind) (string, bool) {
	switch kind {
	case app.EventStarted:
		return ws.SessionStartedMsg, true
	case app.EventActionApplied:
		return ws.MatchUpdatedMsg, true
	default:
		return "", false
	}
}

func (h *Session) ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, transport.Response{Code: transport.OK, Msg: "ok", Data: data})
}

// fail 每个请求只打一次错误日志：业务拒绝走 ReportBiz，其余走 ReportSysError。
func (h *Session) fail(c *gin.Context, err error) {
	ctx := c.Request.Context()
	code := toBizCode(err)
	msg := toMsg(err)
	action := c.Request.Method + " " + c.FullPath()
	if code >= transport.SystemError {
		logx.ReportSysError(ctx, h.log, logx.NewSysLog(action, err))
	} else {
		logx.ReportBiz(ctx, h.log, logx.NewBizLog(action, string(errx.CodeOf(err)), msg))
	}
	transport.SetErrorReason(ctx, string(errx.CodeOf(err)))
	c.JSON(http.StatusOK, transport.Response{Code: code, Msg: msg})
}
