package interfaces

import (
	"github.com/gin-gonic/gin"

	"Skirmish/internal/session/app"
	"Skirmish/internal/session/interfaces/handler"
	"Skirmish/internal/shared/transport/ws"
	"Skirmish/modules/kit/logx"
)

type Module struct {
	session *handler.Session
}

func New(reg *app.Registry, sub handler.Subscriber, up *ws.Upgrader, log logx.Logger) *Module {
	return &Module{session: handler.NewSession(reg, sub, up, log)}
}

func (m *Module) Register(r gin.IRouter) {
	m.session.RegisterRoutes(r)
}
