package handler

import (
	"errors"

	"Skirmish/internal/session/app"
	"Skirmish/internal/shared/transport"
	"Skirmish/modules/kit/errx"
)

func toBizCode(err error) int {
	switch {
	case err == nil:
		return transport.OK
	case errors.Is(err, errx.ErrReqParamERR):
		return transport.InvalidParam
	case errors.Is(err, app.ErrNoSuchSession):
		return transport.NoSuchSession
	case errors.Is(err, app.ErrUnknownLogin):
		return transport.UnknownLogin
	case errors.Is(err, app.ErrInvalidClass):
		return transport.InvalidClass
	case errors.Is(err, app.ErrInvalidTeam):
		return transport.InvalidTeam
	case errors.Is(err, app.ErrInvalidCell):
		return transport.InvalidCell
	case errors.Is(err, app.ErrInvalidMap):
		return transport.InvalidMap
	case errors.Is(err, app.ErrInvalidTeamSize):
		return transport.InvalidSize
	case errors.Is(err, app.ErrAssemblyFull):
		return transport.AssemblyFull
	case errors.Is(err, app.ErrTeamFull):
		return transport.TeamFull
	case errors.Is(err, app.ErrCellOccupied):
		return transport.CellOccupied
	case errors.Is(err, app.ErrAlreadyRunning):
		return transport.AlreadyRunning
	case errors.Is(err, app.ErrStillAssembling):
		return transport.StillAssembling
	case errors.Is(err, app.ErrNotYourTurn):
		return transport.NotYourTurn
	case errors.Is(err, app.ErrRejected):
		return transport.ActionRejected
	case errors.Is(err, errx.ErrUnavailable), errors.Is(err, errx.ErrTimeout):
		return transport.Unavailable
	default:
		return transport.SystemError
	}
}

// toMsg 给客户端看的短句；规则拒绝时带上引擎给出的原因。
func toMsg(err error) string {
	var e *errx.Error
	if !errors.As(err, &e) {
		return "服务器内部错误"
	}
	if !e.IsBiz() {
		return "服务器内部错误"
	}
	msg := e.Msg()
	if errors.Is(err, app.ErrRejected) {
		var inner *errx.Error
		if errors.As(e.Unwrap(), &inner) && inner.Msg() != "" {
			msg += ": " + inner.Msg()
		}
	}
	return msg
}
