package app

import (
	"Skirmish/internal/session/domain"
	"Skirmish/modules/kit/errx"
)

// Code 表示应用层错误码。
type Code = errx.Code

const (
	// CodeInternalServer 复用 kit 的统一系统码（跨服务一致，便于告警/排障）。
	CodeInternalServer Code = errx.CodeInternal
)

// 领域哨兵错误在应用层原样暴露，接口层只依赖 app 包。
var (
	ErrNoSuchSession   = domain.ErrNoSuchSession
	ErrUnknownLogin    = domain.ErrUnknownLogin
	ErrInvalidClass    = domain.ErrInvalidClass
	ErrInvalidTeam     = domain.ErrInvalidTeam
	ErrInvalidCell     = domain.ErrInvalidCell
	ErrInvalidMap      = domain.ErrInvalidMap
	ErrInvalidTeamSize = domain.ErrInvalidTeamSize
	ErrAssemblyFull    = domain.ErrAssemblyFull
	ErrTeamFull        = domain.ErrTeamFull
	ErrCellOccupied    = domain.ErrCellOccupied
	ErrAlreadyRunning  = domain.ErrAlreadyRunning
	ErrStillAssembling = domain.ErrStillAssembling
	ErrNotYourTurn     = domain.ErrNotYourTurn
	ErrRejected        = domain.ErrRejected
	ErrInternalServer  = errx.ErrInternal
)

// Wrap 创建系统类错误并挂载 cause（系统错误会在第一次 wrap 处捕获一次栈）。
func Wrap(code Code, msg string, cause error) *errx.Error {
	return errx.NewSys(code, msg).WithCause(cause)
}
