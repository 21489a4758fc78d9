package domain

import "Skirmish/modules/kit/errx"

// Code 表示会话领域错误码（对外语义的唯一来源）。
//
// 约定：
// - 领域层只关心“是什么错”（code）以及“业务上下文”（data）
// - cause 仅用于溯源/日志，不参与对外语义
type Code = errx.Code

const (
	// 引用错误
	CodeNoSuchSession   Code = "SESSION_NOT_FOUND"
	CodeUnknownLogin    Code = "SESSION_UNKNOWN_LOGIN"
	CodeInvalidClass    Code = "SESSION_INVALID_CLASS"
	CodeInvalidTeam     Code = "SESSION_INVALID_TEAM"
	CodeInvalidCell     Code = "SESSION_INVALID_CELL"
	CodeInvalidMap      Code = "SESSION_INVALID_MAP"
	CodeInvalidTeamSize Code = "SESSION_INVALID_TEAM_SIZE"

	// 容量错误
	CodeAssemblyFull Code = "SESSION_ASSEMBLY_FULL"
	CodeTeamFull     Code = "SESSION_TEAM_FULL"
	CodeCellOccupied Code = "SESSION_CELL_OCCUPIED"

	// 阶段错误
	CodeAlreadyRunning  Code = "SESSION_ALREADY_RUNNING"
	CodeStillAssembling Code = "SESSION_STILL_ASSEMBLING"

	// 权限与规则
	CodeNotYourTurn Code = "SESSION_NOT_YOUR_TURN"
	CodeRejected    Code = "SESSION_ACTION_REJECTED"
)

// Error 复用通用错误模型。
type Error = errx.Error

// 哨兵错误：禁止直接修改其 data/cause（通过 WithData/WithCause 派生新对象）。
var (
	ErrNoSuchSession   = errx.NewBiz(CodeNoSuchSession, "会话不存在")
	ErrUnknownLogin    = errx.NewBiz(CodeUnknownLogin, "登录令牌无效")
	ErrInvalidClass    = errx.NewBiz(CodeInvalidClass, "职业不存在")
	ErrInvalidTeam     = errx.NewBiz(CodeInvalidTeam, "队伍不存在")
	ErrInvalidCell     = errx.NewBiz(CodeInvalidCell, "出生格不合法")
	ErrInvalidMap      = errx.NewBiz(CodeInvalidMap, "地图不存在")
	ErrInvalidTeamSize = errx.NewBiz(CodeInvalidTeamSize, "队伍人数不合法")
	ErrAssemblyFull    = errx.NewBiz(CodeAssemblyFull, "人数已满")
	ErrTeamFull        = errx.NewBiz(CodeTeamFull, "队伍已满")
	ErrCellOccupied    = errx.NewBiz(CodeCellOccupied, "出生格已被占用")
	ErrAlreadyRunning  = errx.NewBiz(CodeAlreadyRunning, "对局已开始")
	ErrStillAssembling = errx.NewBiz(CodeStillAssembling, "对局尚未开始")
	ErrNotYourTurn     = errx.NewBiz(CodeNotYourTurn, "还没轮到你")
	ErrRejected        = errx.NewBiz(CodeRejected, "动作被规则拒绝")
)
