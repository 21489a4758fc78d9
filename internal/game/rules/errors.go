package rules

import "Skirmish/modules/kit/errx"

// 规则拒绝一律是业务错误，会话层把它们包成 ACTION_REJECTED 透传给客户端。
const (
	CodeMatchFinished errx.Code = "RULE_MATCH_FINISHED"
	CodeUnknownAction errx.Code = "RULE_UNKNOWN_ACTION"
	CodeUnknownActor  errx.Code = "RULE_UNKNOWN_ACTOR"
	CodeActorDead     errx.Code = "RULE_ACTOR_DEAD"
	CodeBadCell       errx.Code = "RULE_BAD_CELL"
	CodeCellOccupied  errx.Code = "RULE_CELL_OCCUPIED"
	CodeOutOfRange    errx.Code = "RULE_OUT_OF_RANGE"
	CodeInvalidTarget errx.Code = "RULE_INVALID_TARGET"
)

var (
	ErrMatchFinished = errx.NewBiz(CodeMatchFinished, "对局已结束")
	ErrUnknownAction = errx.NewBiz(CodeUnknownAction, "未知动作")
	ErrUnknownActor  = errx.NewBiz(CodeUnknownActor, "角色不存在")
	ErrActorDead     = errx.NewBiz(CodeActorDead, "角色已阵亡")
	ErrBadCell       = errx.NewBiz(CodeBadCell, "目标格子不存在")
	ErrCellOccupied  = errx.NewBiz(CodeCellOccupied, "目标格子已被占据")
	ErrOutOfRange    = errx.NewBiz(CodeOutOfRange, "超出范围")
	ErrInvalidTarget = errx.NewBiz(CodeInvalidTarget, "目标不合法")
)
