package transport

// BizCode 表示业务码的强类型封装，用于在日志上下文中减少误传风险。
type BizCode int

// 对外业务码：HTTP 状态恒为 200，成败看 code。
// 1~499 为可恢复的业务拒绝，>=500 为服务端故障。
const (
	OK           = 0
	InvalidParam = 1

	// 引用错误
	NoSuchSession = 100
	UnknownLogin  = 101
	InvalidClass  = 102
	InvalidTeam   = 103
	InvalidCell   = 104
	InvalidMap    = 105
	InvalidSize   = 106

	// 容量错误
	AssemblyFull = 110
	TeamFull     = 111
	CellOccupied = 112

	// 阶段错误
	AlreadyRunning  = 120
	StillAssembling = 121

	// 权限与规则
	NotYourTurn    = 130
	ActionRejected = 131

	SystemError = 500
	Unavailable = 503
)

// Response 是 HTTP 接口统一响应体。
type Response struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data any    `json:"data,omitempty"`
}
