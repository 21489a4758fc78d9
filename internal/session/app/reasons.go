package app

type Reason struct {
	Code    string
	Message string
}

func (r Reason) ReasonCode() string {
	return r.Code
}

func NewReason(c, m string) Reason {
	return Reason{Code: c, Message: m}
}

var (
	// 技术错误 reason（服务内枚举），用于日志与排障。
	ReasonEngineBuildFail  = NewReason("ENGINE_BUILD_FAIL", "规则引擎构造失败")
	ReasonIDSpaceExhausted = NewReason("ID_SPACE_EXHAUSTED", "随机 id 连续冲突")
)
