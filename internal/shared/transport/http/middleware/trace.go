package middleware

import (
	"github.com/gin-gonic/gin"

	"Skirmish/modules/kit/tracex"
)

// TraceHeader 客户端可透传的 trace 头，响应里回写同一个值。
const TraceHeader = "X-Trace-Id"

func Trace() gin.HandlerFunc {
	return func(c *gin.Context) {
		if tid := c.GetHeader(TraceHeader); tid != "" {
			c.Request = c.Request.WithContext(tracex.WithTraceID(c.Request.Context(), tid))
		}
		c.Next()
	}
}

// SessionScope 把路由参数里的会话 id 放进请求上下文，之后的日志与出站调用都带上 session_id。
func SessionScope(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if id := c.Param(param); id != "" {
			c.Request = c.Request.WithContext(tracex.WithSessionID(c.Request.Context(), id))
		}
		c.Next()
	}
}
