package transport

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"Skirmish/modules/kit/logx"
	"Skirmish/modules/kit/tracex"
)

func TestNewContextWithParent_默认系统错误码(t *testing.T) {
	ctx := NewContextWithParent(context.Background(), "GET /game")
	al := FromContext(ctx)
	if al == nil {
		t.Fatalf("期望 ctx 中带 AccessLog")
	}
	if al.BizCode != BizCode(SystemError) {
		t.Fatalf("期望默认业务码为 SystemError, got=%d", al.BizCode)
	}
	if _, ok := tracex.TraceIDFrom(ctx); !ok {
		t.Fatalf("期望生成 trace_id")
	}
}

func TestNewContextWithParent_沿用上游traceID(t *testing.T) {
	parent := tracex.WithTraceID(context.Background(), "upstream")
	ctx := NewContextWithParent(parent, "GET /game")
	if got, _ := tracex.TraceIDFrom(ctx); got != "upstream" {
		t.Fatalf("期望沿用上游 trace_id, got=%q", got)
	}
}

func TestWriteAccessLog_失败时带错误原因(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := logx.NewZapLogger(zap.New(core))

	ctx := NewContextWithParent(context.Background(), "POST /sessions/:id/actions/:login")
	SetBizCode(ctx, NotYourTurn)
	SetErrorReason(ctx, "NOT_YOUR_TURN")
	WriteAccessLog(ctx, l)

	entries := logs.FilterField(zap.String("error_reason", "NOT_YOUR_TURN")).All()
	if len(entries) != 1 {
		t.Fatalf("期望 1 条带 error_reason 的访问日志, got=%d", len(entries))
	}
	if entries[0].Level != zapcore.WarnLevel {
		t.Fatalf("期望业务拒绝为 WARN, got=%v", entries[0].Level)
	}
}
