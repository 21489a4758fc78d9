package tracex

import (
	"context"
	"crypto/rand"
	"encoding/hex"
)

// 随请求在上下文里流转、并写进每条日志的标识。
// session_id 让同一局的 HTTP 请求、推送连接与审计写入能按会话串起来。
const (
	KeyTraceID   = "trace_id"
	KeySpanID    = "span_id"
	KeySessionID = "session_id"
)

// Keys 是透传顺序，日志字段与跨进程 metadata 都按它输出。
var Keys = []string{KeyTraceID, KeySpanID, KeySessionID}

type ctxKey string

// With 写入一个标识；空值不写，未知 key 也照样写入但不会被 Fields 列出。
func With(ctx context.Context, key, value string) context.Context {
	if value == "" {
		return ctx
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxKey(key), value)
}

func From(ctx context.Context, key string) (string, bool) {
	if ctx == nil {
		return "", false
	}
	s, ok := ctx.Value(ctxKey(key)).(string)
	return s, ok && s != ""
}

// Field 是一个已存在的标识。
type Field struct {
	Key   string
	Value string
}

// Fields 按 Keys 的顺序列出上下文里已有的标识。
func Fields(ctx context.Context) []Field {
	var out []Field
	for _, k := range Keys {
		if v, ok := From(ctx, k); ok {
			out = append(out, Field{Key: k, Value: v})
		}
	}
	return out
}

func WithTraceID(ctx context.Context, traceID string) context.Context {
	return With(ctx, KeyTraceID, traceID)
}

func TraceIDFrom(ctx context.Context) (string, bool) {
	return From(ctx, KeyTraceID)
}

func WithSpanID(ctx context.Context, spanID string) context.Context {
	return With(ctx, KeySpanID, spanID)
}

func SpanIDFrom(ctx context.Context) (string, bool) {
	return From(ctx, KeySpanID)
}

func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return With(ctx, KeySessionID, sessionID)
}

func SessionIDFrom(ctx context.Context) (string, bool) {
	return From(ctx, KeySessionID)
}

// NewTraceID 生成 16 字节随机 trace_id（hex），随机源失败时返回空串。
func NewTraceID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return ""
	}
	return hex.EncodeToString(b[:])
}
