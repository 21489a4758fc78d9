package grpc

import (
	"context"
	"strings"

	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"Skirmish/modules/kit/tracex"
)

// metadataKey 把 tracex 的字段名映射成 grpc metadata 头：session_id -> x-session-id。
func metadataKey(field string) string {
	return "x-" + strings.ReplaceAll(field, "_", "-")
}

// 以下拦截器由 NewServer 与 Dial 挂上：出站把上下文标识写进 metadata，入站再还原。
func unaryClientIDs() gogrpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *gogrpc.ClientConn, invoker gogrpc.UnaryInvoker, opts ...gogrpc.CallOption) error {
		return invoker(outgoingIDs(ctx), method, req, reply, cc, opts...)
	}
}

func streamClientIDs() gogrpc.StreamClientInterceptor {
	return func(ctx context.Context, desc *gogrpc.StreamDesc, cc *gogrpc.ClientConn, method string, streamer gogrpc.Streamer, opts ...gogrpc.CallOption) (gogrpc.ClientStream, error) {
		return streamer(outgoingIDs(ctx), desc, cc, method, opts...)
	}
}

func unaryServerIDs() gogrpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, _ *gogrpc.UnaryServerInfo, handler gogrpc.UnaryHandler) (any, error) {
		return handler(incomingIDs(ctx), req)
	}
}

func streamServerIDs() gogrpc.StreamServerInterceptor {
	return func(srv any, ss gogrpc.ServerStream, _ *gogrpc.StreamServerInfo, handler gogrpc.StreamHandler) error {
		return handler(srv, &idStream{ServerStream: ss, ctx: incomingIDs(ss.Context())})
	}
}

type idStream struct {
	gogrpc.ServerStream
	ctx context.Context
}

func (s *idStream) Context() context.Context { return s.ctx }

func outgoingIDs(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	fields := tracex.Fields(ctx)
	if len(fields) == 0 {
		return ctx
	}
	kv := make([]string, 0, 2*len(fields))
	for _, f := range fields {
		kv = append(kv, metadataKey(f.Key), f.Value)
	}
	return metadata.AppendToOutgoingContext(ctx, kv...)
}

// incomingIDs 只取每个头的第一个值；本端已有的标识不被覆盖。
func incomingIDs(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ctx
	}
	for _, key := range tracex.Keys {
		if _, has := tracex.From(ctx, key); has {
			continue
		}
		if vs := md.Get(metadataKey(key)); len(vs) > 0 {
			ctx = tracex.With(ctx, key, vs[0])
		}
	}
	return ctx
}
