package grpc

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

// NewServer 创建透传 trace/session 标识的 grpc 服务，并挂上标准健康检查服务。
// 健康状态初始为 NOT_SERVING，由调用方在依赖就绪后置为 SERVING。
func NewServer() (*grpc.Server, *health.Server) {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(unaryServerIDs()),
		grpc.ChainStreamInterceptor(streamServerIDs()),
	)
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(srv, hs)
	return srv, hs
}

// Dial 建立 grpc 连接（明文），自动注入 trace/span/session 标识。
func Dial(target string) (*grpc.ClientConn, error) {
	opts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithChainUnaryInterceptor(unaryClientIDs()),
		grpc.WithChainStreamInterceptor(streamClientIDs()),
	}
	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, fmt.Errorf("dial %s failed: %w", target, err)
	}
	return conn, nil
}

// WaitForHealth 轮询健康检查直到 SERVING 或 ctx 结束，退避 200ms 起步、上限 1s。
func WaitForHealth(ctx context.Context, conn *grpc.ClientConn, service string) error {
	client := healthpb.NewHealthClient(conn)
	backoff := 200 * time.Millisecond
	for {
		callCtx, cancel := context.WithTimeout(ctx, time.Second)
		resp, err := client.Check(callCtx, &healthpb.HealthCheckRequest{Service: service})
		cancel()
		if err == nil && resp.GetStatus() == healthpb.HealthCheckResponse_SERVING {
			return nil
		}
		if err != nil && status.Code(err) == codes.Unimplemented {
			return fmt.Errorf("health service not implemented: %w", err)
		}

		select {
		case <-ctx.Done():
			if err != nil {
				return fmt.Errorf("wait for health: %w", err)
			}
			return fmt.Errorf("wait for health: %w", ctx.Err())
		case <-time.After(backoff):
		}
		if backoff < time.Second {
			backoff *= 2
			if backoff > time.Second {
				backoff = time.Second
			}
		}
	}
}
