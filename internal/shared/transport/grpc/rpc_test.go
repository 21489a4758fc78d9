package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"

	"Skirmish/modules/kit/tracex"
)

func TestWaitForHealth_置为SERVING后返回(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv, hs := NewServer()
	go func() { _ = srv.Serve(lis) }()
	defer srv.Stop()

	conn, err := Dial(lis.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	go func() {
		time.Sleep(300 * time.Millisecond)
		hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := WaitForHealth(ctx, conn, ""); err != nil {
		t.Fatalf("期望等到 SERVING, err=%v", err)
	}
}

func TestWaitForHealth_超时返回错误(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv, _ := NewServer()
	go func() { _ = srv.Serve(lis) }()
	defer srv.Stop()

	conn, err := Dial(lis.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	if err := WaitForHealth(ctx, conn, ""); err == nil {
		t.Fatalf("期望 NOT_SERVING 时超时返回错误")
	}
}

func TestTrace_出入站透传(t *testing.T) {
	ctx := tracex.WithSpanID(tracex.WithTraceID(context.Background(), "t-9"), "s-1")
	ctx = tracex.WithSessionID(ctx, "ABCDEFGHIJ")
	out := outgoingIDs(ctx)
	md, _ := metadata.FromOutgoingContext(out)
	if got := md.Get("x-session-id"); len(got) != 1 || got[0] != "ABCDEFGHIJ" {
		t.Fatalf("期望 metadata 携带 x-session-id, got=%v", got)
	}

	in := incomingIDs(metadata.NewIncomingContext(context.Background(), md))
	if got, _ := tracex.TraceIDFrom(in); got != "t-9" {
		t.Fatalf("期望 trace_id=t-9, got=%q", got)
	}
	if got, _ := tracex.SpanIDFrom(in); got != "s-1" {
		t.Fatalf("期望 span_id=s-1, got=%q", got)
	}
	if got, _ := tracex.SessionIDFrom(in); got != "ABCDEFGHIJ" {
		t.Fatalf("期望 session_id=ABCDEFGHIJ, got=%q", got)
	}
}

func TestTrace_入站不覆盖本端标识(t *testing.T) {
	md := metadata.Pairs("x-session-id", "REMOTE0000")
	ctx := tracex.WithSessionID(context.Background(), "LOCAL00000")
	in := incomingIDs(metadata.NewIncomingContext(ctx, md))
	if got, _ := tracex.SessionIDFrom(in); got != "LOCAL00000" {
		t.Fatalf("期望保留本端 session_id, got=%q", got)
	}
}
