package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"Skirmish/internal/game/gamedef"
	"Skirmish/internal/session/app"
	"Skirmish/internal/session/interfaces"
	"Skirmish/internal/session/journal"
	"Skirmish/internal/session/notify"
	"Skirmish/internal/shared/logs"
	"Skirmish/internal/shared/serverconfig"
	transportgrpc "Skirmish/internal/shared/transport/grpc"
	transporthttp "Skirmish/internal/shared/transport/http"
	"Skirmish/internal/shared/transport/ws"
	"Skirmish/modules/kit/logx"
)

// 健康检查里对外的服务名，客户端启动时按它探活。
const healthService = "skirmish.session"

func main() {
	conf, err := serverconfig.Load(os.Getenv("SKIRMISH_CONFIG"), func(c serverconfig.Config) {
		logs.SetLevel(c.Log.Level)
		logs.Info("config reloaded", zap.String("log_level", c.Log.Level))
	})
	if err != nil {
		panic(err)
	}
	if err := logs.Init("session", conf.Log); err != nil {
		panic(err)
	}
	defer logs.Sync()
	logs.Info("conf", zap.Any("conf", conf))

	// 静态定义只加载一次，交给注册表后所有会话共享
	def, err := gamedef.Load(conf.Game.DefinitionPath)
	if err != nil {
		logs.Fatal("load game definition failed", zap.String("path", conf.Game.DefinitionPath), zap.Error(err))
	}
	logs.Info("game definition loaded", zap.Int("classes", def.ClassCount()), zap.Int("maps", def.MapCount()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	baseLogger := logx.NewZapLogger(logs.Logger())

	sink, err := journal.Open(ctx, conf, logs.Logger())
	if err != nil {
		logs.Fatal("open journal failed", zap.String("driver", conf.Journal.Driver), zap.Error(err))
	}
	hub := notify.NewHub(16, 3*time.Second, baseLogger)

	reg := app.NewRegistry(def,
		app.WithJournal(sink),
		app.WithNotifier(hub),
		app.WithMaxTeamSize(conf.Game.MaxTeamSize),
		app.WithLogger(baseLogger),
	)

	if !conf.Log.Dev {
		gin.SetMode(gin.ReleaseMode)
	}
	host := conf.SessionServer.Host
	if host == "" {
		host = "0.0.0.0"
	}
	httpAddr := fmt.Sprintf("%s:%d", host, conf.SessionServer.Port)
	httpServer := transporthttp.NewHttpServer(httpAddr, nil, baseLogger)
	module := interfaces.New(reg, hub, ws.NewUpgrader(baseLogger, conf.SessionServer.WSHeartbeat), baseLogger)
	module.Register(httpServer.Engine())

	grpcServer, healthServer := transportgrpc.NewServer()
	var grpcLis net.Listener
	if conf.SessionServer.GRPCPort != 0 {
		grpcAddr := fmt.Sprintf("%s:%d", host, conf.SessionServer.GRPCPort)
		grpcLis, err = net.Listen("tcp", grpcAddr)
		if err != nil {
			logs.Fatal("listen health grpc failed", zap.String("addr", grpcAddr), zap.Error(err))
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logs.Info("session http server started", zap.String("addr", httpAddr))
		if err := httpServer.Start(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			return fmt.Errorf("session http serve failed: %w", err)
		}
		return nil
	})
	if grpcLis != nil {
		g.Go(func() error {
			logs.Info("health grpc server started", zap.String("addr", grpcLis.Addr().String()))
			if err := grpcServer.Serve(grpcLis); err != nil {
				return fmt.Errorf("health grpc serve failed: %w", err)
			}
			return nil
		})
	}
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(healthService, healthpb.HealthCheckResponse_SERVING)

	g.Go(func() error {
		<-gctx.Done()
		logs.Info("收到退出信号，准备优雅退出")
		healthServer.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)

		stopped := make(chan struct{})
		go func() {
			grpcServer.GracefulStop()
			close(stopped)
		}()
		select {
		case <-stopped:
		case <-shutdownCtx.Done():
			grpcServer.Stop()
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logs.Error("服务异常退出", zap.Error(err))
	}

	// 先停推送，再把审计日志刷盘
	hub.Close()
	closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := sink.Close(closeCtx); err != nil {
		logs.Error("close journal failed", zap.Error(err))
	}
	logs.Info("session server stopped", zap.Int("sessions", reg.Len()))
}
