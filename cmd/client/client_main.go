package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"Skirmish/internal/client/api"
	"Skirmish/internal/client/app"
	"Skirmish/internal/client/config"
	"Skirmish/internal/client/flow"
	"Skirmish/internal/client/input"
	"Skirmish/internal/client/tui"
	"Skirmish/internal/client/watch"
	"Skirmish/internal/shared/logs"
	"Skirmish/internal/shared/serverconfig"
	transportgrpc "Skirmish/internal/shared/transport/grpc"
	"Skirmish/modules/kit/logx"
)

const healthService = "skirmish.session"

func main() {
	cfg, err := config.Load()
	if err != nil {
		die("load config", err)
	}
	// 终端处于 raw 模式，日志只能写文件
	if err := logs.Init("client", serverconfig.LogConfig{
		FileDir:        cfg.LogFile,
		MaxSize:        10,
		MaxBackups:     3,
		Level:          cfg.LogLevel,
		DisableConsole: true,
	}); err != nil {
		die("init log", err)
	}
	defer logs.Sync()
	logs.Info("client config", zap.Any("conf", cfg))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.HealthAddr != "" {
		if err := waitForServer(ctx, cfg.HealthAddr); err != nil {
			die("session server not ready", err)
		}
	}

	endpoint := api.NewEndpoint(cfg.ServerURL, 5*time.Second)
	loadCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	def, err := endpoint.LoadGame(loadCtx)
	cancel()
	if err != nil {
		die("load game definition", err)
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		die("create screen", err)
	}
	if err := screen.Init(); err != nil {
		die("init screen", err)
	}
	defer screen.Fini()

	baseLogger := logx.NewZapLogger(logs.Logger())
	watcher := watch.New(cfg.ServerURL, endpoint, cfg.PollInterval, baseLogger)
	defer watcher.Stop()

	a := app.New(
		flow.New(def, endpoint, cfg.TeamSize),
		input.NewSource(screen, cfg.FrameTimeout),
		watcher,
		tui.NewRenderer(screen, def),
		app.SystemClipboard(),
		baseLogger,
	)
	a.Run(ctx)
	logs.Info("client exit")
}

func waitForServer(ctx context.Context, addr string) error {
	conn, err := transportgrpc.Dial(addr)
	if err != nil {
		return err
	}
	defer func() {
		_ = conn.Close()
	}()
	waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return transportgrpc.WaitForHealth(waitCtx, conn, healthService)
}

func die(what string, err error) {
	logs.Error(what, zap.Error(err))
	fmt.Fprintf(os.Stderr, "skirmish: %s: %v\n", what, err)
	os.Exit(1)
}
