package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config 客户端全部来自环境变量；终端处于 raw 模式，日志只写文件。
type Config struct {
	ServerURL    string        `env:"SKIRMISH_SERVER_URL" envDefault:"http://localhost:8000"`
	HealthAddr   string        `env:"SKIRMISH_HEALTH_ADDR" envDefault:"localhost:8001"`
	FrameTimeout time.Duration `env:"SKIRMISH_FRAME_TIMEOUT" envDefault:"500ms"`
	PollInterval time.Duration `env:"SKIRMISH_POLL_INTERVAL" envDefault:"2s"`
	TeamSize     int           `env:"SKIRMISH_TEAM_SIZE" envDefault:"2"`
	LogFile      string        `env:"SKIRMISH_LOG_FILE" envDefault:"skirmish-client.log"`
	LogLevel     string        `env:"SKIRMISH_LOG_LEVEL" envDefault:"info"`
}

// Load 从进程环境读取。
func Load() (Config, error) {
	return parse(env.Options{})
}

// LoadFrom 用给定的键值代替进程环境，测试用。
func LoadFrom(vars map[string]string) (Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.TeamSize < 1 {
		return Config{}, fmt.Errorf("SKIRMISH_TEAM_SIZE must be >= 1, got %d", cfg.TeamSize)
	}
	if cfg.FrameTimeout <= 0 {
		return Config{}, fmt.Errorf("SKIRMISH_FRAME_TIMEOUT must be positive, got %s", cfg.FrameTimeout)
	}
	return cfg, nil
}
