package config

import (
	"testing"
	"time"
)

func TestLoadFrom_默认值(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ServerURL != "http://localhost:8000" || cfg.FrameTimeout != 500*time.Millisecond || cfg.TeamSize != 2 {
		t.Fatalf("期望默认值, got=%+v", cfg)
	}
}

func TestLoadFrom_环境覆盖(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{
		"SKIRMISH_SERVER_URL":    "http://game:9000",
		"SKIRMISH_FRAME_TIMEOUT": "250ms",
		"SKIRMISH_TEAM_SIZE":     "3",
	})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ServerURL != "http://game:9000" || cfg.FrameTimeout != 250*time.Millisecond || cfg.TeamSize != 3 {
		t.Fatalf("期望环境变量生效, got=%+v", cfg)
	}
}

func TestLoadFrom_非法值(t *testing.T) {
	if _, err := LoadFrom(map[string]string{"SKIRMISH_TEAM_SIZE": "0"}); err == nil {
		t.Fatalf("期望人数 0 报错")
	}
	if _, err := LoadFrom(map[string]string{"SKIRMISH_FRAME_TIMEOUT": "soon"}); err == nil {
		t.Fatalf("期望无法解析的时长报错")
	}
}
