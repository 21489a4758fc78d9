package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

type testConf struct {
	Server struct {
		Port int `mapstructure:"port"`
	} `mapstructure:"server"`
	Journal struct {
		FlushInterval time.Duration `mapstructure:"flush_interval"`
	} `mapstructure:"journal"`
}

func writeConf(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "configs", "conf.yml")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestLoad_显式路径解码(t *testing.T) {
	path := writeConf(t, t.TempDir(), "server:\n  port: 8000\njournal:\n  flush_interval: 250ms\n")

	var c testConf
	if err := Load(path, &c, nil); err != nil {
		t.Fatalf("期望加载成功, err=%v", err)
	}
	if c.Server.Port != 8000 {
		t.Fatalf("期望 port=8000, got=%d", c.Server.Port)
	}
	if c.Journal.FlushInterval != 250*time.Millisecond {
		t.Fatalf("期望 flush_interval=250ms, got=%v", c.Journal.FlushInterval)
	}
}

func TestLoad_文件不存在返回错误(t *testing.T) {
	var c testConf
	if err := Load(filepath.Join(t.TempDir(), "missing.yml"), &c, nil); err == nil {
		t.Fatalf("期望文件不存在时返回错误")
	}
}

func TestLoad_环境变量覆盖(t *testing.T) {
	path := writeConf(t, t.TempDir(), "server:\n  port: 8000\n")
	t.Setenv("SKIRMISH_SERVER_PORT", "9100")

	var c testConf
	if err := Load(path, &c, nil); err != nil {
		t.Fatalf("期望加载成功, err=%v", err)
	}
	if c.Server.Port != 9100 {
		t.Fatalf("期望环境变量覆盖为 9100, got=%d", c.Server.Port)
	}
}

func TestFindConfigUpward_从子目录向上查找(t *testing.T) {
	root := t.TempDir()
	want := writeConf(t, root, "server:\n  port: 1\n")
	sub := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	got, err := findConfigUpward(sub)
	if err != nil {
		t.Fatalf("期望找到配置, err=%v", err)
	}
	if got != want {
		t.Fatalf("期望 %s, got=%s", want, got)
	}
}
