package logs

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"

	"Skirmish/internal/shared/serverconfig"
)

func TestInit_只写文件时输出JSON(t *testing.T) {
	file := filepath.Join(t.TempDir(), "client.log")
	if err := Init("skirmish-client", serverconfig.LogConfig{FileDir: file, Level: "debug", DisableConsole: true}); err != nil {
		t.Fatalf("期望初始化成功, err=%v", err)
	}
	Info("hello")
	Sync()

	data, err := os.ReadFile(file)
	if err != nil {
		t.Fatalf("期望日志文件存在, err=%v", err)
	}
	if !strings.Contains(string(data), `"msg":"hello"`) {
		t.Fatalf("期望文件中有 JSON 日志, got=%s", data)
	}
}

func TestSetLevel_非法值忽略(t *testing.T) {
	SetLevel("warn")
	if Level() != zapcore.WarnLevel {
		t.Fatalf("期望级别为 warn, got=%v", Level())
	}
	SetLevel("loud")
	if Level() != zapcore.WarnLevel {
		t.Fatalf("期望非法值不改变级别, got=%v", Level())
	}
	SetLevel("info")
}
