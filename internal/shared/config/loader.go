package config

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// mu 串行化热更新解码，读方拿到的是回调里重新发布的值。
var mu sync.Mutex

func load(configPath string, target any, onChange func()) error {
	if !fileExist(configPath) {
		return fmt.Errorf("config file not exist, configPath=%v", configPath)
	}

	v := NewViper(configPath)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config %s: %w", configPath, err)
	}
	if err := v.Unmarshal(target, decodeHook()); err != nil {
		return fmt.Errorf("unmarshal config %s: %w", configPath, err)
	}

	if onChange != nil {
		v.OnConfigChange(func(e fsnotify.Event) {
			mu.Lock()
			defer mu.Unlock()
			// 变更后的文件可能是写了一半的，解码失败就保留旧值。
			if err := v.Unmarshal(target, decodeHook()); err != nil {
				return
			}
			onChange()
		})
		v.WatchConfig()
	}
	return nil
}

// NewViper 创建带环境变量覆盖的 viper 实例，gamedef 也复用它读取定义文件。
func NewViper(configPath string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decodeHook() viper.DecoderConfigOption {
	return viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
}

func fileExist(fileName string) bool {
	_, err := os.Stat(fileName)
	return err == nil
}
