package serverconfig

import (
	"sync/atomic"

	"Skirmish/internal/shared/config"
)

var current atomic.Pointer[Config]

// Load 读取服务端配置；onChange 在热更新成功后收到新配置。
func Load(cfgName string, onChange func(Config)) (Config, error) {
	var conf Config
	err := config.Load(cfgName, &conf, func() {
		snapshot := conf
		applyDefaults(&snapshot)
		current.Store(&snapshot)
		if onChange != nil {
			onChange(snapshot)
		}
	})
	if err != nil {
		return Config{}, err
	}
	applyDefaults(&conf)
	snapshot := conf
	current.Store(&snapshot)
	return snapshot, nil
}

// Current 返回最近一次加载成功的配置。
func Current() Config {
	if c := current.Load(); c != nil {
		return *c
	}
	return Config{}
}

func applyDefaults(c *Config) {
	if c.SessionServer.Port == 0 {
		c.SessionServer.Port = 8000
	}
	if c.Game.MaxTeamSize == 0 {
		c.Game.MaxTeamSize = 8
	}
	if c.Journal.Driver == "" {
		c.Journal.Driver = "none"
	}
	if c.Journal.BatchSize == 0 {
		c.Journal.BatchSize = 64
	}
	if c.MySQL.Charset == "" {
		c.MySQL.Charset = "utf8mb4"
	}
}
