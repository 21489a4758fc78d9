package serverconfig

import "time"

type Config struct {
	SessionServer SessionServerConfig `yaml:"sessionserver" mapstructure:"sessionserver"`
	Game          GameConfig          `yaml:"game" mapstructure:"game"`
	Journal       JournalConfig       `yaml:"journal" mapstructure:"journal"`
	MySQL         MySQLConfig         `yaml:"mysql" mapstructure:"mysql"`
	MongoDB       MongoDBConfig       `yaml:"mongodb" mapstructure:"mongodb"`
	Log           LogConfig           `yaml:"log" mapstructure:"log"`
}

type SessionServerConfig struct {
	Host     string `yaml:"host" mapstructure:"host"`
	Port     int    `yaml:"port" mapstructure:"port"`
	GRPCPort int    `yaml:"grpc_port" mapstructure:"grpc_port"`
	// WSHeartbeat 为 0 时不发 ping。
	WSHeartbeat time.Duration `yaml:"ws_heartbeat" mapstructure:"ws_heartbeat"`
}

type GameConfig struct {
	DefinitionPath string `yaml:"definition_path" mapstructure:"definition_path"`
	MaxTeamSize    int    `yaml:"max_team_size" mapstructure:"max_team_size"`
}

type JournalConfig struct {
	Driver        string        `yaml:"driver" mapstructure:"driver"` // none/memory/mysql/mongodb
	FlushInterval time.Duration `yaml:"flush_interval" mapstructure:"flush_interval"`
	BatchSize     int           `yaml:"batch_size" mapstructure:"batch_size"`
	SaveTimeout   time.Duration `yaml:"save_timeout" mapstructure:"save_timeout"` // 单批落库超时
}

type MySQLConfig struct {
	Host     string `yaml:"host" mapstructure:"host"`
	Port     int    `yaml:"port" mapstructure:"port"`
	User     string `yaml:"user" mapstructure:"user"`
	Password string `yaml:"password" mapstructure:"password"`
	DBName   string `yaml:"dbname" mapstructure:"dbname"`
	Charset  string `yaml:"charset" mapstructure:"charset"`
	MaxIdle  int    `yaml:"max_idle" mapstructure:"max_idle"`
	MaxConn  int    `yaml:"max_conn" mapstructure:"max_conn"`
	ShowSQL  bool   `yaml:"show_sql" mapstructure:"show_sql"`
}

type MongoDBConfig struct {
	URI             string `yaml:"uri" mapstructure:"uri"`
	Database        string `yaml:"database" mapstructure:"database"`
	ConnectTimeoutS int    `yaml:"connect_timeout_s" mapstructure:"connect_timeout_s"`
}

type LogConfig struct {
	FileDir    string `yaml:"file_dir" mapstructure:"file_dir"`
	MaxSize    int    `yaml:"max_size" mapstructure:"max_size"` // MB
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups"`
	MaxAge     int    `yaml:"max_age" mapstructure:"max_age"` // days
	Compress   bool   `yaml:"compress" mapstructure:"compress"`
	Level      string `yaml:"level" mapstructure:"level"` // debug/info/warn/error...
	Dev        bool   `yaml:"dev" mapstructure:"dev"`
	// DisableConsole 关闭控制台输出（终端客户端处于 raw 模式时使用）。
	DisableConsole bool `yaml:"disable_console" mapstructure:"disable_console"`
}
