package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"forktree/models"
)

// Config is the service configuration.
type Config struct {
	Server   ServerConfig     `mapstructure:"server"`
	Log      LogConfig        `mapstructure:"log"`
	LevelDB  LevelDBConfig    `mapstructure:"leveldb"`
	Layout   LayoutConfig     `mapstructure:"layout"`
	Cache    CacheConfig      `mapstructure:"cache"`
	Window   WindowConfig     `mapstructure:"window"`
	SSE      SSEConfig        `mapstructure:"sse"`
	Forks    ForksConfig      `mapstructure:"forks"`
	Networks []models.Network `mapstructure:"networks"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type LogConfig struct {
	AppLogFile string `mapstructure:"app_log_file"`
	Level      string `mapstructure:"level"`
}

type LevelDBConfig struct {
	Path string `mapstructure:"path"`
}

type LayoutConfig struct {
	HorizontalGap float64 `mapstructure:"horizontal_gap"`
	VerticalGap   float64 `mapstructure:"vertical_gap"`
}

type CacheConfig struct {
	Size int `mapstructure:"size"`
}

// WindowConfig limits how many heights are laid out; 0 shows everything.
type WindowConfig struct {
	MaxInterestingHeights int `mapstructure:"max_interesting_heights"`
}

type SSEConfig struct {
	KeepAlive time.Duration `mapstructure:"keepalive"`
}

type ForksConfig struct {
	Max int `mapstructure:"max"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.app_log_file", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("leveldb.path", "data/forktree")
	v.SetDefault("layout.horizontal_gap", 100)
	v.SetDefault("layout.vertical_gap", 100)
	v.SetDefault("cache.size", 128)
	v.SetDefault("window.max_interesting_heights", 0)
	v.SetDefault("sse.keepalive", 15*time.Second)
	v.SetDefault("forks.max", 50)
}

// Load reads the YAML file at path, applies FORKTREE_* environment overrides
// (e.g. FORKTREE_SERVER_PORT) and fills in defaults. An empty path skips the
// file.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("forktree")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Cache.Size <= 0 {
		return fmt.Errorf("cache.size must be positive, got %d", c.Cache.Size)
	}
	seen := make(map[uint32]bool, len(c.Networks))
	for _, n := range c.Networks {
		if seen[n.ID] {
			return fmt.Errorf("duplicate network id %d", n.ID)
		}
		seen[n.ID] = true
	}
	return nil
}
