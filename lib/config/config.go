// Package config -----------------------------
// @file      : config.go
// @author    : hcjjj
// @contact   : hcjjj@foxmail.com
// @time      : 2023/12/15 20:10
// -------------------------------------------
package config

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// ServerProperties defines global config properties
type ServerProperties struct {
	Bind string `mapstructure:"bind"`
	Port int    `mapstructure:"port"`
	// 每次从 socket 读取的字节数
	ReadBuffer int `mapstructure:"read-buffer"`
	// 单个连接未解析完的数据上限，超过就断开，0 表示不限制
	MaxQueryBuffer int `mapstructure:"max-query-buffer"`
	// 为空表示不开启 /metrics
	MetricsAddr string `mapstructure:"metrics-addr"`
	// 0 表示只做惰性过期
	ExpireSweepInterval time.Duration `mapstructure:"expire-sweep-interval"`
	LogPath             string        `mapstructure:"log-path"`
	LogLevel            string        `mapstructure:"log-level"`
}

const (
	DefaultBind           = "127.0.0.1"
	DefaultPort           = 6379
	DefaultReadBuffer     = 1024
	DefaultMaxQueryBuffer = 64 * 1024 * 1024
)

// Default returns the properties used when no config file is given
func Default() *ServerProperties {
	return &ServerProperties{
		Bind:           DefaultBind,
		Port:           DefaultPort,
		ReadBuffer:     DefaultReadBuffer,
		MaxQueryBuffer: DefaultMaxQueryBuffer,
		LogLevel:       "info",
	}
}

// SetDefaults registers the default values into v
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("bind", d.Bind)
	v.SetDefault("port", d.Port)
	v.SetDefault("read-buffer", d.ReadBuffer)
	v.SetDefault("max-query-buffer", d.MaxQueryBuffer)
	v.SetDefault("metrics-addr", d.MetricsAddr)
	v.SetDefault("expire-sweep-interval", d.ExpireSweepInterval)
	v.SetDefault("log-path", d.LogPath)
	v.SetDefault("log-level", d.LogLevel)
}

// Load reads configFile (yaml, json or toml) on top of defaults, an empty name skips the file
func Load(v *viper.Viper, configFile string) (*ServerProperties, error) {
	SetDefaults(v)
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config %s", configFile)
		}
	}
	props := &ServerProperties{}
	if err := v.Unmarshal(props); err != nil {
		return nil, errors.Wrap(err, "parse config")
	}
	if err := props.validate(); err != nil {
		return nil, err
	}
	return props, nil
}

// Address is the listen address, IP:PORT
func (p *ServerProperties) Address() string {
	return fmt.Sprintf("%s:%d", p.Bind, p.Port)
}

func (p *ServerProperties) validate() error {
	if p.Port <= 0 || p.Port > 65535 {
		return errors.Errorf("invalid port %d", p.Port)
	}
	if p.ReadBuffer <= 0 {
		return errors.Errorf("invalid read-buffer %d", p.ReadBuffer)
	}
	// 0 表示不限制
	if p.MaxQueryBuffer < 0 {
		return errors.Errorf("invalid max-query-buffer %d", p.MaxQueryBuffer)
	}
	if p.MaxQueryBuffer != 0 && p.MaxQueryBuffer < p.ReadBuffer {
		return errors.Errorf("max-query-buffer %d is smaller than read-buffer %d", p.MaxQueryBuffer, p.ReadBuffer)
	}
	if p.ExpireSweepInterval < 0 {
		return errors.Errorf("invalid expire-sweep-interval %s", p.ExpireSweepInterval)
	}
	return nil
}
