// Package config loads the proxy's YAML configuration using the same
// viper-based convention the rest of this code's lineage uses: typed
// defaults, environment-variable overlay, and a mapstructure-tagged
// struct for the final unmarshal.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Mode selects which of the two listener topologies a proxy runs.
type Mode string

const (
	ModeHostname Mode = "hostname"
	ModePortSpan Mode = "port_span"
)

type MOTD struct {
	Text         string `mapstructure:"text" yaml:"text"`
	ProtocolName string `mapstructure:"protocol_name" yaml:"protocol_name"`
}

type UnknownHost struct {
	KickMessage string `mapstructure:"kick_message" yaml:"kick_message"`
	MOTD        MOTD   `mapstructure:"motd" yaml:"motd"`
}

type OfflineServer struct {
	KickMessage     string `mapstructure:"kick_message" yaml:"kick_message"`
	StartingMessage string `mapstructure:"starting_message" yaml:"starting_message"`
	MOTD            MOTD   `mapstructure:"motd" yaml:"motd"`
}

type PortRange struct {
	Start int `mapstructure:"start" yaml:"start"`
	End   int `mapstructure:"end" yaml:"end"`
}

// LoggingConfig controls the rotating log file the process writes
// alongside its stdout output.
type LoggingConfig struct {
	Enabled    bool   `mapstructure:"enabled" yaml:"enabled"`
	FilePath   string `mapstructure:"file_path" yaml:"file_path"`
	MaxSize    int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge     int    `mapstructure:"max_age" yaml:"max_age"`
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

// Config is the core's immutable view of config.yml for the lifetime
// of the process.
type Config struct {
	ListenAddr    string        `mapstructure:"listen_addr" yaml:"listen_addr"`
	PortRange     PortRange     `mapstructure:"port_range" yaml:"port_range"`
	BackendServer string        `mapstructure:"backend_server" yaml:"backend_server"`
	UnknownHost   UnknownHost   `mapstructure:"unknown_host" yaml:"unknown_host"`
	OfflineServer OfflineServer `mapstructure:"offline_server" yaml:"offline_server"`
	AutoStart     bool          `mapstructure:"auto_start" yaml:"auto_start"`
	PanelLink     string        `mapstructure:"panel_link" yaml:"panel_link"`
	APIKey        string        `mapstructure:"api_key" yaml:"api_key"`
	Logging       LoggingConfig `mapstructure:"logging" yaml:"logging"`

	RoutingTablePath string `mapstructure:"routing_table_path" yaml:"routing_table_path"`
}

// Mode reports which listener topology this config describes: a
// nonzero port range means port-span mode, otherwise hostname mode.
func (c *Config) Mode() Mode {
	if c.PortRange.Start > 0 && c.PortRange.End > 0 {
		return ModePortSpan
	}
	return ModeHostname
}

func defaults() Config {
	return Config{
		ListenAddr:    "0.0.0.0:25565",
		BackendServer: "127.0.0.1:25565",
		UnknownHost: UnknownHost{
			KickMessage: "madproxy\n\nInvalid address",
			MOTD: MOTD{
				Text:         "Unknown host!\nPlease use a valid address to connect.",
				ProtocolName: "madproxy",
			},
		},
		OfflineServer: OfflineServer{
			KickMessage:     "madproxy\n\nServer is offline",
			StartingMessage: "madproxy\n\nServer is starting...",
			MOTD: MOTD{
				Text:         "Server is offline!\nPlease try again later.",
				ProtocolName: "Server Offline",
			},
		},
		AutoStart:        false,
		RoutingTablePath: "servers.json",
		Logging: LoggingConfig{
			Enabled:    true,
			FilePath:   "madproxy.log",
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     28,
			Compress:   true,
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := defaults()

	v.SetDefault("listen_addr", d.ListenAddr)
	v.SetDefault("backend_server", d.BackendServer)
	v.SetDefault("port_range.start", 0)
	v.SetDefault("port_range.end", 0)
	v.SetDefault("unknown_host.kick_message", d.UnknownHost.KickMessage)
	v.SetDefault("unknown_host.motd.text", d.UnknownHost.MOTD.Text)
	v.SetDefault("unknown_host.motd.protocol_name", d.UnknownHost.MOTD.ProtocolName)
	v.SetDefault("offline_server.kick_message", d.OfflineServer.KickMessage)
	v.SetDefault("offline_server.starting_message", d.OfflineServer.StartingMessage)
	v.SetDefault("offline_server.motd.text", d.OfflineServer.MOTD.Text)
	v.SetDefault("offline_server.motd.protocol_name", d.OfflineServer.MOTD.ProtocolName)
	v.SetDefault("auto_start", d.AutoStart)
	v.SetDefault("panel_link", "")
	v.SetDefault("api_key", "")
	v.SetDefault("logging.enabled", d.Logging.Enabled)
	v.SetDefault("logging.file_path", d.Logging.FilePath)
	v.SetDefault("logging.max_size", d.Logging.MaxSize)
	v.SetDefault("logging.max_backups", d.Logging.MaxBackups)
	v.SetDefault("logging.max_age", d.Logging.MaxAge)
	v.SetDefault("logging.compress", d.Logging.Compress)
	v.SetDefault("routing_table_path", d.RoutingTablePath)
}

// Load reads config.yml from configPath (a directory). If the file
// does not exist, the resolved defaults are written to disk before
// being returned, so operators always get a starting file to edit.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/madproxy")

	setDefaults(v)

	v.SetEnvPrefix("MADPROXY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	notFound := false
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		notFound = true
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	if notFound {
		if err := writeDefault(configPath, &cfg); err != nil {
			return nil, fmt.Errorf("write default config: %w", err)
		}
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.PortRange.Start > 0 || cfg.PortRange.End > 0 {
		if cfg.PortRange.Start <= 0 || cfg.PortRange.End <= 0 {
			return fmt.Errorf("port_range.start and port_range.end must both be set")
		}
		if cfg.PortRange.Start > cfg.PortRange.End {
			return fmt.Errorf("port_range.start must be <= port_range.end")
		}
		if cfg.BackendServer == "" {
			return fmt.Errorf("backend_server is required in port-span mode")
		}
	} else if cfg.ListenAddr == "" {
		return fmt.Errorf("listen_addr is required in hostname mode")
	}
	return nil
}

func writeDefault(configPath string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	dir := configPath
	if dir == "" {
		dir = "."
	}
	return os.WriteFile(filepath.Join(dir, "config.yml"), data, 0o644)
}
