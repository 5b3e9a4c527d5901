package config

import (
	"fmt"
	"os"
	"time"

	"github.com/dkeye/rtcpeer/internal/domain"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

type Config struct {
	Mode       string        `mapstructure:"mode"`
	Port       int           `mapstructure:"port"`
	StaticPath string        `mapstructure:"static_path"`
	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`
	SendQueue  int           `mapstructure:"send_queue"`
	Secret     string        `mapstructure:"secret"`
	LogLevel   string        `mapstructure:"log_level"`

	ICEServers           []domain.ICEServer `mapstructure:"ice_servers"`
	ICETransportPolicy   string             `mapstructure:"ice_transport_policy"`
	BundlePolicy         string             `mapstructure:"bundle_policy"`
	UDPPortMin           uint16             `mapstructure:"udp_port_min"`
	UDPPortMax           uint16             `mapstructure:"udp_port_max"`
	LoopbackCandidates   bool               `mapstructure:"loopback_candidates"`
	EventQueueSize       int                `mapstructure:"event_queue_size"`
	ExclusiveNegotiation bool               `mapstructure:"exclusive_negotiation"`
}

// Load reads config/config.<CONFIG_ENV>.yaml, "dev" when unset.
func Load() (*Config, error) {
	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	return LoadFile(fmt.Sprintf("config/config.%s.yaml", env))
}

// LoadFile falls back to defaults when fileName cannot be read.
func LoadFile(fileName string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(fileName)
	v.SetEnvPrefix("RTCPEER")
	v.AutomaticEnv()

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "./web")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("send_queue", 64)
	v.SetDefault("secret", "change-me")
	v.SetDefault("log_level", "info")
	v.SetDefault("ice_servers", []map[string]any{{"urls": []string{"stun:stun.l.google.com:19302"}}})
	v.SetDefault("event_queue_size", 256)

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("⚠️ Config file not found (%s), using defaults\n", fileName)
	} else {
		fmt.Printf("✅ Loaded config: %s\n", fileName)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.PeerConfiguration().Validate(); err != nil {
		return nil, fmt.Errorf("invalid peer configuration: %w", err)
	}
	fmt.Printf("🧩 Mode: %s | Port: %d | ICE servers: %d\n", cfg.Mode, cfg.Port, len(cfg.ICEServers))
	return &cfg, nil
}

// PeerConfiguration is the configuration handed to every new connection.
func (c *Config) PeerConfiguration() domain.Configuration {
	return domain.Configuration{
		ICEServers:         c.ICEServers,
		ICETransportPolicy: c.ICETransportPolicy,
		BundlePolicy:       c.BundlePolicy,
	}
}

// Level parses LogLevel, defaulting to info.
func (c *Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || c.LogLevel == "" {
		return zerolog.InfoLevel
	}
	return lvl
}
