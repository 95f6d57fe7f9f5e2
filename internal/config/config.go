package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Mode     string `mapstructure:"mode"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	LogLevel string `mapstructure:"log_level"`

	NegotiateTimeout time.Duration `mapstructure:"negotiate_timeout"`
	ShutdownTimeout  time.Duration `mapstructure:"shutdown_timeout"`

	STUNServers []string `mapstructure:"stun_servers"`
	UDPPortMin  uint16   `mapstructure:"udp_port_min"`
	UDPPortMax  uint16   `mapstructure:"udp_port_max"`
	PublicIPs   []string `mapstructure:"public_ips"`

	OfferRateLimit    int           `mapstructure:"offer_rate_limit"`
	OfferRateInterval time.Duration `mapstructure:"offer_rate_interval"`

	RecordDir   string   `mapstructure:"record_dir"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.SetEnvPrefix("AUDIOINGEST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("mode", "release")
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", 8080)
	v.SetDefault("log_level", "info")
	v.SetDefault("negotiate_timeout", "10s")
	v.SetDefault("shutdown_timeout", "5s")
	v.SetDefault("stun_servers", []string{"stun:stun.l.google.com:19302"})
	v.SetDefault("udp_port_min", 0)
	v.SetDefault("udp_port_max", 0)
	v.SetDefault("public_ips", []string{})
	v.SetDefault("offer_rate_limit", 0)
	v.SetDefault("offer_rate_interval", "1m")
	v.SetDefault("record_dir", "")
	v.SetDefault("cors_origins", []string{"*"})

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log.Info().
		Str("module", "config").
		Str("mode", cfg.Mode).
		Str("addr", cfg.Addr()).
		Str("record_dir", cfg.RecordDir).
		Msg("config ready")
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port out of range: %d", c.Port))
	}
	if c.UDPPortMax != 0 && c.UDPPortMin > c.UDPPortMax {
		errs = append(errs, fmt.Errorf("udp port range inverted: %d > %d", c.UDPPortMin, c.UDPPortMax))
	}
	if c.NegotiateTimeout <= 0 {
		errs = append(errs, errors.New("negotiate_timeout must be positive"))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("shutdown_timeout must be positive"))
	}
	if c.OfferRateLimit > 0 && c.OfferRateInterval <= 0 {
		errs = append(errs, errors.New("offer_rate_interval must be positive when offer_rate_limit is set"))
	}
	return errors.Join(errs...)
}
