package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "MSSAUTO_"

type Config struct {
	Servers  []ServerConfig         `koanf:"servers"`
	Phones   map[string]PhoneConfig `koanf:"phones"`
	Timeouts TimeoutConfig          `koanf:"timeouts"`
	Commands CommandConfig          `koanf:"commands"`
	Patterns PatternConfig          `koanf:"patterns"`
	Logging  LoggingConfig          `koanf:"logging"`
}

type ServerConfig struct {
	Name     string `koanf:"name"`
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
}

type PhoneConfig struct {
	Addr   string `koanf:"addr"`
	MSISDN string `koanf:"msisdn"`
}

type TimeoutConfig struct {
	Read    time.Duration `koanf:"read"`
	Connect time.Duration `koanf:"connect"`
	Banner  time.Duration `koanf:"banner"`
	Process time.Duration `koanf:"process"`
}

type CommandConfig struct {
	CheckSubscriber []string `koanf:"check_subscriber"`
}

type PatternConfig struct {
	NotFound []string `koanf:"not_found"`
	Found    []string `koanf:"found"`
	Abort    []string `koanf:"abort"`
}

type LoggingConfig struct {
	Dir   string `koanf:"dir"`
	Level string `koanf:"level"`
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	// Env overrides, e.g. MSSAUTO_LOGGING_LEVEL=debug.
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "_", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("load env overrides: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Timeouts.Read == 0 {
		c.Timeouts.Read = 6 * time.Second
	}
	if c.Timeouts.Connect == 0 {
		c.Timeouts.Connect = 10 * time.Second
	}
	if c.Timeouts.Banner == 0 {
		c.Timeouts.Banner = time.Second
	}
	if c.Timeouts.Process == 0 {
		c.Timeouts.Process = 10 * time.Second
	}
	if c.Logging.Dir == "" {
		c.Logging.Dir = "logs"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	for i := range c.Servers {
		if c.Servers[i].Port == 0 {
			c.Servers[i].Port = 22
		}
	}
	if len(c.Patterns.Abort) == 0 {
		c.Patterns.Abort = []string{"UNKNOWN SUBSCRIBER", "DX ERROR"}
	}
}

// Validate rejects configurations that would make a run meaningless.
// A failure here is fatal for the process.
func (c *Config) Validate() error {
	if len(c.Servers) == 0 {
		return fmt.Errorf("config: no servers defined")
	}
	for _, s := range c.Servers {
		if s.Name == "" || s.Host == "" || s.User == "" {
			return fmt.Errorf("config: server %q missing name, host or user", s.Name)
		}
	}
	if len(c.Commands.CheckSubscriber) == 0 {
		return fmt.Errorf("config: commands.check_subscriber is empty")
	}
	if len(c.Patterns.NotFound) == 0 {
		return fmt.Errorf("config: patterns.not_found is empty")
	}
	if len(c.Patterns.Found) == 0 {
		return fmt.Errorf("config: patterns.found is empty")
	}
	return nil
}

// ValidatePhones is required only by the phonecall binary; the subscriber
// search runs fine without any handsets configured.
func (c *Config) ValidatePhones() error {
	if len(c.Phones) == 0 {
		return fmt.Errorf("config: no phones defined")
	}
	for id, p := range c.Phones {
		if p.Addr == "" || p.MSISDN == "" {
			return fmt.Errorf("config: phone %q missing addr or msisdn", id)
		}
	}
	return nil
}
