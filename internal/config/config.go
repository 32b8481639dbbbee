package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-yaml/yaml"
)

type Config struct {
	Server Server `yaml:"server"`
	Auth   Auth   `yaml:"auth"`
}

type Server struct {
	ListenAddr    string `yaml:"listenAddr"`
	PostgresDsn   string `yaml:"postgresDsn"`
	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"redisPassword"`
	RedisDB       int    `yaml:"redisDB"`
	MemcachedAddr string `yaml:"memcachedAddr"`
	EnableTrace   bool   `yaml:"enableTrace"`
	TraceEndpoint string `yaml:"traceEndpoint"`
	EventChannel  string `yaml:"eventChannel"`
	LogLevel      string `yaml:"logLevel"` // debug, info, warn, error
}

type Auth struct {
	JwtSecret         string        `yaml:"jwtSecret"`
	Issuer            string        `yaml:"issuer"`
	PrincipalCacheTTL time.Duration `yaml:"principalCacheTTL"`
}

const DefaultPath = "/etc/soscomida/config.yaml"

// Path returns the config location, overridable with SOSCOMIDA_CONFIG.
func Path() string {
	if p := os.Getenv("SOSCOMIDA_CONFIG"); p != "" {
		return p
	}
	return DefaultPath
}

func Load(path string) (Config, error) {

	file, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer file.Close()

	var config Config
	err = yaml.NewDecoder(file).Decode(&config)
	if err != nil {
		return Config{}, err
	}

	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return Config{}, err
	}

	return config, nil
}

func (c *Config) applyDefaults() {
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = ":8000"
	}
	if c.Server.EventChannel == "" {
		c.Server.EventChannel = "soscomida:events"
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}
	if c.Auth.PrincipalCacheTTL <= 0 {
		c.Auth.PrincipalCacheTTL = 5 * time.Minute
	}
}

func (c Config) Validate() error {
	if c.Server.PostgresDsn == "" {
		return fmt.Errorf("server.postgresDsn is required")
	}
	if c.Server.RedisAddr == "" {
		return fmt.Errorf("server.redisAddr is required")
	}
	if c.Server.MemcachedAddr == "" {
		return fmt.Errorf("server.memcachedAddr is required")
	}
	if c.Server.EnableTrace && c.Server.TraceEndpoint == "" {
		return fmt.Errorf("server.traceEndpoint is required when tracing is enabled")
	}
	if len(c.Auth.JwtSecret) < 16 {
		return fmt.Errorf("auth.jwtSecret must be at least 16 bytes")
	}
	if c.Auth.Issuer == "" {
		return fmt.Errorf("auth.issuer is required")
	}
	switch c.Server.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("server.logLevel %q is not one of debug, info, warn, error", c.Server.LogLevel)
	}
	return nil
}
