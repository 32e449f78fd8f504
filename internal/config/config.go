package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Ollama   OllamaConfig   `mapstructure:"ollama"`
	Models   ModelRoles     `mapstructure:"models"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Breaker  BreakerConfig  `mapstructure:"breaker"`
	Backoff  BackoffConfig  `mapstructure:"backoff"`
	Query    QueryConfig    `mapstructure:"query"`
	Prefetch PrefetchConfig `mapstructure:"prefetch"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	CORS     CORSConfig     `mapstructure:"cors"`
}

type ServerConfig struct {
	Port             int           `mapstructure:"port"`
	ReadTimeout      time.Duration `mapstructure:"read_timeout"`
	WriteTimeout     time.Duration `mapstructure:"write_timeout"`
	IdleTimeout      time.Duration `mapstructure:"idle_timeout"`
	GracefulShutdown time.Duration `mapstructure:"graceful_shutdown"`
}

type OllamaConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	CheckTimeout   time.Duration `mapstructure:"check_timeout"`
	PullTimeout    time.Duration `mapstructure:"pull_timeout"`
}

// ModelRoles names the model used for each task role. Three roles are
// configured; everything else is derived from them.
type ModelRoles struct {
	Proof   string `mapstructure:"proof"`
	Problem string `mapstructure:"problem"`
	General string `mapstructure:"general"`
}

type CacheConfig struct {
	Capacity int `mapstructure:"capacity"`
}

type BreakerConfig struct {
	Threshold int           `mapstructure:"threshold"`
	Cooldown  time.Duration `mapstructure:"cooldown"`
}

type BackoffConfig struct {
	Initial    time.Duration `mapstructure:"initial"`
	Max        time.Duration `mapstructure:"max"`
	Multiplier float64       `mapstructure:"multiplier"`
}

type QueryConfig struct {
	MaxAttempts    int           `mapstructure:"max_attempts"`
	MaxLatency     time.Duration `mapstructure:"max_latency"`
	MaxOutputBytes int           `mapstructure:"max_output_bytes"`
}

type PrefetchConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
	MinQueue int           `mapstructure:"min_queue"`
}

type StorageConfig struct {
	DataDir string `mapstructure:"data_dir"`
}

type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if configPath != "" {
		v.AddConfigPath(configPath)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/praxis")
	}

	setDefaults(v)

	v.SetEnvPrefix("PRAXIS")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8097)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 120*time.Second)
	v.SetDefault("server.idle_timeout", 120*time.Second)
	v.SetDefault("server.graceful_shutdown", 10*time.Second)

	v.SetDefault("ollama.base_url", "http://localhost:11434")
	v.SetDefault("ollama.request_timeout", 60*time.Second)
	v.SetDefault("ollama.check_timeout", 3*time.Second)
	v.SetDefault("ollama.pull_timeout", 30*time.Second)

	v.SetDefault("models.proof", "deepseek-r1:7b")
	v.SetDefault("models.problem", "qwen2-math:7b")
	v.SetDefault("models.general", "qwen2.5:7b-instruct")

	v.SetDefault("cache.capacity", 200)

	v.SetDefault("breaker.threshold", 5)
	v.SetDefault("breaker.cooldown", 30*time.Second)

	v.SetDefault("backoff.initial", 100*time.Millisecond)
	v.SetDefault("backoff.max", 5*time.Second)
	v.SetDefault("backoff.multiplier", 2.0)

	v.SetDefault("query.max_attempts", 3)
	v.SetDefault("query.max_latency", 60*time.Second)
	v.SetDefault("query.max_output_bytes", 40000)

	v.SetDefault("prefetch.enabled", true)
	v.SetDefault("prefetch.interval", 60*time.Second)
	v.SetDefault("prefetch.min_queue", 12)

	v.SetDefault("storage.data_dir", defaultDataDir())

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output_path", "stdout")

	v.SetDefault("cors.allowed_origins", []string{"http://localhost:1420", "http://localhost:5173"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Accept", "Content-Type"})
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "praxis")
	}
	return "data"
}

// Validate checks invariants that would otherwise surface as confusing
// runtime failures.
func (c *Config) Validate() error {
	if c.Cache.Capacity <= 0 {
		return fmt.Errorf("cache.capacity must be positive, got %d", c.Cache.Capacity)
	}
	if c.Query.MaxAttempts <= 0 {
		return fmt.Errorf("query.max_attempts must be positive, got %d", c.Query.MaxAttempts)
	}
	if c.Models.Proof == "" || c.Models.Problem == "" || c.Models.General == "" {
		return fmt.Errorf("all three model roles (proof, problem, general) must be set")
	}
	return nil
}
