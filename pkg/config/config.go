package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	// Server
	Port     string `mapstructure:"PORT"`
	Env      string `mapstructure:"ENV"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	// Database
	DatabaseURL string `mapstructure:"DATABASE_URL"`

	// Redis
	RedisURL     string        `mapstructure:"REDIS_URL"`
	CacheEnabled bool          `mapstructure:"CACHE_ENABLED"`
	CacheTTL     time.Duration `mapstructure:"CACHE_TTL"`

	// Optimization
	OptimizationTimeout int   `mapstructure:"OPTIMIZATION_TIMEOUT"`
	MaxSolverNodes      int64 `mapstructure:"MAX_SOLVER_NODES"`
	MaxPoolSize         int   `mapstructure:"MAX_POOL_SIZE"`
	RelaxationBound     bool  `mapstructure:"RELAXATION_BOUND"`

	// Rate limiting and resilience
	RateLimitRPS            float64 `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst          int     `mapstructure:"RATE_LIMIT_BURST"`
	CircuitBreakerThreshold int     `mapstructure:"CIRCUIT_BREAKER_THRESHOLD"`

	// Squad defaults used when a request omits constraints
	DefaultSquadSize        int    `mapstructure:"DEFAULT_SQUAD_SIZE"`
	DefaultMaxForeign       int    `mapstructure:"DEFAULT_MAX_FOREIGN"`
	DefaultMinBatters       int    `mapstructure:"DEFAULT_MIN_BATTERS"`
	DefaultMinBowlers       int    `mapstructure:"DEFAULT_MIN_BOWLERS"`
	DefaultMinAllRounders   int    `mapstructure:"DEFAULT_MIN_ALL_ROUNDERS"`
	DefaultMinWicketKeepers int    `mapstructure:"DEFAULT_MIN_WICKETKEEPERS"`
	DefaultFormat           string `mapstructure:"DEFAULT_FORMAT"`

	CorsOrigins []string `mapstructure:"CORS_ORIGINS"`
}

// LoadConfig reads settings from the environment and an optional .env
// file in the working directory or its parent.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("..")

	setDefaults(v)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if corsStr := v.GetString("CORS_ORIGINS"); corsStr != "" {
		config.CorsOrigins = strings.Split(corsStr, ",")
	}

	if err := config.validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DATABASE_URL", "sqlite://bestxi.db")
	v.SetDefault("REDIS_URL", "redis://localhost:6379/0")
	v.SetDefault("CACHE_ENABLED", true)
	v.SetDefault("CACHE_TTL", "1h")
	v.SetDefault("OPTIMIZATION_TIMEOUT", 30) // seconds
	v.SetDefault("MAX_SOLVER_NODES", 5000000)
	v.SetDefault("MAX_POOL_SIZE", 1000)
	v.SetDefault("RELAXATION_BOUND", false)
	v.SetDefault("RATE_LIMIT_RPS", 10)
	v.SetDefault("RATE_LIMIT_BURST", 20)
	v.SetDefault("CIRCUIT_BREAKER_THRESHOLD", 5) // consecutive failures before the cache is bypassed
	v.SetDefault("CORS_ORIGINS", "http://localhost:5173,http://localhost:3000")

	v.SetDefault("DEFAULT_SQUAD_SIZE", 11)
	v.SetDefault("DEFAULT_MAX_FOREIGN", 4)
	v.SetDefault("DEFAULT_MIN_BATTERS", 3)
	v.SetDefault("DEFAULT_MIN_BOWLERS", 3)
	v.SetDefault("DEFAULT_MIN_ALL_ROUNDERS", 2)
	v.SetDefault("DEFAULT_MIN_WICKETKEEPERS", 1)
	v.SetDefault("DEFAULT_FORMAT", "T20")
}

func (c *Config) validate() error {
	if c.OptimizationTimeout <= 0 {
		return fmt.Errorf("OPTIMIZATION_TIMEOUT must be positive, got %d", c.OptimizationTimeout)
	}
	if c.MaxPoolSize <= 0 {
		return fmt.Errorf("MAX_POOL_SIZE must be positive, got %d", c.MaxPoolSize)
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit must be positive, got %.2f rps burst %d", c.RateLimitRPS, c.RateLimitBurst)
	}
	return nil
}

// SolveTimeout is the per-request optimization deadline.
func (c *Config) SolveTimeout() time.Duration {
	return time.Duration(c.OptimizationTimeout) * time.Second
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
