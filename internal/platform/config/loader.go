package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configs/config.yaml (if present), merges an environment-specific
// overlay, and lets environment variables override individual keys, e.g.
// POSTGRES_PASSWORD overrides postgres.password.
func Load() (*Config, error) {
	// .env is a development convenience; absence is not an error.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	applyDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	env := v.GetString("app_environment")
	if env != "" {
		v.SetConfigName("config." + env)
		_ = v.MergeInConfig()
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func applyDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.request_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.database", "connect2uni")
	v.SetDefault("postgres.user", "connect2uni")
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.max_conns", 20)

	v.SetDefault("kafka.topic", "admissions.workflow-events")
	v.SetDefault("kafka.flush_interval", 5*time.Second)

	v.SetDefault("email.provider", "log")
	v.SetDefault("email.from", "no-reply@connect2uni.example")

	v.SetDefault("auth.issuer", "connect2uni")
	v.SetDefault("auth.audience", "connect2uni-api")

	v.SetDefault("workflow.max_accepted_per_student", 3)

	v.SetDefault("limits.writes", 60)
	v.SetDefault("limits.write_window", time.Minute)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

func validate(cfg *Config) error {
	if cfg.Auth.JWTSigningKey == "" {
		return fmt.Errorf("auth.jwt_signing_key is required")
	}
	if cfg.Workflow.MaxAcceptedPerStudent <= 0 {
		return fmt.Errorf("workflow.max_accepted_per_student must be positive")
	}
	return nil
}
