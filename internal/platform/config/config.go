// Package config loads service configuration from a YAML file with
// environment-variable overrides, so main stays lean and deployments stay
// twelve-factor.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration struct.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Email    EmailConfig    `mapstructure:"email"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Workflow WorkflowConfig `mapstructure:"workflow"`
	Limits   LimitsConfig   `mapstructure:"limits"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxConns int    `mapstructure:"max_conns"`
}

// DSN returns the PostgreSQL connection string.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	URL          string        `mapstructure:"url"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type KafkaConfig struct {
	Brokers       []string      `mapstructure:"brokers"`
	Topic         string        `mapstructure:"topic"`
	FlushInterval time.Duration `mapstructure:"flush_interval"`
}

type EmailConfig struct {
	// Provider is "ses" or "log".
	Provider string `mapstructure:"provider"`
	Region   string `mapstructure:"region"`
	From     string `mapstructure:"from"`
}

type AuthConfig struct {
	JWTSigningKey string `mapstructure:"jwt_signing_key"`
	Issuer        string `mapstructure:"issuer"`
	Audience      string `mapstructure:"audience"`
}

// WorkflowConfig carries admission-workflow settings that are deployment
// facts rather than code. DefaultAgencyID is optional: routing follows the
// agency flagged is_default in the directory, and when the id is set the
// server refuses to start if it does not match that flag.
type WorkflowConfig struct {
	DefaultAgencyID       string `mapstructure:"default_agency_id"`
	MaxAcceptedPerStudent int    `mapstructure:"max_accepted_per_student"`
}

// LimitsConfig throttles mutating requests per actor. Writes set to zero
// disables throttling.
type LimitsConfig struct {
	Writes      int           `mapstructure:"writes"`
	WriteWindow time.Duration `mapstructure:"write_window"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}
