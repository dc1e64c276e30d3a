package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/matjmiles/healthcare-job-organizer/internal/location"
	"github.com/matjmiles/healthcare-job-organizer/internal/role"
	"github.com/matjmiles/healthcare-job-organizer/internal/rules"
)

const (
	// MinPort is the minimum valid port number
	MinPort = 1
	// MaxPort is the maximum valid port number
	MaxPort = 65535
)

// Config represents the complete application configuration
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	RabbitMQ   RabbitMQConfig   `yaml:"rabbitmq"`
	Redis      RedisConfig      `yaml:"redis"`
	Logging    LoggingConfig    `yaml:"logging"`
	App        AppConfig        `yaml:"app"`
	Worker     WorkerConfig     `yaml:"worker"`
	Collector  CollectorConfig  `yaml:"collector"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Scheduler  SchedulerConfig  `yaml:"scheduler"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig holds PostgreSQL connection configuration
type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Database        string        `yaml:"database"`
	SSLMode         string        `yaml:"sslmode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
}

// RabbitMQConfig holds RabbitMQ connection and exchange/queue configuration.
// The queue is bound to RoutingKey; Events names the keys the worker
// publishes on.
type RabbitMQConfig struct {
	Host       string           `yaml:"host"`
	Port       int              `yaml:"port"`
	User       string           `yaml:"user"`
	Password   string           `yaml:"password"`
	VHost      string           `yaml:"vhost"`
	Exchange   ExchangeConfig   `yaml:"exchange"`
	Queue      QueueConfig      `yaml:"queue"`
	RoutingKey string           `yaml:"routing_key"`
	Events     EventsConfig     `yaml:"events"`
	Connection ConnectionConfig `yaml:"connection"`
	Publish    PublishConfig    `yaml:"publish"`
	Consumer   ConsumerConfig   `yaml:"consumer"`
}

// ExchangeConfig holds RabbitMQ exchange configuration
type ExchangeConfig struct {
	Name       string `yaml:"name"`
	Type       string `yaml:"type"`
	Durable    bool   `yaml:"durable"`
	AutoDelete bool   `yaml:"auto_delete"`
}

// QueueConfig holds RabbitMQ queue configuration
type QueueConfig struct {
	Name       string `yaml:"name"`
	Durable    bool   `yaml:"durable"`
	AutoDelete bool   `yaml:"auto_delete"`
	Exclusive  bool   `yaml:"exclusive"`
}

// EventsConfig holds the routing keys of published domain events
type EventsConfig struct {
	JobClassified string `yaml:"job_classified"`
	RunCompleted  string `yaml:"run_completed"`
}

// ConnectionConfig holds RabbitMQ connection settings
type ConnectionConfig struct {
	RetryAttempts int           `yaml:"retry_attempts"`
	RetryInterval time.Duration `yaml:"retry_interval"`
	Heartbeat     time.Duration `yaml:"heartbeat"`
}

// PublishConfig holds RabbitMQ publish retry settings
type PublishConfig struct {
	RetryAttempts     int           `yaml:"retry_attempts"`
	RetryInterval     time.Duration `yaml:"retry_interval"`
	BackoffMultiplier float64       `yaml:"backoff_multiplier"`
}

// ConsumerConfig holds RabbitMQ consumer settings
type ConsumerConfig struct {
	PrefetchCount int `yaml:"prefetch_count"`
}

// RedisConfig holds the seen-cache connection
type RedisConfig struct {
	URL       string        `yaml:"url"`
	SeenTTL   time.Duration `yaml:"seen_ttl"`
	KeyPrefix string        `yaml:"key_prefix"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level        string `yaml:"level"`
	Format       string `yaml:"format"`
	Output       string `yaml:"output"`
	EnableCaller bool   `yaml:"enable_caller"`
}

// AppConfig holds application metadata
type AppConfig struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Environment string `yaml:"environment"`
}

// WorkerConfig holds worker service configuration. RunTimeout bounds one
// collection run.
type WorkerConfig struct {
	Concurrency       int           `yaml:"concurrency"`
	RunTimeout        time.Duration `yaml:"run_timeout"`
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
	MaxRetries        int           `yaml:"max_retries"`
}

// CollectorConfig holds ATS fetch settings
type CollectorConfig struct {
	EmployersPath     string        `yaml:"employers_path"`
	OutputDir         string        `yaml:"output_dir"`
	Concurrency       int           `yaml:"concurrency"`
	RequestTimeout    time.Duration `yaml:"request_timeout"`
	MaxRetries        int           `yaml:"max_retries"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Burst             int           `yaml:"burst"`
	UserAgent         string        `yaml:"user_agent"`
}

// ClassifierConfig selects the rule set and location gate. Weights override
// individual category weights of the named rule set.
type ClassifierConfig struct {
	RuleSet      string         `yaml:"rule_set"`
	Weights      map[string]int `yaml:"weights"`
	TargetStates []string       `yaml:"target_states"`
	AllowRemote  *bool          `yaml:"allow_remote"`
	Headings     []string       `yaml:"qualification_headings"`
	Roles        *role.Lexicon  `yaml:"roles"`
}

// RemoteAllowed reports whether remote postings pass the location gate
func (c ClassifierConfig) RemoteAllowed() bool {
	return c.AllowRemote == nil || *c.AllowRemote
}

// SchedulerConfig holds the periodic collection trigger
type SchedulerConfig struct {
	Enabled    bool          `yaml:"enabled"`
	Spec       string        `yaml:"spec"`
	RunOnStart bool          `yaml:"run_on_start"`
	Timeout    time.Duration `yaml:"timeout"`
}

// Load reads and parses the configuration file, then applies environment
// overrides and defaults
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	config.applyDefaults()

	return &config, nil
}

// Default returns the built-in configuration with environment overrides
// applied, for tools that run without a config file
func Default() (*Config, error) {
	var config Config
	if err := config.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	config.applyDefaults()
	return &config, nil
}

// applyEnv overrides secrets and endpoints from the environment
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := []struct {
		key string
		dst *string
	}{
		{"DB_HOST", &c.Database.Host},
		{"DB_USER", &c.Database.User},
		{"DB_PASSWORD", &c.Database.Password},
		{"DB_NAME", &c.Database.Database},
		{"RABBITMQ_HOST", &c.RabbitMQ.Host},
		{"RABBITMQ_USER", &c.RabbitMQ.User},
		{"RABBITMQ_PASSWORD", &c.RabbitMQ.Password},
		{"REDIS_URL", &c.Redis.URL},
		{"EMPLOYERS_PATH", &c.Collector.EmployersPath},
	}
	for _, s := range strs {
		if v, ok := lookup(s.key); ok && v != "" {
			*s.dst = v
		}
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"SERVER_PORT", &c.Server.Port},
		{"DB_PORT", &c.Database.Port},
		{"RABBITMQ_PORT", &c.RabbitMQ.Port},
	}
	for _, i := range ints {
		v, ok := lookup(i.key)
		if !ok || v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", i.key, v, err)
		}
		*i.dst = n
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = 15 * time.Second
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.RabbitMQ.Exchange.Type == "" {
		c.RabbitMQ.Exchange.Type = "topic"
	}
	if c.RabbitMQ.RoutingKey == "" {
		c.RabbitMQ.RoutingKey = "run.requested"
	}
	if c.RabbitMQ.Events.JobClassified == "" {
		c.RabbitMQ.Events.JobClassified = "job.classified"
	}
	if c.RabbitMQ.Events.RunCompleted == "" {
		c.RabbitMQ.Events.RunCompleted = "run.completed"
	}
	if c.RabbitMQ.Connection.RetryAttempts <= 0 {
		c.RabbitMQ.Connection.RetryAttempts = 5
	}
	if c.RabbitMQ.Consumer.PrefetchCount <= 0 {
		c.RabbitMQ.Consumer.PrefetchCount = 1
	}

	if c.Worker.Concurrency <= 0 {
		c.Worker.Concurrency = 1
	}
	if c.Worker.RunTimeout <= 0 {
		c.Worker.RunTimeout = 30 * time.Minute
	}
	if c.Worker.HeartbeatInterval <= 0 {
		c.Worker.HeartbeatInterval = 30 * time.Second
	}
	if c.Worker.ShutdownTimeout <= 0 {
		c.Worker.ShutdownTimeout = 30 * time.Second
	}

	if c.Collector.Concurrency <= 0 {
		c.Collector.Concurrency = 4
	}
	if c.Collector.RequestTimeout <= 0 {
		c.Collector.RequestTimeout = 20 * time.Second
	}
	if c.Collector.MaxRetries <= 0 {
		c.Collector.MaxRetries = 2
	}
	if c.Collector.RequestsPerSecond <= 0 {
		c.Collector.RequestsPerSecond = 2
	}
	if c.Collector.Burst <= 0 {
		c.Collector.Burst = 2
	}
	if c.Collector.OutputDir == "" {
		c.Collector.OutputDir = "output"
	}

	if c.Classifier.RuleSet == "" {
		c.Classifier.RuleSet = rules.StandardName
	}
	c.Classifier.TargetStates = location.ExpandTargets(c.Classifier.TargetStates)

	if c.Scheduler.Spec == "" {
		c.Scheduler.Spec = "@every 6h"
	}
	if c.Redis.SeenTTL <= 0 {
		c.Redis.SeenTTL = 90 * 24 * time.Hour
	}
}

// ValidateAPIConfig checks the settings the API service needs
func (c *Config) ValidateAPIConfig() error {
	if c.Server.Port < MinPort || c.Server.Port > MaxPort {
		return fmt.Errorf("invalid server port: %d (must be between %d and %d)", c.Server.Port, MinPort, MaxPort)
	}
	if err := c.validateDatabase(); err != nil {
		return err
	}
	if err := c.validateRabbitMQ(); err != nil {
		return err
	}
	return c.validateClassifier()
}

// ValidateWorkerConfig checks the settings the worker service needs
func (c *Config) ValidateWorkerConfig() error {
	if err := c.validateDatabase(); err != nil {
		return err
	}
	if err := c.validateRabbitMQ(); err != nil {
		return err
	}

	if c.Worker.Concurrency <= 0 {
		return fmt.Errorf("worker concurrency must be greater than 0")
	}
	if c.Worker.RunTimeout <= 0 {
		return fmt.Errorf("worker run_timeout must be greater than 0")
	}
	if c.Worker.HeartbeatInterval <= 0 {
		return fmt.Errorf("worker heartbeat_interval must be greater than 0")
	}
	if c.Worker.ShutdownTimeout <= 0 {
		return fmt.Errorf("worker shutdown_timeout must be greater than 0")
	}
	if c.Worker.MaxRetries < 0 {
		return fmt.Errorf("worker max_retries must not be negative")
	}

	return c.ValidateCollectorConfig()
}

// ValidateCollectorConfig checks the fetch and classification settings used
// by the worker and the CLI collect command
func (c *Config) ValidateCollectorConfig() error {
	if c.Collector.EmployersPath == "" {
		return fmt.Errorf("collector employers_path is required")
	}
	if c.Collector.Concurrency <= 0 {
		return fmt.Errorf("collector concurrency must be greater than 0")
	}
	if c.Collector.RequestTimeout <= 0 {
		return fmt.Errorf("collector request_timeout must be greater than 0")
	}
	if c.Collector.MaxRetries < 0 {
		return fmt.Errorf("collector max_retries must not be negative")
	}
	if c.Collector.RequestsPerSecond <= 0 {
		return fmt.Errorf("collector requests_per_second must be greater than 0")
	}
	return c.validateClassifier()
}

func (c *Config) validateDatabase() error {
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.Port < MinPort || c.Database.Port > MaxPort {
		return fmt.Errorf("invalid database port: %d (must be between %d and %d)", c.Database.Port, MinPort, MaxPort)
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}
	return nil
}

func (c *Config) validateRabbitMQ() error {
	if c.RabbitMQ.Host == "" {
		return fmt.Errorf("rabbitmq host is required")
	}
	if c.RabbitMQ.Port < MinPort || c.RabbitMQ.Port > MaxPort {
		return fmt.Errorf("invalid rabbitmq port: %d (must be between %d and %d)", c.RabbitMQ.Port, MinPort, MaxPort)
	}
	if c.RabbitMQ.Exchange.Name == "" {
		return fmt.Errorf("rabbitmq exchange name is required")
	}
	if c.RabbitMQ.Queue.Name == "" {
		return fmt.Errorf("rabbitmq queue name is required")
	}
	return nil
}

func (c *Config) validateClassifier() error {
	var errs []error
	if _, err := rules.Lookup(c.Classifier.RuleSet, c.Classifier.Weights); err != nil {
		errs = append(errs, fmt.Errorf("classifier rule_set: %w", err))
	}
	for _, s := range c.Classifier.TargetStates {
		if !location.IsState(s) {
			errs = append(errs, fmt.Errorf("classifier target_states: unknown state %q", s))
		}
	}
	return errors.Join(errs...)
}
