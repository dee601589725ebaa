package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is read when CONFIG_FILE is unset. It is optional.
const DefaultConfigFile = "config/archviz.yaml"

// Storage backends
const (
	StorageFilesystem = "filesystem"
	StorageMemory     = "memory"
	StorageDynamoDB   = "dynamodb"
)

// Renderer backends
const (
	RendererProcess = "process"
	RendererRemote  = "remote"
)

// Metrics sinks
const (
	MetricsSinkPrometheus = "prometheus"
	MetricsSinkCloudWatch = "cloudwatch"
)

// Config holds all application configuration
type Config struct {
	Environment string `yaml:"environment"`
	LogLevel    string `yaml:"logLevel"`

	Server        ServerConfig        `yaml:"server"`
	Storage       StorageConfig       `yaml:"storage"`
	Renderer      RendererConfig      `yaml:"renderer"`
	Events        EventsConfig        `yaml:"events"`
	Observability ObservabilityConfig `yaml:"observability"`
	CORS          CORSConfig          `yaml:"cors"`

	// File is the YAML file the config was layered from, empty if none
	File string `yaml:"-"`
}

// ServerConfig configures the HTTP listener
type ServerConfig struct {
	Address         string        `yaml:"address"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	IdleTimeout     time.Duration `yaml:"idleTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	MaxBodyBytes    int64         `yaml:"maxBodyBytes"`
}

// StorageConfig selects and configures the diagram store
type StorageConfig struct {
	Backend       string `yaml:"backend"`
	DiagramsDir   string `yaml:"diagramsDir"`
	DynamoDBTable string `yaml:"dynamodbTable"`
	AWSRegion     string `yaml:"awsRegion"`
}

// RendererConfig selects and configures the diagram renderer
type RendererConfig struct {
	Backend string        `yaml:"backend"`
	Timeout time.Duration `yaml:"timeout"`

	// process backend
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
	JarPath string   `yaml:"jarPath"`

	// remote backend
	RemoteURL string        `yaml:"remoteUrl"`
	Breaker   BreakerConfig `yaml:"breaker"`
}

// BreakerConfig tunes the remote renderer circuit breaker
type BreakerConfig struct {
	MaxRequests  uint32        `yaml:"maxRequests"`
	Interval     time.Duration `yaml:"interval"`
	OpenTimeout  time.Duration `yaml:"openTimeout"`
	FailureRatio float64       `yaml:"failureRatio"`
	MinRequests  uint32        `yaml:"minRequests"`
}

// EventsConfig configures domain event publishing
type EventsConfig struct {
	Enabled      bool   `yaml:"enabled"`
	EventBusName string `yaml:"eventBusName"`
	Source       string `yaml:"source"`
}

// ObservabilityConfig configures metrics and tracing
type ObservabilityConfig struct {
	EnableMetrics bool    `yaml:"enableMetrics"`
	EnableTracing bool    `yaml:"enableTracing"`
	ServiceName   string  `yaml:"serviceName"`
	OTLPEndpoint  string  `yaml:"otlpEndpoint"`
	SampleRate    float64 `yaml:"sampleRate"`

	// MetricsSink selects where metrics go: scraped from /metrics, or pushed
	// to CloudWatch where nothing scrapes (Lambda).
	MetricsSink      string        `yaml:"metricsSink"`
	MetricsNamespace string        `yaml:"metricsNamespace"`
	FlushInterval    time.Duration `yaml:"flushInterval"`
}

// CORSConfig configures cross-origin access to the API
type CORSConfig struct {
	Enabled        bool     `yaml:"enabled"`
	AllowedOrigins []string `yaml:"allowedOrigins"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Environment: "development",
		LogLevel:    "info",
		Server: ServerConfig{
			Address:         ":3000",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			MaxBodyBytes:    1 << 20,
		},
		Storage: StorageConfig{
			Backend:       StorageFilesystem,
			DiagramsDir:   "diagrams",
			DynamoDBTable: "archviz",
			AWSRegion:     "us-west-2",
		},
		Renderer: RendererConfig{
			Backend: RendererProcess,
			Timeout: 10 * time.Second,
			Command: "java",
			JarPath: "lib/plantuml.jar",
			Breaker: BreakerConfig{
				MaxRequests:  3,
				Interval:     time.Minute,
				OpenTimeout:  30 * time.Second,
				FailureRatio: 0.6,
				MinRequests:  5,
			},
		},
		Events: EventsConfig{
			EventBusName: "archviz-events",
			Source:       "archviz.diagrams",
		},
		Observability: ObservabilityConfig{
			ServiceName:   "archviz",
			OTLPEndpoint:  "localhost:4317",
			SampleRate:    1.0,
			MetricsSink:   MetricsSinkPrometheus,
			FlushInterval: time.Minute,
		},
		CORS: CORSConfig{
			Enabled:        true,
			AllowedOrigins: []string{"*"},
		},
	}
}

// LoadConfig layers defaults, the optional YAML file and environment variables
func LoadConfig() (*Config, error) {
	path, explicit := os.LookupEnv("CONFIG_FILE")
	if !explicit {
		path = DefaultConfigFile
	}

	cfg := Default()
	if err := cfg.mergeFile(path); err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			path = ""
		} else {
			return nil, err
		}
	}
	cfg.File = path
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadLayered reloads path on top of defaults, with environment overrides kept on top
func loadLayered(path string) (*Config, error) {
	cfg := Default()
	if err := cfg.mergeFile(path); err != nil {
		return nil, err
	}
	cfg.File = path
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Environment = getEnv("ENVIRONMENT", c.Environment)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)

	if port := os.Getenv("PORT"); port != "" {
		c.Server.Address = ":" + port
	}
	c.Server.Address = getEnv("SERVER_ADDRESS", c.Server.Address)
	c.Server.MaxBodyBytes = int64(getEnvInt("MAX_BODY_BYTES", int(c.Server.MaxBodyBytes)))

	c.Storage.Backend = getEnv("STORAGE_BACKEND", c.Storage.Backend)
	c.Storage.DiagramsDir = getEnv("DIAGRAMS_DIR", c.Storage.DiagramsDir)
	c.Storage.DynamoDBTable = getEnv("TABLE_NAME", getEnv("DYNAMODB_TABLE", c.Storage.DynamoDBTable))
	c.Storage.AWSRegion = getEnv("AWS_REGION", c.Storage.AWSRegion)

	c.Renderer.Backend = getEnv("RENDERER_BACKEND", c.Renderer.Backend)
	c.Renderer.Timeout = getEnvDuration("RENDER_TIMEOUT", c.Renderer.Timeout)
	c.Renderer.Command = getEnv("PLANTUML_COMMAND", c.Renderer.Command)
	c.Renderer.JarPath = getEnv("PLANTUML_JAR", c.Renderer.JarPath)
	c.Renderer.RemoteURL = getEnv("PLANTUML_SERVER_URL", c.Renderer.RemoteURL)

	c.Events.Enabled = getEnvBool("EVENTS_ENABLED", c.Events.Enabled)
	c.Events.EventBusName = getEnv("EVENT_BUS_NAME", c.Events.EventBusName)

	c.Observability.EnableMetrics = getEnvBool("ENABLE_METRICS", c.Observability.EnableMetrics)
	c.Observability.EnableTracing = getEnvBool("ENABLE_TRACING", c.Observability.EnableTracing)
	c.Observability.OTLPEndpoint = getEnv("OTLP_ENDPOINT", c.Observability.OTLPEndpoint)
	c.Observability.MetricsSink = getEnv("METRICS_SINK", c.Observability.MetricsSink)
	c.Observability.MetricsNamespace = getEnv("METRICS_NAMESPACE", c.Observability.MetricsNamespace)
	c.Observability.FlushInterval = getEnvDuration("METRICS_FLUSH_INTERVAL", c.Observability.FlushInterval)

	c.CORS.Enabled = getEnvBool("ENABLE_CORS", c.CORS.Enabled)
	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		c.CORS.AllowedOrigins = strings.Split(origins, ",")
	}
}

// Validate checks the configuration for consistency
func (c *Config) Validate() error {
	if c.Server.Address == "" {
		return fmt.Errorf("server address is required")
	}

	switch c.Storage.Backend {
	case StorageFilesystem:
		if c.Storage.DiagramsDir == "" {
			return fmt.Errorf("diagrams directory is required for the filesystem store")
		}
	case StorageMemory:
	case StorageDynamoDB:
		if c.Storage.DynamoDBTable == "" {
			return fmt.Errorf("dynamodb table is required for the dynamodb store")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}

	switch c.Renderer.Backend {
	case RendererProcess:
		if c.Renderer.Command == "" {
			return fmt.Errorf("renderer command is required for the process renderer")
		}
	case RendererRemote:
		if c.Renderer.RemoteURL == "" {
			return fmt.Errorf("remote url is required for the remote renderer")
		}
	default:
		return fmt.Errorf("unknown renderer backend %q", c.Renderer.Backend)
	}

	if c.Renderer.Timeout <= 0 {
		return fmt.Errorf("renderer timeout must be positive")
	}
	if c.Events.Enabled && c.Events.EventBusName == "" {
		return fmt.Errorf("event bus name is required when events are enabled")
	}
	if c.Observability.SampleRate < 0 || c.Observability.SampleRate > 1 {
		return fmt.Errorf("sample rate must be between 0 and 1")
	}
	switch c.Observability.MetricsSink {
	case MetricsSinkPrometheus:
	case MetricsSinkCloudWatch:
		if c.Observability.FlushInterval <= 0 {
			return fmt.Errorf("metrics flush interval must be positive")
		}
	default:
		return fmt.Errorf("unknown metrics sink %q", c.Observability.MetricsSink)
	}
	return nil
}

// MetricsNamespace returns the CloudWatch namespace, defaulting to ArchViz/<environment>
func (c *Config) MetricsNamespace() string {
	if c.Observability.MetricsNamespace != "" {
		return c.Observability.MetricsNamespace
	}
	return fmt.Sprintf("ArchViz/%s", c.Environment)
}

// RendererArgs returns the process arguments, defaulting to PlantUML's pipe mode
func (c *Config) RendererArgs() []string {
	if len(c.Renderer.Args) > 0 {
		return c.Renderer.Args
	}
	return []string{"-Djava.awt.headless=true", "-jar", c.Renderer.JarPath, "-pipe", "-tsvg", "-charset", "UTF-8"}
}

// IsDevelopment returns true if running in development
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		b, err := strconv.ParseBool(value)
		if err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		i, err := strconv.Atoi(value)
		if err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		d, err := time.ParseDuration(value)
		if err == nil {
			return d
		}
	}
	return defaultValue
}
