package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"FinDash/pkg/util"
)

type Config struct {
	Environment string `yaml:"environment" default:"development" validate:"required"`
	Server      struct {
		Port            int           `yaml:"port" default:"8080" validate:"gt=0,lt=65536"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"15s"`
		AllowOrigins    []string      `yaml:"allow_origins"`
	} `yaml:"server"`
	Logging struct {
		Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
		Format string `yaml:"format" default:"console" validate:"oneof=console json"`
		Output string `yaml:"output" default:"stdout"`
		// Aggregated warn/error lines go to this topic when kafka is configured.
		CollectTopic string `yaml:"collect_topic"`
	} `yaml:"logging"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Snapshot struct {
		// File path, http(s) URL or kafka://topic.
		Source          string        `yaml:"source" default:"js/strategy_data.js" validate:"required"`
		RefreshInterval time.Duration `yaml:"refresh_interval" default:"5s" validate:"gt=0"`
		Watch           bool          `yaml:"watch" default:"true"`
		Timeout         time.Duration `yaml:"timeout" default:"10s"`
	} `yaml:"snapshot"`
	Quotes struct {
		MockLatency time.Duration `yaml:"mock_latency" default:"600ms"`
		MockSeed    int64         `yaml:"mock_seed"`
		Timeout     time.Duration `yaml:"timeout" default:"10s"`
		Watchlist   []string      `yaml:"watchlist"`
		Finnhub     struct {
			BaseURL string `yaml:"base_url" default:"https://finnhub.io/api/v1" validate:"url"`
		} `yaml:"finnhub"`
	} `yaml:"quotes"`
	Credentials struct {
		// memory does not survive a restart.
		Backend string `yaml:"backend" default:"file" validate:"oneof=memory file redis"`
		Path    string `yaml:"path" default:"data/credentials.yaml"`
		// Seed key, stored on startup when non-empty.
		Key string `yaml:"key"`
	} `yaml:"credentials"`
	Redis struct {
		Addr     string `yaml:"addr" default:"localhost:6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix" default:"findash"`
	} `yaml:"redis"`
	Archive struct {
		Backend string `yaml:"backend" default:"none" validate:"oneof=none kafka clickhouse"`
	} `yaml:"archive"`
	Kafka struct {
		Brokers     []string `yaml:"brokers"`
		Topic       string   `yaml:"topic" default:"findash.snapshots"`
		Compression string   `yaml:"compression" default:"gzip"`
		Producer    struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id" default:"findash"`
			RetryMax   int           `yaml:"retry_max" default:"3"`
			BackoffMin time.Duration `yaml:"backoff_min" default:"50ms"`
			BackoffMax time.Duration `yaml:"backoff_max" default:"2s"`
			DLQTopic   string        `yaml:"dlq_topic"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host        string        `yaml:"host" default:"localhost"`
		Port        int           `yaml:"port" default:"9000"`
		Database    string        `yaml:"database" default:"findash"`
		User        string        `yaml:"user" default:"default"`
		Password    string        `yaml:"password"`
		UseHTTP     bool          `yaml:"use_http"`
		AsyncInsert bool          `yaml:"async_insert"`
		DialTimeout time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout time.Duration `yaml:"read_timeout" default:"10s"`
	} `yaml:"clickhouse"`
	RateLimit struct {
		// Watchlist reloads per client per minute; 0 disables the limit.
		ReloadsPerMinute int `yaml:"reloads_per_minute" default:"12" validate:"gte=0"`
	} `yaml:"ratelimit"`
}

var validate = validator.New()

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse applies defaults, decodes YAML over them and validates. Defaults
// go first so an explicit false or 0 in the file is kept.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("FINNHUB_API_KEY"); v != "" {
		c.Credentials.Key = v
	}
	if v := os.Getenv("CREDENTIALS_PATH"); v != "" {
		c.Credentials.Path = v
	}
	if v := os.Getenv("SNAPSHOT_SOURCE"); v != "" {
		c.Snapshot.Source = v
	}
	if v := os.Getenv("WATCHLIST"); v != "" {
		c.Quotes.Watchlist = util.SplitSymbols(v)
	}
	if v := os.Getenv("ARCHIVE_BACKEND"); v != "" {
		c.Archive.Backend = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = splitList(v)
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}

	// Overrides can break invariants checked above.
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Credentials.Backend == "file" && c.Credentials.Path == "" {
		return fmt.Errorf("credentials.path is required for credentials.backend=file")
	}
	if c.Archive.Backend == "kafka" && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers is required for archive.backend=kafka")
	}
	if topic, ok := strings.CutPrefix(c.Snapshot.Source, "kafka://"); ok {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka.brokers is required for a kafka snapshot source")
		}
		if c.Archive.Backend == "kafka" && topic == c.Kafka.Topic {
			return fmt.Errorf("snapshot source topic %q is also the archive topic", topic)
		}
	}
	return nil
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
