package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cbfeed/pkg/coinbase"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

type Config struct {
	Environment string `mapstructure:"environment"` // "dev" or "prod"

	Feed     FeedConfig     `mapstructure:"feed"`
	REST     RESTConfig     `mapstructure:"rest"`
	Sink     SinkConfig     `mapstructure:"sink"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Log      LogConfig      `mapstructure:"log"`
	SSM      SSMConfig      `mapstructure:"ssm"`
}

// FeedConfig holds the websocket feed subscription.
type FeedConfig struct {
	URL         string   `mapstructure:"url"`
	Products    []string `mapstructure:"products"` // a scalar is read as a one-element list
	Channels    []string `mapstructure:"channels"`
	MessageType string   `mapstructure:"message_type"`
	ShouldPrint bool     `mapstructure:"should_print"`

	Auth       bool   `mapstructure:"auth"`
	Key        string `mapstructure:"key"`
	Secret     string `mapstructure:"secret"`
	Passphrase string `mapstructure:"passphrase"`

	HandshakeTimeout time.Duration `mapstructure:"handshake_timeout"`
	ReadTimeout      time.Duration `mapstructure:"read_timeout"`
	PingInterval     time.Duration `mapstructure:"ping_interval"`
}

type RESTConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
	// QuoteCurrency loads feed products from the REST API when feed.products is empty.
	QuoteCurrency string `mapstructure:"quote_currency"`
}

// SinkConfig selects where received messages are persisted.
type SinkConfig struct {
	Driver         string        `mapstructure:"driver"` // "none", "memory", "postgres", "redis", "kafka"
	InsertTimeout  time.Duration `mapstructure:"insert_timeout"`
	StartupTimeout time.Duration `mapstructure:"startup_timeout"` // total retry budget when connecting
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Stream   string `mapstructure:"stream"`
	MaxLen   int64  `mapstructure:"max_len"` // approximate stream cap, 0 = unbounded
}

type KafkaConfig struct {
	Brokers      []string      `mapstructure:"brokers"`
	Topic        string        `mapstructure:"topic"`
	RequiredAcks string        `mapstructure:"required_acks"` // "all", "leader", "none"
	Timeout      time.Duration `mapstructure:"timeout"`
}

type MetricsConfig struct {
	Addr string `mapstructure:"addr"` // e.g. ":9100"; empty disables the endpoint
}

// Options defines the logger configuration options.
type LogConfig struct {
	Level       string `mapstructure:"level"`       // log level: "debug", "info", "warn", "error"
	Format      string `mapstructure:"format"`      // log format: "json" or "console"
	OutputFile  string `mapstructure:"output_file"` // file path to store logs (optional)
	Environment string `mapstructure:"environment"` // environment: "dev" or "prod"
}

// Sink drivers.
const (
	SinkNone     = "none"
	SinkMemory   = "memory"
	SinkPostgres = "postgres"
	SinkRedis    = "redis"
	SinkKafka    = "kafka"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "dev")

	v.SetDefault("feed.url", coinbase.DefaultURL)
	v.SetDefault("feed.products", []string{})
	v.SetDefault("feed.channels", []string{})
	v.SetDefault("feed.message_type", coinbase.DefaultMessageType)
	v.SetDefault("feed.should_print", false)
	v.SetDefault("feed.auth", false)
	v.SetDefault("feed.key", "")
	v.SetDefault("feed.secret", "")
	v.SetDefault("feed.passphrase", "")
	v.SetDefault("feed.handshake_timeout", 10*time.Second)
	v.SetDefault("feed.read_timeout", time.Duration(0))
	v.SetDefault("feed.ping_interval", time.Duration(0))

	v.SetDefault("rest.base_url", coinbase.DefaultRESTURL)
	v.SetDefault("rest.timeout", 10*time.Second)
	v.SetDefault("rest.quote_currency", "")

	v.SetDefault("sink.driver", SinkNone)
	v.SetDefault("sink.insert_timeout", 2*time.Second)
	v.SetDefault("sink.startup_timeout", 30*time.Second)

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "postgres")
	v.SetDefault("postgres.password", "")
	v.SetDefault("postgres.dbname", "cbfeed")
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.timezone", "UTC")
	v.SetDefault("postgres.create_db", true)
	v.SetDefault("postgres.max_open_conns", 10)
	v.SetDefault("postgres.max_idle_conns", 5)
	v.SetDefault("postgres.conn_max_lifetime", time.Hour)
	v.SetDefault("postgres.retention", time.Duration(0))

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.stream", "cbfeed:messages")
	v.SetDefault("redis.max_len", 100000)

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "cbfeed.messages")
	v.SetDefault("kafka.required_acks", "all")
	v.SetDefault("kafka.timeout", 5*time.Second)

	v.SetDefault("metrics.addr", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output_file", "")
	v.SetDefault("log.environment", "dev")

	v.SetDefault("ssm.feed_key", "")
	v.SetDefault("ssm.feed_secret", "")
	v.SetDefault("ssm.feed_passphrase", "")
	v.SetDefault("ssm.postgres_host", "CBFEED_DB_HOST")
	v.SetDefault("ssm.postgres_user", "CBFEED_DB_USER")
	v.SetDefault("ssm.postgres_password", "CBFEED_DB_PASSWORD")
}

// Load loads application configuration using Viper.
// It reads the YAML file at path (or config.yaml next to the binary when path
// is empty) and overrides it with environment variables.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config") // config.yaml
		v.SetConfigType("yaml")

		ex, _ := os.Executable()
		if strings.Contains(ex, "go-build") {
			pwd, _ := os.Getwd()
			v.AddConfigPath(filepath.Join(pwd, "../../config"))
		} else {
			v.AddConfigPath(filepath.Join(filepath.Dir(ex), "../config"))
		}
		v.AddConfigPath(".")
	}

	// Support environment variables with dot notation (e.g., FEED_URL)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	hooks := mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
	if err := v.Unmarshal(&cfg, viper.DecodeHook(hooks)); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.normalize()

	return &cfg, nil
}

func (c *Config) normalize() {
	c.Feed.URL = strings.TrimSpace(c.Feed.URL)
	c.Feed.Products = cleanList(c.Feed.Products)
	c.Feed.Channels = cleanList(c.Feed.Channels)
	c.Kafka.Brokers = cleanList(c.Kafka.Brokers)
	c.Sink.Driver = strings.ToLower(strings.TrimSpace(c.Sink.Driver))
	if c.Sink.Driver == "" {
		c.Sink.Driver = SinkNone
	}
}

// cleanList trims entries and drops empty ones.
func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Validate checks config for required fields.
func (c *Config) Validate() error {
	var errs []string

	if c.Feed.URL == "" {
		errs = append(errs, "feed.url is required")
	}
	for _, ch := range c.Feed.Channels {
		meta, err := coinbase.ParseChannel(ch)
		if err != nil {
			errs = append(errs, err.Error())
			continue
		}
		if meta.RequiresAuth && !c.Feed.Auth {
			errs = append(errs, fmt.Sprintf("channel %s requires feed.auth", ch))
		}
	}
	if c.Feed.Auth && (c.Feed.Key == "" || c.Feed.Secret == "" || c.Feed.Passphrase == "") {
		errs = append(errs, "feed.key, feed.secret and feed.passphrase are required with feed.auth")
	}

	switch c.Sink.Driver {
	case SinkNone, SinkMemory, SinkPostgres:
	case SinkRedis:
		if c.Redis.Addr == "" || c.Redis.Stream == "" {
			errs = append(errs, "redis.addr and redis.stream are required for the redis sink")
		}
	case SinkKafka:
		if len(c.Kafka.Brokers) == 0 || c.Kafka.Topic == "" {
			errs = append(errs, "kafka.brokers and kafka.topic are required for the kafka sink")
		}
	default:
		errs = append(errs, fmt.Sprintf("unknown sink.driver %q", c.Sink.Driver))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(errs, "; "))
	}
	return nil
}
