package collector

import (
	"context"
	"fmt"
	"time"

	"cbfeed/config"
	"cbfeed/internal/feed/memorystore"
	"cbfeed/internal/feed/retention"
	"cbfeed/internal/feed/snapshot"
	"cbfeed/internal/feed/stream"
	"cbfeed/pkg/coinbase"
	"cbfeed/pkg/storage/kafka"
	"cbfeed/pkg/storage/memory"
	"cbfeed/pkg/storage/postgres"
	"cbfeed/pkg/storage/redis"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

const (
	messagesPerProduct  = 1000
	memorySinkCapacity  = 100000
	defaultStatInterval = 5 * time.Second
)

// Collector wires the feed client to a sink and an in-memory store.
type Collector struct {
	Client *coinbase.WSClient
	Store  *memorystore.MessageStore

	// StatInterval controls how often message counts are logged.
	StatInterval time.Duration

	logger    *zap.Logger
	closeSink func() error
	pruner    *retention.MidnightScheduler
}

// New resolves products, connects the configured sink and builds the feed
// client. Nothing is dialed on the websocket until Run.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Collector, error) {
	logger = logger.Named("collector")

	sink, closeSink, err := NewSink(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to start sink: %w", err)
	}

	products, err := ResolveProducts(ctx, cfg, logger)
	if err != nil {
		_ = closeSink()
		return nil, err
	}

	store := memorystore.NewMessageStore(messagesPerProduct)
	handler := stream.NewHandler(cfg.Feed.ShouldPrint, sink, store, logger)
	if cfg.Sink.InsertTimeout > 0 {
		handler.InsertTimeout = cfg.Sink.InsertTimeout
	}

	client := coinbase.NewWSClient(ClientOptions(cfg.Feed, products), handler, logger)

	c := &Collector{
		Client:       client,
		Store:        store,
		StatInterval: defaultStatInterval,
		logger:       logger,
		closeSink:    closeSink,
	}

	if pg, ok := sink.(*postgres.PostgresClient); ok && cfg.Postgres.Retention > 0 {
		c.pruner = &retention.MidnightScheduler{
			Job:    retention.PruneJob(pg, cfg.Postgres.Retention, logger),
			Logger: logger,
		}
	}

	return c, nil
}

// Run starts the feed and blocks until ctx is cancelled or the feed ends on
// its own. It returns the error recorded by the client, if any.
func (c *Collector) Run(ctx context.Context) error {
	defer func() {
		if err := c.closeSink(); err != nil {
			c.logger.Warn("failed to close sink", zap.Error(err))
		}
	}()

	if err := c.Client.Start(ctx); err != nil {
		return err
	}

	if c.pruner != nil {
		pruneCtx, cancelPrune := context.WithCancel(ctx)
		pruneDone := c.pruner.Start(pruneCtx)
		defer func() {
			cancelPrune()
			<-pruneDone
		}()
	}

	interval := c.StatInterval
	if interval <= 0 {
		interval = defaultStatInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.logger.Info("current received messages",
				zap.Int64("count", c.Store.CountAll()),
				zap.Stringer("state", c.Client.State()))
		case <-c.Client.Done():
			c.logger.Info("feed ended", zap.Int64("count", c.Store.CountAll()))
			return c.Client.Err()
		case <-ctx.Done():
			c.Client.Close()
			c.logger.Info("collector stopped", zap.Int64("count", c.Store.CountAll()))
			return c.Client.Err()
		}
	}
}

// ClientOptions maps the feed section of the config onto client options.
func ClientOptions(feed config.FeedConfig, products []string) coinbase.Options {
	return coinbase.Options{
		URL:              feed.URL,
		Products:         products,
		Channels:         feed.Channels,
		MessageType:      feed.MessageType,
		Auth:             feed.Auth,
		Key:              feed.Key,
		Secret:           feed.Secret,
		Passphrase:       feed.Passphrase,
		ShouldPrint:      feed.ShouldPrint,
		HandshakeTimeout: feed.HandshakeTimeout,
		ReadTimeout:      feed.ReadTimeout,
		PingInterval:     feed.PingInterval,
	}
}

// ResolveProducts returns the configured products, or loads them over REST
// when none are configured and a quote currency is set. An empty result
// leaves the client on its default product.
func ResolveProducts(ctx context.Context, cfg *config.Config, logger *zap.Logger) ([]string, error) {
	if len(cfg.Feed.Products) > 0 || cfg.REST.QuoteCurrency == "" {
		return cfg.Feed.Products, nil
	}

	loader := &snapshot.ProductLoader{
		Cfg:        cfg.REST,
		RestClient: coinbase.NewRESTClient(cfg.REST.BaseURL, cfg.REST.Timeout),
		Logger:     logger,
	}

	productCh := make(chan string, 100)
	productStore := memorystore.NewProductStore()
	done := productStore.StartWorker(productCh)

	err := loader.LoadProducts(ctx, productCh)
	<-done
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}

	products := productStore.GetAll()
	if len(products) == 0 {
		return nil, fmt.Errorf("no online products quoted in %s", cfg.REST.QuoteCurrency)
	}
	return products, nil
}

// NewSink connects the sink selected by cfg.Sink.Driver, retrying with
// exponential backoff for up to cfg.Sink.StartupTimeout. The returned close
// func is never nil.
func NewSink(ctx context.Context, cfg *config.Config, logger *zap.Logger) (coinbase.Sink, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Sink.Driver {
	case config.SinkNone, "":
		return nil, noop, nil

	case config.SinkMemory:
		return memory.NewStore(memorySinkCapacity), noop, nil

	case config.SinkPostgres:
		var client *postgres.PostgresClient
		err := retry(ctx, cfg.Sink.StartupTimeout, logger, "postgres", func() error {
			var err error
			client, err = postgres.InitializeAndMigrate(cfg.Postgres)
			return err
		})
		if err != nil {
			return nil, noop, err
		}
		return client, client.Close, nil

	case config.SinkRedis:
		var sink *redis.Sink
		err := retry(ctx, cfg.Sink.StartupTimeout, logger, "redis", func() error {
			var err error
			sink, err = redis.NewSink(ctx, cfg.Redis)
			return err
		})
		if err != nil {
			return nil, noop, err
		}
		return sink, sink.Close, nil

	case config.SinkKafka:
		var sink *kafka.Sink
		err := retry(ctx, cfg.Sink.StartupTimeout, logger, "kafka", func() error {
			var err error
			sink, err = kafka.NewSink(cfg.Kafka)
			return err
		})
		if err != nil {
			return nil, noop, err
		}
		return sink, sink.Close, nil

	default:
		return nil, noop, fmt.Errorf("unknown sink driver %q", cfg.Sink.Driver)
	}
}

func retry(ctx context.Context, budget time.Duration, logger *zap.Logger, name string, op func() error) error {
	if budget <= 0 {
		budget = 30 * time.Second
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	b.MaxElapsedTime = budget

	notify := func(err error, wait time.Duration) {
		logger.Warn("sink not ready, retrying",
			zap.String("sink", name),
			zap.Duration("wait", wait),
			zap.Error(err))
	}

	if err := backoff.RetryNotify(op, backoff.WithContext(b, ctx), notify); err != nil {
		return fmt.Errorf("%s sink: %w", name, err)
	}
	logger.Info("sink ready", zap.String("sink", name))
	return nil
}
