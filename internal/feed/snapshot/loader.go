package snapshot

import (
	"context"
	"time"

	"cbfeed/config"
	"cbfeed/pkg/coinbase"

	"go.uber.org/zap"
)

type ProductLoader struct {
	Cfg        config.RESTConfig
	RestClient *coinbase.RESTClient
	Logger     *zap.Logger
}

// LoadProducts fetches online products quoted in Cfg.QuoteCurrency and
// streams their ids into ch. ch is closed on return.
func (l *ProductLoader) LoadProducts(ctx context.Context, ch chan<- string) error {
	defer close(ch) // Ensure downstream consumers can exit cleanly

	timeout := l.Cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	products, err := l.RestClient.GetProductIDs(ctx, l.Cfg.QuoteCurrency)
	if err != nil {
		l.Logger.Error("failed to load products", zap.String("quote", l.Cfg.QuoteCurrency), zap.Error(err))
		return err
	}
	l.Logger.Info("loaded products", zap.Int("count", len(products)))

	for _, id := range products {
		select {
		case ch <- id:
		case <-ctx.Done():
			l.Logger.Warn("product streaming interrupted", zap.Error(ctx.Err()))
			return ctx.Err()
		}
	}

	return nil
}
