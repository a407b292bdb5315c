package snapshot

import (
	"context"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"cbfeed/config"
	"cbfeed/pkg/coinbase"

	"go.uber.org/zap"
)

const productsJSON = `[
	{"id":"BTC-USD","base_currency":"BTC","quote_currency":"USD","status":"online","trading_disabled":false},
	{"id":"ETH-EUR","base_currency":"ETH","quote_currency":"EUR","status":"online","trading_disabled":false},
	{"id":"DOGE-USD","base_currency":"DOGE","quote_currency":"USD","status":"delisted","trading_disabled":true},
	{"id":"SOL-USD","base_currency":"SOL","quote_currency":"USD","status":"online","trading_disabled":false}
]`

func productServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/products" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
}

// go test -v --run TestLoadProducts
func TestLoadProducts(t *testing.T) {
	server := productServer(t, http.StatusOK, productsJSON)
	defer server.Close()

	cfg := config.RESTConfig{BaseURL: server.URL, Timeout: 2 * time.Second, QuoteCurrency: "usd"}
	loader := &ProductLoader{
		Cfg:        cfg,
		RestClient: coinbase.NewRESTClient(cfg.BaseURL, cfg.Timeout),
		Logger:     zap.NewNop(),
	}

	ch := make(chan string, 10)
	if err := loader.LoadProducts(context.Background(), ch); err != nil {
		t.Fatalf("LoadProducts failed: %v", err)
	}

	var got []string
	for id := range ch {
		got = append(got, id)
	}
	if want := []string{"BTC-USD", "SOL-USD"}; !reflect.DeepEqual(got, want) {
		t.Errorf("products = %v; want %v", got, want)
	}
}

// go test -v --run TestLoadProductsError
func TestLoadProductsError(t *testing.T) {
	server := productServer(t, http.StatusInternalServerError, `{"message":"boom"}`)
	defer server.Close()

	loader := &ProductLoader{
		Cfg:        config.RESTConfig{BaseURL: server.URL, QuoteCurrency: "USD"},
		RestClient: coinbase.NewRESTClient(server.URL, time.Second),
		Logger:     zap.NewNop(),
	}

	ch := make(chan string)
	if err := loader.LoadProducts(context.Background(), ch); err == nil {
		t.Fatal("expected error")
	}
	if _, ok := <-ch; ok {
		t.Error("channel should be closed after failure")
	}
}

// go test -v --run TestLoadProductsCancelled
func TestLoadProductsCancelled(t *testing.T) {
	server := productServer(t, http.StatusOK, productsJSON)
	defer server.Close()

	loader := &ProductLoader{
		Cfg:        config.RESTConfig{BaseURL: server.URL, Timeout: 2 * time.Second, QuoteCurrency: "USD"},
		RestClient: coinbase.NewRESTClient(server.URL, time.Second),
		Logger:     zap.NewNop(),
	}

	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan string) // unbuffered and never read
	errCh := make(chan error, 1)
	go func() { errCh <- loader.LoadProducts(ctx, ch) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if err == nil {
			t.Error("expected context error")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("LoadProducts did not return after cancel")
	}
}
