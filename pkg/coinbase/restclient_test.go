package coinbase

import (
	"context"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"
)

func mockREST(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/products" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
}

// go test -v --run TestGetProductIDs
func TestGetProductIDs(t *testing.T) {
	server := mockREST(t, http.StatusOK, `[
		{"id":"BTC-USD","base_currency":"BTC","quote_currency":"USD","status":"online"},
		{"id":"ETH-EUR","base_currency":"ETH","quote_currency":"EUR","status":"online"},
		{"id":"OLD-USD","base_currency":"OLD","quote_currency":"USD","status":"delisted"},
		{"id":"HALT-USD","base_currency":"HALT","quote_currency":"USD","status":"online","trading_disabled":true},
		{"id":"ETH-USD","base_currency":"ETH","quote_currency":"USD","status":"online"}
	]`)
	defer server.Close()

	client := NewRESTClient(server.URL+"/", 5*time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ids, err := client.GetProductIDs(ctx, "usd")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := []string{"BTC-USD", "ETH-USD"}; !reflect.DeepEqual(ids, want) {
		t.Errorf("ids = %v; want %v", ids, want)
	}

	all, err := client.GetProductIDs(ctx, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("got %d ids without quote filter; want 3", len(all))
	}
}

// go test -v --run TestGetProductsAPIError
func TestGetProductsAPIError(t *testing.T) {
	server := mockREST(t, http.StatusTooManyRequests, `{"message":"rate limit exceeded"}`)
	defer server.Close()

	_, err := NewRESTClient(server.URL, time.Second).GetProducts(context.Background())
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if got := err.Error(); got != "coinbase error (429): rate limit exceeded" {
		t.Errorf("error = %q", got)
	}
}
