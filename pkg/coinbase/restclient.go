package coinbase

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type RESTClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewRESTClient(baseURL string, timeout time.Duration) *RESTClient {
	if baseURL == "" {
		baseURL = DefaultRESTURL
	}
	return &RESTClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// GetProducts fetches every product listed by the exchange.
func (c *RESTClient) GetProducts(ctx context.Context) ([]Product, error) {
	endpoint := c.baseURL + "/products"

	// Construct the GET request with context for timeout/cancel support
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		var apiErr APIError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Message != "" {
			return nil, fmt.Errorf("coinbase error (%d): %s", resp.StatusCode, apiErr.Message)
		}
		return nil, fmt.Errorf("coinbase error (%d): %s", resp.StatusCode, body)
	}

	var products []Product
	if err := json.NewDecoder(resp.Body).Decode(&products); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return products, nil
}

// GetProductIDs returns the ids of online, tradable products quoted in quote.
// An empty quote matches every currency.
func (c *RESTClient) GetProductIDs(ctx context.Context, quote string) ([]string, error) {
	products, err := c.GetProducts(ctx)
	if err != nil {
		return nil, err
	}

	var ids []string
	for _, p := range products {
		if p.Status != "online" || p.TradingDisabled {
			continue
		}
		if quote != "" && !strings.EqualFold(p.QuoteCurrency, quote) {
			continue
		}
		ids = append(ids, p.ID)
	}

	return ids, nil
}
