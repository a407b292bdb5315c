package coinbase

// Product is one entry of the REST product list.
type Product struct {
	ID              string `json:"id"`             // e.g., "BTC-USD"
	BaseCurrency    string `json:"base_currency"`  // e.g., "BTC"
	QuoteCurrency   string `json:"quote_currency"` // e.g., "USD"
	Status          string `json:"status"`         // "online", "offline", "delisted"
	TradingDisabled bool   `json:"trading_disabled"`
	// ... extra
}

// APIError is the error body returned by the REST API.
type APIError struct {
	Message string `json:"message"`
}
