package coinbase

import (
	"strconv"
	"strings"
	"time"
)

// SubscribeRequest is the first frame sent after connecting.
type SubscribeRequest struct {
	Type       string   `json:"type"`
	ProductIDs []string `json:"product_ids"`
	Channels   []string `json:"channels,omitempty"`

	// Present only on authenticated subscriptions.
	*SubscribeAuth
}

// SubscribeAuth carries the signed credential fields of a SubscribeRequest.
type SubscribeAuth struct {
	Signature  string `json:"signature"`
	Key        string `json:"key"`
	Passphrase string `json:"passphrase"`
	Timestamp  string `json:"timestamp"`
}

// BuildSubscribeRequest builds the subscribe frame for opts, signing it with
// a timestamp taken from now when opts.Auth is set.
func BuildSubscribeRequest(opts Options, now time.Time) (SubscribeRequest, error) {
	messageType := opts.MessageType
	if messageType == "" {
		messageType = DefaultMessageType
	}

	req := SubscribeRequest{
		Type:       messageType,
		ProductIDs: normalizeProducts(opts.Products),
	}
	if len(opts.Channels) > 0 {
		req.Channels = append([]string(nil), opts.Channels...)
	}

	if !opts.Auth {
		return req, nil
	}

	timestamp := strconv.FormatInt(now.Unix(), 10)
	headers, err := GetAuthHeaders(timestamp, verifyMessage(timestamp), opts.Key, opts.Secret, opts.Passphrase)
	if err != nil {
		return SubscribeRequest{}, err
	}
	req.SubscribeAuth = &SubscribeAuth{
		Signature:  headers[HeaderSign],
		Key:        headers[HeaderKey],
		Passphrase: headers[HeaderPassphrase],
		Timestamp:  headers[HeaderTimestamp],
	}

	return req, nil
}

// normalizeProducts returns a copy of products, or the default product when empty.
func normalizeProducts(products []string) []string {
	if len(products) == 0 {
		return []string{DefaultProduct}
	}
	return append([]string(nil), products...)
}

// normalizeURL strips a single trailing slash. "/" becomes "".
func normalizeURL(url string) string {
	return strings.TrimSuffix(url, "/")
}
