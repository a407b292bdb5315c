package coinbase

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// Header names used by the exchange for signed requests.
const (
	HeaderSign       = "CB-ACCESS-SIGN"
	HeaderKey        = "CB-ACCESS-KEY"
	HeaderPassphrase = "CB-ACCESS-PASSPHRASE"
	HeaderTimestamp  = "CB-ACCESS-TIMESTAMP"
)

// Feed authentication signs a GET of this path.
const (
	verifyMethod = "GET"
	verifyPath   = "/users/self/verify"
)

// GetAuthHeaders signs message with the base64 encoded secret and returns the
// headers the exchange expects on an authenticated request.
// An undecodable secret yields a *ConfigurationError.
func GetAuthHeaders(timestamp, message, key, secret, passphrase string) (map[string]string, error) {
	signature, err := Sign(message, secret)
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"Content-Type":   "application/json",
		HeaderSign:       signature,
		HeaderTimestamp:  timestamp,
		HeaderKey:        key,
		HeaderPassphrase: passphrase,
	}, nil
}

// Sign returns base64(HMAC-SHA256(base64decode(secret), message)).
func Sign(message, secret string) (string, error) {
	hmacKey, err := base64.StdEncoding.DecodeString(secret)
	if err != nil {
		return "", &ConfigurationError{Field: "secret", Err: err}
	}

	mac := hmac.New(sha256.New, hmacKey)
	mac.Write([]byte(message))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}

// verifyMessage builds the payload signed when subscribing with credentials.
func verifyMessage(timestamp string) string {
	return timestamp + verifyMethod + verifyPath
}
