package coinbase

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"testing"
)

const (
	testKey        = "test-key"
	testPassphrase = "test-passphrase"
	testTimestamp  = "1700000000"
)

var testSecret = base64.StdEncoding.EncodeToString([]byte("super-secret-signing-key"))

func expectedSignature(t *testing.T, message, secret string) string {
	t.Helper()
	raw, err := base64.StdEncoding.DecodeString(secret)
	if err != nil {
		t.Fatalf("decode secret: %v", err)
	}
	mac := hmac.New(sha256.New, raw)
	mac.Write([]byte(message))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// go test -v --run TestGetAuthHeaders
func TestGetAuthHeaders(t *testing.T) {
	message := testTimestamp + "GET" + "/users/self/verify"

	headers, err := GetAuthHeaders(testTimestamp, message, testKey, testSecret, testPassphrase)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := map[string]string{
		HeaderSign:       expectedSignature(t, message, testSecret),
		HeaderKey:        testKey,
		HeaderPassphrase: testPassphrase,
		HeaderTimestamp:  testTimestamp,
		"Content-Type":   "application/json",
	}
	for k, v := range want {
		if headers[k] != v {
			t.Errorf("header %s = %q; want %q", k, headers[k], v)
		}
	}
}

// go test -v --run TestGetAuthHeadersDeterministic
func TestGetAuthHeadersDeterministic(t *testing.T) {
	message := verifyMessage(testTimestamp)

	first, err := GetAuthHeaders(testTimestamp, message, testKey, testSecret, testPassphrase)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 10; i++ {
		next, err := GetAuthHeaders(testTimestamp, message, testKey, testSecret, testPassphrase)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if next[HeaderSign] != first[HeaderSign] {
			t.Fatalf("signature changed between calls: %q != %q", next[HeaderSign], first[HeaderSign])
		}
	}
}

// go test -v --run TestGetAuthHeadersInvalidSecret
func TestGetAuthHeadersInvalidSecret(t *testing.T) {
	_, err := GetAuthHeaders(testTimestamp, "msg", testKey, "not base64 !!", testPassphrase)
	if err == nil {
		t.Fatal("expected error for malformed secret, got nil")
	}

	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *ConfigurationError, got %T: %v", err, err)
	}
	if cfgErr.Field != "secret" {
		t.Errorf("Field = %q; want %q", cfgErr.Field, "secret")
	}
}
