package coinbase

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyStarted is returned by Start when the client was started before.
	ErrAlreadyStarted = errors.New("coinbase: client already started")
	// ErrClosed is returned by Start on a client that has been closed.
	ErrClosed = errors.New("coinbase: client closed")
)

// ConfigurationError reports malformed credential material, detected while
// signing the subscribe request and before any network I/O.
type ConfigurationError struct {
	Field string
	Err   error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("coinbase: invalid %s: %v", e.Field, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// ConnectionError reports a failed websocket handshake or subscribe write.
type ConnectionError struct {
	URL string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("coinbase: connect %q: %v", e.URL, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// ProtocolError reports an inbound frame that is not valid JSON.
type ProtocolError struct {
	Data []byte // offending frame
	Err  error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("coinbase: malformed frame (%d bytes): %v", len(e.Data), e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// TransportError reports a connection dropped or closed while reading.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("coinbase: read: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
