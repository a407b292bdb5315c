package coinbase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// State is the lifecycle stage of a WSClient. It only moves forward.
type State int32

const (
	StateCreated State = iota
	StateOpening
	StateSubscribing
	StateListening
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateOpening:
		return "opening"
	case StateSubscribing:
		return "subscribing"
	case StateListening:
		return "listening"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// WSClient subscribes to the websocket feed over a single connection and
// dispatches every decoded message to its Handler until closed or until the
// first error. It does not reconnect and cannot be restarted.
type WSClient struct {
	opts    Options
	handler Handler
	logger  *zap.Logger
	now     func() time.Time

	shutdown atomic.Bool
	state    atomic.Int32

	mu      sync.Mutex
	started bool
	closed  bool
	cancel  context.CancelFunc
	err     error

	done      chan struct{}
	doneOnce  sync.Once
	closeOnce sync.Once
}

// NewWSClient creates a client. A nil handler selects a DefaultHandler built
// from opts.ShouldPrint and opts.Sink; a nil logger disables logging.
func NewWSClient(opts Options, handler Handler, logger *zap.Logger) *WSClient {
	opts.applyDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	if handler == nil {
		handler = NewDefaultHandler(opts.ShouldPrint, opts.Sink, logger)
	}

	return &WSClient{
		opts:    opts,
		handler: handler,
		logger:  logger.Named("coinbase-ws"),
		now:     time.Now,
		done:    make(chan struct{}),
	}
}

// Start calls OnOpen, signs the subscribe request and launches the receive
// goroutine. It returns without waiting for the connection. Credential errors
// are returned here, before anything is dialed.
func (c *WSClient) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.started {
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	c.started = true
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.mu.Unlock()

	c.advance(StateOpening)
	c.handler.OnOpen()

	req, err := BuildSubscribeRequest(c.opts, c.now())
	if err != nil {
		c.logger.Error("failed to build subscribe request", zap.Error(err))
		c.setErr(err)
		c.shutdown.Store(true)
		cancel()
		c.disconnect()
		c.advance(StateClosed)
		c.markDone()
		return err
	}

	go c.run(ctx, req)
	return nil
}

// Close requests shutdown and waits for the receive goroutine to exit.
// A pending read is interrupted by closing the socket. Safe to call more
// than once and on a client that was never started.
func (c *WSClient) Close() {
	c.shutdown.Store(true)

	c.mu.Lock()
	c.closed = true
	started := c.started
	cancel := c.cancel
	c.mu.Unlock()

	if !started {
		c.advance(StateClosed)
		c.markDone()
		return
	}

	c.advance(StateClosing)
	cancel()
	<-c.done
}

// Done is closed once the client has fully stopped.
func (c *WSClient) Done() <-chan struct{} {
	return c.done
}

// Err returns the error that terminated the client, if any.
func (c *WSClient) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// State returns the current lifecycle stage.
func (c *WSClient) State() State {
	return State(c.state.Load())
}

func (c *WSClient) run(ctx context.Context, req SubscribeRequest) {
	defer c.markDone()

	conn, err := c.connect(ctx, req)
	switch {
	case err != nil && ctx.Err() != nil:
		// dial aborted by shutdown
		c.shutdown.Store(true)
	case err != nil:
		c.fail(err, nil)
	default:
		c.listen(ctx, conn)
		c.advance(StateClosing)
		_ = conn.Close()
	}

	c.disconnect()
	c.advance(StateClosed)
}

// connect dials the feed and sends the subscribe request as the first frame.
func (c *WSClient) connect(ctx context.Context, req SubscribeRequest) (*websocket.Conn, error) {
	url := normalizeURL(c.opts.URL)

	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: c.opts.HandshakeTimeout,
	}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		c.logger.Error("failed to connect to websocket", zap.String("url", url), zap.Error(err))
		return nil, &ConnectionError{URL: url, Err: err}
	}
	c.logger.Info("websocket connected", zap.String("url", url))

	c.advance(StateSubscribing)
	frame, err := json.Marshal(req)
	if err != nil {
		_ = conn.Close()
		return nil, &ConnectionError{URL: url, Err: fmt.Errorf("encode subscribe: %w", err)}
	}
	if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		_ = conn.Close()
		c.logger.Error("failed to send subscription", zap.Error(err))
		return nil, &ConnectionError{URL: url, Err: fmt.Errorf("send subscribe: %w", err)}
	}
	c.logger.Info("subscribed",
		zap.String("type", req.Type),
		zap.Strings("products", req.ProductIDs),
		zap.Strings("channels", req.Channels),
		zap.Bool("auth", req.SubscribeAuth != nil))

	return conn, nil
}

// listen runs the read loop and tears down its helpers afterwards.
func (c *WSClient) listen(ctx context.Context, conn *websocket.Conn) {
	c.advance(StateListening)

	connCtx, cancel := context.WithCancel(ctx)

	// Cancellation (Close or the caller's ctx) interrupts a blocked read.
	stop := context.AfterFunc(connCtx, func() {
		c.shutdown.Store(true)
		_ = conn.Close()
	})

	if c.opts.ReadTimeout > 0 {
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(c.opts.ReadTimeout))
		})
	}

	var wg sync.WaitGroup
	if c.opts.PingInterval > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.keepalive(connCtx, conn)
		}()
	}

	c.readLoop(connCtx, conn)

	stop()
	cancel()
	wg.Wait()
}

// readLoop reads frames until the shutdown flag is set. Messages carry ctx,
// which is cancelled when the client shuts down.
func (c *WSClient) readLoop(ctx context.Context, conn *websocket.Conn) {
	for !c.shutdown.Load() {
		if c.opts.ReadTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(c.opts.ReadTimeout))
		}

		_, data, err := conn.ReadMessage()
		if err != nil {
			// reads fail once the socket was closed for shutdown
			if c.shutdown.Load() {
				return
			}
			c.fail(&TransportError{Err: err}, nil)
			continue
		}

		msg, err := DecodeMessage(data, c.now())
		if err != nil {
			c.fail(err, data)
			continue
		}
		c.handler.OnMessage(msg.WithContext(ctx))
	}
}

func (c *WSClient) keepalive(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(c.opts.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deadline := time.Now().Add(time.Second)
			if err := conn.WriteControl(websocket.PingMessage, []byte("keepalive"), deadline); err != nil {
				c.logger.Debug("failed to send ping", zap.Error(err))
			}
		}
	}
}

// fail reports err to the handler, records it and stops the receive loop.
func (c *WSClient) fail(err error, data []byte) {
	c.logger.Warn("websocket error, shutting down", zap.Error(err))
	c.handler.OnError(err, data)
	c.setErr(err)
	c.shutdown.Store(true)
}

func (c *WSClient) disconnect() {
	c.closeOnce.Do(func() {
		c.handler.OnClose()
		c.logger.Info("websocket closed")
	})
}

func (c *WSClient) setErr(err error) {
	c.mu.Lock()
	c.err = err
	c.mu.Unlock()
}

func (c *WSClient) markDone() {
	c.doneOnce.Do(func() { close(c.done) })
}

func (c *WSClient) advance(s State) {
	for {
		cur := c.state.Load()
		if cur >= int32(s) {
			return
		}
		if c.state.CompareAndSwap(cur, int32(s)) {
			return
		}
	}
}
