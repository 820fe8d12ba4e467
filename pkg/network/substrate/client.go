// Package substrate talks to Substrate-based nodes over JSON-RPC on a
// websocket and decodes their SCALE payloads against V14 runtime metadata.
package substrate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"cosmossdk.io/log"
	"github.com/gorilla/websocket"
)

const (
	// DefaultDialTimeout bounds the websocket handshake.
	DefaultDialTimeout = 10 * time.Second

	// unsubscribeTimeout bounds the best-effort unsubscribe request.
	unsubscribeTimeout = 5 * time.Second

	// subscriptionBuffer is the number of notifications queued per subscription
	// before the read loop waits for the consumer.
	subscriptionBuffer = 64
)

// Client is a JSON-RPC 2.0 client multiplexing calls and subscriptions over a
// single websocket connection.
type Client struct {
	endpoint string
	conn     *websocket.Conn
	logger   log.Logger

	writeMu sync.Mutex

	mu      sync.Mutex
	nextID  uint64
	pending map[uint64]*pendingCall
	subs    map[string]*RawSubscription
	closed  bool

	closeCh   chan struct{}
	closeOnce sync.Once
}

type pendingCall struct {
	method string
	resp   chan *rpcMessage
	// sub is set for subscribe calls; the read loop registers it as soon as
	// the subscription id arrives so no early notification is lost.
	sub *RawSubscription
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcMessage struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *uint64         `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcErrorObject `json:"error,omitempty"`

	err error
}

type rpcErrorObject struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

type notificationParams struct {
	Subscription json.RawMessage `json:"subscription"`
	Result       json.RawMessage `json:"result"`
}

// Dial opens a websocket connection to endpoint and starts the read loop.
func Dial(ctx context.Context, endpoint string, logger log.Logger) (*Client, error) {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	dialer := websocket.Dialer{HandshakeTimeout: DefaultDialTimeout}
	conn, resp, err := dialer.DialContext(ctx, endpoint, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, &ConnectionError{Endpoint: endpoint, Err: err}
	}

	c := &Client{
		endpoint: endpoint,
		conn:     conn,
		logger:   logger.With(log.ModuleKey, "substrate-rpc"),
		pending:  make(map[uint64]*pendingCall),
		subs:     make(map[string]*RawSubscription),
		closeCh:  make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// Endpoint returns the websocket URL the client is connected to.
func (c *Client) Endpoint() string { return c.endpoint }

// Call performs a request and returns its raw result.
func (c *Client) Call(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	msg, err := c.roundTrip(ctx, method, params, nil)
	if err != nil {
		return nil, err
	}
	return msg.Result, nil
}

// CallResult performs a request and unmarshals its result into out.
func (c *Client) CallResult(ctx context.Context, out any, method string, params ...any) error {
	raw, err := c.Call(ctx, method, params...)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &RPCError{Method: method, Message: fmt.Sprintf("failed to parse result: %v", err)}
	}
	return nil
}

// Subscribe starts a subscription with method and returns its notification
// stream. unsubscribeMethod is sent when the subscription is released.
func (c *Client) Subscribe(ctx context.Context, method, unsubscribeMethod string, params ...any) (*RawSubscription, error) {
	sub := &RawSubscription{
		client:      c,
		method:      method,
		unsubMethod: unsubscribeMethod,
		ch:          make(chan json.RawMessage, subscriptionBuffer),
		errCh:       make(chan error, 1),
		done:        make(chan struct{}),
	}
	if _, err := c.roundTrip(ctx, method, params, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// Close terminates the connection. Pending calls fail with ErrClosed and every
// live subscription receives ErrClosed on its error channel.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()
		close(c.closeCh)

		c.writeMu.Lock()
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		c.writeMu.Unlock()
		err = c.conn.Close()
	})
	return err
}

func (c *Client) roundTrip(ctx context.Context, method string, params []any, sub *RawSubscription) (*rpcMessage, error) {
	if params == nil {
		params = []any{}
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	c.nextID++
	id := c.nextID
	call := &pendingCall{method: method, resp: make(chan *rpcMessage, 1), sub: sub}
	c.pending[id] = call
	c.mu.Unlock()

	c.logger.Debug("rpc request", "method", method, "id", id)
	if err := c.write(rpcRequest{JSONRPC: "2.0", ID: id, Method: method, Params: params}); err != nil {
		c.dropPending(id)
		return nil, &ConnectionError{Endpoint: c.endpoint, Err: err}
	}

	select {
	case msg := <-call.resp:
		if msg.err != nil {
			return nil, msg.err
		}
		if msg.Error != nil {
			return nil, &RPCError{
				Method:  method,
				Code:    msg.Error.Code,
				Message: msg.Error.Message,
				Data:    errorData(msg.Error.Data),
			}
		}
		return msg, nil
	case <-ctx.Done():
		c.dropPending(id)
		return nil, ctx.Err()
	case <-c.closeCh:
		return nil, ErrClosed
	}
}

func (c *Client) write(req rpcRequest) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(req)
}

func (c *Client) dropPending(id uint64) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

func (c *Client) readLoop() {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.fail(err)
			return
		}

		var msg rpcMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.logger.Warn("dropping malformed rpc frame", "error", err)
			continue
		}

		switch {
		case msg.ID != nil:
			c.handleResponse(&msg)
		case msg.Method != "":
			c.handleNotification(&msg)
		}
	}
}

func (c *Client) handleResponse(msg *rpcMessage) {
	c.mu.Lock()
	call, ok := c.pending[*msg.ID]
	if ok {
		delete(c.pending, *msg.ID)
	}
	if ok && call.sub != nil && msg.Error == nil {
		id, err := subscriptionID(msg.Result)
		if err != nil {
			msg.err = &RPCError{Method: call.method, Message: err.Error()}
		} else {
			call.sub.id = id
			c.subs[id] = call.sub
		}
	}
	c.mu.Unlock()

	if !ok {
		c.logger.Debug("response for unknown request", "id", *msg.ID)
		return
	}
	call.resp <- msg
}

func (c *Client) handleNotification(msg *rpcMessage) {
	var params notificationParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		c.logger.Warn("dropping malformed notification", "method", msg.Method, "error", err)
		return
	}
	id, err := subscriptionID(params.Subscription)
	if err != nil {
		return
	}

	c.mu.Lock()
	sub, ok := c.subs[id]
	c.mu.Unlock()
	if !ok {
		return
	}

	select {
	case sub.ch <- params.Result:
	case <-sub.done:
	case <-c.closeCh:
	}
}

// fail tears down all in-flight state after the connection broke.
func (c *Client) fail(readErr error) {
	c.mu.Lock()
	wasClosed := c.closed
	c.closed = true
	pending := c.pending
	subs := c.subs
	c.pending = make(map[uint64]*pendingCall)
	c.subs = make(map[string]*RawSubscription)
	c.mu.Unlock()

	var err error = ErrClosed
	if !wasClosed {
		err = &ConnectionError{Endpoint: c.endpoint, Err: readErr}
		c.logger.Error("websocket connection lost", "endpoint", c.endpoint, "error", readErr)
	}

	for _, call := range pending {
		call.resp <- &rpcMessage{err: err}
	}
	for _, sub := range subs {
		select {
		case sub.errCh <- err:
		default:
		}
	}
}

func subscriptionID(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), nil
	}
	return "", fmt.Errorf("invalid subscription id %s", string(raw))
}

func errorData(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}

// RawSubscription is a live server subscription delivering undecoded results.
type RawSubscription struct {
	client      *Client
	id          string
	method      string
	unsubMethod string

	ch    chan json.RawMessage
	errCh chan error
	done  chan struct{}
	once  sync.Once
}

// ID returns the server-assigned subscription id.
func (s *RawSubscription) ID() string { return s.id }

// Chan returns the notification stream. It is never closed.
func (s *RawSubscription) Chan() <-chan json.RawMessage { return s.ch }

// Err receives at most one error when the connection is lost.
func (s *RawSubscription) Err() <-chan error { return s.errCh }

// Done is closed once Unsubscribe has been called.
func (s *RawSubscription) Done() <-chan struct{} { return s.done }

// Unsubscribe stops delivery and asks the server to drop the subscription.
func (s *RawSubscription) Unsubscribe() {
	s.once.Do(func() {
		close(s.done)

		c := s.client
		c.mu.Lock()
		_, live := c.subs[s.id]
		delete(c.subs, s.id)
		closed := c.closed
		c.mu.Unlock()
		if !live || closed || s.unsubMethod == "" {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), unsubscribeTimeout)
		defer cancel()
		if _, err := c.Call(ctx, s.unsubMethod, s.id); err != nil {
			c.logger.Debug("unsubscribe failed", "method", s.unsubMethod, "id", s.id, "error", err)
		}
	})
}
