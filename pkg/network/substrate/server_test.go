package substrate

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

// rpcHandler answers one request. Frames queued on the connection while the
// handler runs are written right after the response.
type rpcHandler func(c *fakeConn, params []json.RawMessage) (any, *rpcErrorObject)

type fakeConn struct {
	ws      *websocket.Conn
	writeMu sync.Mutex
	queued  []any
}

func (c *fakeConn) write(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.ws.WriteJSON(v)
}

// queue schedules a frame to be sent after the current response.
func (c *fakeConn) queue(v any) { c.queued = append(c.queued, v) }

func notification(method string, subID any, result any) map[string]any {
	return map[string]any{
		"jsonrpc": "2.0",
		"method":  method,
		"params":  map[string]any{"subscription": subID, "result": result},
	}
}

type recordedRequest struct {
	Method string
	Params json.RawMessage
}

// fakeNode is an in-process JSON-RPC websocket server.
type fakeNode struct {
	t   *testing.T
	srv *httptest.Server

	mu       sync.Mutex
	handlers map[string]rpcHandler
	requests []recordedRequest
	conns    []*fakeConn
}

func newFakeNode(t *testing.T) *fakeNode {
	t.Helper()
	n := &fakeNode{t: t, handlers: make(map[string]rpcHandler)}
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	n.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conn := &fakeConn{ws: ws}
		n.mu.Lock()
		n.conns = append(n.conns, conn)
		n.mu.Unlock()
		n.serve(conn)
	}))
	t.Cleanup(n.srv.Close)
	return n
}

func (n *fakeNode) URL() string {
	return "ws" + strings.TrimPrefix(n.srv.URL, "http")
}

func (n *fakeNode) handle(method string, h rpcHandler) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.handlers[method] = h
}

// result registers a handler answering method with a fixed result.
func (n *fakeNode) result(method string, v any) {
	n.handle(method, func(*fakeConn, []json.RawMessage) (any, *rpcErrorObject) { return v, nil })
}

func (n *fakeNode) calls(method string) []recordedRequest {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []recordedRequest
	for _, r := range n.requests {
		if r.Method == method {
			out = append(out, r)
		}
	}
	return out
}

// dropConnections closes every server side connection.
func (n *fakeNode) dropConnections() {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, c := range n.conns {
		_ = c.ws.Close()
	}
}

func (n *fakeNode) serve(conn *fakeConn) {
	defer conn.ws.Close()
	for {
		var req struct {
			ID     uint64          `json:"id"`
			Method string          `json:"method"`
			Params json.RawMessage `json:"params"`
		}
		if err := conn.ws.ReadJSON(&req); err != nil {
			return
		}

		n.mu.Lock()
		n.requests = append(n.requests, recordedRequest{Method: req.Method, Params: req.Params})
		h, ok := n.handlers[req.Method]
		n.mu.Unlock()

		resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
		if !ok {
			resp["error"] = map[string]any{"code": -32601, "message": "Method not found"}
		} else {
			var params []json.RawMessage
			_ = json.Unmarshal(req.Params, &params)
			result, rpcErr := h(conn, params)
			if rpcErr != nil {
				resp["error"] = rpcErr
			} else {
				resp["result"] = result
			}
		}
		if err := conn.write(resp); err != nil {
			return
		}
		for _, frame := range conn.queued {
			if err := conn.write(frame); err != nil {
				return
			}
		}
		conn.queued = nil
	}
}

func dialFake(t *testing.T, n *fakeNode) *Client {
	t.Helper()
	c, err := Dial(testContext(t), n.URL(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}
