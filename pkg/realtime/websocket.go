package realtime

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocketConn is a Conn over a WebSocket. It suits server-side use.
type WebSocketConn struct {
	conn      *websocket.Conn
	started   atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// DialWebSocket opens a WebSocket to the realtime endpoint. The returned
// connection is not started; hand it to New.
func DialWebSocket(ctx context.Context, opts ...DialOption) (*WebSocketConn, error) {
	cfg, err := newDialConfig(opts)
	if err != nil {
		return nil, err
	}

	endpoint, err := cfg.endpoint(cfg.wsURL)
	if err != nil {
		return nil, fmt.Errorf("realtime: invalid websocket url: %w", err)
	}

	headers := cfg.header(cfg.apiKey)
	headers.Set("OpenAI-Beta", "realtime=v1")

	dialer := websocket.Dialer{
		HandshakeTimeout: cfg.httpClient.Timeout,
	}

	conn, resp, err := dialer.DialContext(ctx, endpoint, headers)
	if err != nil {
		if resp != nil {
			return nil, &Error{
				Code:       "connection_failed",
				Message:    "handshake rejected",
				HTTPStatus: resp.StatusCode,
				Err:        err,
			}
		}
		return nil, fmt.Errorf("realtime: failed to connect: %w", err)
	}
	return NewWebSocketConn(conn), nil
}

// NewWebSocketConn wraps an established WebSocket.
func NewWebSocketConn(conn *websocket.Conn) *WebSocketConn {
	return &WebSocketConn{conn: conn}
}

// Start implements Conn.
func (c *WebSocketConn) Start() error {
	if !c.started.CompareAndSwap(false, true) {
		return errors.New("realtime: websocket already started")
	}
	return nil
}

// WriteFrame implements Conn. The context deadline, if any, bounds the write.
func (c *WebSocketConn) WriteFrame(ctx context.Context, f Frame) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	deadline, _ := ctx.Deadline()
	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return wrapWebSocketError(err)
	}
	// Cancellation interrupts a write blocked on the socket.
	stop := context.AfterFunc(ctx, func() {
		_ = c.conn.NetConn().SetWriteDeadline(time.Now())
	})
	defer stop()

	messageType := websocket.TextMessage
	if f.Kind == FrameBinary {
		messageType = websocket.BinaryMessage
	}
	if err := c.conn.WriteMessage(messageType, f.Data); err != nil {
		return wrapWebSocketError(err)
	}
	return nil
}

// ReadFrame implements Conn. Cancelling ctx aborts the pending read and
// leaves the connection unusable.
func (c *WebSocketConn) ReadFrame(ctx context.Context) (Frame, error) {
	stop := context.AfterFunc(ctx, func() {
		_ = c.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	messageType, data, err := c.conn.ReadMessage()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Frame{}, ctxErr
		}
		return Frame{}, wrapWebSocketError(err)
	}
	kind := FrameText
	if messageType == websocket.BinaryMessage {
		kind = FrameBinary
	}
	return Frame{Kind: kind, Data: data}, nil
}

// Close sends a normal closure and closes the socket.
func (c *WebSocketConn) Close() error {
	c.closeOnce.Do(func() {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}

func wrapWebSocketError(err error) error {
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		return &TransportError{Code: ce.Code, Err: err}
	}
	if errors.Is(err, websocket.ErrCloseSent) {
		return fmt.Errorf("%w: %w", ErrClosed, err)
	}
	return err
}

var _ Conn = (*WebSocketConn)(nil)
