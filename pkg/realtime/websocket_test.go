package realtime

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

// scriptedServer accepts one WebSocket, waits for the session.update frame,
// replies with frames, then closes normally.
func scriptedServer(t *testing.T, frames ...string) (*httptest.Server, <-chan *http.Request) {
	t.Helper()
	requests := make(chan *http.Request, 1)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests <- r
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		_, data, err := conn.ReadMessage()
		if err != nil || !strings.Contains(string(data), `"session.update"`) {
			return
		}
		for _, f := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
				return
			}
		}
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		_ = conn.SetReadDeadline(time.Now().Add(time.Second))
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv, requests
}

func TestDialWebSocket_Session(t *testing.T) {
	srv, requests := scriptedServer(t,
		`{"type":"session.created","session":{"id":"sess_1"}}`,
		`{"type":"response.text.delta","delta":"Hi"}`,
	)

	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()
	conn, err := DialWebSocket(ctx,
		WithAPIKey("sk-test"),
		WithModel("test-model"),
		WithOrganization("org_1"),
		WithWebSocketURL(wsURL(srv)),
	)
	if err != nil {
		t.Fatalf("DialWebSocket: %v", err)
	}

	req := <-requests
	if got := req.Header.Get("Authorization"); got != "Bearer sk-test" {
		t.Errorf("Authorization = %q", got)
	}
	if got := req.Header.Get("OpenAI-Beta"); got != "realtime=v1" {
		t.Errorf("OpenAI-Beta = %q", got)
	}
	if got := req.Header.Get("OpenAI-Organization"); got != "org_1" {
		t.Errorf("OpenAI-Organization = %q", got)
	}
	if got := req.URL.Query().Get("model"); got != "test-model" {
		t.Errorf("model query = %q", got)
	}

	s := New(conn, &SessionConfig{Modalities: []string{ModalityText}}, WithLogger(quietLogger()))
	defer s.Disconnect()
	events := collect(s)

	if ev := recvEvent(t, events); ev.Kind != EventSessionCreated || ev.Session == nil || ev.Session.ID != "sess_1" {
		t.Errorf("first event = %v", ev)
	}
	if ev := recvEvent(t, events); ev.Kind != EventResponseTextDelta || ev.Delta != "Hi" {
		t.Errorf("second event = %v", ev)
	}
	expectEnd(t, events)
}

func TestDialWebSocket_RequiresAPIKey(t *testing.T) {
	if _, err := DialWebSocket(context.Background()); err == nil {
		t.Fatal("DialWebSocket without an API key succeeded")
	}
}

func TestDialWebSocket_HandshakeRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid api key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := DialWebSocket(context.Background(), WithAPIKey("bad"), WithWebSocketURL(wsURL(srv)))
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *Error", err)
	}
	if apiErr.HTTPStatus != http.StatusUnauthorized || apiErr.Code != "connection_failed" {
		t.Errorf("err = %+v", apiErr)
	}
}

func TestWebSocketConn_StartTwice(t *testing.T) {
	c := NewWebSocketConn(nil)
	if err := c.Start(); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	if err := c.Start(); err == nil {
		t.Error("second Start succeeded")
	}
}

func TestIsBenignClose(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{&TransportError{Code: CloseNormalClosure}, true},
		{&TransportError{Code: CloseGoingAway}, true},
		{&TransportError{Code: 1006}, false},
		{ErrClosed, true},
		{wrapWebSocketError(websocket.ErrCloseSent), true},
		{wrapWebSocketError(&websocket.CloseError{Code: websocket.CloseGoingAway}), true},
		{wrapWebSocketError(&websocket.CloseError{Code: websocket.CloseInternalServerErr}), false},
		{errors.New("connection reset"), false},
	}
	for _, tt := range tests {
		if got := IsBenignClose(tt.err); got != tt.want {
			t.Errorf("IsBenignClose(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
