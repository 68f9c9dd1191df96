package realtime

import (
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
)

var (
	// ErrNotObject reports a frame that does not decode to a JSON object.
	ErrNotObject = errors.New("realtime: frame is not an object")

	// ErrMissingType reports a frame without a string "type" discriminator.
	ErrMissingType = errors.New("realtime: frame has no type")

	// ErrClosed is returned by Conn implementations once closed.
	ErrClosed = errors.New("realtime: connection closed")
)

// Error is a failure to open a session: a rejected handshake or a failed
// session or SDP request. HTTPStatus is zero when no response arrived.
type Error struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("realtime: ")
	b.WriteString(e.Code)
	if e.HTTPStatus != 0 {
		fmt.Fprintf(&b, " (http %d)", e.HTTPStatus)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// ErrorDetail is the structured payload of an error event, filled when the
// server sends an object. It implements error so it can be logged or
// returned as is.
type ErrorDetail struct {
	Type    string `json:"type,omitzero"`
	Code    string `json:"code,omitzero"`
	Message string `json:"message,omitzero"`
	Param   string `json:"param,omitzero"`
	EventID string `json:"event_id,omitzero"`
}

func (d *ErrorDetail) Error() string {
	kind := d.Code
	if kind == "" {
		kind = d.Type
	}
	switch {
	case kind == "":
		return "realtime: server error: " + d.Message
	case d.Param != "":
		return fmt.Sprintf("realtime: %s (%s): %s", kind, d.Param, d.Message)
	default:
		return fmt.Sprintf("realtime: %s: %s", kind, d.Message)
	}
}

// Transport close codes treated as an expected end of the connection.
const (
	CloseNormalClosure = 1000
	CloseGoingAway     = 1001
)

// TransportError is a connection-level failure carrying the transport's
// close or status code.
type TransportError struct {
	Code int
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("realtime: transport error (code %d): %v", e.Code, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsBenignClose reports whether err is an expected end of the connection:
// a normal or going-away close, or the peer/local side closing the socket.
// Any other error is an unexpected transport failure.
func IsBenignClose(err error) bool {
	if err == nil {
		return false
	}
	var te *TransportError
	if errors.As(err, &te) {
		switch te.Code {
		case CloseNormalClosure, CloseGoingAway:
			return true
		}
		return false
	}
	return errors.Is(err, ErrClosed) || errors.Is(err, net.ErrClosed) || errors.Is(err, io.EOF)
}
