package realtime

import "context"

// FrameKind is the type of a transport frame.
type FrameKind int

const (
	FrameText FrameKind = iota + 1
	FrameBinary
)

func (k FrameKind) String() string {
	switch k {
	case FrameText:
		return "text"
	case FrameBinary:
		return "binary"
	}
	return "unknown"
}

// Frame is one discrete message delivered by a Conn.
type Frame struct {
	Kind FrameKind
	Data []byte
}

// TextFrame returns a text frame holding s.
func TextFrame(s string) Frame {
	return Frame{Kind: FrameText, Data: []byte(s)}
}

// Conn is the duplex transport a Session drives. The Session owns the Conn
// once it is handed to New: nothing else may write to it or close it.
//
// Implementations must allow one concurrent reader and one concurrent writer,
// and Close must unblock both.
type Conn interface {
	// Start activates a connection that has been dialed but not yet used.
	Start() error

	// WriteFrame transmits one frame.
	WriteFrame(ctx context.Context, f Frame) error

	// ReadFrame blocks until the next inbound frame or a failure. After a
	// failure the connection is unusable.
	ReadFrame(ctx context.Context) (Frame, error)

	// Close terminates the connection.
	Close() error
}
