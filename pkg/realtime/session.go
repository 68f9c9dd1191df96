package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"log/slog"
	"sync"
	"time"
)

const (
	defaultEventBuffer  = 100
	defaultWriteTimeout = 10 * time.Second
)

// Option configures a Session.
type Option func(*options)

type options struct {
	logger       *slog.Logger
	eventBuffer  int
	writeTimeout time.Duration
	binaryCodec  Codec
	debugEvents  bool
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithEventBuffer sets how many decoded events may be queued ahead of the
// consumer before the receive loop waits. Default: 100.
func WithEventBuffer(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.eventBuffer = n
		}
	}
}

// WithWriteTimeout bounds each frame write. Default: 10s.
func WithWriteTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.writeTimeout = d
		}
	}
}

// WithBinaryCodec sets the decoder used for binary frames. Default: JSONCodec.
func WithBinaryCodec(c Codec) Option {
	return func(o *options) {
		if c != nil {
			o.binaryCodec = c
		}
	}
}

// WithDebugEvents publishes a Debug event for every frame the receive loop
// drops (unknown type or incomplete payload).
func WithDebugEvents() Option {
	return func(o *options) {
		o.debugEvents = true
	}
}

// Session drives one realtime connection: it pushes the session
// configuration, runs the receive loop, and publishes decoded events.
//
// A Session is active until it is torn down, either by Disconnect or
// internally on a transport failure or an undecodable frame. After teardown
// no frame is written and no event is published. Events already buffered
// when the session tears itself down are still delivered before the stream
// ends; Disconnect ends delivery at once.
type Session struct {
	conn   Conn
	config *SessionConfig
	log    *slog.Logger
	opts   options

	events chan Event    // closed by the receive loop when it ends with the session
	done   chan struct{} // closed at teardown
	stop   chan struct{} // closed by Disconnect
	ready  chan struct{} // closed once the configuration frame was handled

	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.RWMutex // guards tearingDown; held shared by in-flight sends
	tearingDown bool
	writeMu     sync.Mutex
	closeOnce   sync.Once
	stopOnce    sync.Once
}

// New takes ownership of conn, which must not have been started, and
// activates the session: conn is started, config is sent as the first frame
// without waiting for the write, and the receive loop begins.
//
// New never fails. A failing start, configuration write or read surfaces in
// the logs and, for start and read failures, as the end of Events.
func New(conn Conn, config *SessionConfig, opts ...Option) *Session {
	o := options{
		logger:       slog.Default(),
		eventBuffer:  defaultEventBuffer,
		writeTimeout: defaultWriteTimeout,
		binaryCodec:  JSONCodec{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	if config == nil {
		config = &SessionConfig{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		conn:   conn,
		config: config,
		log:    o.logger,
		opts:   o,
		events: make(chan Event, o.eventBuffer),
		done:   make(chan struct{}),
		stop:   make(chan struct{}),
		ready:  make(chan struct{}),
		ctx:    ctx,
		cancel: cancel,
	}

	if err := conn.Start(); err != nil {
		s.log.Error("realtime: start connection", "error", err)
		close(s.ready)
		s.teardown()
		close(s.events)
		return s
	}

	go s.sendConfig()
	go s.readLoop()
	return s
}

// Config returns the configuration the session was created with.
func (s *Session) Config() *SessionConfig {
	return s.config
}

// Events returns the session's event stream.
//
// The stream is created with the session and buffered, so events that arrive
// before the first call are not lost. It supports a single consumer: calling
// Events again yields the same stream, and a later consumer simply takes
// over delivery of the events not yet consumed.
//
// The sequence ends right away on Disconnect. When the session tears itself
// down it ends once the events received before the failure were yielded.
func (s *Session) Events() iter.Seq[Event] {
	return func(yield func(Event) bool) {
		for {
			select {
			case <-s.stop:
				return
			default:
			}
			select {
			case <-s.stop:
				return
			case ev, ok := <-s.events:
				if !ok {
					return
				}
				select {
				case <-s.stop:
					return
				default:
				}
				if !yield(ev) {
					return
				}
			}
		}
	}
}

// Done returns a channel that is closed when the session is torn down.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Send serializes msg as JSON and writes it as one text frame. msg may be
// any JSON-serializable value, typically one of the client events built by
// the New* helpers.
//
// Send never reports failure: after Disconnect it does nothing, and
// serialization or write errors are logged. Sends are written in call order
// and always after the session configuration.
func (s *Session) Send(msg any) {
	select {
	case <-s.ready:
	case <-s.done:
	}
	s.send(msg)
}

// Disconnect tears the session down: it records teardown, ends the event
// stream and closes the connection. It is idempotent and safe to call from
// any goroutine, including from inside an Events loop. Pending writes are
// aborted.
func (s *Session) Disconnect() {
	s.stopOnce.Do(func() { close(s.stop) })
	s.teardown()
}

// teardown records the end of the session and closes the connection. Sends
// in flight are cancelled, then waited for.
func (s *Session) teardown() {
	s.closeOnce.Do(func() {
		s.cancel()

		s.mu.Lock()
		s.tearingDown = true
		close(s.done)
		s.mu.Unlock()

		if err := s.conn.Close(); err != nil {
			s.log.Debug("realtime: close connection", "error", err)
		}
		s.log.Debug("realtime: disconnected")
	})
}

func (s *Session) isTearingDown() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tearingDown
}

func (s *Session) sendConfig() {
	defer close(s.ready)
	s.send(NewSessionUpdate(s.config))
}

func (s *Session) send(msg any) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.tearingDown {
		s.log.Debug("realtime: send after disconnect ignored")
		return
	}

	data, err := json.Marshal(msg)
	if err != nil {
		s.log.Error("realtime: marshal message", "error", err)
		return
	}

	if s.log.Enabled(context.Background(), slog.LevelDebug) {
		s.log.Debug("realtime: sending event", "content", truncate(data, 500))
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	ctx, cancel := context.WithTimeout(s.ctx, s.opts.writeTimeout)
	defer cancel()
	if err := s.conn.WriteFrame(ctx, Frame{Kind: FrameText, Data: data}); err != nil {
		if s.ctx.Err() != nil {
			s.log.Debug("realtime: send aborted by disconnect", "error", err)
			return
		}
		s.log.Error("realtime: send message", "error", err)
	}
}

// readLoop receives frames until a transport failure, teardown, or an error
// event, which parks the loop until the caller disconnects. Unless parked, it
// closes the event channel on exit so buffered events drain before the
// stream ends.
func (s *Session) readLoop() {
	for {
		f, err := s.conn.ReadFrame(s.ctx)
		if err != nil {
			s.handleReadError(err)
			break
		}
		if !s.handleFrame(f) {
			if !s.isTearingDown() {
				return
			}
			break
		}
	}
	close(s.events)
}

// handleFrame classifies one frame and reports whether to keep receiving.
func (s *Session) handleFrame(f Frame) bool {
	if s.isTearingDown() {
		return false
	}

	if s.log.Enabled(context.Background(), slog.LevelDebug) {
		s.log.Debug("realtime: received message", "kind", f.Kind, "len", len(f.Data), "content", truncate(f.Data, 1000))
	}

	discriminator, payload, err := ParseFrame(f, s.opts.binaryCodec)
	if err != nil {
		s.log.Error("realtime: received a frame that could not be classified", "error", err)
		s.teardown()
		return false
	}

	if ev, ok := Decode(discriminator, payload); ok {
		s.publish(ev)
	} else {
		reason := "unknown event type"
		if KnownType(discriminator) {
			reason = "incomplete payload"
		}
		s.log.Debug("realtime: dropped frame", "type", discriminator, "reason", reason)
		if s.opts.debugEvents {
			s.publish(Event{Kind: EventDebug, Debug: fmt.Sprintf("dropped %q: %s", discriminator, reason)})
		}
	}

	return discriminator != EventTypeError && !s.isTearingDown()
}

func (s *Session) handleReadError(err error) {
	if s.ctx.Err() != nil {
		s.log.Debug("realtime: read ended after disconnect", "error", err)
		return
	}
	if IsBenignClose(err) {
		s.log.Info("realtime: connection closed", "error", err)
	} else {
		s.log.Error("realtime: connection failed", "error", err)
	}
	s.teardown()
}

func (s *Session) publish(ev Event) {
	select {
	case <-s.done:
		return
	default:
	}
	select {
	case <-s.done:
	case s.events <- ev:
	}
}

func truncate(data []byte, n int) string {
	if len(data) > n {
		return string(data[:n]) + "..."
	}
	return string(data)
}
