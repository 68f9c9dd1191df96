package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/vmihailenco/msgpack/v5"
)

const waitTimeout = 2 * time.Second

type fakeRead struct {
	frame Frame
	err   error
}

// fakeConn is an in-memory Conn. Inbound frames are injected with push and
// fail; outbound frames are recorded.
type fakeConn struct {
	startErr error
	writeErr error
	stall    chan struct{} // when set, writes block until cancelled

	inbound   chan fakeRead
	written   chan Frame
	closed    chan struct{}
	closeOnce sync.Once

	reads  atomic.Int32
	closes atomic.Int32

	mu     sync.Mutex
	writes []Frame
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		inbound: make(chan fakeRead, 16),
		written: make(chan Frame, 64),
		closed:  make(chan struct{}),
	}
}

func (c *fakeConn) Start() error { return c.startErr }

func (c *fakeConn) WriteFrame(ctx context.Context, f Frame) error {
	select {
	case <-c.closed:
		return ErrClosed
	default:
	}
	if c.writeErr != nil {
		return c.writeErr
	}
	if c.stall != nil {
		c.stall <- struct{}{}
		<-ctx.Done()
		return ctx.Err()
	}
	c.mu.Lock()
	c.writes = append(c.writes, f)
	c.mu.Unlock()
	c.written <- f
	return nil
}

func (c *fakeConn) ReadFrame(ctx context.Context) (Frame, error) {
	c.reads.Add(1)
	select {
	case r := <-c.inbound:
		return r.frame, r.err
	case <-c.closed:
		return Frame{}, ErrClosed
	case <-ctx.Done():
		return Frame{}, ctx.Err()
	}
}

func (c *fakeConn) Close() error {
	c.closes.Add(1)
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) push(s string) {
	c.inbound <- fakeRead{frame: TextFrame(s)}
}

func (c *fakeConn) fail(err error) {
	c.inbound <- fakeRead{err: err}
}

func (c *fakeConn) writtenFrames() []Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Frame(nil), c.writes...)
}

func (c *fakeConn) nextWrite(t *testing.T) map[string]any {
	t.Helper()
	select {
	case f := <-c.written:
		var m map[string]any
		if err := json.Unmarshal(f.Data, &m); err != nil {
			t.Fatalf("written frame is not JSON: %v", err)
		}
		return m
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for a write")
		return nil
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestSession(t *testing.T, conn *fakeConn, config *SessionConfig, opts ...Option) *Session {
	t.Helper()
	opts = append([]Option{WithLogger(quietLogger())}, opts...)
	s := New(conn, config, opts...)
	t.Cleanup(s.Disconnect)
	return s
}

// collect drains the event stream into a channel that is closed when the
// stream ends.
func collect(s *Session) <-chan Event {
	ch := make(chan Event, 100)
	go func() {
		defer close(ch)
		for ev := range s.Events() {
			ch <- ev
		}
	}()
	return ch
}

func recvEvent(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev, ok := <-ch:
		if !ok {
			t.Fatal("event stream ended unexpectedly")
		}
		return ev
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for an event")
		return Event{}
	}
}

func expectEnd(t *testing.T, ch <-chan Event) {
	t.Helper()
	select {
	case ev, ok := <-ch:
		if ok {
			t.Fatalf("unexpected event %v, want end of stream", ev)
		}
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for the stream to end")
	}
}

func expectQuiet(t *testing.T, ch <-chan Event) {
	t.Helper()
	select {
	case ev, ok := <-ch:
		if ok {
			t.Fatalf("unexpected event %v", ev)
		}
		t.Fatal("event stream ended unexpectedly")
	case <-time.After(50 * time.Millisecond):
	}
}

func expectDone(t *testing.T, s *Session) {
	t.Helper()
	select {
	case <-s.Done():
	case <-time.After(waitTimeout):
		t.Fatal("session was not torn down")
	}
}

func TestSession_ConfigIsFirstFrame(t *testing.T) {
	conn := newFakeConn()
	s := newTestSession(t, conn, &SessionConfig{
		Modalities:   []string{ModalityText},
		Instructions: "be brief",
	})
	s.AddUserMessage("hello")

	first := conn.nextWrite(t)
	if first["type"] != EventTypeSessionUpdate {
		t.Fatalf("first frame type = %v, want %s", first["type"], EventTypeSessionUpdate)
	}
	wantSession := map[string]any{
		"modalities":   []any{"text"},
		"instructions": "be brief",
	}
	if diff := cmp.Diff(wantSession, first["session"]); diff != "" {
		t.Errorf("session payload mismatch (-want +got):\n%s", diff)
	}

	second := conn.nextWrite(t)
	if second["type"] != EventTypeConversationItemCreate {
		t.Errorf("second frame type = %v, want %s", second["type"], EventTypeConversationItemCreate)
	}
}

func TestSession_NilConfigSendsEmptySession(t *testing.T) {
	conn := newFakeConn()
	s := newTestSession(t, conn, nil)

	first := conn.nextWrite(t)
	if diff := cmp.Diff(map[string]any{}, first["session"]); diff != "" {
		t.Errorf("session payload mismatch (-want +got):\n%s", diff)
	}
	if s.Config() == nil {
		t.Error("Config() = nil")
	}
}

func TestSession_SessionCreatedDeliveredOnce(t *testing.T) {
	conn := newFakeConn()
	s := newTestSession(t, conn, &SessionConfig{Modalities: []string{ModalityText}})
	events := collect(s)

	conn.push(`{"type":"session.created"}`)
	conn.push(`{"type":"turn.done"}`)

	if ev := recvEvent(t, events); ev.Kind != EventSessionCreated {
		t.Fatalf("first event = %v, want sessionCreated", ev)
	}
	if ev := recvEvent(t, events); ev.Kind != EventTurnDone {
		t.Fatalf("second event = %v, want turnDone", ev)
	}
	expectQuiet(t, events)
}

func TestSession_TextDeltasInOrder(t *testing.T) {
	conn := newFakeConn()
	s := newTestSession(t, conn, nil)
	events := collect(s)

	conn.push(`{"type":"response.text.delta","delta":"He"}`)
	conn.push(`{"type":"response.text.delta","delta":"llo"}`)
	conn.push(`{"type":"response.text.done","text":"Hello"}`)

	var got []string
	for range 3 {
		got = append(got, recvEvent(t, events).String())
	}
	want := []string{`responseTextDelta("He")`, `responseTextDelta("llo")`, `responseTextDone("Hello")`}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestSession_ToolCalls(t *testing.T) {
	conn := newFakeConn()
	s := newTestSession(t, conn, nil)
	events := collect(s)

	conn.push(`{"type":"response.tool_calls","tool_calls":[{"id":"1","type":"function","function":{"name":"f","arguments":"{}"}}]}`)

	ev := recvEvent(t, events)
	want := []ToolCall{{ID: "1", Type: "function", Function: &FunctionCall{Name: "f", Arguments: "{}"}}}
	if ev.Kind != EventResponseToolCalls {
		t.Fatalf("event = %v, want responseToolCalls", ev)
	}
	if diff := cmp.Diff(want, ev.ToolCalls); diff != "" {
		t.Errorf("tool calls mismatch (-want +got):\n%s", diff)
	}
}

func TestSession_TransportFailureEndsStream(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"normal closure", &TransportError{Code: CloseNormalClosure, Err: errors.New("bye")}},
		{"going away", &TransportError{Code: CloseGoingAway, Err: errors.New("bye")}},
		{"eof", io.EOF},
		{"abnormal closure", &TransportError{Code: 1006, Err: errors.New("reset")}},
		{"network failure", errors.New("connection reset by peer")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := newFakeConn()
			s := newTestSession(t, conn, nil)
			events := collect(s)

			conn.fail(tt.err)

			expectEnd(t, events)
			expectDone(t, s)
			if n := conn.closes.Load(); n != 1 {
				t.Errorf("conn closed %d times, want 1", n)
			}
		})
	}
}

func TestSession_BufferedEventsOutliveSelfTeardown(t *testing.T) {
	tests := []struct {
		name string
		end  func(c *fakeConn)
	}{
		{"normal closure", func(c *fakeConn) { c.fail(&TransportError{Code: CloseNormalClosure, Err: errors.New("bye")}) }},
		{"network failure", func(c *fakeConn) { c.fail(errors.New("connection reset by peer")) }},
		{"unclassifiable frame", func(c *fakeConn) { c.push(`not json`) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := newFakeConn()
			s := newTestSession(t, conn, nil)

			conn.push(`{"type":"response.text.delta","delta":"Hel"}`)
			conn.push(`{"type":"response.text.done","text":"Hello"}`)
			tt.end(conn)
			expectDone(t, s)

			events := collect(s)
			if ev := recvEvent(t, events); ev.Kind != EventResponseTextDelta || ev.Delta != "Hel" {
				t.Errorf("first event = %v, want responseTextDelta(\"Hel\")", ev)
			}
			if ev := recvEvent(t, events); ev.Kind != EventResponseTextDone || ev.Text != "Hello" {
				t.Errorf("second event = %v, want responseTextDone(\"Hello\")", ev)
			}
			expectEnd(t, events)
		})
	}
}

func TestSession_DisconnectDiscardsBufferedEvents(t *testing.T) {
	conn := newFakeConn()
	s := newTestSession(t, conn, nil)

	conn.push(`{"type":"session.created"}`)
	time.Sleep(50 * time.Millisecond)
	s.Disconnect()

	expectEnd(t, collect(s))
}

func TestSession_DisconnectAbortsStalledWrite(t *testing.T) {
	conn := newFakeConn()
	conn.stall = make(chan struct{}, 1)
	s := newTestSession(t, conn, nil, WithWriteTimeout(time.Minute))

	select {
	case <-conn.stall:
	case <-time.After(waitTimeout):
		t.Fatal("configuration write did not start")
	}

	returned := make(chan struct{})
	go func() {
		s.Disconnect()
		close(returned)
	}()
	select {
	case <-returned:
	case <-time.After(waitTimeout):
		t.Fatal("Disconnect waited for the stalled write")
	}
	expectDone(t, s)
}

func TestSession_SendAfterDisconnectIsIgnored(t *testing.T) {
	conn := newFakeConn()
	s := newTestSession(t, conn, nil)
	conn.nextWrite(t)

	s.Disconnect()
	for range 10 {
		s.AddUserMessage("late")
		s.CreateResponse(nil)
		s.Send(map[string]any{"type": "custom"})
	}

	if n := len(conn.writtenFrames()); n != 1 {
		t.Errorf("wrote %d frames, want only the configuration", n)
	}
}

func TestSession_UnclassifiableFrameTearsDown(t *testing.T) {
	frames := []string{
		`not json`,
		`[1,2,3]`,
		`"session.created"`,
		`{"delta":"x"}`,
		`{"type":7}`,
	}
	for _, frame := range frames {
		t.Run(frame, func(t *testing.T) {
			conn := newFakeConn()
			s := newTestSession(t, conn, nil)
			events := collect(s)

			conn.push(frame)

			expectEnd(t, events)
			expectDone(t, s)
		})
	}
}

func TestSession_DroppedFramesKeepLoopRunning(t *testing.T) {
	conn := newFakeConn()
	s := newTestSession(t, conn, nil)
	events := collect(s)

	conn.push(`{"type":"response.text.delta"}`)
	conn.push(`{"type":"rate_limits.updated","rate_limits":[]}`)
	conn.push(`{"type":"response.text.delta","delta":"x"}`)

	ev := recvEvent(t, events)
	if ev.Kind != EventResponseTextDelta || ev.Delta != "x" {
		t.Fatalf("event = %v, want responseTextDelta(\"x\")", ev)
	}
	expectQuiet(t, events)
}

func TestSession_DebugEvents(t *testing.T) {
	conn := newFakeConn()
	s := newTestSession(t, conn, nil, WithDebugEvents())
	events := collect(s)

	conn.push(`{"type":"rate_limits.updated"}`)
	conn.push(`{"type":"input.text.done"}`)

	first := recvEvent(t, events)
	if first.Kind != EventDebug || first.Debug != `dropped "rate_limits.updated": unknown event type` {
		t.Errorf("first event = %v", first)
	}
	second := recvEvent(t, events)
	if second.Kind != EventDebug || second.Debug != `dropped "input.text.done": incomplete payload` {
		t.Errorf("second event = %v", second)
	}
}

func TestSession_ErrorEventParksReceiveLoop(t *testing.T) {
	conn := newFakeConn()
	s := newTestSession(t, conn, nil)
	events := collect(s)

	conn.push(`{"type":"error","error":{"type":"invalid_request_error","message":"bad"}}`)
	conn.push(`{"type":"session.created"}`)

	ev := recvEvent(t, events)
	if ev.Kind != EventError || ev.Error == nil || ev.Error.Message != "bad" {
		t.Fatalf("event = %v, want error", ev)
	}
	expectQuiet(t, events)

	if n := conn.reads.Load(); n != 1 {
		t.Errorf("ReadFrame called %d times after the error event, want 1", n)
	}
	select {
	case <-s.Done():
		t.Fatal("error event must not tear the session down")
	default:
	}

	s.AddUserMessage("still there?")
	conn.nextWrite(t)
	if m := conn.nextWrite(t); m["type"] != EventTypeConversationItemCreate {
		t.Errorf("write after error = %v", m["type"])
	}

	s.Disconnect()
	expectEnd(t, events)
}

func TestSession_ConcurrentDisconnect(t *testing.T) {
	conn := newFakeConn()
	s := newTestSession(t, conn, nil)
	events := collect(s)

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Disconnect()
		}()
	}
	wg.Wait()

	expectEnd(t, events)
	if n := conn.closes.Load(); n != 1 {
		t.Errorf("conn closed %d times, want 1", n)
	}
}

func TestSession_DisconnectFromConsumer(t *testing.T) {
	conn := newFakeConn()
	s := newTestSession(t, conn, nil)
	conn.push(`{"type":"session.created"}`)
	conn.push(`{"type":"session.updated"}`)

	finished := make(chan int)
	go func() {
		n := 0
		for range s.Events() {
			n++
			s.Disconnect()
		}
		finished <- n
	}()

	select {
	case n := <-finished:
		if n != 1 {
			t.Errorf("consumed %d events, want 1", n)
		}
	case <-time.After(waitTimeout):
		t.Fatal("Events loop did not end after Disconnect")
	}
}

func TestSession_LateConsumerSeesBufferedEvents(t *testing.T) {
	conn := newFakeConn()
	s := newTestSession(t, conn, nil)

	conn.push(`{"type":"session.created"}`)
	time.Sleep(50 * time.Millisecond)

	events := collect(s)
	if ev := recvEvent(t, events); ev.Kind != EventSessionCreated {
		t.Errorf("event = %v, want sessionCreated", ev)
	}
}

func TestSession_StartFailure(t *testing.T) {
	conn := newFakeConn()
	conn.startErr = errors.New("already started")
	s := newTestSession(t, conn, nil)

	expectDone(t, s)
	expectEnd(t, collect(s))

	s.AddUserMessage("hello")
	if n := len(conn.writtenFrames()); n != 0 {
		t.Errorf("wrote %d frames, want 0", n)
	}
}

func TestSession_WriteErrorsAreSwallowed(t *testing.T) {
	conn := newFakeConn()
	conn.writeErr = errors.New("broken pipe")
	s := newTestSession(t, conn, nil)

	s.AddUserMessage("hello")
	s.Send(make(chan int)) // not serializable

	select {
	case <-s.Done():
		t.Fatal("write errors must not tear the session down")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSession_BinaryFramesUseCodec(t *testing.T) {
	conn := newFakeConn()
	s := newTestSession(t, conn, nil, WithBinaryCodec(MsgpackCodec{}))
	events := collect(s)

	data, err := msgpack.Marshal(map[string]any{"type": "turn.created", "turn_id": "turn_7"})
	if err != nil {
		t.Fatalf("msgpack.Marshal: %v", err)
	}
	conn.inbound <- fakeRead{frame: Frame{Kind: FrameBinary, Data: data}}

	ev := recvEvent(t, events)
	if ev.Kind != EventTurnCreated || ev.TurnID != "turn_7" {
		t.Errorf("event = %v, want turnCreated(turn_7)", ev)
	}
}

func TestSession_SendHelpersWireTypes(t *testing.T) {
	conn := newFakeConn()
	s := newTestSession(t, conn, nil)
	conn.nextWrite(t)

	s.UpdateSession(&SessionConfig{Voice: VoiceAlloy})
	s.AppendAudio([]byte{0, 1, 2})
	s.AppendAudioBase64("AAEC")
	s.CommitInput()
	s.ClearInput()
	s.AddUserMessage("hi")
	s.AddAssistantMessage("hello")
	s.AddFunctionCallOutput("call_1", `{"ok":true}`)
	s.TruncateItem("item_1", 0, 1500)
	s.DeleteItem("item_1")
	s.CreateResponse(&ResponseCreateOptions{Modalities: []string{ModalityText}})
	s.CancelResponse()

	want := []string{
		EventTypeSessionUpdate,
		EventTypeInputAudioBufferAppend,
		EventTypeInputAudioBufferAppend,
		EventTypeInputAudioBufferCommit,
		EventTypeInputAudioBufferClear,
		EventTypeConversationItemCreate,
		EventTypeConversationItemCreate,
		EventTypeConversationItemCreate,
		EventTypeConversationItemTruncate,
		EventTypeConversationItemDelete,
		EventTypeResponseCreate,
		EventTypeResponseCancel,
	}
	var got []string
	for range want {
		got = append(got, conn.nextWrite(t)["type"].(string))
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("write order mismatch (-want +got):\n%s", diff)
	}
}
