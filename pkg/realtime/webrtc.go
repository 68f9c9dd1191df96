package realtime

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/pion/rtp"
	"github.com/pion/webrtc/v3"
)

// WebRTCConn is a Conn over a WebRTC data channel. Events travel on the
// "oai-events" channel; model audio arrives on a remote RTP track.
type WebRTCConn struct {
	pc *webrtc.PeerConnection
	dc *webrtc.DataChannel

	frames    chan Frame
	dcClosed  chan struct{}
	closed    chan struct{}
	trackCh   chan struct{}
	started   atomic.Bool
	closeOnce sync.Once
	dcOnce    sync.Once
	trackOnce sync.Once

	mu          sync.Mutex
	remoteTrack *webrtc.TrackRemote
}

// ephemeralTokenResponse is the response from the session creation API.
type ephemeralTokenResponse struct {
	ID           string `json:"id"`
	Model        string `json:"model"`
	ExpiresAt    int64  `json:"expires_at"`
	ClientSecret struct {
		Value     string `json:"value"`
		ExpiresAt int64  `json:"expires_at"`
	} `json:"client_secret"`
}

// DialWebRTC negotiates a peer connection with the realtime endpoint and
// waits for the event data channel to open. The returned connection is not
// started; hand it to New.
func DialWebRTC(ctx context.Context, opts ...DialOption) (*WebRTCConn, error) {
	cfg, err := newDialConfig(opts)
	if err != nil {
		return nil, err
	}

	token, err := cfg.ephemeralToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("realtime: failed to get ephemeral token: %w", err)
	}

	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{
		ICEServers: []webrtc.ICEServer{{URLs: cfg.iceServers}},
	})
	if err != nil {
		return nil, fmt.Errorf("realtime: failed to create peer connection: %w", err)
	}

	c := &WebRTCConn{
		pc:       pc,
		frames:   make(chan Frame, defaultEventBuffer),
		dcClosed: make(chan struct{}),
		closed:   make(chan struct{}),
		trackCh:  make(chan struct{}),
	}

	if _, err := pc.AddTransceiverFromKind(webrtc.RTPCodecTypeAudio, webrtc.RTPTransceiverInit{
		Direction: webrtc.RTPTransceiverDirectionRecvonly,
	}); err != nil {
		pc.Close()
		return nil, fmt.Errorf("realtime: failed to add audio transceiver: %w", err)
	}

	dc, err := pc.CreateDataChannel("oai-events", nil)
	if err != nil {
		pc.Close()
		return nil, fmt.Errorf("realtime: failed to create data channel: %w", err)
	}
	c.dc = dc

	opened := make(chan struct{})
	dc.OnOpen(func() {
		slog.Debug("realtime: data channel opened")
		close(opened)
	})
	dc.OnMessage(c.onMessage)
	dc.OnClose(func() {
		slog.Debug("realtime: data channel closed")
		c.dcOnce.Do(func() { close(c.dcClosed) })
	})

	pc.OnTrack(func(track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		slog.Debug("realtime: received remote track", "kind", track.Kind(), "codec", track.Codec().MimeType)
		if track.Kind() != webrtc.RTPCodecTypeAudio {
			return
		}
		c.mu.Lock()
		c.remoteTrack = track
		c.mu.Unlock()
		c.trackOnce.Do(func() { close(c.trackCh) })
	})

	offer, err := pc.CreateOffer(nil)
	if err != nil {
		pc.Close()
		return nil, fmt.Errorf("realtime: failed to create offer: %w", err)
	}
	if err := pc.SetLocalDescription(offer); err != nil {
		pc.Close()
		return nil, fmt.Errorf("realtime: failed to set local description: %w", err)
	}

	select {
	case <-webrtc.GatheringCompletePromise(pc):
	case <-ctx.Done():
		pc.Close()
		return nil, ctx.Err()
	}

	answer, err := cfg.exchangeSDP(ctx, token, pc.LocalDescription().SDP)
	if err != nil {
		pc.Close()
		return nil, fmt.Errorf("realtime: failed to send offer: %w", err)
	}
	if err := pc.SetRemoteDescription(webrtc.SessionDescription{
		Type: webrtc.SDPTypeAnswer,
		SDP:  answer,
	}); err != nil {
		pc.Close()
		return nil, fmt.Errorf("realtime: failed to set remote description: %w", err)
	}

	select {
	case <-opened:
	case <-ctx.Done():
		pc.Close()
		return nil, ctx.Err()
	}
	return c, nil
}

func (c *WebRTCConn) onMessage(msg webrtc.DataChannelMessage) {
	f := Frame{Kind: FrameBinary, Data: msg.Data}
	if msg.IsString {
		f.Kind = FrameText
	}
	select {
	case c.frames <- f:
	case <-c.closed:
	}
}

// Start implements Conn.
func (c *WebRTCConn) Start() error {
	if !c.started.CompareAndSwap(false, true) {
		return errors.New("realtime: webrtc connection already started")
	}
	return nil
}

// WriteFrame implements Conn.
func (c *WebRTCConn) WriteFrame(ctx context.Context, f Frame) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case <-c.closed:
		return ErrClosed
	default:
	}
	if f.Kind == FrameBinary {
		return c.dc.Send(f.Data)
	}
	return c.dc.SendText(string(f.Data))
}

// ReadFrame implements Conn. Frames already received are delivered before
// a data channel close is reported.
func (c *WebRTCConn) ReadFrame(ctx context.Context) (Frame, error) {
	select {
	case f := <-c.frames:
		return f, nil
	default:
	}
	select {
	case f := <-c.frames:
		return f, nil
	case <-c.dcClosed:
		return Frame{}, &TransportError{Code: CloseNormalClosure, Err: errors.New("data channel closed")}
	case <-c.closed:
		return Frame{}, ErrClosed
	case <-ctx.Done():
		return Frame{}, ctx.Err()
	}
}

// AudioTrack returns the remote audio track, or nil before it arrives.
func (c *WebRTCConn) AudioTrack() *webrtc.TrackRemote {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remoteTrack
}

// ReadAudioPacket waits for the remote audio track and returns its next RTP
// packet (Opus payload).
func (c *WebRTCConn) ReadAudioPacket(ctx context.Context) (*rtp.Packet, error) {
	select {
	case <-c.trackCh:
	case <-c.closed:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	pkt, _, err := c.AudioTrack().ReadRTP()
	if err != nil {
		return nil, fmt.Errorf("realtime: read audio packet: %w", err)
	}
	return pkt, nil
}

// Close closes the data channel and the peer connection.
func (c *WebRTCConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)
		if c.dc != nil {
			c.dc.Close()
		}
		if c.pc != nil {
			err = c.pc.Close()
		}
	})
	return err
}

func (c *dialConfig) ephemeralToken(ctx context.Context) (string, error) {
	body, err := json.Marshal(map[string]any{
		"model": c.model,
		"voice": c.voice,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.httpURL+"/sessions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header = c.header(c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return "", &Error{
			Code:       "session_creation_failed",
			Message:    fmt.Sprintf("failed to create session: %s", msg),
			HTTPStatus: resp.StatusCode,
		}
	}

	var tokenResp ephemeralTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", err
	}
	if tokenResp.ClientSecret.Value == "" {
		return "", &Error{Code: "session_creation_failed", Message: "empty client secret"}
	}
	return tokenResp.ClientSecret.Value, nil
}

func (c *dialConfig) exchangeSDP(ctx context.Context, token, sdp string) (string, error) {
	endpoint, err := c.endpoint(c.httpURL)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader([]byte(sdp)))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/sdp")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return "", &Error{
			Code:       "sdp_exchange_failed",
			Message:    fmt.Sprintf("failed to exchange SDP: %s", msg),
			HTTPStatus: resp.StatusCode,
		}
	}

	answer, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(answer), nil
}

var _ Conn = (*WebRTCConn)(nil)
