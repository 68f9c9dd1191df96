// Package realtime is a client for bidirectional realtime model sessions.
//
// A Session owns one duplex connection (a Conn). On creation it pushes the
// session configuration, then decodes every inbound frame into a typed Event
// published on a single buffered stream. Outbound client events go through
// Send. Disconnect ends everything; there is no reconnection.
//
// # Connecting
//
// WebSocket mode is suitable for server-side applications:
//
//	conn, err := realtime.DialWebSocket(ctx,
//	    realtime.WithAPIKey(apiKey),
//	    realtime.WithModel(realtime.ModelGPT4oRealtimePreview),
//	)
//	if err != nil {
//	    return err
//	}
//	session := realtime.New(conn, &realtime.SessionConfig{
//	    Modalities:   []string{realtime.ModalityText},
//	    Instructions: "You are a helpful assistant.",
//	})
//	defer session.Disconnect()
//
// DialWebRTC negotiates a peer connection instead and exposes the model's
// audio as an RTP track.
//
// # Sending
//
//	session.AddUserMessage("Hello!")
//	session.CreateResponse(nil)
//
// Send accepts any JSON-serializable value. It never returns an error:
// failures are logged, and after Disconnect sends are ignored.
//
// # Receiving
//
//	for event := range session.Events() {
//	    switch event.Kind {
//	    case realtime.EventResponseTextDelta:
//	        fmt.Print(event.Delta)
//	    case realtime.EventError:
//	        log.Printf("server error: %v", event.Message)
//	    }
//	}
//
// The loop ends when the session is torn down. After a transport failure it
// first yields the events that were already received. Server error events are
// delivered as ordinary events; after one the session stops receiving and
// the caller decides whether to Disconnect. Frames that are not JSON objects
// or lack a "type" tear the session down. Frames with an unknown type, or a
// known type missing a required field, are dropped.
package realtime
