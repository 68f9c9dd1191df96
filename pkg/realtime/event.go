package realtime

import (
	"encoding/base64"
	"errors"
	"fmt"
)

// Server event types (sent from server to client).
const (
	// Error event
	EventTypeError = "error"

	// Session events
	EventTypeSessionCreated = "session.created"
	EventTypeSessionUpdated = "session.updated"

	// Response events
	EventTypeResponseCreated                   = "response.created"
	EventTypeResponseDone                      = "response.done"
	EventTypeResponseTextDelta                 = "response.text.delta"
	EventTypeResponseTextDone                  = "response.text.done"
	EventTypeResponseAudioDelta                = "response.audio.delta"
	EventTypeResponseAudioDone                 = "response.audio.done"
	EventTypeResponseAudioTranscriptDelta      = "response.audio_transcript.delta"
	EventTypeResponseAudioTranscriptDone       = "response.audio_transcript.done"
	EventTypeResponseFunctionCall              = "response.function_call"
	EventTypeResponseFunctionCallArgumentsDone = "response.function_call_arguments.done"
	EventTypeResponseToolCalls                 = "response.tool_calls"

	// Input events
	EventTypeInputSpeechStarted = "input_audio_buffer.speech_started"
	EventTypeInputSpeechStopped = "input_audio_buffer.speech_stopped"
	EventTypeInputAudioDelta    = "input.audio.delta"
	EventTypeInputAudioDone     = "input.audio.done"
	EventTypeInputTextDelta     = "input.text.delta"
	EventTypeInputTextDone      = "input.text.done"

	// Conversation events
	EventTypeConversationCreated                    = "conversation.created"
	EventTypeConversationUpdated                    = "conversation.updated"
	EventTypeConversationDone                       = "conversation.done"
	EventTypeConversationItemCreated                = "conversation.item.created"
	EventTypeConversationItemUpdated                = "conversation.item.updated"
	EventTypeConversationItemInput                  = "conversation.item.input"
	EventTypeConversationItemResponse               = "conversation.item.response"
	EventTypeConversationItemTranscriptionDelta     = "conversation.item.input_audio_transcription.delta"
	EventTypeConversationItemTranscriptionCompleted = "conversation.item.input_audio_transcription.completed"

	// Turn events
	EventTypeTurnCreated = "turn.created"
	EventTypeTurnUpdated = "turn.updated"
	EventTypeTurnDone    = "turn.done"
)

// EventKind identifies the variant of an Event.
type EventKind int

// Event kinds. The zero value is not a valid kind.
const (
	EventUnknown EventKind = iota

	EventSessionCreated
	EventSessionUpdated

	EventResponseCreated
	EventResponseDone
	EventResponseTextDelta
	EventResponseTextDone
	EventResponseAudioDelta
	EventResponseAudioDone
	EventResponseAudioTranscriptDelta
	EventResponseAudioTranscriptDone
	EventResponseFunctionCall
	EventResponseToolCalls

	EventInputSpeechStarted
	EventInputSpeechStopped
	EventInputAudioDelta
	EventInputAudioDone
	EventInputTextDelta
	EventInputTextDone

	EventConversationCreated
	EventConversationUpdated
	EventConversationDone
	EventConversationItemCreated
	EventConversationItemUpdated
	EventConversationItemInput
	EventConversationItemResponse
	EventConversationItemTranscriptionDelta
	EventConversationItemTranscriptionCompleted

	EventTurnCreated
	EventTurnUpdated
	EventTurnDone

	EventError
	EventDebug
)

var eventKindNames = [...]string{
	EventUnknown:                                "unknown",
	EventSessionCreated:                         "sessionCreated",
	EventSessionUpdated:                         "sessionUpdated",
	EventResponseCreated:                        "responseCreated",
	EventResponseDone:                           "responseDone",
	EventResponseTextDelta:                      "responseTextDelta",
	EventResponseTextDone:                       "responseTextDone",
	EventResponseAudioDelta:                     "responseAudioDelta",
	EventResponseAudioDone:                      "responseAudioDone",
	EventResponseAudioTranscriptDelta:           "responseAudioTranscriptDelta",
	EventResponseAudioTranscriptDone:            "responseAudioTranscriptDone",
	EventResponseFunctionCall:                   "responseFunctionCall",
	EventResponseToolCalls:                      "responseToolCalls",
	EventInputSpeechStarted:                     "inputSpeechStarted",
	EventInputSpeechStopped:                     "inputSpeechStopped",
	EventInputAudioDelta:                        "inputAudioDelta",
	EventInputAudioDone:                         "inputAudioDone",
	EventInputTextDelta:                         "inputTextDelta",
	EventInputTextDone:                          "inputTextDone",
	EventConversationCreated:                    "conversationCreated",
	EventConversationUpdated:                    "conversationUpdated",
	EventConversationDone:                       "conversationDone",
	EventConversationItemCreated:                "conversationItemCreated",
	EventConversationItemUpdated:                "conversationItemUpdated",
	EventConversationItemInput:                  "conversationItemInput",
	EventConversationItemResponse:               "conversationItemResponse",
	EventConversationItemTranscriptionDelta:     "conversationItemTranscriptionDelta",
	EventConversationItemTranscriptionCompleted: "conversationItemTranscriptionCompleted",
	EventTurnCreated:                            "turnCreated",
	EventTurnUpdated:                            "turnUpdated",
	EventTurnDone:                               "turnDone",
	EventError:                                  "error",
	EventDebug:                                  "debug",
}

// String returns the kind name, e.g. "responseTextDelta".
func (k EventKind) String() string {
	if k < 0 || int(k) >= len(eventKindNames) {
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
	return eventKindNames[k]
}

// MarshalText implements encoding.TextMarshaler so kinds render by name.
func (k EventKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// EventFamily groups related event kinds.
type EventFamily string

const (
	FamilySession      EventFamily = "session"
	FamilyResponse     EventFamily = "response"
	FamilyInput        EventFamily = "input"
	FamilyConversation EventFamily = "conversation"
	FamilyTurn         EventFamily = "turn"
	FamilyError        EventFamily = "error"
	FamilyDebug        EventFamily = "debug"
)

// Family returns the family the kind belongs to.
func (k EventKind) Family() EventFamily {
	switch {
	case k >= EventSessionCreated && k <= EventSessionUpdated:
		return FamilySession
	case k >= EventResponseCreated && k <= EventResponseToolCalls:
		return FamilyResponse
	case k >= EventInputSpeechStarted && k <= EventInputTextDone:
		return FamilyInput
	case k >= EventConversationCreated && k <= EventConversationItemTranscriptionCompleted:
		return FamilyConversation
	case k >= EventTurnCreated && k <= EventTurnDone:
		return FamilyTurn
	case k == EventError:
		return FamilyError
	case k == EventDebug:
		return FamilyDebug
	}
	return ""
}

// Event is one decoded server occurrence.
//
// Only the fields carried by the wire message are set; everything else is
// left at its zero value. Events are values and are never mutated after they
// are published.
type Event struct {
	// Kind is the event variant.
	Kind EventKind `json:"kind"`

	// Type is the wire discriminator the event was decoded from.
	// Empty for synthesised Debug events.
	Type string `json:"type,omitzero"`

	// EventID is the server-assigned event identifier.
	EventID string `json:"event_id,omitzero"`

	// ItemID is the conversation item the event refers to.
	ItemID string `json:"item_id,omitzero"`

	// ResponseID is the response the event refers to.
	ResponseID string `json:"response_id,omitzero"`

	// TurnID is the turn the event refers to (turn.* events).
	TurnID string `json:"turn_id,omitzero"`

	// Delta is the incremental text, transcript, or base64 audio of *.delta events.
	Delta string `json:"delta,omitzero"`

	// Text is the complete text of *.text.done events.
	Text string `json:"text,omitzero"`

	// Transcript is the complete transcript of transcript done events.
	Transcript string `json:"transcript,omitzero"`

	// AudioStartMs and AudioEndMs are set on speech started/stopped events.
	AudioStartMs int `json:"audio_start_ms,omitzero"`
	AudioEndMs   int `json:"audio_end_ms,omitzero"`

	// Message is the error description of an error event.
	// Nil when the error frame carried no error payload.
	Message *string `json:"message,omitzero"`

	// Error holds the structured error detail when the payload had one.
	Error *ErrorDetail `json:"error,omitzero"`

	// FunctionCall is set on responseFunctionCall events.
	FunctionCall *FunctionCall `json:"function_call,omitzero"`

	// ToolCalls is set on responseToolCalls events.
	ToolCalls []ToolCall `json:"tool_calls,omitzero"`

	// Item is the conversation item of conversation.item.* events.
	Item *ConversationItem `json:"item,omitzero"`

	// Session is the session resource of session.* events, if present.
	Session *SessionResource `json:"session,omitzero"`

	// Conversation is the conversation resource of conversation.* events, if present.
	Conversation *ConversationResource `json:"conversation,omitzero"`

	// Response is the response resource of response.created/done, if present.
	Response *ResponseResource `json:"response,omitzero"`

	// Debug is the description carried by Debug events.
	Debug string `json:"debug,omitzero"`
}

// Audio decodes the base64 audio carried by audio delta events.
func (e Event) Audio() ([]byte, error) {
	if e.Kind != EventResponseAudioDelta && e.Kind != EventInputAudioDelta {
		return nil, fmt.Errorf("realtime: %s event carries no audio", e.Kind)
	}
	return base64.StdEncoding.DecodeString(e.Delta)
}

// Err returns the failure reported by an error event: the structured
// detail when present, otherwise the message. It is nil for other events
// and for error events without a payload.
func (e Event) Err() error {
	switch {
	case e.Kind != EventError:
		return nil
	case e.Error != nil:
		return e.Error
	case e.Message != nil:
		return errors.New("realtime: server error: " + *e.Message)
	}
	return nil
}

// String renders a short human readable form, e.g. responseTextDelta("He").
func (e Event) String() string {
	switch e.Kind {
	case EventResponseTextDelta, EventResponseAudioTranscriptDelta,
		EventInputTextDelta, EventConversationItemTranscriptionDelta:
		return fmt.Sprintf("%s(%q)", e.Kind, e.Delta)
	case EventResponseAudioDelta, EventInputAudioDelta:
		return fmt.Sprintf("%s(%d bytes base64)", e.Kind, len(e.Delta))
	case EventResponseTextDone, EventInputTextDone:
		return fmt.Sprintf("%s(%q)", e.Kind, e.Text)
	case EventResponseAudioTranscriptDone, EventConversationItemTranscriptionCompleted:
		return fmt.Sprintf("%s(%q)", e.Kind, e.Transcript)
	case EventResponseFunctionCall:
		if e.FunctionCall != nil {
			return fmt.Sprintf("%s(%s)", e.Kind, e.FunctionCall.Name)
		}
	case EventResponseToolCalls:
		return fmt.Sprintf("%s(%d)", e.Kind, len(e.ToolCalls))
	case EventError:
		if e.Message != nil {
			return fmt.Sprintf("%s(%q)", e.Kind, *e.Message)
		}
		return fmt.Sprintf("%s(nil)", e.Kind)
	case EventDebug:
		return fmt.Sprintf("%s(%q)", e.Kind, e.Debug)
	}
	return e.Kind.String()
}

// FunctionCall describes a model-initiated function invocation.
type FunctionCall struct {
	// Name is the function name.
	Name string `json:"name"`

	// Arguments is the serialized (JSON) argument string, copied verbatim.
	Arguments string `json:"arguments"`

	// CallID is the call identifier, when the wire message carried one.
	CallID string `json:"call_id,omitzero"`
}

// ToolCall describes a model-initiated tool invocation.
type ToolCall struct {
	ID       string        `json:"id"`
	Type     string        `json:"type"`
	Function *FunctionCall `json:"function,omitzero"`
}
