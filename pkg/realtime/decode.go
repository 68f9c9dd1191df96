package realtime

import (
	"encoding/json"
	"fmt"
)

var kindByType = map[string]EventKind{
	EventTypeSessionCreated: EventSessionCreated,
	EventTypeSessionUpdated: EventSessionUpdated,

	EventTypeResponseCreated:                   EventResponseCreated,
	EventTypeResponseDone:                      EventResponseDone,
	EventTypeResponseTextDelta:                 EventResponseTextDelta,
	EventTypeResponseTextDone:                  EventResponseTextDone,
	EventTypeResponseAudioDelta:                EventResponseAudioDelta,
	EventTypeResponseAudioDone:                 EventResponseAudioDone,
	EventTypeResponseAudioTranscriptDelta:      EventResponseAudioTranscriptDelta,
	EventTypeResponseAudioTranscriptDone:       EventResponseAudioTranscriptDone,
	EventTypeResponseFunctionCall:              EventResponseFunctionCall,
	EventTypeResponseFunctionCallArgumentsDone: EventResponseFunctionCall,
	EventTypeResponseToolCalls:                 EventResponseToolCalls,

	EventTypeInputSpeechStarted: EventInputSpeechStarted,
	EventTypeInputSpeechStopped: EventInputSpeechStopped,
	EventTypeInputAudioDelta:    EventInputAudioDelta,
	EventTypeInputAudioDone:     EventInputAudioDone,
	EventTypeInputTextDelta:     EventInputTextDelta,
	EventTypeInputTextDone:      EventInputTextDone,

	EventTypeConversationCreated:                    EventConversationCreated,
	EventTypeConversationUpdated:                    EventConversationUpdated,
	EventTypeConversationDone:                       EventConversationDone,
	EventTypeConversationItemCreated:                EventConversationItemCreated,
	EventTypeConversationItemUpdated:                EventConversationItemUpdated,
	EventTypeConversationItemInput:                  EventConversationItemInput,
	EventTypeConversationItemResponse:               EventConversationItemResponse,
	EventTypeConversationItemTranscriptionDelta:     EventConversationItemTranscriptionDelta,
	EventTypeConversationItemTranscriptionCompleted: EventConversationItemTranscriptionCompleted,

	EventTypeTurnCreated: EventTurnCreated,
	EventTypeTurnUpdated: EventTurnUpdated,
	EventTypeTurnDone:    EventTurnDone,

	EventTypeError: EventError,
}

// KnownType reports whether discriminator names a decodable event.
func KnownType(discriminator string) bool {
	_, ok := kindByType[discriminator]
	return ok
}

// ParseFrame decodes a frame into its discriminator and structural payload.
// Text frames are JSON; binary frames use codec (JSON when nil).
//
// A frame that is not an object yields ErrNotObject; an object without a
// string "type" yields ErrMissingType.
func ParseFrame(f Frame, codec Codec) (string, map[string]any, error) {
	if codec == nil || f.Kind != FrameBinary {
		codec = JSONCodec{}
	}
	var v any
	if err := codec.Unmarshal(f.Data, &v); err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrNotObject, err)
	}
	payload, ok := v.(map[string]any)
	if !ok {
		return "", nil, ErrNotObject
	}
	discriminator, ok := payload["type"].(string)
	if !ok {
		return "", nil, ErrMissingType
	}
	return discriminator, payload, nil
}

// DecodeFrame parses and decodes f. ok is false when the frame was valid but
// produced no event (unknown type or incomplete payload).
func DecodeFrame(f Frame, codec Codec) (ev Event, ok bool, err error) {
	discriminator, payload, err := ParseFrame(f, codec)
	if err != nil {
		return Event{}, false, err
	}
	ev, ok = Decode(discriminator, payload)
	return ev, ok, nil
}

// Decode maps a discriminator and its payload to an Event.
//
// It never fails: unknown discriminators and recognised ones whose required
// fields are missing or of the wrong type both return false.
func Decode(discriminator string, payload map[string]any) (Event, bool) {
	kind, ok := kindByType[discriminator]
	if !ok {
		return Event{}, false
	}

	ev := Event{Kind: kind, Type: discriminator}
	ev.EventID, _ = stringField(payload, "event_id")
	ev.ItemID, _ = stringField(payload, "item_id")
	ev.ResponseID, _ = stringField(payload, "response_id")

	switch kind {
	case EventSessionCreated, EventSessionUpdated:
		if raw, ok := objectField(payload, "session"); ok {
			var res SessionResource
			if convert(raw, &res) {
				ev.Session = &res
			}
		}

	case EventResponseCreated, EventResponseDone:
		if raw, ok := objectField(payload, "response"); ok {
			var res ResponseResource
			if convert(raw, &res) {
				ev.Response = &res
			}
		}

	case EventResponseTextDelta, EventResponseAudioDelta, EventResponseAudioTranscriptDelta,
		EventInputAudioDelta, EventInputTextDelta, EventConversationItemTranscriptionDelta:
		if ev.Delta, ok = stringField(payload, "delta"); !ok {
			return Event{}, false
		}

	case EventResponseTextDone, EventInputTextDone:
		if ev.Text, ok = stringField(payload, "text"); !ok {
			return Event{}, false
		}

	case EventResponseAudioTranscriptDone, EventConversationItemTranscriptionCompleted:
		if ev.Transcript, ok = stringField(payload, "transcript"); !ok {
			return Event{}, false
		}

	case EventResponseFunctionCall:
		var call FunctionCall
		if discriminator == EventTypeResponseFunctionCallArgumentsDone {
			call, ok = functionCall(payload)
		} else if raw, found := objectField(payload, "function_call"); found {
			call, ok = functionCall(raw)
		} else {
			ok = false
		}
		if !ok {
			return Event{}, false
		}
		ev.FunctionCall = &call

	case EventResponseToolCalls:
		raw, ok := payload["tool_calls"].([]any)
		if !ok {
			return Event{}, false
		}
		ev.ToolCalls = toolCalls(raw)

	case EventInputSpeechStarted:
		ev.AudioStartMs, _ = intField(payload, "audio_start_ms")

	case EventInputSpeechStopped:
		ev.AudioEndMs, _ = intField(payload, "audio_end_ms")

	case EventConversationCreated, EventConversationUpdated, EventConversationDone:
		if raw, ok := objectField(payload, "conversation"); ok {
			var res ConversationResource
			if convert(raw, &res) {
				ev.Conversation = &res
			}
		}

	case EventConversationItemCreated, EventConversationItemUpdated,
		EventConversationItemInput, EventConversationItemResponse:
		raw, ok := objectField(payload, "item")
		if !ok {
			return Event{}, false
		}
		var item ConversationItem
		if !convert(raw, &item) {
			return Event{}, false
		}
		ev.Item = &item

	case EventTurnCreated, EventTurnUpdated, EventTurnDone:
		ev.TurnID, _ = stringField(payload, "turn_id")

	case EventError:
		decodeError(&ev, payload["error"])
	}
	return ev, true
}

func decodeError(ev *Event, raw any) {
	var msg string
	switch v := raw.(type) {
	case nil:
		return
	case string:
		msg = v
	case map[string]any:
		msg = fmt.Sprintf("%v", v)
		var detail ErrorDetail
		if convert(v, &detail) {
			ev.Error = &detail
		}
	default:
		msg = fmt.Sprintf("%v", v)
	}
	ev.Message = &msg
}

func functionCall(m map[string]any) (FunctionCall, bool) {
	name, ok := stringField(m, "name")
	if !ok {
		return FunctionCall{}, false
	}
	args, ok := stringField(m, "arguments")
	if !ok {
		return FunctionCall{}, false
	}
	callID, _ := stringField(m, "call_id")
	return FunctionCall{Name: name, Arguments: args, CallID: callID}, true
}

// toolCalls keeps the well-formed entries of a tool_calls array: objects
// with string id and type. A malformed function leaves Function nil.
func toolCalls(raw []any) []ToolCall {
	calls := make([]ToolCall, 0, len(raw))
	for _, r := range raw {
		m, ok := r.(map[string]any)
		if !ok {
			continue
		}
		id, ok := stringField(m, "id")
		if !ok {
			continue
		}
		typ, ok := stringField(m, "type")
		if !ok {
			continue
		}
		call := ToolCall{ID: id, Type: typ}
		if fn, ok := objectField(m, "function"); ok {
			if fc, ok := functionCall(fn); ok {
				call.Function = &fc
			}
		}
		calls = append(calls, call)
	}
	return calls
}

func stringField(m map[string]any, key string) (string, bool) {
	s, ok := m[key].(string)
	return s, ok
}

func objectField(m map[string]any, key string) (map[string]any, bool) {
	o, ok := m[key].(map[string]any)
	return o, ok
}

// intField accepts any numeric representation; JSON yields float64 while
// MessagePack yields sized integers.
func intField(m map[string]any, key string) (int, bool) {
	switch n := m[key].(type) {
	case float64:
		return int(n), true
	case float32:
		return int(n), true
	case int:
		return n, true
	case int8:
		return int(n), true
	case int16:
		return int(n), true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case uint8:
		return int(n), true
	case uint16:
		return int(n), true
	case uint32:
		return int(n), true
	case uint64:
		return int(n), true
	}
	return 0, false
}

// convert copies a structural value into a typed struct through JSON.
func convert(src any, dst any) bool {
	data, err := json.Marshal(src)
	if err != nil {
		return false
	}
	return json.Unmarshal(data, dst) == nil
}
