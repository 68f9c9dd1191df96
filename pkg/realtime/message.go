package realtime

import (
	"encoding/base64"

	"github.com/google/uuid"
)

// Client event types (sent from client to server).
const (
	EventTypeSessionUpdate = "session.update"

	EventTypeInputAudioBufferAppend = "input_audio_buffer.append"
	EventTypeInputAudioBufferCommit = "input_audio_buffer.commit"
	EventTypeInputAudioBufferClear  = "input_audio_buffer.clear"

	EventTypeConversationItemCreate   = "conversation.item.create"
	EventTypeConversationItemTruncate = "conversation.item.truncate"
	EventTypeConversationItemDelete   = "conversation.item.delete"

	EventTypeResponseCreate = "response.create"
	EventTypeResponseCancel = "response.cancel"
)

// generateEventID generates a unique client event ID.
func generateEventID() string {
	return "evt_" + uuid.New().String()[:12]
}

// ClientEvent is a client event without a payload.
type ClientEvent struct {
	EventID string `json:"event_id,omitzero"`
	Type    string `json:"type"`
}

// SessionUpdate pushes session configuration.
type SessionUpdate struct {
	EventID string         `json:"event_id,omitzero"`
	Type    string         `json:"type"`
	Session *SessionConfig `json:"session"`
}

// InputAudioBufferAppend appends base64 audio to the input buffer.
type InputAudioBufferAppend struct {
	EventID string `json:"event_id,omitzero"`
	Type    string `json:"type"`
	Audio   string `json:"audio"`
}

// ConversationItemCreate adds an item to the conversation.
type ConversationItemCreate struct {
	EventID        string           `json:"event_id,omitzero"`
	Type           string           `json:"type"`
	PreviousItemID string           `json:"previous_item_id,omitzero"`
	Item           ConversationItem `json:"item"`
}

// ConversationItemTruncate truncates assistant audio already played back.
type ConversationItemTruncate struct {
	EventID      string `json:"event_id,omitzero"`
	Type         string `json:"type"`
	ItemID       string `json:"item_id"`
	ContentIndex int    `json:"content_index"`
	AudioEndMs   int    `json:"audio_end_ms"`
}

// ConversationItemDelete removes an item from the conversation.
type ConversationItemDelete struct {
	EventID string `json:"event_id,omitzero"`
	Type    string `json:"type"`
	ItemID  string `json:"item_id"`
}

// ResponseCreate asks the model to generate a response.
type ResponseCreate struct {
	EventID  string                 `json:"event_id,omitzero"`
	Type     string                 `json:"type"`
	Response *ResponseCreateOptions `json:"response,omitzero"`
}

// NewSessionUpdate returns the session.update event for config.
func NewSessionUpdate(config *SessionConfig) *SessionUpdate {
	if config == nil {
		config = &SessionConfig{}
	}
	return &SessionUpdate{
		EventID: generateEventID(),
		Type:    EventTypeSessionUpdate,
		Session: config,
	}
}

// NewAudioAppend base64-encodes PCM audio (16-bit, 24kHz, mono,
// little-endian) into an input_audio_buffer.append event.
func NewAudioAppend(pcm []byte) *InputAudioBufferAppend {
	return NewAudioAppendBase64(base64.StdEncoding.EncodeToString(pcm))
}

// NewAudioAppendBase64 wraps already encoded audio.
func NewAudioAppendBase64(audioBase64 string) *InputAudioBufferAppend {
	return &InputAudioBufferAppend{
		EventID: generateEventID(),
		Type:    EventTypeInputAudioBufferAppend,
		Audio:   audioBase64,
	}
}

// NewInputCommit commits the input audio buffer into a user message.
func NewInputCommit() *ClientEvent {
	return &ClientEvent{EventID: generateEventID(), Type: EventTypeInputAudioBufferCommit}
}

// NewInputClear discards the input audio buffer.
func NewInputClear() *ClientEvent {
	return &ClientEvent{EventID: generateEventID(), Type: EventTypeInputAudioBufferClear}
}

// NewUserMessage adds a user text message.
func NewUserMessage(text string) *ConversationItemCreate {
	return newItemCreate(ConversationItem{
		Type:    "message",
		Role:    "user",
		Content: []ContentPart{{Type: "input_text", Text: text}},
	})
}

// NewUserAudio adds a user audio message. transcript is optional.
func NewUserAudio(audioBase64, transcript string) *ConversationItemCreate {
	return newItemCreate(ConversationItem{
		Type:    "message",
		Role:    "user",
		Content: []ContentPart{{Type: "input_audio", Audio: audioBase64, Transcript: transcript}},
	})
}

// NewAssistantMessage adds an assistant text message.
func NewAssistantMessage(text string) *ConversationItemCreate {
	return newItemCreate(ConversationItem{
		Type:    "message",
		Role:    "assistant",
		Content: []ContentPart{{Type: "text", Text: text}},
	})
}

// NewFunctionCallOutput returns the result of a function call to the model.
func NewFunctionCallOutput(callID, output string) *ConversationItemCreate {
	return newItemCreate(ConversationItem{
		Type:   "function_call_output",
		CallID: callID,
		Output: output,
	})
}

func newItemCreate(item ConversationItem) *ConversationItemCreate {
	return &ConversationItemCreate{
		EventID: generateEventID(),
		Type:    EventTypeConversationItemCreate,
		Item:    item,
	}
}

// NewItemTruncate truncates an assistant audio item at audioEndMs.
func NewItemTruncate(itemID string, contentIndex, audioEndMs int) *ConversationItemTruncate {
	return &ConversationItemTruncate{
		EventID:      generateEventID(),
		Type:         EventTypeConversationItemTruncate,
		ItemID:       itemID,
		ContentIndex: contentIndex,
		AudioEndMs:   audioEndMs,
	}
}

// NewItemDelete deletes a conversation item.
func NewItemDelete(itemID string) *ConversationItemDelete {
	return &ConversationItemDelete{
		EventID: generateEventID(),
		Type:    EventTypeConversationItemDelete,
		ItemID:  itemID,
	}
}

// NewResponseCreate requests a response. opts may be nil.
func NewResponseCreate(opts *ResponseCreateOptions) *ResponseCreate {
	return &ResponseCreate{
		EventID:  generateEventID(),
		Type:     EventTypeResponseCreate,
		Response: opts,
	}
}

// NewResponseCancel cancels the in-progress response.
func NewResponseCancel() *ClientEvent {
	return &ClientEvent{EventID: generateEventID(), Type: EventTypeResponseCancel}
}
