package realtime

import "encoding/json"

// Models accepted by the realtime endpoint.
const (
	ModelGPT4oRealtimePreview     = "gpt-4o-realtime-preview"
	ModelGPT4oMiniRealtimePreview = "gpt-4o-mini-realtime-preview"
)

// Audio formats.
const (
	// AudioFormatPCM16 is 16-bit PCM audio at 24kHz, mono, little-endian.
	AudioFormatPCM16    = "pcm16"
	AudioFormatG711ULaw = "g711_ulaw"
	AudioFormatG711ALaw = "g711_alaw"
)

// Voices for audio output.
const (
	VoiceAlloy   = "alloy"
	VoiceAsh     = "ash"
	VoiceBallad  = "ballad"
	VoiceCoral   = "coral"
	VoiceEcho    = "echo"
	VoiceSage    = "sage"
	VoiceShimmer = "shimmer"
	VoiceVerse   = "verse"
)

// Turn detection modes.
const (
	VADServerVAD   = "server_vad"
	VADSemanticVAD = "semantic_vad"
)

// Modalities.
const (
	ModalityText  = "text"
	ModalityAudio = "audio"
)

// Tool choice values.
const (
	ToolChoiceAuto     = "auto"
	ToolChoiceNone     = "none"
	ToolChoiceRequired = "required"
)

// SessionConfig describes the session parameters pushed as the first frame
// of every Session. It is treated as immutable once handed to New.
type SessionConfig struct {
	// Modalities specifies the output modalities, e.g. ["text"] or ["text", "audio"].
	Modalities []string `json:"modalities,omitzero" yaml:"modalities,omitempty"`

	// Instructions is the system prompt.
	Instructions string `json:"instructions,omitzero" yaml:"instructions,omitempty"`

	// Voice is the voice ID for audio output.
	Voice string `json:"voice,omitzero" yaml:"voice,omitempty"`

	InputAudioFormat  string `json:"input_audio_format,omitzero" yaml:"input_audio_format,omitempty"`
	OutputAudioFormat string `json:"output_audio_format,omitzero" yaml:"output_audio_format,omitempty"`

	// InputAudioTranscription enables transcription of user audio.
	InputAudioTranscription *TranscriptionConfig `json:"input_audio_transcription,omitzero" yaml:"input_audio_transcription,omitempty"`

	// TurnDetection configures voice activity detection.
	// Nil keeps the server default; see TurnDetectionDisabled.
	TurnDetection *TurnDetection `json:"turn_detection,omitzero" yaml:"turn_detection,omitempty"`

	// TurnDetectionDisabled sends "turn_detection": null, switching the
	// server to manual commit mode.
	TurnDetectionDisabled bool `json:"-" yaml:"turn_detection_disabled,omitempty"`

	// Tools defines the functions the model may call.
	Tools []Tool `json:"tools,omitzero" yaml:"tools,omitempty"`

	// ToolChoice is "auto", "none", "required" or
	// {"type": "function", "name": "my_function"}.
	ToolChoice any `json:"tool_choice,omitzero" yaml:"tool_choice,omitempty"`

	// Temperature controls randomness (0.6-1.2).
	Temperature *float64 `json:"temperature,omitzero" yaml:"temperature,omitempty"`

	// MaxResponseOutputTokens limits the output length.
	MaxResponseOutputTokens *int `json:"max_response_output_tokens,omitzero" yaml:"max_response_output_tokens,omitempty"`
}

// MarshalJSON emits an explicit "turn_detection": null when
// TurnDetectionDisabled is set.
func (s SessionConfig) MarshalJSON() ([]byte, error) {
	type alias SessionConfig
	if !s.TurnDetectionDisabled {
		return json.Marshal(alias(s))
	}
	return json.Marshal(struct {
		alias
		TurnDetection *TurnDetection `json:"turn_detection"`
	}{alias: alias(s)})
}

// TranscriptionConfig configures input audio transcription.
type TranscriptionConfig struct {
	// Model is the transcription model, e.g. whisper-1.
	Model string `json:"model,omitzero" yaml:"model,omitempty"`
}

// TurnDetection configures voice activity detection.
type TurnDetection struct {
	// Type is "server_vad" or "semantic_vad".
	Type string `json:"type,omitzero" yaml:"type,omitempty"`

	// Threshold is the VAD sensitivity (0.0-1.0).
	Threshold float64 `json:"threshold,omitzero" yaml:"threshold,omitempty"`

	PrefixPaddingMs   int `json:"prefix_padding_ms,omitzero" yaml:"prefix_padding_ms,omitempty"`
	SilenceDurationMs int `json:"silence_duration_ms,omitzero" yaml:"silence_duration_ms,omitempty"`

	CreateResponse    *bool `json:"create_response,omitzero" yaml:"create_response,omitempty"`
	InterruptResponse *bool `json:"interrupt_response,omitzero" yaml:"interrupt_response,omitempty"`

	// Eagerness is "low", "medium" or "high" (semantic_vad only).
	Eagerness string `json:"eagerness,omitzero" yaml:"eagerness,omitempty"`
}

// ResponseCreateOptions overrides session parameters for a single response.
type ResponseCreateOptions struct {
	Modalities        []string           `json:"modalities,omitzero"`
	Instructions      string             `json:"instructions,omitzero"`
	Voice             string             `json:"voice,omitzero"`
	OutputAudioFormat string             `json:"output_audio_format,omitzero"`
	Tools             []Tool             `json:"tools,omitzero"`
	ToolChoice        any                `json:"tool_choice,omitzero"`
	Temperature       *float64           `json:"temperature,omitzero"`
	MaxOutputTokens   *int               `json:"max_output_tokens,omitzero"`
	Conversation      string             `json:"conversation,omitzero"` // "auto" or "none"
	Input             []ConversationItem `json:"input,omitzero"`
}

// SessionResource is the session state reported by the server.
type SessionResource struct {
	ID                string               `json:"id,omitzero"`
	Object            string               `json:"object,omitzero"`
	Model             string               `json:"model,omitzero"`
	ExpiresAt         int64                `json:"expires_at,omitzero"`
	Modalities        []string             `json:"modalities,omitzero"`
	Instructions      string               `json:"instructions,omitzero"`
	Voice             string               `json:"voice,omitzero"`
	InputAudioFormat  string               `json:"input_audio_format,omitzero"`
	OutputAudioFormat string               `json:"output_audio_format,omitzero"`
	TurnDetection     *TurnDetection       `json:"turn_detection,omitzero"`
	Transcription     *TranscriptionConfig `json:"input_audio_transcription,omitzero"`
	Tools             []Tool               `json:"tools,omitzero"`
	Temperature       float64              `json:"temperature,omitzero"`
}

// ConversationResource is a conversation reported by the server.
type ConversationResource struct {
	ID     string `json:"id,omitzero"`
	Object string `json:"object,omitzero"`
}

// ConversationItem is an item in the conversation.
type ConversationItem struct {
	ID        string        `json:"id,omitzero"`
	Object    string        `json:"object,omitzero"`
	Type      string        `json:"type,omitzero"` // "message", "function_call", "function_call_output"
	Status    string        `json:"status,omitzero"`
	Role      string        `json:"role,omitzero"` // "user", "assistant", "system"
	Content   []ContentPart `json:"content,omitzero"`
	CallID    string        `json:"call_id,omitzero"`
	Name      string        `json:"name,omitzero"`
	Arguments string        `json:"arguments,omitzero"`
	Output    string        `json:"output,omitzero"`
}

// ContentPart is one part of a message's content.
type ContentPart struct {
	Type       string `json:"type,omitzero"` // "input_text", "input_audio", "text", "audio"
	Text       string `json:"text,omitzero"`
	Audio      string `json:"audio,omitzero"` // base64
	Transcript string `json:"transcript,omitzero"`
}

// ResponseResource is a model response reported by the server.
type ResponseResource struct {
	ID     string             `json:"id,omitzero"`
	Object string             `json:"object,omitzero"`
	Status string             `json:"status,omitzero"` // "in_progress", "completed", "cancelled", "incomplete", "failed"
	Output []ConversationItem `json:"output,omitzero"`
	Usage  *Usage             `json:"usage,omitzero"`
}

// Usage is the token accounting of a response.
type Usage struct {
	TotalTokens  int `json:"total_tokens,omitzero"`
	InputTokens  int `json:"input_tokens,omitzero"`
	OutputTokens int `json:"output_tokens,omitzero"`
}
