package realtime

// UpdateSession sends a session.update with config. The configuration the
// Session was created with is left unchanged.
func (s *Session) UpdateSession(config *SessionConfig) {
	s.Send(NewSessionUpdate(config))
}

// AppendAudio appends PCM audio (16-bit, 24kHz, mono, little-endian) to the
// input audio buffer.
func (s *Session) AppendAudio(pcm []byte) {
	s.Send(NewAudioAppend(pcm))
}

// AppendAudioBase64 appends base64-encoded audio to the input buffer.
func (s *Session) AppendAudioBase64(audioBase64 string) {
	s.Send(NewAudioAppendBase64(audioBase64))
}

// CommitInput commits the input audio buffer. Only needed when turn
// detection is disabled.
func (s *Session) CommitInput() {
	s.Send(NewInputCommit())
}

// ClearInput clears the input audio buffer.
func (s *Session) ClearInput() {
	s.Send(NewInputClear())
}

// AddUserMessage adds a user text message to the conversation.
func (s *Session) AddUserMessage(text string) {
	s.Send(NewUserMessage(text))
}

// AddAssistantMessage adds an assistant text message to the conversation.
func (s *Session) AddAssistantMessage(text string) {
	s.Send(NewAssistantMessage(text))
}

// AddFunctionCallOutput returns a function result to the model.
func (s *Session) AddFunctionCallOutput(callID, output string) {
	s.Send(NewFunctionCallOutput(callID, output))
}

// TruncateItem truncates an assistant audio item.
func (s *Session) TruncateItem(itemID string, contentIndex, audioEndMs int) {
	s.Send(NewItemTruncate(itemID, contentIndex, audioEndMs))
}

// DeleteItem deletes a conversation item.
func (s *Session) DeleteItem(itemID string) {
	s.Send(NewItemDelete(itemID))
}

// CreateResponse asks the model to respond. opts may be nil.
func (s *Session) CreateResponse(opts *ResponseCreateOptions) {
	s.Send(NewResponseCreate(opts))
}

// CancelResponse cancels the in-progress response.
func (s *Session) CancelResponse() {
	s.Send(NewResponseCancel())
}
