package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/haivivi/realtime/pkg/realtime"
)

// Theme is the color scheme used to render events.
type Theme struct {
	Primary lipgloss.Color
	Dim     lipgloss.Color
	Error   lipgloss.Color
	Input   lipgloss.Color
}

// DefaultTheme is a bright green theme.
var DefaultTheme = Theme{
	Primary: lipgloss.Color("#00ff9f"),
	Dim:     lipgloss.Color("#6e7681"),
	Error:   lipgloss.Color("#ff5f5f"),
	Input:   lipgloss.Color("#5fafff"),
}

// Styles are the lipgloss styles derived from a Theme.
type Styles struct {
	Kind   lipgloss.Style
	Text   lipgloss.Style
	Dim    lipgloss.Style
	Error  lipgloss.Style
	Input  lipgloss.Style
	Prompt lipgloss.Style
}

// NewStyles derives styles from t.
func NewStyles(t Theme) Styles {
	return Styles{
		Kind:   lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Text:   lipgloss.NewStyle(),
		Dim:    lipgloss.NewStyle().Foreground(t.Dim),
		Error:  lipgloss.NewStyle().Bold(true).Foreground(t.Error),
		Input:  lipgloss.NewStyle().Foreground(t.Input),
		Prompt: lipgloss.NewStyle().Bold(true).Foreground(t.Input),
	}
}

// RenderEvent renders ev as one line. Text deltas are rendered bare so a
// streamed response reads as continuous text; callers print them without a
// newline (see Inline).
func (s Styles) RenderEvent(ev realtime.Event) string {
	kind := s.Kind.Render(ev.Kind.String())
	switch ev.Kind {
	case realtime.EventResponseTextDelta, realtime.EventResponseAudioTranscriptDelta:
		return s.Text.Render(ev.Delta)
	case realtime.EventInputTextDelta, realtime.EventConversationItemTranscriptionDelta:
		return s.Input.Render(ev.Delta)
	case realtime.EventResponseTextDone, realtime.EventInputTextDone:
		return kind + " " + s.Dim.Render(fmt.Sprintf("%d chars", len(ev.Text)))
	case realtime.EventResponseAudioTranscriptDone, realtime.EventConversationItemTranscriptionCompleted:
		return kind + " " + s.Input.Render(ev.Transcript)
	case realtime.EventResponseAudioDelta, realtime.EventInputAudioDelta:
		return kind + " " + s.Dim.Render(formatBytes(len(ev.Delta)*3/4))
	case realtime.EventInputSpeechStarted:
		return kind + " " + s.Dim.Render("at "+formatMillis(ev.AudioStartMs))
	case realtime.EventInputSpeechStopped:
		return kind + " " + s.Dim.Render("at "+formatMillis(ev.AudioEndMs))
	case realtime.EventResponseFunctionCall:
		return kind + " " + renderCall(ev.FunctionCall)
	case realtime.EventResponseToolCalls:
		calls := make([]string, 0, len(ev.ToolCalls))
		for _, tc := range ev.ToolCalls {
			calls = append(calls, tc.ID+":"+renderCall(tc.Function))
		}
		return kind + " " + strings.Join(calls, ", ")
	case realtime.EventConversationItemCreated, realtime.EventConversationItemUpdated,
		realtime.EventConversationItemInput, realtime.EventConversationItemResponse:
		if ev.Item != nil {
			return kind + " " + s.Dim.Render(strings.TrimSpace(ev.Item.ID+" "+ev.Item.Role+" "+ev.Item.Type))
		}
	case realtime.EventResponseCreated, realtime.EventResponseDone:
		if ev.Response != nil {
			return kind + " " + s.Dim.Render(strings.TrimSpace(ev.Response.ID+" "+ev.Response.Status))
		}
	case realtime.EventSessionCreated, realtime.EventSessionUpdated:
		if ev.Session != nil {
			return kind + " " + s.Dim.Render(strings.TrimSpace(ev.Session.ID+" "+ev.Session.Model))
		}
	case realtime.EventTurnCreated, realtime.EventTurnUpdated, realtime.EventTurnDone:
		if ev.TurnID != "" {
			return kind + " " + s.Dim.Render(ev.TurnID)
		}
	case realtime.EventError:
		msg := "(no details)"
		if ev.Message != nil {
			msg = *ev.Message
		}
		if ev.Error != nil && ev.Error.Message != "" {
			msg = ev.Error.Message
		}
		return s.Error.Render("error") + " " + msg
	case realtime.EventDebug:
		return s.Dim.Render("debug " + ev.Debug)
	}
	return kind
}

// Inline reports whether ev renders as a fragment of running text.
func Inline(ev realtime.Event) bool {
	switch ev.Kind {
	case realtime.EventResponseTextDelta, realtime.EventResponseAudioTranscriptDelta,
		realtime.EventInputTextDelta, realtime.EventConversationItemTranscriptionDelta:
		return true
	}
	return false
}

func renderCall(fc *realtime.FunctionCall) string {
	if fc == nil {
		return "?"
	}
	return fc.Name + "(" + fc.Arguments + ")"
}

func formatMillis(ms int) string {
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}
	secs := float64(ms) / 1000
	if secs < 60 {
		return fmt.Sprintf("%.1fs", secs)
	}
	mins := int(secs / 60)
	return fmt.Sprintf("%dm%.1fs", mins, secs-float64(mins*60))
}

func formatBytes(n int) string {
	const kb = 1024
	if n >= kb*kb {
		return fmt.Sprintf("%.2f MB", float64(n)/(kb*kb))
	}
	if n >= kb {
		return fmt.Sprintf("%.2f KB", float64(n)/kb)
	}
	return fmt.Sprintf("%d B", n)
}
