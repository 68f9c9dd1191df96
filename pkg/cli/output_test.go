package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/haivivi/realtime/pkg/realtime"
)

func TestParseOutputFormat(t *testing.T) {
	for _, s := range []string{"", "text", "json", "yaml"} {
		if _, err := ParseOutputFormat(s); err != nil {
			t.Errorf("ParseOutputFormat(%q): %v", s, err)
		}
	}
	if _, err := ParseOutputFormat("table"); err == nil {
		t.Error("ParseOutputFormat(table) should fail")
	}
}

func TestOutput(t *testing.T) {
	data := map[string]any{"name": "test", "value": 123}

	var buf bytes.Buffer
	if err := Output(&buf, FormatJSON, data); err != nil {
		t.Fatalf("Output error: %v", err)
	}
	var result map[string]any
	if err := json.Unmarshal(buf.Bytes(), &result); err != nil {
		t.Fatalf("invalid JSON output: %v", err)
	}
	if result["name"] != "test" {
		t.Errorf("name = %v, want test", result["name"])
	}

	buf.Reset()
	if err := Output(&buf, FormatYAML, data); err != nil {
		t.Fatalf("Output error: %v", err)
	}
	if !strings.Contains(buf.String(), "name: test") {
		t.Errorf("YAML output should contain 'name: test', got: %s", buf.String())
	}

	if err := Output(&buf, OutputFormat("xml"), data); err == nil {
		t.Error("Output with an unknown format should fail")
	}
}

func TestEventPrinter_JSONLines(t *testing.T) {
	var buf bytes.Buffer
	p := NewEventPrinter(&buf, FormatJSON, nil)
	p.Print(realtime.Event{Kind: realtime.EventResponseTextDelta, Type: "response.text.delta", Delta: "He"})
	p.Print(realtime.Event{Kind: realtime.EventTurnDone, Type: "turn.done"})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	want := []string{
		`{"kind":"responseTextDelta","type":"response.text.delta","delta":"He"}`,
		`{"kind":"turnDone","type":"turn.done"}`,
	}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d: %q", len(lines), len(want), buf.String())
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %s, want %s", i, lines[i], want[i])
		}
	}
}

func TestEventPrinter_YAMLDocuments(t *testing.T) {
	var buf bytes.Buffer
	p := NewEventPrinter(&buf, FormatYAML, nil)
	p.Print(realtime.Event{Kind: realtime.EventSessionCreated, Type: "session.created"})
	p.Print(realtime.Event{Kind: realtime.EventTurnDone, Type: "turn.done"})

	out := buf.String()
	if strings.Count(out, "---\n") != 1 {
		t.Errorf("want one document separator, got: %s", out)
	}
	if !strings.Contains(out, "kind: sessionCreated") || !strings.Contains(out, "type: turn.done") {
		t.Errorf("unexpected YAML output: %s", out)
	}
}

func TestEventPrinter_Filter(t *testing.T) {
	f, err := ParseFilter(`select(.kind == "responseTextDelta") | .delta`)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	p := NewEventPrinter(&buf, FormatText, f)
	p.Print(realtime.Event{Kind: realtime.EventSessionCreated, Type: "session.created"})
	p.Print(realtime.Event{Kind: realtime.EventResponseTextDelta, Type: "response.text.delta", Delta: "He"})

	if got := buf.String(); got != "\"He\"\n" {
		t.Errorf("output = %q, want %q", got, "\"He\"\n")
	}
}

func TestEventPrinter_TextInlineDeltas(t *testing.T) {
	var buf bytes.Buffer
	p := NewEventPrinter(&buf, FormatText, nil)
	p.Print(realtime.Event{Kind: realtime.EventResponseTextDelta, Delta: "Hel"})
	p.Print(realtime.Event{Kind: realtime.EventResponseTextDelta, Delta: "lo"})
	p.Print(realtime.Event{Kind: realtime.EventResponseTextDone, Text: "Hello"})

	lines := strings.Split(buf.String(), "\n")
	if len(lines) != 3 || !strings.Contains(lines[0], "Hello") || !strings.Contains(lines[1], "responseTextDone") {
		t.Errorf("unexpected text output: %q", buf.String())
	}
}

func TestStyles_RenderEvent(t *testing.T) {
	s := NewStyles(DefaultTheme)
	msg := "map[message:bad]"
	tests := []struct {
		ev   realtime.Event
		want string
	}{
		{realtime.Event{Kind: realtime.EventError, Message: &msg, Error: &realtime.ErrorDetail{Message: "bad"}}, "bad"},
		{realtime.Event{Kind: realtime.EventError}, "(no details)"},
		{realtime.Event{Kind: realtime.EventInputSpeechStarted, AudioStartMs: 1500}, "1.5s"},
		{realtime.Event{Kind: realtime.EventInputSpeechStopped, AudioEndMs: 90500}, "1m30.5s"},
		{realtime.Event{Kind: realtime.EventResponseAudioDelta, Delta: strings.Repeat("A", 4096)}, "3.00 KB"},
		{realtime.Event{Kind: realtime.EventResponseFunctionCall, FunctionCall: &realtime.FunctionCall{Name: "f", Arguments: "{}"}}, "f({})"},
		{realtime.Event{Kind: realtime.EventResponseToolCalls, ToolCalls: []realtime.ToolCall{{ID: "1"}}}, "1:?"},
		{realtime.Event{Kind: realtime.EventDebug, Debug: "dropped"}, "dropped"},
		{realtime.Event{Kind: realtime.EventTurnCreated, TurnID: "turn_1"}, "turn_1"},
	}
	for _, tt := range tests {
		if got := s.RenderEvent(tt.ev); !strings.Contains(got, tt.want) {
			t.Errorf("RenderEvent(%v) = %q, want it to contain %q", tt.ev, got, tt.want)
		}
	}
}
