package commands

import (
	"bytes"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/haivivi/realtime/pkg/cli"
)

const recordedFrames = `{"type":"session.created","session":{"id":"sess_1"}}
# comment lines are skipped

{"type":"response.text.delta","delta":"He"}
{"type":"rate_limits.updated"}
{"type":"response.text.delta"}
not json
{"type":"response.text.done","text":"Hello"}
`

func TestDecodeFrames(t *testing.T) {
	var out, errOut bytes.Buffer
	printer := cli.NewEventPrinter(&out, cli.FormatJSON, nil)

	stats, err := decodeFrames(strings.NewReader(recordedFrames), printer, decodeOptions{errOut: &errOut})
	if err != nil {
		t.Fatalf("decodeFrames: %v", err)
	}
	want := decodeStats{frames: 6, events: 3, dropped: 2, invalid: 1}
	if stats != want {
		t.Errorf("stats = %+v, want %+v", stats, want)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("printed %d events, want 3:\n%s", len(lines), out.String())
	}
	if !strings.Contains(lines[1], `"delta":"He"`) {
		t.Errorf("second event = %s", lines[1])
	}
	if !strings.Contains(errOut.String(), "line 7") {
		t.Errorf("stderr = %q, want a report for line 7", errOut.String())
	}
}

func TestDecodeFrames_DebugEvents(t *testing.T) {
	var out bytes.Buffer
	printer := cli.NewEventPrinter(&out, cli.FormatJSON, nil)

	_, err := decodeFrames(strings.NewReader(`{"type":"rate_limits.updated"}`), printer, decodeOptions{debugEvents: true})
	if err != nil {
		t.Fatalf("decodeFrames: %v", err)
	}
	if !strings.Contains(out.String(), `"kind":"debug"`) || !strings.Contains(out.String(), "unknown event type") {
		t.Errorf("output = %s", out.String())
	}
}

func TestDecodeFrames_Strict(t *testing.T) {
	printer := cli.NewEventPrinter(&bytes.Buffer{}, cli.FormatJSON, nil)
	_, err := decodeFrames(strings.NewReader("{\"type\":\"turn.done\"}\n[1]\n"), printer, decodeOptions{strict: true})
	if err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Errorf("err = %v, want a line 2 failure", err)
	}
}

func TestDecodeFrames_Msgpack(t *testing.T) {
	data, err := msgpack.Marshal(map[string]any{"type": "turn.created", "turn_id": "turn_1"})
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	printer := cli.NewEventPrinter(&out, cli.FormatJSON, nil)

	input := base64.StdEncoding.EncodeToString(data) + "\n"
	stats, err := decodeFrames(strings.NewReader(input), printer, decodeOptions{msgpack: true})
	if err != nil {
		t.Fatalf("decodeFrames: %v", err)
	}
	if stats.events != 1 || !strings.Contains(out.String(), `"turn_id":"turn_1"`) {
		t.Errorf("stats = %+v, output = %s", stats, out.String())
	}

	if _, err := decodeFrames(strings.NewReader("!!!\n"), printer, decodeOptions{msgpack: true}); err == nil {
		t.Error("invalid base64 should fail")
	}
}
