package cli

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/haivivi/realtime/pkg/realtime"
)

func TestFilter_Apply(t *testing.T) {
	delta := realtime.Event{Kind: realtime.EventResponseTextDelta, Type: "response.text.delta", Delta: "He"}
	created := realtime.Event{Kind: realtime.EventSessionCreated, Type: "session.created"}

	tests := []struct {
		name string
		expr string
		ev   realtime.Event
		want []any
	}{
		{"select match", `select(.kind == "responseTextDelta") | .delta`, delta, []any{"He"}},
		{"select miss", `select(.kind == "responseTextDelta") | .delta`, created, nil},
		{"identity", `.type`, created, []any{"session.created"}},
		{"multiple outputs", `.kind, .type`, delta, []any{"responseTextDelta", "response.text.delta"}},
		{"empty halts quietly", `empty`, delta, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := ParseFilter(tt.expr)
			if err != nil {
				t.Fatalf("ParseFilter(%q): %v", tt.expr, err)
			}
			got, err := f.Apply(tt.ev)
			if err != nil {
				t.Fatalf("Apply: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Apply mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFilter_Errors(t *testing.T) {
	if _, err := ParseFilter(`select(`); err == nil {
		t.Error("ParseFilter of a broken expression should fail")
	}
	if _, err := ParseFilter(`$undefined`); err == nil {
		t.Error("ParseFilter with an undefined variable should fail")
	}

	f, err := ParseFilter(`.delta + 1`)
	if err != nil {
		t.Fatalf("ParseFilter: %v", err)
	}
	if _, err := f.Apply(realtime.Event{Kind: realtime.EventResponseTextDelta, Delta: "x"}); err == nil {
		t.Error("adding a number to a string should fail")
	}
}
