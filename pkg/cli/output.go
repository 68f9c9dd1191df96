package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/goccy/go-yaml"

	"github.com/haivivi/realtime/pkg/realtime"
)

// OutputFormat selects how values are printed.
type OutputFormat string

const (
	// FormatText renders events with Styles, one line each.
	FormatText OutputFormat = "text"
	// FormatJSON prints one compact JSON document per line.
	FormatJSON OutputFormat = "json"
	// FormatYAML prints YAML documents separated by "---".
	FormatYAML OutputFormat = "yaml"
)

// ParseOutputFormat validates a format name. Empty selects FormatText.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(s); f {
	case "":
		return FormatText, nil
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	}
	return "", fmt.Errorf("unsupported output format: %s", s)
}

// Output writes a single value in format. FormatText falls back to YAML for
// values that are not events.
func Output(w io.Writer, format OutputFormat, v any) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML, FormatText, "":
		data, err := yaml.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to format output: %w", err)
		}
		_, err = w.Write(data)
		return err
	}
	return fmt.Errorf("unsupported output format: %s", format)
}

// EventPrinter prints a stream of events. It is safe for concurrent use,
// so a prompt and the event loop can share one terminal.
type EventPrinter struct {
	Format OutputFormat
	Filter *Filter
	Styles Styles

	mu     sync.Mutex
	w      io.Writer
	inline bool
	docs   int
}

// NewEventPrinter returns a printer writing to w, or os.Stdout when w is nil.
func NewEventPrinter(w io.Writer, format OutputFormat, filter *Filter) *EventPrinter {
	if w == nil {
		w = os.Stdout
	}
	return &EventPrinter{
		Format: format,
		Filter: filter,
		Styles: NewStyles(DefaultTheme),
		w:      w,
	}
}

// Print writes ev. With a Filter, the filter results are printed instead of
// the event, in JSON for FormatText.
func (p *EventPrinter) Print(ev realtime.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.Filter != nil {
		results, err := p.Filter.Apply(ev)
		if err != nil {
			return err
		}
		for _, r := range results {
			if err := p.printValue(r); err != nil {
				return err
			}
		}
		return nil
	}

	if p.Format != FormatText && p.Format != "" {
		return p.printValue(ev)
	}

	line := p.Styles.RenderEvent(ev)
	if Inline(ev) {
		p.inline = true
		_, err := io.WriteString(p.w, line)
		return err
	}
	return p.writeLine(line)
}

// Println writes a line of plain text, ending any running inline text first.
func (p *EventPrinter) Println(format string, args ...any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.writeLine(fmt.Sprintf(format, args...))
}

func (p *EventPrinter) writeLine(line string) error {
	if p.inline {
		p.inline = false
		if _, err := io.WriteString(p.w, "\n"); err != nil {
			return err
		}
	}
	_, err := io.WriteString(p.w, line+"\n")
	return err
}

func (p *EventPrinter) printValue(v any) error {
	switch p.Format {
	case FormatYAML:
		// Go through the JSON form so field names and kinds match FormatJSON.
		tree, err := toJQValue(v)
		if err != nil {
			return err
		}
		data, err := yaml.Marshal(tree)
		if err != nil {
			return fmt.Errorf("failed to format event: %w", err)
		}
		if p.docs > 0 {
			if _, err := io.WriteString(p.w, "---\n"); err != nil {
				return err
			}
		}
		p.docs++
		_, err = p.w.Write(data)
		return err
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to format event: %w", err)
		}
		return p.writeLine(string(data))
	}
}

// PrintSuccess prints a success message with a check mark.
func PrintSuccess(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "✓ "+format+"\n", args...)
}

// PrintError prints an error message to stderr.
func PrintError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}
