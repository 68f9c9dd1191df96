// Package cli holds the building blocks of the realtime command-line tool:
// named connection contexts stored in ~/.giztoy/realtime/config.yaml,
// request file loading, jq event filters, and event output in text, JSON
// or YAML.
//
//	cfg, err := cli.LoadConfig("")
//	ctx, err := cfg.ResolveContext("")
//	conn, err := realtime.DialWebSocket(c, ctx.DialOptions()...)
//
//	printer := cli.NewEventPrinter(os.Stdout, cli.FormatJSON, nil)
//	for ev := range session.Events() {
//	    printer.Print(ev)
//	}
package cli
