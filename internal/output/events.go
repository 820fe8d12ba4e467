package output

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/altuslabsxyz/txconfirm/internal/execorder"
	"github.com/altuslabsxyz/txconfirm/pkg/network"
)

// PrintEvents prints the events of a confirmed transaction. Failed dispatches
// are highlighted with their resolved error.
func (l *Logger) PrintEvents(events []network.DecodedEvent) {
	if l.jsonMode {
		return
	}
	fmt.Fprintln(l.out, CyanSeparator())
	if len(events) == 0 {
		fmt.Fprintln(l.out, "no events")
	}
	for _, ev := range events {
		name := fmt.Sprintf("%s.%s", ev.Section, ev.Method)
		if ev.Error != nil {
			color.New(color.FgRed).Fprintf(l.out, "✗ %s: %s\n", name, ev.Error.Name)
			for _, doc := range ev.Error.Docs {
				fmt.Fprintf(l.out, "    %s\n", doc)
			}
		} else {
			color.New(color.FgGreen).Fprintf(l.out, "• %s\n", name)
		}
		for _, arg := range ev.Data {
			fmt.Fprintf(l.out, "    %s: %s\n", argLabel(arg), renderValue(arg.Value))
		}
	}
	fmt.Fprintln(l.out, CyanSeparator())
}

// PrintOrder prints the reconstructed dispatch order of a block.
func (l *Logger) PrintOrder(block *network.Block, res *execorder.Result) {
	if l.jsonMode {
		return
	}
	bold := color.New(color.Bold)
	bold.Fprintf(l.out, "Block #%d %s\n", block.Header.Number, block.Hash)
	if meta := block.Header.Execution; meta != nil {
		fmt.Fprintf(l.out, "seed: %s  count: %d\n", network.Hash(meta.Seed), meta.Count)
	}
	fmt.Fprintln(l.out, Separator())

	idx := 0
	for _, ext := range res.Inherents {
		fmt.Fprintf(l.out, "%4d  %s  inherent\n", idx, ext.Hash)
		idx++
	}
	for r, round := range res.Rounds {
		gray := color.New(color.FgHiBlack)
		gray.Fprintf(l.out, "round %d\n", r+1)
		for _, ext := range round {
			fmt.Fprintf(l.out, "%4d  %s  %s\n", idx, ext.Hash, ext.Signer)
			idx++
		}
	}
}

func argLabel(arg network.EventArg) string {
	if arg.Name != "" {
		return arg.Name
	}
	return arg.TypeName
}

func renderValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "()"
	case string:
		return x
	case fmt.Stringer:
		return x.String()
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return strings.TrimSpace(string(b))
}
