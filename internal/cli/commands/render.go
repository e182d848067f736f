package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/nonibytes/tarpit/internal/cliutil"
	"github.com/nonibytes/tarpit/tarpit"
	"github.com/nonibytes/tarpit/tarpit/value"
)

// entryView is the json/yaml shape of one record
type entryView struct {
	Ref    int            `json:"ref" yaml:"ref"`
	Fields map[string]any `json:"fields" yaml:"fields"`
}

func viewOf(e tarpit.Entry) entryView {
	return entryView{Ref: e.Ref, Fields: e.Record.Plain()}
}

func printEntries(w io.Writer, format cliutil.OutputFormat, schema tarpit.Schema, entries []tarpit.Entry) {
	switch format {
	case cliutil.FormatJSON, cliutil.FormatYAML:
		views := make([]entryView, len(entries))
		for i, e := range entries {
			views[i] = viewOf(e)
		}
		if format == cliutil.FormatJSON {
			cliutil.PrintJSON(w, views)
		} else {
			cliutil.PrintYAML(w, views)
		}
	default:
		for _, e := range entries {
			fmt.Fprintln(w, summaryLine(schema, e))
		}
	}
}

// summaryLine renders "  3  HD-12 TAR-4  [active]  description"
func summaryLine(schema tarpit.Schema, e tarpit.Entry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%3d  %s", e.Ref, refLabel(tarpit.RefOf(e.Record, schema.Keys)))
	if v, ok := e.Record["status"]; ok {
		fmt.Fprintf(&b, "  [%s]", v.Text())
	}
	if v, ok := e.Record["desc"]; ok {
		b.WriteString("  " + v.Text())
	}
	return b.String()
}

func refLabel(ref tarpit.Ref) string {
	parts := make([]string, len(ref))
	for i, kv := range ref {
		parts[i] = strings.ToUpper(kv.Field) + "-" + kv.Value
	}
	return strings.Join(parts, " ")
}

// showRecord prints the full form of a record: the first key alias with the
// description, the other aliases indented below it, the assignment line and
// the items of every list field.
func showRecord(w io.Writer, schema tarpit.Schema, rec value.Record) {
	pad := ""
	desc := ""
	if v, ok := rec["desc"]; ok {
		desc = " " + v.Text()
	}
	for _, kv := range tarpit.RefOf(rec, schema.Keys) {
		fmt.Fprintf(w, "%s%s-%s%s\n", pad, strings.ToUpper(kv.Field), kv.Value, desc)
		pad = "  "
		desc = ""
	}

	if v, ok := rec["assigned"]; ok {
		assignee := ""
		if who, ok := rec["assignee"]; ok {
			assignee = " to " + who.Text()
		}
		fmt.Fprintf(w, "  Assigned %s%s\n", v.Text(), assignee)
	}
	if v, ok := rec["status"]; ok {
		fmt.Fprintf(w, "  Status %s\n", v.Text())
	}

	for _, name := range schema.Columns().List {
		v, ok := rec[name]
		if !ok {
			continue
		}
		for _, item := range v.List {
			fmt.Fprintf(w, "  %s\n", item)
		}
	}
}
