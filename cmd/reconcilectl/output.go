package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/kailas-cloud/reconciler/internal/domain/entity"
	"github.com/kailas-cloud/reconciler/internal/rowformat"
	"github.com/kailas-cloud/reconciler/internal/usecase/reconcile"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeResults(w io.Writer, results []reconcile.Result, asJSON bool) error {
	if asJSON {
		out := make([]map[string]any, len(results))
		for i, r := range results {
			out[i] = map[string]any{"id": r.ID, "result": r.Candidates}
		}
		return writeJSON(w, out)
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"Query", "#", "ID", "Name", "Score", "Match", "Distance km"})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 5, Align: text.AlignRight},
		{Number: 7, Align: text.AlignRight},
	})
	for _, r := range results {
		if len(r.Candidates) == 0 {
			tw.AppendRow(table.Row{r.ID, "-", "", "(no candidates)", "", "", ""})
			continue
		}
		for i, c := range r.Candidates {
			dist := ""
			if c.DistanceKm != nil {
				dist = fmt.Sprintf("%.1f", *c.DistanceKm)
			}
			match := ""
			if c.Match {
				match = "yes"
			}
			tw.AppendRow(table.Row{r.ID, i + 1, c.ID, c.Name, fmt.Sprintf("%.2f", c.Score), match, dist})
		}
		tw.AppendSeparator()
	}
	tw.Render()
	return nil
}

func writeTypes(w io.Writer, specs []entity.Spec, asJSON bool) error {
	if asJSON {
		out := make([]map[string]any, len(specs))
		for i, s := range specs {
			out[i] = map[string]any{"id": s.Key(), "name": s.Name(), "properties": s.Properties()}
		}
		return writeJSON(w, out)
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"Key", "Name", "Type path", "Properties"})
	for _, s := range specs {
		ids := make([]string, 0, len(s.Properties()))
		for _, p := range s.Properties() {
			ids = append(ids, p.ID)
		}
		tw.AppendRow(table.Row{s.Key(), s.Name(), s.TypePath(), strings.Join(ids, ", ")})
	}
	tw.Render()
	return nil
}

func writeDetails(w io.Writer, d entity.Details, asJSON bool) error {
	if asJSON {
		return writeJSON(w, d)
	}

	keys := make([]string, 0, len(d.Fields))
	for k := range d.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetTitle("%s %s", d.Type, d.ID)
	tw.AppendHeader(table.Row{"Field", "Value"})
	for _, k := range keys {
		tw.AppendRow(table.Row{k, rowformat.Text(d.Fields[k])})
	}
	tw.Render()
	return nil
}
