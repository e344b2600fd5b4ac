package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/samcharles93/lmexplorer/internal/inference"
)

const (
	formatTable = "table"
	formatJSON  = "json"
)

// tableData is a result laid out for the table renderer.
type tableData struct {
	title  string
	header table.Row
	rows   []table.Row
	footer table.Row
}

func render(w io.Writer, format string, v any, layout func() tableData) error {
	switch format {
	case formatJSON:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
		_, err = fmt.Fprintf(w, "%s\n", data)
		return err
	case formatTable, "":
		renderTable(w, layout())
		return nil
	default:
		return fmt.Errorf("unknown output format %q (use %s or %s)", format, formatTable, formatJSON)
	}
}

func renderTable(w io.Writer, td tableData) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	if td.title != "" {
		tw.SetTitle(td.title)
	}
	tw.AppendHeader(td.header)
	tw.AppendRows(td.rows)
	if len(td.footer) > 0 {
		tw.AppendFooter(td.footer)
	}
	tw.Render()
}

// quote makes leading and trailing whitespace in token text visible.
func quote(s string) string {
	return strconv.Quote(s)
}

func predictTable(res *inference.PredictResult) tableData {
	td := tableData{
		title:  quote(res.Output),
		header: table.Row{"#", "word", "logit", "probability"},
	}
	for i, w := range res.Words {
		td.rows = append(td.rows, table.Row{
			i + 1, quote(w),
			fmt.Sprintf("%.4f", res.Logits[i]),
			fmt.Sprintf("%.4f", res.Probabilities[i]),
		})
	}
	td.footer = table.Row{"sample", quote(res.Sample.Word),
		fmt.Sprintf("%.4f", res.Sample.Logit),
		fmt.Sprintf("%.4f", res.Sample.Probability),
	}
	return td
}

func randomTable(res *inference.RandomResult) tableData {
	td := tableData{
		title:  quote(res.Previous),
		header: table.Row{"#", "continuation"},
	}
	for i, w := range res.Words {
		td.rows = append(td.rows, table.Row{i + 1, quote(w)})
	}
	return td
}

func beamTable(res *inference.BeamResult) tableData {
	td := tableData{
		title:  quote(res.Previous),
		header: table.Row{"#", "continuation", "log prob"},
	}
	for i, w := range res.Words {
		td.rows = append(td.rows, table.Row{i + 1, quote(w), fmt.Sprintf("%.4f", res.Logits[i])})
	}
	return td
}

func generateTable(res *inference.GenerateResult) tableData {
	return tableData{
		title:  quote(res.Previous),
		header: table.Row{"output", "tokens", "stopped", "tok/s"},
		rows: []table.Row{{
			quote(res.Output),
			res.Stats.TokensGenerated,
			res.Stopped,
			fmt.Sprintf("%.1f", res.Stats.TPS),
		}},
	}
}
