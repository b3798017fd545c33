package output

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
)

// TableFormatter formats data as an ASCII table.
//
// Objects print as FIELD/VALUE rows with nested keys joined by dots.
// A list of objects prints one row per element with a column per key.
type TableFormatter struct {
	NoHeaders bool
}

// Format formats data as a table.
func (f *TableFormatter) Format(w io.Writer, data any) error {
	if data == nil {
		return nil
	}

	switch t := data.(type) {
	case *Table:
		return t.RenderWithOptions(w, f.NoHeaders)
	case Table:
		return t.RenderWithOptions(w, f.NoHeaders)
	}

	v, err := generic(data)
	if err != nil {
		return err
	}
	return toTable(v).RenderWithOptions(w, f.NoHeaders)
}

func toTable(v any) *Table {
	switch val := v.(type) {
	case map[string]any:
		table := &Table{Headers: []string{"FIELD", "VALUE"}}
		for _, kv := range flatten("", val) {
			table.AddRow(kv[0], kv[1])
		}
		return table
	case []any:
		return listTable(val)
	default:
		return &Table{Headers: []string{"VALUE"}, Rows: [][]string{{formatScalar(val)}}}
	}
}

func listTable(items []any) *Table {
	keys := map[string]bool{}
	var rows []map[string]string
	for _, item := range items {
		row := map[string]string{}
		if obj, ok := item.(map[string]any); ok {
			for _, kv := range flatten("", obj) {
				row[kv[0]] = kv[1]
				keys[kv[0]] = true
			}
		} else {
			row["value"] = formatScalar(item)
			keys["value"] = true
		}
		rows = append(rows, row)
	}

	columns := sortedKeys(keys)
	table := &Table{}
	for _, c := range columns {
		table.Headers = append(table.Headers, strings.ToUpper(c))
	}
	for _, row := range rows {
		cells := make([]string, len(columns))
		for i, c := range columns {
			cells[i] = orDash(row[c])
		}
		table.AddRow(cells...)
	}
	return table
}

// flatten returns sorted key/value pairs with nested object keys joined by dots.
func flatten(prefix string, obj map[string]any) [][2]string {
	var out [][2]string
	for _, k := range sortedKeys(obj) {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := obj[k].(map[string]any); ok && len(nested) > 0 {
			out = append(out, flatten(key, nested)...)
			continue
		}
		out = append(out, [2]string{key, formatScalar(obj[k])})
	}
	return out
}

func formatScalar(v any) string {
	switch val := v.(type) {
	case nil:
		return "-"
	case string:
		return orDash(val)
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case []any:
		if len(val) == 0 {
			return "-"
		}
		return fmt.Sprintf("[%d items]", len(val))
	case map[string]any:
		if len(val) == 0 {
			return "-"
		}
		return fmt.Sprintf("{%d keys}", len(val))
	default:
		return fmt.Sprintf("%v", val)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Table represents tabular data.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Render renders the table to the writer.
func (t *Table) Render(w io.Writer) error {
	return t.RenderWithOptions(w, false)
}

// RenderWithOptions renders the table with options.
func (t *Table) RenderWithOptions(w io.Writer, noHeaders bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	if !noHeaders && len(t.Headers) > 0 {
		fmt.Fprintln(tw, strings.Join(t.Headers, "\t"))
	}
	for _, row := range t.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}

	return tw.Flush()
}

// AddRow adds a row to the table.
func (t *Table) AddRow(cells ...string) {
	t.Rows = append(t.Rows, cells)
}

// SetHeaders sets the table headers.
func (t *Table) SetHeaders(headers ...string) {
	t.Headers = headers
}
