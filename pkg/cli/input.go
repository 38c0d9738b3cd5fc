package cli

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/getmockd/ewsoap/pkg/config"
	"github.com/getmockd/ewsoap/pkg/soap"
	"github.com/spf13/cobra"
)

// readInput reads a file argument; "-" reads the command's stdin.
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

// readBody reads and parses a request body fragment.
func readBody(cmd *cobra.Command, path string) (*etree.Element, error) {
	data, err := readInput(cmd, path)
	if err != nil {
		return nil, err
	}
	return soap.ParseFragment(string(data))
}

// extractFields runs a field map against doc. Without a root query the map is
// applied to the document element and one result is returned; otherwise one
// result per element matched by the root query.
func extractFields(x *soap.Extractor, doc *etree.Document, fm *config.FieldMap, base soap.Namespaces) ([]soap.Result, error) {
	ns := fm.NamespacesWith(base)

	if fm.Root == "" {
		r, err := x.Extract(doc.Root(), fm.Fields, ns)
		if err != nil {
			return nil, err
		}
		return []soap.Result{r}, nil
	}

	q, err := soap.CompileQuery(fm.Root, ns)
	if err != nil {
		return nil, fmt.Errorf("root: %w", err)
	}
	nodes := q.Select(doc.Root())
	if len(nodes) == 0 {
		return nil, fmt.Errorf("root query %q matched nothing", fm.Root)
	}

	results := make([]soap.Result, 0, len(nodes))
	for _, n := range nodes {
		r, err := x.Extract(n.Element, fm.Fields, ns)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, nil
}

// writeResults prints results as "field: value" lines, one block per result.
func writeResults(w io.Writer, results []soap.Result) error {
	for i, r := range results {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		keys := make([]string, 0, len(r))
		for k := range r {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			if _, err := fmt.Fprintf(w, "%s: %s\n", k, formatValue(r[k])); err != nil {
				return err
			}
		}
	}
	return nil
}

func formatValue(v any) string {
	switch t := v.(type) {
	case time.Time:
		return t.Format(time.RFC3339)
	case []any:
		parts := make([]string, len(t))
		for i, e := range t {
			parts[i] = formatValue(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return fmt.Sprint(t)
	}
}
