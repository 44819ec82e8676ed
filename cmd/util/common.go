package util

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"sigs.k8s.io/yaml"

	"github.com/argoproj-labs/resourcelens/pkg/diff"
	"github.com/argoproj-labs/resourcelens/pkg/resources"
)

const (
	OutputTable = "table"
	OutputJSON  = "json"
	OutputYAML  = "yaml"
)

// PrintResource prints a single resource in YAML or JSON format according to the output format
func PrintResource(out io.Writer, resource any, output string) error {
	switch output {
	case OutputJSON:
		jsonBytes, err := json.MarshalIndent(resource, "", "  ")
		if err != nil {
			return fmt.Errorf("error marshaling json: %w", err)
		}
		_, _ = fmt.Fprintln(out, string(jsonBytes))
	case OutputYAML:
		yamlBytes, err := yaml.Marshal(resource)
		if err != nil {
			return fmt.Errorf("error marshaling yaml: %w", err)
		}
		// marshaled YAML already ends with the new line character
		_, _ = fmt.Fprint(out, string(yamlBytes))
	default:
		return fmt.Errorf("unknown output format: %s", output)
	}
	return nil
}

// PrintComparison prints res as a table of differences, or as JSON or YAML.
func PrintComparison(out io.Writer, res *diff.ComparisonResult, output string) error {
	if output != OutputTable {
		return PrintResource(out, comparisonOutput(res), output)
	}
	_, _ = fmt.Fprintf(out, "--- %s\n+++ %s\n", res.LeftLabel, res.RightLabel)
	printDifferences(out, res.Differences)
	printSummary(out, res.Summary)
	return nil
}

// PrintComparisons prints the comparisons of resources matched by name. Identical
// resources are only counted in table output.
func PrintComparisons(out io.Writer, results []resources.NamedComparison, output string) error {
	if output != OutputTable {
		items := make([]map[string]any, 0, len(results))
		for _, r := range results {
			item := comparisonOutput(r.Result)
			item["name"] = r.Name
			items = append(items, item)
		}
		return PrintResource(out, items, output)
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "NAME\tSTATUS\tADDED\tREMOVED\tMODIFIED\n")
	for _, r := range results {
		s := r.Result.Summary
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\n", r.Name, comparisonStatus(r.Result), s.Added, s.Removed, s.Modified)
	}
	_ = w.Flush()
	for _, r := range results {
		if r.Result.Identical() || r.Result.Left == nil || r.Result.Right == nil {
			continue
		}
		_, _ = fmt.Fprintf(out, "\n--- %s\n+++ %s\n", r.Result.LeftLabel, r.Result.RightLabel)
		printDifferences(out, r.Result.Differences)
	}
	return nil
}

func comparisonStatus(res *diff.ComparisonResult) string {
	switch {
	case res.Left == nil:
		return "OnlyRight"
	case res.Right == nil:
		return "OnlyLeft"
	case res.Identical():
		return "Identical"
	}
	return "Different"
}

// comparisonOutput leaves out the snapshots, which are usually much larger than the
// differences.
func comparisonOutput(res *diff.ComparisonResult) map[string]any {
	return map[string]any{
		"left":        res.LeftLabel,
		"right":       res.RightLabel,
		"status":      comparisonStatus(res),
		"differences": res.Differences,
		"summary":     res.Summary,
	}
}

func printDifferences(out io.Writer, diffs []diff.Difference) {
	if len(diffs) == 0 {
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "PATH\tTYPE\tLEFT\tRIGHT\n")
	for _, d := range diffs {
		path := d.Path
		if path == "" {
			path = "."
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", path, d.Type, formatValue(d.LeftValue), formatValue(d.RightValue))
	}
	_ = w.Flush()
}

func printSummary(out io.Writer, s diff.Summary) {
	_, _ = fmt.Fprintf(out, "%d differences: %d added, %d removed, %d modified\n", s.Total, s.Added, s.Removed, s.Modified)
}

const maxValueWidth = 60

func formatValue(v any) string {
	if v == nil {
		return "-"
	}
	var s string
	if str, ok := v.(string); ok {
		s = str
	} else if data, err := json.Marshal(v); err == nil {
		s = string(data)
	} else {
		s = fmt.Sprintf("%v", v)
	}
	s = strings.ReplaceAll(s, "\n", `\n`)
	if len(s) > maxValueWidth {
		s = s[:maxValueWidth-3] + "..."
	}
	return s
}

// ReadManifest reads a single JSON or YAML object from path, or from stdin when path
// is "-".
func ReadManifest(path string, stdin io.Reader) (map[string]any, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var obj map[string]any
	if err := yaml.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if obj == nil {
		return nil, fmt.Errorf("%s holds no object", path)
	}
	return obj, nil
}

// ParseFieldPaths splits dotted field paths such as `spec.replicas` into keys.
func ParseFieldPaths(paths []string) ([][]string, error) {
	res := make([][]string, 0, len(paths))
	for _, p := range paths {
		keys := strings.Split(p, ".")
		for _, k := range keys {
			if k == "" {
				return nil, fmt.Errorf("invalid field path %q", p)
			}
		}
		res = append(res, keys)
	}
	return res, nil
}
