// Package validate checks generated dashboards and rules for broken PromQL
// and references to metrics the service does not export.
package validate

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/prometheus/prometheus/promql/parser"
)

// Result collects validation findings. Errors are malformed expressions;
// Warnings are references to metrics outside the known set.
type Result struct {
	Errors   []string
	Warnings []string
}

// Ok reports whether validation found no errors.
func (r Result) Ok() bool {
	return len(r.Errors) == 0
}

func (r *Result) merge(other Result) {
	r.Errors = append(r.Errors, other.Errors...)
	r.Warnings = append(r.Warnings, other.Warnings...)
}

// Dashboard validates every PromQL expression embedded in a built dashboard.
// The dashboard is walked through its JSON form, so this works for any panel
// type without depending on the SDK's concrete target types.
func Dashboard(dash any, known map[string]bool) Result {
	var result Result

	data, err := json.Marshal(dash)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("marshaling dashboard: %v", err))
		return result
	}

	var tree any
	if err := json.Unmarshal(data, &tree); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("decoding dashboard: %v", err))
		return result
	}

	for _, expr := range collectExprs(tree) {
		result.merge(Expr(expr, known))
	}
	return result
}

// Expr validates a single PromQL expression against the known metric set.
func Expr(expr string, known map[string]bool) Result {
	var result Result

	node, err := parser.ParseExpr(expr)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("invalid PromQL %q: %v", expr, err))
		return result
	}

	parser.Inspect(node, func(n parser.Node, _ []parser.Node) error {
		vs, ok := n.(*parser.VectorSelector)
		if !ok || vs.Name == "" {
			return nil
		}
		if !known[baseMetricName(vs.Name)] {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("expression %q references unknown metric %q", expr, vs.Name))
		}
		return nil
	})
	return result
}

// collectExprs gathers the values of every "expr" key in a decoded JSON tree.
func collectExprs(node any) []string {
	var exprs []string
	switch v := node.(type) {
	case map[string]any:
		for key, val := range v {
			if key == "expr" {
				if s, ok := val.(string); ok && s != "" {
					exprs = append(exprs, s)
				}
				continue
			}
			exprs = append(exprs, collectExprs(val)...)
		}
	case []any:
		for _, item := range v {
			exprs = append(exprs, collectExprs(item)...)
		}
	}
	return exprs
}

// baseMetricName strips the histogram series suffixes so bucket queries
// resolve against the declared histogram name.
func baseMetricName(name string) string {
	for _, suffix := range []string{"_bucket", "_sum", "_count"} {
		if strings.HasSuffix(name, suffix) {
			return strings.TrimSuffix(name, suffix)
		}
	}
	return name
}
