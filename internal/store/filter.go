package store

import (
	"fmt"
	"strings"
)

// condition is one parsed equality predicate.
type condition struct {
	Field string
	Value string
}

// parseFilter parses the formula subset the pipeline uses: a single
// {field} = 'value' equality, or AND(eq, eq, ...) composition. An empty
// formula means no filtering.
func parseFilter(formula string) ([]condition, error) {
	formula = strings.TrimSpace(formula)
	if formula == "" {
		return nil, nil
	}

	if strings.HasPrefix(strings.ToUpper(formula), "AND(") && strings.HasSuffix(formula, ")") {
		inner := formula[4 : len(formula)-1]
		var conds []condition
		for _, part := range splitTopLevel(inner) {
			c, err := parseEquality(part)
			if err != nil {
				return nil, err
			}
			conds = append(conds, c)
		}
		if len(conds) == 0 {
			return nil, fmt.Errorf("filter: empty AND()")
		}
		return conds, nil
	}

	c, err := parseEquality(formula)
	if err != nil {
		return nil, err
	}
	return []condition{c}, nil
}

// parseEquality parses {field} = 'value'.
func parseEquality(expr string) (condition, error) {
	expr = strings.TrimSpace(expr)
	eq := strings.Index(expr, "=")
	if eq < 0 {
		return condition{}, fmt.Errorf("filter: no '=' in %q", expr)
	}

	field := strings.TrimSpace(expr[:eq])
	if !strings.HasPrefix(field, "{") || !strings.HasSuffix(field, "}") {
		return condition{}, fmt.Errorf("filter: field must be braced in %q", expr)
	}
	field = field[1 : len(field)-1]
	if field == "" {
		return condition{}, fmt.Errorf("filter: empty field in %q", expr)
	}

	value := strings.TrimSpace(expr[eq+1:])
	if len(value) < 2 || value[0] != '\'' || value[len(value)-1] != '\'' {
		return condition{}, fmt.Errorf("filter: value must be quoted in %q", expr)
	}
	return condition{Field: field, Value: value[1 : len(value)-1]}, nil
}

// splitTopLevel splits on commas that are not inside quotes.
func splitTopLevel(s string) []string {
	var parts []string
	var buf strings.Builder
	inQuote := false
	for _, r := range s {
		switch {
		case r == '\'':
			inQuote = !inQuote
			buf.WriteRune(r)
		case r == ',' && !inQuote:
			parts = append(parts, buf.String())
			buf.Reset()
		default:
			buf.WriteRune(r)
		}
	}
	if strings.TrimSpace(buf.String()) != "" {
		parts = append(parts, buf.String())
	}
	return parts
}
