package graph

// Row is one coerced result record keyed by the RETURN aliases.
type Row map[string]any

// NewRow zips record keys and values and coerces every value.
func NewRow(keys []string, values []any) Row {
	row := make(Row, len(keys))
	for i, k := range keys {
		if i < len(values) {
			row[k] = Coerce(values[i])
		}
	}
	return row
}

func (r Row) String(key string) string {
	val, ok := r[key]
	if !ok || val == nil {
		return ""
	}
	if str, ok := val.(string); ok {
		return str
	}
	return ""
}

func (r Row) Int64(key string) int64 {
	val, ok := r[key]
	if !ok || val == nil {
		return 0
	}
	switch n := val.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	}
	return 0
}

func (r Row) Float64(key string) float64 {
	val, ok := r[key]
	if !ok || val == nil {
		return 0.0
	}
	switch n := val.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case int:
		return float64(n)
	}
	return 0.0
}

func (r Row) Bool(key string) bool {
	val, ok := r[key]
	if !ok || val == nil {
		return false
	}
	b, _ := val.(bool)
	return b
}

// Has reports whether key is present with a non-nil value.
func (r Row) Has(key string) bool {
	val, ok := r[key]
	return ok && val != nil
}

func (r Row) Strings(key string) []string {
	val, ok := r[key]
	if !ok || val == nil {
		return []string{}
	}
	if slice, ok := val.([]any); ok {
		result := make([]string, 0, len(slice))
		for _, v := range slice {
			if str, ok := v.(string); ok {
				result = append(result, str)
			}
		}
		return result
	}
	return []string{}
}

func (r Row) Int64s(key string) []int64 {
	val, ok := r[key]
	if !ok || val == nil {
		return nil
	}
	slice, ok := val.([]any)
	if !ok {
		return nil
	}
	result := make([]int64, 0, len(slice))
	for _, v := range slice {
		if n, ok := v.(int64); ok {
			result = append(result, n)
		}
	}
	return result
}

// Map returns a nested map value as a Row, or nil when absent.
func (r Row) Map(key string) Row {
	val, ok := r[key]
	if !ok || val == nil {
		return nil
	}
	switch m := val.(type) {
	case map[string]any:
		return Row(m)
	case Row:
		return m
	}
	return nil
}

// Maps returns a list of nested maps, skipping anything that is not a map.
func (r Row) Maps(key string) []Row {
	val, ok := r[key]
	if !ok || val == nil {
		return []Row{}
	}
	slice, ok := val.([]any)
	if !ok {
		return []Row{}
	}
	result := make([]Row, 0, len(slice))
	for _, v := range slice {
		switch m := v.(type) {
		case map[string]any:
			result = append(result, Row(m))
		case Row:
			result = append(result, m)
		}
	}
	return result
}
