package graph

import (
	"math"
	"math/big"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Canonical string layouts for temporal values.
const (
	dateLayout          = "2006-01-02"
	localDateTimeLayout = "2006-01-02T15:04:05.999999999"
	localTimeLayout     = "15:04:05.999999999"
	offsetTimeLayout    = "15:04:05.999999999Z07:00"
)

// Coerce converts graph-native values into plain Go values: every integer
// becomes int64, temporal values become canonical strings, and nodes and
// relationships collapse to their property maps. Lists and maps are walked
// recursively. Coerce is idempotent.
func Coerce(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case int:
		return int64(val)
	case int8:
		return int64(val)
	case int16:
		return int64(val)
	case int32:
		return int64(val)
	case uint8:
		return int64(val)
	case uint16:
		return int64(val)
	case uint32:
		return int64(val)
	case uint64:
		if val > math.MaxInt64 {
			return float64(val)
		}
		return int64(val)
	case *big.Int:
		if val == nil {
			return nil
		}
		if val.IsInt64() {
			return val.Int64()
		}
		f, _ := new(big.Float).SetInt(val).Float64()
		return f
	case float32:
		return float64(val)
	case time.Time:
		return val.UTC().Format(time.RFC3339Nano)
	case neo4j.Date:
		return time.Time(val).Format(dateLayout)
	case neo4j.LocalDateTime:
		return time.Time(val).Format(localDateTimeLayout)
	case neo4j.LocalTime:
		return time.Time(val).Format(localTimeLayout)
	case neo4j.Time:
		return time.Time(val).Format(offsetTimeLayout)
	case neo4j.Duration:
		return val.String()
	case neo4j.Node:
		return coerceMap(val.Props)
	case neo4j.Relationship:
		return coerceMap(val.Props)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = Coerce(item)
		}
		return out
	case []string:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = item
		}
		return out
	case map[string]any:
		return coerceMap(val)
	case Row:
		return Row(coerceMap(val))
	default:
		return v
	}
}

func coerceMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = Coerce(v)
	}
	return out
}
