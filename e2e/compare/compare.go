package compare

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
)

// Response represents a normalized API response
type Response struct {
	Data       interface{}
	StatusCode int
	Total      string
}

// IDs returns the sorted "id" values of the rows in the response.
// Values are formatted so that 1, 1.0 and "1" compare equal.
func (r Response) IDs() []string {
	rows, ok := normalizeData(r.Data).([]interface{})
	if !ok {
		return nil
	}

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		m, ok := row.(map[string]interface{})
		if !ok {
			continue
		}
		ids = append(ids, formatID(m["id"]))
	}
	sort.Strings(ids)
	return ids
}

// CompareResponses checks that two responses carry the same status and the same rows.
// Row order is ignored.
func CompareResponses(expected, actual Response) error {
	if expected.StatusCode != actual.StatusCode {
		return fmt.Errorf("status codes differ: expected=%d, actual=%d",
			expected.StatusCode, actual.StatusCode)
	}

	if expected.StatusCode != 200 {
		return nil
	}

	expectedIDs, actualIDs := expected.IDs(), actual.IDs()
	if !reflect.DeepEqual(expectedIDs, actualIDs) {
		return fmt.Errorf("rows differ:\nexpected: %v\nactual: %v", expectedIDs, actualIDs)
	}

	return nil
}

// normalizeData converts data to a comparable format
func normalizeData(data interface{}) interface{} {
	// Convert to JSON and back to normalize types
	jsonBytes, _ := json.Marshal(data)
	var normalized interface{}
	json.Unmarshal(jsonBytes, &normalized)
	return normalized
}

func formatID(v interface{}) string {
	switch id := v.(type) {
	case float64:
		return fmt.Sprintf("%d", int64(id))
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", id)
	}
}
