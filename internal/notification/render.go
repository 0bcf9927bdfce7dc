package notification

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// context keys substituted verbatim; {name} and the clock values are handled
// separately
var contextVariables = []string{
	"event_name", "event_date", "event_location", "amount", "list_name",
	"achievement_name", "badge_level", "ranking_position", "total_sales", "total_revenue",
}

// Render substitutes the known placeholders in text. Unknown placeholders
// are left untouched and missing values render as an empty string.
func Render(text string, data map[string]interface{}, recipientName string, now time.Time) string {
	if text == "" || !strings.Contains(text, "{") {
		return text
	}

	pairs := make([]string, 0, 2*(len(contextVariables)+3))
	pairs = append(pairs,
		"{name}", recipientName,
		"{current_date}", now.Format("02/01/2006"),
		"{current_time}", now.Format("15:04"),
	)
	for _, key := range contextVariables {
		pairs = append(pairs, "{"+key+"}", formatValue(data[key]))
	}

	return strings.NewReplacer(pairs...).Replace(text)
}

func formatValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

// stringValue reads a context key as text; absent and empty values both
// report false.
func stringValue(data map[string]interface{}, key string) (string, bool) {
	s := formatValue(data[key])
	return s, s != ""
}
